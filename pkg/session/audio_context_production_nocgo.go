//go:build nocgo
// +build nocgo

package session

// Without cgo there is no real audio output; the factory falls back to the
// mock context.

// ProductionAudioContext is a stub for nocgo builds.
type ProductionAudioContext struct{}

// NewProductionAudioContext always fails in nocgo builds.
func NewProductionAudioContext() (*ProductionAudioContext, error) {
	return nil, ErrAudioUnavailable
}

// NewProductionAudioContextWithRetry always fails in nocgo builds.
func NewProductionAudioContextWithRetry(*PlatformInfo) (*ProductionAudioContext, error) {
	return nil, ErrAudioUnavailable
}

func (pac *ProductionAudioContext) NewPlayer([]byte) (AudioPlayerInterface, error) {
	return nil, ErrAudioUnavailable
}

func (pac *ProductionAudioContext) NewLoopingPlayer([]byte) (AudioPlayerInterface, error) {
	return nil, ErrAudioUnavailable
}

func (pac *ProductionAudioContext) Suspend() error { return ErrAudioUnavailable }
func (pac *ProductionAudioContext) Resume() error  { return ErrAudioUnavailable }
func (pac *ProductionAudioContext) Close() error   { return nil }
func (pac *ProductionAudioContext) IsReady() bool  { return false }
func (pac *ProductionAudioContext) SampleRate() int {
	return SampleRate
}
func (pac *ProductionAudioContext) ChannelCount() int { return Channels }
