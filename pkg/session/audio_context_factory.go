package session

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	globalAudioContext     AudioContextInterface
	globalAudioContextOnce sync.Once
	globalAudioContextErr  error
)

// NewAudioContext creates an appropriate audio context based on the
// environment.
func NewAudioContext(contextType AudioContextType) (AudioContextInterface, error) {
	switch contextType {
	case AudioContextProduction:
		log.Debug("creating production audio context")
		return NewProductionAudioContext()

	case AudioContextMock:
		log.Debug("creating mock audio context")
		return NewMockAudioContext()

	case AudioContextAuto:
		platform := DetectPlatform()
		if platform.ShouldUseMockAudio() {
			reason := "no audio devices"
			if platform.IsCI {
				reason = "CI environment"
			}
			log.Info("using mock audio context", "reason", reason)
			return NewMockAudioContext()
		}

		prodCtx, err := NewProductionAudioContextWithRetry(platform)
		if err != nil {
			log.Warn("falling back to mock audio context",
				"error", err,
				"platform", platform.OS)
			return NewMockAudioContext()
		}
		return prodCtx, nil

	default:
		return nil, fmt.Errorf("unknown audio context type: %v", contextType)
	}
}

// GetGlobalAudioContext returns the process-wide audio context, creating it
// on first call.
func GetGlobalAudioContext() (AudioContextInterface, error) {
	globalAudioContextOnce.Do(func() {
		globalAudioContext, globalAudioContextErr = NewAudioContext(AudioContextAuto)
	})
	if globalAudioContextErr != nil {
		return nil, globalAudioContextErr
	}
	return globalAudioContext, nil
}

// SetGlobalAudioContext replaces the global audio context (testing only).
func SetGlobalAudioContext(ctx AudioContextInterface) {
	globalAudioContextOnce.Do(func() {})
	globalAudioContext = ctx
	globalAudioContextErr = nil
}

// ResetGlobalAudioContext resets the global audio context (testing only).
func ResetGlobalAudioContext() {
	if globalAudioContext != nil {
		_ = globalAudioContext.Close()
	}
	globalAudioContext = nil
	globalAudioContextOnce = sync.Once{}
	globalAudioContextErr = nil
}
