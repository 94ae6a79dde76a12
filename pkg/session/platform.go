package session

import (
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Platform represents the current operating system platform.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformDarwin  Platform = "darwin"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// AudioSubsystem represents the available audio subsystem.
type AudioSubsystem string

const (
	AudioSubsystemALSA       AudioSubsystem = "alsa"
	AudioSubsystemPulseAudio AudioSubsystem = "pulseaudio"
	AudioSubsystemCoreAudio  AudioSubsystem = "coreaudio"
	AudioSubsystemWASAPI     AudioSubsystem = "wasapi"
	AudioSubsystemNone       AudioSubsystem = "none"
)

// PlatformInfo contains information about the current platform.
type PlatformInfo struct {
	OS             Platform
	AudioSubsystem AudioSubsystem
	HasAudioDevice bool
	IsCI           bool
}

// IsCI detects if we're running in a CI environment.
func IsCI() bool {
	ciVars := []string{
		"CI",
		"CONTINUOUS_INTEGRATION",
		"GITHUB_ACTIONS",
		"GITLAB_CI",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"BUILDKITE",
	}
	for _, envVar := range ciVars {
		if val := os.Getenv(envVar); val != "" && val != "false" {
			log.Debug("CI environment detected", "variable", envVar)
			return true
		}
	}
	if os.Getenv("SESSIONAUDIO_MOCK_AUDIO") == "true" {
		log.Debug("mock audio requested via environment variable")
		return true
	}
	return false
}

// DetectPlatform detects the current platform and audio capabilities.
func DetectPlatform() *PlatformInfo {
	info := &PlatformInfo{
		OS:   getPlatform(),
		IsCI: IsCI(),
	}

	switch info.OS {
	case PlatformLinux:
		info.AudioSubsystem = detectLinuxAudio()
		info.HasAudioDevice = info.AudioSubsystem != AudioSubsystemNone
	case PlatformDarwin:
		info.AudioSubsystem = AudioSubsystemCoreAudio
		info.HasAudioDevice = true
	case PlatformWindows:
		info.AudioSubsystem = AudioSubsystemWASAPI
		info.HasAudioDevice = true
	default:
		info.AudioSubsystem = AudioSubsystemNone
	}

	log.Debug("platform detected",
		"os", info.OS,
		"audio", info.AudioSubsystem,
		"has_device", info.HasAudioDevice,
		"is_ci", info.IsCI)
	return info
}

// ShouldUseMockAudio reports whether real audio output is pointless here.
func (p *PlatformInfo) ShouldUseMockAudio() bool {
	return p.IsCI || !p.HasAudioDevice || p.AudioSubsystem == AudioSubsystemNone
}

func getPlatform() Platform {
	switch runtime.GOOS {
	case "linux":
		return PlatformLinux
	case "darwin":
		return PlatformDarwin
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

func detectLinuxAudio() AudioSubsystem {
	if isCommandAvailable("pactl") {
		if output, err := exec.Command("pactl", "info").Output(); err == nil {
			if strings.Contains(string(output), "Server Name") {
				return AudioSubsystemPulseAudio
			}
		}
	}
	if isCommandAvailable("aplay") {
		if output, err := exec.Command("aplay", "-l").Output(); err == nil {
			if strings.Contains(string(output), "card") {
				return AudioSubsystemALSA
			}
		}
	}
	return AudioSubsystemNone
}

func isCommandAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// externalAudioPlaying probes whether another application is actively
// producing output audio. Best effort: only PulseAudio/PipeWire expose a
// cheap query, everywhere else the answer is "unknown" and callers fall back
// to the heuristic hint.
func externalAudioPlaying(info *PlatformInfo) bool {
	if info.OS != PlatformLinux || info.AudioSubsystem != AudioSubsystemPulseAudio {
		return false
	}
	output, err := exec.Command("pactl", "list", "short", "sink-inputs").Output()
	if err != nil {
		log.Debug("external audio probe failed", "error", err)
		return false
	}
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}
