package session

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

// InitializeLogging sets up engine logging. In debug mode events are also
// appended to a log file under the user data scope.
func InitializeLogging(debugMode bool) error {
	if debugMode {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	if debugMode {
		if err := setupDebugLogFile(); err != nil {
			log.Warn("failed to set up debug log file", "error", err)
		}
	}
	return nil
}

func setupDebugLogFile() error {
	scope := gap.NewScope(gap.User, "sessionaudio")
	logPath, err := scope.DataPath("debug.log")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return err
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	// The file stays open for the process lifetime.
	log.SetOutput(file)
	log.SetTimeFormat(time.RFC3339)
	log.Debug("debug log file opened", "path", logPath)
	return nil
}

// LogPlaybackEvent records a playback event for diagnostics.
func LogPlaybackEvent(event string, keyvals ...interface{}) {
	args := append([]interface{}{"event", event}, keyvals...)
	log.Debug("playback event", args...)
}
