package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	mu      sync.Mutex
	logFile *os.File
)

// Init routes the standard logger to logPath and, when console is true, to
// stdout as well. An empty logPath with console false discards output.
func Init(logPath string, console bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stdout)
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		log.SetOutput(io.Discard)
		return nil
	}
	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func LogEvent(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Println(msg)
}

// LogTrial writes one trial step line, e.g.
// "[TRIAL] phase=iteration-2 mode=lite step=screenshot detail=...".
func LogTrial(phase, mode, step string, detail any) {
	log.Println(buildTrialMessage(phase, mode, step, detail))
}

func buildTrialMessage(phase, mode, step string, detail any) string {
	phaseValue := strings.TrimSpace(phase)
	if phaseValue == "" {
		phaseValue = "unknown"
	}
	modeValue := strings.ToLower(strings.TrimSpace(mode))
	if modeValue == "" {
		modeValue = "unknown"
	}
	parts := []string{"[TRIAL]"}
	parts = append(parts, fmt.Sprintf("phase=%s", phaseValue))
	parts = append(parts, fmt.Sprintf("mode=%s", modeValue))
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, fmt.Sprintf("step=%s", step))
	}
	if detail != nil {
		parts = append(parts, fmt.Sprintf("detail=%s", formatPayload(detail)))
	}
	return strings.Join(parts, " ")
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case error:
		return v.Error()
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
