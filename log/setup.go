package log

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kataras/golog"
)

const (
	debugLogName = "debug.json.log"
	errorLogName = "error.json.log"
)

// Setup wires the package-level logger: a console logger at the requested
// level plus two JSON files under dir/logs, one capturing everything at
// debug level and one capturing errors only. The returned close function
// flushes and closes the log files.
func Setup(dir string, level LogLevel) (Logger, func() error, error) {
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}

	debugFile, err := os.OpenFile(filepath.Join(logDir, debugLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	errorFile, err := os.OpenFile(filepath.Join(logDir, errorLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		debugFile.Close()
		return nil, nil, fmt.Errorf("open error log: %w", err)
	}

	console := NewGologLogger(golog.New())
	console.SetLevel(level)

	debugGolog := golog.New()
	debugGolog.SetOutput(debugFile)
	debugGolog.SetFormat("json")
	debugLogger := NewGologLogger(debugGolog)
	debugLogger.SetLevel(LogLevelDebug)

	errorGolog := golog.New()
	errorGolog.SetOutput(errorFile)
	errorGolog.SetFormat("json")
	errorLogger := NewGologLogger(errorGolog)
	errorLogger.SetLevel(LogLevelError)

	logger := NewMultiLogger(console, debugLogger, errorLogger)
	SetDefaultLogger(logger)

	closeFn := func() error {
		derr := debugFile.Close()
		eerr := errorFile.Close()
		if derr != nil {
			return derr
		}
		return eerr
	}
	return logger, closeFn, nil
}
