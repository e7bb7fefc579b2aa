// Package logging provides a minimal process-wide logger shared by every
// component of the agent processor.
package logging

import (
	"log"
	"os"
)

var (
	disabled = false
	logger   = log.New(os.Stdout, "", log.LstdFlags)
)

// Disable turns off all logging (used for quiet-mode CLI output).
func Disable() { disabled = true }

// Enable turns logging back on.
func Enable() { disabled = false }

func Info(v ...any) {
	if !disabled {
		logger.Println(v...)
	}
}

func Infof(format string, v ...any) {
	if !disabled {
		logger.Printf(format, v...)
	}
}

func Warn(v ...any) {
	if !disabled {
		logger.Println(v...)
	}
}

func Warnf(format string, v ...any) {
	if !disabled {
		logger.Printf(format, v...)
	}
}

func Error(v ...any) {
	if !disabled {
		logger.Println(v...)
	}
}

func Errorf(format string, v ...any) {
	if !disabled {
		logger.Printf(format, v...)
	}
}

// Logger is a value type that can be embedded in structs that want a
// logging.Info/Error surface without holding process-global state directly.
type Logger struct{}

func (Logger) Info(v ...any)                    { Info(v...) }
func (Logger) Infof(format string, v ...any)    { Infof(format, v...) }
func (Logger) Warn(v ...any)                    { Warn(v...) }
func (Logger) Warnf(format string, v ...any)    { Warnf(format, v...) }
func (Logger) Error(v ...any)                   { Error(v...) }
func (Logger) Errorf(format string, v ...any)   { Errorf(format, v...) }
