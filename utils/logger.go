package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	info      *log.Logger
	warn      *log.Logger
	err       *log.Logger
	debug     *log.Logger
	debugOn   bool
	timestamp func() time.Time
}

// NewLogger creates a Logger writing to stdout/stderr with debug output on.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, true)
}

// NewLoggerTo creates a Logger writing info/warn/debug to out and errors to
// errOut. Debug lines are dropped unless debug is true.
func NewLoggerTo(out, errOut io.Writer, debug bool) *Logger {
	flags := 0
	return &Logger{
		info:      log.New(out, "", flags),
		warn:      log.New(out, "", flags),
		err:       log.New(errOut, "", flags),
		debug:     log.New(out, "", flags),
		debugOn:   debug,
		timestamp: time.Now,
	}
}

// NewDiscardLogger returns a Logger that writes nowhere.
func NewDiscardLogger() *Logger {
	return NewLoggerTo(io.Discard, io.Discard, false)
}

func (l *Logger) stamp() string {
	return l.timestamp().Format("2006-01-02 15:04:05")
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(fmt.Sprintf("[%s] \033[32mINFO\033[0m  %s\n", l.stamp(), format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(fmt.Sprintf("[%s] \033[33mWARN\033[0m  %s\n", l.stamp(), format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(fmt.Sprintf("[%s] \033[31mERROR\033[0m %s\n", l.stamp(), format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugOn {
		return
	}
	l.debug.Printf(fmt.Sprintf("[%s] \033[36mDEBUG\033[0m %s\n", l.stamp(), format), args...)
}

// Logf adapts the logger to printf-style callbacks such as chromedp's.
func (l *Logger) Logf(format string, args ...any) {
	l.Debug(format, args...)
}
