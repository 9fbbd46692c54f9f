package main

import (
	"io"
	"log"
	"os"

	"golang.org/x/term"
)

const (
	ansiReset  = "\033[0m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiGrey   = "\033[90m"
)

// consoleLog splits output into always-on, verbose-only and warning streams.
// Verbose output goes to io.Discard unless enabled.
type consoleLog struct {
	info    *log.Logger
	verbose *log.Logger
	warn    *log.Logger
	color   bool
}

func newConsoleLog(out io.Writer, verbose bool) *consoleLog {
	l := &consoleLog{
		info:    log.New(out, "", log.Ltime),
		verbose: log.New(io.Discard, "", log.Ltime),
		warn:    log.New(out, "", log.Ltime),
	}
	if f, ok := out.(*os.File); ok {
		l.color = term.IsTerminal(int(f.Fd()))
	}
	if verbose {
		l.verbose.SetOutput(out)
	}
	return l
}

func (l *consoleLog) paint(code, msg string) string {
	if !l.color {
		return msg
	}
	return code + msg + ansiReset
}

func (l *consoleLog) Infof(format string, args ...any) {
	l.info.Printf(format, args...)
}

func (l *consoleLog) Debugf(format string, args ...any) {
	l.verbose.Printf(l.paint(ansiGrey, format), args...)
}

func (l *consoleLog) Warnf(format string, args ...any) {
	l.warn.Printf(l.paint(ansiYellow, "warning: "+format), args...)
}

func (l *consoleLog) Errorf(format string, args ...any) {
	l.warn.Printf(l.paint(ansiRed, "error: "+format), args...)
}
