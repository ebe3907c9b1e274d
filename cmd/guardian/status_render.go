package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

// statusReport accumulates health-check sections so the status command can
// run every check before any output is written, then decide colorization
// once for the target writer.
type statusReport struct {
	sections []*statusSection
}

type statusSection struct {
	title string
	lines []statusLine
}

type statusLine struct {
	label   string
	kind    statusKind
	message string
}

func (r *statusReport) section(title string) *statusSection {
	s := &statusSection{title: title}
	r.sections = append(r.sections, s)
	return s
}

func (s *statusSection) add(label string, kind statusKind, message string) {
	s.lines = append(s.lines, statusLine{label: label, kind: kind, message: message})
}

func (r *statusReport) write(w io.Writer) {
	colorize := shouldColorize(w)
	for i, section := range r.sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		heading := fmt.Sprintf("== %s ==", section.title)
		if colorize {
			heading = ansiBlue + heading + ansiReset
		}
		fmt.Fprintln(w, heading)
		for _, line := range section.lines {
			fmt.Fprintln(w, line.render(colorize))
		}
	}
}

func (l statusLine) render(colorize bool) string {
	status := "[" + l.kind.label() + "]"
	if l.message != "" {
		status += " " + l.message
	}
	out := fmt.Sprintf("  %-18s %s", l.label+":", status)
	if colorize {
		if color := l.kind.color(); color != "" {
			return color + out + ansiReset
		}
	}
	return out
}

func (k statusKind) label() string {
	switch k {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (k statusKind) color() string {
	switch k {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
