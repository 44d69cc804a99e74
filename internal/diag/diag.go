// Package diag collects recoverable problems found while reading a map.
//
// A Sink is owned by whoever starts a read and passed by reference into
// every builder. Entries are only ever appended, in the order they were
// produced.
package diag

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity ranks a diagnostic entry.
type Severity int

const (
	Info Severity = iota
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Entry is one diagnostic message.
type Entry struct {
	Severity Severity
	Message  string
}

func (e Entry) String() string {
	return e.Severity.String() + ": " + e.Message
}

// Sink is an append-only diagnostics log. It is not safe for concurrent use.
type Sink struct {
	entries []Entry
	log     *logrus.Entry
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{entries: make([]Entry, 0)}
}

// WithLogger mirrors every appended entry to log.
func (s *Sink) WithLogger(log *logrus.Entry) *Sink {
	s.log = log
	return s
}

// Add appends an entry.
func (s *Sink) Add(sev Severity, format string, args ...interface{}) {
	e := Entry{Severity: sev, Message: fmt.Sprintf(format, args...)}
	s.entries = append(s.entries, e)

	if s.log == nil {
		return
	}
	l := s.log.WithField("severity", sev.String())
	switch sev {
	case Error:
		l.Error(e.Message)
	case Warn:
		l.Warn(e.Message)
	default:
		l.Info(e.Message)
	}
}

func (s *Sink) Info(format string, args ...interface{})  { s.Add(Info, format, args...) }
func (s *Sink) Warn(format string, args ...interface{})  { s.Add(Warn, format, args...) }
func (s *Sink) Error(format string, args ...interface{}) { s.Add(Error, format, args...) }

// Entries returns a copy of everything logged so far.
func (s *Sink) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of entries.
func (s *Sink) Len() int {
	return len(s.entries)
}

// Count returns how many entries have the given severity.
func (s *Sink) Count(sev Severity) int {
	n := 0
	for _, e := range s.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

func (s *Sink) HasErrors() bool { return s.Count(Error) > 0 }
