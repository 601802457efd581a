// Package nrpe implements the NRPE check-result convention: OK,
// WARNING and CRITICAL severities mapped to process exit codes 0, 1
// and 2.
package nrpe

import "fmt"

// Status is an NRPE severity. The integer value is the process exit
// code, so ordering doubles as badness ordering.
type Status int

const (
	StatusOK       Status = 0
	StatusWarning  Status = 1
	StatusCritical Status = 2
)

// Label returns the message-line prefix for a status.
func (s Status) Label() string {
	switch s {
	case StatusCritical:
		return "CRITICAL"
	case StatusWarning:
		return "WARN"
	default:
		return "OK"
	}
}

func (s Status) String() string {
	return s.Label()
}

// ExitCode returns the NRPE process exit code for a status.
func (s Status) ExitCode() int {
	return int(s)
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if b > a {
		return b
	}
	return a
}

// Line formats one severity-prefixed message line.
func Line(s Status, format string, args ...any) string {
	return fmt.Sprintf("%s: %s", s.Label(), fmt.Sprintf(format, args...))
}

// Result collects the outcome of one check: its worst severity and
// one explanatory line per evaluated condition.
type Result struct {
	Status   Status
	Messages []string
}

// Add appends a line and raises the result severity if needed.
func (r *Result) Add(s Status, format string, args ...any) {
	r.Status = Worst(r.Status, s)
	r.Messages = append(r.Messages, Line(s, format, args...))
}

// Merge folds another result into this one.
func (r *Result) Merge(other Result) {
	r.Status = Worst(r.Status, other.Status)
	r.Messages = append(r.Messages, other.Messages...)
}
