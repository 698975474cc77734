// Package diag carries the non-fatal findings of a stage next to its output
// table and builds the process logger.
package diag

import (
	"fmt"

	"github.com/StefanoRaimondi-prog/Analisi-Amazon-FBA/internal/table"
	"github.com/rs/zerolog"
)

// Level classifies a note.
type Level string

const (
	Info Level = "info"
	Warn Level = "warn"
)

// Note is one diagnostic emitted by a stage.
type Note struct {
	Stage   string `json:"stage"`
	Column  string `json:"column,omitempty"`
	Level   Level  `json:"level"`
	Count   int    `json:"count,omitempty"`
	Message string `json:"message"`
}

func (n Note) String() string {
	if n.Column != "" {
		return fmt.Sprintf("[%s] %s: %s (%s)", n.Level, n.Stage, n.Message, n.Column)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Level, n.Stage, n.Message)
}

// Result is a table together with the notes produced while deriving it.
type Result struct {
	Table *table.Table
	Notes []Note
}

// Warnings returns only the warn-level notes.
func (r Result) Warnings() []Note {
	var out []Note
	for _, n := range r.Notes {
		if n.Level == Warn {
			out = append(out, n)
		}
	}
	return out
}

// Recorder collects notes for one stage and mirrors them to the logger.
type Recorder struct {
	log   zerolog.Logger
	stage string
	notes []Note
}

// NewRecorder returns a recorder that tags every note with stage.
func NewRecorder(log zerolog.Logger, stage string) *Recorder {
	return &Recorder{log: log, stage: stage}
}

// Info records an informational note.
func (r *Recorder) Info(column string, count int, format string, args ...any) {
	r.add(Info, column, count, fmt.Sprintf(format, args...))
}

// Warn records a warning.
func (r *Recorder) Warn(column string, count int, format string, args ...any) {
	r.add(Warn, column, count, fmt.Sprintf(format, args...))
}

func (r *Recorder) add(level Level, column string, count int, msg string) {
	r.notes = append(r.notes, Note{Stage: r.stage, Column: column, Level: level, Count: count, Message: msg})
	ev := r.log.Info()
	if level == Warn {
		ev = r.log.Warn()
	}
	if column != "" {
		ev = ev.Str("column", column)
	}
	if count > 0 {
		ev = ev.Int("count", count)
	}
	ev.Str("stage", r.stage).Msg(msg)
}

// Notes returns the notes recorded so far.
func (r *Recorder) Notes() []Note {
	out := make([]Note, len(r.notes))
	copy(out, r.notes)
	return out
}

// Result pairs t with the recorded notes.
func (r *Recorder) Result(t *table.Table) Result {
	return Result{Table: t, Notes: r.Notes()}
}
