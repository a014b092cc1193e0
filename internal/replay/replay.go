// Package replay drives a tracing session from a recorded pause log instead
// of a live debugger. The log is JSON Lines: one record per pause, each
// carrying the frame chain innermost-first with stable frame IDs (a gdb
// script emits these from real stop events, using the frame's canonical
// address as the ID).
package replay

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fakeyudi/calltree/internal/host"
	"github.com/fakeyudi/calltree/internal/stack"
)

// ErrEmptyLog is returned by Parse when the input holds no pause records.
var ErrEmptyLog = errors.New("pause log contains no records")

// FrameRecord is one frame of a recorded stack. An empty Func means the
// recorder had no symbol for the frame.
type FrameRecord struct {
	ID   string `json:"id"`
	Func string `json:"func,omitempty"`
}

// Record is the stack observed at one pause, innermost frame first.
type Record struct {
	Frames []FrameRecord `json:"frames"`
}

// ParseError reports a malformed line in a pause log.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pause log line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Parse reads a JSON Lines pause log. Blank lines and lines starting with
// '#' are skipped.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var records []Record
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if len(rec.Frames) == 0 {
			return nil, &ParseError{Line: line, Err: errors.New("record has no frames")}
		}
		for i, f := range rec.Frames {
			if f.ID == "" {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("frame %d has no id", i)}
			}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading pause log: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyLog
	}
	return records, nil
}

// frame adapts a FrameRecord chain to stack.Frame.
type frame struct {
	rec    FrameRecord
	caller *frame
}

func (f *frame) Func() (string, bool) { return f.rec.Func, f.rec.Func != "" }
func (f *frame) Caller() stack.Frame {
	if f.caller == nil {
		return nil
	}
	return f.caller
}
func (f *frame) ID() string { return f.rec.ID }

// build links a record's frames into a chain and returns the innermost one.
func build(rec Record) stack.Frame {
	var outer *frame
	for i := len(rec.Frames) - 1; i >= 0; i-- {
		outer = &frame{rec: rec.Frames[i], caller: outer}
	}
	return outer
}

// Host replays recorded pauses to a single subscriber. Record 0 is the stop
// the session starts from; each directive consumes the next record. When
// directives outlast the log, CurrentFrame reports no frame, which the
// tracer surfaces as a lost-frame abort.
type Host struct {
	records []Record
	pos     int
	pending bool
	handler host.Handler

	advances int
	returns  int
}

// NewHost creates a replay host positioned at the first record.
func NewHost(records []Record) *Host {
	return &Host{records: records}
}

func (h *Host) CurrentFrame() stack.Frame {
	if h.pos >= len(h.records) {
		return nil
	}
	return build(h.records[h.pos])
}

func (h *Host) AdvanceInto() {
	h.advances++
	h.pending = true
}

func (h *Host) RunToReturn() {
	h.returns++
	h.pending = true
}

func (h *Host) OnPause(fn host.Handler) { h.handler = fn }

func (h *Host) RemovePauseHandler(_ host.Handler) { h.handler = nil }

// Run delivers pause notifications until the subscriber stops issuing
// directives or unregisters. Each handler invocation runs to completion
// before the next record is consumed.
func (h *Host) Run() {
	for h.pending && h.handler != nil {
		h.pending = false
		h.pos++
		h.handler()
	}
}

// Advances returns how many advance-into directives were issued.
func (h *Host) Advances() int { return h.advances }

// Returns returns how many run-to-return directives were issued.
func (h *Host) Returns() int { return h.returns }
