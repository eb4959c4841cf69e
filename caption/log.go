/*
DESCRIPTION
  log.go provides the warning taxonomy, the ordered warning log and the
  result type returned by demux and encode operations.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package caption

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a warning or error.
type Kind int

// Warning kinds.
const (
	// MalformedStream is a bad magic/sync value or a corrupt header.
	MalformedStream Kind = iota

	// InconsistentBuffer is a declared RLE or control size that does not
	// match the bytes actually available.
	InconsistentBuffer

	// OutOfRange is an RLE decode that ran past its target bitmap.
	OutOfRange

	// Policy is an informational note: fade-out suppressed, zero alpha,
	// epoch merged or discarded, animation not supported.
	Policy
)

func (k Kind) String() string {
	switch k {
	case MalformedStream:
		return "malformed stream"
	case InconsistentBuffer:
		return "inconsistent buffer"
	case OutOfRange:
		return "out of range"
	case Policy:
		return "policy"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ErrMalformed is the cause of every MalformedStream error.
var ErrMalformed = errors.New("malformed stream")

// StreamError is a fatal condition found at a byte offset of a stream.
type StreamError struct {
	Kind Kind
	Off  int64
	Err  error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%v at offset 0x%x: %v", e.Kind, e.Off, e.Err)
}

// Cause allows errors.Cause to reach the underlying error.
func (e *StreamError) Cause() error { return e.Err }

// Unwrap allows errors.Is and errors.As to reach the underlying error.
func (e *StreamError) Unwrap() error { return e.Err }

// Malformed returns a MalformedStream error at off.
func Malformed(off int64, format string, args ...interface{}) error {
	return &StreamError{Kind: MalformedStream, Off: off, Err: errors.Wrapf(ErrMalformed, format, args...)}
}

// Warning is a recoverable condition.
type Warning struct {
	Kind    Kind
	Off     int64 // Byte offset in the source, -1 when not applicable.
	Caption int   // Caption index, -1 when not applicable.
	Msg     string
}

func (w Warning) String() string {
	var b strings.Builder
	b.WriteString(w.Kind.String())
	if w.Off >= 0 {
		fmt.Fprintf(&b, " at 0x%x", w.Off)
	}
	if w.Caption >= 0 {
		fmt.Fprintf(&b, " (caption %d)", w.Caption)
	}
	b.WriteString(": ")
	b.WriteString(w.Msg)
	return b.String()
}

// Warn returns a Warning at byte offset off.
func Warn(k Kind, off int64, format string, args ...interface{}) Warning {
	return Warning{Kind: k, Off: off, Caption: -1, Msg: fmt.Sprintf(format, args...)}
}

// WarnCaption returns a Warning attached to caption index i.
func WarnCaption(k Kind, i int, format string, args ...interface{}) Warning {
	return Warning{Kind: k, Off: -1, Caption: i, Msg: fmt.Sprintf(format, args...)}
}

// Log is an ordered list of warnings associated with one operation.
type Log []Warning

// Add appends warnings to the log.
func (l *Log) Add(w ...Warning) { *l = append(*l, w...) }

// Count returns the number of warnings of kind k.
func (l Log) Count(k Kind) int {
	n := 0
	for _, w := range l {
		if w.Kind == k {
			n++
		}
	}
	return n
}

// Summary returns the number of warnings per kind.
func (l Log) Summary() map[Kind]int {
	m := make(map[Kind]int)
	for _, w := range l {
		m[w.Kind]++
	}
	return m
}

// String formats the summary, e.g. "2 policy, 1 out of range".
func (l Log) String() string {
	m := l.Summary()
	kinds := make([]int, 0, len(m))
	for k := range m {
		kinds = append(kinds, int(k))
	}
	sort.Ints(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%d %v", m[Kind(k)], Kind(k)))
	}
	if len(parts) == 0 {
		return "no warnings"
	}
	return strings.Join(parts, ", ")
}

// Result is the outcome of demuxing a stream. A non-nil Err with captions
// present means the stream was truncated at the point of the error and the
// captions before it are usable.
type Result struct {
	Captions []*Caption
	Log      Log
	Err      error
}

// Fatal reports whether nothing usable was recovered.
func (r *Result) Fatal() bool {
	return r.Err != nil && len(r.Captions) == 0
}
