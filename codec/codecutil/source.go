/*
DESCRIPTION
  source.go provides Source, an immutable random-access byte source with
  bounds-checked reads of bytes, words and double words in both big and
  little endian order.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package codecutil provides byte level helpers shared by the subtitle
// codecs and containers.
package codecutil

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ErrClosed is returned by reads on a closed Source.
var ErrClosed = errors.New("source is closed")

// RangeError describes a read that fell outside the bounds of a Source.
type RangeError struct {
	Off   int // Offset of the attempted read.
	Width int // Number of bytes requested.
	Len   int // Length of the source.
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset 0x%x outside source of length 0x%x", e.Width, e.Off, e.Len)
}

// Fragment identifies a physically contiguous slice of a Source.
type Fragment struct {
	Off int // Offset into the source.
	Len int // Number of bytes.
}

// End returns the offset just past the fragment.
func (f Fragment) End() int { return f.Off + f.Len }

// Source is a read-only byte source. The backing buffer is never modified
// and slices returned by Bytes alias it.
type Source struct {
	buf    []byte
	name   string
	closed bool
}

// NewSource returns a Source backed by b.
func NewSource(b []byte) *Source {
	return &Source{buf: b, name: "memory"}
}

// OpenSource reads the file at path into a new Source. The caller must
// Close the source once parsing is done.
func OpenSource(path string) (*Source, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read source file")
	}
	return &Source{buf: b, name: path}, nil
}

// Close releases the backing buffer. Further reads return ErrClosed.
func (s *Source) Close() error {
	s.buf = nil
	s.closed = true
	return nil
}

// Name returns the file name of the source, or "memory".
func (s *Source) Name() string { return s.name }

// Len returns the number of bytes in the source.
func (s *Source) Len() int { return len(s.buf) }

func (s *Source) check(off, n int) error {
	if s.closed {
		return ErrClosed
	}
	if off < 0 || n < 0 || off+n > len(s.buf) {
		return &RangeError{Off: off, Width: n, Len: len(s.buf)}
	}
	return nil
}

// Byte returns the byte at off.
func (s *Source) Byte(off int) (byte, error) {
	if err := s.check(off, 1); err != nil {
		return 0, err
	}
	return s.buf[off], nil
}

// Word returns the big endian 16 bit value at off.
func (s *Source) Word(off int) (int, error) {
	if err := s.check(off, 2); err != nil {
		return 0, err
	}
	return int(BE16(s.buf[off:])), nil
}

// WordLE returns the little endian 16 bit value at off.
func (s *Source) WordLE(off int) (int, error) {
	if err := s.check(off, 2); err != nil {
		return 0, err
	}
	return int(s.buf[off+1])<<8 | int(s.buf[off]), nil
}

// DWord returns the big endian 32 bit value at off.
func (s *Source) DWord(off int) (int64, error) {
	if err := s.check(off, 4); err != nil {
		return 0, err
	}
	return int64(BE32(s.buf[off:])), nil
}

// DWordLE returns the little endian 32 bit value at off.
func (s *Source) DWordLE(off int) (int64, error) {
	if err := s.check(off, 4); err != nil {
		return 0, err
	}
	b := s.buf[off : off+4]
	return int64(b[3])<<24 | int64(b[2])<<16 | int64(b[1])<<8 | int64(b[0]), nil
}

// BE16 returns the big endian 16 bit value at the start of b, which must hold
// at least 2 bytes.
func BE16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }

// BE32 returns the big endian 32 bit value at the start of b, which must hold
// at least 4 bytes.
func BE32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// Bytes returns n bytes starting at off. The slice aliases the source.
func (s *Source) Bytes(off, n int) ([]byte, error) {
	if err := s.check(off, n); err != nil {
		return nil, err
	}
	return s.buf[off : off+n : off+n], nil
}

// Gather concatenates the given fragments into a new buffer. Fragments, or
// parts of fragments, that lie outside the source are clipped; missing is
// the number of bytes that could not be copied.
func (s *Source) Gather(frags []Fragment) (buf []byte, missing int) {
	total := 0
	for _, f := range frags {
		total += f.Len
	}
	buf = make([]byte, 0, total)
	for _, f := range frags {
		lo, hi := f.Off, f.End()
		if lo < 0 {
			lo = 0
		}
		if hi > len(s.buf) {
			hi = len(s.buf)
		}
		if lo >= hi {
			missing += f.Len
			continue
		}
		buf = append(buf, s.buf[lo:hi]...)
		missing += f.Len - (hi - lo)
	}
	return buf, missing
}
