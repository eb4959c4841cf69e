/*
DESCRIPTION
  source_test.go provides testing for Source reads and fragment gathering.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

func TestSourceReads(t *testing.T) {
	s := NewSource([]byte{0x12, 0x34, 0x56, 0x78, 0x9a})

	b, err := s.Byte(4)
	if err != nil || b != 0x9a {
		t.Errorf("unexpected Byte result: got:%#x err:%v", b, err)
	}
	w, err := s.Word(0)
	if err != nil || w != 0x1234 {
		t.Errorf("unexpected Word result: got:%#x err:%v", w, err)
	}
	w, err = s.WordLE(0)
	if err != nil || w != 0x3412 {
		t.Errorf("unexpected WordLE result: got:%#x err:%v", w, err)
	}
	d, err := s.DWord(1)
	if err != nil || d != 0x3456789a {
		t.Errorf("unexpected DWord result: got:%#x err:%v", d, err)
	}
	d, err = s.DWordLE(0)
	if err != nil || d != 0x78563412 {
		t.Errorf("unexpected DWordLE result: got:%#x err:%v", d, err)
	}
	if v := BE16([]byte{0xfe, 0xdc}); v != 0xfedc {
		t.Errorf("unexpected BE16 result: got:%#x", v)
	}
	if v := BE32([]byte{0xfe, 0xdc, 0xba, 0x98, 0x76}); v != 0xfedcba98 {
		t.Errorf("unexpected BE32 result: got:%#x", v)
	}
}

func TestSourceOutOfRange(t *testing.T) {
	s := NewSource([]byte{0x01, 0x02, 0x03})
	tests := []struct {
		name string
		read func() error
	}{
		{"byte", func() error { _, err := s.Byte(3); return err }},
		{"negative", func() error { _, err := s.Byte(-1); return err }},
		{"word", func() error { _, err := s.Word(2); return err }},
		{"dword", func() error { _, err := s.DWord(0); return err }},
		{"bytes", func() error { _, err := s.Bytes(1, 3); return err }},
	}
	for _, test := range tests {
		err := test.read()
		var re *RangeError
		if !errors.As(err, &re) {
			t.Errorf("%s: expected RangeError, got: %v", test.name, err)
		}
	}

	s.Close()
	if _, err := s.Byte(0); err != ErrClosed {
		t.Errorf("expected ErrClosed after Close, got: %v", err)
	}
}

func TestGather(t *testing.T) {
	s := NewSource([]byte("abcdefghij"))
	buf, missing := s.Gather([]Fragment{{Off: 0, Len: 3}, {Off: 5, Len: 2}, {Off: 8, Len: 4}})
	if !bytes.Equal(buf, []byte("abcfgij")) {
		t.Errorf("unexpected gathered data: got:%q", buf)
	}
	if missing != 2 {
		t.Errorf("unexpected missing count: got:%d want:2", missing)
	}
}
