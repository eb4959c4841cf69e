/*
DESCRIPTION
  ifo_test.go provides testing for IFO palette extraction and writing.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package ifo

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

// synthetic returns a 0x1800 byte IFO whose program chain table is in the
// second sector and whose first program chain starts 0x20 bytes into it.
func synthetic() []byte {
	b := make([]byte, 0x1800)
	copy(b, "DVDVIDEO-VTS")
	b[0xcf] = 1
	b[0x200] = 0x10 // PAL.
	b[0x258], b[0x259] = 'd', 'e'
	b[0x800+0x0f] = 0x20
	for i := 0; i < 16; i++ {
		copy(b[0x800+0x20+0xa4+4*i:], []byte{0, byte(16 + i), byte(128 + i), byte(128 - i)})
	}
	return b
}

func TestParse(t *testing.T) {
	f, err := Parse(codecutil.NewSource(synthetic()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range f.Palette.Entries {
		want := palette.Entry{Y: byte(16 + i), Cr: byte(128 + i), Cb: byte(128 - i), Alpha: 0xff}
		if e != want {
			t.Errorf("palette entry %d: got %+v, want %+v", i, e, want)
		}
	}
	if f.Language != "de" || f.Standard() != PAL {
		t.Errorf("got language %q and standard %d", f.Language, f.Standard())
	}
	if w, h := f.ScreenSize(); w != 720 || h != 576 {
		t.Errorf("got screen size %dx%d", w, h)
	}
}

func TestRoundTrip(t *testing.T) {
	p := palette.FromRGB(palette.DefaultDVD, false)
	want := New(NTSC, "en", p)
	var buf bytes.Buffer
	_, err := want.WriteTo(&buf)
	if err != nil {
		t.Fatalf("could not write: %v", err)
	}
	if buf.Len() != Size {
		t.Errorf("got %d bytes, want %d", buf.Len(), Size)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("could not read: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected ifo (-want +got):\n%s", diff)
	}
	if w, h := got.ScreenSize(); w != 720 || h != 480 {
		t.Errorf("got screen size %dx%d", w, h)
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(codecutil.NewSource([]byte("DVDVIDEO-VMG")))
	if errors.Cause(err) != errHeader {
		t.Errorf("got error %v, want bad header", err)
	}
	b := synthetic()
	b[0xcf] = 3 // Program chain table beyond the file.
	_, err = Parse(codecutil.NewSource(b))
	if err == nil {
		t.Error("expected error for program chain table outside file")
	}
}
