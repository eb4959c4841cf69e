/*
DESCRIPTION
  hddvd_test.go provides testing for HD-DVD SUP reading, decoding and
  writing.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hddvd

import (
	"bytes"
	"context"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/spu"
)

func testBitmap() *caption.Bitmap {
	p := palette.New(20)
	for i := 1; i < p.Len(); i++ {
		p.Entries[i] = palette.Entry{Y: uint8(16 + 10*i), Cb: uint8(100 + i), Cr: uint8(150 - i), Alpha: uint8(55 + 10*i)}
	}
	bm := caption.NewBitmap(150, 21, p)
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			bm.Pix[y*bm.Width+x] = byte((x/(y+1) + y) % 20)
		}
	}
	return bm
}

func TestRoundTrip(t *testing.T) {
	bm := testBitmap()
	caps := []*caption.Caption{
		{Start: 1000, End: 1000 + 3*caption.PTSFrequency, X: 400, Y: 900, Forced: true},
		{Start: 900000, End: 900000 + caption.PTSFrequency, X: 0, Y: 0},
	}
	var buf bytes.Buffer
	e := NewEncoder(&buf, (*logging.TestLogger)(t))
	for _, c := range caps {
		err := e.Encode(c, bm)
		if err != nil {
			t.Fatalf("could not encode: %v", err)
		}
	}

	src := codecutil.NewSource(buf.Bytes())
	res := Demux(context.Background(), src, (*logging.TestLogger)(t), nil)
	if res.Err != nil || len(res.Log) != 0 {
		t.Fatalf("got error %v and warnings %v", res.Err, res.Log)
	}
	if len(res.Captions) != len(caps) {
		t.Fatalf("got %d captions, want %d", len(res.Captions), len(caps))
	}
	for i, got := range res.Captions {
		want := caps[i]
		dur := (want.Duration() + spu.DateTicks/2) / spu.DateTicks * spu.DateTicks
		if got.Start != want.Start || got.End != want.Start+dur {
			t.Errorf("caption %d: got timing %d-%d", i, got.Start, got.End)
		}
		if got.X != want.X || got.Y != want.Y || got.Width != bm.Width || got.Height != bm.Height || got.Forced != want.Forced {
			t.Errorf("caption %d: got geometry %v forced %v", i, got.Bounds(), got.Forced)
		}
		if got.ScreenWidth != ScreenWidth || got.ScreenHeight != ScreenHeight {
			t.Errorf("caption %d: got screen %dx%d", i, got.ScreenWidth, got.ScreenHeight)
		}

		dec, warns := Decode(src, got, caption.DefaultParams().Decoder())
		if len(warns) != 0 {
			t.Errorf("caption %d: unexpected decode warnings: %v", i, warns)
		}
		if !bytes.Equal(dec.Pix, bm.Pix) {
			t.Errorf("caption %d: decoded pixels differ", i)
		}
		if diff := cmp.Diff(bm.Palette.Entries, dec.Palette.Entries[:bm.Palette.Len()]); diff != "" {
			t.Errorf("caption %d: unexpected palette (-want +got):\n%s", i, diff)
		}
	}
}

func TestControlErrors(t *testing.T) {
	c := &caption.Caption{Start: 0, End: caption.PTSFrequency}
	b, err := Marshal(c, testBitmap())
	if err != nil {
		t.Fatalf("could not encode: %v", err)
	}
	u := b[HeaderLen:]
	ctrl := int(codecutil.BE32(u[4:]))

	tests := []struct {
		name string
		u    []byte
	}{
		{"short", u[:4]},
		{"control offset", u[:ctrl]},
		{"truncated", u[:ctrl+10]},
	}
	for _, test := range tests {
		_, _, err := ParseControl(test.u, 0)
		if err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}

	// Cut the frame inside its palette command.
	res := Demux(context.Background(), codecutil.NewSource(b[:HeaderLen+ctrl+10]), (*logging.TestLogger)(t), nil)
	if !res.Fatal() || res.Log.Count(caption.InconsistentBuffer) == 0 {
		t.Errorf("expected fatal result with inconsistent buffer warning, got %v, %v", res.Err, res.Log)
	}
}
