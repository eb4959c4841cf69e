/*
DESCRIPTION
  dvdsup_test.go provides testing for DVD SUP reading and writing.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dvdsup

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/spu"
)

func picture(start int64, forced bool) (*caption.Caption, *spu.Picture) {
	area := image.Rect(20, 400, 84, 420)
	c := &caption.Caption{Start: start, End: start + caption.PTSFrequency, X: area.Min.X, Y: area.Min.Y, Forced: forced}
	pix := make([]byte, area.Dx()*area.Dy())
	for i := range pix {
		pix[i] = byte(i/7) % 4
	}
	return c, &spu.Picture{Pix: pix, Area: area, Index: [4]uint8{0, 1, 6, 9}, Alpha: [4]uint8{0, 15, 15, 12}, Duration: c.Duration(), Forced: forced}
}

func encode(t *testing.T, starts ...int64) ([]byte, []*spu.Picture) {
	var buf bytes.Buffer
	e := NewEncoder(&buf, (*logging.TestLogger)(t))
	var pics []*spu.Picture
	for i, start := range starts {
		c, pic := picture(start, i%2 == 1)
		pics = append(pics, pic)
		err := e.Encode(c, pic)
		if err != nil {
			t.Fatalf("could not encode: %v", err)
		}
	}
	return buf.Bytes(), pics
}

func TestRoundTrip(t *testing.T) {
	b, pics := encode(t, 45000, 0x12345678)
	if !bytes.Equal(b[:HeaderLen], []byte{'S', 'P', 0xc8, 0xaf, 0x00, 0x00, 0, 0, 0, 0}) {
		t.Errorf("unexpected frame header % x", b[:HeaderLen])
	}

	src := codecutil.NewSource(b)
	res := Demux(context.Background(), src, (*logging.TestLogger)(t), nil)
	if res.Err != nil || len(res.Log) != 0 {
		t.Fatalf("got error %v and warnings %v", res.Err, res.Log)
	}
	if len(res.Captions) != 2 {
		t.Fatalf("got %d captions, want 2", len(res.Captions))
	}
	clut := palette.FromRGB(palette.DefaultDVD, false)
	for i, c := range res.Captions {
		start := []int64{45000, 0x12345678}[i]
		if c.Start != start || c.End != start+88*spu.DateTicks {
			t.Errorf("caption %d: got timing %d-%d", i, c.Start, c.End)
		}
		if c.Forced != (i == 1) || c.Bounds() != pics[i].Area {
			t.Errorf("caption %d: got forced %v bounds %v", i, c.Forced, c.Bounds())
		}
		bm, warns := spu.DecodeCaption(src, c, clut, palette.Decoder{AlphaCrop: palette.DefaultAlphaCrop})
		if len(warns) != 0 {
			t.Errorf("caption %d: unexpected warnings: %v", i, warns)
		}
		if !bytes.Equal(bm.Pix, pics[i].Pix) {
			t.Errorf("caption %d: decoded pixels differ", i)
		}
	}
}

func TestPartial(t *testing.T) {
	b, _ := encode(t, 90000, 180000)
	res := Demux(context.Background(), codecutil.NewSource(append(b, 'X', 'X', 0, 0)), (*logging.TestLogger)(t), nil)
	if res.Err == nil || res.Fatal() || len(res.Captions) != 2 {
		t.Errorf("got %d captions and error %v, want 2 and an error", len(res.Captions), res.Err)
	}

	one, _ := encode(t, 90000)
	res = Demux(context.Background(), codecutil.NewSource(one[:len(one)-8]), (*logging.TestLogger)(t), nil)
	if !res.Fatal() {
		t.Errorf("expected fatal result for truncated first frame, got %d captions", len(res.Captions))
	}
	if res.Log.Count(caption.InconsistentBuffer) == 0 {
		t.Errorf("expected inconsistent buffer warning, got %v", res.Log)
	}
}
