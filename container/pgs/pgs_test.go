/*
DESCRIPTION
  pgs_test.go provides testing for the PGS epoch state machine, the encoder
  and the round trip through Demux and Decode.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pgs

import (
	"bytes"
	"context"
	"testing"

	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

func testBitmap(w, h int) *caption.Bitmap {
	p := palette.New(4)
	p.Entries[1] = palette.Entry{Y: 235, Cb: 128, Cr: 128, Alpha: 255}
	p.Entries[2] = palette.Entry{Y: 81, Cb: 90, Cr: 240, Alpha: 255}
	p.Entries[3] = palette.Entry{Y: 41, Cb: 240, Cr: 110, Alpha: 128}
	bm := caption.NewBitmap(w, h, p)
	for i := range bm.Pix {
		bm.Pix[i] = byte(i/3) % 4
	}
	return bm
}

func TestRoundTrip(t *testing.T) {
	caps := []*caption.Caption{
		{Start: 90000, End: 270000, ScreenWidth: 1920, ScreenHeight: 1080, X: 600, Y: 900, Forced: true},
		{Start: 450000, End: 540000, ScreenWidth: 1920, ScreenHeight: 1080, X: 100, Y: 950},
	}
	bm := testBitmap(40, 12)

	var buf bytes.Buffer
	e, err := NewEncoder(&buf, (*logging.TestLogger)(t), FrameRate(Rate25))
	if err != nil {
		t.Fatalf("could not create encoder: %v", err)
	}
	for _, c := range caps {
		err = e.Encode(c, bm)
		if err != nil {
			t.Fatalf("could not encode caption: %v", err)
		}
	}

	src := codecutil.NewSource(buf.Bytes())
	var last int64 = -1
	progress := func(off, total int64) {
		if off < last {
			t.Errorf("progress went back from %d to %d", last, off)
		}
		last = off
	}
	res := Demux(context.Background(), src, caption.DefaultParams(), (*logging.TestLogger)(t), progress)
	if res.Err != nil {
		t.Fatalf("unexpected demux error: %v", res.Err)
	}
	if len(res.Log) != 0 {
		t.Errorf("unexpected warnings: %v", res.Log)
	}
	if last != int64(src.Len()) {
		t.Errorf("final progress %d, want %d", last, src.Len())
	}
	if len(res.Captions) != len(caps) {
		t.Fatalf("got %d captions, want %d", len(res.Captions), len(caps))
	}

	for i, got := range res.Captions {
		want := caps[i]
		if got.Start != want.Start || got.End != want.End {
			t.Errorf("caption %d: got timing %d-%d, want %d-%d", i, got.Start, got.End, want.Start, want.End)
		}
		if got.X != want.X || got.Y != want.Y || got.Width != bm.Width || got.Height != bm.Height {
			t.Errorf("caption %d: got geometry (%d,%d) %dx%d", i, got.X, got.Y, got.Width, got.Height)
		}
		if got.Forced != want.Forced {
			t.Errorf("caption %d: got forced %v, want %v", i, got.Forced, want.Forced)
		}
		if info := got.Info.(*Info); info.FrameRate != Rate25 {
			t.Errorf("caption %d: got frame rate 0x%02x", i, info.FrameRate)
		}

		dec, warns := Decode(src, got, caption.DefaultParams().Decoder())
		if len(warns) != 0 {
			t.Errorf("caption %d: unexpected decode warnings: %v", i, warns)
		}
		if !bytes.Equal(dec.Pix, bm.Pix) {
			t.Errorf("caption %d: decoded pixels differ", i)
		}
		if diff := cmp.Diff(bm.Palette.Entries, dec.Palette.Entries[:4]); diff != "" {
			t.Errorf("caption %d: unexpected palette (-want +got):\n%s", i, diff)
		}
	}
}

func TestObjectFragmentation(t *testing.T) {
	const w, h = 400, 400
	p := palette.New(8)
	for i := 1; i < 8; i++ {
		p.Entries[i] = palette.Entry{Y: byte(16 + 30*i), Cb: 128, Cr: 128, Alpha: 255}
	}
	bm := caption.NewBitmap(w, h, p)
	for i := range bm.Pix {
		bm.Pix[i] = byte(i%7 + 1)
	}
	c := &caption.Caption{Start: 1000, End: 2000, ScreenWidth: 1920, ScreenHeight: 1080}

	b, err := Marshal(c, bm, 0, Rate24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src := codecutil.NewSource(b)
	var odsFlags []byte
	for off := 0; off < src.Len(); {
		seg, next, err := ReadSegment(src, off)
		if err != nil {
			t.Fatalf("could not read segment at %d: %v", off, err)
		}
		if len(seg.Data) > 0xffff {
			t.Errorf("segment at %d has %d bytes", off, len(seg.Data))
		}
		if seg.Type == TypeODS {
			odsFlags = append(odsFlags, seg.Data[3])
		}
		off = next
	}
	want := []byte{firstInSeq, 0, lastInSeq}
	if !bytes.Equal(odsFlags, want) {
		t.Errorf("got object flags %x, want %x", odsFlags, want)
	}

	res := Demux(context.Background(), src, caption.DefaultParams(), (*logging.TestLogger)(t), nil)
	if res.Err != nil || len(res.Captions) != 1 {
		t.Fatalf("got %d captions and error %v", len(res.Captions), res.Err)
	}
	dec, warns := Decode(src, res.Captions[0], caption.DefaultParams().Decoder())
	if len(warns) != 0 {
		t.Errorf("unexpected decode warnings: %v", warns)
	}
	if !bytes.Equal(dec.Pix, bm.Pix) {
		t.Error("pixels reassembled from fragments differ")
	}
}

// Segment builders for driving the machine directly.

func pcsSeg(pts int64, num int, state State, objects int) Segment {
	b := []byte{0x07, 0x80, 0x04, 0x38, Rate24, byte(num >> 8), byte(num), byte(state), 0, 0, byte(objects)}
	for i := 0; i < objects; i++ {
		b = append(b, 0, 0, 0, 0, 0, 10, 0, 20)
	}
	return Segment{PTS: pts, Type: TypePCS, Data: b}
}

func pdsSeg(pts int64) Segment {
	return Segment{PTS: pts, Type: TypePDS, Data: []byte{0, 0, 1, 235, 128, 128, 255}}
}

// odsSeg returns a complete 2x1 object whose data lies at offset 100 of the
// source.
func odsSeg(pts int64) Segment {
	return Segment{Off: 100 - HeaderLen - 11, PTS: pts, Type: TypeODS, Data: []byte{0, 0, 0, firstInSeq | lastInSeq, 0, 0, 6, 0, 2, 0, 1, 0, 0}}
}

func endSeg(pts int64) Segment { return Segment{PTS: pts, Type: TypeEND} }

func feed(m *Machine, segs ...Segment) caption.Log {
	var l caption.Log
	for _, s := range segs {
		l.Add(m.Handle(s)...)
	}
	return l
}

func TestEmptyEpochDiscarded(t *testing.T) {
	m := NewMachine(caption.DefaultMergeDiff)
	feed(m,
		pcsSeg(1000, 5, EpochStart, 1), endSeg(1000),
		pcsSeg(5000, 6, EpochStart, 1), pdsSeg(5000), odsSeg(5000), endSeg(5000),
	)
	log := caption.Log(m.Finish())
	caps := m.Captions()
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	if caps[0].Start != 5000 || caps[0].CompNum != 6 {
		t.Errorf("kept caption starts at %d with composition %d", caps[0].Start, caps[0].CompNum)
	}
	if m.CompNum() != 6 {
		t.Errorf("got composition tracker %d, want 6", m.CompNum())
	}
	if caps[0].End != caps[0].Start+openEnd {
		t.Errorf("got open end %d", caps[0].End)
	}
	if log.Count(caption.Policy) != 1 {
		t.Errorf("unexpected finish warnings: %v", log)
	}
}

func TestTrailingEmptyEpochRollsBack(t *testing.T) {
	m := NewMachine(caption.DefaultMergeDiff)
	warns := feed(m,
		pcsSeg(1000, 5, EpochStart, 1), pdsSeg(1000), odsSeg(1000), endSeg(1000),
		pcsSeg(9000, 6, EpochStart, 0), endSeg(9000),
	)
	if len(warns) != 0 {
		t.Errorf("unexpected warnings: %v", warns)
	}
	warns = caption.Log(m.Finish())
	if warns.Count(caption.Policy) != 1 {
		t.Errorf("expected one discarded epoch, got %v", warns)
	}
	caps := m.Captions()
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	if caps[0].Start != 1000 || caps[0].End != 9000 {
		t.Errorf("got timing %d-%d, want 1000-9000", caps[0].Start, caps[0].End)
	}
	if caps[0].Width != 2 || caps[0].Height != 1 || caps[0].X != 10 || caps[0].Y != 20 {
		t.Errorf("unexpected geometry %v", caps[0].Bounds())
	}
	if m.CompNum() != 5 {
		t.Errorf("got composition tracker %d, want 5", m.CompNum())
	}
}

func TestUndefinedObjectDropped(t *testing.T) {
	other := odsSeg(1000)
	other.Data = append([]byte(nil), other.Data...)
	other.Data[1] = 1

	m := NewMachine(caption.DefaultMergeDiff)
	warns := feed(m,
		pcsSeg(1000, 1, EpochStart, 1), pdsSeg(1000), other, endSeg(1000),
		pcsSeg(5000, 2, EpochStart, 1), pdsSeg(5000), odsSeg(5000), endSeg(5000),
	)
	warns.Add(m.Finish()...)
	caps := m.Captions()
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	if caps[0].Start != 5000 || caps[0].Width != 2 || caps[0].Height != 1 {
		t.Errorf("unexpected caption at %d of %dx%d", caps[0].Start, caps[0].Width, caps[0].Height)
	}
	if warns.Count(caption.MalformedStream) != 2 {
		t.Errorf("expected undefined object and dropped composition warnings, got %v", warns)
	}
	if _, err := Marshal(caps[0], testBitmap(caps[0].Width, caps[0].Height), 0, Rate24); err != nil {
		t.Errorf("could not marshal kept caption: %v", err)
	}
}

func TestRepeatedCompositionMerged(t *testing.T) {
	m := NewMachine(caption.DefaultMergeDiff)
	warns := feed(m,
		pcsSeg(1000, 1, EpochStart, 1), pdsSeg(1000), odsSeg(1000), endSeg(1000),
		pcsSeg(5000, 2, Normal, 0), endSeg(5000),
		pcsSeg(5900, 3, Normal, 1), endSeg(5900),
		pcsSeg(8000, 4, Normal, 0), endSeg(8000),
	)
	caps := m.Captions()
	if len(caps) != 1 {
		t.Fatalf("got %d captions, want 1", len(caps))
	}
	// The second showing starts 900 ticks after the first ends and shows the
	// same object, so it extends the first.
	if caps[0].Start != 1000 || caps[0].End != 8000 {
		t.Errorf("got timing %d-%d, want 1000-8000", caps[0].Start, caps[0].End)
	}
	if warns.Count(caption.Policy) != 1 {
		t.Errorf("expected one merge warning, got %v", warns)
	}
}

func TestMergeable(t *testing.T) {
	frag := []codecutil.Fragment{{Off: 0, Len: 100}}
	a := &caption.Caption{Start: 0, End: 1000, Width: 10, Height: 5, Fragments: frag}
	tests := []struct {
		name string
		b    caption.Caption
		want bool
	}{
		{"same", caption.Caption{Start: 1100, Width: 10, Height: 5, Fragments: frag}, true},
		{"gap", caption.Caption{Start: 1000 + caption.DefaultMergeDiff, Width: 10, Height: 5, Fragments: frag}, false},
		{"width", caption.Caption{Start: 1100, Width: 11, Height: 5, Fragments: frag}, false},
		{"height", caption.Caption{Start: 1100, Width: 10, Height: 6, Fragments: frag}, false},
		{"buffer", caption.Caption{Start: 1100, Width: 10, Height: 5, Fragments: []codecutil.Fragment{{Len: 99}}}, false},
	}
	for _, test := range tests {
		got := Mergeable(a, &test.b, caption.DefaultMergeDiff)
		if got != test.want {
			t.Errorf("%s: got %v, want %v", test.name, got, test.want)
		}
	}

	open := &caption.Caption{Start: 0, Width: 10, Height: 5, Fragments: frag}
	if !Mergeable(open, &caption.Caption{Start: 1e6, Width: 10, Height: 5, Fragments: frag}, caption.DefaultMergeDiff) {
		t.Error("open caption should have no gap")
	}
}

func TestCompositionOutsideEpoch(t *testing.T) {
	m := NewMachine(caption.DefaultMergeDiff)
	warns := feed(m, pcsSeg(1000, 1, Normal, 1), endSeg(1000))
	if len(m.Captions()) != 0 {
		t.Errorf("got %d captions, want none", len(m.Captions()))
	}
	if warns.Count(caption.Policy) != 2 {
		t.Errorf("got warnings %v, want 2 policy", warns)
	}
}

func TestFrameRateCode(t *testing.T) {
	tests := []struct {
		fps  float64
		want byte
	}{
		{23.976, Rate23976},
		{24, Rate24},
		{25, Rate25},
		{29.97, Rate2997},
		{50, Rate50},
		{59.94, Rate5994},
	}
	for _, test := range tests {
		got, err := FrameRateCode(test.fps)
		if err != nil {
			t.Errorf("%v fps: unexpected error: %v", test.fps, err)
			continue
		}
		if got != test.want {
			t.Errorf("%v fps: got 0x%02x, want 0x%02x", test.fps, got, test.want)
		}
	}
	if _, err := FrameRateCode(120); err == nil {
		t.Error("expected error for 120 fps")
	}
	if _, err := NewEncoder(&bytes.Buffer{}, (*logging.TestLogger)(t), FrameRate(0x50)); err == nil {
		t.Error("expected error for frame rate code 0x50")
	}
}
