/*
DESCRIPTION
  writer.go provides the PGS encoder, which writes each caption as a display
  set showing its bitmap followed by a display set clearing it.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pgs

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/rle"
)

// MaxFragment is the largest amount of run-length data carried by one
// object definition segment.
const MaxFragment = 0xffe4

// maxDataLen is the largest object data length the 24 bit field can hold,
// less the width and height words it includes.
const maxDataLen = 0xffffff - 4

// Encoder writes captions as a presentation graphic stream.
type Encoder struct {
	dst       io.Writer
	log       logging.Logger
	frameRate byte
	n         int // Captions written.
}

// NewEncoder returns an Encoder writing to dst.
func NewEncoder(dst io.Writer, log logging.Logger, options ...func(*Encoder) error) (*Encoder, error) {
	e := &Encoder{dst: dst, log: log, frameRate: defaultFrameRate}
	for _, option := range options {
		err := option(e)
		if err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	log.Debug("encoder options applied", "frameRate", e.frameRate)
	return e, nil
}

// Encode writes the display sets for one caption.
func (e *Encoder) Encode(c *caption.Caption, bm *caption.Bitmap) error {
	b, err := Marshal(c, bm, 2*e.n, e.frameRate)
	if err != nil {
		return err
	}
	return e.Put(c, b)
}

// Put writes display sets already produced by Marshal for the next caption.
func (e *Encoder) Put(c *caption.Caption, b []byte) error {
	_, err := e.dst.Write(b)
	if err != nil {
		return errors.Wrap(err, "could not write display sets")
	}
	e.log.Debug("wrote caption", "index", e.n, "start", c.Start, "end", c.End, "bytes", len(b))
	e.n++
	return nil
}

// FrameRate returns the frame rate code written in compositions.
func (e *Encoder) FrameRate() byte { return e.frameRate }

// Marshal returns two display sets for c: an epoch start at c.Start showing
// bm at the position of c, then a composition without objects at c.End.
// comp is the composition number of the first set.
func Marshal(c *caption.Caption, bm *caption.Bitmap, comp int, frameRate byte) ([]byte, error) {
	if bm.Width <= 0 || bm.Height <= 0 || bm.Width > 0xffff || bm.Height > 0xffff {
		return nil, errors.Errorf("bad bitmap size %dx%d", bm.Width, bm.Height)
	}
	if bm.Palette.Len() > 256 {
		return nil, errors.Errorf("palette of %d entries", bm.Palette.Len())
	}
	data := rle.EncodePGS(bm.Pix, bm.Width, bm.Height)
	if len(data) > maxDataLen {
		return nil, errors.Errorf("object data of %d bytes too large", len(data))
	}

	win := Window{X: c.X, Y: c.Y, Width: bm.Width, Height: bm.Height}
	var buf []byte
	buf = appendSegment(buf, c.Start, TypePCS, composition(c, frameRate, comp, EpochStart, true))
	buf = appendSegment(buf, c.Start, TypeWDS, windows(win))
	buf = appendSegment(buf, c.Start, TypePDS, paletteDef(bm))
	for i, frag := range fragments(data) {
		var flags byte
		if i == 0 {
			flags |= firstInSeq
		}
		if frag.last {
			flags |= lastInSeq
		}
		p := []byte{0, 0, 0, flags}
		if i == 0 {
			n := len(data) + 4
			p = append(p, byte(n>>16), byte(n>>8), byte(n), byte(bm.Width>>8), byte(bm.Width), byte(bm.Height>>8), byte(bm.Height))
		}
		buf = appendSegment(buf, c.Start, TypeODS, append(p, frag.data...))
	}
	buf = appendSegment(buf, c.Start, TypeEND, nil)

	buf = appendSegment(buf, c.End, TypePCS, composition(c, frameRate, comp+1, Normal, false))
	buf = appendSegment(buf, c.End, TypeWDS, windows(win))
	buf = appendSegment(buf, c.End, TypeEND, nil)
	return buf, nil
}

type fragment struct {
	data []byte
	last bool
}

// fragments splits data into pieces of at most MaxFragment bytes. Empty
// data yields a single empty fragment.
func fragments(data []byte) []fragment {
	var frags []fragment
	for {
		n := len(data)
		if n > MaxFragment {
			n = MaxFragment
		}
		frags = append(frags, fragment{data: data[:n], last: n == len(data)})
		data = data[n:]
		if len(data) == 0 {
			return frags
		}
	}
}

func appendSegment(buf []byte, pts int64, typ byte, payload []byte) []byte {
	t := uint32(pts)
	buf = append(buf,
		byte(Sync>>8), byte(Sync&0xff),
		byte(t>>24), byte(t>>16), byte(t>>8), byte(t),
		0, 0, 0, 0,
		typ,
		byte(len(payload)>>8), byte(len(payload)),
	)
	return append(buf, payload...)
}

func composition(c *caption.Caption, frameRate byte, comp int, state State, show bool) []byte {
	p := []byte{
		byte(c.ScreenWidth >> 8), byte(c.ScreenWidth),
		byte(c.ScreenHeight >> 8), byte(c.ScreenHeight),
		frameRate,
		byte(comp >> 8), byte(comp),
		byte(state),
		0, // Palette update.
		0, // Palette ID.
	}
	if !show {
		return append(p, 0)
	}
	var flags byte
	if c.Forced {
		flags |= 0x40
	}
	return append(p, 1,
		0, 0, // Object ID.
		0, // Window ID.
		flags,
		byte(c.X>>8), byte(c.X),
		byte(c.Y>>8), byte(c.Y),
	)
}

func windows(w Window) []byte {
	return []byte{
		1,
		byte(w.ID),
		byte(w.X >> 8), byte(w.X),
		byte(w.Y >> 8), byte(w.Y),
		byte(w.Width >> 8), byte(w.Width),
		byte(w.Height >> 8), byte(w.Height),
	}
}

func paletteDef(bm *caption.Bitmap) []byte {
	p := make([]byte, 2, 2+5*bm.Palette.Len())
	for i, e := range bm.Palette.Entries {
		p = append(p, byte(i), e.Y, e.Cr, e.Cb, e.Alpha)
	}
	return p
}
