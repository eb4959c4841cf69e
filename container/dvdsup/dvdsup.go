/*
DESCRIPTION
  dvdsup.go provides reading and writing of DVD SUP streams: sub-picture
  units framed by an "SP" marker and little endian time stamps.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dvdsup provides reading and writing of DVD SUP streams, whose
// palette and screen size come from an accompanying IFO file.
package dvdsup

import (
	"context"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/container/spu"
)

// Magic is the marker at the start of every frame ("SP").
const Magic = 0x5350

// HeaderLen is the length of a frame header: marker, PTS and DTS.
const HeaderLen = 10

// Demux reads every frame of src. An unusable frame or control header stops
// reading; the captions found before it are kept and the error is returned
// in the result.
func Demux(ctx context.Context, src *codecutil.Source, log logging.Logger, progress caption.Progress) caption.Result {
	var res caption.Result
	total := int64(src.Len())
	var err error
	for off := 0; off < src.Len(); {
		if err = ctx.Err(); err != nil {
			break
		}
		if progress != nil {
			progress(int64(off), total)
		}
		var c *caption.Caption
		var warns []caption.Warning
		c, off, warns, err = readFrame(src, off)
		res.Log.Add(warns...)
		if err != nil {
			break
		}
		c.CompNum = len(res.Captions)
		res.Captions = append(res.Captions, c)
	}
	if err != nil {
		log.Warning("stopped reading frames", "error", err)
		res.Err = err
	} else if progress != nil {
		progress(total, total)
	}
	res.Log.Add(caption.ResolveEnds(res.Captions)...)
	log.Debug("demultiplexed dvd sup stream", "captions", len(res.Captions), "warnings", res.Log.String())
	return res
}

// readFrame reads the frame at off and returns its caption and the offset
// of the next frame.
func readFrame(src *codecutil.Source, off int) (*caption.Caption, int, []caption.Warning, error) {
	magic, err := src.Word(off)
	if err != nil || magic != Magic {
		return nil, off, nil, caption.Malformed(int64(off), "no frame marker")
	}
	pts, err := src.DWordLE(off + 2)
	if err != nil {
		return nil, off, nil, caption.Malformed(int64(off), "truncated frame header")
	}
	size, err := src.Word(off + HeaderLen)
	if err != nil {
		return nil, off, nil, caption.Malformed(int64(off), "truncated frame header")
	}

	var warns []caption.Warning
	frag := codecutil.Fragment{Off: off + HeaderLen, Len: size}
	if frag.End() > src.Len() {
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, int64(off), "sub-picture of %d bytes truncated to %d", size, src.Len()-frag.Off))
		frag.Len = src.Len() - frag.Off
	}
	b, _ := src.Bytes(frag.Off, frag.Len)
	ctl, w, err := spu.ParseControl(b, int64(frag.Off))
	warns = append(warns, w...)
	if err != nil {
		return nil, off, warns, err
	}
	c := &caption.Caption{Fragments: []codecutil.Fragment{frag}}
	ctl.Apply(c, pts)
	return c, frag.End(), warns, nil
}

// Marshal returns the frame holding the sub-picture unit built from pic,
// time stamped with the start of c.
func Marshal(c *caption.Caption, pic *spu.Picture) ([]byte, error) {
	b, err := spu.Encode(pic)
	if err != nil {
		return nil, err
	}
	pts := uint32(c.Start)
	buf := make([]byte, 0, HeaderLen+len(b))
	buf = append(buf,
		byte(Magic>>8), byte(Magic&0xff),
		byte(pts), byte(pts>>8), byte(pts>>16), byte(pts>>24),
		0, 0, 0, 0,
	)
	return append(buf, b...), nil
}

// Encoder writes captions as a DVD SUP stream.
type Encoder struct {
	dst io.Writer
	log logging.Logger
}

// NewEncoder returns an Encoder writing to dst.
func NewEncoder(dst io.Writer, log logging.Logger) *Encoder {
	return &Encoder{dst: dst, log: log}
}

// Encode writes the frame for caption c.
func (e *Encoder) Encode(c *caption.Caption, pic *spu.Picture) error {
	b, err := Marshal(c, pic)
	if err != nil {
		return err
	}
	return e.Put(c, b)
}

// Put writes a frame already produced by Marshal.
func (e *Encoder) Put(c *caption.Caption, b []byte) error {
	_, err := e.dst.Write(b)
	if err != nil {
		return errors.Wrap(err, "could not write frame")
	}
	e.log.Debug("wrote frame", "start", c.Start, "bytes", len(b))
	return nil
}
