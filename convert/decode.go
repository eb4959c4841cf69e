/*
DESCRIPTION
  decode.go provides the decoding of the captions of a stream into bitmaps,
  run in parallel, followed by the sequential zero alpha fallback and the
  vertical crop.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package convert

import (
	"context"
	"image"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/hddvd"
	"github.com/ausocean/subtitle/container/pgs"
	"github.com/ausocean/subtitle/container/spu"
)

// Decode decodes the captions of s selected by the configuration. The
// captions returned are copies, cropped like their bitmaps. Warnings are
// ordered by caption.
func (cv *Converter) Decode(ctx context.Context, s *Stream) ([]*caption.Caption, []*caption.Bitmap, []caption.Warning, error) {
	p := cv.cfg.Params()
	var caps []*caption.Caption
	for _, c := range s.Result.Captions {
		if p.ForcedOnly && !c.Forced {
			continue
		}
		cc := *c
		caps = append(caps, &cc)
	}
	cv.cfg.Logger.Debug("decoding captions", "captions", len(caps), "of", len(s.Result.Captions))

	bms := make([]*caption.Bitmap, len(caps))
	logs := make([][]caption.Warning, len(caps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(cv.cfg.Workers))
	for i := range caps {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bm, warns := decodeCaption(s, caps[i], p.Decoder())
			if bm == nil {
				return errors.Errorf("could not decode caption %d: %v", i, warns)
			}
			bms[i] = bm
			logs[i] = warns
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		return nil, nil, nil, err
	}

	var log []caption.Warning
	var fb palette.Fallback
	for i, bm := range bms {
		for _, w := range logs[i] {
			w.Caption = i
			log = append(log, w)
		}
		substituted, invisible := fb.Resolve(bm.Palette, p.AlphaFallback)
		switch {
		case substituted:
			log = append(log, caption.WarnCaption(caption.Policy, i, "fully transparent, alpha of previous caption used"))
		case invisible:
			log = append(log, caption.WarnCaption(caption.Policy, i, "fully transparent"))
		}
		if p.CropOffsetY > 0 {
			bms[i] = cropY(caps[i], bm, p.CropOffsetY)
		}
	}
	return caps, bms, log, nil
}

func decodeCaption(s *Stream, c *caption.Caption, d palette.Decoder) (*caption.Bitmap, []caption.Warning) {
	switch s.Format {
	case codecutil.PGS:
		return pgs.Decode(s.Src, c, d)
	case codecutil.HDDVD:
		return hddvd.Decode(s.Src, c, d)
	default:
		return spu.DecodeCaption(s.Src, c, s.CLUT, d)
	}
}

// cropY removes n lines from the top and bottom of the screen of c, moving
// c up and cutting the rows of bm that fall outside.
func cropY(c *caption.Caption, bm *caption.Bitmap, n int) *caption.Bitmap {
	h := c.ScreenHeight - 2*n
	if h <= 0 {
		return bm
	}
	c.ScreenHeight = h
	c.Y -= n
	if bm.Height == 0 {
		c.Y = max(0, min(c.Y, h-1))
		return bm
	}
	r := image.Rect(0, 0, bm.Width, bm.Height)
	if c.Y < 0 {
		r.Min.Y = min(-c.Y, bm.Height-1)
		c.Y = 0
	}
	if c.Y >= h {
		c.Y = h - 1
	}
	if c.Y+r.Dy() > h {
		r.Max.Y = r.Min.Y + h - c.Y
	}
	if r == image.Rect(0, 0, bm.Width, bm.Height) {
		return bm
	}
	out := bm.Cropped(r)
	c.Height = out.Height
	return out
}
