/*
DESCRIPTION
  write.go provides the writing of decoded captions in an output format:
  parallel marshalling of every caption, sequential output and the IDX or
  IFO sidecar of DVD formats.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package convert

import (
	"bufio"
	"context"
	"image/color"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/dvdsup"
	"github.com/ausocean/subtitle/container/hddvd"
	"github.com/ausocean/subtitle/container/ifo"
	"github.com/ausocean/subtitle/container/pgs"
	"github.com/ausocean/subtitle/container/spu"
	"github.com/ausocean/subtitle/container/vobsub"
)

// putter writes marshalled captions in order.
type putter interface {
	Put(c *caption.Caption, b []byte) error
}

// Write writes caps with their bitmaps bms to path in format. clut is the
// stream palette for DVD formats; if nil the default DVD palette is used.
// The IDX or IFO sidecar is written next to path. Nothing is left at path
// or at the sidecar path when writing fails or ctx is cancelled.
func (cv *Converter) Write(ctx context.Context, path, format string, caps []*caption.Caption, bms []*caption.Bitmap, clut *palette.Palette) (err error) {
	if err = ctx.Err(); err != nil {
		return err
	}
	if len(caps) != len(bms) {
		return errors.Errorf("%d captions with %d bitmaps", len(caps), len(bms))
	}
	if clut == nil {
		clut = palette.FromRGB(palette.DefaultDVD, cv.cfg.BT709)
	}
	frameRate, err := pgs.FrameRateCode(cv.cfg.FrameRate)
	if err != nil {
		return err
	}
	stream := int(cv.cfg.OutputStream)
	threshold := int(cv.cfg.AlphaThreshold)

	var marshal func(i int) ([]byte, error)
	switch format {
	case codecutil.PGS:
		marshal = func(i int) ([]byte, error) { return pgs.Marshal(caps[i], bms[i], 2*i, frameRate) }
	case codecutil.HDDVD:
		marshal = func(i int) ([]byte, error) { return hddvd.Marshal(caps[i], bms[i]) }
	case codecutil.VobSub:
		marshal = func(i int) ([]byte, error) {
			return vobsub.Marshal(caps[i], spu.NewPicture(caps[i], bms[i], clut, threshold), stream)
		}
	case codecutil.DVDSUP:
		marshal = func(i int) ([]byte, error) {
			return dvdsup.Marshal(caps[i], spu.NewPicture(caps[i], bms[i], clut, threshold))
		}
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	out := make([][]byte, len(caps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(cv.cfg.Workers))
	for i := range caps {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := marshal(i)
			if err != nil {
				return errors.Wrapf(err, "could not encode caption %d", i)
			}
			out[i] = b
			return nil
		})
	}
	err = g.Wait()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create output file")
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(path)
			switch format {
			case codecutil.VobSub:
				os.Remove(swapExt(path, ".idx"))
			case codecutil.DVDSUP:
				os.Remove(swapExt(path, ".ifo"))
			}
		}
	}()
	w := bufio.NewWriter(f)
	log := cv.cfg.Logger

	var enc putter
	var sub *vobsub.Encoder
	switch format {
	case codecutil.PGS:
		enc, err = pgs.NewEncoder(w, log, pgs.FrameRate(frameRate))
	case codecutil.HDDVD:
		enc = hddvd.NewEncoder(w, log)
	case codecutil.VobSub:
		sub, err = vobsub.NewEncoder(w, log, vobsub.Stream(stream))
		enc = sub
	case codecutil.DVDSUP:
		enc = dvdsup.NewEncoder(w, log)
	}
	if err != nil {
		return err
	}
	for i, b := range out {
		err = ctx.Err()
		if err != nil {
			return err
		}
		err = enc.Put(caps[i], b)
		if err != nil {
			return err
		}
	}
	err = w.Flush()
	if err != nil {
		return errors.Wrap(err, "could not flush output file")
	}
	log.Info("wrote stream", "path", path, "format", format, "captions", len(out))

	sw, sh := screenSize(caps)
	switch format {
	case codecutil.VobSub:
		idx := vobsub.NewIDX(sw, sh)
		idx.Palette = rgb(clut, cv.cfg.BT709)
		idx.ForcedSubs = cv.cfg.ForcedOnly
		idx.Languages = []vobsub.Language{{ID: cv.cfg.Language, Index: sub.Stream(), Entries: sub.Entries()}}
		return writeSidecar(swapExt(path, ".idx"), idx)
	case codecutil.DVDSUP:
		standard := ifo.PAL
		if sh == 480 {
			standard = ifo.NTSC
		}
		return writeSidecar(swapExt(path, ".ifo"), ifo.New(standard, cv.cfg.Language, clut))
	}
	return nil
}

func writeSidecar(path string, s interface {
	WriteTo(w io.Writer) (int64, error)
}) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "could not create sidecar")
	}
	_, err = s.WriteTo(f)
	if err != nil {
		f.Close()
		return err
	}
	return errors.Wrap(f.Close(), "could not close sidecar")
}

// screenSize returns the screen size of the first caption, or the default
// DVD size.
func screenSize(caps []*caption.Caption) (int, int) {
	for _, c := range caps {
		if c.ScreenWidth > 0 && c.ScreenHeight > 0 {
			return c.ScreenWidth, c.ScreenHeight
		}
	}
	return defaultDVDWidth, defaultDVDHeight
}

// rgb returns the 16 colours of clut as opaque RGB.
func rgb(clut *palette.Palette, bt709 bool) []color.RGBA {
	out := make([]color.RGBA, ifo.PaletteLen)
	for i := range out {
		out[i] = color.RGBA{A: 0xff}
		if i < clut.Len() {
			out[i].R, out[i].G, out[i].B = clut.RGB(i, bt709)
		}
	}
	return out
}
