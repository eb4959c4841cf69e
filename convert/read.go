/*
DESCRIPTION
  read.go provides format detection and demultiplexing of an input stream
  together with its IDX or IFO sidecar.

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
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/dvdsup"
	"github.com/ausocean/subtitle/container/hddvd"
	"github.com/ausocean/subtitle/container/ifo"
	"github.com/ausocean/subtitle/container/pgs"
	"github.com/ausocean/subtitle/container/vobsub"
)

// Screen size assumed for DVD streams without a sidecar.
const (
	defaultDVDWidth  = 720
	defaultDVDHeight = 576
)

// sniffLen is the number of leading bytes examined by Detect.
const sniffLen = 14

// ErrUnknownFormat is returned when the format of a stream can't be
// detected.
var ErrUnknownFormat = errors.New("unknown subtitle format")

// Stream is a demultiplexed input stream.
type Stream struct {
	Format string
	Src    *codecutil.Source
	Result caption.Result

	// CLUT is the 16 colour stream palette of DVD formats, nil otherwise.
	CLUT *palette.Palette
}

// Close releases the source of s.
func (s *Stream) Close() error { return s.Src.Close() }

// Detect returns the format of the stream held by src, named name.
func Detect(src *codecutil.Source, name string) (string, error) {
	n := sniffLen
	if src.Len() < n {
		n = src.Len()
	}
	head, err := src.Bytes(0, n)
	if err != nil {
		return "", errors.Wrap(err, "could not read stream head")
	}
	f := codecutil.Sniff(name, head)
	if f == "" {
		return "", errors.Wrapf(ErrUnknownFormat, "%s", name)
	}
	return f, nil
}

// Read opens the stream at path and demultiplexes it. An IDX path is
// replaced by its SUB file. The stream is returned with its partial result
// unless nothing could be recovered from it.
func (cv *Converter) Read(ctx context.Context, path string) (*Stream, error) {
	if strings.EqualFold(filepath.Ext(path), ".idx") {
		path = swapExt(path, ".sub")
	}
	src, err := codecutil.OpenSource(path)
	if err != nil {
		return nil, err
	}
	format := cv.cfg.InputFormat
	if format == "" {
		format, err = Detect(src, path)
		if err != nil {
			src.Close()
			return nil, err
		}
	}
	log := cv.cfg.Logger
	log.Info("reading stream", "path", path, "format", format)

	s := &Stream{Format: format, Src: src}
	switch format {
	case codecutil.PGS:
		s.Result = pgs.Demux(ctx, src, cv.cfg.Params(), log, cv.progress)
	case codecutil.HDDVD:
		s.Result = hddvd.Demux(ctx, src, log, cv.progress)
	case codecutil.VobSub:
		s.Result = vobsub.Demux(ctx, src, cv.cfg.Stream, log, cv.progress)
		cv.readIDX(s, swapExt(path, ".idx"))
	case codecutil.DVDSUP:
		s.Result = dvdsup.Demux(ctx, src, log, cv.progress)
		cv.readIFO(s, swapExt(path, ".ifo"))
	default:
		src.Close()
		return nil, errors.Wrapf(ErrUnknownFormat, "%q", format)
	}

	if s.Result.Fatal() {
		src.Close()
		return nil, errors.Wrap(s.Result.Err, "could not demultiplex stream")
	}
	if s.Result.Err != nil {
		log.Warning("stream read partially", "error", s.Result.Err, "captions", len(s.Result.Captions))
	}
	log.Info("read stream", "captions", len(s.Result.Captions), "warnings", s.Result.Log.String())
	return s, nil
}

// readIDX applies the IDX at path to the captions of s and takes the stream
// palette from it. Without an IDX the default DVD palette is used.
func (cv *Converter) readIDX(s *Stream, path string) {
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		var idx *vobsub.IDX
		idx, err = vobsub.ParseIDX(f)
		if err == nil {
			idx.Apply(s.Result.Captions)
			s.CLUT = idx.StreamPalette(cv.cfg.BT709)
			return
		}
	}
	cv.missingSidecar(s, path, err)
}

// readIFO takes the stream palette and screen size from the IFO at path.
func (cv *Converter) readIFO(s *Stream, path string) {
	f, err := os.Open(path)
	if err == nil {
		defer f.Close()
		var info *ifo.IFO
		info, err = ifo.Read(f)
		if err == nil {
			w, h := info.ScreenSize()
			setScreen(s.Result.Captions, w, h)
			s.CLUT = info.Palette
			return
		}
	}
	cv.missingSidecar(s, path, err)
}

func (cv *Converter) missingSidecar(s *Stream, path string, err error) {
	cv.cfg.Logger.Warning("could not read sidecar, using defaults", "path", path, "error", err)
	s.Result.Log.Add(caption.Warn(caption.Policy, -1, "no usable sidecar %s, using default palette and screen size", filepath.Base(path)))
	setScreen(s.Result.Captions, defaultDVDWidth, defaultDVDHeight)
	s.CLUT = palette.FromRGB(palette.DefaultDVD, cv.cfg.BT709)
}

func setScreen(caps []*caption.Caption, w, h int) {
	for _, c := range caps {
		c.ScreenWidth, c.ScreenHeight = w, h
	}
}

func swapExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
