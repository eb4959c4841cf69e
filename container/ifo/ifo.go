/*
DESCRIPTION
  ifo.go provides reading and writing of the parts of a DVD video title set
  IFO file used by DVD SUP streams: video standard, subtitle language and
  the sub-picture palette of the first program chain.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ifo provides reading and writing of DVD video title set IFO files.
package ifo

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

// Header is the identifier at the start of a video title set IFO.
const Header = "DVDVIDEO-VTS"

// SectorSize is the size of a DVD sector.
const SectorSize = 0x800

// Size is the length of the IFO written by Marshal.
const Size = 3 * SectorSize

// Offsets of the fields used.
const (
	lastSectorOff  = 0x0c
	lastIFOOff     = 0x1c
	versionOff     = 0x20
	matEndOff      = 0x80
	pgciSectorOff  = 0xcc
	videoAttrOff   = 0x200
	numSubpOff     = 0x254
	subpCodingOff  = 0x256
	languageOff    = 0x258
	pgcOffsetOff   = 0x0c // Offset of the first PGC within the PGCI table.
	pgcPaletteOff  = 0xa4
	pgcSearchStart = 0x10
)

// PaletteLen is the number of colours of a program chain palette.
const PaletteLen = 16

// Video standards coded in bits 13 and 12 of the video attributes.
const (
	NTSC = 0
	PAL  = 1
)

var errHeader = errors.New("not a video title set IFO")

// IFO holds the fields of a video title set IFO used for subtitles.
type IFO struct {
	VideoAttr int    // Video attributes word.
	Language  string // Two letter code of the first sub-picture stream.
	Palette   *palette.Palette
}

// New returns an IFO for the given standard with palette p.
func New(standard int, lang string, p *palette.Palette) *IFO {
	return &IFO{VideoAttr: (standard & 3) << 12, Language: lang, Palette: p}
}

// Standard returns NTSC or PAL.
func (f *IFO) Standard() int { return f.VideoAttr >> 12 & 3 }

// ScreenSize returns the frame size of the video standard.
func (f *IFO) ScreenSize() (w, h int) {
	if f.Standard() == PAL {
		return 720, 576
	}
	return 720, 480
}

// Read reads and parses an IFO file.
func Read(r io.Reader) (*IFO, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read ifo")
	}
	return Parse(codecutil.NewSource(b))
}

// Parse parses the IFO held by src.
func Parse(src *codecutil.Source) (*IFO, error) {
	h, err := src.Bytes(0, len(Header))
	if err != nil || string(h) != Header {
		return nil, errHeader
	}
	f := &IFO{}
	f.VideoAttr, err = src.Word(videoAttrOff)
	if err != nil {
		return nil, errors.Wrap(err, "could not read video attributes")
	}
	lang, err := src.Bytes(languageOff, 2)
	if err != nil {
		return nil, errors.Wrap(err, "could not read language")
	}
	if lang[0] != 0 {
		f.Language = string(lang)
	}

	sector, err := src.DWord(pgciSectorOff)
	if err != nil {
		return nil, errors.Wrap(err, "could not read program chain table sector")
	}
	pgci := int(sector) * SectorSize
	pgc, err := src.DWord(pgci + pgcOffsetOff)
	if err != nil {
		return nil, errors.Wrap(err, "could not read program chain offset")
	}
	off := pgci + int(pgc) + pgcPaletteOff
	b, err := src.Bytes(off, 4*PaletteLen)
	if err != nil {
		return nil, errors.Wrap(err, "could not read palette")
	}
	f.Palette = palette.New(PaletteLen)
	for i := range f.Palette.Entries {
		e := b[4*i:]
		f.Palette.Entries[i] = palette.Entry{Y: e[1], Cr: e[2], Cb: e[3], Alpha: 0xff}
	}
	return f, nil
}

// Marshal returns a minimal video title set IFO holding f: the header, the
// video and sub-picture attributes and one program chain carrying the
// palette.
func (f *IFO) Marshal() []byte {
	b := make([]byte, Size)
	copy(b, Header)
	putDWord(b[lastSectorOff:], Size/SectorSize-1)
	putDWord(b[lastIFOOff:], Size/SectorSize-1)
	b[versionOff+1] = 0x11
	putDWord(b[matEndOff:], SectorSize-1)
	putDWord(b[pgciSectorOff:], 1)
	b[videoAttrOff] = byte(f.VideoAttr >> 8)
	b[videoAttrOff+1] = byte(f.VideoAttr)
	if len(f.Language) == 2 {
		b[numSubpOff+1] = 1
		b[subpCodingOff] = 0x01
		copy(b[languageOff:], f.Language)
	}

	pgci := b[SectorSize:]
	pgci[1] = 1
	putDWord(pgci[4:], Size-SectorSize-1)
	pgci[8] = 0x81
	putDWord(pgci[pgcOffsetOff:], pgcSearchStart)
	pal := pgci[pgcSearchStart+pgcPaletteOff:]
	for i := 0; i < PaletteLen && f.Palette != nil && i < f.Palette.Len(); i++ {
		e := f.Palette.Entries[i]
		copy(pal[4*i:], []byte{0, e.Y, e.Cr, e.Cb})
	}
	return b
}

// WriteTo writes the marshalled IFO to w.
func (f *IFO) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Marshal())
	return int64(n), errors.Wrap(err, "could not write ifo")
}

func putDWord(b []byte, v int) {
	b[0], b[1], b[2], b[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
}
