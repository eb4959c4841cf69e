/*
DESCRIPTION
  segment.go provides reading and parsing of presentation graphic stream
  segments.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pgs provides reading, decoding and writing of Blu-ray
// presentation graphic streams (PGS, usually stored as .sup files).
package pgs

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

// Sync is the magic word at the start of every segment ("PG").
const Sync = 0x5047

// HeaderLen is the length of a segment header.
const HeaderLen = 13

// Segment types.
const (
	TypePDS = 0x14 // Palette definition.
	TypeODS = 0x15 // Object definition.
	TypePCS = 0x16 // Presentation composition.
	TypeWDS = 0x17 // Window definition.
	TypeEND = 0x80 // End of display set.
)

// State is a composition state.
type State byte

// Composition states.
const (
	Normal           State = 0x00
	AcquisitionPoint State = 0x40
	EpochStart       State = 0x80
	EpochContinue    State = 0xc0
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case AcquisitionPoint:
		return "acquisition point"
	case EpochStart:
		return "epoch start"
	case EpochContinue:
		return "epoch continue"
	default:
		return fmt.Sprintf("invalid(0x%02x)", byte(s))
	}
}

// Valid returns whether s is a known composition state.
func (s State) Valid() bool {
	return s == Normal || s == AcquisitionPoint || s == EpochStart || s == EpochContinue
}

// Segment is one segment with its payload. Data aliases the source.
type Segment struct {
	Off  int // Offset of the segment header.
	PTS  int64
	DTS  int64
	Type byte
	Data []byte
}

// PayloadOff returns the source offset of the segment payload.
func (s Segment) PayloadOff() int { return s.Off + HeaderLen }

// ReadSegment reads the segment at off and returns it with the offset of the
// next segment.
func ReadSegment(src *codecutil.Source, off int) (Segment, int, error) {
	sync, err := src.Word(off)
	if err != nil {
		return Segment{}, off, caption.Malformed(int64(off), "truncated segment header: %v", err)
	}
	if sync != Sync {
		return Segment{}, off, caption.Malformed(int64(off), "bad sync word 0x%04x", sync)
	}
	head, err := src.Bytes(off, HeaderLen)
	if err != nil {
		return Segment{}, off, caption.Malformed(int64(off), "truncated segment header: %v", err)
	}
	seg := Segment{
		Off:  off,
		PTS:  int64(codecutil.BE32(head[2:])),
		DTS:  int64(codecutil.BE32(head[6:])),
		Type: head[10],
	}
	size := int(codecutil.BE16(head[11:]))
	seg.Data, err = src.Bytes(off+HeaderLen, size)
	if err != nil {
		return Segment{}, off, caption.Malformed(int64(off), "truncated segment payload: %v", err)
	}
	return seg, off + HeaderLen + size, nil
}

// CompObject is a composition object of a presentation composition.
type CompObject struct {
	ObjectID int
	WindowID int
	Forced   bool
	Cropped  bool
	X, Y     int
	Crop     [4]int // x, y, width, height; valid if Cropped.
}

// Composition is a presentation composition segment.
type Composition struct {
	Width, Height int
	FrameRate     byte
	Number        int
	State         State
	PaletteUpdate bool
	PaletteID     int
	Objects       []CompObject
}

// ParseComposition parses a presentation composition payload.
func ParseComposition(b []byte) (*Composition, error) {
	if len(b) < 11 {
		return nil, errors.Errorf("composition of %d bytes too short", len(b))
	}
	pcs := &Composition{
		Width:         int(codecutil.BE16(b[0:])),
		Height:        int(codecutil.BE16(b[2:])),
		FrameRate:     b[4],
		Number:        int(codecutil.BE16(b[5:])),
		State:         State(b[7]),
		PaletteUpdate: b[8]&0x80 != 0,
		PaletteID:     int(b[9]),
	}
	n := int(b[10])
	i := 11
	for k := 0; k < n; k++ {
		if i+8 > len(b) {
			return pcs, errors.Errorf("composition object %d truncated", k)
		}
		o := CompObject{
			ObjectID: int(codecutil.BE16(b[i:])),
			WindowID: int(b[i+2]),
			Cropped:  b[i+3]&0x80 != 0,
			Forced:   b[i+3]&0x40 != 0,
			X:        int(codecutil.BE16(b[i+4:])),
			Y:        int(codecutil.BE16(b[i+6:])),
		}
		i += 8
		if o.Cropped {
			if i+8 > len(b) {
				return pcs, errors.Errorf("composition object %d crop truncated", k)
			}
			o.Crop = [4]int{int(codecutil.BE16(b[i:])), int(codecutil.BE16(b[i+2:])), int(codecutil.BE16(b[i+4:])), int(codecutil.BE16(b[i+6:]))}
			i += 8
		}
		pcs.Objects = append(pcs.Objects, o)
	}
	return pcs, nil
}

// Window is a window definition.
type Window struct {
	ID            int
	X, Y          int
	Width, Height int
}

// ParseWindows parses a window definition payload.
func ParseWindows(b []byte) ([]Window, error) {
	if len(b) < 1 {
		return nil, errors.Errorf("empty window definition")
	}
	n := int(b[0])
	if 1+n*9 > len(b) {
		return nil, errors.Errorf("%d windows in %d bytes", n, len(b))
	}
	ws := make([]Window, n)
	for k := range ws {
		w := b[1+k*9:]
		ws[k] = Window{ID: int(w[0]), X: int(codecutil.BE16(w[1:])), Y: int(codecutil.BE16(w[3:])), Width: int(codecutil.BE16(w[5:])), Height: int(codecutil.BE16(w[7:]))}
	}
	return ws, nil
}

// PaletteDef is a palette definition segment.
type PaletteDef struct {
	ID      int
	Version int
	Defs    []palette.Def
}

// ParsePalette parses a palette definition payload.
func ParsePalette(b []byte) (*PaletteDef, error) {
	if len(b) < 2 {
		return nil, errors.Errorf("palette definition of %d bytes too short", len(b))
	}
	pds := &PaletteDef{ID: int(b[0]), Version: int(b[1])}
	if (len(b)-2)%5 != 0 {
		return pds, errors.Errorf("palette definition has %d trailing bytes", (len(b)-2)%5)
	}
	for e := b[2:]; len(e) >= 5; e = e[5:] {
		pds.Defs = append(pds.Defs, palette.Def{Index: e[0], Y: e[1], Cr: e[2], Cb: e[3], Alpha: e[4]})
	}
	return pds, nil
}

// Object definition sequence flags.
const (
	firstInSeq = 0x80
	lastInSeq  = 0x40
)

// ObjectDef is an object definition segment. Data is the source fragment of
// the run-length data it carries.
type ObjectDef struct {
	ID            int
	Version       int
	First, Last   bool
	DataLen       int // Declared run-length data length; valid if First.
	Width, Height int // Valid if First.
	Data          codecutil.Fragment
}

// ParseObject parses an object definition segment.
func ParseObject(seg Segment) (*ObjectDef, error) {
	b := seg.Data
	if len(b) < 4 {
		return nil, errors.Errorf("object definition of %d bytes too short", len(b))
	}
	ods := &ObjectDef{
		ID:      int(codecutil.BE16(b)),
		Version: int(b[2]),
		First:   b[3]&firstInSeq != 0,
		Last:    b[3]&lastInSeq != 0,
	}
	hdr := 4
	if ods.First {
		if len(b) < 11 {
			return nil, errors.Errorf("first object definition of %d bytes too short", len(b))
		}
		// The declared length includes the 4 bytes of width and height.
		ods.DataLen = (int(b[4])<<16 | int(b[5])<<8 | int(b[6])) - 4
		ods.Width = int(codecutil.BE16(b[7:]))
		ods.Height = int(codecutil.BE16(b[9:]))
		hdr = 11
	}
	ods.Data = codecutil.Fragment{Off: seg.PayloadOff() + hdr, Len: len(b) - hdr}
	return ods, nil
}
