/*
DESCRIPTION
  control.go provides parsing and building of the control header of HD-DVD
  sub-picture units.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hddvd

import (
	"image"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
	"github.com/ausocean/subtitle/container/spu"
)

// Control sequence commands.
const (
	cmdForced  = 0x00
	cmdStart   = 0x01
	cmdStop    = 0x02
	cmdPalette = 0x83
	cmdAlpha   = 0x84
	cmdArea    = 0x85
	cmdOffsets = 0x86
	cmdEnd     = 0xff
)

// PaletteLen is the number of palette entries of an HD-DVD sub-picture.
const PaletteLen = 256

// unitHeaderLen is the length of the size and control offset double words.
const unitHeaderLen = 8

// seqHeaderLen is the length of a sequence date and next offset.
const seqHeaderLen = 6

var argLen = map[byte]int{cmdPalette: 3 * PaletteLen, cmdAlpha: PaletteLen, cmdArea: 6, cmdOffsets: 8}

// Control holds the decoded control header of an HD-DVD sub-picture unit.
type Control struct {
	Size    int
	CtrlOff int

	Start   int64 // Display start delay in ticks.
	Stop    int64 // Display stop delay in ticks, valid if HasStop.
	HasStop bool
	Forced  bool

	Palette []palette.Def // Colour and alpha of every entry, nil if absent.

	Area            image.Rectangle
	EvenOff, OddOff int
	hasArea, hasRLE bool
	alpha           []byte
}

// ParseControl parses the control header of the sub-picture unit u. base
// is the source offset of u and is used to locate warnings and errors.
func ParseControl(u []byte, base int64) (*Control, []caption.Warning, error) {
	if len(u) < unitHeaderLen {
		return nil, nil, caption.Malformed(base, "short sub-picture header")
	}
	ctl := &Control{Size: int(codecutil.BE32(u)), CtrlOff: int(codecutil.BE32(u[4:]))}
	var warns []caption.Warning
	if ctl.Size != len(u) {
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, base, "declared size %d, have %d bytes", ctl.Size, len(u)))
	}
	if ctl.CtrlOff < unitHeaderLen || ctl.CtrlOff+seqHeaderLen > len(u) {
		return nil, warns, caption.Malformed(base, "control offset 0x%x outside sub-picture of %d bytes", ctl.CtrlOff, len(u))
	}

	for seq := ctl.CtrlOff; ; {
		next, err := ctl.parseSequence(u, seq, base)
		if err != nil {
			return nil, warns, err
		}
		if next == seq {
			break
		}
		if next < seq || next+seqHeaderLen > len(u) {
			warns = append(warns, caption.Warn(caption.MalformedStream, base+int64(seq), "bad next sequence offset 0x%x", next))
			break
		}
		seq = next
	}

	switch {
	case !ctl.hasArea:
		return nil, warns, caption.Malformed(base, "missing display area")
	case !ctl.hasRLE:
		return nil, warns, caption.Malformed(base, "missing pixel data offsets")
	case ctl.Palette == nil:
		warns = append(warns, caption.Warn(caption.Policy, base, "missing palette command"))
	case ctl.alpha == nil:
		warns = append(warns, caption.Warn(caption.Policy, base, "missing alpha command"))
	}
	for i := range ctl.Palette {
		if ctl.alpha != nil {
			ctl.Palette[i].Alpha = ctl.alpha[i]
		}
	}
	return ctl, warns, nil
}

func (ctl *Control) parseSequence(u []byte, off int, base int64) (int, error) {
	truncated := func(i int) error {
		return caption.Malformed(base+int64(i), "truncated control sequence")
	}
	if off+seqHeaderLen > len(u) {
		return 0, truncated(off)
	}
	date := int64(u[off])<<8 | int64(u[off+1])
	next := int(codecutil.BE32(u[off+2:]))
	for i := off + seqHeaderLen; ; {
		if i >= len(u) {
			return 0, truncated(i)
		}
		cmd := u[i]
		i++
		need := argLen[cmd]
		if i+need > len(u) {
			return 0, truncated(i)
		}
		arg := u[i : i+need]
		switch cmd {
		case cmdForced:
			ctl.Forced = true
		case cmdStart:
			ctl.Start = date * spu.DateTicks
		case cmdStop:
			ctl.Stop = date * spu.DateTicks
			ctl.HasStop = true
		case cmdPalette:
			ctl.Palette = make([]palette.Def, PaletteLen)
			for k := range ctl.Palette {
				e := arg[3*k:]
				ctl.Palette[k] = palette.Def{Index: uint8(k), Y: e[0], Cr: e[1], Cb: e[2]}
			}
		case cmdAlpha:
			ctl.alpha = arg
		case cmdArea:
			x1 := int(arg[0])<<4 | int(arg[1])>>4
			x2 := int(arg[1]&0x0f)<<8 | int(arg[2])
			y1 := int(arg[3])<<4 | int(arg[4])>>4
			y2 := int(arg[4]&0x0f)<<8 | int(arg[5])
			if x2 < x1 || y2 < y1 {
				return 0, caption.Malformed(base+int64(i), "empty display area %d,%d-%d,%d", x1, y1, x2, y2)
			}
			ctl.Area = image.Rect(x1, y1, x2+1, y2+1)
			ctl.hasArea = true
		case cmdOffsets:
			ctl.EvenOff = int(codecutil.BE32(arg))
			ctl.OddOff = int(codecutil.BE32(arg[4:]))
			ctl.hasRLE = true
		case cmdEnd:
			return next, nil
		default:
			return 0, caption.Malformed(base+int64(i-1), "unknown control command 0x%02x", cmd)
		}
		i += need
	}
}

// Apply sets the timing, geometry and flags of c from ctl for a unit with
// time stamp pts.
func (ctl *Control) Apply(c *caption.Caption, pts int64) {
	c.Start = pts + ctl.Start
	c.End = 0
	if ctl.HasStop {
		c.End = pts + ctl.Stop
	}
	c.X, c.Y = ctl.Area.Min.X, ctl.Area.Min.Y
	c.Width, c.Height = ctl.Area.Dx(), ctl.Area.Dy()
	c.Forced = ctl.Forced
	c.Info = ctl
}

// build returns a sub-picture unit holding the run-length data of a w by h
// image at area, with field offsets relative to the data, palette p, shown
// for duration ticks.
func build(data []byte, oddOff int, area image.Rectangle, p *palette.Palette, duration int64, forced bool) ([]byte, error) {
	x1, x2 := area.Min.X, area.Max.X-1
	y1, y2 := area.Min.Y, area.Max.Y-1
	if x1 < 0 || y1 < 0 || x2 > 0xfff || y2 > 0xfff || x2 < x1 || y2 < y1 {
		return nil, errors.Errorf("display area %v out of range", area)
	}
	if p.Len() > PaletteLen {
		return nil, errors.Errorf("palette of %d entries", p.Len())
	}

	ctrl := unitHeaderLen + len(data)
	var cmds []byte
	if forced {
		cmds = append(cmds, cmdForced)
	}
	cmds = append(cmds, cmdStart, cmdPalette)
	for i := 0; i < PaletteLen; i++ {
		e := palette.Entry{Y: palette.BlackY, Cb: palette.BlackCb, Cr: palette.BlackCr}
		if i < p.Len() {
			e = p.Entries[i]
		}
		cmds = append(cmds, e.Y, e.Cr, e.Cb)
	}
	cmds = append(cmds, cmdAlpha)
	for i := 0; i < PaletteLen; i++ {
		var a uint8
		if i < p.Len() {
			a = p.Entries[i].Alpha
		}
		cmds = append(cmds, a)
	}
	even, odd := unitHeaderLen, unitHeaderLen+oddOff
	cmds = append(cmds,
		cmdArea,
		byte(x1>>4), byte(x1<<4)|byte(x2>>8), byte(x2),
		byte(y1>>4), byte(y1<<4)|byte(y2>>8), byte(y2),
		cmdOffsets,
		byte(even>>24), byte(even>>16), byte(even>>8), byte(even),
		byte(odd>>24), byte(odd>>16), byte(odd>>8), byte(odd),
		cmdEnd,
	)
	stop := ctrl + seqHeaderLen + len(cmds)
	size := stop + seqHeaderLen + 2

	date := (duration + spu.DateTicks/2) / spu.DateTicks
	if date > 0xffff {
		date = 0xffff
	}
	buf := make([]byte, 0, size)
	buf = appendBE32(buf, uint32(size))
	buf = appendBE32(buf, uint32(ctrl))
	buf = append(buf, data...)
	buf = append(buf, 0, 0)
	buf = appendBE32(buf, uint32(stop))
	buf = append(buf, cmds...)
	buf = append(buf, byte(date>>8), byte(date))
	buf = appendBE32(buf, uint32(stop))
	return append(buf, cmdStop, cmdEnd), nil
}

func appendBE32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
