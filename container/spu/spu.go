/*
DESCRIPTION
  spu.go provides parsing and construction of DVD sub-picture unit control
  headers.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package spu provides the DVD sub-picture unit (SPU) shared by VobSub and
// DVD SUP streams: control header parsing and building, and decoding of the
// 4 colour interlaced bitmap it carries.
package spu

import (
	"fmt"
	"image"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
)

// Control sequence commands.
const (
	cmdForced  = 0x00
	cmdStart   = 0x01
	cmdStop    = 0x02
	cmdPalette = 0x03
	cmdAlpha   = 0x04
	cmdArea    = 0x05
	cmdOffsets = 0x06
	cmdChange  = 0x07
	cmdEnd     = 0xff
)

const (
	// HeaderLen is the length of the SPU size and control offset words.
	HeaderLen = 4

	// MaxSize is the largest SPU the 16 bit size word can describe.
	MaxSize = 0xffff

	// DateTicks is the length of one control sequence date unit in 90kHz
	// ticks.
	DateTicks = 1024
)

// argLen holds the fixed argument length of each command.
var argLen = map[byte]int{cmdPalette: 2, cmdAlpha: 2, cmdArea: 6, cmdOffsets: 4, cmdChange: 2}

// ErrTooLarge is returned when an encoded SPU does not fit the size word.
var ErrTooLarge = errors.New("sub-picture unit too large")

// Control holds the decoded control header of an SPU.
type Control struct {
	Size    int // Declared SPU size, including the header words.
	CtrlOff int // Offset of the first control sequence.

	Start   int64 // Display start delay in ticks.
	Stop    int64 // Display stop delay in ticks, valid if HasStop.
	HasStop bool
	Forced  bool

	Index [4]uint8 // Palette index of each pixel value.
	Alpha [4]uint8 // Alpha of each pixel value, 0 to 15.

	Area             image.Rectangle
	EvenOff, OddOff  int // Field offsets from the start of the SPU.
	hasArea, hasRLE  bool
	hasPal, hasAlpha bool
}

// Size returns the declared size and control offset from the first bytes of
// an SPU.
func Size(head []byte) (size, ctrlOff int, err error) {
	if len(head) < HeaderLen {
		return 0, 0, errors.New("short sub-picture header")
	}
	return int(head[0])<<8 | int(head[1]), int(head[2])<<8 | int(head[3]), nil
}

// ParseControl parses the control header of spu. base is the source offset
// of spu and is only used to locate warnings and errors. An error means the
// control header is unusable.
func ParseControl(spu []byte, base int64) (*Control, []caption.Warning, error) {
	size, ctrlOff, err := Size(spu)
	if err != nil {
		return nil, nil, caption.Malformed(base, "%v", err)
	}
	var warns []caption.Warning
	if size != len(spu) {
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, base, "declared size %d, have %d bytes", size, len(spu)))
	}
	if ctrlOff < HeaderLen || ctrlOff+4 > len(spu) {
		return nil, warns, caption.Malformed(base, "control offset 0x%x outside sub-picture of %d bytes", ctrlOff, len(spu))
	}

	ctl := &Control{Size: size, CtrlOff: ctrlOff}
	for seq := ctrlOff; ; {
		next, w, err := ctl.parseSequence(spu, seq, base)
		warns = append(warns, w...)
		if err != nil {
			return nil, warns, err
		}
		if next == seq {
			break
		}
		if next < seq || next+4 > len(spu) {
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
	}
	if !ctl.hasPal || !ctl.hasAlpha {
		warns = append(warns, caption.Warn(caption.Policy, base, "missing palette or alpha command"))
	}
	return ctl, warns, nil
}

// parseSequence parses the control sequence at off and returns the offset of
// the next one.
func (ctl *Control) parseSequence(spu []byte, off int, base int64) (next int, warns []caption.Warning, err error) {
	truncated := func(i int) error {
		return caption.Malformed(base+int64(i), "truncated control sequence")
	}
	if off+4 > len(spu) {
		return 0, nil, truncated(off)
	}
	date := int64(spu[off])<<8 | int64(spu[off+1])
	next = int(spu[off+2])<<8 | int(spu[off+3])
	i := off + 4
	for {
		if i >= len(spu) {
			return 0, warns, truncated(i)
		}
		cmd := spu[i]
		i++
		need := argLen[cmd]
		if i+need > len(spu) {
			return 0, warns, truncated(i)
		}
		arg := spu[i : i+need]
		switch cmd {
		case cmdForced:
			ctl.Forced = true
		case cmdStart:
			ctl.Start = date * DateTicks
		case cmdStop:
			ctl.Stop = date * DateTicks
			ctl.HasStop = true
		case cmdPalette:
			ctl.Index = nibbles(arg)
			ctl.hasPal = true
		case cmdAlpha:
			ctl.Alpha = nibbles(arg)
			ctl.hasAlpha = true
		case cmdArea:
			x1 := int(arg[0])<<4 | int(arg[1])>>4
			x2 := int(arg[1]&0x0f)<<8 | int(arg[2])
			y1 := int(arg[3])<<4 | int(arg[4])>>4
			y2 := int(arg[4]&0x0f)<<8 | int(arg[5])
			if x2 < x1 || y2 < y1 {
				warns = append(warns, caption.Warn(caption.MalformedStream, base+int64(i), "empty display area %d,%d-%d,%d", x1, y1, x2, y2))
				x2, y2 = x1-1, y1-1
			}
			ctl.Area = image.Rect(x1, y1, x2+1, y2+1)
			ctl.hasArea = true
		case cmdOffsets:
			ctl.EvenOff = int(arg[0])<<8 | int(arg[1])
			ctl.OddOff = int(arg[2])<<8 | int(arg[3])
			ctl.hasRLE = true
		case cmdChange:
			// Colour/contrast change is length prefixed, the length
			// including its own two bytes.
			n := int(arg[0])<<8 | int(arg[1])
			if n < 2 || i+n > len(spu) {
				return 0, warns, truncated(i)
			}
			warns = append(warns, caption.Warn(caption.Policy, base+int64(i-1), "colour/contrast change ignored"))
			need = n
		case cmdEnd:
			return next, warns, nil
		default:
			return 0, warns, caption.Malformed(base+int64(i-1), "unknown control command 0x%02x", cmd)
		}
		i += need
	}
}

// nibbles unpacks the palette and alpha argument layout, in which the value
// for pixel 3 is in the high nibble of the first byte.
func nibbles(b []byte) [4]uint8 {
	return [4]uint8{b[1] & 0x0f, b[1] >> 4, b[0] & 0x0f, b[0] >> 4}
}

func packNibbles(v [4]uint8) [2]byte {
	return [2]byte{v[3]<<4 | v[2]&0x0f, v[1]<<4 | v[0]&0x0f}
}

// Apply sets the timing, geometry and flags of c from ctl for an SPU with
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

func (ctl *Control) String() string {
	return fmt.Sprintf("area %v, start %d, stop %d, palette %v, alpha %v, forced %v", ctl.Area, ctl.Start, ctl.Stop, ctl.Index, ctl.Alpha, ctl.Forced)
}
