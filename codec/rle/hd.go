/*
DESCRIPTION
  hd.go provides the interlaced bitstream run-length codec of HD-DVD
  sub-picture units.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rle

import (
	"bytes"

	"github.com/icza/bitio"
)

// HD-DVD run codes are bit aligned:
//
//	0 W C...              one pixel; W selects a 2 bit (0) or 8 bit (1) colour
//	1 W C... 0 LLL        L+2 pixels (2 to 9)
//	1 W C... 1 LLLLLLL    L+9 pixels (10 to 136), L = 0 fills to end of line
//
// Each line is padded to a byte boundary.
const (
	hdShortBias = 2
	hdLongBias  = 9
	hdShortMax  = hdShortBias + 7
	HDMaxRun    = hdLongBias + 127
)

// EncodeHD encodes a w×h 256 colour image, even rows first then odd rows.
// oddOff is the offset of the odd field in buf.
func EncodeHD(pix []byte, w, h int) (buf []byte, oddOff int) {
	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	for field := 0; field < 2; field++ {
		if field == 1 {
			oddOff = out.Len()
		}
		for y := field; y < h; y += 2 {
			encodeHDLine(bw, pix[y*w:(y+1)*w])
			bw.Align()
		}
	}
	bw.Close()
	return out.Bytes(), oddOff
}

func encodeHDLine(bw *bitio.Writer, line []byte) {
	w := len(line)
	for x := 0; x < w; {
		c := line[x]
		n := 1
		for x+n < w && line[x+n] == c {
			n++
		}
		if x+n == w && n > hdShortMax {
			writeHDColor(bw, true, c)
			bw.WriteBool(true)
			bw.WriteBits(0, 7)
			return
		}
		if n > HDMaxRun {
			n = HDMaxRun
		}
		writeHDColor(bw, n > 1, c)
		switch {
		case n == 1:
		case n <= hdShortMax:
			bw.WriteBool(false)
			bw.WriteBits(uint64(n-hdShortBias), 3)
		default:
			bw.WriteBool(true)
			bw.WriteBits(uint64(n-hdLongBias), 7)
		}
		x += n
	}
}

func writeHDColor(bw *bitio.Writer, run bool, c byte) {
	bw.WriteBool(run)
	if c < 4 {
		bw.WriteBool(false)
		bw.WriteBits(uint64(c), 2)
		return
	}
	bw.WriteBool(true)
	bw.WriteBits(uint64(c), 8)
}

// DecodeHD decodes a w×h image whose even field starts at evenOff and odd
// field at oddOff in buf.
func DecodeHD(buf []byte, evenOff, oddOff, w, h int) (pix []byte, warns int) {
	pix = make([]byte, w*h)
	for field, off := range [2]int{evenOff, oddOff} {
		if off < 0 || off > len(buf) {
			if field < h {
				warns++
			}
			continue
		}
		warns += decodeHDField(bitio.NewReader(bytes.NewReader(buf[off:])), pix, w, h, field)
	}
	return pix, warns
}

func decodeHDField(br *bitio.Reader, pix []byte, w, h, y int) (warns int) {
	for ; y < h; y += 2 {
		row := pix[y*w : (y+1)*w]
		for x := 0; x < w; {
			n, c, err := readHDRun(br)
			if err != nil {
				return warns + 1
			}
			if n == 0 {
				n = w - x
			}
			if x+n > w {
				n = w - x
				warns++
			}
			for i := 0; i < n; i++ {
				row[x+i] = c
			}
			x += n
		}
		br.Align()
	}
	return warns
}

func readHDRun(br *bitio.Reader) (n int, c byte, err error) {
	run, err := br.ReadBool()
	if err != nil {
		return 0, 0, err
	}
	wide, err := br.ReadBool()
	if err != nil {
		return 0, 0, err
	}
	width := uint8(2)
	if wide {
		width = 8
	}
	v, err := br.ReadBits(width)
	if err != nil {
		return 0, 0, err
	}
	c = byte(v)
	if !run {
		return 1, c, nil
	}
	long, err := br.ReadBool()
	if err != nil {
		return 0, 0, err
	}
	if !long {
		v, err = br.ReadBits(3)
		return int(v) + hdShortBias, c, err
	}
	v, err = br.ReadBits(7)
	if err != nil || v == 0 {
		return 0, c, err
	}
	return int(v) + hdLongBias, c, nil
}
