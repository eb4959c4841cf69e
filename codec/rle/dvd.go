/*
DESCRIPTION
  dvd.go provides the 2 bit, 4 colour, interlaced run-length codec used by
  DVD sub-picture units (VobSub and DVD SUP).

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rle provides the run-length codecs of bitmap subtitle formats.
//
// Decoders never fail: input that runs past the target bitmap or past the
// end of the buffer is clipped and counted, and the count is returned so the
// caller can report degraded output.
package rle

import (
	"bytes"

	"github.com/icza/bitio"
)

// Run code limits of the DVD codec. A code is 1, 2, 3 or 4 nibbles long:
//
//	1 nibble:  rrcc
//	2 nibbles: 00rr rrcc
//	3 nibbles: 0000 rrrr rrcc
//	4 nibbles: 0000 00rr rrrr rrcc
//
// A 4 nibble code with a zero run length fills to the end of the line.
const (
	dvdMax1   = 4
	dvdMax2   = 16
	dvdMax3   = 64
	DVDMaxRun = 255
)

// EncodeInterlaced encodes a 4 colour image of w×h pixels. Even rows are
// written first, then odd rows; each row starts on a byte boundary. oddOff
// is the offset of the odd field in buf.
func EncodeInterlaced(pix []byte, w, h int) (buf []byte, oddOff int) {
	var out bytes.Buffer
	bw := bitio.NewWriter(&out)
	for field := 0; field < 2; field++ {
		if field == 1 {
			// Every row ends aligned so the even field is fully flushed.
			oddOff = out.Len()
		}
		for y := field; y < h; y += 2 {
			encodeDVDLine(bw, pix[y*w:(y+1)*w])
			bw.Align()
		}
	}
	bw.Close()
	return out.Bytes(), oddOff
}

func encodeDVDLine(bw *bitio.Writer, line []byte) {
	w := len(line)
	for x := 0; x < w; {
		c := line[x] & 0x3
		n := 1
		for x+n < w && line[x+n]&0x3 == c {
			n++
		}
		if x+n == w && n >= dvdMax3 {
			// Fill to end of line.
			bw.WriteBits(uint64(c), 16)
			return
		}
		run := n
		if run > DVDMaxRun {
			run = DVDMaxRun
		}
		writeDVDRun(bw, run, c)
		x += run
	}
}

func writeDVDRun(bw *bitio.Writer, n int, c byte) {
	v := uint64(n)<<2 | uint64(c)
	switch {
	case n < dvdMax1:
		bw.WriteBits(v, 4)
	case n < dvdMax2:
		bw.WriteBits(v, 8)
	case n < dvdMax3:
		bw.WriteBits(v, 12)
	default:
		bw.WriteBits(v, 16)
	}
}

// DecodeInterlaced decodes a w×h 4 colour image whose even field starts at
// evenOff and odd field at oddOff in buf. warns counts clipped runs and
// fields that ended before their pixel budget was reached.
func DecodeInterlaced(buf []byte, evenOff, oddOff, w, h int) (pix []byte, warns int) {
	pix = make([]byte, w*h)
	for field, off := range [2]int{evenOff, oddOff} {
		if off < 0 || off > len(buf) {
			if field < h {
				warns++
			}
			continue
		}
		warns += decodeDVDField(bitio.NewReader(bytes.NewReader(buf[off:])), pix, w, h, field)
	}
	return pix, warns
}

func decodeDVDField(br *bitio.Reader, pix []byte, w, h, y int) (warns int) {
	for ; y < h; y += 2 {
		row := pix[y*w : (y+1)*w]
		for x := 0; x < w; {
			n, c, err := readDVDRun(br)
			if err != nil {
				// Buffer exhausted before the field budget was reached.
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

func readDVDRun(br *bitio.Reader) (n int, c byte, err error) {
	// A code is complete once its value reaches the smallest run of its
	// width shifted past the colour bits.
	floor := [...]uint64{dvdMax1 / 4 << 2, dvdMax1 << 2, dvdMax2 << 2}
	var v uint64
	for i := 0; i < 4; i++ {
		var nib uint64
		nib, err = br.ReadBits(4)
		if err != nil {
			return 0, 0, err
		}
		v = v<<4 | nib
		if i < 3 && v >= floor[i] {
			break
		}
	}
	return int(v >> 2), byte(v & 0x3), nil
}
