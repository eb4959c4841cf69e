/*
DESCRIPTION
  pgs.go provides the byte oriented, 256 colour run-length codec used by
  Blu-ray presentation graphic streams.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rle

// PGSMaxRun is the longest run a single PGS code can describe.
const PGSMaxRun = 0x3fff

// PGS escape code flags, found in the byte after a 0x00 escape.
const (
	pgsLong  = 0x40 // Run length is 14 bits.
	pgsColor = 0x80 // A colour byte follows.
	pgsMask  = 0x3f
)

// EncodePGS encodes a w×h image. Every line is terminated with 00 00.
//
//	CC             one pixel of colour CC (non-zero)
//	00 0L          L pixels of colour 0, L < 64
//	00 4L LL       L pixels of colour 0, L < 16384
//	00 8L CC       L pixels of colour CC, 2 < L < 64
//	00 CL LL CC    L pixels of colour CC, L < 16384
func EncodePGS(pix []byte, w, h int) []byte {
	buf := make([]byte, 0, w*h/4+2*h)
	for y := 0; y < h; y++ {
		line := pix[y*w : (y+1)*w]
		for x := 0; x < w; {
			c := line[x]
			n := 1
			for x+n < w && n < PGSMaxRun && line[x+n] == c {
				n++
			}
			buf = appendPGSRun(buf, n, c)
			x += n
		}
		buf = append(buf, 0x00, 0x00)
	}
	return buf
}

func appendPGSRun(buf []byte, n int, c byte) []byte {
	switch {
	case c != 0 && n <= 2:
		for i := 0; i < n; i++ {
			buf = append(buf, c)
		}
	case c == 0 && n < 64:
		buf = append(buf, 0x00, byte(n))
	case c == 0:
		buf = append(buf, 0x00, pgsLong|byte(n>>8), byte(n))
	case n < 64:
		buf = append(buf, 0x00, pgsColor|byte(n), c)
	default:
		buf = append(buf, 0x00, pgsColor|pgsLong|byte(n>>8), byte(n), c)
	}
	return buf
}

// DecodePGS decodes buf into a w×h image. warns counts runs clipped at the
// right edge, lines beyond the image height and a missing final line end.
func DecodePGS(buf []byte, w, h int) (pix []byte, warns int) {
	pix = make([]byte, w*h)
	x, y := 0, 0
	i := 0
	next := func() (byte, bool) {
		if i >= len(buf) {
			return 0, false
		}
		b := buf[i]
		i++
		return b, true
	}

	for i < len(buf) {
		b, _ := next()
		n, c := 1, b
		if b == 0 {
			f, ok := next()
			if !ok {
				return pix, warns + 1
			}
			if f == 0 {
				// End of line.
				x = 0
				y++
				continue
			}
			n, c = int(f&pgsMask), 0
			if f&pgsLong != 0 {
				lo, ok := next()
				if !ok {
					return pix, warns + 1
				}
				n = n<<8 | int(lo)
			}
			if f&pgsColor != 0 {
				if c, ok = next(); !ok {
					return pix, warns + 1
				}
			}
		}
		if y >= h {
			// Data past the last line; count once and stop.
			return pix, warns + 1
		}
		if x+n > w {
			n = w - x
			warns++
		}
		row := pix[y*w : (y+1)*w]
		for k := 0; k < n; k++ {
			row[x+k] = c
		}
		x += n
	}
	if y < h {
		warns++
	}
	return pix, warns
}
