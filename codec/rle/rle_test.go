/*
DESCRIPTION
  rle_test.go provides round trip, run boundary and clipping tests for the
  run-length codecs.

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
	"fmt"
	"testing"
)

type image struct {
	name string
	w, h int
	pix  []byte
}

// testImages returns synthetic images using colours below max.
func testImages(max int) []image {
	fill := func(w, h int, f func(x, y int) byte) image {
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pix[y*w+x] = f(x, y)
			}
		}
		return image{w: w, h: h, pix: pix}
	}
	var imgs []image
	add := func(name string, img image) {
		img.name = name
		imgs = append(imgs, img)
	}
	add("one colour", fill(37, 9, func(x, y int) byte { return byte(1 % max) }))
	add("transparent", fill(20, 4, func(x, y int) byte { return 0 }))
	add("checkerboard", fill(16, 16, func(x, y int) byte { return byte((x + y) % 2 * (max - 1)) }))
	add("stripes", fill(33, 7, func(x, y int) byte { return byte((x / 3) % max) }))
	add("long rows", fill(1000, 3, func(x, y int) byte { return byte((y + 1) % max) }))
	add("max run", fill(DVDMaxRun+1, 2, func(x, y int) byte {
		if x == DVDMaxRun {
			return byte(2 % max)
		}
		return byte(3 % max)
	}))
	add("odd height", fill(5, 5, func(x, y int) byte { return byte((x * y) % max) }))
	add("single pixel", fill(1, 1, func(x, y int) byte { return byte(max - 1) }))
	add("gradient", fill(40, 6, func(x, y int) byte { return byte((x*7 + y) % max) }))
	return imgs
}

func TestInterlacedRoundTrip(t *testing.T) {
	for _, img := range testImages(4) {
		buf, odd := EncodeInterlaced(img.pix, img.w, img.h)
		got, warns := DecodeInterlaced(buf, 0, odd, img.w, img.h)
		if warns != 0 {
			t.Errorf("%s: unexpected warnings: %d", img.name, warns)
		}
		if !bytes.Equal(got, img.pix) {
			t.Errorf("%s: round trip mismatch", img.name)
		}
	}
}

func TestPGSRoundTrip(t *testing.T) {
	imgs := append(testImages(256), image{name: "long run", w: PGSMaxRun + 100, h: 2, pix: make([]byte, 2*(PGSMaxRun+100))})
	for _, img := range imgs {
		buf := EncodePGS(img.pix, img.w, img.h)
		got, warns := DecodePGS(buf, img.w, img.h)
		if warns != 0 {
			t.Errorf("%s: unexpected warnings: %d", img.name, warns)
		}
		if !bytes.Equal(got, img.pix) {
			t.Errorf("%s: round trip mismatch", img.name)
		}
	}
}

func TestHDRoundTrip(t *testing.T) {
	for _, img := range append(testImages(4), testImages(256)...) {
		buf, odd := EncodeHD(img.pix, img.w, img.h)
		got, warns := DecodeHD(buf, 0, odd, img.w, img.h)
		if warns != 0 {
			t.Errorf("%s: unexpected warnings: %d", img.name, warns)
		}
		if !bytes.Equal(got, img.pix) {
			t.Errorf("%s: round trip mismatch", img.name)
		}
	}
}

// runLine returns a single line of n pixels of colour c followed by one
// pixel of colour end.
func runLine(n int, c, end byte) []byte {
	line := bytes.Repeat([]byte{c}, n)
	return append(line, end)
}

func TestInterlacedRunBoundaries(t *testing.T) {
	// Runs of colour 1 followed by a single pixel of colour 2 (nibble 6).
	tests := []struct {
		n    int
		want []byte
	}{
		{n: 3, want: []byte{0xd6}},
		{n: 4, want: []byte{0x11, 0x60}},
		{n: 15, want: []byte{0x3d, 0x60}},
		{n: 16, want: []byte{0x04, 0x16}},
		{n: 63, want: []byte{0x0f, 0xd6}},
		{n: 64, want: []byte{0x01, 0x01, 0x60}},
		{n: 255, want: []byte{0x03, 0xfd, 0x60}},
	}
	for _, test := range tests {
		line := runLine(test.n, 1, 2)
		got, odd := EncodeInterlaced(line, len(line), 1)
		if !bytes.Equal(got, test.want) {
			t.Errorf("run of %d: got:% x want:% x", test.n, got, test.want)
		}
		if odd != len(got) {
			t.Errorf("run of %d: odd field offset %d, want %d", test.n, odd, len(got))
		}
	}
}

func TestInterlacedLineFeed(t *testing.T) {
	// A run of 300 reaching the end of line becomes a single fill code.
	line := bytes.Repeat([]byte{3}, 300)
	got, _ := EncodeInterlaced(line, len(line), 1)
	want := []byte{0x00, 0x03}
	if !bytes.Equal(got, want) {
		t.Errorf("got:% x want:% x", got, want)
	}
}

func TestPGSRunBoundaries(t *testing.T) {
	tests := []struct {
		n    int
		c    byte
		want []byte
	}{
		{n: 1, c: 5, want: []byte{0x05}},
		{n: 2, c: 5, want: []byte{0x05, 0x05}},
		{n: 3, c: 5, want: []byte{0x00, 0x83, 0x05}},
		{n: 4, c: 5, want: []byte{0x00, 0x84, 0x05}},
		{n: 15, c: 5, want: []byte{0x00, 0x8f, 0x05}},
		{n: 16, c: 5, want: []byte{0x00, 0x90, 0x05}},
		{n: 63, c: 5, want: []byte{0x00, 0xbf, 0x05}},
		{n: 64, c: 5, want: []byte{0x00, 0xc0, 0x40, 0x05}},
		{n: 255, c: 5, want: []byte{0x00, 0xc0, 0xff, 0x05}},
		{n: 3, c: 0, want: []byte{0x00, 0x03}},
		{n: 63, c: 0, want: []byte{0x00, 0x3f}},
		{n: 64, c: 0, want: []byte{0x00, 0x40, 0x40}},
		{n: PGSMaxRun, c: 0, want: []byte{0x00, 0x7f, 0xff}},
		{n: PGSMaxRun + 1, c: 7, want: []byte{0x00, 0xff, 0xff, 0x07, 0x07}},
	}
	for _, test := range tests {
		line := bytes.Repeat([]byte{test.c}, test.n)
		got := EncodePGS(line, test.n, 1)
		want := append(test.want, 0x00, 0x00)
		if !bytes.Equal(got, want) {
			t.Errorf("run of %d colour %d: got:% x want:% x", test.n, test.c, got, want)
		}
	}
}

func TestDecodeClipping(t *testing.T) {
	tests := []struct {
		name   string
		decode func() ([]byte, int)
		size   int
	}{
		{
			name: "pgs run past edge",
			decode: func() ([]byte, int) {
				return DecodePGS([]byte{0x00, 0x8a, 0x01, 0x00, 0x00}, 4, 1)
			},
			size: 4,
		},
		{
			name: "pgs lines past height",
			decode: func() ([]byte, int) {
				return DecodePGS([]byte{0x01, 0x00, 0x00, 0x02, 0x00, 0x00}, 1, 1)
			},
			size: 1,
		},
		{
			name: "pgs truncated",
			decode: func() ([]byte, int) {
				return DecodePGS([]byte{0x00}, 3, 3)
			},
			size: 9,
		},
		{
			name: "dvd truncated field",
			decode: func() ([]byte, int) {
				return DecodeInterlaced([]byte{0xd6}, 0, 1, 8, 4)
			},
			size: 32,
		},
		{
			name: "dvd bad offset",
			decode: func() ([]byte, int) {
				return DecodeInterlaced([]byte{0x00, 0x01}, 0, 9, 4, 2)
			},
			size: 8,
		},
		{
			name: "hd truncated",
			decode: func() ([]byte, int) {
				return DecodeHD([]byte{0xff}, 0, 1, 50, 2)
			},
			size: 100,
		},
	}
	for _, test := range tests {
		pix, warns := test.decode()
		if len(pix) != test.size {
			t.Errorf("%s: unexpected bitmap size %d", test.name, len(pix))
		}
		if warns == 0 {
			t.Errorf("%s: expected warnings", test.name)
		}
	}
}

func ExampleEncodePGS() {
	fmt.Printf("% x\n", EncodePGS([]byte{0, 0, 0, 9, 9, 9, 9, 1}, 8, 1))
	// Output: 00 03 00 84 09 01 00 00
}
