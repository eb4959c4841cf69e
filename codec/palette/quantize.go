/*
DESCRIPTION
  quantize.go reduces a palette indexed image to the four colours a DVD
  sub-picture can carry.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package palette

import "sort"

// Quantized is a four colour image with its active sub-palette.
type Quantized struct {
	Pix   []byte   // Pixel values 0 to 3.
	Index [4]uint8 // Index of each pixel value into the stream palette.
	Alpha [4]uint8 // Alpha of each pixel value, 0 to 15.
}

// Quantize maps pix, indexed into p, onto at most four colours. Pixels with
// an alpha below threshold become background (value 0). The three most used
// visible colours become values 1 to 3, every other visible colour is mapped
// to the nearest of those. Colours are matched to the closest entries of
// the stream palette.
func Quantize(pix []byte, p *Palette, stream *Palette, threshold int) Quantized {
	freq := make([]int, len(p.Entries))
	for _, v := range pix {
		if int(v) < len(p.Entries) && int(p.Entries[v].Alpha) >= threshold {
			freq[v]++
		}
	}
	var used []int
	for i, n := range freq {
		if n > 0 {
			used = append(used, i)
		}
	}
	sort.SliceStable(used, func(a, b int) bool { return freq[used[a]] > freq[used[b]] })
	if len(used) > 3 {
		used = used[:3]
	}

	var q Quantized
	lut := make([]byte, len(p.Entries))
	for i, e := range p.Entries {
		if int(e.Alpha) < threshold || len(used) == 0 {
			continue
		}
		best, bestDist := 0, -1
		for k, u := range used {
			d := dist(e, p.Entries[u])
			if bestDist < 0 || d < bestDist {
				best, bestDist = k, d
			}
		}
		lut[i] = byte(best + 1)
	}
	for k, u := range used {
		e := p.Entries[u]
		q.Index[k+1] = uint8(nearest(stream, e))
		q.Alpha[k+1] = e.Alpha >> 4
	}

	q.Pix = make([]byte, len(pix))
	for i, v := range pix {
		if int(v) < len(lut) {
			q.Pix[i] = lut[v]
		}
	}
	return q
}

func nearest(p *Palette, e Entry) int {
	best, bestDist := 0, -1
	for i, c := range p.Entries {
		d := dist(e, c)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func dist(a, b Entry) int {
	dy := int(a.Y) - int(b.Y)
	dcb := int(a.Cb) - int(b.Cb)
	dcr := int(a.Cr) - int(b.Cr)
	return dy*dy + dcb*dcb + dcr*dcr
}
