/*
DESCRIPTION
  decode.go applies raw palette definitions to a palette under the alpha
  crop and fade-out policies, and provides the zero-alpha fallback state
  carried between sequentially decoded captions.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package palette

// DefaultAlphaCrop is the default alpha below which an entry is made
// transparent black.
const DefaultAlphaCrop = 14

// Def is one raw palette definition entry as carried by a stream.
type Def struct {
	Index     uint8
	Y, Cr, Cb uint8
	Alpha     uint8
}

// Decoder applies palette definitions.
type Decoder struct {
	AlphaCrop int  // Alpha below which entries are cropped.
	SwapCrCb  bool // Swap Cr and Cb of incoming definitions.
}

// Apply writes defs into p in order. An entry whose alpha is below the crop
// threshold becomes transparent black with zero alpha; its alpha is set to 0
// rather than raised or clamped to AlphaCrop. A definition that
// would lower an entry's alpha is a fade-out; its colour is taken but the
// alpha is kept, and fadeOut is reported.
func (d Decoder) Apply(p *Palette, defs []Def) (fadeOut bool) {
	for _, def := range defs {
		if int(def.Index) >= len(p.Entries) {
			continue
		}
		y, cb, cr := def.Y, def.Cb, def.Cr
		if d.SwapCrCb {
			cb, cr = cr, cb
		}
		e := &p.Entries[def.Index]
		if def.Alpha < e.Alpha {
			fadeOut = true
			e.Y, e.Cb, e.Cr = y, cb, cr
			continue
		}
		e.Y, e.Cb, e.Cr, e.Alpha = y, cb, cr, def.Alpha
		if int(def.Alpha) < d.AlphaCrop {
			e.Y, e.Cb, e.Cr, e.Alpha = BlackY, BlackCb, BlackCr, 0
		}
	}
	return fadeOut
}

// Crop applies only the alpha crop policy to every entry of p.
func (d Decoder) Crop(p *Palette) {
	for i := range p.Entries {
		e := &p.Entries[i]
		if int(e.Alpha) < d.AlphaCrop {
			*e = Entry{Y: BlackY, Cb: BlackCb, Cr: BlackCr}
		}
	}
}

// Fallback holds the alpha set of the last caption that had any visible
// entry. The zero value holds nothing.
type Fallback struct {
	alpha []uint8
}

// Resolve checks p for a zero alpha sum. If the sum is non-zero the alpha
// set is remembered. Otherwise, when enabled and a previous alpha set of the
// same size exists, it is copied into p and substituted is true; if not,
// invisible is true and p is left unchanged.
func (f *Fallback) Resolve(p *Palette, enabled bool) (substituted, invisible bool) {
	if p.AlphaSum() != 0 {
		f.alpha = p.Alphas()
		return false, false
	}
	if !enabled || len(f.alpha) != len(p.Entries) {
		return false, true
	}
	for i := range p.Entries {
		p.Entries[i].Alpha = f.alpha[i]
	}
	return true, false
}
