/*
DESCRIPTION
  params.go defines the conversion parameters the codecs take from the
  embedding application.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package caption

import "github.com/ausocean/subtitle/codec/palette"

// Default parameter values.
const (
	DefaultAlphaCrop      = palette.DefaultAlphaCrop
	DefaultAlphaThreshold = 80
	DefaultMergeDiff      = 200 * PTSFrequency / 1000 // 200ms in ticks.
)

// Params are the conversion parameters.
type Params struct {
	CropOffsetY    int   // Lines cropped from the top and bottom of the screen.
	AlphaCrop      int   // Palette alpha below which an entry is forced transparent.
	AlphaThreshold int   // Alpha below which a pixel is treated as background when quantising to 4 colours.
	BT709          bool  // Use BT.709 instead of BT.601 coefficients.
	SwapCrCb       bool  // Swap the Cr and Cb components of decoded palettes.
	MergeDiff      int64 // Maximum gap in ticks between two mergeable captions.
	AlphaFallback  bool  // Reuse the previous caption's alpha for fully transparent captions.
	ForcedOnly     bool  // Only export captions flagged as forced.
}

// DefaultParams returns the default conversion parameters.
func DefaultParams() Params {
	return Params{
		AlphaCrop:      DefaultAlphaCrop,
		AlphaThreshold: DefaultAlphaThreshold,
		MergeDiff:      DefaultMergeDiff,
	}
}

// Decoder returns the palette decoder configured by p.
func (p Params) Decoder() palette.Decoder {
	return palette.Decoder{AlphaCrop: p.AlphaCrop, SwapCrCb: p.SwapCrCb}
}

// Progress receives the byte offset reached in a source of total bytes.
// Offsets passed to it never decrease.
type Progress func(off, total int64)
