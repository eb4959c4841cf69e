/*
DESCRIPTION
  helpers.go provides program stream start codes and stream ID helpers.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import "errors"

// Stream IDs AKA start code values as per ITU-T Rec. H.222.0 / ISO/IEC 13818-1, table 2-18.
const (
	ProgramEndSID = 0xb9
	PackSID       = 0xba
	SystemSID     = 0xbb
	Private1SID   = 0xbd
	PaddingSID    = 0xbe
	Private2SID   = 0xbf
)

// SubpictureBase is the first sub-stream ID of DVD sub-pictures carried in
// private stream 1. Streams 0 to 31 follow it.
const SubpictureBase = 0x20

// IsSubpicture returns whether a private stream 1 sub-stream ID is a DVD
// sub-picture stream.
func IsSubpicture(sub byte) bool { return sub&0xe0 == SubpictureBase }

// SIDToName will return a short name for the passed stream ID.
func SIDToName(id byte) (string, error) {
	switch {
	case id == ProgramEndSID:
		return "program end", nil
	case id == PackSID:
		return "pack", nil
	case id == SystemSID:
		return "system header", nil
	case id == Private1SID:
		return "private stream 1", nil
	case id == PaddingSID:
		return "padding", nil
	case id == Private2SID:
		return "private stream 2", nil
	case id >= 0xc0 && id <= 0xdf:
		return "audio", nil
	case id >= 0xe0 && id <= 0xef:
		return "video", nil
	default:
		return "", errors.New("unknown stream ID")
	}
}
