/*
DESCRIPTION
  list.go lists the subtitle stream formats known to the codecs.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package codecutil

import (
	"path/filepath"
	"strings"
)

// All available stream formats for reference in any application.
// When adding or removing a format from this list, the IsValid function below must be updated.
const (
	PGS    = "pgs"    // Blu-ray presentation graphic stream (.sup).
	VobSub = "vobsub" // DVD VobSub (.sub + .idx).
	DVDSUP = "dvdsup" // DVD SPU stream with SP framing (.sup + .ifo).
	HDDVD  = "hddvd"  // HD-DVD SPU-HD stream (.sup).
)

// IsValid checks if a string is a known and valid format in the right form.
func IsValid(s string) bool {
	switch s {
	case PGS, VobSub, DVDSUP, HDDVD:
		return true
	default:
		return false
	}
}

// Sniff guesses the format of a stream from its file name and first bytes.
// An empty string is returned if nothing matches.
func Sniff(name string, head []byte) string {
	if len(head) >= 4 && head[0] == 0x00 && head[1] == 0x00 && head[2] == 0x01 && head[3] == 0xba {
		return VobSub
	}
	if len(head) >= 2 && head[0] == 'P' && head[1] == 'G' {
		return PGS
	}
	if len(head) >= 14 && head[0] == 'S' && head[1] == 'P' {
		// SPU-HD has a 4 byte size field where a DVD SPU has a 2 byte one;
		// the upper half of the SPU-HD size is always zero for real captions.
		if head[10] == 0 && head[11] == 0 {
			return HDDVD
		}
		return DVDSUP
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".sub", ".idx":
		return VobSub
	case ".ifo":
		return DVDSUP
	}
	return ""
}
