/*
DESCRIPTION
  pack.go provides reading and writing of MPEG program stream pack headers.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vobsub provides reading and writing of VobSub subtitles: a SUB
// file holding DVD sub-picture units in an MPEG program stream, and the IDX
// text file indexing it.
package vobsub

import "github.com/pkg/errors"

// PacketSize is the size of every pack written to a SUB file.
const PacketSize = 0x800

// Pack header lengths, without stuffing.
const (
	packLenMPEG1 = 12
	packLenMPEG2 = 14
)

// muxRate is the program mux rate written in pack headers, in units of 50
// bytes per second.
const muxRate = 25200

// packLen returns the length of the pack header at the start of b,
// including stuffing. b must start with the pack start code.
func packLen(b []byte) (int, error) {
	if len(b) < 5 {
		return 0, errors.New("truncated pack header")
	}
	switch {
	case b[4]>>6 == 0x1:
		if len(b) < packLenMPEG2 {
			return 0, errors.New("truncated MPEG-2 pack header")
		}
		return packLenMPEG2 + int(b[13]&0x07), nil
	case b[4]>>4 == 0x2:
		return packLenMPEG1, nil
	default:
		return 0, errors.Errorf("unknown pack header marker 0x%02x", b[4])
	}
}

// appendPack appends an MPEG-2 pack header with system clock reference
// scr, in 90kHz ticks, to buf.
func appendPack(buf []byte, scr int64) []byte {
	base := uint64(scr) & 0x1ffffffff
	return append(buf,
		0x00, 0x00, 0x01, 0xba,
		0x44|byte(base>>27)&0x38|byte(base>>28)&0x03,
		byte(base>>20),
		0x04|byte(base>>12)&0xf8|byte(base>>13)&0x03,
		byte(base>>5),
		0x04|byte(base<<3)&0xf8, // Extension is zero.
		0x01,
		byte(muxRate>>14&0xff),
		byte(muxRate>>6&0xff),
		byte(muxRate<<2&0xfc)|0x03,
		0xf8, // No stuffing.
	)
}

// scr returns the system clock reference base of the MPEG-2 pack header b.
func scr(b []byte) int64 {
	q := uint64(b[4]&0x38)<<27 | uint64(b[4]&0x03)<<28
	q |= uint64(b[5]) << 20
	q |= uint64(b[6]&0xf8)<<12 | uint64(b[6]&0x03)<<13
	q |= uint64(b[7]) << 5
	q |= uint64(b[8]) >> 3
	return int64(q)
}
