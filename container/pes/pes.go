/*
DESCRIPTION
  pes.go provides building and parsing of program stream PES packets as used
  by DVD sub-picture streams.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pes provides MPEG program stream PES packets.
package pes

import (
	"github.com/Comcast/gots/v2"
	"github.com/pkg/errors"
)

// MaxPesSize is the largest PES packet the 16 bit length field allows.
const MaxPesSize = 6 + 0xffff

// Errors returned by Parse.
var (
	ErrStartCode = errors.New("no packet start code")
	ErrTruncated = errors.New("truncated packet")
)

// Packet is a PES packet. Only the fields used by private and padding
// streams are carried.
type Packet struct {
	StreamID  byte   // Type of stream
	Length    uint16 // Pes packet length in bytes after this field
	Original  bool   // Original data indicator
	PDI       byte   // PTS DTS indicator
	MPEG1     bool   // Header uses the MPEG-1 syntax; set by Parse only
	PTS       uint64 // Presentation time stamp
	DTS       uint64 // Decoding timestamp
	Stuff     []byte // Stuffing bytes
	SubStream byte   // Sub-stream ID; private stream 1 only
	Data      []byte // Pes packet data
}

// HeaderLen returns the length of the header Bytes writes before Data,
// including the sub-stream ID of private stream 1.
func (p *Packet) HeaderLen() int {
	if !hasHeader(p.StreamID) {
		return 6
	}
	n := 9 + len(p.Stuff)
	if p.PDI == 2 {
		n += 5
	}
	if p.StreamID == Private1SID {
		n++
	}
	return n
}

// Bytes appends the packet to buf[:0]. Length is computed from the content.
func (p *Packet) Bytes(buf []byte) []byte {
	n := p.HeaderLen() + len(p.Data)
	if cap(buf) < n {
		buf = make([]byte, 0, n)
	}
	p.Length = uint16(n - 6)
	buf = append(buf[:0],
		0x00, 0x00, 0x01,
		p.StreamID,
		byte((p.Length&0xff00)>>8),
		byte(p.Length&0x00ff),
	)
	if !hasHeader(p.StreamID) {
		return append(buf, p.Data...)
	}

	var ptsLen byte
	if p.PDI == 2 {
		ptsLen = 5
	}
	buf = append(buf,
		0x2<<6|boolByte(p.Original),
		p.PDI<<6,
		ptsLen+byte(len(p.Stuff)),
	)
	if p.PDI == 2 {
		ptsIdx := len(buf)
		buf = buf[:ptsIdx+5]
		gots.InsertPTS(buf[ptsIdx:], p.PTS)
	}
	buf = append(buf, p.Stuff...)
	if p.StreamID == Private1SID {
		buf = append(buf, p.SubStream)
	}
	return append(buf, p.Data...)
}

// Padding returns a padding stream packet of n bytes in total. n must be at
// least 6.
func Padding(n int) []byte {
	p := Packet{StreamID: PaddingSID, Data: make([]byte, n-6)}
	for i := range p.Data {
		p.Data[i] = 0xff
	}
	return p.Bytes(nil)
}

// Parse parses the packet at the start of b and returns it with its total
// length. Data aliases b. Both MPEG-1 and MPEG-2 header syntax are accepted.
func Parse(b []byte) (*Packet, int, error) {
	if len(b) < 6 {
		return nil, 0, ErrTruncated
	}
	if b[0] != 0 || b[1] != 0 || b[2] != 1 {
		return nil, 0, ErrStartCode
	}
	p := &Packet{StreamID: b[3], Length: uint16(b[4])<<8 | uint16(b[5])}
	n := 6 + int(p.Length)
	if n > len(b) {
		return nil, 0, errors.Wrapf(ErrTruncated, "stream 0x%02x needs %d bytes, have %d", p.StreamID, n, len(b))
	}
	pkt := b[:n]
	if !hasHeader(p.StreamID) {
		p.Data = pkt[6:]
		return p, n, nil
	}

	var i int
	var err error
	if len(pkt) > 6 && pkt[6]&0xc0 == 0x80 {
		i, err = p.parseMPEG2(pkt)
	} else {
		p.MPEG1 = true
		i, err = p.parseMPEG1(pkt)
	}
	if err != nil {
		return nil, 0, err
	}
	if p.StreamID == Private1SID {
		if i >= n {
			return nil, 0, errors.Wrap(ErrTruncated, "missing sub-stream ID")
		}
		p.SubStream = pkt[i]
		i++
	}
	p.Data = pkt[i:]
	return p, n, nil
}

func (p *Packet) parseMPEG2(pkt []byte) (int, error) {
	if len(pkt) < 9 {
		return 0, errors.Wrap(ErrTruncated, "short header")
	}
	p.Original = pkt[6]&0x01 != 0
	p.PDI = pkt[7] >> 6
	end := 9 + int(pkt[8])
	if end > len(pkt) {
		return 0, errors.Wrapf(ErrTruncated, "header of %d bytes in packet of %d", end, len(pkt))
	}
	i := 9
	if p.PDI&2 != 0 {
		if i+5 > end {
			return 0, errors.Wrap(ErrTruncated, "short time stamp")
		}
		p.PTS = gots.ExtractTime(pkt[i:])
		i += 5
		if p.PDI == 3 {
			if i+5 > end {
				return 0, errors.Wrap(ErrTruncated, "short time stamp")
			}
			p.DTS = gots.ExtractTime(pkt[i:])
			i += 5
		}
	}
	// Further optional fields are not used; they are kept with the stuffing.
	p.Stuff = pkt[i:end]
	return end, nil
}

func (p *Packet) parseMPEG1(pkt []byte) (int, error) {
	i := 6
	for i < len(pkt) && pkt[i] == 0xff {
		i++
	}
	p.Stuff = pkt[6:i]
	if i < len(pkt) && pkt[i]&0xc0 == 0x40 {
		i += 2 // STD buffer.
	}
	if i >= len(pkt) {
		return 0, errors.Wrap(ErrTruncated, "short header")
	}
	switch pkt[i] & 0xf0 {
	case 0x20:
		if i+5 > len(pkt) {
			return 0, errors.Wrap(ErrTruncated, "short time stamp")
		}
		p.PDI = 2
		p.PTS = gots.ExtractTime(pkt[i:])
		i += 5
	case 0x30:
		if i+10 > len(pkt) {
			return 0, errors.Wrap(ErrTruncated, "short time stamp")
		}
		p.PDI = 3
		p.PTS = gots.ExtractTime(pkt[i:])
		p.DTS = gots.ExtractTime(pkt[i+5:])
		i += 10
	default:
		if pkt[i] != 0x0f {
			return 0, errors.Errorf("bad header byte 0x%02x", pkt[i])
		}
		i++
	}
	return i, nil
}

// hasHeader returns whether packets of stream id carry the optional header.
func hasHeader(id byte) bool {
	return id != PaddingSID && id != Private2SID
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
