/*
DESCRIPTION
  writer.go provides the SUB encoder, which splits each sub-picture unit
  over packs of PacketSize bytes and records the index entries of the IDX.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vobsub

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/container/pes"
	"github.com/ausocean/subtitle/container/spu"
)

// minPadding is the smallest padding packet; smaller gaps are filled with
// stuffing bytes in the PES header.
const minPadding = 6

// Encoder writes sub-picture units to a SUB file.
type Encoder struct {
	dst     io.Writer
	log     logging.Logger
	stream  int
	pos     int64
	entries []Entry
}

// NewEncoder returns an Encoder writing to dst.
func NewEncoder(dst io.Writer, log logging.Logger, options ...func(*Encoder) error) (*Encoder, error) {
	e := &Encoder{dst: dst, log: log}
	for _, option := range options {
		err := option(e)
		if err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	log.Debug("encoder options applied", "stream", e.stream)
	return e, nil
}

// Encode writes the sub-picture unit built from pic for caption c.
func (e *Encoder) Encode(c *caption.Caption, pic *spu.Picture) error {
	b, err := Marshal(c, pic, e.stream)
	if err != nil {
		return err
	}
	return e.Put(c, b)
}

// Put writes packs already produced by Marshal for caption c and records
// their position.
func (e *Encoder) Put(c *caption.Caption, b []byte) error {
	_, err := e.dst.Write(b)
	if err != nil {
		return errors.Wrap(err, "could not write packs")
	}
	e.entries = append(e.entries, Entry{Time: c.Start, Pos: e.pos})
	e.log.Debug("wrote sub-picture", "start", c.Start, "pos", e.pos, "packs", len(b)/PacketSize)
	e.pos += int64(len(b))
	return nil
}

// Stream returns the sub-picture stream number written.
func (e *Encoder) Stream() int { return e.stream }

// Entries returns the index entries of the units written so far.
func (e *Encoder) Entries() []Entry { return e.entries }

// Marshal builds the sub-picture unit for pic and splits it into packs for
// sub-picture stream number stream, time stamped with the start of c.
func Marshal(c *caption.Caption, pic *spu.Picture, stream int) ([]byte, error) {
	b, err := spu.Encode(pic)
	if err != nil {
		return nil, err
	}
	return packetize(b, c.Start, byte(pes.SubpictureBase+stream)), nil
}

// packetize splits data over packs of PacketSize bytes. Only the first
// packet carries pts. The last pack is filled with header stuffing or a
// padding packet.
func packetize(data []byte, pts int64, sub byte) []byte {
	buf := make([]byte, 0, (len(data)/(PacketSize-32)+1)*PacketSize)
	for first := true; first || len(data) > 0; first = false {
		p := pes.Packet{StreamID: pes.Private1SID, Original: true, SubStream: sub}
		if first {
			p.PDI = 2
			p.PTS = uint64(pts)
		}
		room := PacketSize - packLenMPEG2 - p.HeaderLen()
		n := len(data)
		if n > room {
			n = room
		}
		pad := room - n
		if pad > 0 && pad < minPadding {
			p.Stuff = make([]byte, pad)
			for i := range p.Stuff {
				p.Stuff[i] = 0xff
			}
			pad = 0
		}
		p.Data = data[:n]
		data = data[n:]

		buf = appendPack(buf, pts)
		buf = append(buf, p.Bytes(nil)...)
		if pad > 0 {
			buf = append(buf, pes.Padding(pad)...)
		}
	}
	return buf
}
