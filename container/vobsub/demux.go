/*
DESCRIPTION
  demux.go provides the SUB demultiplexer, which gathers the sub-picture
  units of one sub-picture stream from the packs of a program stream.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vobsub

import (
	"context"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/container/pes"
	"github.com/ausocean/subtitle/container/spu"
)

// AnyStream selects the first sub-picture stream found.
const AnyStream = -1

// unit is a sub-picture unit being gathered.
type unit struct {
	pts   int64
	off   int // Offset of the packet holding the first fragment.
	size  int
	got   int
	frags []codecutil.Fragment
}

// demuxer holds the state of one Demux call.
type demuxer struct {
	src    *codecutil.Source
	stream int
	log    logging.Logger
	res    caption.Result
	cur    *unit
}

// Demux reads the sub-picture units of stream from the program stream in
// src. stream is a sub-stream number from 0 to 31, or AnyStream. Packets of
// other streams are skipped. An unusable control header stops reading; the
// captions found before it are kept and the error is returned in the result.
// Caption end times missing from the control headers are resolved.
func Demux(ctx context.Context, src *codecutil.Source, stream int, log logging.Logger, progress caption.Progress) caption.Result {
	d := &demuxer{src: src, stream: stream, log: log}
	total := int64(src.Len())
	var err error
	for off := 0; off < src.Len(); {
		if err = ctx.Err(); err != nil {
			break
		}
		if progress != nil {
			progress(int64(off), total)
		}
		off, err = d.next(off)
		if err != nil {
			break
		}
	}
	if err == nil && d.cur != nil {
		u := d.cur
		d.res.Log.Add(caption.Warn(caption.InconsistentBuffer, int64(u.off), "stream ends after %d of %d sub-picture bytes", u.got, u.size))
		err = d.complete()
	}
	if err != nil {
		log.Warning("stopped reading packs", "error", err)
		d.res.Err = err
	} else if progress != nil {
		progress(total, total)
	}
	d.res.Log.Add(caption.ResolveEnds(d.res.Captions)...)
	log.Debug("demultiplexed sub-picture stream", "stream", d.stream, "captions", len(d.res.Captions), "warnings", d.res.Log.String())
	return d.res
}

// next handles the pack, packet or end code at off and returns the offset
// following it.
func (d *demuxer) next(off int) (int, error) {
	b, err := d.src.Bytes(off, d.src.Len()-off)
	if err != nil {
		return off, caption.Malformed(int64(off), "%v", err)
	}
	if len(b) < 4 || b[0] != 0 || b[1] != 0 || b[2] != 1 {
		return off, caption.Malformed(int64(off), "no start code")
	}

	switch b[3] {
	case pes.PackSID:
		n, err := packLen(b)
		if err != nil {
			return off, caption.Malformed(int64(off), "%v", err)
		}
		return off + n, nil
	case pes.ProgramEndSID:
		return off + 4, nil
	}

	pkt, n, err := pes.Parse(b)
	if err != nil {
		return off, caption.Malformed(int64(off), "%v", err)
	}
	if pkt.StreamID != pes.Private1SID || !pes.IsSubpicture(pkt.SubStream) {
		return off + n, nil
	}
	sub := int(pkt.SubStream - pes.SubpictureBase)
	if d.stream == AnyStream {
		d.stream = sub
		d.log.Debug("selected sub-picture stream", "stream", sub)
	}
	if sub != d.stream {
		return off + n, nil
	}

	frag := codecutil.Fragment{Off: off + n - len(pkt.Data), Len: len(pkt.Data)}
	if pkt.PDI&2 != 0 {
		return off + n, d.start(off, int64(pkt.PTS), frag)
	}
	return off + n, d.add(off, frag)
}

// start begins a new unit at the packet at off.
func (d *demuxer) start(off int, pts int64, frag codecutil.Fragment) error {
	if u := d.cur; u != nil {
		d.res.Log.Add(caption.Warn(caption.InconsistentBuffer, int64(u.off), "sub-picture has %d of %d bytes when next one starts", u.got, u.size))
		err := d.complete()
		if err != nil {
			return err
		}
	}
	size, err := d.src.Word(frag.Off)
	if err != nil || frag.Len < 2 {
		d.res.Log.Add(caption.Warn(caption.MalformedStream, int64(off), "packet too short for sub-picture size"))
		return nil
	}
	d.cur = &unit{pts: pts, off: off, size: size}
	return d.add(off, frag)
}

// add appends a fragment to the current unit, completing it once the
// declared size is reached.
func (d *demuxer) add(off int, frag codecutil.Fragment) error {
	u := d.cur
	if u == nil {
		d.res.Log.Add(caption.Warn(caption.MalformedStream, int64(off), "continuation packet without a sub-picture start"))
		return nil
	}
	if over := u.got + frag.Len - u.size; over > 0 {
		d.res.Log.Add(caption.Warn(caption.InconsistentBuffer, int64(off), "%d bytes beyond declared sub-picture size %d", over, u.size))
		frag.Len -= over
	}
	u.frags = append(u.frags, frag)
	u.got += frag.Len
	if u.got < u.size {
		return nil
	}
	return d.complete()
}

// complete parses the control header of the current unit and appends its
// caption.
func (d *demuxer) complete() error {
	u := d.cur
	d.cur = nil
	buf, _ := d.src.Gather(u.frags)
	ctl, warns, err := spu.ParseControl(buf, int64(u.off))
	d.res.Log.Add(warns...)
	if err != nil {
		return err
	}
	c := &caption.Caption{
		CompNum:   len(d.res.Captions),
		Fragments: u.frags,
	}
	ctl.Apply(c, u.pts)
	d.res.Captions = append(d.res.Captions, c)
	return nil
}
