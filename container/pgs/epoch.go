/*
DESCRIPTION
  epoch.go provides the composition epoch state machine that turns a
  sequence of presentation graphic stream segments into captions.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pgs

import (
	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/codecutil"
	"github.com/ausocean/subtitle/codec/palette"
)

// openEnd is the display time given to a caption whose end never arrives.
const openEnd = caption.DefaultDuration

// Info is the PGS specific payload of a caption.
type Info struct {
	FrameRate byte
	ObjectID  int
	PaletteID int
	DataLen   int             // Declared run-length data length.
	Palettes  [][]palette.Def // Definitions of PaletteID in arrival order.
}

// object is an object definition accumulated over one or more segments.
type object struct {
	def      *ObjectDef
	frags    []codecutil.Fragment
	complete bool
}

// Machine is the epoch state machine. Segments are fed in stream order to
// Handle; Finish is called once at the end of the stream.
type Machine struct {
	// MergeDiff is the largest gap in ticks between two captions of equal
	// geometry and size that are merged into one.
	MergeDiff int64

	captions []*caption.Caption

	epoch      bool // An epoch is open.
	epochFirst int  // Index of the first caption of the open epoch.
	cur        *caption.Caption
	compNum    int
	odsCount   int // Object definitions since epoch start.
	pdsCount   int // Palette definitions since epoch start.

	pcs      *Composition // Composition awaiting its end segment.
	pcsOff   int64
	opening  bool             // pcs opened the epoch.
	pending  *caption.Caption // Candidate caption of pcs.
	newData  bool             // Object or palette data arrived since pcs.
	lastPTS  int64
	objects  map[int]*object
	palettes map[int][][]palette.Def
}

// NewMachine returns a machine merging captions closer than mergeDiff ticks.
func NewMachine(mergeDiff int64) *Machine {
	return &Machine{MergeDiff: mergeDiff, compNum: -1}
}

// Captions returns the captions accumulated so far.
func (m *Machine) Captions() []*caption.Caption { return m.captions }

// CompNum returns the composition number tracker.
func (m *Machine) CompNum() int { return m.compNum }

// Handle applies one segment and returns the warnings it raised.
func (m *Machine) Handle(seg Segment) []caption.Warning {
	if seg.PTS > m.lastPTS {
		m.lastPTS = seg.PTS
	}
	switch seg.Type {
	case TypePCS:
		return m.composition(seg)
	case TypeWDS:
		if _, err := ParseWindows(seg.Data); err != nil {
			return []caption.Warning{caption.Warn(caption.MalformedStream, int64(seg.Off), "window definition: %v", err)}
		}
		return nil
	case TypePDS:
		return m.palette(seg)
	case TypeODS:
		return m.object(seg)
	case TypeEND:
		return m.end(int64(seg.Off))
	default:
		return []caption.Warning{caption.Warn(caption.MalformedStream, int64(seg.Off), "unknown segment type 0x%02x", seg.Type)}
	}
}

func (m *Machine) composition(seg Segment) []caption.Warning {
	off := int64(seg.Off)
	pcs, err := ParseComposition(seg.Data)
	if err != nil {
		w := caption.Warn(caption.MalformedStream, off, "composition: %v", err)
		if pcs == nil {
			return []caption.Warning{w}
		}
		return append(m.applyComposition(seg, pcs), w)
	}
	return m.applyComposition(seg, pcs)
}

func (m *Machine) applyComposition(seg Segment, pcs *Composition) []caption.Warning {
	off := int64(seg.Off)
	if !pcs.State.Valid() {
		return []caption.Warning{caption.Warn(caption.MalformedStream, off, "composition state %v ignored", pcs.State)}
	}

	var warns []caption.Warning
	if m.pcs != nil {
		warns = append(warns, caption.Warn(caption.MalformedStream, off, "composition %d has no end segment", m.pcs.Number))
		warns = append(warns, m.end(off)...)
	}
	if m.compNum >= 0 && pcs.Number != m.compNum && !after(pcs.Number, m.compNum) {
		warns = append(warns, caption.Warn(caption.Policy, off, "composition number %d after %d", pcs.Number, m.compNum))
	}

	if pcs.State == EpochStart {
		warns = append(warns, m.closeEpoch(off)...)
		m.epoch = true
		m.epochFirst = len(m.captions)
		m.odsCount, m.pdsCount = 0, 0
		m.objects = make(map[int]*object)
		m.palettes = make(map[int][][]palette.Def)
		if last := m.last(); last != nil && last.End == 0 {
			last.End = seg.PTS
		}
		m.cur = newCaption(pcs, seg.PTS)
		m.captions = append(m.captions, m.cur)
		m.compNum = pcs.Number
		m.setComposition(seg, pcs, true)
		return warns
	}

	if !m.epoch {
		return append(warns, caption.Warn(caption.Policy, off, "%v composition outside an epoch ignored", pcs.State))
	}
	m.setComposition(seg, pcs, false)
	if pcs.Number == m.compNum {
		// Repeated composition; nothing new to show.
		return warns
	}
	m.compNum = pcs.Number
	if len(pcs.Objects) == 0 {
		if m.cur != nil && m.cur.End == 0 {
			m.cur.End = seg.PTS
		}
		return warns
	}
	m.pending = newCaption(pcs, seg.PTS)
	return warns
}

func (m *Machine) setComposition(seg Segment, pcs *Composition, opening bool) {
	m.pcs, m.pcsOff = pcs, int64(seg.Off)
	m.opening = opening
	m.pending = nil
	m.newData = false
}

func (m *Machine) palette(seg Segment) []caption.Warning {
	off := int64(seg.Off)
	pds, err := ParsePalette(seg.Data)
	if err != nil {
		return []caption.Warning{caption.Warn(caption.MalformedStream, off, "palette definition: %v", err)}
	}
	if !m.epoch {
		return []caption.Warning{caption.Warn(caption.Policy, off, "palette definition outside an epoch ignored")}
	}
	var warns []caption.Warning
	if len(m.palettes[pds.ID]) != 0 {
		warns = append(warns, caption.Warn(caption.Policy, off, "palette %d redefined within epoch", pds.ID))
	}
	m.palettes[pds.ID] = append(m.palettes[pds.ID], pds.Defs)
	m.pdsCount++
	m.newData = true
	return warns
}

func (m *Machine) object(seg Segment) []caption.Warning {
	off := int64(seg.Off)
	ods, err := ParseObject(seg)
	if err != nil {
		return []caption.Warning{caption.Warn(caption.MalformedStream, off, "object definition: %v", err)}
	}
	if !m.epoch {
		return []caption.Warning{caption.Warn(caption.Policy, off, "object definition outside an epoch ignored")}
	}
	var warns []caption.Warning
	o := m.objects[ods.ID]
	switch {
	case ods.First:
		if o != nil {
			warns = append(warns, caption.Warn(caption.Policy, off, "object %d redefined within epoch", ods.ID))
		}
		o = &object{def: ods}
		m.objects[ods.ID] = o
	case o == nil || o.complete:
		return []caption.Warning{caption.Warn(caption.MalformedStream, off, "continuation of object %d without a start", ods.ID)}
	}
	o.frags = append(o.frags, ods.Data)
	o.complete = ods.Last
	m.odsCount++
	m.newData = true
	return warns
}

// end completes the display set of the pending composition, deciding
// whether its caption is merged into the previous one or appended.
func (m *Machine) end(off int64) []caption.Warning {
	pcs := m.pcs
	if pcs == nil {
		return []caption.Warning{caption.Warn(caption.Policy, off, "end segment without composition ignored")}
	}
	m.pcs = nil

	if m.opening {
		if len(pcs.Objects) == 0 {
			m.drop(m.cur)
			m.cur = nil
			return nil
		}
		warns := m.resolve(m.cur, pcs)
		if m.cur.Width == 0 || m.cur.Height == 0 {
			m.drop(m.cur)
			m.cur = nil
			warns = append(warns, caption.Warn(caption.MalformedStream, m.pcsOff, "composition %d dropped without object", pcs.Number))
		}
		return warns
	}

	c := m.pending
	m.pending = nil
	if c == nil {
		return nil
	}
	warns := m.resolve(c, pcs)
	if c.Width == 0 || c.Height == 0 {
		return append(warns, caption.Warn(caption.MalformedStream, m.pcsOff, "composition %d dropped without object", pcs.Number))
	}
	prev := m.last()
	switch {
	case prev != nil && Mergeable(prev, c, m.MergeDiff):
		Merge(prev, c)
		m.cur = prev
		warns = append(warns, caption.Warn(caption.Policy, m.pcsOff, "composition %d merged into caption %d", pcs.Number, len(m.captions)-1))
	case m.newData:
		if prev != nil && prev.End == 0 {
			prev.End = c.Start
		}
		m.captions = append(m.captions, c)
		m.cur = c
	default:
		warns = append(warns, caption.Warn(caption.Policy, m.pcsOff, "composition %d without new data ignored", pcs.Number))
	}
	return warns
}

// resolve fills c with the object and palette definitions pcs refers to.
func (m *Machine) resolve(c *caption.Caption, pcs *Composition) []caption.Warning {
	var warns []caption.Warning
	if len(pcs.Objects) > 1 {
		warns = append(warns, caption.Warn(caption.Policy, m.pcsOff, "%d composition objects, only the first is used", len(pcs.Objects)))
	}
	ref := pcs.Objects[0]
	o := m.objects[ref.ObjectID]
	if o == nil {
		return append(warns, caption.Warn(caption.MalformedStream, m.pcsOff, "object %d not defined", ref.ObjectID))
	}
	if !o.complete {
		warns = append(warns, caption.Warn(caption.InconsistentBuffer, m.pcsOff, "object %d not terminated", ref.ObjectID))
	}
	info := c.Info.(*Info)
	c.Width, c.Height = o.def.Width, o.def.Height
	c.Fragments = append([]codecutil.Fragment(nil), o.frags...)
	info.DataLen = o.def.DataLen

	defs := m.palettes[pcs.PaletteID]
	if len(defs) == 0 {
		warns = append(warns, caption.Warn(caption.Policy, m.pcsOff, "palette %d not defined", pcs.PaletteID))
	}
	info.Palettes = append([][]palette.Def(nil), defs...)
	return warns
}

// closeEpoch closes the open epoch. An epoch that saw no object or no
// palette definition is discarded with its captions and the composition
// number tracker is rolled back by one.
func (m *Machine) closeEpoch(off int64) []caption.Warning {
	if !m.epoch {
		return nil
	}
	m.epoch = false
	m.cur, m.pending, m.pcs = nil, nil, nil
	if m.odsCount != 0 && m.pdsCount != 0 {
		return nil
	}
	n := len(m.captions) - m.epochFirst
	m.captions = m.captions[:m.epochFirst]
	m.compNum--
	return []caption.Warning{caption.Warn(caption.Policy, off, "epoch with %d object and %d palette definitions discarded (%d captions)", m.odsCount, m.pdsCount, n)}
}

// Finish closes the stream, giving open captions an end time.
func (m *Machine) Finish() []caption.Warning {
	var warns []caption.Warning
	if m.pcs != nil {
		warns = append(warns, caption.Warn(caption.MalformedStream, -1, "composition %d has no end segment", m.pcs.Number))
		warns = append(warns, m.end(-1)...)
	}
	warns = append(warns, m.closeEpoch(-1)...)
	for i, c := range m.captions {
		switch {
		case c.End == 0:
			c.End = m.lastPTS
			if c.End <= c.Start {
				c.End = c.Start + openEnd
			}
			warns = append(warns, caption.WarnCaption(caption.Policy, i, "missing end time, set to %d", c.End))
		case c.End < c.Start:
			warns = append(warns, caption.WarnCaption(caption.MalformedStream, i, "end %d before start %d", c.End, c.Start))
			c.End = c.Start
		}
	}
	return warns
}

func (m *Machine) last() *caption.Caption {
	if len(m.captions) == 0 {
		return nil
	}
	return m.captions[len(m.captions)-1]
}

func (m *Machine) drop(c *caption.Caption) {
	for i := len(m.captions) - 1; i >= m.epochFirst; i-- {
		if m.captions[i] == c {
			m.captions = append(m.captions[:i], m.captions[i+1:]...)
			return
		}
	}
}

// Mergeable returns whether b, following a, shows the same picture: the gap
// from the end of a to the start of b is below threshold and both have the
// same width, height and run-length buffer size. An open a has no gap.
func Mergeable(a, b *caption.Caption, threshold int64) bool {
	gap := int64(0)
	if a.End != 0 {
		gap = b.Start - a.End
	}
	return gap < threshold &&
		a.Width == b.Width &&
		a.Height == b.Height &&
		a.BufferSize() == b.BufferSize()
}

// Merge folds b into a, extending a to the end of b.
func Merge(a, b *caption.Caption) {
	a.End = b.End
}

func newCaption(pcs *Composition, pts int64) *caption.Caption {
	c := &caption.Caption{
		Start:        pts,
		ScreenWidth:  pcs.Width,
		ScreenHeight: pcs.Height,
		CompNum:      pcs.Number,
		Info:         &Info{FrameRate: pcs.FrameRate, PaletteID: pcs.PaletteID},
	}
	if len(pcs.Objects) != 0 {
		o := pcs.Objects[0]
		c.X, c.Y, c.Forced = o.X, o.Y, o.Forced
		c.Info.(*Info).ObjectID = o.ObjectID
	}
	return c
}

// after returns whether composition number a follows b, allowing for 16 bit
// wrap around.
func after(a, b int) bool {
	d := (a - b) & 0xffff
	return d != 0 && d < 0x8000
}
