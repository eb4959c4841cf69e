/*
DESCRIPTION
  idx.go provides reading and writing of the IDX text file that describes a
  SUB file: screen geometry, stream palette, languages and the time stamp and
  file position of every sub-picture unit.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vobsub

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ausocean/subtitle/caption"
	"github.com/ausocean/subtitle/codec/palette"
)

const idxHeader = "# VobSub index file, v7 (do not modify this line!)"

// Line prefixes of the IDX keys.
const (
	sizePrefix       = "size: "
	orgPrefix        = "org: "
	scalePrefix      = "scale: "
	alphaPrefix      = "alpha: "
	timeOffsetPrefix = "time offset: "
	forcedPrefix     = "forced subs: "
	palettePrefix    = "palette: "
	langIdxPrefix    = "langidx: "
	idPrefix         = "id: "
	timestampPrefix  = "timestamp: "
)

// paletteLen is the number of colours of the stream palette.
const paletteLen = 16

// ticksPerMs is the number of 90kHz ticks in a millisecond.
const ticksPerMs = caption.PTSFrequency / 1000

// Entry is one indexed sub-picture unit.
type Entry struct {
	Time int64 // Time stamp in ticks.
	Pos  int64 // Offset of the first pack in the SUB file.
}

// Language is one sub-picture stream declared by the IDX.
type Language struct {
	ID      string // Two letter language code.
	Index   int    // Sub-picture stream number.
	Entries []Entry
}

// IDX is the content of an IDX file.
type IDX struct {
	Width, Height  int
	Origin         image.Point
	ScaleX, ScaleY int   // Percent.
	Alpha          int   // Percent.
	TimeOffset     int64 // Delay applied to every time stamp, in ticks.
	ForcedSubs     bool
	Palette        []color.RGBA
	LangIdx        int
	Languages      []Language
}

// NewIDX returns an IDX for a width by height screen using the default DVD
// palette.
func NewIDX(width, height int) *IDX {
	return &IDX{
		Width:   width,
		Height:  height,
		ScaleX:  100,
		ScaleY:  100,
		Alpha:   100,
		Palette: append([]color.RGBA(nil), palette.DefaultDVD...),
	}
}

// ParseIDX parses an IDX file. Unknown keys are skipped.
func ParseIDX(r io.Reader) (*IDX, error) {
	idx := NewIDX(720, 576)
	s := bufio.NewScanner(r)
	for n := 1; s.Scan(); n++ {
		line := strings.TrimSpace(s.Text())
		err := idx.parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "could not scan idx")
	}
	return idx, nil
}

func (idx *IDX) parseLine(line string) error {
	var err error
	switch {
	case line == "" || line[0] == '#':
	case strings.HasPrefix(line, sizePrefix):
		idx.Width, idx.Height, err = pair(line[len(sizePrefix):], "x")
	case strings.HasPrefix(line, orgPrefix):
		idx.Origin.X, idx.Origin.Y, err = pair(line[len(orgPrefix):], ",")
	case strings.HasPrefix(line, scalePrefix):
		v := strings.ReplaceAll(line[len(scalePrefix):], "%", "")
		idx.ScaleX, idx.ScaleY, err = pair(v, ",")
	case strings.HasPrefix(line, alphaPrefix):
		idx.Alpha, err = strconv.Atoi(strings.TrimSuffix(line[len(alphaPrefix):], "%"))
	case strings.HasPrefix(line, timeOffsetPrefix):
		var ms int64
		ms, err = strconv.ParseInt(strings.TrimSpace(line[len(timeOffsetPrefix):]), 10, 64)
		idx.TimeOffset = ms * ticksPerMs
	case strings.HasPrefix(line, forcedPrefix):
		idx.ForcedSubs = strings.TrimSpace(line[len(forcedPrefix):]) == "ON"
	case strings.HasPrefix(line, palettePrefix):
		idx.Palette, err = parsePalette(line[len(palettePrefix):])
	case strings.HasPrefix(line, langIdxPrefix):
		idx.LangIdx, err = strconv.Atoi(strings.TrimSpace(line[len(langIdxPrefix):]))
	case strings.HasPrefix(line, idPrefix):
		err = idx.parseID(line[len(idPrefix):])
	case strings.HasPrefix(line, timestampPrefix):
		err = idx.parseTimestamp(line[len(timestampPrefix):])
	}
	return err
}

// parseID parses "en, index: 0".
func (idx *IDX) parseID(v string) error {
	parts := strings.SplitN(v, ",", 2)
	l := Language{ID: strings.TrimSpace(parts[0])}
	if len(parts) == 2 {
		i := strings.TrimSpace(parts[1])
		if !strings.HasPrefix(i, "index:") {
			return errors.Errorf("bad language id %q", v)
		}
		var err error
		l.Index, err = strconv.Atoi(strings.TrimSpace(i[len("index:"):]))
		if err != nil {
			return errors.Wrap(err, "bad language index")
		}
	}
	idx.Languages = append(idx.Languages, l)
	return nil
}

// parseTimestamp parses "00:00:01:000, filepos: 000000000" into an entry of
// the last declared language.
func (idx *IDX) parseTimestamp(v string) error {
	if len(idx.Languages) == 0 {
		return errors.New("timestamp before language id")
	}
	parts := strings.SplitN(v, ",", 2)
	if len(parts) != 2 {
		return errors.Errorf("bad timestamp %q", v)
	}
	t, err := parseTime(strings.TrimSpace(parts[0]))
	if err != nil {
		return err
	}
	pos := strings.TrimSpace(parts[1])
	if !strings.HasPrefix(pos, "filepos:") {
		return errors.Errorf("bad file position %q", parts[1])
	}
	p, err := strconv.ParseInt(strings.TrimSpace(pos[len("filepos:"):]), 16, 64)
	if err != nil {
		return errors.Wrap(err, "bad file position")
	}
	l := &idx.Languages[len(idx.Languages)-1]
	l.Entries = append(l.Entries, Entry{Time: t, Pos: p})
	return nil
}

// parseTime parses hh:mm:ss:mmm into ticks. A leading '-' negates it.
func parseTime(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	f := strings.Split(strings.TrimPrefix(s, "-"), ":")
	if len(f) != 4 {
		return 0, errors.Errorf("bad time %q", s)
	}
	var v [4]int64
	for i := range f {
		var err error
		v[i], err = strconv.ParseInt(f[i], 10, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "bad time %q", s)
		}
	}
	ms := ((v[0]*60+v[1])*60+v[2])*1000 + v[3]
	if neg {
		ms = -ms
	}
	return ms * ticksPerMs, nil
}

func formatTime(t int64) string {
	sign := ""
	if t < 0 {
		sign, t = "-", -t
	}
	ms := t / ticksPerMs
	return fmt.Sprintf("%s%02d:%02d:%02d:%03d", sign, ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

func parsePalette(v string) ([]color.RGBA, error) {
	f := strings.Split(v, ",")
	if len(f) != paletteLen {
		return nil, errors.Errorf("palette has %d colours, want %d", len(f), paletteLen)
	}
	p := make([]color.RGBA, paletteLen)
	for i, s := range f {
		c, err := strconv.ParseUint(strings.TrimSpace(s), 16, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "bad palette colour %d", i)
		}
		p[i] = color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 0xff}
	}
	return p, nil
}

func pair(v, sep string) (int, int, error) {
	f := strings.Split(v, sep)
	if len(f) != 2 {
		return 0, 0, errors.Errorf("want two values in %q", v)
	}
	a, err := strconv.Atoi(strings.TrimSpace(f[0]))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(f[1]))
	return a, b, err
}

// StreamPalette returns the stream palette in YCbCr.
func (idx *IDX) StreamPalette(bt709 bool) *palette.Palette {
	return palette.FromRGB(idx.Palette, bt709)
}

// Apply sets the screen size of caps and shifts them by the time offset.
func (idx *IDX) Apply(caps []*caption.Caption) {
	for _, c := range caps {
		c.ScreenWidth, c.ScreenHeight = idx.Width, idx.Height
		c.Start += idx.TimeOffset
		c.End += idx.TimeOffset
	}
}

// WriteTo writes idx in IDX format.
func (idx *IDX) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	onOff := func(v bool) string {
		if v {
			return "ON"
		}
		return "OFF"
	}
	fmt.Fprintln(&b, idxHeader)
	fmt.Fprintf(&b, "%s%dx%d\n", sizePrefix, idx.Width, idx.Height)
	fmt.Fprintf(&b, "%s%d, %d\n", orgPrefix, idx.Origin.X, idx.Origin.Y)
	fmt.Fprintf(&b, "%s%d%%, %d%%\n", scalePrefix, idx.ScaleX, idx.ScaleY)
	fmt.Fprintf(&b, "%s%d%%\n", alphaPrefix, idx.Alpha)
	fmt.Fprintln(&b, "smooth: OFF")
	fmt.Fprintln(&b, "fadein/out: 0, 0")
	fmt.Fprintln(&b, "align: OFF at LEFT TOP")
	fmt.Fprintf(&b, "%s%d\n", timeOffsetPrefix, idx.TimeOffset/ticksPerMs)
	fmt.Fprintf(&b, "%s%s\n", forcedPrefix, onOff(idx.ForcedSubs))
	cols := make([]string, len(idx.Palette))
	for i, c := range idx.Palette {
		cols[i] = fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
	}
	fmt.Fprintf(&b, "%s%s\n", palettePrefix, strings.Join(cols, ", "))
	fmt.Fprintln(&b, "custom colors: OFF, tridx: 0000, colors: 000000, 000000, 000000, 000000")
	fmt.Fprintf(&b, "%s%d\n", langIdxPrefix, idx.LangIdx)
	for _, l := range idx.Languages {
		fmt.Fprintf(&b, "\n%s%s, index: %d\n", idPrefix, l.ID, l.Index)
		for _, e := range l.Entries {
			fmt.Fprintf(&b, "%s%s, filepos: %09x\n", timestampPrefix, formatTime(e.Time), e.Pos)
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), errors.Wrap(err, "could not write idx")
}
