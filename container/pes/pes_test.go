/*
DESCRIPTION
  pes_test.go provides testing for PES packet building and parsing.

LICENSE
  Copyright (C) 2026 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pes

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
)

func TestPesToByteSlice(t *testing.T) {
	pkt := Packet{
		StreamID:  Private1SID,
		Original:  true,
		PDI:       byte(2),
		PTS:       100000,
		Stuff:     []byte{0xff, 0xff},
		SubStream: 0x20,
		Data:      []byte{0xea, 0x4b, 0x12},
	}
	got := pkt.Bytes(nil)
	want := []byte{
		0x00, // packet start code prefix byte 1
		0x00, // packet start code prefix byte 2
		0x01, // packet start code prefix byte 3
		0xbd, // stream ID
		0x00, // PES Packet length byte 1
		0x0e, // PES packet length byte 2
		0x81, // Marker bits, Original
		0x80, // PDI
		7,    // header length
		0x21, // pts byte 1
		0x00, // pts byte 2
		0x07, // pts byte 3
		0x0d, // pts byte 4
		0x41, // pts byte 5
		0xff, // Stuffing byte 1
		0xff, // stuffing byte 2
		0x20, // sub-stream
		0xea, // data byte 1
		0x4b, // data byte 2
		0x12, // data byte 3
	}
	if !bytes.Equal(got, want) {
		t.Errorf("unexpected packet encoding:\ngot: %#v\nwant:%#v", got, want)
	}
	if pkt.HeaderLen() != len(want)-3 {
		t.Errorf("got header length %d, want %d", pkt.HeaderLen(), len(want)-3)
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []Packet{
		{StreamID: Private1SID, PDI: 2, PTS: 0x12345678, SubStream: 0x21, Data: []byte{1, 2, 3, 4}},
		{StreamID: Private1SID, SubStream: 0x20, Data: []byte{5}},
		{StreamID: Private1SID, PDI: 2, PTS: 90000, Stuff: []byte{0xff, 0xff, 0xff}, SubStream: 0x3f, Data: []byte{}},
	}
	for i, want := range tests {
		b := want.Bytes(nil)
		b = append(b, 0xaa) // Trailing bytes belong to the next packet.
		got, n, err := Parse(b)
		if err != nil {
			t.Errorf("test %d: unexpected error: %v", i, err)
			continue
		}
		if n != len(b)-1 {
			t.Errorf("test %d: got length %d, want %d", i, n, len(b)-1)
		}
		if diff := cmp.Diff(&want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("test %d: unexpected packet (-want +got):\n%s", i, diff)
		}
	}
}

func TestParseMPEG1(t *testing.T) {
	// Stuffing, STD buffer, PTS of 100000, sub-stream, data.
	b := []byte{0x00, 0x00, 0x01, 0xbd, 0x00, 0x0c, 0xff, 0xff, 0x40, 0x00, 0x21, 0x00, 0x07, 0x0d, 0x41, 0x20, 0x01, 0x02}
	p, n, err := Parse(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(b) {
		t.Errorf("got length %d, want %d", n, len(b))
	}
	if !p.MPEG1 || p.PDI != 2 || p.PTS != 100000 || p.SubStream != 0x20 {
		t.Errorf("unexpected header: %+v", p)
	}
	if !bytes.Equal(p.Data, []byte{0x01, 0x02}) {
		t.Errorf("got data %x", p.Data)
	}
}

func TestPadding(t *testing.T) {
	b := Padding(10)
	want := []byte{0x00, 0x00, 0x01, 0xbe, 0x00, 0x04, 0xff, 0xff, 0xff, 0xff}
	if !bytes.Equal(b, want) {
		t.Errorf("got %x, want %x", b, want)
	}
	p, n, err := Parse(b)
	if err != nil || n != 10 || len(p.Data) != 4 {
		t.Errorf("got %+v, %d, %v", p, n, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		b    []byte
		want error
	}{
		{[]byte{0x00, 0x00, 0x01}, ErrTruncated},
		{[]byte{0x00, 0x01, 0x01, 0xbd, 0x00, 0x00}, ErrStartCode},
		{[]byte{0x00, 0x00, 0x01, 0xbd, 0x00, 0x10, 0x81}, ErrTruncated},
		{[]byte{0x00, 0x00, 0x01, 0xbd, 0x00, 0x03, 0x81, 0x80, 0x05}, ErrTruncated},
	}
	for i, test := range tests {
		_, _, err := Parse(test.b)
		if errors.Cause(err) != test.want {
			t.Errorf("test %d: got error %v, want %v", i, err, test.want)
		}
	}
}

func TestSIDToName(t *testing.T) {
	name, err := SIDToName(Private1SID)
	if err != nil || name != "private stream 1" {
		t.Errorf("got %q, %v", name, err)
	}
	if _, err := SIDToName(0x01); err == nil {
		t.Error("expected error for slice start code")
	}
	if !IsSubpicture(0x3f) || IsSubpicture(0x80) {
		t.Error("unexpected sub-picture classification")
	}
}
