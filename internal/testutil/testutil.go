// Package testutil provides shared test utilities and fixtures.
//
// CaptureBuilder assembles .ns1 byte streams field by field so decoder,
// renderer and store tests can describe captures without binary fixtures
// checked into the tree.
package testutil

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/banshee-data/ns1kit/internal/ns1"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CaptureBuilder writes little-endian .ns1 primitives into a buffer.
type CaptureBuilder struct {
	buf bytes.Buffer
}

// NewCaptureBuilder returns an empty builder.
func NewCaptureBuilder() *CaptureBuilder {
	return &CaptureBuilder{}
}

func (b *CaptureBuilder) U32(v uint32) *CaptureBuilder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *CaptureBuilder) I32(v int32) *CaptureBuilder {
	return b.U32(uint32(v))
}

func (b *CaptureBuilder) U64(v uint64) *CaptureBuilder {
	_ = binary.Write(&b.buf, binary.LittleEndian, v)
	return b
}

func (b *CaptureBuilder) I64(v int64) *CaptureBuilder {
	return b.U64(uint64(v))
}

func (b *CaptureBuilder) F64(v float64) *CaptureBuilder {
	return b.U64(math.Float64bits(v))
}

// Str writes a length-prefixed string. Strings longer than 255 bytes are
// truncated, as the format cannot express them.
func (b *CaptureBuilder) Str(s string) *CaptureBuilder {
	if len(s) > 255 {
		s = s[:255]
	}
	b.buf.WriteByte(byte(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *CaptureBuilder) MAC(m ns1.MAC) *CaptureBuilder {
	b.buf.Write(m[:])
	return b
}

// Raw appends bytes verbatim.
func (b *CaptureBuilder) Raw(p ...byte) *CaptureBuilder {
	b.buf.Write(p)
	return b
}

// Preamble writes the signature, version and network count.
func (b *CaptureBuilder) Preamble(version, count uint32) *CaptureBuilder {
	return b.U32(ns1.MAGIC).U32(version).U32(count)
}

// Network writes n using the layout of the given version. Fields the
// version does not carry are not written.
func (b *CaptureBuilder) Network(version uint32, n ns1.Network) *CaptureBuilder {
	b.Str(n.SSID).MAC(n.BSSID).I32(n.Signal.Max).I32(n.Noise.Min).I32(n.MaxSNR)
	switch version {
	case 1:
		b.U32(0)
	case 6:
		b.U32(uint32(n.ChannelMask))
	}
	b.U32(n.Flags).I32(n.BeaconInterval)
	if version <= 1 {
		return b
	}

	b.I64(n.FirstSeen).I64(n.LastSeen).F64(n.Latitude).F64(n.Longitude)
	b.U32(uint32(len(n.Samples)))
	for _, s := range n.Samples {
		b.Sample(s)
	}
	b.Str(n.Name)
	if version <= 6 {
		return b
	}

	b.U64(n.ChannelMask).U32(0).U32(n.IPAddr)
	if version <= 8 {
		return b
	}

	b.I32(n.Signal.Min).I32(n.Noise.Max).U32(n.DataRate).U32(n.IPNetwork).U32(n.IPNetmask)
	if version <= 11 {
		return b
	}

	b.U32(n.MiscFlags).U32(uint32(len(n.IEData))).Raw(n.IEData...)
	return b
}

// Sample writes one sample. A GPS block is written when s.GPS is set; the
// discriminant is s.RawSource, or 1 if that is zero and a fix is present.
func (b *CaptureBuilder) Sample(s ns1.Sample) *CaptureBuilder {
	src := s.RawSource
	if src == 0 && s.GPS != nil {
		src = 1
	}
	b.I64(s.Timestamp).I32(s.Signal).I32(s.Noise).U32(src)
	if s.GPS != nil {
		g := s.GPS
		b.F64(g.Latitude).F64(g.Longitude).F64(g.Altitude).U32(g.Satellites)
		b.F64(g.Speed).F64(g.Track).F64(g.MagVariation).F64(g.HDOP)
	}
	return b
}

// Len returns the number of bytes written so far.
func (b *CaptureBuilder) Len() int {
	return b.buf.Len()
}

// Bytes returns a copy of the encoded stream.
func (b *CaptureBuilder) Bytes() []byte {
	return bytes.Clone(b.buf.Bytes())
}

// Reader returns a reader over a copy of the encoded stream.
func (b *CaptureBuilder) Reader() *bytes.Reader {
	return bytes.NewReader(b.Bytes())
}

// Capture encodes c (preamble and every network) into a new builder.
func Capture(c *ns1.Capture) *CaptureBuilder {
	b := NewCaptureBuilder().Preamble(c.Version, uint32(len(c.Networks)))
	for _, n := range c.Networks {
		b.Network(c.Version, n)
	}
	return b
}
