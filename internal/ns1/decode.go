package ns1

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/ns1kit/internal/monitoring"
)

// Limits bound the storage a decoder will allocate for declared counts.
// A count above its limit fails the decode before anything is allocated.
type Limits struct {
	MaxNetworks int
	MaxSamples  int // per network
	MaxIELength int // only checked when IE data is retained
}

// DefaultLimits are generous enough for any real capture.
var DefaultLimits = Limits{
	MaxNetworks: 1 << 20,
	MaxSamples:  1 << 20,
	MaxIELength: 1 << 20,
}

const initialNetworkCap = 1024

// Option configures a Decoder.
type Option func(*Decoder)

// WithLimits replaces the default limits. Zero fields keep their default.
func WithLimits(l Limits) Option {
	return func(d *Decoder) {
		if l.MaxNetworks > 0 {
			d.limits.MaxNetworks = l.MaxNetworks
		}
		if l.MaxSamples > 0 {
			d.limits.MaxSamples = l.MaxSamples
		}
		if l.MaxIELength > 0 {
			d.limits.MaxIELength = l.MaxIELength
		}
	}
}

// WithRetainIE keeps the version 12 information element blob in
// Network.IEData instead of skipping it.
func WithRetainIE(retain bool) Option {
	return func(d *Decoder) {
		d.retainIE = retain
	}
}

// Decoder reads a single capture from a stream in one forward pass.
type Decoder struct {
	r        *Reader
	limits   Limits
	retainIE bool
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		r:      NewReader(r),
		limits: DefaultLimits,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads a whole capture from r.
func Decode(r io.Reader, opts ...Option) (*Capture, error) {
	return NewDecoder(r, opts...).Decode()
}

// DecodeFile opens path and decodes it.
func DecodeFile(path string, opts ...Option) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close()

	c, err := Decode(f, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads the preamble and every network record. Any failure aborts
// the whole capture; no partial result is returned.
func (d *Decoder) Decode() (*Capture, error) {
	c := &Capture{}
	count, ok, err := d.readPreamble(c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return c, nil
	}

	if uint64(count) > uint64(d.limits.MaxNetworks) {
		return nil, &LimitError{What: "network count", Declared: uint64(count), Limit: uint64(d.limits.MaxNetworks)}
	}
	c.DeclaredNetworks = count
	c.Networks = make([]Network, 0, min(int(count), initialNetworkCap))

	for i := 0; i < int(count); i++ {
		start := d.r.Offset()
		var n Network
		if err := d.decodeNetwork(c.Version, &n); err != nil {
			var sr *ShortReadError
			if errors.As(err, &sr) && sr.AtBoundary() && sr.Offset == start {
				monitoring.Logf("ns1: stream ended after %d of %d networks", i, count)
				break
			}
			return nil, wrapIndex("network", i, err)
		}
		monitoring.Debugf("%.4x: network %d %q %s, %d samples", start, i, n.SSID, n.BSSID, len(n.Samples))
		c.Networks = append(c.Networks, n)
	}
	return c, nil
}

// readPreamble validates the signature and version and returns the declared
// network count. ok is false when the count itself is missing, which is an
// empty capture rather than an error.
func (d *Decoder) readPreamble(c *Capture) (count uint32, ok bool, err error) {
	sig, err := d.r.ReadU32("signature")
	if err != nil {
		if errors.Is(err, ErrShortRead) {
			return 0, false, fmt.Errorf("%w: %v", ErrBadMagic, err)
		}
		return 0, false, err
	}
	if sig != MAGIC {
		return 0, false, fmt.Errorf("%w: signature %#08x", ErrBadMagic, sig)
	}
	c.Signature = sig

	version, err := d.r.ReadU32("version")
	if err != nil {
		return 0, false, err
	}
	if version < MinVersion || version > MaxVersion {
		return 0, false, &UnsupportedVersionError{Version: version}
	}
	c.Version = version

	count, err = d.r.ReadU32("network count")
	if err != nil {
		if errors.Is(err, ErrShortRead) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return count, true, nil
}

func (d *Decoder) decodeNetwork(version uint32, n *Network) error {
	for _, step := range networkLayout {
		if err := step.read(d, version, n); err != nil {
			return err
		}
		if version <= step.maxVersion {
			return nil
		}
	}
	return nil
}

func wrapIndex(what string, i int, err error) error {
	return fmt.Errorf("%s %d: %w", what, i, err)
}
