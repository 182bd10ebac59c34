// Package ns1 decodes NetStumbler .ns1 capture files.
//
// A capture is a preamble (signature, version, network count) followed by
// one record per detected network. Each network record carries zero or more
// signal samples, and later format versions append further fields to the
// network record. Versions 1 through 12 are supported; the layout each one
// uses is described in layout.go.
package ns1

import (
	"fmt"
	"net/netip"
	"time"
)

// Preamble constants
const (
	MAGIC       = 0x5374654e // "NetS" little-endian
	MaxVersion  = 12
	MinVersion  = 1
	GPS_SIZE    = 60 // lat, lon, alt, sats, speed, track, magvar, hdop
	SAMPLE_SIZE = 20 // timestamp, signal, noise, location source

	// MinAltitude is the lowest altitude kept as reported; anything below is
	// a receiver sentinel and is stored as 0.
	MinAltitude = -1000.0

	// filetimeUnixOffset is 1970-01-01 expressed in 100ns ticks since 1601-01-01.
	filetimeUnixOffset  = 116444736000000000
	filetimeTicksPerSec = 10000000
)

// Capture is a fully decoded .ns1 file.
type Capture struct {
	Signature uint32
	Version   uint32
	// DeclaredNetworks is the count from the preamble. It is larger than
	// len(Networks) only when the stream ended cleanly between records.
	DeclaredNetworks uint32
	Networks         []Network
}

// SampleCount returns the total number of samples across all networks.
func (c *Capture) SampleCount() int {
	n := 0
	for i := range c.Networks {
		n += len(c.Networks[i].Samples)
	}
	return n
}

// MAC is a 6-byte hardware address in on-disk order.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Range holds a min/max pair of dBm readings.
type Range struct {
	Min int32
	Max int32
}

// Network is one detected access point.
type Network struct {
	SSID           string
	BSSID          MAC
	Signal         Range // Max from v1, Min from v9
	Noise          Range // Min from v1, Max from v9
	MaxSNR         int32
	ChannelMask    uint64 // 32-bit in v6, 64-bit from v7
	Flags          uint32
	BeaconInterval int32

	// v2+
	FirstSeen int64 // FILETIME
	LastSeen  int64 // FILETIME
	Latitude  float64
	Longitude float64
	Samples   []Sample
	Name      string // user annotation

	// v7+
	IPAddr uint32

	// v9+
	DataRate  uint32
	IPNetwork uint32
	IPNetmask uint32

	// v12
	MiscFlags uint32
	// IEData holds the raw information elements when the decoder was asked
	// to retain them. Nil otherwise.
	IEData []byte
}

// FirstSeenTime converts FirstSeen to UTC.
func (n *Network) FirstSeenTime() time.Time { return FiletimeToTime(n.FirstSeen) }

// LastSeenTime converts LastSeen to UTC.
func (n *Network) LastSeenTime() time.Time { return FiletimeToTime(n.LastSeen) }

// GPSSampleCount returns how many samples carry a position fix.
func (n *Network) GPSSampleCount() int {
	c := 0
	for i := range n.Samples {
		if n.Samples[i].GPS != nil {
			c++
		}
	}
	return c
}

// LocationSource says where a sample's position came from.
type LocationSource uint8

const (
	LocationNone LocationSource = iota
	LocationGPS
)

func (s LocationSource) String() string {
	switch s {
	case LocationNone:
		return "none"
	case LocationGPS:
		return "gps"
	default:
		return fmt.Sprintf("LocationSource(%d)", uint8(s))
	}
}

// Sample is one signal reading for a network.
type Sample struct {
	Timestamp int64 // FILETIME
	Signal    int32
	Noise     int32
	Source    LocationSource
	RawSource uint32  // discriminant as stored
	GPS       *GPSFix // non-nil iff Source == LocationGPS
}

// Time converts Timestamp to UTC.
func (s *Sample) Time() time.Time { return FiletimeToTime(s.Timestamp) }

// GPSFix is the position block attached to GPS samples.
type GPSFix struct {
	Latitude     float64
	Longitude    float64
	Altitude     float64
	Satellites   uint32
	Speed        float64
	Track        float64
	MagVariation float64
	HDOP         float64
}

// FiletimeToUnix converts a Windows FILETIME to Unix seconds, truncating.
func FiletimeToUnix(ft int64) int64 {
	return (ft - filetimeUnixOffset) / filetimeTicksPerSec
}

// FiletimeToTime converts a Windows FILETIME to a UTC time with 100ns
// precision.
func FiletimeToTime(ft int64) time.Time {
	d := ft - filetimeUnixOffset
	sec := d / filetimeTicksPerSec
	rem := d % filetimeTicksPerSec
	return time.Unix(sec, rem*100).UTC()
}

// IPv4 interprets a stored address field; the low byte is the first octet.
func IPv4(v uint32) netip.Addr {
	return netip.AddrFrom4([4]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}
