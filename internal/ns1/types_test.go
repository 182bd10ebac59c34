package ns1_test

import (
	"testing"
	"time"

	"github.com/banshee-data/ns1kit/internal/ns1"
)

func TestFiletimeToUnix(t *testing.T) {
	tests := []struct {
		ft   int64
		want int64
	}{
		{128930364000000000, 1248562800},
		{128900544000000000, 1245580800},
		{116444736000000000, 0},
		{116444736009999999, 0},
		{116444736010000000, 1},
	}
	for _, tc := range tests {
		if got := ns1.FiletimeToUnix(tc.ft); got != tc.want {
			t.Errorf("FiletimeToUnix(%d) = %d, want %d", tc.ft, got, tc.want)
		}
	}
}

func TestFiletimeToTime(t *testing.T) {
	got := ns1.FiletimeToTime(128930364000000123)
	want := time.Date(2009, time.July, 25, 23, 0, 0, 12300, time.UTC)
	if !got.Equal(want) {
		t.Errorf("FiletimeToTime = %v, want %v", got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", got.Location())
	}
}

func TestIPv4(t *testing.T) {
	if got := ns1.IPv4(0x0101a8c0).String(); got != "192.168.1.1" {
		t.Errorf("IPv4 = %s, want 192.168.1.1", got)
	}
	if got := ns1.IPv4(0).String(); got != "0.0.0.0" {
		t.Errorf("IPv4(0) = %s, want 0.0.0.0", got)
	}
}

func TestLocationSourceString(t *testing.T) {
	if ns1.LocationNone.String() != "none" || ns1.LocationGPS.String() != "gps" {
		t.Errorf("unexpected names %q %q", ns1.LocationNone, ns1.LocationGPS)
	}
	if got := ns1.LocationSource(9).String(); got != "LocationSource(9)" {
		t.Errorf("String() = %q", got)
	}
}

func TestNetworkTimes(t *testing.T) {
	n := ns1.Network{FirstSeen: 128930364000000000, LastSeen: 128930364600000000}
	if got := n.FirstSeenTime().Unix(); got != 1248562800 {
		t.Errorf("FirstSeenTime = %d", got)
	}
	if got := n.LastSeenTime().Sub(n.FirstSeenTime()); got != time.Minute {
		t.Errorf("seen for %v, want 1m", got)
	}
	s := ns1.Sample{Timestamp: 128930364000000000}
	if got := s.Time().Unix(); got != 1248562800 {
		t.Errorf("Sample.Time = %d", got)
	}
}
