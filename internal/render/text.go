// Package render turns decoded captures into text, SQL, charts and
// summaries. Every renderer is a pure function of the capture.
package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/banshee-data/ns1kit/internal/ns1"
	"github.com/banshee-data/ns1kit/internal/units"
)

const (
	wiScanCreator = "# $Creator: Network Stumbler Version 0.3.23 Compatible Format"
	wiScanFormat  = "# $Format: wi-scan with extensions"
	wiScanColumns = "# Latitude\tLongitude\t( SSID )\tType\t( BSSID )\tTime (GMT)\t[ SNR Sig Noise ]\t# ( Name )\tFlags\tChannelbits\tBcnIntvl"
)

// TextOptions controls the wi-scan text renderer.
type TextOptions struct {
	// Timezone for times of day. Empty means UTC, printed as GMT.
	Timezone string
}

// WriteText writes c in wi-scan text format: a comment header and one line
// per sample.
func WriteText(w io.Writer, c *ns1.Capture, opts TextOptions) error {
	loc, err := units.LoadTimezone(opts.Timezone)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, wiScanCreator)
	fmt.Fprintln(bw, wiScanFormat)
	fmt.Fprintln(bw, wiScanColumns)
	if len(c.Networks) > 0 && c.Networks[0].LastSeen != 0 {
		date := c.Networks[0].LastSeenTime()
		fmt.Fprintf(bw, "# $DateGMT: %s\n", date.Format("2006-01-02"))
	}

	for i := range c.Networks {
		n := &c.Networks[i]
		for j := range n.Samples {
			writeTextLine(bw, n, &n.Samples[j], loc)
		}
	}
	return bw.Flush()
}

func writeTextLine(w io.Writer, n *ns1.Network, s *ns1.Sample, loc *time.Location) {
	lat, lon := n.Latitude, n.Longitude
	if s.GPS != nil {
		lat, lon = s.GPS.Latitude, s.GPS.Longitude
	}

	t := s.Time().In(loc)

	fmt.Fprintf(w, "%c %f\t%c %f\t", hemisphere(lat, 'N', 'S'), math.Abs(lat), hemisphere(lon, 'E', 'W'), math.Abs(lon))
	fmt.Fprintf(w, "( %s )\t", n.SSID)
	fmt.Fprint(w, "BBS\t")
	fmt.Fprintf(w, "( %s )\t", n.BSSID)
	fmt.Fprintf(w, "%d:%02d:%02d (%s)\t", t.Hour(), t.Minute(), t.Second(), units.ZoneLabel(t))
	fmt.Fprintf(w, "%d %d %d\t", 0, units.WiScanLevel(s.Signal), units.WiScanLevel(s.Noise))
	fmt.Fprintf(w, "# ( %s )\t", n.Name)
	fmt.Fprintf(w, "%04x\t%04x\t%d\n", n.Flags, n.ChannelMask, n.BeaconInterval)
}

func hemisphere(v float64, pos, neg rune) rune {
	if v >= 0 {
		return pos
	}
	return neg
}
