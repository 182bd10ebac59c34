package render

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ns1kit/internal/ns1"
	"github.com/banshee-data/ns1kit/internal/units"
)

// NetworkSummary holds per-network statistics over its samples.
type NetworkSummary struct {
	SSID      string
	BSSID     ns1.MAC
	Samples   int
	GPSFixes  int
	SignalMin float64
	SignalMax float64
	// SignalMean and SignalStdDev are zero without samples; the standard
	// deviation is also zero for a single sample.
	SignalMean   float64
	SignalStdDev float64
	BestSNR      int32
	FirstSeen    time.Time
	LastSeen     time.Time
}

// SummaryOptions controls the summary table.
type SummaryOptions struct {
	// Timezone for first and last seen times. Empty means UTC.
	Timezone string
}

// Summarize computes one NetworkSummary per network, in capture order.
func Summarize(c *ns1.Capture) []NetworkSummary {
	out := make([]NetworkSummary, 0, len(c.Networks))
	for i := range c.Networks {
		n := &c.Networks[i]
		s := NetworkSummary{
			SSID:     n.SSID,
			BSSID:    n.BSSID,
			Samples:  len(n.Samples),
			GPSFixes: n.GPSSampleCount(),
		}
		if n.FirstSeen != 0 {
			s.FirstSeen = n.FirstSeenTime()
		}
		if n.LastSeen != 0 {
			s.LastSeen = n.LastSeenTime()
		}
		if len(n.Samples) > 0 {
			sig := make([]float64, len(n.Samples))
			s.BestSNR = units.SNR(n.Samples[0].Signal, n.Samples[0].Noise)
			for j, smp := range n.Samples {
				sig[j] = float64(smp.Signal)
				s.BestSNR = max(s.BestSNR, units.SNR(smp.Signal, smp.Noise))
			}
			s.SignalMin = floats.Min(sig)
			s.SignalMax = floats.Max(sig)
			if len(sig) == 1 {
				s.SignalMean = sig[0]
			} else {
				s.SignalMean, s.SignalStdDev = stat.MeanStdDev(sig, nil)
			}
		}
		out = append(out, s)
	}
	return out
}

// WriteSummary writes summaries as an aligned table.
func WriteSummary(w io.Writer, summaries []NetworkSummary, opts SummaryOptions) error {
	if _, err := units.LoadTimezone(opts.Timezone); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SSID\tBSSID\tSAMPLES\tGPS\tMIN\tMAX\tMEAN\tSTDDEV\tSNR\tFIRST SEEN\tLAST SEEN")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.0f\t%.0f\t%.1f\t%.1f\t%d\t%s\t%s\n",
			s.SSID, s.BSSID, s.Samples, s.GPSFixes,
			s.SignalMin, s.SignalMax, s.SignalMean, s.SignalStdDev, s.BestSNR,
			formatSeen(s.FirstSeen, opts.Timezone), formatSeen(s.LastSeen, opts.Timezone))
	}
	return tw.Flush()
}

func formatSeen(t time.Time, tz string) string {
	if t.IsZero() {
		return "-"
	}
	local, err := units.ConvertTime(t, tz)
	if err != nil {
		return t.UTC().Format(time.RFC3339)
	}
	return local.Format(time.RFC3339)
}
