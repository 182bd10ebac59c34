package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ns1kit/internal/ns1"
)

// DefaultChartNetworks caps the number of series on a signal chart.
const DefaultChartNetworks = 10

// ChartOptions controls the HTML signal chart.
type ChartOptions struct {
	Title       string
	MaxNetworks int // <= 0 means DefaultChartNetworks
	AssetsHost  string
}

// WriteSignalChart renders an HTML line chart of signal over time, one
// series per network, busiest networks first.
func WriteSignalChart(w io.Writer, c *ns1.Capture, o ChartOptions) error {
	if o.Title == "" {
		o.Title = "Signal strength"
	}
	limit := o.MaxNetworks
	if limit <= 0 {
		limit = DefaultChartNetworks
	}

	networks := chartNetworks(c, limit)

	line := charts.NewLine()
	initOpts := opts.Initialization{PageTitle: o.Title, Width: "100%", Height: "720px"}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{
			Title:    o.Title,
			Subtitle: fmt.Sprintf("version=%d networks=%d shown=%d samples=%d", c.Version, len(c.Networks), len(networks), c.SampleCount()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time", Name: "Time", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Signal (dBm)", NameLocation: "middle", NameGap: 40}),
	)

	for _, n := range networks {
		data := make([]opts.LineData, 0, len(n.Samples))
		for _, s := range n.Samples {
			data = append(data, opts.LineData{Value: []interface{}{s.Time().UnixMilli(), s.Signal}})
		}
		line.AddSeries(seriesName(n), data)
	}

	return line.Render(w)
}

// chartNetworks returns up to limit networks with samples, ordered by sample
// count descending. Ties keep capture order.
func chartNetworks(c *ns1.Capture, limit int) []*ns1.Network {
	var out []*ns1.Network
	for i := range c.Networks {
		if len(c.Networks[i].Samples) > 0 {
			out = append(out, &c.Networks[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Samples) > len(out[j].Samples)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func seriesName(n *ns1.Network) string {
	if n.SSID == "" {
		return n.BSSID.String()
	}
	return fmt.Sprintf("%s (%s)", n.SSID, n.BSSID)
}
