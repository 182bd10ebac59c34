package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/banshee-data/ns1kit/internal/ns1"
)

// Default table names used by the SQL renderer.
const (
	DefaultNetworkTable = "apinfo"
	DefaultSampleTable  = "apdata"
)

// NetworkColumns is the fixed column order of network INSERTs.
var NetworkColumns = []string{
	"iuin", "ssid", "bssid", "name", "flags", "beacon_interval",
	"signal_min", "signal_max", "noise_min", "noise_max", "max_snr",
	"first_seen", "last_seen", "latitude", "longitude", "channel_mask",
	"ip_addr", "ip_network", "ip_netmask", "data_rate", "misc_flags",
}

// SampleColumns is the fixed column order of sample INSERTs.
var SampleColumns = []string{
	"duin", "iuin", "timestamp", "signal", "noise", "location_source",
	"latitude", "longitude", "altitude", "sats", "speed", "track",
	"mag_variation", "hdop",
}

var identifierRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLOptions controls the SQL renderer.
type SQLOptions struct {
	NetworkTable string // default apinfo
	SampleTable  string // default apdata
	// FirstNetworkID and FirstSampleID seed the iuin/duin relation ids so
	// several captures can be loaded into the same tables. Zero means 1.
	FirstNetworkID int64
	FirstSampleID  int64
}

func (o SQLOptions) withDefaults() (SQLOptions, error) {
	if o.NetworkTable == "" {
		o.NetworkTable = DefaultNetworkTable
	}
	if o.SampleTable == "" {
		o.SampleTable = DefaultSampleTable
	}
	if o.FirstNetworkID == 0 {
		o.FirstNetworkID = 1
	}
	if o.FirstSampleID == 0 {
		o.FirstSampleID = 1
	}
	for _, name := range []string{o.NetworkTable, o.SampleTable} {
		if !identifierRE.MatchString(name) {
			return o, fmt.Errorf("invalid table name %q", name)
		}
	}
	return o, nil
}

// WriteSQL writes one INSERT per network followed by one INSERT per sample
// of that network.
func WriteSQL(w io.Writer, c *ns1.Capture, opts SQLOptions) error {
	opts, err := opts.withDefaults()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	netCols := strings.Join(NetworkColumns, ", ")
	sampleCols := strings.Join(SampleColumns, ", ")

	iuin := opts.FirstNetworkID
	duin := opts.FirstSampleID
	for i := range c.Networks {
		n := &c.Networks[i]
		fmt.Fprintf(bw, "INSERT INTO %s (%s) VALUES (%s);\n", opts.NetworkTable, netCols, strings.Join(networkValues(iuin, n), ", "))
		for j := range n.Samples {
			fmt.Fprintf(bw, "INSERT INTO %s (%s) VALUES (%s);\n", opts.SampleTable, sampleCols, strings.Join(sampleValues(duin, iuin, &n.Samples[j]), ", "))
			duin++
		}
		iuin++
	}
	return bw.Flush()
}

// SchemaSQL returns CREATE TABLE statements matching WriteSQL output.
func SchemaSQL(opts SQLOptions) (string, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	iuin            INTEGER PRIMARY KEY,
	ssid            TEXT,
	bssid           TEXT,
	name            TEXT,
	flags           INTEGER,
	beacon_interval INTEGER,
	signal_min      INTEGER,
	signal_max      INTEGER,
	noise_min       INTEGER,
	noise_max       INTEGER,
	max_snr         INTEGER,
	first_seen      INTEGER,
	last_seen       INTEGER,
	latitude        DOUBLE,
	longitude       DOUBLE,
	channel_mask    BIGINT,
	ip_addr         TEXT,
	ip_network      TEXT,
	ip_netmask      TEXT,
	data_rate       INTEGER,
	misc_flags      INTEGER
);
CREATE TABLE IF NOT EXISTS %s (
	duin            INTEGER PRIMARY KEY,
	iuin            INTEGER REFERENCES %s(iuin),
	timestamp       INTEGER,
	signal          INTEGER,
	noise           INTEGER,
	location_source TEXT,
	latitude        DOUBLE,
	longitude       DOUBLE,
	altitude        DOUBLE,
	sats            INTEGER,
	speed           DOUBLE,
	track           DOUBLE,
	mag_variation   DOUBLE,
	hdop            DOUBLE
);
`, opts.NetworkTable, opts.SampleTable, opts.NetworkTable), nil
}

func networkValues(iuin int64, n *ns1.Network) []string {
	return []string{
		strconv.FormatInt(iuin, 10),
		sqlString(n.SSID),
		sqlString(n.BSSID.String()),
		sqlString(n.Name),
		strconv.FormatUint(uint64(n.Flags), 10),
		strconv.FormatInt(int64(n.BeaconInterval), 10),
		strconv.FormatInt(int64(n.Signal.Min), 10),
		strconv.FormatInt(int64(n.Signal.Max), 10),
		strconv.FormatInt(int64(n.Noise.Min), 10),
		strconv.FormatInt(int64(n.Noise.Max), 10),
		strconv.FormatInt(int64(n.MaxSNR), 10),
		sqlTimestamp(n.FirstSeen),
		sqlTimestamp(n.LastSeen),
		sqlFloat(n.Latitude),
		sqlFloat(n.Longitude),
		strconv.FormatUint(n.ChannelMask, 10),
		sqlString(ns1.IPv4(n.IPAddr).String()),
		sqlString(ns1.IPv4(n.IPNetwork).String()),
		sqlString(ns1.IPv4(n.IPNetmask).String()),
		strconv.FormatUint(uint64(n.DataRate), 10),
		strconv.FormatUint(uint64(n.MiscFlags), 10),
	}
}

func sampleValues(duin, iuin int64, s *ns1.Sample) []string {
	vals := []string{
		strconv.FormatInt(duin, 10),
		strconv.FormatInt(iuin, 10),
		sqlTimestamp(s.Timestamp),
		strconv.FormatInt(int64(s.Signal), 10),
		strconv.FormatInt(int64(s.Noise), 10),
		sqlString(s.Source.String()),
	}
	if s.GPS == nil {
		for range SampleColumns[len(vals):] {
			vals = append(vals, "NULL")
		}
		return vals
	}
	g := s.GPS
	return append(vals,
		sqlFloat(g.Latitude),
		sqlFloat(g.Longitude),
		sqlFloat(g.Altitude),
		strconv.FormatUint(uint64(g.Satellites), 10),
		sqlFloat(g.Speed),
		sqlFloat(g.Track),
		sqlFloat(g.MagVariation),
		sqlFloat(g.HDOP),
	)
}

func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func sqlFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "NULL"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// sqlTimestamp renders a FILETIME as Unix seconds; an unset time is NULL.
func sqlTimestamp(ft int64) string {
	if ft == 0 {
		return "NULL"
	}
	return strconv.FormatInt(ns1.FiletimeToUnix(ft), 10)
}
