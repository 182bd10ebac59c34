package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ns1kit/internal/monitoring"
	"github.com/banshee-data/ns1kit/internal/ns1"
)

// ErrCaptureNotFound is returned when a capture id is unknown.
var ErrCaptureNotFound = errors.New("capture not found")

// CaptureRecord is one imported capture.
type CaptureRecord struct {
	ID               string    `json:"capture_id"`
	Source           string    `json:"source"`
	Version          uint32    `json:"version"`
	DeclaredNetworks uint32    `json:"declared_networks"`
	NetworkCount     int       `json:"network_count"`
	SampleCount      int       `json:"sample_count"`
	ImportedAt       time.Time `json:"imported_at"`
}

// NetworkRecord is one stored network. Times are nil when the capture left
// them unset.
type NetworkRecord struct {
	ID             int64      `json:"network_id"`
	CaptureID      string     `json:"capture_id"`
	Ordinal        int        `json:"ordinal"`
	SSID           string     `json:"ssid"`
	BSSID          string     `json:"bssid"`
	Name           string     `json:"name"`
	Flags          uint32     `json:"flags"`
	BeaconInterval int32      `json:"beacon_interval"`
	SignalMin      int32      `json:"signal_min"`
	SignalMax      int32      `json:"signal_max"`
	NoiseMin       int32      `json:"noise_min"`
	NoiseMax       int32      `json:"noise_max"`
	MaxSNR         int32      `json:"max_snr"`
	FirstSeen      *time.Time `json:"first_seen,omitempty"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	ChannelMask    uint64     `json:"channel_mask"`
	IPAddr         string     `json:"ip_addr"`
	IPNetwork      string     `json:"ip_network"`
	IPNetmask      string     `json:"ip_netmask"`
	DataRate       uint32     `json:"data_rate"`
	MiscFlags      uint32     `json:"misc_flags"`
	SampleCount    int        `json:"sample_count"`

	// InformationElements is decoded from the stored version 12 blob.
	InformationElements []ns1.InformationElement `json:"information_elements,omitempty"`
}

// SampleRecord is one stored sample.
type SampleRecord struct {
	ID        int64       `json:"sample_id"`
	NetworkID int64       `json:"network_id"`
	Ordinal   int         `json:"ordinal"`
	Time      time.Time   `json:"time"`
	Signal    int32       `json:"signal"`
	Noise     int32       `json:"noise"`
	Source    string      `json:"location_source"`
	GPS       *ns1.GPSFix `json:"gps,omitempty"`
}

// ImportCapture stores c in a single transaction and returns the new
// capture id. source names where the capture came from, usually a path.
func (db *DB) ImportCapture(ctx context.Context, source string, c *ns1.Capture) (string, error) {
	id := uuid.NewString()
	importedAt := db.clock.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO captures (
			capture_id, source, signature, version, declared_networks,
			network_count, sample_count, imported_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, source, c.Signature, c.Version, c.DeclaredNetworks,
		len(c.Networks), c.SampleCount(), importedAt.Unix(),
	); err != nil {
		return "", fmt.Errorf("failed to insert capture: %w", err)
	}

	netStmt, err := tx.PrepareContext(ctx, `INSERT INTO networks (
			capture_id, ordinal, ssid, bssid, name, flags, beacon_interval,
			signal_min, signal_max, noise_min, noise_max, max_snr,
			first_seen_ft, last_seen_ft, latitude, longitude, channel_mask,
			ip_addr, ip_network, ip_netmask, data_rate, misc_flags, ie_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare network insert: %w", err)
	}
	defer netStmt.Close()

	sampleStmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (
			network_id, ordinal, timestamp_ft, signal, noise, location_source,
			latitude, longitude, altitude, satellites, speed, track,
			mag_variation, hdop
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer sampleStmt.Close()

	for i := range c.Networks {
		n := &c.Networks[i]
		res, err := netStmt.ExecContext(ctx,
			id, i, n.SSID, n.BSSID.String(), n.Name, n.Flags, n.BeaconInterval,
			n.Signal.Min, n.Signal.Max, n.Noise.Min, n.Noise.Max, n.MaxSNR,
			n.FirstSeen, n.LastSeen, n.Latitude, n.Longitude, int64(n.ChannelMask),
			n.IPAddr, n.IPNetwork, n.IPNetmask, n.DataRate, n.MiscFlags, n.IEData,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert network %d: %w", i, err)
		}
		networkID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to read network id: %w", err)
		}

		for j := range n.Samples {
			if _, err := sampleStmt.ExecContext(ctx, sampleArgs(networkID, j, &n.Samples[j])...); err != nil {
				return "", fmt.Errorf("failed to insert network %d sample %d: %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import: %w", err)
	}
	monitoring.Logf("imported capture %s from %s: %d networks, %d samples", id, source, len(c.Networks), c.SampleCount())
	return id, nil
}

func sampleArgs(networkID int64, ordinal int, s *ns1.Sample) []interface{} {
	args := []interface{}{networkID, ordinal, s.Timestamp, s.Signal, s.Noise, s.RawSource}
	if s.GPS == nil {
		return append(args, nil, nil, nil, nil, nil, nil, nil, nil)
	}
	g := s.GPS
	return append(args, g.Latitude, g.Longitude, g.Altitude, g.Satellites, g.Speed, g.Track, g.MagVariation, g.HDOP)
}

// Captures lists imported captures, most recent first.
func (db *DB) Captures(ctx context.Context) ([]CaptureRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT capture_id, source, version, declared_networks,
			network_count, sample_count, imported_at
		FROM captures ORDER BY imported_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CaptureRecord
	for rows.Next() {
		var (
			r          CaptureRecord
			importedAt int64
		)
		if err := rows.Scan(&r.ID, &r.Source, &r.Version, &r.DeclaredNetworks,
			&r.NetworkCount, &r.SampleCount, &importedAt); err != nil {
			return nil, err
		}
		r.ImportedAt = time.Unix(importedAt, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

const networkColumns = `n.network_id, n.capture_id, n.ordinal, n.ssid, n.bssid, n.name,
	n.flags, n.beacon_interval, n.signal_min, n.signal_max, n.noise_min,
	n.noise_max, n.max_snr, n.first_seen_ft, n.last_seen_ft, n.latitude,
	n.longitude, n.channel_mask, n.ip_addr, n.ip_network, n.ip_netmask,
	n.data_rate, n.misc_flags, n.ie_data`

// storedNetwork is a networks row before conversion.
type storedNetwork struct {
	id        int64
	captureID string
	ordinal   int
	bssid     string
	n         ns1.Network
}

// scanNetwork scans networkColumns followed by any extra destinations.
func scanNetwork(rows *sql.Rows, extra ...interface{}) (storedNetwork, error) {
	var (
		s        storedNetwork
		mask     int64
		lat, lon sql.NullFloat64
	)
	dest := []interface{}{&s.id, &s.captureID, &s.ordinal, &s.n.SSID, &s.bssid, &s.n.Name,
		&s.n.Flags, &s.n.BeaconInterval, &s.n.Signal.Min, &s.n.Signal.Max, &s.n.Noise.Min,
		&s.n.Noise.Max, &s.n.MaxSNR, &s.n.FirstSeen, &s.n.LastSeen, &lat,
		&lon, &mask, &s.n.IPAddr, &s.n.IPNetwork, &s.n.IPNetmask,
		&s.n.DataRate, &s.n.MiscFlags, &s.n.IEData}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return s, err
	}
	s.n.Latitude = floatOrNaN(lat)
	s.n.Longitude = floatOrNaN(lon)
	s.n.ChannelMask = uint64(mask)
	if len(s.n.IEData) == 0 {
		s.n.IEData = nil
	}
	var err error
	s.n.BSSID, err = parseMAC(s.bssid)
	return s, err
}

// floatOrNaN undoes SQLite storing NaN as NULL.
func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

// Networks lists the networks of a capture in capture order.
func (db *DB) Networks(ctx context.Context, captureID string) ([]NetworkRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+networkColumns+`,
			(SELECT COUNT(*) FROM samples s WHERE s.network_id = n.network_id)
		FROM networks n WHERE n.capture_id = ? ORDER BY n.ordinal`, captureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NetworkRecord
	for rows.Next() {
		var count int
		sn, err := scanNetwork(rows, &count)
		if err != nil {
			return nil, err
		}
		out = append(out, networkRecord(sn, count))
	}
	return out, rows.Err()
}

func networkRecord(s storedNetwork, sampleCount int) NetworkRecord {
	n := &s.n
	r := NetworkRecord{
		ID:             s.id,
		CaptureID:      s.captureID,
		Ordinal:        s.ordinal,
		SSID:           n.SSID,
		BSSID:          s.bssid,
		Name:           n.Name,
		Flags:          n.Flags,
		BeaconInterval: n.BeaconInterval,
		SignalMin:      n.Signal.Min,
		SignalMax:      n.Signal.Max,
		NoiseMin:       n.Noise.Min,
		NoiseMax:       n.Noise.Max,
		MaxSNR:         n.MaxSNR,
		Latitude:       n.Latitude,
		Longitude:      n.Longitude,
		ChannelMask:    n.ChannelMask,
		IPAddr:         ns1.IPv4(n.IPAddr).String(),
		IPNetwork:      ns1.IPv4(n.IPNetwork).String(),
		IPNetmask:      ns1.IPv4(n.IPNetmask).String(),
		DataRate:       n.DataRate,
		MiscFlags:      n.MiscFlags,
		SampleCount:    sampleCount,
	}
	if n.FirstSeen != 0 {
		t := n.FirstSeenTime()
		r.FirstSeen = &t
	}
	if n.LastSeen != 0 {
		t := n.LastSeenTime()
		r.LastSeen = &t
	}
	if len(n.IEData) > 0 {
		elems, err := n.InformationElements()
		if err != nil {
			monitoring.Logf("network %d: %v", s.id, err)
		}
		r.InformationElements = elems
	}
	return r
}

// Samples lists the samples of a network in capture order.
func (db *DB) Samples(ctx context.Context, networkID int64) ([]SampleRecord, error) {
	samples, ids, err := db.loadSamples(ctx, networkID)
	if err != nil {
		return nil, err
	}
	out := make([]SampleRecord, 0, len(samples))
	for i, s := range samples {
		out = append(out, SampleRecord{
			ID:        ids[i],
			NetworkID: networkID,
			Ordinal:   i,
			Time:      s.Time(),
			Signal:    s.Signal,
			Noise:     s.Noise,
			Source:    s.Source.String(),
			GPS:       s.GPS,
		})
	}
	return out, nil
}

func (db *DB) loadSamples(ctx context.Context, networkID int64) ([]ns1.Sample, []int64, error) {
	rows, err := db.QueryContext(ctx, `SELECT sample_id, timestamp_ft, signal, noise,
			location_source, latitude, longitude, altitude, satellites, speed,
			track, mag_variation, hdop
		FROM samples WHERE network_id = ? ORDER BY ordinal`, networkID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var (
		samples []ns1.Sample
		ids     []int64
	)
	for rows.Next() {
		var (
			id                                     int64
			s                                      ns1.Sample
			lat, lon, alt, speed, track, mag, hdop sql.NullFloat64
			sats                                   sql.NullInt64
		)
		if err := rows.Scan(&id, &s.Timestamp, &s.Signal, &s.Noise, &s.RawSource,
			&lat, &lon, &alt, &sats, &speed, &track, &mag, &hdop); err != nil {
			return nil, nil, err
		}
		if s.RawSource != 0 {
			s.Source = ns1.LocationGPS
			s.GPS = &ns1.GPSFix{
				Latitude:     floatOrNaN(lat),
				Longitude:    floatOrNaN(lon),
				Altitude:     floatOrNaN(alt),
				Satellites:   uint32(sats.Int64),
				Speed:        floatOrNaN(speed),
				Track:        floatOrNaN(track),
				MagVariation: floatOrNaN(mag),
				HDOP:         floatOrNaN(hdop),
			}
		}
		samples = append(samples, s)
		ids = append(ids, id)
	}
	return samples, ids, rows.Err()
}

// LoadCapture rebuilds a decoded capture from the store.
func (db *DB) LoadCapture(ctx context.Context, captureID string) (*ns1.Capture, error) {
	c := &ns1.Capture{}
	err := db.QueryRowContext(ctx,
		`SELECT signature, version, declared_networks FROM captures WHERE capture_id = ?`,
		captureID,
	).Scan(&c.Signature, &c.Version, &c.DeclaredNetworks)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCaptureNotFound, captureID)
	}
	if err != nil {
		return nil, err
	}

	// Network rows are drained before samples are queried.
	rows, err := db.QueryContext(ctx, `SELECT `+networkColumns+`
		FROM networks n WHERE n.capture_id = ? ORDER BY n.ordinal`, captureID)
	if err != nil {
		return nil, err
	}
	var stored []storedNetwork
	for rows.Next() {
		s, err := scanNetwork(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		stored = append(stored, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, s := range stored {
		s.n.Samples, _, err = db.loadSamples(ctx, s.id)
		if err != nil {
			return nil, fmt.Errorf("network %d: %w", s.ordinal, err)
		}
		c.Networks = append(c.Networks, s.n)
	}
	return c, nil
}

// DeleteCapture removes a capture with its networks and samples.
func (db *DB) DeleteCapture(ctx context.Context, captureID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM captures WHERE capture_id = ?`, captureID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrCaptureNotFound, captureID)
	}
	return nil
}

func parseMAC(s string) (ns1.MAC, error) {
	var m ns1.MAC
	if _, err := fmt.Sscanf(s, "%02x:%02x:%02x:%02x:%02x:%02x", &m[0], &m[1], &m[2], &m[3], &m[4], &m[5]); err != nil {
		return m, fmt.Errorf("invalid bssid %q: %w", s, err)
	}
	return m, nil
}
