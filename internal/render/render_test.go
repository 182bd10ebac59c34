package render_test

import "github.com/banshee-data/ns1kit/internal/ns1"

const (
	ft2300   = int64(128930364000000000) // 2009-07-25 23:00:00 UTC
	ft230010 = ft2300 + 10*10000000
)

func fixtureCapture() *ns1.Capture {
	return &ns1.Capture{
		Signature:        ns1.MAGIC,
		Version:          12,
		DeclaredNetworks: 2,
		Networks: []ns1.Network{
			{
				SSID:           "linksys",
				BSSID:          ns1.MAC{0x00, 0x0c, 0x41, 0xaa, 0xbb, 0xcc},
				Signal:         ns1.Range{Min: -90, Max: -50},
				Noise:          ns1.Range{Min: -98, Max: -92},
				MaxSNR:         40,
				ChannelMask:    0x40,
				Flags:          0x11,
				BeaconInterval: 100,
				FirstSeen:      ft2300,
				LastSeen:       ft230010,
				Latitude:       37.5,
				Longitude:      -122.25,
				Name:           "ap1",
				IPAddr:         0x0101a8c0,
				IPNetwork:      0x0001a8c0,
				IPNetmask:      0x00ffffff,
				DataRate:       540,
				Samples: []ns1.Sample{
					{Timestamp: ft2300, Signal: -60, Noise: -95, Source: ns1.LocationNone},
					{
						Timestamp: ft230010, Signal: -55, Noise: -95,
						Source: ns1.LocationGPS, RawSource: 1,
						GPS: &ns1.GPSFix{
							Latitude: -33.75, Longitude: 151.125, Altitude: 12.5,
							Satellites: 7, Speed: 1.5, Track: 270, MagVariation: -12.25, HDOP: 0.9,
						},
					},
				},
			},
			{
				SSID:  "bob's net",
				BSSID: ns1.MAC{0x02, 0, 0, 0, 0, 0x01},
				Samples: []ns1.Sample{
					{Timestamp: ft2300, Signal: -80, Noise: -95},
				},
			},
		},
	}
}
