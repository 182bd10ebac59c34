package ns1

/*
NETWORK RECORD LAYOUT

Every version shares the head of the record and then appends field groups.
A version reads groups in order and stops after the first group whose
maxVersion is >= its own version:

	group        maxVersion  fields
	head         1           ssid, bssid, signal max, noise min, max snr,
	                         [v1: reserved u32 | v6: channel mask u32],
	                         flags, beacon interval
	observation  6           first seen, last seen, latitude, longitude,
	                         sample count, samples..., name
	addressing   8           channel mask u64, last channel u32 (discarded),
	                         ip address
	extended     11          signal min, noise max, data rate, ip network,
	                         ip netmask
	ie           12          misc flags, ie length u32, ie bytes

Versions 2-5 stop with v6, version 7 with v8 and versions 9-10 with v11.
No capture of those versions has been seen, so their cutoffs follow the
nearest documented version at or above them.

SAMPLE LAYOUT (all versions)

	timestamp u64, signal i32, noise i32, location source u32
	if location source != 0:
	    latitude f64, longitude f64, altitude f64, satellites u32,
	    speed f64, track f64, magnetic variation f64, hdop f64
*/

// initialSampleCap bounds the up-front allocation for a declared sample
// count; the slice grows as samples are actually read.
const initialSampleCap = 4096

type layoutStep struct {
	name       string
	maxVersion uint32
	read       func(d *Decoder, version uint32, n *Network) error
}

var networkLayout = []layoutStep{
	{name: "head", maxVersion: 1, read: (*Decoder).readHead},
	{name: "observation", maxVersion: 6, read: (*Decoder).readObservation},
	{name: "addressing", maxVersion: 8, read: (*Decoder).readAddressing},
	{name: "extended", maxVersion: 11, read: (*Decoder).readExtended},
	{name: "ie", maxVersion: MaxVersion, read: (*Decoder).readIE},
}

func (d *Decoder) readHead(version uint32, n *Network) error {
	var err error
	if n.SSID, err = d.r.ReadString("ssid"); err != nil {
		return err
	}
	if n.BSSID, err = d.r.ReadMAC("bssid"); err != nil {
		return err
	}
	if n.Signal.Max, err = d.r.ReadI32("signal max"); err != nil {
		return err
	}
	if n.Noise.Min, err = d.r.ReadI32("noise min"); err != nil {
		return err
	}
	if n.MaxSNR, err = d.r.ReadI32("max snr"); err != nil {
		return err
	}

	switch version {
	case 1:
		if _, err = d.r.ReadU32("reserved"); err != nil {
			return err
		}
	case 6:
		mask, err := d.r.ReadU32("channel mask")
		if err != nil {
			return err
		}
		n.ChannelMask = uint64(mask)
	}

	if n.Flags, err = d.r.ReadU32("flags"); err != nil {
		return err
	}
	if n.BeaconInterval, err = d.r.ReadI32("beacon interval"); err != nil {
		return err
	}
	return nil
}

func (d *Decoder) readObservation(version uint32, n *Network) error {
	var err error
	if n.FirstSeen, err = d.r.ReadI64("first seen"); err != nil {
		return err
	}
	if n.LastSeen, err = d.r.ReadI64("last seen"); err != nil {
		return err
	}
	if n.Latitude, err = d.r.ReadF64("latitude"); err != nil {
		return err
	}
	if n.Longitude, err = d.r.ReadF64("longitude"); err != nil {
		return err
	}

	count, err := d.r.ReadU32("sample count")
	if err != nil {
		return err
	}
	if uint64(count) > uint64(d.limits.MaxSamples) {
		return &LimitError{What: "sample count", Declared: uint64(count), Limit: uint64(d.limits.MaxSamples)}
	}
	if count > 0 {
		n.Samples = make([]Sample, 0, min(int(count), initialSampleCap))
	}
	for i := 0; i < int(count); i++ {
		var s Sample
		if err := d.readSample(version, &s); err != nil {
			return wrapIndex("sample", i, err)
		}
		n.Samples = append(n.Samples, s)
	}

	if n.Name, err = d.r.ReadString("name"); err != nil {
		return err
	}
	return nil
}

func (d *Decoder) readAddressing(_ uint32, n *Network) error {
	var err error
	if n.ChannelMask, err = d.r.ReadU64("channel mask"); err != nil {
		return err
	}
	if _, err = d.r.ReadU32("last channel"); err != nil {
		return err
	}
	if n.IPAddr, err = d.r.ReadU32("ip address"); err != nil {
		return err
	}
	return nil
}

func (d *Decoder) readExtended(_ uint32, n *Network) error {
	var err error
	if n.Signal.Min, err = d.r.ReadI32("signal min"); err != nil {
		return err
	}
	if n.Noise.Max, err = d.r.ReadI32("noise max"); err != nil {
		return err
	}
	if n.DataRate, err = d.r.ReadU32("data rate"); err != nil {
		return err
	}
	if n.IPNetwork, err = d.r.ReadU32("ip network"); err != nil {
		return err
	}
	if n.IPNetmask, err = d.r.ReadU32("ip netmask"); err != nil {
		return err
	}
	return nil
}

func (d *Decoder) readIE(_ uint32, n *Network) error {
	var err error
	if n.MiscFlags, err = d.r.ReadU32("misc flags"); err != nil {
		return err
	}
	length, err := d.r.ReadU32("ie length")
	if err != nil {
		return err
	}
	if !d.retainIE {
		return d.r.Skip("ie data", int64(length))
	}
	if uint64(length) > uint64(d.limits.MaxIELength) {
		return &LimitError{What: "ie length", Declared: uint64(length), Limit: uint64(d.limits.MaxIELength)}
	}
	n.IEData, err = d.r.ReadBytes("ie data", int(length))
	return err
}

// readSample decodes one sample. Samples are not versioned.
func (d *Decoder) readSample(_ uint32, s *Sample) error {
	return d.r.ReadSample(s)
}
