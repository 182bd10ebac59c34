package units

// WiScanOffset is added to dBm readings in wi-scan text exports, which
// express signal and noise as positive levels.
const WiScanOffset = 149

// WiScanLevel converts a dBm reading to a wi-scan level.
func WiScanLevel(dbm int32) int32 {
	return dbm + WiScanOffset
}

// SNR returns the signal-to-noise ratio in dB for a pair of dBm readings.
func SNR(signal, noise int32) int32 {
	return signal - noise
}
