package render_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/ns1kit/internal/ns1"
	"github.com/banshee-data/ns1kit/internal/render"
	"github.com/banshee-data/ns1kit/internal/testutil"
)

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	testutil.AssertNoError(t, render.WriteText(&buf, fixtureCapture(), render.TextOptions{}))

	want := []string{
		"# $Creator: Network Stumbler Version 0.3.23 Compatible Format",
		"# $Format: wi-scan with extensions",
		"# Latitude\tLongitude\t( SSID )\tType\t( BSSID )\tTime (GMT)\t[ SNR Sig Noise ]\t# ( Name )\tFlags\tChannelbits\tBcnIntvl",
		"# $DateGMT: 2009-07-25",
		"N 37.500000\tW 122.250000\t( linksys )\tBBS\t( 00:0c:41:aa:bb:cc )\t23:00:00 (GMT)\t0 89 54\t# ( ap1 )\t0011\t0040\t100",
		"S 33.750000\tE 151.125000\t( linksys )\tBBS\t( 00:0c:41:aa:bb:cc )\t23:00:10 (GMT)\t0 94 54\t# ( ap1 )\t0011\t0040\t100",
		"N 0.000000\tE 0.000000\t( bob's net )\tBBS\t( 02:00:00:00:00:01 )\t23:00:00 (GMT)\t0 69 54\t# (  )\t0000\t0000\t0",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WriteText mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTextEmptyCapture(t *testing.T) {
	var buf bytes.Buffer
	c := &ns1.Capture{Signature: ns1.MAGIC, Version: 12}
	testutil.AssertNoError(t, render.WriteText(&buf, c, render.TextOptions{}))

	if strings.Contains(buf.String(), "$DateGMT") {
		t.Errorf("empty capture should have no date line:\n%s", buf.String())
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("got %d lines, want 3 header lines", n)
	}
}

func TestWriteTextNoLastSeen(t *testing.T) {
	c := fixtureCapture()
	c.Networks[0].LastSeen = 0

	var buf bytes.Buffer
	testutil.AssertNoError(t, render.WriteText(&buf, c, render.TextOptions{}))
	if strings.Contains(buf.String(), "$DateGMT") {
		t.Errorf("unset last seen should suppress the date line")
	}
}

func TestWriteTextTimezone(t *testing.T) {
	var buf bytes.Buffer
	opts := render.TextOptions{Timezone: "America/New_York"}
	testutil.AssertNoError(t, render.WriteText(&buf, fixtureCapture(), opts))

	if !strings.Contains(buf.String(), "\t19:00:00 (EDT)\t") {
		t.Errorf("expected New York time of day, got:\n%s", buf.String())
	}
}

func TestWriteTextBadTimezone(t *testing.T) {
	var buf bytes.Buffer
	err := render.WriteText(&buf, fixtureCapture(), render.TextOptions{Timezone: "Not/AZone"})
	testutil.AssertError(t, err)
	if buf.Len() != 0 {
		t.Errorf("nothing should be written on error")
	}
}
