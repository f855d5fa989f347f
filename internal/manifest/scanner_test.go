package manifest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"kdvd/internal/stream"
)

func TestParseReferenceManifest(t *testing.T) {
	got, err := NewScanner(nil).Parse(filepath.Join("testdata", "reference.m3u8"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []stream.Descriptor{
		{Filename: "movie.EVO8", Format: stream.Tier8K, BandwidthBps: 100_000_000, Width: 7680, Height: 4320},
		{Filename: "movie.EVO4", Format: stream.Tier4K, BandwidthBps: 20_000_000, Width: 3840, Height: 2160},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d descriptors, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("descriptor %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParsePreservesManifestOrder(t *testing.T) {
	input := "a.EVO4\nb.EVO8\nc.EVOH\n"
	got, err := NewScanner(nil).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	wantNames := []string{"a.EVO4", "b.EVO8", "c.EVOH"}
	wantFormats := []stream.Format{stream.Tier4K, stream.Tier8K, stream.TierHD}
	if len(got) != 3 {
		t.Fatalf("expected 3 descriptors, got %+v", got)
	}
	for i := range got {
		if got[i].Filename != wantNames[i] || got[i].Format != wantFormats[i] {
			t.Fatalf("descriptor %d = %+v", i, got[i])
		}
	}
}

func TestParseStopsAtLimit(t *testing.T) {
	input := "a.EVO8\nb.EVO4\nc.EVOH\nd.3D4\ne.EVO8\nf.EVO4\n"

	got, err := NewScanner(nil).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != DefaultLimit {
		t.Fatalf("expected %d descriptors, got %d", DefaultLimit, len(got))
	}
	if got[3].Filename != "d.3D4" {
		t.Fatalf("expected first four in order, got %+v", got)
	}

	unlimited := &Scanner{}
	got, err = unlimited.ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 6 {
		t.Fatalf("expected cap to be lifted, got %d", len(got))
	}
}

func TestParseSkipsDuplicatesAndUnknown(t *testing.T) {
	input := strings.Join([]string{
		"",
		"   ",
		"# movie.EVO8 in a comment",
		"disc1/movie.EVO8",
		"disc2/movie.EVO8",
		"movie.evo8",
		"README",
		"dir/",
		"movie.mkv",
	}, "\r\n")

	got, err := (&Scanner{}).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 descriptors, got %+v", got)
	}
	if got[0].Filename != "movie.EVO8" || got[1].Filename != "movie.evo8" {
		t.Fatalf("unexpected descriptors %+v", got)
	}
}

func TestParseDuplicatesDoNotConsumeLimit(t *testing.T) {
	input := "a.EVO8\na.EVO8\na.EVO8\na.EVO8\nb.EVO4\n"
	got, err := NewScanner(nil).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected duplicates to be ignored, got %+v", got)
	}
}

func TestParseStripsBOM(t *testing.T) {
	got, err := NewScanner(nil).ParseReader(strings.NewReader("\ufeffmovie.EVOH\n"))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 1 || got[0].Filename != "movie.EVOH" {
		t.Fatalf("unexpected descriptors %+v", got)
	}
}

func TestParseDeclaredAttributes(t *testing.T) {
	got, err := NewScanner(nil).Parse(filepath.Join("testdata", "declared.m3u8"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 descriptors, got %+v", got)
	}

	feature8k := got[0]
	if feature8k.BandwidthBps != 145_000_000 || feature8k.Width != 7680 || feature8k.Height != 4320 {
		t.Fatalf("declared attributes not applied: %+v", feature8k)
	}
	if feature8k.Codecs != "hvc1.2.4.L183,ec-3" || !feature8k.Declared {
		t.Fatalf("expected quoted codecs and declared flag: %+v", feature8k)
	}

	feature4k := got[1]
	if feature4k.Declared || feature4k.BandwidthBps != 20_000_000 || feature4k.Width != 3840 {
		t.Fatalf("malformed attributes should fall back to defaults: %+v", feature4k)
	}

	featureHD := got[2]
	if featureHD.Filename != "feature.EVOH" {
		t.Fatalf("expected URI query and fragment to be stripped, got %q", featureHD.Filename)
	}
	if featureHD.BandwidthBps != 8_000_000 || featureHD.Width != 1920 || !featureHD.Declared {
		t.Fatalf("expected average bandwidth with default resolution: %+v", featureHD)
	}
}

func TestParseTierDefaultsOnly(t *testing.T) {
	s := &Scanner{TierDefaultsOnly: true}
	got, err := s.Parse(filepath.Join("testdata", "declared.m3u8"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	for _, d := range got {
		want := stream.NewDescriptor(d.Filename, d.Format)
		if d != want {
			t.Fatalf("expected tier defaults only, got %+v", d)
		}
	}
}

func TestPendingAttributesApplyToNextEntryOnly(t *testing.T) {
	input := strings.Join([]string{
		"#EXT-X-STREAM-INF:BANDWIDTH=1234",
		"notes.txt",
		"movie.EVO4",
	}, "\n")
	got, err := NewScanner(nil).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 1 || got[0].BandwidthBps != 20_000_000 || got[0].Declared {
		t.Fatalf("attributes should be consumed by the skipped entry: %+v", got)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := NewScanner(nil).Parse(filepath.Join(t.TempDir(), "main.m3u8"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected underlying not-exist cause, got %v", err)
	}
}

func TestParseUnreadableContent(t *testing.T) {
	dir := t.TempDir()
	_, err := NewScanner(nil).Parse(dir)
	if !errors.Is(err, ErrRead) {
		t.Fatalf("expected ErrRead for directory, got %v", err)
	}

	boom := errors.New("device error")
	failing := io.MultiReader(strings.NewReader("movie.EVO8\n"), iotest.ErrReader(boom))
	_, err = NewScanner(nil).ParseReader(failing)
	if !errors.Is(err, ErrRead) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrRead wrapping the read failure, got %v", err)
	}
}

func TestParseSkipsOversizedLines(t *testing.T) {
	input := strings.Join([]string{
		"#EXTM3U",
		"#" + strings.Repeat("x", 2<<20),
		strings.Repeat("y", maxLineBytes+10) + ".EVO4",
		"movie.EVO8",
		"movie.EVO4",
	}, "\n")
	got, err := NewScanner(nil).ParseReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "movie.EVO8" || got[1].Filename != "movie.EVO4" {
		t.Fatalf("expected oversized lines to be skipped, got %+v", got)
	}

	trailing := "movie.EVOH\n" + strings.Repeat("z", maxLineBytes+1)
	got, err = NewScanner(nil).ParseReader(strings.NewReader(trailing))
	if err != nil || len(got) != 1 || got[0].Filename != "movie.EVOH" {
		t.Fatalf("oversized final line without newline: %+v, %v", got, err)
	}
}

func TestParseLongLineUnderLimit(t *testing.T) {
	entry := "stream/" + strings.Repeat("d", 200*1024) + "/movie.EVO8"
	got, err := NewScanner(nil).ParseReader(strings.NewReader(entry + "\r\nmovie.EVO4"))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "movie.EVO8" || got[1].Filename != "movie.EVO4" {
		t.Fatalf("unexpected descriptors %+v", got)
	}
}

func TestParseEmptyManifest(t *testing.T) {
	got, err := NewScanner(nil).ParseReader(strings.NewReader("#EXTM3U\n"))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no descriptors, got %+v", got)
	}
}

func TestParseAttributeList(t *testing.T) {
	got := parseAttributeList(`BANDWIDTH=100,CODECS="a,b",resolution=10x20,FLAG,NAME="x",BANDWIDTH=5`)
	want := map[string]string{
		"BANDWIDTH":  "100",
		"CODECS":     "a,b",
		"RESOLUTION": "10x20",
		"NAME":       "x",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected attributes %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("attribute %s = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseResolution(t *testing.T) {
	tests := []struct {
		in   string
		w, h int
		ok   bool
	}{
		{"3840x2160", 3840, 2160, true},
		{"1920X1080", 1920, 1080, true},
		{"0x1080", 0, 0, false},
		{"1920", 0, 0, false},
		{"axb", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range tests {
		w, h, ok := parseResolution(tc.in)
		if w != tc.w || h != tc.h || ok != tc.ok {
			t.Fatalf("parseResolution(%q) = %d,%d,%v", tc.in, w, h, ok)
		}
	}
}
