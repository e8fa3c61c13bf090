package main

import "testing"

func TestResourceFlags_SetParsesKindKeyPath(t *testing.T) {
	var flags resourceFlags
	if err := flags.Set("scalar:ghi:ghi.csv"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if len(flags) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(flags))
	}
	got := flags[0]
	if got.Kind != "scalar" || got.Key != "ghi" || got.Path != "ghi.csv" {
		t.Errorf("parsed = %+v, want {scalar ghi ghi.csv}", got)
	}
}

func TestResourceFlags_SetRejectsMalformedValue(t *testing.T) {
	var flags resourceFlags
	if err := flags.Set("scalar-only"); err == nil {
		t.Errorf("expected an error for a value with no colons")
	}
}

func TestResourceFlags_StringJoinsEntries(t *testing.T) {
	var flags resourceFlags
	_ = flags.Set("scalar:ghi:ghi.csv")
	_ = flags.Set("wave:swell:swell.csv")

	want := "scalar:ghi:ghi.csv,wave:swell:swell.csv"
	if got := flags.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
