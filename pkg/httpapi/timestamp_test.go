package httpapi

import (
	"math"
	"testing"
)

func TestParseTimestampRoundTripUnix(t *testing.T) {
	want := 1700000000.25
	got, err := parseTimestamp(formatUnix(want))
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	if math.Abs(got-want) > 1e-6 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestampRoundTripISO(t *testing.T) {
	want := 1700000000.0
	got, err := parseTimestamp(formatISO(want))
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	if math.Abs(got-want) > 1e-3 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestParseTimestampNormalizesTrailingZ(t *testing.T) {
	got, err := parseTimestamp("2023-11-14T22:13:20Z")
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	want := 1700000000.0
	if math.Abs(got-want) > 1 {
		t.Fatalf("expected ~%v, got %v", want, got)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	if _, err := parseTimestamp("not-a-timestamp"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}
