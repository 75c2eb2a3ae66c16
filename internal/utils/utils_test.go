package utils

import (
	"testing"
	"time"
)

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{0: "USD 0", 996: "USD 996", 1250000: "USD 1,250,000", -4500: "USD -4,500"}
	for in, want := range cases {
		if got := FormatAmount(in, "usd"); got != want {
			t.Fatalf("FormatAmount(%d) = %q want %q", in, got, want)
		}
	}
}

func TestMulAmountOverflow(t *testing.T) {
	if v, err := MulAmount(249, 4); err != nil || v != 996 {
		t.Fatalf("got %d %v", v, err)
	}
	if _, err := MulAmount(1<<62, 4); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if c, ok := NormalizeCurrency(" idr "); !ok || c != "IDR" {
		t.Fatalf("got %q %v", c, ok)
	}
	if _, ok := NormalizeCurrency("US1"); ok {
		t.Fatalf("digits accepted")
	}
}

func TestParseFlexibleTime(t *testing.T) {
	want := time.Date(2026, 6, 1, 7, 30, 0, 0, time.UTC)
	for _, in := range []string{"2026-06-01T07:30:00Z", "2026-06-01 07:30"} {
		got, err := ParseFlexibleTime(in)
		if err != nil || !got.Equal(want) {
			t.Fatalf("%q: got %v %v", in, got, err)
		}
	}
	if got, err := ParseFlexibleTime("2026-06-01"); err != nil || got.Hour() != 0 {
		t.Fatalf("date only: %v %v", got, err)
	}
}

func TestMonthsBack(t *testing.T) {
	now := time.Date(2026, 3, 17, 10, 0, 0, 0, time.UTC)
	if got := MonthsBack(now, 6); !got.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v", got)
	}
}
