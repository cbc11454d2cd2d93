package types

import (
	"math"
	"testing"
)

func TestLooksNumeric(t *testing.T) {
	yes := []string{"0", " 12 ", "-3.5e2", "+.5", "0x1f", "nan", "-inf", "INF"}
	no := []string{"", "   ", "12abc", "1_000", "abc", "+-1", "0x"}
	for _, s := range yes {
		if !LooksNumeric(s) {
			t.Errorf("LooksNumeric(%q) = false, want true", s)
		}
	}
	for _, s := range no {
		if LooksNumeric(s) {
			t.Errorf("LooksNumeric(%q) = true, want false", s)
		}
	}
}

func TestParseNum(t *testing.T) {
	valid := map[string]float64{
		"123":    123,
		"-456":   -456,
		".5":     0.5,
		"1.5e-3": 1.5e-3,
		"0x1a":   26,
		"-0x10":  -16,
		"  42  ": 42,
		"":       0,
	}
	for in, want := range valid {
		got, err := ParseNum(in)
		if err != nil || got != want {
			t.Errorf("ParseNum(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	for _, in := range []string{"abc", "1_000", "1.2.3"} {
		if _, err := ParseNum(in); err == nil {
			t.Errorf("ParseNum(%q) succeeded, want an error", in)
		}
	}
}

func TestParseNumPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"123abc", 123},
		{"  42  ", 42},
		{"3.14rest", 3.14},
		{"0x1aGH", 26},
		{"-0x10", -16},
		{"0xg", 0},
		{"abc", 0},
		{"", 0},
		{"-", 0},
		{"+42", 42},
		{"-42", -42},
		{"1e3x", 1000},
		{"1e+x", 1},
		{".5.5", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseNumPrefix(tt.in); got != tt.want {
				t.Errorf("ParseNumPrefix(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := ParseNumPrefix(" -inf"); !math.IsInf(got, -1) {
		t.Errorf("ParseNumPrefix(-inf) = %v, want -Inf", got)
	}
	if got := ParseNumPrefix("nano"); !math.IsNaN(got) {
		t.Errorf("ParseNumPrefix(nano) = %v, want NaN", got)
	}
}

func TestFormatNum(t *testing.T) {
	tests := []struct {
		n      float64
		format string
		want   string
	}{
		{42, "%.6g", "42"},
		{-7, "%.6g", "-7"},
		{3.14159265, "%.6g", "3.14159"},
		{1e15, "%.6g", "1000000000000000"},
		{1e20, "%.6g", "100000000000000000000"},
		{math.NaN(), "%.6g", "nan"},
		{math.Inf(1), "%.6g", "inf"},
		{math.Inf(-1), "%.6g", "-inf"},
		{123.456, "%.2f", "123.46"},
		{0.5, "%d", "%!d(float64=0.5)"},
	}

	for _, tt := range tests {
		if got := FormatNum(tt.n, tt.format); got != tt.want {
			t.Errorf("FormatNum(%v, %q) = %q, want %q", tt.n, tt.format, got, tt.want)
		}
	}
}

func BenchmarkParseNumPrefix(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ParseNumPrefix("12345.678")
	}
}

func BenchmarkFormatNum(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FormatNum(3.14159265, "%.6g")
	}
}
