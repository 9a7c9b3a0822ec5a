package utils

import (
	"testing"
	"time"
)

func TestConvertPersianToEnglish(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"۱۲۳۴۵", "12345"},
		{"٠٩١٢", "0912"},
		{"150000", "150000"},
		{"مبلغ ۵۰", "مبلغ 50"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ConvertPersianToEnglish(tt.in); got != tt.want {
			t.Errorf("ConvertPersianToEnglish(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseInt64(t *testing.T) {
	if got := ParseInt64(" ۱۵۰۰۰۰ ", 0); got != 150000 {
		t.Errorf("ParseInt64 persian = %d, want 150000", got)
	}
	if got := ParseInt64("abc", -1); got != -1 {
		t.Errorf("ParseInt64 invalid = %d, want default -1", got)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{150000, "150,000"},
		{1234567, "1,234,567"},
		{-45000, "-45,000"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMaskCardNumber(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"6037991234567890", "6037********7890"},
		{"6037-9912-3456-7890", "6037********7890"},
		{"12345678", "12345678"}, // too short to mask
	}
	for _, tt := range tests {
		if got := MaskCardNumber(tt.in); got != tt.want {
			t.Errorf("MaskCardNumber(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateTrackingUnique(t *testing.T) {
	a, b := GenerateTracking(), GenerateTracking()
	if a == b {
		t.Error("tracking tokens must be unique")
	}
	if len(a) != 36 {
		t.Errorf("tracking token length = %d, want uuid format", len(a))
	}
}

func TestDateYMD(t *testing.T) {
	ts := time.Date(2025, 3, 7, 23, 45, 0, 0, time.UTC)
	if got := DateYMD(ts); got != "2025-03-07" {
		t.Errorf("DateYMD = %q, want 2025-03-07", got)
	}
}
