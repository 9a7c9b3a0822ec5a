package totp

import (
	"testing"
	"time"
)

// RFC 6238 appendix B vector for SHA-1, truncated to 6 digits. The
// base32 of "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeAtRFCVectors(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, tt := range tests {
		got, err := CodeAt(rfcSecret, time.Unix(tt.unix, 0).UTC())
		if err != nil {
			t.Fatalf("CodeAt(%d): %v", tt.unix, err)
		}
		if got != tt.want {
			t.Errorf("CodeAt(%d) = %s, want %s", tt.unix, got, tt.want)
		}
	}
}

func TestCodeNormalizesPastedSecret(t *testing.T) {
	spaced := "gezd gnbv gy3t qojq gezd gnbv gy3t qojq"
	at := time.Unix(59, 0).UTC()
	got, err := CodeAt(spaced, at)
	if err != nil {
		t.Fatalf("CodeAt: %v", err)
	}
	want, _ := CodeAt(rfcSecret, at)
	if got != want {
		t.Errorf("spaced/lowercase secret produced %s, want %s", got, want)
	}
}

func TestValiditySeconds(t *testing.T) {
	tests := []struct {
		unix int64
		want int
	}{
		{0, 60},   // fresh period: full 30s plus drift margin
		{29, 31},  // about to roll over
		{30, 60},  // new period
		{45, 45},  // mid-period
	}
	for _, tt := range tests {
		if got := ValiditySeconds(time.Unix(tt.unix, 0)); got != tt.want {
			t.Errorf("ValiditySeconds(%d) = %d, want %d", tt.unix, got, tt.want)
		}
	}
}
