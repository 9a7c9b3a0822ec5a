// Package totp generates RFC 6238 codes for seat two-factor secrets.
package totp

import (
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

const period = 30

// Code returns the current TOTP code for a base32 secret.
func Code(secret string) (string, error) {
	return totp.GenerateCode(normalize(secret), time.Now())
}

// CodeAt returns the code for a given time, for tests.
func CodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCode(normalize(secret), t)
}

// ValiditySeconds reports how long the current code stays usable. The
// extra period matches provider-side clock-drift tolerance, so users
// are not told a code died the second it rolled over.
func ValiditySeconds(now time.Time) int {
	return (period - int(now.Unix())%period) + period
}

// normalize strips spaces and upcases, since secrets are often pasted
// in groups of four.
func normalize(secret string) string {
	return strings.ToUpper(strings.ReplaceAll(secret, " ", ""))
}
