package fingerprint

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"
)

var macPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// IsValidMAC reports whether s is six colon-separated uppercase hex octets.
func IsValidMAC(s string) bool {
	return macPattern.MatchString(s)
}

// Hash is the 32-bit rolling hash used for fingerprints: h = h*31 + c over
// UTF-16 code units with int32 wraparound, absolute value, lowercase hex
// left-padded to 8 digits. The empty string hashes to "0".
func Hash(s string) string {
	if s == "" {
		return "0"
	}
	return hashUnits(utf16.Encode([]rune(s)))
}

func hashUnits(units []uint16) string {
	var h int32
	for _, c := range units {
		h = (h << 5) - h + int32(c)
	}

	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}

	hex := strconv.FormatInt(abs, 16)
	if len(hex) < 8 {
		hex = strings.Repeat("0", 8-len(hex)) + hex
	}
	return hex
}

// macSource picks the string the MAC is derived from. Installation and
// application ids identify the install; without them the hardware
// description plus composite hash is used.
func macSource(r Record) string {
	if r.InstallationID != "" && r.ApplicationID != "" {
		return r.InstallationID + "-" + r.ApplicationID + "-" + r.ModelID
	}
	return r.Brand + "-" + r.ModelName + "-" + r.OSName + "-" + r.Hash
}

// DeriveMAC turns a fingerprint record into a pseudo-MAC. It is a pure
// function of the record.
func DeriveMAC(r Record) string {
	source := macSource(r)
	units := utf16.Encode([]rune(source))

	reversed := make([]uint16, len(units))
	for i, u := range units {
		reversed[len(units)-1-i] = u
	}

	forward := "0"
	backward := "0"
	if len(units) > 0 {
		forward = hashUnits(units)
		backward = hashUnits(reversed)
	}

	return formatMAC(forward + backward)
}

// FallbackMAC builds a MAC from the clock and a random source. It is used
// when derivation is not possible and always succeeds.
func FallbackMAC(now time.Time, rnd *rand.Rand) string {
	var random int64
	if rnd != nil {
		random = rnd.Int63n(1 << 24)
	} else {
		random = rand.Int63n(1 << 24)
	}
	return formatMAC(fmt.Sprintf("%06x%06x", now.UnixMilli()&0xFFFFFF, random))
}

// formatMAC takes the first 12 hex digits of digits (right-padded with
// '0'), clears the multicast bit of the first octet and renders
// XX:XX:XX:XX:XX:XX.
func formatMAC(digits string) string {
	if len(digits) < 12 {
		digits += strings.Repeat("0", 12-len(digits))
	}
	digits = digits[:12]

	octets := make([]string, 6)
	for i := 0; i < 6; i++ {
		b, err := strconv.ParseUint(digits[i*2:i*2+2], 16, 8)
		if err != nil {
			b = 0
		}
		if i == 0 {
			b &= 0xFE
		}
		octets[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(octets, ":")
}
