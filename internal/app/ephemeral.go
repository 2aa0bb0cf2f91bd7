package app

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/dkeye/ChatJet/internal/domain"
)

// ephemeralMarker is the inline tag senders use, e.g. "secret ||ephemeral|10000||".
var ephemeralMarker = regexp.MustCompile(`\|\|ephemeral\|(\d+)\|\|`)

// ParseEphemeral strips every marker from text and returns the expiry of the
// first one in milliseconds, zero when the message is not ephemeral. Delays
// are clamped to domain.MaxEphemeralMillis.
func ParseEphemeral(text string) (string, int64) {
	m := ephemeralMarker.FindStringSubmatch(text)
	if m == nil {
		return text, 0
	}
	clean := strings.TrimSpace(ephemeralMarker.ReplaceAllString(text, ""))
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return clean, domain.MaxEphemeralMillis
	}
	if err != nil || ms <= 0 {
		return clean, 0
	}
	return clean, min(ms, domain.MaxEphemeralMillis)
}
