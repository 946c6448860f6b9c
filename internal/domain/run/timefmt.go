package run

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/groovy-hub/groovy-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIME FORMATTING
// ══════════════════════════════════════════════════════════════════════════════

// FormatRawSeconds converts a raw decimal-seconds string (as the leaderboard
// API reports in-game times, e.g. "75.5" or "60") into the display format
// "M:SS.HH". Minutes are peeled off by repeated subtraction of 60, seconds
// are zero-padded to two digits, and the fractional part is right-padded to
// two digits ("75.5" → "1:15.50").
func FormatRawSeconds(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", shared.ErrMalformedEntry
	}

	secPart := raw
	hundredths := "00"
	if idx := strings.IndexByte(raw, '.'); idx >= 0 {
		secPart = raw[:idx]
		hundredths = raw[idx+1:]
	}

	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 {
		return "", shared.WrapError("run", "FormatTime", shared.ErrInvalidFormat, "bad seconds value", err)
	}

	minutes := 0
	for seconds >= 60 {
		minutes++
		seconds -= 60
	}

	for len(hundredths) < 2 {
		hundredths += "0"
	}
	if len(hundredths) > 2 {
		hundredths = hundredths[:2]
	}

	return fmt.Sprintf("%d:%02d.%s", minutes, seconds, hundredths), nil
}

// FormatSeconds converts a numeric in-game time to "M:SS.HH". The float is
// rendered with the shortest decimal representation first so that "75.5"
// behaves exactly like the raw string form.
func FormatSeconds(seconds float64) (string, error) {
	if seconds < 0 {
		return "", shared.ErrInvalidFormat
	}
	return FormatRawSeconds(strconv.FormatFloat(seconds, 'f', -1, 64))
}
