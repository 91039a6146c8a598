package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// CardID normalizes a card UID to lowercase hex. Readers report either
// comma-separated decimal bytes ("195,87,179,125") or hex ("C357B37D").
func CardID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("card id: empty")
	}

	if !strings.Contains(raw, ",") {
		if !isHex(raw) {
			return "", fmt.Errorf("card id %q: not hex", raw)
		}
		return strings.ToLower(raw), nil
	}

	var b strings.Builder
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return "", fmt.Errorf("card id %q: byte %q: %w", raw, part, err)
		}
		fmt.Fprintf(&b, "%02x", v)
	}
	return b.String(), nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
