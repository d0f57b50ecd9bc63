package callbacks

import (
	"strconv"
	"strings"
)

// Sep joins multi-part callback payloads.
const Sep = "|"

// Join encodes parts into a single payload.
func Join(parts ...string) string {
	return strings.Join(parts, Sep)
}

// PayloadParts splits payload into exactly n parts.
func PayloadParts(payload string, n int) ([]string, error) {
	if payload == "" {
		return nil, strconv.ErrSyntax
	}
	parts := strings.SplitN(payload, Sep, n)
	if len(parts) != n {
		return nil, strconv.ErrSyntax
	}
	return parts, nil
}

// PayloadInt parses a numeric payload part.
func PayloadInt(part string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(part))
}
