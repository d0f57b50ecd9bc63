package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var statusNames = map[string]bool{
	"ok":           true,
	"fail":         true,
	"skip":         true,
	"retry":        true,
	"rate_limited": true,
	"cancelled":    true,
	"pending":      true,
	"confirmed":    true,
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// normalizeStatus lowercases known statuses and leaves unknown ones untouched.
func normalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if statusNames[s] {
		return s
	}
	return status
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"flow",
	"step",
	"kind",
	"op",
	"cb_key",
	"duration_ms",
	"booking_id",
	"tracking_code",
	"domain",
	"count",
	"page",
	"pages",
	"mode",
	"listen",
	"public_url",
	"driver",
	"db",
	"err",
	"err_code",
	"retryable",
	"attempts",
	"backoff_ms",
}
