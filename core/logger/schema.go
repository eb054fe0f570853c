package logger

import "strings"

// levelNames maps accepted level spellings to the printed name.
var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

func levelName(level string) string {
	if level == "" {
		return "INFO"
	}
	if name, ok := levelNames[strings.ToLower(level)]; ok {
		return name
	}
	return strings.ToUpper(level)
}

func vocabulary(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// knownStatus values are lowercased; other statuses are printed as given.
var knownStatus = vocabulary("ok", "fail", "skip", "retry", "denied", "rate_limited", "cancelled", "breaker_open")

// closedEnums are attributes with a fixed vocabulary. Values outside it are
// dropped from the line.
var closedEnums = map[string]map[string]struct{}{
	"cache":   vocabulary("hit", "miss", "store"),
	"outcome": vocabulary("ok", "fail", "cancelled", "rate_limited"),
}

func sanitizeEnumerations(fields map[string]any) {
	if level, ok := stringField(fields, "level"); ok {
		fields["level"] = levelName(level)
	}
	if status, ok := stringField(fields, "status"); ok {
		if lowered := strings.ToLower(strings.TrimSpace(status)); lowered != "" {
			if _, known := knownStatus[lowered]; known {
				fields["status"] = lowered
			}
		}
	}
	for key, allowed := range closedEnums {
		v, ok := stringField(fields, key)
		if !ok || v == "" {
			continue
		}
		v = strings.ToLower(strings.TrimSpace(v))
		if _, valid := allowed[v]; valid {
			fields[key] = v
		} else {
			delete(fields, key)
		}
	}
}

// defaultKeyOrder fixes the position of well-known keys in a line; the rest
// follow alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "trace_id", "span_id", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "kind", "handler",
	"state", "next_state", "op", "cb_key", "outcome", "duration_ms",
	"horizon", "city", "cities", "count", "cache", "backend",
	"http_code", "mode", "listen", "public_url",
	"db", "host", "port", "file",
	"err", "err_code", "cause", "retryable", "attempts", "backoff_ms",
	"queue", "rate_limited",
}
