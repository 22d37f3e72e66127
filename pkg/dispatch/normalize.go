package dispatch

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

const normalizeLogPrefix = "dispatch:normalize"

// Normalization error messages for malformed handler output.
const (
	errOkNotBoolean    = "Invalid response: 'ok' must be boolean"
	errMissingErrorStr = "Invalid response: missing 'error' string"
)

// Normalize converts arbitrary handler output into a well-formed Envelope.
// It never panics: malformed output becomes an error envelope.
//
// An Envelope, *Envelope, or map with an "ok" key is checked against the
// canonical shape; every other value passes through as {ok:true, result:raw}.
// Fields outside the canonical shape are preserved under Extras and reported
// (key names only) through logger at warn level. A nil logger disables
// diagnostics.
func Normalize(raw any, logger *slog.Logger) Envelope {
	switch v := raw.(type) {
	case Envelope:
		return normalizeEnvelope(v, logger)
	case *Envelope:
		if v == nil {
			return Ok(nil)
		}
		return normalizeEnvelope(*v, logger)
	case map[string]any:
		if _, hasOK := v["ok"]; hasOK {
			return normalizeMap(v, logger)
		}
		return Ok(v)
	default:
		return Ok(raw)
	}
}

// normalizeEnvelope validates an already-typed envelope. Extras is re-copied
// so a handler holding the original map cannot mutate the response.
func normalizeEnvelope(v Envelope, logger *slog.Logger) Envelope {
	if v.OK {
		out := Envelope{OK: true, Result: v.Result, Extras: copyExtras(v.Extras)}
		if v.Error != "" {
			out.Extras = putExtra(out.Extras, "error", v.Error)
		}
		warnExtras(logger, out.Extras)
		return out
	}
	if v.Error == "" {
		return Err(errMissingErrorStr)
	}
	out := Envelope{OK: false, Error: v.Error, Extras: copyExtras(v.Extras)}
	if v.Result != nil {
		out.Extras = putExtra(out.Extras, "result", v.Result)
	}
	warnExtras(logger, out.Extras)
	return out
}

// normalizeMap applies the decision tree to a loosely-typed response map.
func normalizeMap(m map[string]any, logger *slog.Logger) Envelope {
	okVal, isBool := m["ok"].(bool)
	if !isBool {
		return Err(errOkNotBoolean)
	}

	if okVal {
		out := Envelope{OK: true, Result: m["result"]}
		out.Extras = collectExtras(m, "ok", "result")
		warnExtras(logger, out.Extras)
		return out
	}

	errStr, isStr := m["error"].(string)
	if !isStr || errStr == "" {
		return Err(errMissingErrorStr)
	}
	out := Envelope{OK: false, Error: errStr}
	out.Extras = collectExtras(m, "ok", "error")
	warnExtras(logger, out.Extras)
	return out
}

// collectExtras copies every field of m outside the canonical key set.
func collectExtras(m map[string]any, canonical ...string) map[string]any {
	var extras map[string]any
	for k, v := range m {
		skip := false
		for _, c := range canonical {
			if k == c {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		extras = putExtra(extras, k, v)
	}
	return extras
}

func copyExtras(extras map[string]any) map[string]any {
	if len(extras) == 0 {
		return nil
	}
	out := make(map[string]any, len(extras))
	for k, v := range extras {
		out[k] = v
	}
	return out
}

func putExtra(extras map[string]any, key string, val any) map[string]any {
	if extras == nil {
		extras = make(map[string]any, 1)
	}
	extras[key] = val
	return extras
}

// warnExtras reports preserved non-canonical fields. Key names only; values
// may carry payload data that does not belong in logs.
func warnExtras(logger *slog.Logger, extras map[string]any) {
	if logger == nil || len(extras) == 0 {
		return
	}
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	logger.Warn(fmt.Sprintf("%s - response carried non-canonical fields, preserved under extras: %s",
		normalizeLogPrefix, strings.Join(keys, ", ")))
}
