package instrument

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
)

const maskedValue = "***"

// alwaysMasked holds keys that never reach a sink in clear text, regardless
// of instrument.log_mask_fields.
var alwaysMasked = []string{"otp", "authorization", "cookie", "set-cookie", "access_token"}

// Masker redacts configured keys from log attributes, headers and decoded
// JSON or form payloads. Keys compare case-insensitively.
type Masker struct {
	keys map[string]struct{}
}

// NewMasker builds a Masker over fields plus the built-in sensitive keys.
func NewMasker(fields []string) *Masker {
	keys := make(map[string]struct{}, len(fields)+len(alwaysMasked))
	for _, field := range slices.Concat(fields, alwaysMasked) {
		field = strings.TrimSpace(strings.ToLower(field))
		if field == "" {
			continue
		}
		keys[field] = struct{}{}
	}
	return &Masker{keys: keys}
}

// Has reports whether key is redacted.
func (m *Masker) Has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.keys[strings.ToLower(key)]
	return ok
}

// Headers returns a copy of h with redacted values.
func (m *Masker) Headers(h http.Header) http.Header {
	out := h.Clone()
	for key := range out {
		if m.Has(key) {
			out.Set(key, maskedValue)
		}
	}
	return out
}

// Value walks decoded JSON (maps and slices) and redacts matching keys.
func (m *Masker) Value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if m.Has(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = m.Value(v2)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			out[k] = v2
		}
		return m.Value(out)
	case map[string][]string:
		out := make(map[string]any, len(val))
		for k, v2 := range val {
			if len(v2) == 1 {
				out[k] = v2[0]
			} else {
				out[k] = v2
			}
		}
		return m.Value(out)
	case []any:
		out := make([]any, len(val))
		for i, v2 := range val {
			out[i] = m.Value(v2)
		}
		return out
	default:
		return v
	}
}

// JSON redacts a JSON document. ok is false when payload is not a JSON
// object or array.
func (m *Masker) JSON(payload []byte) (masked string, ok bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return "", false
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", false
	}
	out, err := json.Marshal(m.Value(doc))
	if err != nil {
		return "", false
	}
	return string(out), true
}

// Attr redacts a slog attribute, descending into groups and JSON strings.
func (m *Masker) Attr(attr slog.Attr) slog.Attr {
	if m.Has(attr.Key) {
		return slog.String(attr.Key, maskedValue)
	}

	switch attr.Value.Kind() {
	case slog.KindGroup:
		group := attr.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, ga := range group {
			out = append(out, m.Attr(ga))
		}
		attr.Value = slog.GroupValue(out...)
	case slog.KindString:
		if masked, ok := m.JSON([]byte(attr.Value.String())); ok {
			attr.Value = slog.StringValue(masked)
		}
	case slog.KindAny:
		switch val := attr.Value.Any().(type) {
		case nil:
		case []byte:
			if masked, ok := m.JSON(val); ok {
				attr.Value = slog.StringValue(masked)
			}
		case http.Header:
			attr.Value = slog.AnyValue(m.Headers(val))
		case map[string]any, map[string]string, []any:
			attr.Value = slog.AnyValue(m.Value(val))
		}
	}

	return attr
}
