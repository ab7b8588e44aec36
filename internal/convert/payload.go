// Package convert maps venue payloads to and from the canonical domain
// entities.
//
// Each canonical field has an ordered list of venue aliases. Reading takes
// the first alias present; a missing field becomes the declared zero value
// ("0" for numbers, "" for text, false, 0 for timestamps), so canonical
// entities never carry absent fields. Writing emits the first alias.
package convert

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Payload is one decoded venue object. Numbers may arrive as strings,
// json.Number, float64 or integers depending on the gateway.
type Payload map[string]any

// millisThreshold separates second timestamps from millisecond ones. Any
// value below it (year 5138 in seconds) is taken as seconds.
const millisThreshold = 100_000_000_000

func (p Payload) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := p[a]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether any alias is present with a non-nil value.
func (p Payload) Has(aliases ...string) bool {
	_, ok := p.lookup(aliases)
	return ok
}

// Str returns the first alias rendered as text, or "".
func (p Payload) Str(aliases ...string) string {
	v, ok := p.lookup(aliases)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Num returns the first alias as a decimal string, or "0". Strings pass
// through untouched; native numbers are formatted without exponent.
func (p Payload) Num(aliases ...string) string {
	v, ok := p.lookup(aliases)
	if !ok {
		return "0"
	}
	switch t := v.(type) {
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s
		}
		return "0"
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		return "0"
	}
}

// Bool returns the first alias as a boolean. Strings "true"/"1" and
// non-zero numbers are true.
func (p Payload) Bool(aliases ...string) bool {
	v, ok := p.lookup(aliases)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	default:
		return !decimalOf(p.Num(aliases...)).IsZero()
	}
}

// Millis returns the first alias as a Unix millisecond timestamp, accepting
// seconds (with fraction) or milliseconds. Missing or malformed values are 0.
func (p Payload) Millis(aliases ...string) int64 {
	if !p.Has(aliases...) {
		return 0
	}
	d, err := decimal.NewFromString(p.Num(aliases...))
	if err != nil || d.IsZero() {
		return 0
	}
	if d.Abs().LessThan(decimal.NewFromInt(millisThreshold)) {
		d = d.Mul(decimal.NewFromInt(1000))
	}
	return d.Round(0).IntPart()
}

// Sub returns the nested object under key, or nil.
func (p Payload) Sub(key string) Payload {
	switch t := p[key].(type) {
	case Payload:
		return t
	case map[string]any:
		return Payload(t)
	default:
		return nil
	}
}

// List returns the array under key, or nil.
func (p Payload) List(key string) []any {
	if l, ok := p[key].([]any); ok {
		return l
	}
	return nil
}

// AsPayload converts a decoded JSON value to a Payload when it is an object.
func AsPayload(v any) (Payload, bool) {
	switch t := v.(type) {
	case Payload:
		return t, true
	case map[string]any:
		return Payload(t), true
	default:
		return nil, false
	}
}

// DecodeObject parses a JSON object, keeping numbers as json.Number so no
// precision is lost on the way to decimal strings.
func DecodeObject(data []byte) (Payload, error) {
	var p Payload
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("convert: decode object: %w", err)
	}
	return p, nil
}

// DecodeList parses a JSON array of objects. Elements that are not objects
// are dropped.
func DecodeList(data []byte) ([]Payload, error) {
	var raw []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("convert: decode list: %w", err)
	}
	out := make([]Payload, 0, len(raw))
	for _, r := range raw {
		if p, ok := AsPayload(r); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Decimal helpers
// --------------------------------------------------------------------------

// decimalOf parses s, treating malformed input as zero.
func decimalOf(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// abs strips a leading sign from a numeric string.
func abs(s string) string {
	return strings.TrimLeft(strings.TrimSpace(s), "+-")
}

// negate flips the sign of a numeric string, keeping zero unsigned.
func negate(s string) string {
	d := decimalOf(s)
	if d.IsZero() {
		return "0"
	}
	return d.Neg().String()
}

// signed applies the sign implied by a side or direction word to an
// unsigned magnitude. Unknown words keep the magnitude's own sign.
func signed(magnitude, side string) string {
	switch strings.ToLower(side) {
	case "short", "sell":
		if decimalOf(magnitude).IsZero() {
			return abs(magnitude)
		}
		return "-" + abs(magnitude)
	case "long", "buy":
		return abs(magnitude)
	default:
		return magnitude
	}
}

// secondsOf renders a millisecond timestamp as fractional seconds.
func secondsOf(ms int64) any {
	if ms == 0 {
		return float64(0)
	}
	f, _ := decimal.New(ms, -3).Float64()
	return f
}
