package generation

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Kind tags how a Value was recovered from model output.
type Kind int

const (
	// KindStructured is a value that was already structured or parsed as-is.
	KindStructured Kind = iota
	// KindFenced is JSON recovered from inside a markdown code fence.
	KindFenced
	// KindMalformed is JSON that only parsed after repair.
	KindMalformed
	// KindOpaque is text that could not be parsed. Data holds the original string.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindFenced:
		return "fenced"
	case KindMalformed:
		return "malformed"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// Value is the result of decoding model output.
type Value struct {
	Kind Kind
	// Data is the decoded value: map[string]any, []any, string, float64, bool,
	// nil, or whatever structured value was passed to Decode.
	Data any
}

// objectSentinel is what a stringified object looks like when it leaks into text.
const objectSentinel = "[object Object]"

var fencePattern = regexp.MustCompile("(?i)```(?:json)?\\s*([\\s\\S]*?)\\s*```")

type decoder func(s string) (Value, bool)

// decoders run in order on string input; the first one that succeeds wins.
var decoders = []decoder{
	decodeSentinel,
	decodeFenced,
	decodeStrict,
	decodeRepaired,
}

// Decode turns raw model output into a Value. It never fails: input that
// cannot be parsed comes back as KindOpaque carrying the original string.
func Decode(raw any) Value {
	s, ok := raw.(string)
	if !ok {
		return Value{Kind: KindStructured, Data: raw}
	}
	for _, d := range decoders {
		if v, ok := d(s); ok {
			return v
		}
	}
	return Value{Kind: KindOpaque, Data: s}
}

func decodeSentinel(s string) (Value, bool) {
	t := strings.TrimSpace(s)
	if t == objectSentinel || t == `"`+objectSentinel+`"` {
		return Value{Kind: KindStructured, Data: map[string]any{}}, true
	}
	return Value{}, false
}

func decodeFenced(s string) (Value, bool) {
	m := fencePattern.FindStringSubmatch(s)
	if m == nil {
		return Value{}, false
	}
	if data, ok := parseJSON(m[1]); ok {
		return Value{Kind: KindFenced, Data: data}, true
	}
	if data, ok := parseJSON(repairJSON(m[1])); ok {
		return Value{Kind: KindMalformed, Data: data}, true
	}
	return Value{}, false
}

func decodeStrict(s string) (Value, bool) {
	data, ok := parseJSON(s)
	if !ok {
		return Value{}, false
	}
	return Value{Kind: KindStructured, Data: data}, true
}

func decodeRepaired(s string) (Value, bool) {
	data, ok := parseJSON(repairJSON(s))
	if !ok {
		return Value{}, false
	}
	return Value{Kind: KindMalformed, Data: data}, true
}

// parseJSON accepts objects, arrays and quoted strings. Bare numbers and
// literals are left to be treated as prose.
func parseJSON(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[' && s[0] != '"') {
		return nil, false
	}
	var data any
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, false
	}
	return data, true
}
