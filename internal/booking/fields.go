// Package booking implements the appointment booking webhook: fuzzy field
// extraction from agent payloads, slot capacity checks against the calendar,
// and conditional event creation.
package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrBadJSON is returned when the request body is not a JSON object.
var ErrBadJSON = errors.New("body is not a JSON object")

// keyFolder strips the accents the French-speaking agents actually send and
// removes separator characters. Deliberately narrow: not full Unicode folding.
var keyFolder = strings.NewReplacer(
	"é", "e", "è", "e", "ê", "e",
	"à", "a", "â", "a",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u",
	"ç", "c",
	" ", "", "_", "", "-", "",
)

// NormalizeKey canonicalizes a field name for fuzzy matching: lowercase,
// accents folded, space/underscore/hyphen removed. Total and idempotent.
func NormalizeKey(s string) string {
	if s == "" {
		return ""
	}
	return keyFolder.Replace(strings.ToLower(s))
}

// KV is a single key/value pair from the inbound payload.
type KV struct {
	Key   string
	Value any
}

// Record is the inbound booking payload with the caller's key order
// preserved. Order matters: when several keys normalize to the same synonym,
// the first one in the payload wins.
type Record []KV

// ParseRecord decodes a JSON object while keeping key order. Anything that is
// not a JSON object (arrays, scalars, garbage) yields ErrBadJSON.
func ParseRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, ErrBadJSON
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrBadJSON
	}

	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, ErrBadJSON
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, ErrBadJSON
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, ErrBadJSON
		}
		rec = append(rec, KV{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, ErrBadJSON
	}
	return rec, nil
}

// Extract returns the value of the first synonym present in the record, or
// def when none matches. Synonyms are a priority list: only the first key
// matching a synonym is consulted, and a matched key whose value is empty
// moves extraction to the NEXT SYNONYM, never to later keys of the same
// synonym. Callers rely on that precedence; do not change it.
func (r Record) Extract(synonyms []string, def string) string {
	for _, syn := range synonyms {
		want := NormalizeKey(syn)
		for _, kv := range r {
			if NormalizeKey(kv.Key) != want {
				continue
			}
			if val := stringValue(kv.Value); val != "" {
				return val
			}
			break
		}
	}
	return def
}

// stringValue renders a payload value as a trimmed string. Empty strings,
// nulls, zero numbers and false all collapse to "" so extraction can fall
// through to the next synonym. Objects and arrays have no useful string
// rendering and collapse too, even when non-empty.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		if f, err := val.Float64(); err == nil && f == 0 {
			return ""
		}
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return ""
	default:
		return ""
	}
}
