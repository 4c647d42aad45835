package documents

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// FormData is the flat field map collected by a form. Values stay strings
// until a renderer parses them.
type FormData map[string]string

// String returns the trimmed value of key, or placeholder when it is blank.
func (f FormData) String(key, placeholder string) string {
	if v := strings.TrimSpace(f[key]); v != "" {
		return v
	}
	return placeholder
}

// Float parses key as a number. Currency symbols, commas and blanks are
// tolerated; anything unparsable or non-finite reads as 0.
func (f FormData) Float(key string) float64 {
	return ParseAmount(f[key])
}

func (f FormData) Has(key string) bool {
	return strings.TrimSpace(f[key]) != ""
}

// Merge copies updates into f. An empty value removes the field.
func (f FormData) Merge(updates map[string]string) {
	for k, v := range updates {
		if v == "" {
			delete(f, k)
			continue
		}
		f[k] = v
	}
}

// JSON decodes key as a JSON value into out and reports whether it did.
func (f FormData) JSON(key string, out interface{}) bool {
	raw := strings.TrimSpace(f[key])
	if raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// ParseAmount is the numeric reading used for every form value.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if neg {
		v = -v
	}
	return v
}
