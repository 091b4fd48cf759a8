package analytics

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// flexFloat accepts a JSON number or a numeric string such as "0.7", "NaN"
// or "Infinity". Set reports whether the field was present and non-null.
type flexFloat struct {
	Value float64
	Set   bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.Value, f.Set = parseLoose(s), true
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	f.Value, f.Set = v, true
	return nil
}

func parseLoose(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan":
		return math.NaN()
	case "infinity", "+infinity", "inf":
		return math.Inf(1)
	case "-infinity", "-inf":
		return math.Inf(-1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
