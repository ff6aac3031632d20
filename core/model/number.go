package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float64 that tolerates the loose encodings emitted by the
// backend: JSON numbers, numeric strings, null or a missing key. Values that
// cannot be parsed decode as zero instead of failing the whole document.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 { return float64(n) }
