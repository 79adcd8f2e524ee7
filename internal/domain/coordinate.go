package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate is a decimal degree accepted either as a JSON number or as a
// numeric string.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("coordinate %q is not numeric", raw)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("coordinate %q is not finite", raw)
	}

	*c = Coordinate(f)
	return nil
}

func (c *Coordinate) Float64() float64 {
	if c == nil {
		return 0
	}
	return float64(*c)
}

func CoordinatePtr(f float64) *Coordinate {
	c := Coordinate(f)
	return &c
}
