package power

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Optional is a float64 that is either present or absent. The zero value is absent.
type Optional struct {
	value float64
	set   bool
}

// Some returns a present value
func Some(v float64) Optional {
	return Optional{value: v, set: true}
}

// None returns an absent value
func None() Optional {
	return Optional{}
}

// Get returns the value and whether it is present
func (o Optional) Get() (float64, bool) {
	return o.value, o.set
}

// IsSet reports whether the value is present
func (o Optional) IsSet() bool {
	return o.set
}

// OrElse returns the value if present, otherwise def
func (o Optional) OrElse(def float64) float64 {
	if o.set {
		return o.value
	}
	return def
}

func (o Optional) String() string {
	if !o.set {
		return "none"
	}
	return strconv.FormatFloat(o.value, 'g', -1, 64)
}

// MarshalJSON encodes an absent value as null
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON decodes null as absent
func (o *Optional) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
