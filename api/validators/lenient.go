package validators

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Flex types never fail decoding. A value that cannot be read leaves Set
// false so the service applies its fallback default.

// FlexInt accepts JSON numbers and numeric strings. Fractions are rounded.
type FlexInt struct {
	Value int64
	Set   bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	raw, ok := scalarText(data)
	if !ok {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*f = FlexInt{Value: n, Set: true}
		return nil
	}
	if x, err := strconv.ParseFloat(raw, 64); err == nil && math.Abs(x) < 1<<62 {
		*f = FlexInt{Value: int64(math.Round(x)), Set: true}
	}
	return nil
}

// Int returns the value as an int, or zero when unset.
func (f FlexInt) Int() int {
	return int(f.Value)
}

// Ptr returns nil when the field was absent or unreadable.
func (f FlexInt) Ptr() *int64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// FlexString accepts strings, and numbers or booleans as their literal text.
type FlexString struct {
	Value string
	Set   bool
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	*f = FlexString{}
	if raw, ok := scalarText(data); ok {
		*f = FlexString{Value: raw, Set: true}
	}
	return nil
}

// Ptr returns nil when the field was absent or unreadable.
func (f FlexString) Ptr() *string {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

var flexTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// FlexTime accepts RFC 3339 and zone-less timestamps (read as UTC), or unix
// seconds or milliseconds.
type FlexTime struct {
	Value time.Time
	Set   bool
}

func (f *FlexTime) UnmarshalJSON(data []byte) error {
	*f = FlexTime{}
	raw, ok := scalarText(data)
	if !ok || raw == "" {
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
		if n >= 1e12 {
			*f = FlexTime{Value: time.UnixMilli(n).UTC(), Set: true}
		} else {
			*f = FlexTime{Value: time.Unix(n, 0).UTC(), Set: true}
		}
		return nil
	}
	for _, layout := range flexTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			*f = FlexTime{Value: t, Set: true}
			return nil
		}
	}
	return nil
}

// scalarText returns the trimmed text of a JSON string, number or boolean.
func scalarText(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '{', '[', 'n':
		return "", false
	}
	return string(data), true
}

// LenientEmail sanitizes input and blanks it when it is not an address.
func LenientEmail(input string, maxLen int) string {
	email := SanitizeString(input, maxLen)
	if email == "" || validate.Var(email, "email") != nil {
		return ""
	}
	return email
}
