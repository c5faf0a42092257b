package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// FieldType names the type a raw filter value is parsed into before comparison.
type FieldType string

const (
	FieldTypeBoolean   FieldType = "BOOLEAN"
	FieldTypeTimestamp FieldType = "TIMESTAMP"
	FieldTypeDate      FieldType = "DATE"
	FieldTypeDouble    FieldType = "DOUBLE"
	FieldTypeInteger   FieldType = "INTEGER"
	FieldTypeLong      FieldType = "LONG"
	FieldTypeString    FieldType = "STRING"
)

// FieldTypes lists every supported field type.
var FieldTypes = []FieldType{
	FieldTypeBoolean,
	FieldTypeTimestamp,
	FieldTypeDate,
	FieldTypeDouble,
	FieldTypeInteger,
	FieldTypeLong,
	FieldTypeString,
}

// Normalize upper-cases the type name so that "date" and "DATE" are equivalent.
func (t FieldType) Normalize() FieldType {
	return FieldType(strings.ToUpper(strings.TrimSpace(string(t))))
}

// Valid reports whether t is one of FieldTypes.
func (t FieldType) Valid() bool {
	switch t {
	case FieldTypeBoolean, FieldTypeTimestamp, FieldTypeDate,
		FieldTypeDouble, FieldTypeInteger, FieldTypeLong, FieldTypeString:
		return true
	}
	return false
}

// Numeric reports whether values of t are compared as numbers.
func (t FieldType) Numeric() bool {
	return t == FieldTypeDouble || t == FieldTypeInteger || t == FieldTypeLong
}

// Coercion selects how parse failures are treated.
type Coercion int

const (
	// CoercionLenient never fails: numeric failures fall back to the raw string,
	// date and time failures to nil, and anything but "true" is a false boolean.
	CoercionLenient Coercion = iota
	// CoercionStrict rejects any value that does not parse as its declared type.
	CoercionStrict
)

func (c Coercion) String() string {
	if c == CoercionStrict {
		return "strict"
	}
	return "lenient"
}

// ParseCoercion parses "strict" or "lenient".
func ParseCoercion(s string) (Coercion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lenient":
		return CoercionLenient, nil
	case "strict":
		return CoercionStrict, nil
	}
	return CoercionLenient, errors.Errorf("unknown coercion mode %q", s)
}

const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05.999999999"
)

var (
	dateLayouts      = []string{DateLayout, "2006-1-2"}
	timestampLayouts = []string{TimestampLayout, "2006-1-2 15:04:05.999999999", time.RFC3339Nano}
)

// Parse parses raw as t. Any mismatch is a CoercionFailure.
func (t FieldType) Parse(raw string) (any, error) {
	switch t {
	case FieldTypeBoolean:
		switch {
		case strings.EqualFold(raw, "true"):
			return true, nil
		case strings.EqualFold(raw, "false"):
			return false, nil
		}
		return nil, coercionFailure(t, raw, errors.New("expected true or false"))

	case FieldTypeTimestamp:
		ts, err := parseTime(raw, timestampLayouts)
		if err != nil {
			return nil, coercionFailure(t, raw, err)
		}
		return ts, nil

	case FieldTypeDate:
		d, err := parseTime(raw, dateLayouts)
		if err != nil {
			return nil, coercionFailure(t, raw, err)
		}
		return datatypes.Date(d), nil

	case FieldTypeDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, coercionFailure(t, raw, err)
		}
		return f, nil

	case FieldTypeInteger:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return nil, coercionFailure(t, raw, err)
		}
		return int32(i), nil

	case FieldTypeLong:
		i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, coercionFailure(t, raw, err)
		}
		return i, nil

	case FieldTypeString:
		return raw, nil
	}
	return nil, &FilterError{Kind: ErrInvalidRequest, Err: errors.Errorf("unknown field type %q", string(t))}
}

// ParseLenient parses raw as t without ever failing. The returned parseErr only
// describes what went wrong so that callers can log it.
func (t FieldType) ParseLenient(raw string) (value any, parseErr error) {
	if t == FieldTypeBoolean {
		return strings.EqualFold(raw, "true"), nil
	}
	v, err := t.Parse(raw)
	if err == nil {
		return v, nil
	}
	if t == FieldTypeTimestamp || t == FieldTypeDate {
		return nil, err
	}
	return raw, err
}

// Coerce parses raw under the given coercion mode.
func (t FieldType) Coerce(raw string, mode Coercion) (value any, parseErr error, err error) {
	if mode == CoercionStrict {
		v, err := t.Parse(raw)
		return v, nil, err
	}
	if !t.Valid() {
		_, err := t.Parse(raw)
		return nil, nil, err
	}
	v, parseErr := t.ParseLenient(raw)
	return v, parseErr, nil
}

func parseTime(raw string, layouts []string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range layouts {
		v, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func coercionFailure(t FieldType, raw string, cause error) error {
	return &FilterError{
		Kind: ErrCoercionFailure,
		Err:  errors.Wrapf(cause, "cannot parse %q as %s", raw, t),
	}
}

// Stringify renders a decoded scalar the way it was written on the wire.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case datatypes.Date:
		return time.Time(x).Format(DateLayout)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// InferFieldType picks the field type of a decoded scalar when the request does not declare one.
func InferFieldType(v any) FieldType {
	switch x := v.(type) {
	case bool:
		return FieldTypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return FieldTypeLong
	case float32:
		return inferFloat(float64(x))
	case float64:
		return inferFloat(x)
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return FieldTypeLong
		}
		return FieldTypeDouble
	case time.Time:
		return FieldTypeTimestamp
	case datatypes.Date:
		return FieldTypeDate
	}
	return FieldTypeString
}

func inferFloat(f float64) FieldType {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return FieldTypeLong
	}
	return FieldTypeDouble
}
