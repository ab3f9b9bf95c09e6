package smelt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// CoerceError is a scalar coercion failure. The engine wraps it with
// the current path and offending input before it reaches the report.
type CoerceError struct {
	Kind    ErrorKind
	Message string
}

// Coercer is the scalar coercion collaborator. Coerce converts input to
// the canonical representation of the given scalar kind, or explains
// why it cannot. Implementations must be safe for concurrent use.
type Coercer interface {
	Coerce(kind NodeKind, input any) (any, *CoerceError)
}

// LaxCoercer is the default scalar collaborator. It converts
// compatible representations (numeric strings to ints, ints to floats,
// epoch numbers to datetimes) rather than matching types strictly.
// Canonical outputs are nil, bool, int64, float64, string and
// time.Time, so re-validating a converted value succeeds.
type LaxCoercer struct{}

func (LaxCoercer) Coerce(kind NodeKind, input any) (any, *CoerceError) {
	switch kind {
	case KindAny:
		return input, nil
	case KindNone:
		if input == nil {
			return nil, nil
		}
		return nil, &CoerceError{Kind: ErrNoneRequired, Message: "Value must be None/null"}
	case KindBool:
		return coerceBool(input)
	case KindInt:
		return coerceInt(input)
	case KindFloat:
		return coerceFloat(input)
	case KindStr:
		return coerceStr(input)
	case KindDatetime:
		return coerceDatetime(input)
	default:
		panic(fmt.Sprintf("LaxCoercer: non-scalar kind %s", kind))
	}
}

func coerceBool(input any) (any, *CoerceError) {
	switch v := input.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true", "yes", "on", "1":
			return true, nil
		case "false", "no", "off", "0":
			return false, nil
		}
		return nil, &CoerceError{Kind: ErrBoolParsing, Message: "Value must be a valid boolean, unable to interpret input"}
	case int, int64:
		switch asInt64(v) {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	case float64:
		switch v {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
	}
	return nil, &CoerceError{Kind: ErrBoolType, Message: "Value must be a valid boolean"}
}

func coerceInt(input any) (any, *CoerceError) {
	switch v := input.(type) {
	case int, int8, int16, int32, int64:
		return asInt64(v), nil
	case uint, uint8, uint16, uint32, uint64:
		u := asUint64(v)
		if u > math.MaxInt64 {
			return nil, &CoerceError{Kind: ErrIntParsing, Message: "Value must be a valid integer, value is out of range"}
		}
		return int64(u), nil
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, &CoerceError{Kind: ErrIntFromFloat, Message: "Value must be a valid integer, got a number with a fractional part"}
		}
		return int64(v), nil
	case float32:
		return coerceInt(float64(v))
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return n, nil
		}
		return nil, &CoerceError{Kind: ErrIntParsing, Message: "Value must be a valid integer, unable to parse string as an integer"}
	}
	return nil, &CoerceError{Kind: ErrIntType, Message: "Value must be a valid integer"}
}

func coerceFloat(input any) (any, *CoerceError) {
	switch v := input.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int, int8, int16, int32, int64:
		return float64(asInt64(v)), nil
	case uint, uint8, uint16, uint32, uint64:
		return float64(asUint64(v)), nil
	case bool:
		if v {
			return float64(1), nil
		}
		return float64(0), nil
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, nil
		}
		return nil, &CoerceError{Kind: ErrFloatParsing, Message: "Value must be a valid number, unable to parse string as a number"}
	}
	return nil, &CoerceError{Kind: ErrFloatType, Message: "Value must be a valid number"}
}

func coerceStr(input any) (any, *CoerceError) {
	switch v := input.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int, int8, int16, int32, int64:
		return strconv.FormatInt(asInt64(v), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(asUint64(v), 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	}
	return nil, &CoerceError{Kind: ErrStrType, Message: "Value must be a valid string"}
}

// datetimeLayouts are tried in order for string inputs. strftime-style,
// parsed with timefmt.
var datetimeLayouts = []string{
	"%Y-%m-%dT%H:%M:%S.%f%z",
	"%Y-%m-%dT%H:%M:%S%z",
	"%Y-%m-%dT%H:%M:%S.%f",
	"%Y-%m-%dT%H:%M:%S",
	"%Y-%m-%d %H:%M:%S",
	"%Y-%m-%d",
}

func coerceDatetime(input any) (any, *CoerceError) {
	switch v := input.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		// a trailing Z is UTC shorthand that %z does not cover
		if strings.HasSuffix(s, "Z") {
			s = strings.TrimSuffix(s, "Z")
		}
		for _, layout := range datetimeLayouts {
			if t, err := timefmt.Parse(s, layout); err == nil {
				return t, nil
			}
		}
		return nil, &CoerceError{Kind: ErrDatetimeParsing, Message: "Value must be a valid datetime, unable to parse string as a datetime"}
	case int, int64:
		return time.Unix(asInt64(v), 0).UTC(), nil
	case float64:
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), nil
	}
	return nil, &CoerceError{Kind: ErrDatetimeType, Message: "Value must be a valid datetime"}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	default:
		panic(fmt.Sprintf("asInt64: %T", v))
	}
}

func asUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	default:
		panic(fmt.Sprintf("asUint64: %T", v))
	}
}
