// Package params extracts named, typed arguments from a raw call payload.
//
// A payload is a map from parameter name to an opaque value produced by
// whatever wire codec decoded the request (JSON, CBOR, or a Go literal in
// tests). Each getter coerces the raw value to one primitive shape and
// returns either the value or a classified *Error. Coercion never panics:
// anything it cannot interpret becomes a KindTypeMismatch error.
package params

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind classifies a parameter failure.
type Kind string

const (
	// KindMissing means the parameter was absent and no default was given.
	KindMissing Kind = "MISSING_PARAMETER"

	// KindTypeMismatch means the parameter was present but not coercible.
	KindTypeMismatch Kind = "TYPE_MISMATCH"
)

// Sentinels for errors.Is matching against *Error.
var (
	ErrMissing      = errors.New("missing parameter")
	ErrTypeMismatch = errors.New("parameter type mismatch")
)

// Error is the single parameter error type. Both kinds map to the same wire
// error code, so callers normally only need IsParameterError.
type Error struct {
	Kind Kind
	Name string
	Want string
	Got  any
}

func (e *Error) Error() string {
	if e.Kind == KindMissing {
		return fmt.Sprintf("missing parameter %q", e.Name)
	}
	return fmt.Sprintf("parameter %q: cannot use %T as %s", e.Name, e.Got, e.Want)
}

// Is lets errors.Is match the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissing:
		return e.Kind == KindMissing
	case ErrTypeMismatch:
		return e.Kind == KindTypeMismatch
	}
	return false
}

// IsParameterError reports whether err (or anything it wraps) is an *Error.
func IsParameterError(err error) bool {
	var pe *Error
	return errors.As(err, &pe)
}

// Params is the raw parameter map of one call. Unknown keys are ignored.
// A key present with a nil value is treated as absent.
type Params map[string]any

func (p Params) lookup(name string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func missing(name string) *Error {
	return &Error{Kind: KindMissing, Name: name}
}

func mismatch(name, want string, got any) *Error {
	return &Error{Kind: KindTypeMismatch, Name: name, Want: want, Got: got}
}

// String returns the named parameter as a string.
func (p Params) String(name string) (string, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return "", missing(name)
	}
	return toString(name, raw)
}

// StringOr is String with a default for an absent parameter.
func (p Params) StringOr(name, def string) (string, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	return toString(name, raw)
}

// Int returns the named parameter as an int64.
func (p Params) Int(name string) (int64, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return 0, missing(name)
	}
	return toInt(name, raw)
}

// IntOr is Int with a default for an absent parameter.
func (p Params) IntOr(name string, def int64) (int64, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	return toInt(name, raw)
}

// Bool returns the named parameter as a bool.
func (p Params) Bool(name string) (bool, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return false, missing(name)
	}
	return toBool(name, raw)
}

// BoolOr is Bool with a default for an absent parameter.
func (p Params) BoolOr(name string, def bool) (bool, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	return toBool(name, raw)
}

// Bytes returns the named parameter as a byte slice. Text values are
// decoded as standard base64, padded or not.
func (p Params) Bytes(name string) ([]byte, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return nil, missing(name)
	}
	return toBytes(name, raw)
}

// BytesOr is Bytes with a default for an absent parameter.
func (p Params) BytesOr(name string, def []byte) ([]byte, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	return toBytes(name, raw)
}

// Ints returns the named parameter as a slice of int64.
func (p Params) Ints(name string) ([]int64, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return nil, missing(name)
	}
	return toInts(name, raw)
}

// IntsOr is Ints with a default for an absent parameter.
func (p Params) IntsOr(name string, def []int64) ([]int64, error) {
	raw, ok := p.lookup(name)
	if !ok {
		return def, nil
	}
	return toInts(name, raw)
}

func toString(name string, raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	}
	return "", mismatch(name, "string", raw)
}

func toInt(name string, raw any) (int64, error) {
	if n, ok := intValue(raw); ok {
		return n, nil
	}
	return 0, mismatch(name, "integer", raw)
}

// intValue converts any integral representation to int64. Floats must be
// whole numbers within range; strings must parse as base-10 integers.
func intValue(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintValue(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintValue(v)
	case float32:
		return floatValue(float64(v))
	case float64:
		return floatValue(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		if f, err := v.Float64(); err == nil {
			return floatValue(f)
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

func uintValue(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

func floatValue(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toBool(name string, raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	default:
		if n, ok := intValue(raw); ok && (n == 0 || n == 1) {
			return n == 1, nil
		}
	}
	return false, mismatch(name, "boolean", raw)
}

func toBytes(name string, raw any) ([]byte, error) {
	switch v := raw.(type) {
	case []byte:
		return v, nil
	case string:
		if b, err := base64.StdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
		if b, err := base64.RawStdEncoding.DecodeString(v); err == nil {
			return b, nil
		}
		return nil, mismatch(name, "base64 bytes", raw)
	case []any:
		// Some encoders render byte arrays as lists of small integers.
		out := make([]byte, len(v))
		for i, elem := range v {
			n, ok := intValue(elem)
			if !ok || n < 0 || n > math.MaxUint8 {
				return nil, mismatch(name, "bytes", raw)
			}
			out[i] = byte(n)
		}
		return out, nil
	}
	return nil, mismatch(name, "bytes", raw)
}

func toInts(name string, raw any) ([]int64, error) {
	switch v := raw.(type) {
	case []int64:
		return v, nil
	case []int:
		out := make([]int64, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out, nil
	case []int32:
		out := make([]int64, len(v))
		for i, n := range v {
			out[i] = int64(n)
		}
		return out, nil
	case []any:
		out := make([]int64, len(v))
		for i, elem := range v {
			n, ok := intValue(elem)
			if !ok {
				return nil, mismatch(name, "integer array", raw)
			}
			out[i] = n
		}
		return out, nil
	}
	return nil, mismatch(name, "integer array", raw)
}
