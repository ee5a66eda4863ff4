package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// KeySeparator joins the operation name and the serialized parameters.
const KeySeparator = ":"

// Params is the flat parameter mapping of a cached operation.
// Values must be JSON serializable.
type Params map[string]any

// KeyBuilder builds a cache key from an operation name and its parameters.
// Implementations must return identical keys for parameter maps holding the
// same name/value pairs.
type KeyBuilder interface {
	BuildKey(operation string, params Params) (string, error)
}

// KeySerializationError reports a parameter that could not be serialized.
type KeySerializationError struct {
	Operation string
	Param     string
	Err       error
}

// Error implements the error interface.
func (e *KeySerializationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("cache key for %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("cache key for %s: param %q: %v", e.Operation, e.Param, e.Err)
}

// Unwrap returns the underlying serialization error.
func (e *KeySerializationError) Unwrap() error {
	return e.Err
}

type jsonKeyBuilder struct{}

// NewKeyBuilder returns the default KeyBuilder. Parameter names are sorted and
// the ordered mapping is rendered as a JSON object, so
//
//	getTopRatedFilms + {minRating: 6, limit: 10}
//
// becomes
//
//	getTopRatedFilms:{"limit":10,"minRating":6}
//
// Nil and empty params both render as {}.
func NewKeyBuilder() KeyBuilder {
	return jsonKeyBuilder{}
}

func (jsonKeyBuilder) BuildKey(operation string, params Params) (string, error) {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(operation)
	b.WriteString(KeySeparator)
	b.WriteByte('{')

	for i, name := range names {
		value, err := json.Marshal(params[name])
		if err != nil {
			return "", &KeySerializationError{Operation: operation, Param: name, Err: err}
		}
		// marshaling a string cannot fail
		encodedName, _ := json.Marshal(name)

		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(encodedName)
		b.WriteByte(':')
		b.Write(value)
	}

	b.WriteByte('}')
	return b.String(), nil
}

var errNotAnObject = errors.New("params must encode to a JSON object")

// ParamsFrom converts a parameter struct (or map) into Params using its JSON
// encoding, so json tags name the parameters and omitempty drops them.
// Numbers are kept as json.Number to avoid float rounding in keys.
func ParamsFrom(v any) (Params, error) {
	if v == nil {
		return Params{}, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, &KeySerializationError{Operation: fmt.Sprintf("%T", v), Err: err}
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return Params{}, nil
	}
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &KeySerializationError{Operation: fmt.Sprintf("%T", v), Err: errNotAnObject}
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	params := Params{}
	if err := decoder.Decode(&params); err != nil {
		return nil, &KeySerializationError{Operation: fmt.Sprintf("%T", v), Err: err}
	}
	return params, nil
}
