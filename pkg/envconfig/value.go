package envconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which member of the Value union is populated.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNull
	KindObject
	KindArray
)

// KindJSON is the requested-type spelling for structured lookups. Coercion
// produces whatever kind the JSON text denotes, so a default of any kind
// satisfies it.
const KindJSON Kind = -1

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Member is a single object entry. Member order matches the source text.
type Member struct {
	Name  string
	Value Value
}

// Value is an immutable tagged union over the shapes a configuration value
// can take: string, finite number, bool, null, object, or array.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	obj  []Member
	arr  []Value
}

// String constructs a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number constructs a number Value. The argument must be finite.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool constructs a bool Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Null constructs a null Value.
func Null() Value { return Value{kind: KindNull} }

// Object constructs an object Value preserving member order.
func Object(members ...Member) Value {
	return Value{kind: KindObject, obj: slices.Clone(members)}
}

// Array constructs an array Value.
func Array(elems ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(elems)}
}

// Kind reports which union member is populated.
func (v Value) Kind() Kind { return v.kind }

// Text returns the string member, or "" when the kind differs.
func (v Value) Text() string { return v.str }

// Float returns the number member, or 0 when the kind differs.
func (v Value) Float() float64 { return v.num }

// Bool returns the bool member, or false when the kind differs.
func (v Value) Bool() bool { return v.b }

// Members returns a copy of the object members, or nil when the kind differs.
func (v Value) Members() []Member { return slices.Clone(v.obj) }

// Elements returns a copy of the array elements, or nil when the kind differs.
func (v Value) Elements() []Value { return slices.Clone(v.arr) }

// Interface converts the value into untyped Go data: string, float64, bool,
// nil, map[string]any (member order is lost), or []any. It is the only escape
// hatch out of the typed union.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindNull:
		return nil
	case KindObject:
		m := make(map[string]any, len(v.obj))
		for _, member := range v.obj {
			m[member.Name] = member.Value.Interface()
		}
		return m
	case KindArray:
		s := make([]any, len(v.arr))
		for i, elem := range v.arr {
			s[i] = elem.Interface()
		}
		return s
	default:
		return nil
	}
}

// String renders the value in a compact JSON-like form for logs and error
// messages.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNull:
		return "null"
	case KindObject:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, member := range v.obj {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(member.Name))
			sb.WriteByte(':')
			sb.WriteString(member.Value.String())
		}
		sb.WriteByte('}')
		return sb.String()
	case KindArray:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, elem := range v.arr {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(elem.String())
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return "<invalid>"
	}
}

// ParseNumber coerces a raw string into a finite float64.
func ParseNumber(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%q is not a finite number", raw)
	}
	return f, nil
}

// ParseBool coerces a raw string into a bool. Accepted spellings are
// case-insensitive: true/1/yes/y and false/0/no/n.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", raw)
	}
}

// ParseJSON decodes a raw string into a Value tree. Object member order is
// preserved and all numbers must be finite.
func ParseJSON(raw string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("invalid JSON: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("invalid JSON: trailing data after value")
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var members []Member
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is not a string: %v", keyTok)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				members = append(members, Member{Name: key, Value: val})
			}
			// Consume the closing brace.
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members...), nil
		case '[':
			var elems []Value
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(elems...), nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t.String())
		}
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, fmt.Errorf("number %s is out of range", t.String())
		}
		return Number(f), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}
