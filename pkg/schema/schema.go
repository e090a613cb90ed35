// Package schema validates decoded JSON documents against composable rules
// and reports every violation at once, each tagged with its dotted path.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	pkgerrors "github.com/article39/artist-platform-backend/pkg/errors"
)

const (
	MsgRequired = "This field is required."
	MsgNumber   = "must be a number"
	MsgString   = "must be a string"
	MsgObject   = "must be an object"
	MsgList     = "must be a list"
	MsgNotEmpty = "may not be empty"
)

// Violation is a single failed rule.
type Violation struct {
	Path    string
	Message string
}

func (v *Violation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return fmt.Sprintf("(%s) %s", v.Path, v.Message)
}

func violation(path, message string) error {
	return &Violation{Path: path, Message: message}
}

// Rule checks value found at path. Rules return nil, a *Violation or a
// multierr combination of violations.
type Rule interface {
	Check(path string, value any) error
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(path string, value any) error

func (f RuleFunc) Check(path string, value any) error { return f(path, value) }

// Field is one key of an Object rule.
type Field struct {
	Name     string
	Rule     Rule
	Optional bool
}

// Required declares a key that must be present and non-null.
func Required(name string, rule Rule) Field {
	return Field{Name: name, Rule: rule}
}

// Optional declares a key that is only checked when present and non-null.
func Optional(name string, rule Rule) Field {
	return Field{Name: name, Rule: rule, Optional: true}
}

// Object requires a JSON object and applies each field rule. Unknown keys are
// ignored.
func Object(fields ...Field) Rule {
	return RuleFunc(func(path string, value any) error {
		obj, ok := value.(map[string]any)
		if !ok {
			return violation(path, MsgObject)
		}
		var errs error
		for _, f := range fields {
			child := Join(path, f.Name)
			raw, present := obj[f.Name]
			if !present || raw == nil {
				if !f.Optional {
					errs = multierr.Append(errs, violation(child, MsgRequired))
				}
				continue
			}
			if f.Rule != nil {
				errs = multierr.Append(errs, f.Rule.Check(child, raw))
			}
		}
		return errs
	})
}

// Numbers is shorthand for an object whose listed keys are all required numbers.
func Numbers(names ...string) Rule {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Required(name, Number()))
	}
	return Object(fields...)
}

// Extend merges the fields of several objects into one rule.
func Extend(groups ...[]Field) Rule {
	var all []Field
	for _, g := range groups {
		all = append(all, g...)
	}
	return Object(all...)
}

// NumberFields returns required number fields for use with Extend.
func NumberFields(names ...string) []Field {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Required(name, Number()))
	}
	return fields
}

// List requires a JSON array and applies item to every element, indexing the
// path as "key.0", "key.1".
func List(item Rule) Rule {
	return RuleFunc(func(path string, value any) error {
		items, ok := value.([]any)
		if !ok {
			return violation(path, MsgList)
		}
		var errs error
		for i, v := range items {
			if item != nil {
				errs = multierr.Append(errs, item.Check(Join(path, fmt.Sprint(i)), v))
			}
		}
		return errs
	})
}

// NonEmptyList is List with at least one element.
func NonEmptyList(item Rule) Rule {
	list := List(item)
	return RuleFunc(func(path string, value any) error {
		if items, ok := value.([]any); ok && len(items) == 0 {
			return violation(path, MsgNotEmpty)
		}
		return list.Check(path, value)
	})
}

// Number accepts JSON numbers. Documents must be decoded with Decode so that
// numbers arrive as json.Number.
func Number() Rule {
	return RuleFunc(func(path string, value any) error {
		if _, ok := AsDecimal(value); !ok {
			return violation(path, MsgNumber)
		}
		return nil
	})
}

// String accepts any JSON string.
func String() Rule {
	return RuleFunc(func(path string, value any) error {
		if _, ok := value.(string); !ok {
			return violation(path, MsgString)
		}
		return nil
	})
}

// Text accepts a string that is not blank.
func Text() Rule {
	return RuleFunc(func(path string, value any) error {
		s, ok := value.(string)
		if !ok {
			return violation(path, MsgString)
		}
		if strings.TrimSpace(s) == "" {
			return violation(path, MsgNotEmpty)
		}
		return nil
	})
}

// Any accepts every present value.
func Any() Rule {
	return RuleFunc(func(string, any) error { return nil })
}

// Decode parses data keeping numbers as json.Number.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate runs rule against the root document. The returned error is nil or
// a validation *errors.Error whose message joins every violation in path order.
func Validate(rule Rule, doc any, root string) error {
	err := rule.Check(root, doc)
	if err == nil {
		return nil
	}
	return pkgerrors.Fields(FieldErrors(err)...)
}

// FieldErrors flattens a rule error into field errors sorted by path.
func FieldErrors(err error) []pkgerrors.FieldError {
	var out []pkgerrors.FieldError
	for _, e := range multierr.Errors(err) {
		if v, ok := e.(*Violation); ok {
			out = append(out, pkgerrors.FieldError{Field: v.Path, Message: v.Message})
			continue
		}
		out = append(out, pkgerrors.FieldError{Message: e.Error()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// AsDecimal converts a decoded JSON number to a decimal.
func AsDecimal(value any) (decimal.Decimal, bool) {
	switch n := value.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Zero, false
}

// Lookup walks dotted path through nested objects.
func Lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Join appends key to a dotted path.
func Join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
