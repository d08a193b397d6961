// Package normalize reshapes raw response objects before typed decoding.
//
// A Table maps a field name to a Rule: rename the field, drop it, or compute a
// new value from the whole input object. Tables are registered per type tag on
// a Normalizer. Normalization is pure: the input object is never modified and
// every rule is evaluated once per object against the original input.
package normalize

import (
	"maps"
	"slices"
)

// RuleKind identifies the variant of a Rule.
type RuleKind int

const (
	// RuleRename moves a field to another name.
	RuleRename RuleKind = iota + 1
	// RuleDrop removes a field.
	RuleDrop
	// RuleCompute replaces a field's value with a computed one.
	RuleCompute
)

// ComputeFunc derives a field value from the original object.
type ComputeFunc func(obj map[string]any) any

// Rule is a per-field transform.
type Rule struct {
	kind    RuleKind
	target  string
	compute ComputeFunc
}

// Rename returns a rule moving a field to the given name.
func Rename(target string) Rule {
	return Rule{kind: RuleRename, target: target}
}

// Drop returns a rule removing a field.
func Drop() Rule {
	return Rule{kind: RuleDrop}
}

// Compute returns a rule setting a field to fn(original object).
// The field is written even when absent from the input.
func Compute(fn ComputeFunc) Rule {
	return Rule{kind: RuleCompute, compute: fn}
}

// Kind returns the rule variant.
func (r Rule) Kind() RuleKind {
	return r.kind
}

// Table maps field names to rules.
type Table map[string]Rule

// Apply returns a new object with the table applied to obj.
func (t Table) Apply(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}

	out := make(map[string]any, len(obj))

	for key, value := range obj {
		if _, ruled := t[key]; !ruled {
			out[key] = value
		}
	}

	// Sorted so that colliding renames resolve the same way every time.
	for _, key := range slices.Sorted(maps.Keys(t)) {
		rule := t[key]

		switch rule.kind {
		case RuleRename:
			if value, ok := obj[key]; ok {
				out[rule.target] = value
			}
		case RuleCompute:
			if rule.compute != nil {
				out[key] = rule.compute(obj)
			}
		case RuleDrop:
		default:
			if value, ok := obj[key]; ok {
				out[key] = value
			}
		}
	}

	return out
}

// Normalizer holds tables per type tag. It is immutable after construction
// and safe for concurrent use.
type Normalizer struct {
	tables map[string]Table
}

// New creates a normalizer from tables keyed by type tag.
func New(tables map[string]Table) *Normalizer {
	copied := make(map[string]Table, len(tables))
	for tag, table := range tables {
		copied[tag] = maps.Clone(table)
	}

	return &Normalizer{tables: copied}
}

// Has reports whether a table is registered for the tag.
func (n *Normalizer) Has(tag string) bool {
	if n == nil {
		return false
	}

	_, ok := n.tables[tag]

	return ok
}

// Normalize applies the tag's table to obj. Unknown tags and a nil
// normalizer return a shallow copy of obj.
func (n *Normalizer) Normalize(tag string, obj map[string]any) map[string]any {
	if !n.Has(tag) {
		return maps.Clone(obj)
	}

	return n.tables[tag].Apply(obj)
}

// NormalizeValue normalizes an object or every object of a list.
// Other values are returned unchanged.
func (n *Normalizer) NormalizeValue(tag string, value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return n.Normalize(tag, typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = n.NormalizeValue(tag, item)
		}

		return out
	default:
		return value
	}
}
