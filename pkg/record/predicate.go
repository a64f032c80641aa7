package record

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidPredicate is returned when a predicate cannot be compiled.
var ErrInvalidPredicate = errors.New("invalid predicate")

// Op is a comparison operator in a FieldPredicate.
type Op string

const (
	OpEq       Op = "eq"
	OpNe       Op = "ne"
	OpLt       Op = "lt"
	OpLe       Op = "le"
	OpGt       Op = "gt"
	OpGe       Op = "ge"
	OpContains Op = "contains"
)

// IsValid returns true if the op is recognized.
func (o Op) IsValid() bool {
	switch o {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpContains:
		return true
	}
	return false
}

func (o Op) ordered() bool {
	switch o {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// holds maps a three-way comparison result onto the operator.
func (o Op) holds(c int) bool {
	switch o {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// FieldPredicate is a declarative filter condition, e.g. status eq open or
// priority le 2. Predicates are usually built from config.
type FieldPredicate struct {
	Field string `yaml:"field" json:"field"`
	Op    Op     `yaml:"op" json:"op"`
	Value string `yaml:"value" json:"value"`
}

func (p FieldPredicate) String() string {
	return fmt.Sprintf("%s %s %q", p.Field, p.Op, p.Value)
}

// Compile turns the predicate into a test function.
//
// Strings compare lexically; contains is a case-insensitive substring match.
// Priority values parse as integers and time values as RFC 3339 or
// YYYY-MM-DD. On Labels, eq and contains test membership and ne tests absence.
func (p FieldPredicate) Compile() (func(*Record) bool, error) {
	field, err := CanonicalField(p.Field)
	if err != nil {
		return nil, fmt.Errorf("predicate %s: %w", p, err)
	}
	if !p.Op.IsValid() {
		return nil, fmt.Errorf("%w: %s: unknown op %q", ErrInvalidPredicate, p, p.Op)
	}

	switch field {
	case FieldID, FieldTitle, FieldStatus:
		get := stringGetter(field)
		if p.Op == OpContains {
			needle := strings.ToLower(p.Value)
			return func(r *Record) bool { return strings.Contains(strings.ToLower(get(r)), needle) }, nil
		}
		op, want := p.Op, p.Value
		return func(r *Record) bool { return op.holds(strings.Compare(get(r), want)) }, nil

	case FieldPriority:
		if p.Op == OpContains {
			return nil, fmt.Errorf("%w: %s: contains does not apply to priority", ErrInvalidPredicate, p)
		}
		want, err := strconv.Atoi(strings.TrimSpace(p.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPredicate, p, err)
		}
		op := p.Op
		return func(r *Record) bool { return op.holds(cmp.Compare(r.Priority, want)) }, nil

	case FieldCreatedAt, FieldUpdatedAt:
		if p.Op == OpContains {
			return nil, fmt.Errorf("%w: %s: contains does not apply to times", ErrInvalidPredicate, p)
		}
		want, err := parseTime(p.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPredicate, p, err)
		}
		op := p.Op
		created := field == FieldCreatedAt
		return func(r *Record) bool {
			t := r.UpdatedAt
			if created {
				t = r.CreatedAt
			}
			return op.holds(t.Compare(want))
		}, nil

	case FieldLabels:
		if p.Op.ordered() {
			return nil, fmt.Errorf("%w: %s: labels are unordered", ErrInvalidPredicate, p)
		}
		label := p.Value
		if p.Op == OpNe {
			return func(r *Record) bool { return !r.HasLabel(label) }, nil
		}
		return func(r *Record) bool { return r.HasLabel(label) }, nil
	}
	return nil, fmt.Errorf("predicate %s: %w", p, ErrUnknownField)
}

// CompileAll ANDs the predicates together. It also returns the canonical
// fields they read, which a live-shaping view should observe. A nil filter
// means no predicates.
func CompileAll(preds []FieldPredicate) (filter func(*Record) bool, fields []string, err error) {
	if len(preds) == 0 {
		return nil, nil, nil
	}
	tests := make([]func(*Record) bool, 0, len(preds))
	for _, p := range preds {
		fn, err := p.Compile()
		if err != nil {
			return nil, nil, err
		}
		tests = append(tests, fn)
		f, _ := CanonicalField(p.Field)
		if !slices.Contains(fields, f) {
			fields = append(fields, f)
		}
	}
	filter = func(r *Record) bool {
		for _, t := range tests {
			if !t(r) {
				return false
			}
		}
		return true
	}
	return filter, fields, nil
}

// Fields returns the canonical field the predicate reads, or nil when the
// field is unknown.
func (p FieldPredicate) Fields() []string {
	f, err := CanonicalField(p.Field)
	if err != nil {
		return nil
	}
	return []string{f}
}

func stringGetter(field string) func(*Record) string {
	switch field {
	case FieldID:
		return func(r *Record) string { return r.ID }
	case FieldTitle:
		return func(r *Record) string { return r.Title }
	default:
		return func(r *Record) string { return r.Status }
	}
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
