// Package record defines the item type shown by the lv browser.
//
// A Record reports changes to its own fields through observable.FieldChanges,
// so a live-shaping view re-sorts or re-filters it when a reload updates it in
// place.
package record

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/vanderheijden86/liveview/pkg/observable"
)

// ErrUnknownField is returned for a field name that Record does not have.
var ErrUnknownField = errors.New("unknown record field")

// Canonical field names. Field notifications and sort keys use these.
const (
	FieldID        = "ID"
	FieldTitle     = "Title"
	FieldStatus    = "Status"
	FieldPriority  = "Priority"
	FieldLabels    = "Labels"
	FieldCreatedAt = "CreatedAt"
	FieldUpdatedAt = "UpdatedAt"
)

// Fields lists the canonical field names in display order.
var Fields = []string{FieldID, FieldTitle, FieldStatus, FieldPriority, FieldLabels, FieldCreatedAt, FieldUpdatedAt}

var fieldAliases = map[string]string{
	"id":         FieldID,
	"title":      FieldTitle,
	"status":     FieldStatus,
	"priority":   FieldPriority,
	"labels":     FieldLabels,
	"createdat":  FieldCreatedAt,
	"created_at": FieldCreatedAt,
	"updatedat":  FieldUpdatedAt,
	"updated_at": FieldUpdatedAt,
}

// CanonicalField maps a field name as written in config or JSON ("status",
// "created_at", "Priority") to its canonical form.
func CanonicalField(name string) (string, error) {
	if f, ok := fieldAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Record is one row of a JSONL file or of the SQLite records table.
type Record struct {
	observable.FieldChanges `json:"-"`

	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status,omitempty"`
	Priority  int       `json:"priority"`
	Labels    []string  `json:"labels,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy without subscribers.
func (r *Record) Clone() *Record {
	return &Record{
		ID:        r.ID,
		Title:     r.Title,
		Status:    r.Status,
		Priority:  r.Priority,
		Labels:    slices.Clone(r.Labels),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SetTitle updates Title and notifies subscribers if it changed.
func (r *Record) SetTitle(title string) {
	if r.Title == title {
		return
	}
	r.Title = title
	r.NotifyFieldChanged(FieldTitle)
}

// SetStatus updates Status and notifies subscribers if it changed.
func (r *Record) SetStatus(status string) {
	if r.Status == status {
		return
	}
	r.Status = status
	r.NotifyFieldChanged(FieldStatus)
}

// SetPriority updates Priority and notifies subscribers if it changed.
func (r *Record) SetPriority(p int) {
	if r.Priority == p {
		return
	}
	r.Priority = p
	r.NotifyFieldChanged(FieldPriority)
}

// SetLabels updates Labels and notifies subscribers if they changed.
func (r *Record) SetLabels(labels []string) {
	if slices.Equal(r.Labels, labels) {
		return
	}
	r.Labels = slices.Clone(labels)
	r.NotifyFieldChanged(FieldLabels)
}

// SetUpdatedAt updates UpdatedAt and notifies subscribers if it changed.
func (r *Record) SetUpdatedAt(t time.Time) {
	if r.UpdatedAt.Equal(t) {
		return
	}
	r.UpdatedAt = t
	r.NotifyFieldChanged(FieldUpdatedAt)
}

// Apply copies every mutable field from other, notifying once per field that
// actually changed, and returns the changed field names. ID and CreatedAt are
// identity and are left alone.
func (r *Record) Apply(other *Record) []string {
	var changed []string
	track := func(field string, differs bool, set func()) {
		if differs {
			set()
			changed = append(changed, field)
		}
	}
	track(FieldTitle, r.Title != other.Title, func() { r.SetTitle(other.Title) })
	track(FieldStatus, r.Status != other.Status, func() { r.SetStatus(other.Status) })
	track(FieldPriority, r.Priority != other.Priority, func() { r.SetPriority(other.Priority) })
	track(FieldLabels, !slices.Equal(r.Labels, other.Labels), func() { r.SetLabels(other.Labels) })
	track(FieldUpdatedAt, !r.UpdatedAt.Equal(other.UpdatedAt), func() { r.SetUpdatedAt(other.UpdatedAt) })
	return changed
}

// Field returns the value of a canonical field.
func (r *Record) Field(name string) (any, error) {
	switch name {
	case FieldID:
		return r.ID, nil
	case FieldTitle:
		return r.Title, nil
	case FieldStatus:
		return r.Status, nil
	case FieldPriority:
		return r.Priority, nil
	case FieldLabels:
		return r.Labels, nil
	case FieldCreatedAt:
		return r.CreatedAt, nil
	case FieldUpdatedAt:
		return r.UpdatedAt, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// HasLabel reports whether the record carries label.
func (r *Record) HasLabel(label string) bool {
	return slices.Contains(r.Labels, label)
}

// Validate checks the fields a loaded record must have.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.New("record ID cannot be empty")
	}
	if r.Priority < 0 {
		return fmt.Errorf("record %s: priority must be non-negative, got %d", r.ID, r.Priority)
	}
	if !r.CreatedAt.IsZero() && !r.UpdatedAt.IsZero() && r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("record %s: updated_at before created_at", r.ID)
	}
	return nil
}
