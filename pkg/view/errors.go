package view

import "errors"

var (
	// ErrInvalidOperation is returned when a caller tries to mutate the view
	// itself rather than its source, or the source is read-only.
	ErrInvalidOperation = errors.New("view: invalid operation on a read-only projection")
	// ErrArgumentOutOfRange is returned for positional access outside the view.
	ErrArgumentOutOfRange = errors.New("view: index out of range")
	// ErrNotSupported is returned for structural operations the view does not
	// implement; mutate the source instead.
	ErrNotSupported = errors.New("view: operation not supported")
	// ErrNotComparable is returned when a sort key resolves to a type with no
	// natural ordering and no custom Compare function.
	ErrNotComparable = errors.New("view: value has no natural ordering")
	// ErrUnknownField is returned when a sort key names a field that the item
	// type does not have.
	ErrUnknownField = errors.New("view: unknown field")
)
