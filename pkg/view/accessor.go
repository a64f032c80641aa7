package view

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

// Comparable is implemented by values that define their own ordering. The
// argument is always a value of the receiver's type.
type Comparable interface {
	CompareTo(other any) int
}

var comparableType = reflect.TypeFor[Comparable]()

type orderFunc func(a, b any) int

type fieldKey struct {
	typ  reflect.Type
	name string
}

// fieldGetter reads one named field (or zero-argument method) from values of a
// single concrete type.
type fieldGetter struct {
	get func(reflect.Value) reflect.Value
	typ reflect.Type
}

// accessorCache memoizes field lookups and natural orderings by type. A cache
// lives exactly as long as one sort/observe configuration.
type accessorCache struct {
	getters map[fieldKey]*fieldGetter
	orders  map[reflect.Type]orderFunc
}

func newAccessorCache() *accessorCache {
	return &accessorCache{
		getters: make(map[fieldKey]*fieldGetter),
		orders:  make(map[reflect.Type]orderFunc),
	}
}

// getter resolves name on typ. Misses are cached too.
func (c *accessorCache) getter(typ reflect.Type, name string) (*fieldGetter, error) {
	key := fieldKey{typ: typ, name: name}
	g, ok := c.getters[key]
	if !ok {
		g = resolveGetter(typ, name)
		c.getters[key] = g
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %v has no field %q", ErrUnknownField, typ, name)
	}
	return g, nil
}

// field reads name from an item whose type is only known at run time.
func (c *accessorCache) field(item any, name string) any {
	v := reflect.ValueOf(item)
	if !v.IsValid() {
		return nil
	}
	g, err := c.getter(v.Type(), name)
	if err != nil {
		return nil
	}
	return valueOf(g.get(v))
}

// order returns the natural ordering for values of type t.
func (c *accessorCache) order(t reflect.Type) (orderFunc, error) {
	fn, ok := c.orders[t]
	if !ok {
		if natural := naturalOrder(t); natural != nil {
			fn = nilsFirst(natural)
		}
		c.orders[t] = fn
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotComparable, t)
	}
	return fn, nil
}

// compareDynamic orders values whose static type is an interface. Values of
// different dynamic types are ordered by type name; unorderable values tie.
func (c *accessorCache) compareDynamic(a, b any) int {
	if a == nil || b == nil {
		return compareNil(a, b)
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return cmp.Compare(ta.String(), tb.String())
	}
	fn, err := c.order(ta)
	if err != nil {
		return 0
	}
	return fn(a, b)
}

func resolveGetter(typ reflect.Type, name string) *fieldGetter {
	if typ == nil || typ.Kind() == reflect.Interface || name == "" {
		return nil
	}
	base := typ
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() == reflect.Struct {
		f, ok := base.FieldByName(name)
		if !ok || !f.IsExported() {
			f, ok = base.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		}
		if ok && f.IsExported() {
			index := f.Index
			return &fieldGetter{
				typ: f.Type,
				get: func(v reflect.Value) reflect.Value {
					for v.Kind() == reflect.Pointer {
						if v.IsNil() {
							return reflect.Value{}
						}
						v = v.Elem()
					}
					fv, err := v.FieldByIndexErr(index)
					if err != nil {
						return reflect.Value{}
					}
					return fv
				},
			}
		}
	}
	if m, ok := typ.MethodByName(name); ok && m.Type.NumIn() == 1 && m.Type.NumOut() == 1 {
		idx := m.Index
		return &fieldGetter{
			typ: m.Type.Out(0),
			get: func(v reflect.Value) reflect.Value {
				if v.Kind() == reflect.Pointer && v.IsNil() {
					return reflect.Value{}
				}
				return v.Method(idx).Call(nil)[0]
			},
		}
	}
	return nil
}

func valueOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// naturalOrder picks an ordering for t once, so comparisons never re-inspect
// the type. It returns nil when t has no ordering.
func naturalOrder(t reflect.Type) orderFunc {
	if t.Implements(comparableType) {
		return func(a, b any) int { return a.(Comparable).CompareTo(b) }
	}
	if t.Kind() != reflect.Interface {
		if m, ok := t.MethodByName("Compare"); ok && m.Type.NumIn() == 2 && m.Type.In(1) == t &&
			m.Type.NumOut() == 1 && m.Type.Out(0).Kind() == reflect.Int {
			method := m.Func
			return func(a, b any) int {
				out := method.Call([]reflect.Value{reflect.ValueOf(a), reflect.ValueOf(b)})
				return int(out[0].Int())
			}
		}
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b any) int { return cmp.Compare(reflect.ValueOf(a).Int(), reflect.ValueOf(b).Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b any) int { return cmp.Compare(reflect.ValueOf(a).Uint(), reflect.ValueOf(b).Uint()) }
	case reflect.Float32, reflect.Float64:
		return func(a, b any) int { return cmp.Compare(reflect.ValueOf(a).Float(), reflect.ValueOf(b).Float()) }
	case reflect.String:
		return func(a, b any) int { return cmp.Compare(reflect.ValueOf(a).String(), reflect.ValueOf(b).String()) }
	case reflect.Bool:
		return func(a, b any) int {
			x, y := reflect.ValueOf(a).Bool(), reflect.ValueOf(b).Bool()
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	case reflect.Pointer:
		elem := naturalOrder(t.Elem())
		if elem == nil {
			return nil
		}
		return func(a, b any) int {
			va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
			switch {
			case va.IsNil() && vb.IsNil():
				return 0
			case va.IsNil():
				return -1
			case vb.IsNil():
				return 1
			}
			return elem(va.Elem().Interface(), vb.Elem().Interface())
		}
	}
	return nil
}

func nilsFirst(fn orderFunc) orderFunc {
	return func(a, b any) int {
		if a == nil || b == nil {
			return compareNil(a, b)
		}
		return fn(a, b)
	}
}

func compareNil(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	default:
		return 1
	}
}
