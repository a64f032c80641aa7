package view

import (
	"fmt"
	"reflect"
)

type compiledKey[T any] struct {
	key   SortKey
	value func(T) any
	order orderFunc
}

// comparator evaluates a SortKey list with first-difference-wins semantics.
// It is rebuilt, together with its accessor cache, whenever the key list or
// the observed filter fields change.
type comparator[T any] struct {
	keys  []compiledKey[T]
	cache *accessorCache
}

func newComparator[T any](keys []SortKey, accessors map[string]func(T) any) (*comparator[T], error) {
	c := &comparator[T]{cache: newAccessorCache()}
	for _, key := range keys {
		ck, err := c.compile(key, accessors)
		if err != nil {
			return nil, err
		}
		c.keys = append(c.keys, ck)
	}
	return c, nil
}

func (c *comparator[T]) compile(key SortKey, accessors map[string]func(T) any) (compiledKey[T], error) {
	static := reflect.TypeFor[T]()
	ck := compiledKey[T]{key: key}

	// nil resultType means the value's type is only known per item.
	var resultType reflect.Type
	switch {
	case key.Field == "":
		ck.value = func(item T) any { return item }
		resultType = static
	case accessors[key.Field] != nil:
		ck.value = accessors[key.Field]
	case static.Kind() == reflect.Interface:
		name := key.Field
		ck.value = func(item T) any { return c.cache.field(item, name) }
	default:
		g, err := c.cache.getter(static, key.Field)
		if err != nil {
			return ck, fmt.Errorf("sort key %s: %w", key, err)
		}
		ck.value = func(item T) any { return valueOf(g.get(reflect.ValueOf(item))) }
		resultType = g.typ
	}

	switch {
	case key.Compare != nil:
		ck.order = key.Compare
	case resultType == nil || resultType.Kind() == reflect.Interface:
		ck.order = c.cache.compareDynamic
	default:
		fn, err := c.cache.order(resultType)
		if err != nil {
			return ck, fmt.Errorf("sort key %s: %w", key, err)
		}
		ck.order = fn
	}
	return ck, nil
}

func (c *comparator[T]) compare(a, b T) int {
	for _, k := range c.keys {
		r := k.order(k.value(a), k.value(b))
		if k.key.Direction == Descending {
			r = -r
		}
		if r != 0 {
			return r
		}
	}
	return 0
}

func (c *comparator[T]) sortsOn(field string) bool {
	for _, k := range c.keys {
		if k.key.Field != "" && k.key.Field == field {
			return true
		}
	}
	return false
}

func (c *comparator[T]) active() bool {
	return c != nil && len(c.keys) > 0
}
