package identity

import "fmt"

// KeyKind tags which key space a Key belongs to.
type KeyKind uint8

const (
	// KindID is the surrogate identifier space.
	KindID KeyKind = iota + 1
	// KindNaturalKey is the external, natural key space.
	KindNaturalKey
)

// String returns a short label for the key space.
func (k KeyKind) String() string {
	switch k {
	case KindID:
		return "id"
	case KindNaturalKey:
		return "natural_key"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Key is a value in one of the index key spaces.
type Key struct {
	Kind  KeyKind
	Value string
}

// ByID returns the surrogate-id key for id.
func ByID(id string) Key {
	return Key{Kind: KindID, Value: id}
}

// ByNaturalKey returns the natural key for k.
func ByNaturalKey(k string) Key {
	return Key{Kind: KindNaturalKey, Value: k}
}

func (k Key) String() string {
	return k.Kind.String() + ":" + k.Value
}

// Collision reports a key that was already bound to a different value.
type Collision[V comparable] struct {
	Key      Key
	Existing V
}

// Index maps keys from several key spaces onto shared values.
// It is not safe for concurrent use.
type Index[V comparable] struct {
	bindings map[Key][]V
	values   []V
	seen     map[V]struct{}
}

// New creates an empty index.
func New[V comparable]() *Index[V] {
	return &Index[V]{
		bindings: make(map[Key][]V),
		seen:     make(map[V]struct{}),
	}
}

// Insert registers value under every key. Keys already bound to a different
// value keep their existing binding and also gain the new one; each of them is
// returned as a Collision carrying the first value bound to it.
func (idx *Index[V]) Insert(value V, keys ...Key) []Collision[V] {
	var collisions []Collision[V]

	for _, key := range keys {
		bound := idx.bindings[key]
		if contains(bound, value) {
			continue
		}
		if len(bound) > 0 {
			collisions = append(collisions, Collision[V]{Key: key, Existing: bound[0]})
		}
		idx.bindings[key] = append(bound, value)
	}

	if _, ok := idx.seen[value]; !ok {
		idx.seen[value] = struct{}{}
		idx.values = append(idx.values, value)
	}

	return collisions
}

// Get returns the first value registered under key.
func (idx *Index[V]) Get(key Key) (V, bool) {
	bound := idx.bindings[key]
	if len(bound) == 0 {
		var zero V
		return zero, false
	}
	return bound[0], true
}

// GetAll returns every value registered under key, in registration order.
func (idx *Index[V]) GetAll(key Key) []V {
	bound := idx.bindings[key]
	out := make([]V, len(bound))
	copy(out, bound)
	return out
}

// Contains reports whether any value is registered under key.
func (idx *Index[V]) Contains(key Key) bool {
	return len(idx.bindings[key]) > 0
}

// Values returns the distinct registered values in insertion order.
func (idx *Index[V]) Values() []V {
	out := make([]V, len(idx.values))
	copy(out, idx.values)
	return out
}

// Len returns the number of distinct values.
func (idx *Index[V]) Len() int {
	return len(idx.values)
}

// Collisions returns the keys currently bound to more than one value.
func (idx *Index[V]) Collisions() []Key {
	var keys []Key
	for key, bound := range idx.bindings {
		if len(bound) > 1 {
			keys = append(keys, key)
		}
	}
	return keys
}

func contains[V comparable](vs []V, v V) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
