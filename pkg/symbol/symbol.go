// Package symbol provides process-wide typed interner keys.
//
// Each marker type S owns one global, never-cleared string interner, so a
// Key[S] can resolve itself without a handle to its interner. Keys of
// different marker types are distinct types and cannot be mixed up.
//
//	type Identifier struct{}
//
//	k := symbol.Intern[Identifier]("main")
//	fmt.Println(k) // main
package symbol

import (
	"iter"
	"reflect"
	"sync"

	"github.com/Sumatoshi-tech/paracord/pkg/paracord"
)

// Default is a ready-made marker type for callers that need a single
// global namespace.
type Default struct{}

// Configurer is implemented by marker types that customize their interner,
// for example to pick a deterministic hasher. Options is called on the zero
// value of the marker, once, when the interner is first used.
type Configurer interface {
	Options() []paracord.Option
}

type instance struct {
	once    sync.Once
	strings *paracord.Strings
}

// registry maps a marker type to its *instance.
var registry sync.Map

func interner[S any]() *paracord.Strings {
	typ := reflect.TypeFor[S]()

	v, ok := registry.Load(typ)
	if !ok {
		v, _ = registry.LoadOrStore(typ, &instance{})
	}

	inst := v.(*instance) //nolint:forcetypeassert // registry only holds *instance.

	inst.once.Do(func() {
		var (
			marker S
			opts   []paracord.Option
		)

		if c, ok := any(marker).(Configurer); ok {
			opts = c.Options()
		}

		inst.strings = paracord.NewStrings(opts...)
	})

	return inst.strings
}

// Key is an interned string in the namespace of S. The zero Key is not a
// valid key.
type Key[S any] struct {
	key paracord.Key
}

// Intern returns the key of str in the namespace of S, interning it if new.
func Intern[S any](str string) Key[S] {
	return Key[S]{key: interner[S]().GetOrIntern(str)}
}

// InternStatic is Intern for strings that live for the whole process, such
// as literals. Their bytes are retained instead of copied.
func InternStatic[S any](str string) Key[S] {
	return Key[S]{key: interner[S]().GetOrInternStatic(str)}
}

// Lookup returns the key of str if it was interned in the namespace of S.
func Lookup[S any](str string) (Key[S], bool) {
	k, ok := interner[S]().Get(str)

	return Key[S]{key: k}, ok
}

// FromRepr rebuilds a key from its Repr. It reports false when no string
// of S has that key.
func FromRepr[S any](repr uint32) (Key[S], bool) {
	k, ok := paracord.KeyFromRepr(repr)
	if !ok {
		return Key[S]{}, false
	}

	if _, ok := interner[S]().TryResolve(k); !ok {
		return Key[S]{}, false
	}

	return Key[S]{key: k}, true
}

// Len returns the number of strings interned in the namespace of S.
func Len[S any]() int {
	return interner[S]().Len()
}

// IsEmpty reports whether nothing was interned in the namespace of S.
func IsEmpty[S any]() bool {
	return interner[S]().IsEmpty()
}

// All yields every key of S with its string, in insertion order.
func All[S any]() iter.Seq2[Key[S], string] {
	return func(yield func(Key[S], string) bool) {
		for k, str := range interner[S]().All() {
			if !yield(Key[S]{key: k}, str) {
				return
			}
		}
	}
}

// MemoryUsage estimates the bytes held by the interner of S.
func MemoryUsage[S any]() int {
	return interner[S]().CurrentMemoryUsage()
}

// Stats returns the counters of the interner of S.
func Stats[S any]() paracord.Stats {
	return interner[S]().Stats()
}

// String returns the interned string, or "" for the zero Key.
func (k Key[S]) String() string {
	if !k.key.Valid() {
		return ""
	}

	return interner[S]().ResolveUnchecked(k.key)
}

// Valid reports whether k was returned by Intern or Lookup.
func (k Key[S]) Valid() bool {
	return k.key.Valid()
}

// Repr returns the zero-based index of k.
func (k Key[S]) Repr() uint32 {
	return k.key.Repr()
}

// Untyped returns the underlying interner key.
func (k Key[S]) Untyped() paracord.Key {
	return k.key
}
