package recz

// Select is an immutable description of three key transformations over a
// mapping: removals, renames, and additions. Apply runs them in that fixed
// order; Merge composes two descriptions into one with the later operand
// winning per affected key.
//
// The zero value Select{} is the identity: applying it copies the input
// unchanged, and merging it with any Select returns that Select.
//
// Construction validates the invariants: a removed key must not double as a
// rename source or an add target, and rename sources and targets must each
// be unique within one Select.
type Select struct {
	removes []string
	renames []renamePair
	adds    []addPair
}

type renamePair struct {
	from, to string
}

type addPair struct {
	key     string
	value   any
	factory func() any
}

// SelectOption contributes directives to NewSelect.
type SelectOption func(*Select)

// Remove marks keys for removal. Removing an absent key is not an error.
func Remove(keys ...string) SelectOption {
	return func(s *Select) { s.removes = append(s.removes, keys...) }
}

// Rename moves the value under from to the key to. An absent source is a
// no-op; an occupied target at apply time is a SelectCollisionError.
func Rename(from, to string) SelectOption {
	return func(s *Select) { s.renames = append(s.renames, renamePair{from: from, to: to}) }
}

// Add inserts a key with a static value when the key is absent after removes
// and renames. Add never overwrites an existing value.
func Add(key string, v any) SelectOption {
	return func(s *Select) { s.adds = append(s.adds, addPair{key: key, value: v}) }
}

// AddFactory inserts a key with a lazily produced value: the factory is
// invoked only when the key is actually missing.
func AddFactory(key string, fn func() any) SelectOption {
	return func(s *Select) { s.adds = append(s.adds, addPair{key: key, factory: fn}) }
}

// NewSelect builds a Select from directives, validating the construction
// invariants. Violations fail with SelectCollisionError.
func NewSelect(opts ...SelectOption) (Select, error) {
	var s Select
	for _, opt := range opts {
		opt(&s)
	}

	removed := make(map[string]struct{}, len(s.removes))
	for _, k := range s.removes {
		removed[k] = struct{}{}
	}
	sources := make(map[string]struct{}, len(s.renames))
	targets := make(map[string]struct{}, len(s.renames))
	for _, r := range s.renames {
		if _, ok := removed[r.from]; ok {
			return Select{}, &SelectCollisionError{Key: r.from, Reason: "key is both removed and a rename source"}
		}
		if _, dup := sources[r.from]; dup {
			return Select{}, &SelectCollisionError{Key: r.from, Reason: "duplicate rename source"}
		}
		if _, dup := targets[r.to]; dup {
			return Select{}, &SelectCollisionError{Key: r.to, Reason: "duplicate rename target"}
		}
		sources[r.from] = struct{}{}
		targets[r.to] = struct{}{}
	}
	added := make(map[string]struct{}, len(s.adds))
	for _, a := range s.adds {
		if _, ok := removed[a.key]; ok {
			return Select{}, &SelectCollisionError{Key: a.key, Reason: "key is both removed and an add target"}
		}
		if _, dup := added[a.key]; dup {
			return Select{}, &SelectCollisionError{Key: a.key, Reason: "duplicate add target"}
		}
		added[a.key] = struct{}{}
	}

	return s, nil
}

// MustSelect is NewSelect that panics on invalid directives. Use it for
// selections assembled from constants at definition time.
func MustSelect(opts ...SelectOption) Select {
	s, err := NewSelect(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// IsEmpty reports whether the Select carries no directives.
func (s Select) IsEmpty() bool {
	return len(s.removes) == 0 && len(s.renames) == 0 && len(s.adds) == 0
}

// Apply runs the transformations on a mapping and returns the result as a
// fresh map; the input is never mutated, and the identity Select still
// copies. Order is fixed: removes, then renames, then adds.
func (s Select) Apply(m map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m)+len(s.adds))
	for k, v := range m {
		out[k] = v
	}

	for _, k := range s.removes {
		delete(out, k)
	}
	for _, r := range s.renames {
		v, ok := out[r.from]
		if !ok {
			continue
		}
		if _, occupied := out[r.to]; occupied {
			return nil, &SelectCollisionError{Key: r.to, Reason: "rename target already present"}
		}
		delete(out, r.from)
		out[r.to] = v
	}
	for _, a := range s.adds {
		if _, present := out[a.key]; present {
			continue
		}
		if a.factory != nil {
			out[a.key] = a.factory()
		} else {
			out[a.key] = a.value
		}
	}

	return out, nil
}

// Merge combines selections into one whose effect stands in for applying the
// receiver and then the others. Merge is union-with-override keyed by
// affected key (a remove's key, a rename's source, an add's target): when a
// later operand carries a directive for a key, the earlier operand's
// directives for that key are dropped rather than composed. Selections stay
// overridable at call sites this way.
//
// Select{} is a two-sided identity: s.Merge(Select{}) and Select{}.Merge(s)
// both equal s.
func (s Select) Merge(others ...Select) Select {
	out := s
	for _, other := range others {
		out = out.merge(other)
	}
	return out
}

func (s Select) merge(other Select) Select {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}

	affected := make(map[string]struct{})
	for _, k := range other.removes {
		affected[k] = struct{}{}
	}
	for _, r := range other.renames {
		affected[r.from] = struct{}{}
	}
	for _, a := range other.adds {
		affected[a.key] = struct{}{}
	}

	var out Select
	for _, k := range s.removes {
		if _, drop := affected[k]; !drop {
			out.removes = append(out.removes, k)
		}
	}
	for _, r := range s.renames {
		if _, drop := affected[r.from]; !drop {
			out.renames = append(out.renames, r)
		}
	}
	for _, a := range s.adds {
		if _, drop := affected[a.key]; !drop {
			out.adds = append(out.adds, a)
		}
	}
	out.removes = append(out.removes, other.removes...)
	out.renames = append(out.renames, other.renames...)
	out.adds = append(out.adds, other.adds...)
	return out
}

// Removes returns the removed keys, in declaration order.
func (s Select) Removes() []string {
	out := make([]string, len(s.removes))
	copy(out, s.removes)
	return out
}

// Renames returns the rename pairs as a source→target map.
func (s Select) Renames() map[string]string {
	out := make(map[string]string, len(s.renames))
	for _, r := range s.renames {
		out[r.from] = r.to
	}
	return out
}

// AddKeys returns the add target keys, in declaration order.
func (s Select) AddKeys() []string {
	out := make([]string, len(s.adds))
	for i, a := range s.adds {
		out[i] = a.key
	}
	return out
}
