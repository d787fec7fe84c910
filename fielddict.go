package recz

// FieldDict is an insertion-ordered mapping from field name to Field, owned
// exclusively by one record schema. It is assembled during schema definition
// and never mutated after the schema binds, so reads need no locking.
type FieldDict struct {
	names  []Name
	fields map[Name]*Field
}

// NewFieldDict creates an empty FieldDict.
func NewFieldDict() *FieldDict {
	return &FieldDict{fields: make(map[Name]*Field)}
}

// Set adds or replaces a field, preserving the first insertion position on
// replacement.
func (d *FieldDict) Set(f *Field) {
	if _, ok := d.fields[f.Name()]; !ok {
		d.names = append(d.names, f.Name())
	}
	d.fields[f.Name()] = f
}

// Get returns the field with the given name.
func (d *FieldDict) Get(name Name) (*Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Names returns the field names in insertion order.
func (d *FieldDict) Names() []Name {
	out := make([]Name, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of fields.
func (d *FieldDict) Len() int { return len(d.names) }

// Range calls fn for every field in insertion order until fn returns false.
func (d *FieldDict) Range(fn func(f *Field) bool) {
	for _, name := range d.names {
		if !fn(d.fields[name]) {
			return
		}
	}
}

// FilterByTag returns a new FieldDict containing only the fields carrying
// the tag, preserving relative order. The result is independent of the
// receiver, not a view.
func (d *FieldDict) FilterByTag(tag Tag) *FieldDict {
	out := NewFieldDict()
	for _, name := range d.names {
		if f := d.fields[name]; f.HasTag(tag) {
			out.Set(f)
		}
	}
	return out
}
