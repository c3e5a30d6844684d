package value

// FragKind tags what a FragmentValue currently holds.
type FragKind uint8

const (
	FragScalarString FragKind = iota
	FragScalarInt
	FragScalarReal
	FragNested
	FragList
)

// FragmentValue is exactly one of a scalar, an owned nested Fragment, or a
// FragmentList. Assigning a new scalar over a fragment/list releases the
// prior contents.
type FragmentValue struct {
	kind   FragKind
	str    string
	i      int64
	r      float64
	nested *Fragment
	list   *FragmentList
}

// NewStringValue wraps a scalar string.
func NewStringValue(s string) *FragmentValue { return &FragmentValue{kind: FragScalarString, str: s} }

// NewIntValue wraps a scalar integer.
func NewIntValue(i int64) *FragmentValue { return &FragmentValue{kind: FragScalarInt, i: i} }

// NewRealValue wraps a scalar real.
func NewRealValue(r float64) *FragmentValue { return &FragmentValue{kind: FragScalarReal, r: r} }

// NewFragmentValue wraps a nested fragment.
func NewFragmentValue(f *Fragment) *FragmentValue { return &FragmentValue{kind: FragNested, nested: f} }

// NewListValue wraps a fragment list.
func NewListValue(l *FragmentList) *FragmentValue { return &FragmentValue{kind: FragList, list: l} }

// Kind reports which variant fv holds.
func (fv *FragmentValue) Kind() FragKind { return fv.kind }

// Nested returns the nested fragment, or nil if fv is not FragNested.
func (fv *FragmentValue) Nested() *Fragment {
	if fv.kind == FragNested {
		return fv.nested
	}
	return nil
}

// List returns the fragment list, or nil if fv is not FragList.
func (fv *FragmentValue) List() *FragmentList {
	if fv.kind == FragList {
		return fv.list
	}
	return nil
}

// ToValue converts fv into a runtime Value usable on the interpreter's
// value stack: scalars convert directly, while structured values are
// wrapped as frag_ref/list_ref so they keep iterating against the live data
// tree rather than being copied.
func (fv *FragmentValue) ToValue() Value {
	switch fv.kind {
	case FragScalarString:
		return StrRef(fv.str)
	case FragScalarInt:
		return Int(fv.i)
	case FragScalarReal:
		return Real(fv.r)
	case FragNested:
		return FragRefVal(fv.nested)
	case FragList:
		return ListRefVal(fv.list, 0)
	default:
		return Undefined
	}
}

// Fragment is an ordered mapping from name to FragmentValue. Insertion
// order is preserved for deterministic dump/JSON output even
// though templates cannot observe it directly.
type Fragment struct {
	order []string
	items map[string]*FragmentValue
}

// NewFragment creates an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{items: make(map[string]*FragmentValue)}
}

// Set assigns name to fv, appending to the insertion order on first use and
// overwriting in place on subsequent calls; assigning a new scalar over a
// fragment/list is permitted and releases the prior contents.
func (f *Fragment) Set(name string, fv *FragmentValue) {
	if _, exists := f.items[name]; !exists {
		f.order = append(f.order, name)
	}
	f.items[name] = fv
}

// SetString is a convenience wrapper around Set(name, NewStringValue(s)).
func (f *Fragment) SetString(name, s string) { f.Set(name, NewStringValue(s)) }

// SetInt is a convenience wrapper around Set(name, NewIntValue(i)).
func (f *Fragment) SetInt(name string, i int64) { f.Set(name, NewIntValue(i)) }

// SetReal is a convenience wrapper around Set(name, NewRealValue(r)).
func (f *Fragment) SetReal(name string, r float64) { f.Set(name, NewRealValue(r)) }

// AddFragment appends name as a nested fragment, returning it for further
// population.
func (f *Fragment) AddFragment(name string) *Fragment {
	nested := NewFragment()
	f.Set(name, NewFragmentValue(nested))
	return nested
}

// AddFragmentList appends name as an (initially empty) fragment list.
func (f *Fragment) AddFragmentList(name string) *FragmentList {
	list := NewFragmentList()
	f.Set(name, NewListValue(list))
	return list
}

// Get returns the value stored under name, and whether it exists.
func (f *Fragment) Get(name string) (*FragmentValue, bool) {
	fv, ok := f.items[name]
	return fv, ok
}

// Names returns fragment keys in insertion order.
func (f *Fragment) Names() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len reports the number of entries in f.
func (f *Fragment) Len() int { return len(f.order) }

// FragmentList is an ordered sequence of fragment values under one name,
// iterated by `<?teng frag ?>`.
type FragmentList struct {
	items []*Fragment
}

// NewFragmentList creates an empty fragment list.
func NewFragmentList() *FragmentList { return &FragmentList{} }

// AddFragment appends a new default (empty) fragment and returns it.
func (l *FragmentList) AddFragment() *Fragment {
	f := NewFragment()
	l.items = append(l.items, f)
	return f
}

// Append adds an already-built fragment to the list.
func (l *FragmentList) Append(f *Fragment) { l.items = append(l.items, f) }

// Size returns the number of fragments in the list.
func (l *FragmentList) Size() int { return len(l.items) }

// At returns the fragment at idx. The caller must ensure 0 <= idx < Size().
func (l *FragmentList) At(idx int) *Fragment { return l.items[idx] }
