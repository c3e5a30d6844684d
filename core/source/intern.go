package source

// Interner hands out a stable *string for each distinct filename seen
// during one compile, so Position.Filename comparisons can use pointer
// identity.
type Interner struct {
	names map[string]*string
}

// NewInterner creates an empty filename interner.
func NewInterner() *Interner {
	return &Interner{names: make(map[string]*string)}
}

// Intern returns the canonical *string for name, allocating one on first
// use and reusing it on every later call with the same name.
func (in *Interner) Intern(name string) *string {
	if p, ok := in.names[name]; ok {
		return p
	}
	p := new(string)
	*p = name
	in.names[name] = p
	return p
}
