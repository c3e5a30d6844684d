// Package frame implements Teng's open-frame stack: the runtime model of
// fragment iteration, local-variable scoping, and name resolution shared
// by the interpreter and by the parser's compile-time constant folder.
//
// Rather than a tree of owning pointers between frames and records, frames
// and records live in two flat arenas indexed by small integers, the same
// arena-of-indices shape carried in every compiled variable instruction.
// This mirrors the teacher's scope graph (runtime/planner/scope_graph.go),
// adapted from a parent-pointer tree of named scopes to an arena-indexed
// stack of fragment-iteration records.
package frame

import "github.com/aledsdavies/teng/core/value"

// Record is one open-fragment record: the fragment or list currently being
// iterated, its local variables, and the name it was opened under.
type Record struct {
	Name   string
	Frag   *value.Fragment     // set when Value is a frag_ref
	List   *value.FragmentList // set when Value is a list_ref
	Index  int                 // current position within List
	Locals map[string]value.Value
}

// isList reports whether this record iterates a list rather than a single
// fragment.
func (r *Record) isList() bool { return r.List != nil }

// current returns the fragment currently in scope: for a list_ref record,
// the fragment at Index.
func (r *Record) current() *value.Fragment {
	if r.isList() {
		if r.Index < 0 || r.Index >= r.List.Size() {
			return nil
		}
		return r.List.At(r.Index)
	}
	return r.Frag
}

// Frame is one stack level holding a vector of open-fragment records.
// OpenFrag pushes a new frame for every fragment it opens, so each frame
// above the root holds exactly one record.
type Frame struct {
	records []*Record
}

// top returns the innermost open record in this frame, or nil if empty.
func (f *Frame) top() *Record {
	if len(f.records) == 0 {
		return nil
	}
	return f.records[len(f.records)-1]
}

// Stack is the runtime open-frame stack: the machine state that implements
// fragment iteration and variable resolution. The same interface is
// presented to the interpreter and to the parser's compile-time optimizer
// stub (runtime/interp and runtime/parser), so constant folding sees
// exactly the resolution rules the interpreter would apply at runtime.
type Stack struct {
	frames []*Frame
}

// New creates a stack seeded with a single frame whose sole record is the
// root data-tree fragment, under the name ".".
func New(root *value.Fragment) *Stack {
	s := &Stack{}
	s.frames = append(s.frames, &Frame{records: []*Record{{Name: ".", Frag: root, Locals: map[string]value.Value{}}}})
	return s
}

// topFrame returns the innermost frame.
func (s *Stack) topFrame() *Frame {
	return s.frames[len(s.frames)-1]
}

// FrameDepth reports the number of open frames, used to compute
// frame_offset at compile time.
func (s *Stack) FrameDepth() int { return len(s.frames) }

// FragDepth reports the number of open-fragment records in the top frame,
// used to compute frag_offset at compile time.
func (s *Stack) FragDepth() int { return len(s.topFrame().records) }

// OpenFrag tries to descend one step into the named child of the
// currently open fragment. It returns false iff the named
// child is missing or empty. A single-element list is promoted to its one
// fragment per the fragment name resolution rule, so a nested path works
// whether the attribute is a fragment or a singleton list.
//
// Every successful call pushes a new frame holding exactly one record,
// whether or not name is an immediate child of the current top fragment;
// a record is never appended to an existing frame. The outer iteration
// state therefore survives the descent in the frame below.
func (s *Stack) OpenFrag(name string) bool {
	cur := s.topFrame().top()
	if cur == nil {
		return false
	}
	container := cur.current()
	if container == nil {
		return false
	}
	fv, ok := container.Get(name)
	if !ok {
		return false
	}

	rec := &Record{Name: name, Locals: map[string]value.Value{}}
	switch fv.Kind() {
	case value.FragNested:
		rec.Frag = fv.Nested()
		if rec.Frag == nil {
			return false
		}
	case value.FragList:
		list := fv.List()
		if list == nil || list.Size() == 0 {
			return false
		}
		if list.Size() == 1 {
			rec.Frag = list.At(0)
		} else {
			rec.List = list
			rec.Index = 0
		}
	default:
		return false
	}

	s.frames = append(s.frames, &Frame{records: []*Record{rec}})
	return true
}

// NextFrag advances iteration of the top frame's innermost record. It
// returns false and pops the record (and the frame, if it becomes empty)
// once iteration is exhausted.
func (s *Stack) NextFrag() bool {
	f := s.topFrame()
	rec := f.top()
	if rec == nil {
		return false
	}
	if !rec.isList() {
		// A fragment (or promoted singleton list) iterates exactly once.
		f.records = f.records[:len(f.records)-1]
		if len(f.records) == 0 && len(s.frames) > 1 {
			s.frames = s.frames[:len(s.frames)-1]
		}
		return false
	}
	rec.Index++
	if rec.Index >= rec.List.Size() {
		f.records = f.records[:len(f.records)-1]
		if len(f.records) == 0 && len(s.frames) > 1 {
			s.frames = s.frames[:len(s.frames)-1]
		}
		return false
	}
	rec.Locals = map[string]value.Value{}
	return true
}

// recordAt locates the record addressed by (frameOff, fragOff): frameOff
// counts frames from the bottom of the stack, fragOff counts records from
// the bottom of that frame — the same indexing a compiled instruction
// carries.
func (s *Stack) recordAt(frameOff, fragOff int) *Record {
	if frameOff < 0 || frameOff >= len(s.frames) {
		return nil
	}
	f := s.frames[frameOff]
	if fragOff < 0 || fragOff >= len(f.records) {
		return nil
	}
	return f.records[fragOff]
}

// GetVar resolves name at (frameOff, fragOff): locals first, then
// attribute lookup on the record's open fragment.
func (s *Stack) GetVar(name string, frameOff, fragOff int) (value.Value, bool) {
	rec := s.recordAt(frameOff, fragOff)
	if rec == nil {
		return value.Undefined, false
	}
	if v, ok := rec.Locals[name]; ok {
		return v, true
	}
	cur := rec.current()
	if cur == nil {
		return value.Undefined, false
	}
	fv, ok := cur.Get(name)
	if !ok {
		return value.Undefined, false
	}
	return fv.ToValue(), true
}

// SetVar introduces a local variable at (frameOff, fragOff). It fails if
// the data tree already has a value of that name at that position: locals
// may not shadow the data tree.
func (s *Stack) SetVar(name string, frameOff, fragOff int, v value.Value) bool {
	rec := s.recordAt(frameOff, fragOff)
	if rec == nil {
		return false
	}
	if cur := rec.current(); cur != nil {
		if _, exists := cur.Get(name); exists {
			return false
		}
	}
	rec.Locals[name] = v
	return true
}

// ListPos reports the zero-based index and size of the list being
// iterated at (frameOff, fragOff), driving `_first`/`_inner`/`_last`/
// `_index`/`_count`. For a non-list (singleton) record it reports (0, 1).
func (s *Stack) ListPos(frameOff, fragOff int) (index, size int) {
	rec := s.recordAt(frameOff, fragOff)
	if rec == nil {
		return 0, 0
	}
	if !rec.isList() {
		return 0, 1
	}
	return rec.Index, rec.List.Size()
}
