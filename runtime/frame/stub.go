package frame

import (
	"errors"

	"github.com/aledsdavies/teng/core/value"
)

// ErrNeedsRuntime is the sentinel a Stub reports once the sub-program
// being folded tried to read real application data it cannot supply.
var ErrNeedsRuntime = errors.New("frame: needs runtime data")

// Stub is the compile-time folding Resolver: it only ever sees a single
// synthetic frame and a flat local map (so literal-only expressions like
// `1 + 2` fold without touching the data tree), and refuses — by recording
// ErrNeedsRuntime — any operation that would require reading the
// application's fragment tree.
type Stub struct {
	locals map[string]value.Value
	err    error
}

// NewStub creates a folding stub with no application data available.
func NewStub() *Stub {
	return &Stub{locals: map[string]value.Value{}}
}

var _ Resolver = (*Stub)(nil)

func (s *Stub) Err() error { return s.err }

func (s *Stub) fail() bool {
	if s.err == nil {
		s.err = ErrNeedsRuntime
	}
	return false
}

// OpenFrag always needs runtime data: descending into a fragment reads
// the application data tree, which the stub does not have.
func (s *Stub) OpenFrag(name string) bool { return s.fail() }

// NextFrag always needs runtime data, for the same reason as OpenFrag.
func (s *Stub) NextFrag() bool { return s.fail() }

// GetVar resolves purely against the stub's flat local map, which only
// SetVar fills. interp.Fold refuses any range containing OpSet, so during
// folding the map stays empty and every variable read needs runtime data.
func (s *Stub) GetVar(name string, frameOff, fragOff int) (value.Value, bool) {
	if v, ok := s.locals[name]; ok {
		return v, true
	}
	s.fail()
	return value.Undefined, false
}

// SetVar records a local in the stub's flat map. Offsets are ignored: a
// foldable sub-program never opens a fragment, so every SET lands in the
// same synthetic scope.
func (s *Stub) SetVar(name string, frameOff, fragOff int, v value.Value) bool {
	if _, exists := s.locals[name]; exists {
		return false
	}
	s.locals[name] = v
	return true
}

// ListPos always needs runtime data: there is no list to report a
// position within.
func (s *Stub) ListPos(frameOff, fragOff int) (int, int) {
	s.fail()
	return 0, 0
}

// FrameDepth and FragDepth report a single synthetic frame/record so
// identifier resolution arithmetic during folding stays well-defined.
func (s *Stub) FrameDepth() int { return 1 }
func (s *Stub) FragDepth() int  { return 1 }
