package frame

import "github.com/aledsdavies/teng/core/value"

// Resolver is the contract shared by the runtime frame Stack and the
// parser's compile-time constant-folding stub: the same operations,
// modeled as an interface rather than exceptions, so the optimizer can
// reuse the interpreter's instruction dispatch against a frame
// implementation that refuses to read real application data.
type Resolver interface {
	OpenFrag(name string) bool
	NextFrag() bool
	GetVar(name string, frameOff, fragOff int) (value.Value, bool)
	SetVar(name string, frameOff, fragOff int, v value.Value) bool
	ListPos(frameOff, fragOff int) (index, size int)
	FrameDepth() int
	FragDepth() int

	// Err returns ErrNeedsRuntime once any call on this Resolver required
	// real application data the implementation cannot provide. A real
	// Stack never sets it; Stub sets it instead of guessing. The caller
	// (runtime/interp's folding driver) checks Err after each step rather
	// than relying on panic/recover for control flow.
	Err() error
}

var _ Resolver = (*Stack)(nil)

// Err always returns nil for a real runtime Stack.
func (s *Stack) Err() error { return nil }
