package frame

import "testing"

import "github.com/aledsdavies/teng/core/value"

func buildRoot() *value.Fragment {
	root := value.NewFragment()
	root.SetString("title", "hi")
	items := root.AddFragmentList("items")
	for _, n := range []string{"a", "b", "c"} {
		f := items.AddFragment()
		f.SetString("name", n)
	}
	empty := root.AddFragment("empty")
	_ = empty
	return root
}

func TestGetVarReadsRootAttribute(t *testing.T) {
	s := New(buildRoot())
	if v, ok := s.GetVar("title", 0, 0); !ok || v.AsString() != "hi" {
		t.Fatalf("GetVar(title) = %v, %v", v, ok)
	}
}

func TestOpenFragMissingFails(t *testing.T) {
	s := New(buildRoot())
	if s.OpenFrag("nope") {
		t.Fatal("OpenFrag(nope) = true, want false")
	}
}

func TestOpenFragListIteration(t *testing.T) {
	s := New(buildRoot())
	if !s.OpenFrag("items") {
		t.Fatal("OpenFrag(items) = false, want true")
	}
	frameOff := s.FrameDepth() - 1
	fragOff := s.FragDepth() - 1

	var names []string
	for {
		idx, size := s.ListPos(frameOff, fragOff)
		if size != 3 {
			t.Fatalf("size = %d, want 3", size)
		}
		v, ok := s.GetVar("name", frameOff, fragOff)
		if !ok {
			t.Fatalf("GetVar(name) failed at index %d", idx)
		}
		names = append(names, v.AsString())
		if !s.NextFrag() {
			break
		}
		frameOff = s.FrameDepth() - 1
		fragOff = s.FragDepth() - 1
	}
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestOpenFragEmptyListFails(t *testing.T) {
	root := buildRoot()
	root.AddFragmentList("none")
	s := New(root)
	if s.OpenFrag("none") {
		t.Fatal("OpenFrag(none) = true, want false for a zero-length list")
	}
}

func TestSetVarCannotShadowDataTree(t *testing.T) {
	s := New(buildRoot())
	if s.SetVar("title", 0, 0, value.Str("shadowed")) {
		t.Fatal("SetVar(title) succeeded, want false: title already exists in the data tree")
	}
}

func TestSetVarIntroducesLocal(t *testing.T) {
	s := New(buildRoot())
	if !s.SetVar("x", 0, 0, value.Int(7)) {
		t.Fatal("SetVar(x) failed, want true")
	}
	v, ok := s.GetVar("x", 0, 0)
	if !ok || v.AsInt() != 7 {
		t.Fatalf("GetVar(x) = %v, %v", v, ok)
	}
}

func TestLocalsNotCarriedAcrossIteration(t *testing.T) {
	s := New(buildRoot())
	if !s.OpenFrag("items") {
		t.Fatal("OpenFrag(items) failed")
	}
	frameOff := s.FrameDepth() - 1
	fragOff := s.FragDepth() - 1
	if !s.SetVar("seen", frameOff, fragOff, value.Int(1)) {
		t.Fatal("SetVar(seen) failed")
	}
	if !s.NextFrag() {
		t.Fatal("NextFrag() = false, want true (still more items)")
	}
	frameOff = s.FrameDepth() - 1
	fragOff = s.FragDepth() - 1
	if _, ok := s.GetVar("seen", frameOff, fragOff); ok {
		t.Fatal("GetVar(seen) succeeded on the next iteration, want locals reset")
	}
}

func TestStubRefusesDataTreeAccess(t *testing.T) {
	s := NewStub()
	if s.OpenFrag("anything") {
		t.Fatal("Stub.OpenFrag succeeded, want false")
	}
	if s.Err() != ErrNeedsRuntime {
		t.Fatalf("Err() = %v, want ErrNeedsRuntime", s.Err())
	}
}

func TestStubFoldsLiteralLocals(t *testing.T) {
	s := NewStub()
	if !s.SetVar("x", 0, 0, value.Int(3)) {
		t.Fatal("SetVar(x) failed")
	}
	v, ok := s.GetVar("x", 0, 0)
	if !ok || v.AsInt() != 3 {
		t.Fatalf("GetVar(x) = %v, %v", v, ok)
	}
	if s.Err() != nil {
		t.Fatalf("Err() = %v, want nil after a purely-local round trip", s.Err())
	}
}
