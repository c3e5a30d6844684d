package value

import "testing"

func TestToString(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"undefined", Undefined, ""},
		{"integer", Int(42), "42"},
		{"negative integer", Int(-7), "-7"},
		{"real trims zeros", Real(3.100), "3.1"},
		{"real keeps point", Real(3.0), "3.0"},
		{"string", Str("hello"), "hello"},
		{"string_ref", StrRef("world"), "world"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.v.ToString(); got != tc.want {
				t.Errorf("ToString() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	if Undefined.ToBool() {
		t.Error("undefined should be false-ish")
	}
	if Int(0).ToBool() {
		t.Error("0 should be false-ish")
	}
	if !Int(1).ToBool() {
		t.Error("1 should be true-ish")
	}
	if Str("").ToBool() {
		t.Error("empty string should be false-ish")
	}
	if !Str("x").ToBool() {
		t.Error("non-empty string should be true-ish")
	}
}

func TestToNumberCoercion(t *testing.T) {
	v, ok := Str("42").ToNumber()
	if !ok || v.Kind() != KindInteger || v.AsInt() != 42 {
		t.Errorf("Str(42).ToNumber() = %v, %v", v, ok)
	}

	v, ok = Str("3.5").ToNumber()
	if !ok || v.Kind() != KindReal || v.AsReal() != 3.5 {
		t.Errorf("Str(3.5).ToNumber() = %v, %v", v, ok)
	}

	_, ok = Str("not a number").ToNumber()
	if ok {
		t.Error("expected coercion failure for non-numeric string")
	}
}

func TestFragmentOrderPreserved(t *testing.T) {
	f := NewFragment()
	f.SetString("z", "1")
	f.SetString("a", "2")
	f.SetString("m", "3")

	want := []string{"z", "a", "m"}
	got := f.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFragmentListIteration(t *testing.T) {
	list := NewFragmentList()
	for i := 0; i < 3; i++ {
		child := list.AddFragment()
		child.SetInt("idx", int64(i))
	}
	if list.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", list.Size())
	}
	for i := 0; i < list.Size(); i++ {
		fv, ok := list.At(i).Get("idx")
		if !ok {
			t.Fatalf("fragment %d missing idx", i)
		}
		if fv.ToValue().AsInt() != int64(i) {
			t.Errorf("fragment %d idx = %v, want %d", i, fv.ToValue(), i)
		}
	}
}

func TestJSONEscaping(t *testing.T) {
	v := Str("line1\nline2\t\"quoted\"\\slash/end")
	got := v.JSON()
	want := `"line1\nline2\t\"quoted\"\\slash/end"`
	if got != want {
		t.Errorf("JSON() = %s, want %s", got, want)
	}
}

func TestJSONControlBytes(t *testing.T) {
	v := Str("\x01\x1f")
	got := v.JSON()
	want := `"\u0001\u001f"`
	if got != want {
		t.Errorf("JSON() = %s, want %s", got, want)
	}
}

func TestJSONForJSEscapesSlash(t *testing.T) {
	got := string(Str("</script>").AppendJSON(nil, JSONForJS))
	want := `"<\/script>"`
	if got != want {
		t.Errorf("AppendJSON(JSONForJS) = %s, want %s", got, want)
	}
}

func TestFragmentJSONObject(t *testing.T) {
	f := NewFragment()
	f.SetString("name", "Alice")
	f.SetInt("age", 30)
	got := f.JSON()
	want := `{"name":"Alice","age":30}`
	if got != want {
		t.Errorf("Fragment.JSON() = %s, want %s", got, want)
	}
}
