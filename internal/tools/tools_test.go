package tools

import (
	"reflect"
	"testing"
)

// TestIntArgCoercions covers the arrival shapes of LLM-produced arguments.
func TestIntArgCoercions(t *testing.T) {
	t.Parallel()
	args := map[string]any{
		"float":  float64(4),
		"int":    3,
		"string": "7",
		"junk":   "not a number",
	}
	if got := IntArg(args, "float", 0); got != 4 {
		t.Errorf("float64 coercion = %d", got)
	}
	if got := IntArg(args, "int", 0); got != 3 {
		t.Errorf("int passthrough = %d", got)
	}
	if got := IntArg(args, "string", 0); got != 7 {
		t.Errorf("string coercion = %d", got)
	}
	if got := IntArg(args, "junk", 9); got != 9 {
		t.Errorf("junk fallback = %d", got)
	}
	if got := IntArg(args, "absent", 5); got != 5 {
		t.Errorf("absent fallback = %d", got)
	}
}

func TestBoolArg(t *testing.T) {
	t.Parallel()
	args := map[string]any{"b": true, "s": "true", "bad": "maybe"}
	if !BoolArg(args, "b", false) || !BoolArg(args, "s", false) {
		t.Error("bool coercions failed")
	}
	if BoolArg(args, "bad", false) {
		t.Error("junk string coerced to true")
	}
}

func TestStringListArg(t *testing.T) {
	t.Parallel()
	fallback := []string{"default"}
	tests := []struct {
		in   any
		want []string
	}{
		{[]string{"a", "b"}, []string{"a", "b"}},
		{[]any{"a", "b"}, []string{"a", "b"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{[]any{}, fallback},
		{nil, fallback},
	}
	for _, tc := range tests {
		got := StringListArg(map[string]any{"k": tc.in}, "k", fallback)
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("StringListArg(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if got := StringListArg(map[string]any{}, "k", fallback); !reflect.DeepEqual(got, fallback) {
		t.Errorf("absent key = %v", got)
	}
}

func TestOfferedIn(t *testing.T) {
	t.Parallel()
	open := Metadata{}
	if !open.OfferedIn(ModeInteractive) || !open.OfferedIn(ModeConversational) {
		t.Error("empty mode list should offer everywhere")
	}
	restricted := Metadata{Modes: []Mode{ModeInteractive}}
	if restricted.OfferedIn(ModeConversational) {
		t.Error("mode restriction ignored")
	}
}
