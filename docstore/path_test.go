package docstore

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		key     string
		id      string
		path    string
		hasPath bool
	}{
		{"user", "user", "", false},
		{"user.name", "user", "name", true},
		{"user.stats.hp.max", "user", "stats.hp.max", true},
		{"user.", "user", "", false},
		{".x", "", "x", true},
		{"", "", "", false},
	}
	for _, tc := range tests {
		id, path, hasPath := ParseKey(tc.key)
		if id != tc.id || path != tc.path || hasPath != tc.hasPath {
			t.Errorf("ParseKey(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.key, id, path, hasPath, tc.id, tc.path, tc.hasPath)
		}
	}
}

func TestLookup(t *testing.T) {
	doc := map[string]any{
		"a":    map[string]any{"b": map[string]any{"c": 1.0}},
		"list": []any{"x"},
		"nul":  nil,
	}
	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"a.b.c", 1.0, true},
		{"a.b", map[string]any{"c": 1.0}, true},
		{"a.x", nil, false},
		{"list", []any{"x"}, true},
		{"list.0", nil, false},
		{"nul", nil, true},
		{"nul.x", nil, false},
		{"a.b.c.d", nil, false},
	}
	for _, tc := range tests {
		got, ok := lookup(doc, segments(tc.path))
		if ok != tc.ok || !reflect.DeepEqual(got, tc.want) {
			t.Errorf("lookup(%q) = (%v, %v), want (%v, %v)", tc.path, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAssign(t *testing.T) {
	root := map[string]any{"keep": 1.0, "s": "str"}
	assign(root, segments("new.deep.leaf"), true)
	assign(root, segments("s.x"), 2.0)
	assign(root, segments("keep"), 3.0)
	want := map[string]any{
		"keep": 3.0,
		"s":    map[string]any{"x": 2.0},
		"new":  map[string]any{"deep": map[string]any{"leaf": true}},
	}
	if !reflect.DeepEqual(root, want) {
		t.Fatalf("got %v, want %v", root, want)
	}
}

func TestRemove(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": 1.0}, "n": 2.0}
	if remove(root, segments("x.b")) {
		t.Fatal("missing intermediate must report false")
	}
	if remove(root, segments("n.b")) {
		t.Fatal("scalar intermediate must report false")
	}
	if _, ok := root["x"]; ok {
		t.Fatal("remove must not create intermediates")
	}
	if !remove(root, segments("a.b")) {
		t.Fatal("expected removal")
	}
	if !reflect.DeepEqual(root, map[string]any{"a": map[string]any{}, "n": 2.0}) {
		t.Fatalf("unexpected %v", root)
	}
	if remove("scalar", segments("a")) {
		t.Fatal("non-object root must report false")
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{nil, 0, true},
		{1.5, 1.5, true},
		{int64(-3), -3, true},
		{uint8(7), 7, true},
		{json.Number("12"), 12, true},
		{"  42 ", 42, true},
		{"", 0, true},
		{"1e3", 1000, true},
		{"abc", 0, false},
		{true, 1, true},
		{false, 0, true},
		{map[string]any{}, 0, false},
		{[]any{}, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{"NaN", 0, false},
	}
	for _, tc := range tests {
		got, ok := toNumber(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("toNumber(%#v) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
