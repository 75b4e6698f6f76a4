package nbt

import (
	"testing"
)

type sign struct {
	Text    []string `nbt:"Text"`
	Glowing bool     `nbt:"GlowingText"`
	Color   string   `nbt:"Color"`
	Ignored int      `nbt:"-"`
	private int
}

func TestValueOfStruct(t *testing.T) {
	got, err := ValueOf(sign{Text: []string{"a", "b"}, Glowing: true, Color: "black", Ignored: 4, private: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := NewCompound()
	want.Set("Text", NewList(TagString, String("a"), String("b")))
	want.Set("GlowingText", Byte(1))
	want.Set("Color", String("black"))
	if !Equal(want, got) {
		t.Errorf("got %v, want %v", Plain(got), Plain(want))
	}
}

func TestValueOfMapAndSlices(t *testing.T) {
	got, err := ValueOf(map[string]interface{}{
		"z":     int32(1),
		"a":     []int64{1, 2},
		"bytes": []byte{1},
		"items": []interface{}{map[string]interface{}{"id": "minecraft:dirt"}},
		"none":  []interface{}{},
		"tag":   Long(5),
	})
	if err != nil {
		t.Fatal(err)
	}
	c := got.(*Compound)
	names := c.Names()
	want := []string{"a", "bytes", "items", "none", "tag", "z"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	if v, _ := c.Get("a"); v.Type() != TagLongArray {
		t.Errorf("a: %s", v.Type())
	}
	if v, _ := c.Get("bytes"); v.Type() != TagByteArray {
		t.Errorf("bytes: %s", v.Type())
	}
	if v, _ := c.Get("items"); v.(*List).Elem != TagCompound {
		t.Errorf("items elem: %s", v.(*List).Elem)
	}
	if v, _ := c.Get("none"); v.(*List).Elem != TagEnd {
		t.Errorf("none elem: %s", v.(*List).Elem)
	}
	if v, _ := c.Get("tag"); v != Tag(Long(5)) {
		t.Errorf("tag = %v", v)
	}
}

func TestValueOfRejectsMixedSlices(t *testing.T) {
	if _, err := ValueOf([]interface{}{int32(1), "x"}); err == nil {
		t.Error("expected an error for mixed element types")
	}
	if _, err := ValueOf(map[int]string{1: "x"}); err == nil {
		t.Error("expected an error for non-string map keys")
	}
}
