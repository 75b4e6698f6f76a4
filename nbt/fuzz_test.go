package nbt

import (
	"bytes"
	"testing"
)

func FuzzUnmarshal(f *testing.F) {
	f.Add(helloWorld)
	if data, err := Marshal("root", sampleTree()); err == nil {
		f.Add(data)
	}
	f.Add([]byte{0x0a, 0x00, 0x00, 0x09, 0x00, 0x01, 'x', 0x03, 0x7f, 0xff, 0xff, 0xff, 0x00})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		name, root, err := Unmarshal(data)
		if err != nil {
			return
		}
		// Anything that decodes must re-encode and decode to the same tree.
		out, err := Marshal(name, root)
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		name2, root2, err := Unmarshal(out)
		if err != nil {
			t.Fatalf("decode of re-encoded tree failed: %v", err)
		}
		if name != name2 || !Equal(root, root2) {
			t.Fatal("round trip changed the tree")
		}
		out2, err := Marshal(name2, root2)
		if err != nil || !bytes.Equal(out, out2) {
			t.Fatal("second encode is not byte-identical")
		}
	})
}
