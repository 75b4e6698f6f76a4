package spongeschem

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/astei/spongeschem/compression"
	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/palette"
	"github.com/astei/spongeschem/schema"
	"github.com/astei/spongeschem/schematic"
)

func checkerboard(t *testing.T) *schematic.Schematic {
	t.Helper()
	b, err := schematic.NewBuilder(2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 2; y++ {
		for z := 0; z < 2; z++ {
			for x := 0; x < 2; x++ {
				id := "B"
				if (x+y+z)%2 == 0 {
					id = "A"
				}
				if err := b.SetBlock(x, y, z, id); err != nil {
					t.Fatal(err)
				}
			}
		}
	}
	s, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func voxels(s *schematic.Schematic) map[schematic.Pos]string {
	out := make(map[schematic.Pos]string)
	w, h, l := s.Dimensions()
	for y := 0; y < h; y++ {
		for z := 0; z < l; z++ {
			for x := 0; x < w; x++ {
				id, _ := s.Block(x, y, z)
				out[schematic.Pos{X: x, Y: y, Z: z}] = id
			}
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	s := checkerboard(t)
	for _, version := range schema.Versions() {
		for _, scheme := range []compression.Scheme{compression.None, compression.Gzip, compression.Zlib, compression.Zstd} {
			data, report, err := Encode(s, WithVersion(version), WithCompression(scheme))
			if err != nil {
				t.Fatalf("v%d %v: %v", version, scheme, err)
			}
			if !report.Lossless() {
				t.Errorf("v%d %v: dropped %v", version, scheme, report.Dropped)
			}
			if got := compression.Detect(data); got != scheme {
				t.Errorf("v%d: detected %v, wrote %v", version, got, scheme)
			}
			out, err := Decode(data)
			if err != nil {
				t.Fatalf("v%d %v: %v", version, scheme, err)
			}
			if diff := cmp.Diff(voxels(s), voxels(out)); diff != "" {
				t.Errorf("v%d %v (-want +got):\n%s", version, scheme, diff)
			}
		}
	}
}

func TestDefaults(t *testing.T) {
	data, report, err := Encode(checkerboard(t))
	if err != nil {
		t.Fatal(err)
	}
	if compression.Detect(data) != compression.Gzip || report.Version != schema.LatestVersion {
		t.Errorf("scheme %v version %d", compression.Detect(data), report.Version)
	}
	if _, _, err := Encode(checkerboard(t), WithLevel(9)); err != nil {
		t.Errorf("level 9: %v", err)
	}
}

func TestTruncatedBuffer(t *testing.T) {
	s := checkerboard(t)
	for _, scheme := range []compression.Scheme{compression.None, compression.Gzip} {
		data, _, err := Encode(s, WithCompression(scheme))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Decode(data[:len(data)-3]); !errors.Is(err, ErrTruncated) {
			t.Errorf("%v: err = %v, want ErrTruncated", scheme, err)
		}
	}
}

func TestUnsupportedVersion(t *testing.T) {
	root := nbt.NewCompound()
	root.Set("Version", nbt.Int(7))
	raw, err := nbt.Marshal("Schematic", root)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(raw); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("err = %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"unknown tag", []byte{0x0a, 0x00, 0x00, 0x42}, ErrUnknownTag},
		{"bad gzip", []byte{0x1f, 0x8b, 0x00, 0x00, 0x01, 0x02}, ErrDecompressionFailed},
		{"not a schematic", []byte{0x0a, 0x00, 0x01, 'x', 0x00}, ErrNotSchematic},
	}
	for _, tt := range tests {
		if _, err := Decode(tt.data); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestMaxDecompressedSize(t *testing.T) {
	data, _, err := Encode(checkerboard(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(data, WithMaxDecompressedSize(16)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
}

func TestCheckerOptions(t *testing.T) {
	data, _, _ := Encode(checkerboard(t))
	onlyA := palette.CheckerFunc(func(id string) bool { return id == "A" || id == palette.DefaultBlock })
	if _, err := Decode(data, WithBlockChecker(onlyA)); !errors.Is(err, ErrUnresolvedBlockState) {
		t.Errorf("err = %v", err)
	}
	all := palette.CheckerFunc(func(string) bool { return true })
	if _, err := Decode(data, WithBlockChecker(all), WithBiomeChecker(all)); err != nil {
		t.Errorf("accept all: %v", err)
	}
}

func TestDecodeTree(t *testing.T) {
	data, _, _ := Encode(checkerboard(t), WithCompression(compression.Zstd))
	name, root, err := DecodeTree(data)
	if err != nil {
		t.Fatal(err)
	}
	if name != "" || !root.Has(schema.RootName) {
		t.Errorf("name %q keys %v", name, root.Names())
	}
	raw, _ := nbt.Marshal(name, root)
	plain, _, _ := Encode(checkerboard(t), WithCompression(compression.None))
	if !bytes.Equal(raw, plain) {
		t.Error("re-encoded tree differs from uncompressed output")
	}
}

func TestMaxTags(t *testing.T) {
	root := nbt.NewCompound()
	list := nbt.NewList(nbt.TagCompound)
	for i := 0; i < 64; i++ {
		list.Items = append(list.Items, nbt.NewCompound())
	}
	root.Set("Entities", list)
	raw, err := nbt.Marshal("Schematic", root)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := DecodeTree(raw, WithMaxTags(16)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("err = %v, want ErrTooLarge", err)
	}
	if _, _, err := DecodeTree(raw, WithMaxTags(0)); err != nil {
		t.Errorf("unbounded: %v", err)
	}
}
