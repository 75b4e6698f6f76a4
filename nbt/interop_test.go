package nbt

import (
	"testing"

	gomcnbt "github.com/Tnze/go-mc/nbt"
)

// The encoder's output must be readable by an independent implementation.
func TestGoMCReadsEncoderOutput(t *testing.T) {
	schem := NewCompound()
	schem.Set("Version", Int(3))
	schem.Set("DataVersion", Int(3465))
	schem.Set("Width", Short(2))
	schem.Set("Height", Short(3))
	schem.Set("Length", Short(4))
	schem.Set("Data", ByteArray{0, 1, 1, 0})
	root := NewCompound()
	root.Set("Schematic", schem)

	data, err := Marshal("", root)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Schematic struct {
			Version     int32  `nbt:"Version"`
			DataVersion int32  `nbt:"DataVersion"`
			Width       int16  `nbt:"Width"`
			Height      int16  `nbt:"Height"`
			Length      int16  `nbt:"Length"`
			Data        []byte `nbt:"Data"`
		} `nbt:"Schematic"`
	}
	if err := gomcnbt.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("go-mc could not read encoder output: %v", err)
	}
	s := decoded.Schematic
	if s.Version != 3 || s.DataVersion != 3465 || s.Width != 2 || s.Height != 3 || s.Length != 4 {
		t.Errorf("go-mc decoded %+v", s)
	}
	if len(s.Data) != 4 || s.Data[1] != 1 {
		t.Errorf("data = %v", s.Data)
	}
}
