package schema

import (
	"fmt"

	"github.com/astei/spongeschem/nbt"
	"github.com/astei/spongeschem/schematic"
)

// field reads name from c as a T. A missing optional field returns ok=false.
func field[T nbt.Tag](c *nbt.Compound, path, name string, required bool) (v T, ok bool, err error) {
	raw, found := c.Get(name)
	if !found {
		if required {
			return v, false, fieldErr(path, ErrMissingField)
		}
		return v, false, nil
	}
	v, ok = raw.(T)
	if !ok {
		return v, false, fieldErr(path, fmt.Errorf("%w: %s, want %s", ErrWrongType, raw.Type(), v.Type()))
	}
	return v, true, nil
}

// compoundList reads an optional list whose elements must be compounds.
func compoundList(c *nbt.Compound, path, name string) ([]*nbt.Compound, error) {
	list, ok, err := field[*nbt.List](c, path, name, false)
	if err != nil || !ok {
		return nil, err
	}
	if list.Len() == 0 {
		return nil, nil
	}
	if list.Elem != nbt.TagCompound {
		return nil, fieldErr(path, fmt.Errorf("%w: list of %s, want %s", ErrWrongType, list.Elem, nbt.TagCompound))
	}
	out := make([]*nbt.Compound, list.Len())
	for i, item := range list.Items {
		c, ok := item.(*nbt.Compound)
		if !ok {
			return nil, fieldErr(fmt.Sprintf("%s[%d]", path, i), fmt.Errorf("%w: %s, want %s", ErrWrongType, item.Type(), nbt.TagCompound))
		}
		out[i] = c
	}
	return out, nil
}

// position reads a three element IntArray.
func position(c *nbt.Compound, path, name string, required bool) (schematic.Pos, bool, error) {
	arr, ok, err := field[nbt.IntArray](c, path, name, required)
	if err != nil || !ok {
		return schematic.Pos{}, ok, err
	}
	if len(arr) != 3 {
		return schematic.Pos{}, false, fieldErr(path, fmt.Errorf("%w: %d elements, want 3", ErrInvalidValue, len(arr)))
	}
	return schematic.Pos{X: int(arr[0]), Y: int(arr[1]), Z: int(arr[2])}, true, nil
}

func positionTag(p schematic.Pos) nbt.IntArray {
	return nbt.IntArray{int32(p.X), int32(p.Y), int32(p.Z)}
}

// dimension reads an unsigned short extent.
func dimension(c *nbt.Compound, name string) (int, error) {
	v, _, err := field[nbt.Short](c, name, name, true)
	if err != nil {
		return 0, err
	}
	return int(uint16(v)), nil
}
