package nbt

import (
	"errors"
	"math"
	"reflect"
	"sort"
)

var tagInterface = reflect.TypeOf((*Tag)(nil)).Elem()

// ValueOf converts a Go value into a tag tree. Structs become compounds keyed by
// field name or `nbt:"name"` tag, string-keyed maps become compounds with sorted
// keys, and slices become arrays or lists depending on their element kind.
// Values that already implement Tag are returned unchanged.
func ValueOf(v interface{}) (Tag, error) {
	return valueOf(reflect.ValueOf(v), "")
}

func valueOf(val reflect.Value, tagName string) (Tag, error) {
	if val.IsValid() && val.Type().Implements(tagInterface) {
		if t, ok := val.Interface().(Tag); ok && t != nil {
			return t, nil
		}
	}

	switch vk := val.Kind(); vk {
	default:
		return nil, errors.New("nbt: unknown type " + vk.String() + " whilst converting " + tagName)

	case reflect.Bool:
		if val.Bool() {
			return Byte(1), nil
		}
		return Byte(0), nil

	case reflect.Int8:
		return Byte(val.Int()), nil

	case reflect.Uint8:
		return Byte(int8(val.Uint())), nil

	case reflect.Int16:
		return Short(val.Int()), nil

	case reflect.Uint16:
		return Short(int16(val.Uint())), nil

	case reflect.Int32:
		return Int(val.Int()), nil

	case reflect.Uint32:
		return Int(int32(val.Uint())), nil

	case reflect.Int:
		n := val.Int()
		if n < math.MinInt32 || n > math.MaxInt32 {
			return Long(n), nil
		}
		return Int(n), nil

	case reflect.Int64:
		return Long(val.Int()), nil

	case reflect.Uint64:
		return Long(int64(val.Uint())), nil

	case reflect.Float32:
		return Float(val.Float()), nil

	case reflect.Float64:
		return Double(val.Float()), nil

	case reflect.String:
		return String(val.String()), nil

	case reflect.Array, reflect.Slice:
		return arrayOf(val, tagName)

	case reflect.Struct:
		return structOf(val)

	case reflect.Map:
		if val.Type().Key().Kind() != reflect.String {
			return nil, errors.New("nbt: unknown key type " + val.Type().String() + " for map")
		}
		return mapOf(val)

	case reflect.Interface, reflect.Ptr:
		if val.IsNil() {
			return nil, errors.New("nbt: nil value whilst converting " + tagName)
		}
		return valueOf(val.Elem(), tagName)
	}
}

func arrayOf(val reflect.Value, tagName string) (Tag, error) {
	n := val.Len()
	switch val.Type().Elem().Kind() {
	case reflect.Uint8: // []byte
		out := make(ByteArray, n)
		for i := 0; i < n; i++ {
			out[i] = byte(val.Index(i).Uint())
		}
		return out, nil

	case reflect.Int32:
		out := make(IntArray, n)
		for i := 0; i < n; i++ {
			out[i] = int32(val.Index(i).Int())
		}
		return out, nil

	case reflect.Int64:
		out := make(LongArray, n)
		for i := 0; i < n; i++ {
			out[i] = val.Index(i).Int()
		}
		return out, nil

	case reflect.Interface:
		// Every element has to agree on its tag type; an empty slice becomes a TagEnd list.
		list := NewList(TagEnd)
		for i := 0; i < n; i++ {
			item, err := valueOf(val.Index(i), tagName)
			if err != nil {
				return nil, err
			}
			if err := list.Append(item); err != nil {
				return nil, errors.New("nbt: mixed types in slice " + tagName + ": found " +
					item.Type().String() + " and " + list.Elem.String())
			}
		}
		return list, nil

	default:
		list := NewList(TagEnd)
		for i := 0; i < n; i++ {
			item, err := valueOf(val.Index(i), tagName)
			if err != nil {
				return nil, err
			}
			if err := list.Append(item); err != nil {
				return nil, err
			}
		}
		return list, nil
	}
}

func structOf(val reflect.Value) (*Compound, error) {
	c := NewCompound()
	t := val.Type()
	for i := 0; i < val.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("nbt")
		if (f.PkgPath != "" && !f.Anonymous) || tag == "-" {
			continue // Private field
		}

		tagName := f.Name
		if tag != "" {
			tagName = tag
		}

		field := val.Field(i)
		if (field.Kind() == reflect.Ptr || field.Kind() == reflect.Interface) && field.IsNil() {
			continue
		}
		v, err := valueOf(field, tagName)
		if err != nil {
			return nil, err
		}
		c.Set(tagName, v)
	}
	return c, nil
}

func mapOf(val reflect.Value) (*Compound, error) {
	keys := val.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	c := NewCompound()
	for _, k := range keys {
		v, err := valueOf(val.MapIndex(k), k.String())
		if err != nil {
			return nil, err
		}
		c.Set(k.String(), v)
	}
	return c, nil
}
