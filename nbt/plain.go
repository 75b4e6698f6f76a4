package nbt

// Plain converts a tag tree into plain Go values for JSON or YAML output.
// Compounds become map[string]interface{}, so key order is not preserved.
func Plain(t Tag) interface{} {
	switch v := t.(type) {
	case Byte:
		return int8(v)
	case Short:
		return int16(v)
	case Int:
		return int32(v)
	case Long:
		return int64(v)
	case Float:
		return float32(v)
	case Double:
		return float64(v)
	case String:
		return string(v)
	case ByteArray:
		out := make([]int8, len(v))
		for i, b := range v {
			out[i] = int8(b)
		}
		return out
	case IntArray:
		return []int32(v)
	case LongArray:
		return []int64(v)
	case *List:
		out := make([]interface{}, len(v.Items))
		for i, item := range v.Items {
			out[i] = Plain(item)
		}
		return out
	case *Compound:
		out := make(map[string]interface{}, v.Len())
		for name, item := range v.All() {
			out[name] = Plain(item)
		}
		return out
	}
	return nil
}
