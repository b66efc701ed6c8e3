package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// Payloads are carried as generic values so a peer on one codec can be
// paired with a peer on the other. JSON numbers are kept as json.Number to
// survive a JSON to JSON relay exactly.
//
// Known limits when a payload crosses codecs:
//   - MessagePack map keys that are not strings arrive as their decimal or
//     fmt text form, since JSON objects only have string keys.
//   - MessagePack bin values reach JSON peers as base64 strings.

// plainNumbers returns v with every json.Number replaced by an int64,
// uint64 or float64. Maps and slices are copied, never modified in place,
// because one payload may be encoded for several peers concurrently.
func plainNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return numberValue(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = plainNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plainNumbers(e)
		}
		return out
	default:
		return v
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// decodeMap is the MessagePack map decoder for generic payloads. Keys of
// any type are accepted and converted to strings.
func decodeMap(d *msgpack.Decoder) (any, error) {
	n, err := d.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	if n == -1 {
		return nil, nil
	}

	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		k, err := d.DecodeInterface()
		if err != nil {
			return nil, err
		}
		v, err := d.DecodeInterface()
		if err != nil {
			return nil, err
		}
		m[mapKey(k)] = v
	}
	return m, nil
}

func mapKey(k any) string {
	switch x := k.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
