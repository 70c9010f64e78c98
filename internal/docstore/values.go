package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeKey marks an encoded timestamp inside a JSON payload.
const timeKey = "$time"

// Resolve returns a copy of data with ServerTimestamp replaced by now and
// numeric values widened to float64.
func Resolve(data Data, now time.Time) (Data, error) {
	out := make(Data, len(data))
	for k, v := range data {
		if k == "" {
			return nil, fmt.Errorf("empty field name")
		}
		nv, err := normalize(v, now)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

// Normalize converts a filter value to the representation stores compare against.
func Normalize(v any) (any, error) {
	return normalize(v, time.Time{})
}

func normalize(v any, now time.Time) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, float64:
		return val, nil
	case serverTimestamp:
		if now.IsZero() {
			return nil, fmt.Errorf("server timestamp not allowed here")
		}
		return now.UTC(), nil
	case time.Time:
		return val.UTC(), nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Merge applies patch on top of base, returning a new map.
func Merge(base, patch Data) Data {
	out := make(Data, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Clone copies the top level of data.
func Clone(data Data) Data {
	return Merge(data, nil)
}

// EncodeJSON serialises resolved data for backends that store JSON text.
// Timestamps are wrapped so they round-trip as time.Time.
func EncodeJSON(data Data) ([]byte, error) {
	wire := make(map[string]any, len(data))
	for k, v := range data {
		if t, ok := v.(time.Time); ok {
			wire[k] = map[string]string{timeKey: t.UTC().Format(time.RFC3339Nano)}
			continue
		}
		wire[k] = v
	}
	return json.Marshal(wire)
}

// EncodeJSONValue serialises a single normalized value.
func EncodeJSONValue(v any) ([]byte, error) {
	if t, ok := v.(time.Time); ok {
		return json.Marshal(map[string]string{timeKey: t.UTC().Format(time.RFC3339Nano)})
	}
	return json.Marshal(v)
}

// DecodeJSON is the inverse of EncodeJSON.
func DecodeJSON(raw []byte) (Data, error) {
	var wire map[string]any
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	out := make(Data, len(wire))
	for k, v := range wire {
		if obj, ok := v.(map[string]any); ok && len(obj) == 1 {
			if s, ok := obj[timeKey].(string); ok {
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, fmt.Errorf("decode field %s: %w", k, err)
				}
				out[k] = t
				continue
			}
		}
		out[k] = v
	}
	return out, nil
}
