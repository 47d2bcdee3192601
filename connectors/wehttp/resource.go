package wehttp

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/weegigs/wee-counter-go/we"
)

type StateSerializer[T any] func(snapshot we.Snapshot[T]) (map[string]any, error)

// DefaultSerializer spreads the JSON encoding of the state into the resource. States that do not
// encode to an object are placed under "value". Integers keep their full 64 bit precision.
func DefaultSerializer[T any](snapshot we.Snapshot[T]) (map[string]any, error) {
	serialized, err := json.Marshal(snapshot.State)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(serialized))
	dec.UseNumber()

	var decoded any
	if err = dec.Decode(&decoded); err != nil {
		return nil, err
	}
	decoded = numbers(decoded)

	if resource, ok := decoded.(map[string]any); ok {
		return resource, nil
	}

	return map[string]any{"value": decoded}, nil
}

// numbers replaces decoded json.Number values with int64 where they fit and float64 otherwise,
// so any encoder writes them back as plain numbers.
func numbers(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case map[string]any:
		for key, item := range v {
			v[key] = numbers(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = numbers(item)
		}
		return v
	default:
		return value
	}
}

type ResourceEncoder[T any] struct {
	Serializer StateSerializer[T]
}

func (encoder ResourceEncoder[T]) Resource(snapshot we.Snapshot[T]) (map[string]any, error) {
	serialize := encoder.Serializer
	if serialize == nil {
		serialize = DefaultSerializer[T]
	}

	resource, err := serialize(snapshot)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		resource = map[string]any{}
	}

	resource["$id"] = snapshot.Store
	resource["$type"] = snapshot.Type
	resource["$revision"] = snapshot.Revision

	return resource, nil
}
