package fieldvalue

import (
	"fmt"
	"sort"
)

// FieldInput is one entry of the `fields` list in create/update mutations.
type FieldInput struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// BuildFields converts the host's token→value mapping into mutation field
// inputs. Output is ordered by token so the same mapping always produces the
// same variables payload.
func BuildFields(values map[string]any) ([]FieldInput, error) {
	tokens := make([]string, 0, len(values))
	for token := range values {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)

	fields := make([]FieldInput, 0, len(tokens))
	for _, token := range tokens {
		meta, err := DecodeToken(token)
		if err != nil {
			return nil, err
		}
		v, err := Value(values[token], meta.ValueType, meta.SelectionType)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", meta.Key, err)
		}
		fields = append(fields, FieldInput{Key: meta.Key, Value: v})
	}
	return fields, nil
}
