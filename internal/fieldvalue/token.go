package fieldvalue

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldMetaData identifies a field by key, value type and cardinality.
// It is comparable and can be used directly as a map key.
type FieldMetaData struct {
	Key           string        `json:"key"`
	ValueType     ValueType     `json:"valueType"`
	SelectionType SelectionType `json:"selectionType"`
}

// EncodeToken returns the canonical token for m:
// {"key":...,"valueType":...,"selectionType":...} with that field order and
// no HTML escaping. The token is the column id handed to the workflow host
// and comes back as the key of the mapped values.
func (m FieldMetaData) EncodeToken() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail.
	_ = enc.Encode(m)
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}

func (m FieldMetaData) String() string { return m.EncodeToken() }

// DecodeToken parses a token produced by EncodeToken.
func DecodeToken(token string) (FieldMetaData, error) {
	var m FieldMetaData
	dec := json.NewDecoder(bytes.NewReader([]byte(token)))
	if err := dec.Decode(&m); err != nil {
		return FieldMetaData{}, fmt.Errorf("decode field token %q: %w", token, err)
	}
	if dec.More() {
		return FieldMetaData{}, fmt.Errorf("decode field token %q: trailing data", token)
	}
	if m.Key == "" {
		return FieldMetaData{}, fmt.Errorf("decode field token %q: key is empty", token)
	}
	if !m.SelectionType.Valid() {
		return FieldMetaData{}, fmt.Errorf("decode field token %q: invalid selectionType %q", token, m.SelectionType)
	}
	return m, nil
}

// MetaDataOf returns the metadata identifying f.
func MetaDataOf(f Field) FieldMetaData {
	return FieldMetaData{Key: f.Key, ValueType: f.ValueType, SelectionType: f.SelectionType}
}
