package fieldvalue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFields(t *testing.T) {
	title := FieldMetaData{Key: "title", ValueType: Text, SelectionType: Single}
	budget := FieldMetaData{Key: "budget", ValueType: Number, SelectionType: Single}
	avatar := FieldMetaData{Key: "avatar", ValueType: Avatar, SelectionType: Single}

	fields, err := BuildFields(map[string]any{
		title.EncodeToken():  "Kickoff",
		budget.EncodeToken(): "1200",
		avatar.EncodeToken(): "ignored.png",
	})
	require.NoError(t, err)

	b, err := json.Marshal(fields)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"key":"avatar","value":null},
		{"key":"budget","value":{"number":1200}},
		{"key":"title","value":{"text":"Kickoff"}}
	]`, string(b))
}

func TestBuildFields_Errors(t *testing.T) {
	_, err := BuildFields(map[string]any{"title": "x"})
	assert.Error(t, err)

	addr := FieldMetaData{Key: "home", ValueType: Address, SelectionType: Single}
	_, err = BuildFields(map[string]any{addr.EncodeToken(): "{not json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `field "home"`)
}

func TestBuildFields_Empty(t *testing.T) {
	fields, err := BuildFields(nil)
	require.NoError(t, err)
	assert.Empty(t, fields)
}
