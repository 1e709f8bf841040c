package mapping

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

type fakeDoer struct {
	body     string
	err      error
	requests []graphql.Request
}

func (f *fakeDoer) Do(_ context.Context, req graphql.Request) (*graphql.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return graphql.NewResponse([]byte(f.body)), nil
}

const formBody = `{"data":{
  "dataForm":{
    "allowedStatus":[
      {"id":"s-done","name":"Done","category":"Done"},
      {"id":"s-open","name":"Open","category":"Todo"}
    ],
    "types":[
      {"key":"lead","displayName":"Lead",
       "allowedStatus":[
         {"id":"s-wip","name":"Working","category":"InProgress"},
         {"id":"s-open","name":"Open (lead)","category":"Todo"}
       ],
       "additionalFields":[
         {"key":"source","label":"Source","fieldType":"Value","selectionType":"Single","valueType":"ComboBox","required":true,
          "comboBoxOptions":[{"id":"c1","value":"Web"},{"id":"c2","value":"Fair"}]}
       ]},
      {"key":"partner","displayName":"Partner","additionalFields":[
         {"key":"discount","label":"Discount","fieldType":"Value","selectionType":"Single","valueType":"Number"}
       ]}
    ],
    "fields":[
      {"key":"id","label":"ID","fieldType":"Value","selectionType":"Single","valueType":"Text"},
      {"key":"name","label":"Name","fieldType":"Value","selectionType":"Single","valueType":"Text","required":true},
      {"key":"header","label":"Header","fieldType":"Group"},
      {"key":"notes","label":"Notes","fieldType":"Value","selectionType":"List","valueType":"Text"},
      {"key":"phones","label":"Phones","fieldType":"Value","selectionType":"List","valueType":"PhoneNumber"},
      {"key":"status","label":"Status","fieldType":"Value","selectionType":"Single","valueType":"Status"},
      {"key":"owner","label":"Owner","fieldType":"Value","selectionType":"Single","valueType":"User"}
    ]
  }
}}`

func TestColumns(t *testing.T) {
	doer := &fakeDoer{body: formBody}
	m := New(doer)

	cols, err := m.Columns(context.Background(), "contacts", []string{"lead"}, false)
	require.NoError(t, err)
	require.Len(t, doer.requests, 1)
	assert.Equal(t, map[string]any{"dataCollection": "contacts"}, doer.requests[0].Variables)

	byKey := make(map[string]Column)
	var keys []string
	for _, c := range cols {
		meta, err := fieldvalue.DecodeToken(c.ID)
		require.NoError(t, err)
		assert.Equal(t, c.ID, meta.EncodeToken())
		byKey[meta.Key] = c
		keys = append(keys, meta.Key)
	}

	assert.Equal(t, []string{"id", "name", "notes", "phones", "status", "owner", "source"}, keys)

	assert.True(t, byKey["id"].DefaultMatch)
	assert.False(t, byKey["name"].DefaultMatch)
	assert.True(t, byKey["name"].Required)
	assert.True(t, byKey["source"].Required)
	assert.True(t, byKey["name"].Display)

	assert.Equal(t, "Notes (list - provide values in JSON array)", byKey["notes"].DisplayName)
	assert.Equal(t, fieldvalue.KindArray, byKey["notes"].Type)
	assert.Equal(t, "Phones (list - separate values with comma)", byKey["phones"].DisplayName)
	assert.Equal(t, fieldvalue.KindString, byKey["phones"].Type)
	assert.Equal(t, "Name", byKey["name"].DisplayName)

	assert.Equal(t, []fieldvalue.Option{{Name: "Web", Value: "c1"}, {Name: "Fair", Value: "c2"}}, byKey["source"].Options)
	assert.Nil(t, byKey["owner"].Options)
	assert.Equal(t, fieldvalue.KindString, byKey["owner"].Type)
	assert.Equal(t, []fieldvalue.Option{
		{Name: "Open (lead)", Value: "s-open"},
		{Name: "Working", Value: "s-wip"},
		{Name: "Done", Value: "s-done"},
	}, byKey["status"].Options)
	assert.Nil(t, byKey["name"].Options)
}

func TestColumnsForUpdate(t *testing.T) {
	m := New(&fakeDoer{body: formBody})

	cols, err := m.Columns(context.Background(), "contacts", []string{"lead"}, true)
	require.NoError(t, err)
	for _, c := range cols {
		assert.False(t, c.Required, c.ID)
	}
}

func TestColumnsWithoutTypes(t *testing.T) {
	m := New(&fakeDoer{body: formBody})

	cols, err := m.Columns(context.Background(), "contacts", nil, false)
	require.NoError(t, err)
	assert.Len(t, cols, 6)

	status := cols[4]
	assert.Equal(t, "Status", status.DisplayName)
	assert.Equal(t, []fieldvalue.Option{
		{Name: "Open", Value: "s-open"},
		{Name: "Done", Value: "s-done"},
	}, status.Options)
}

func TestColumnsEmptyCollection(t *testing.T) {
	doer := &fakeDoer{}
	cols, err := New(doer).Columns(context.Background(), "", nil, false)
	require.NoError(t, err)
	assert.Empty(t, cols)
	assert.Empty(t, doer.requests)
}

func TestColumnsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := New(&fakeDoer{err: boom}).Columns(context.Background(), "contacts", nil, false)
	assert.ErrorIs(t, err, boom)
}

func TestMergeStatusesOrdering(t *testing.T) {
	form := dataForm{AllowedStatus: []fieldvalue.TaskStatus{
		{ID: "a", Category: "Done"},
		{ID: "b", Category: "Custom"},
		{ID: "c", Category: "InProgress"},
		{ID: "", Category: "Todo"},
		{ID: "d", Category: "Todo"},
		{ID: "e", Category: "Done"},
	}}

	got := mergeStatuses(form, nil)
	var ids []string
	for _, s := range got {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"b", "d", "c", "a", "e"}, ids)
}
