package mapping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
)

func TestLookups(t *testing.T) {
	tests := []struct {
		name string
		body string
		call func(*Mapper) ([]fieldvalue.Option, error)
		want []fieldvalue.Option
	}{
		{
			name: "calendars keep editable only",
			body: `{"data":{"calendars":[
				{"id":"c1","name":"Team","isDefaultCalendar":false,"myPermissions":"CanEdit"},
				{"id":"c2","name":"Mine","isDefaultCalendar":true,"myPermissions":"CanEdit"},
				{"id":"c3","name":"Boss","isDefaultCalendar":false,"myPermissions":"CanView"}]}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.Calendars(context.Background()) },
			want: []fieldvalue.Option{{Name: "Team", Value: "c1"}, {Name: "Mine (default)", Value: "c2"}},
		},
		{
			name: "data collections",
			body: `{"data":{"dataForms":[{"dataCollection":"contacts","displayName":"Contacts"}]}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.DataCollections(context.Background()) },
			want: []fieldvalue.Option{{Name: "Contacts", Value: "contacts"}},
		},
		{
			name: "global search hints",
			body: `{"data":{"dataForms":[{"dataCollection":"contacts","displayName":"Contacts"}]}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) {
				return m.DataCollectionsGlobalSearch(context.Background())
			},
			want: []fieldvalue.Option{
				{Name: "— No Data Collection —", Value: ""},
				{Name: "Appointment", Value: "appointment"},
				{Name: "Email", Value: "email"},
				{Name: "Contacts", Value: "contacts"},
			},
		},
		{
			name: "invitable users",
			body: `{"data":{"invitableUsers":[{"id":"u1","displayName":"Ada"}]}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.InvitableUsers(context.Background()) },
			want: []fieldvalue.Option{{Name: "Ada", Value: "u1"}},
		},
		{
			name: "mailboxes",
			body: `{"data":{"myMailboxes":[
				{"id":"m1","isDefaultMailbox":true,"email":"a@x.io"},
				{"id":"m2","isDefaultMailbox":false,"email":"b@x.io"}]}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.Mailboxes(context.Background()) },
			want: []fieldvalue.Option{{Name: "a@x.io (default)", Value: "m1"}, {Name: "b@x.io", Value: "m2"}},
		},
		{
			name: "mailbox aliases",
			body: `{"data":{"mailbox":{"aliases":[{"email":"sales@x.io"}]}}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.MailboxAliases(context.Background(), "m1") },
			want: []fieldvalue.Option{{Name: "— No Alias —", Value: ""}, {Name: "sales@x.io", Value: "sales@x.io"}},
		},
		{
			name: "mailbox aliases of unknown mailbox",
			body: `{"data":{"mailbox":null}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.MailboxAliases(context.Background(), "m9") },
			want: []fieldvalue.Option{{Name: "— No Alias —", Value: ""}},
		},
		{
			name: "types",
			body: `{"data":{"dataForm":{"types":[{"key":"lead","displayName":"Lead","archived":false}]}}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.Types(context.Background(), " contacts ") },
			want: []fieldvalue.Option{{Name: "Lead", Value: "lead"}},
		},
		{
			name: "empty result",
			body: `{"data":{"calendars":null}}`,
			call: func(m *Mapper) ([]fieldvalue.Option, error) { return m.Calendars(context.Background()) },
			want: []fieldvalue.Option{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call(New(&fakeDoer{body: tt.body}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypesTrimsCollection(t *testing.T) {
	doer := &fakeDoer{body: `{"data":{"dataForm":{"types":[]}}}`}
	_, err := New(doer).Types(context.Background(), " contacts ")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dataCollection": "contacts"}, doer.requests[0].Variables)
}

func TestLookupsSkipWithoutInput(t *testing.T) {
	doer := &fakeDoer{}
	m := New(doer)

	aliases, err := m.MailboxAliases(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, aliases)

	types, err := m.Types(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, types)

	dc, err := m.DataCollectionOf(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, dc)

	assert.Empty(t, doer.requests)
}

func TestDataCollectionOf(t *testing.T) {
	doer := &fakeDoer{body: `{"data":{"dataEntry":{"dataCollection":"contacts"}}}`}

	dc, err := New(doer).DataCollectionOf(context.Background(), "", "e1", "e2")
	require.NoError(t, err)
	assert.Equal(t, "contacts", dc)
	assert.Equal(t, map[string]any{"id": "e1"}, doer.requests[0].Variables)

	_, err = New(&fakeDoer{body: `{"data":{"dataEntry":null}}`}).DataCollectionOf(context.Background(), "e1")
	assert.Error(t, err)
}
