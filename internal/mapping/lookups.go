package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

// PermissionCanEdit marks calendars the caller may create events in.
const PermissionCanEdit = "CanEdit"

const calendarsQuery = `
query GetCalendars {
  calendars {
    id
    name
    isDefaultCalendar
    myPermissions
  }
}`

const dataFormsQuery = `
query DataForms {
  dataForms {
    dataCollection
    displayName
  }
}`

const invitableUsersQuery = `
query InvitableUsers {
  invitableUsers {
    id
    displayName
  }
}`

const mailboxesQuery = `
query NewEmailMailboxesQuery {
  myMailboxes {
    id
    isDefaultMailbox
    email
  }
}`

const mailboxAliasesQuery = `
query MailboxAliases($id: ID!) {
  mailbox(id: $id) {
    aliases {
      email
    }
  }
}`

const typesQuery = `
query TypesForCollection($dataCollection: DataCollection!) {
  dataForm(dataCollection: $dataCollection) {
    types(includeArchived: false) {
      key
      displayName
      archived
    }
  }
}`

const dataCollectionOfQuery = `
query($id: ID!) {
  dataEntry(id: $id) {
    dataCollection
  }
}`

// list runs query and decodes the array at path. A missing or null array
// decodes as empty.
func list[T any](ctx context.Context, m *Mapper, query string, vars map[string]any, path string) ([]T, error) {
	resp, err := m.client.Do(ctx, graphql.Request{Query: query, Variables: vars})
	if err != nil {
		return nil, err
	}
	var out []T
	if !resp.Get(path).IsArray() {
		return out, nil
	}
	if err := resp.Decode(path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func withDefault(name string, isDefault bool) string {
	if isDefault {
		return name + " (default)"
	}
	return name
}

// Calendars lists the calendars the caller can edit.
func (m *Mapper) Calendars(ctx context.Context) ([]fieldvalue.Option, error) {
	type calendar struct {
		ID                string `json:"id"`
		Name              string `json:"name"`
		IsDefaultCalendar bool   `json:"isDefaultCalendar"`
		MyPermissions     string `json:"myPermissions"`
	}
	calendars, err := list[calendar](ctx, m, calendarsQuery, nil, "data.calendars")
	if err != nil {
		return nil, fmt.Errorf("list calendars: %w", err)
	}

	opts := []fieldvalue.Option{}
	for _, c := range calendars {
		if c.MyPermissions != PermissionCanEdit {
			continue
		}
		opts = append(opts, fieldvalue.Option{Name: withDefault(c.Name, c.IsDefaultCalendar), Value: c.ID})
	}
	return opts, nil
}

type form struct {
	DataCollection string `json:"dataCollection"`
	DisplayName    string `json:"displayName"`
}

func (m *Mapper) forms(ctx context.Context) ([]fieldvalue.Option, error) {
	forms, err := list[form](ctx, m, dataFormsQuery, nil, "data.dataForms")
	if err != nil {
		return nil, fmt.Errorf("list data collections: %w", err)
	}
	opts := make([]fieldvalue.Option, 0, len(forms))
	for _, f := range forms {
		opts = append(opts, fieldvalue.Option{Name: f.DisplayName, Value: f.DataCollection})
	}
	return opts, nil
}

// DataCollections lists every data collection.
func (m *Mapper) DataCollections(ctx context.Context) ([]fieldvalue.Option, error) {
	return m.forms(ctx)
}

// DataCollectionsGlobalSearch lists the search hints accepted by
// dataEntry.search: none, appointments, emails, then every data collection.
func (m *Mapper) DataCollectionsGlobalSearch(ctx context.Context) ([]fieldvalue.Option, error) {
	forms, err := m.forms(ctx)
	if err != nil {
		return nil, err
	}
	return append([]fieldvalue.Option{
		{Name: "— No Data Collection —", Value: ""},
		{Name: "Appointment", Value: "appointment"},
		{Name: "Email", Value: "email"},
	}, forms...), nil
}

// InvitableUsers lists users that can be invited to appointments.
func (m *Mapper) InvitableUsers(ctx context.Context) ([]fieldvalue.Option, error) {
	users, err := list[fieldvalue.UserOption](ctx, m, invitableUsersQuery, nil, "data.invitableUsers")
	if err != nil {
		return nil, fmt.Errorf("list invitable users: %w", err)
	}
	opts := make([]fieldvalue.Option, 0, len(users))
	for _, u := range users {
		opts = append(opts, fieldvalue.Option{Name: u.DisplayName, Value: u.ID})
	}
	return opts, nil
}

// Mailboxes lists the caller's mailboxes.
func (m *Mapper) Mailboxes(ctx context.Context) ([]fieldvalue.Option, error) {
	type mailbox struct {
		ID               string `json:"id"`
		IsDefaultMailbox bool   `json:"isDefaultMailbox"`
		Email            string `json:"email"`
	}
	boxes, err := list[mailbox](ctx, m, mailboxesQuery, nil, "data.myMailboxes")
	if err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	opts := make([]fieldvalue.Option, 0, len(boxes))
	for _, b := range boxes {
		opts = append(opts, fieldvalue.Option{Name: withDefault(b.Email, b.IsDefaultMailbox), Value: b.ID})
	}
	return opts, nil
}

// MailboxAliases lists the alias addresses of mailboxID, preceded by a
// "no alias" entry. An empty mailboxID yields no options.
func (m *Mapper) MailboxAliases(ctx context.Context, mailboxID string) ([]fieldvalue.Option, error) {
	if mailboxID == "" {
		return []fieldvalue.Option{}, nil
	}
	type alias struct {
		Email string `json:"email"`
	}
	aliases, err := list[alias](ctx, m, mailboxAliasesQuery, map[string]any{"id": mailboxID}, "data.mailbox.aliases")
	if err != nil {
		return nil, fmt.Errorf("list aliases of mailbox %s: %w", mailboxID, err)
	}
	opts := []fieldvalue.Option{{Name: "— No Alias —", Value: ""}}
	for _, a := range aliases {
		opts = append(opts, fieldvalue.Option{Name: a.Email, Value: a.Email})
	}
	return opts, nil
}

// Types lists the non-archived data types of dataCollection.
func (m *Mapper) Types(ctx context.Context, dataCollection string) ([]fieldvalue.Option, error) {
	dataCollection = strings.TrimSpace(dataCollection)
	if dataCollection == "" {
		return []fieldvalue.Option{}, nil
	}
	type typ struct {
		Key         string `json:"key"`
		DisplayName string `json:"displayName"`
	}
	types, err := list[typ](ctx, m, typesQuery, map[string]any{"dataCollection": dataCollection}, "data.dataForm.types")
	if err != nil {
		return nil, fmt.Errorf("list types of %s: %w", dataCollection, err)
	}
	opts := make([]fieldvalue.Option, 0, len(types))
	for _, t := range types {
		opts = append(opts, fieldvalue.Option{Name: t.DisplayName, Value: t.Key})
	}
	return opts, nil
}

// DataCollectionOf returns the data collection of the first non-empty id,
// or "" when ids has none.
func (m *Mapper) DataCollectionOf(ctx context.Context, ids ...string) (string, error) {
	var id string
	for _, candidate := range ids {
		if candidate != "" {
			id = candidate
			break
		}
	}
	if id == "" {
		return "", nil
	}

	resp, err := m.client.Do(ctx, graphql.Request{
		Query:     dataCollectionOfQuery,
		Variables: map[string]any{"id": id},
	})
	if err != nil {
		return "", err
	}
	dc := resp.Get("data.dataEntry.dataCollection")
	if !dc.Exists() || dc.String() == "" {
		return "", fmt.Errorf("data entry %s has no data collection", id)
	}
	return dc.String(), nil
}
