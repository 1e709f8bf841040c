// Package mapping turns Consolidate data form schemas into the flat column
// lists and option lookups a workflow host needs to build its input forms.
package mapping

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
	"github.com/mattjoyce/consolidate-bridge/internal/graphql"
)

// Doer runs a GraphQL request. *graphql.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req graphql.Request) (*graphql.Response, error)
}

// Mapper answers schema and lookup queries against one Consolidate tenant.
type Mapper struct {
	client Doer
	logger *slog.Logger
}

type Option func(*Mapper)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(client Doer, opts ...Option) *Mapper {
	m := &Mapper{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Column is one mappable field of a data collection. ID is the field's
// metadata token and is the key callers use when submitting values.
type Column struct {
	ID           string              `json:"id"`
	DisplayName  string              `json:"displayName"`
	DefaultMatch bool                `json:"defaultMatch"`
	Required     bool                `json:"required"`
	Display      bool                `json:"display"`
	Type         fieldvalue.Kind     `json:"type"`
	Options      []fieldvalue.Option `json:"options,omitempty"`
}

type dataType struct {
	Key              string                  `json:"key"`
	DisplayName      string                  `json:"displayName"`
	AllowedStatus    []fieldvalue.TaskStatus `json:"allowedStatus"`
	AdditionalFields []fieldvalue.Field      `json:"additionalFields"`
}

type dataForm struct {
	AllowedStatus []fieldvalue.TaskStatus `json:"allowedStatus"`
	Types         []dataType              `json:"types"`
	Fields        []fieldvalue.Field      `json:"fields"`
}

const dataFormQuery = `
query FieldsForCollection($dataCollection: DataCollection!) {
  dataForm(dataCollection: $dataCollection) {
    allowedStatus {
      ...TaskStatusFragment
    }
    types {
      key
      displayName
      allowedStatus {
        ...TaskStatusFragment
      }
      additionalFields {
        ...FieldsFragment
      }
    }
    fields {
      ...FieldsFragment
    }
  }
}
fragment TaskStatusFragment on TaskStatus {
  id
  databaseId
  name
  category
  isSystemStatus
  rank
}
fragment FieldsFragment on IFieldDefinition {
  key
  label
  fieldType
  ... on ValueFieldDefinition {
    selectionType
    valueType
    required
    comboBoxOptions {
      id
      value
    }
  }
}`

// Columns returns the value fields of dataCollection plus the additional
// fields of the selected types. With forUpdate no column is required.
func (m *Mapper) Columns(ctx context.Context, dataCollection string, typeIDs []string, forUpdate bool) ([]Column, error) {
	if dataCollection == "" {
		return []Column{}, nil
	}

	resp, err := m.client.Do(ctx, graphql.Request{
		Query:     dataFormQuery,
		Variables: map[string]any{"dataCollection": dataCollection},
	})
	if err != nil {
		return nil, err
	}

	var form dataForm
	if resp.Get("data.dataForm").IsObject() {
		if err := resp.Decode("data.dataForm", &form); err != nil {
			return nil, err
		}
	}

	statuses := mergeStatuses(form, typeIDs)
	columns := []Column{}
	for _, f := range mergeFields(form, typeIDs) {
		if f.FieldType != fieldvalue.FieldKindValue {
			continue
		}
		columns = append(columns, Column{
			ID:           fieldvalue.MetaDataOf(f).EncodeToken(),
			DisplayName:  displayName(f),
			DefaultMatch: f.Key == "id",
			Required:     !forUpdate && f.Required,
			Display:      true,
			Type:         fieldvalue.InputKind(f.ValueType, f.SelectionType),
			Options:      fieldvalue.Options(f, statuses),
		})
	}

	m.logger.Debug("resolved columns", "data_collection", dataCollection, "types", len(typeIDs), "columns", len(columns))
	return columns, nil
}

func displayName(f fieldvalue.Field) string {
	if f.SelectionType == fieldvalue.Single {
		return f.Label
	}
	hint := "separate values with comma"
	if fieldvalue.InputKind(f.ValueType, f.SelectionType) == fieldvalue.KindArray {
		hint = "provide values in JSON array"
	}
	return f.Label + " (list - " + hint + ")"
}

func selected(form dataForm, typeIDs []string) []dataType {
	var out []dataType
	for _, t := range form.Types {
		for _, id := range typeIDs {
			if t.Key == id {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func mergeFields(form dataForm, typeIDs []string) []fieldvalue.Field {
	fields := append([]fieldvalue.Field{}, form.Fields...)
	for _, t := range selected(form, typeIDs) {
		fields = append(fields, t.AdditionalFields...)
	}
	return fields
}

var categoryOrder = []string{"Todo", "InProgress", "Done"}

func categoryRank(category string) int {
	for i, c := range categoryOrder {
		if c == category {
			return i
		}
	}
	return -1
}

// mergeStatuses collects the form's and the selected types' statuses. A
// repeated id keeps its first position and its last definition. The result
// is stably ordered by category; unknown categories sort first.
func mergeStatuses(form dataForm, typeIDs []string) []fieldvalue.TaskStatus {
	all := append([]fieldvalue.TaskStatus{}, form.AllowedStatus...)
	for _, t := range selected(form, typeIDs) {
		all = append(all, t.AllowedStatus...)
	}

	index := make(map[string]int)
	var unique []fieldvalue.TaskStatus
	for _, s := range all {
		if s.ID == "" {
			continue
		}
		if i, ok := index[s.ID]; ok {
			unique[i] = s
			continue
		}
		index[s.ID] = len(unique)
		unique = append(unique, s)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return categoryRank(unique[i].Category) < categoryRank(unique[j].Category)
	})
	return unique
}
