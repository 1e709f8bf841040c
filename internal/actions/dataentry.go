package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattjoyce/consolidate-bridge/internal/fieldvalue"
)

// CreateDataEntryParams are the parameters of dataEntry.create.
// Fields is keyed by field metadata tokens (see fieldvalue.FieldMetaData).
type CreateDataEntryParams struct {
	DataCollection       string         `json:"dataCollection"`
	Types                []string       `json:"types,omitempty"`
	Fields               map[string]any `json:"fields"`
	ShouldWatchDataEntry bool           `json:"shouldWatchDataEntry,omitempty"`
}

// UpdateDataEntryParams are the parameters of dataEntry.update.
type UpdateDataEntryParams struct {
	IDs        []string       `json:"ids"`
	Types      []string       `json:"types,omitempty"`
	UpdateMode string         `json:"updateMode,omitempty"`
	Fields     map[string]any `json:"fields"`
}

// DeleteDataEntryParams are the parameters of dataEntry.delete.
type DeleteDataEntryParams struct {
	IDs []string `json:"ids"`
}

// GetDataEntryParams are the parameters of dataEntry.getById.
type GetDataEntryParams struct {
	ID string `json:"id"`
}

// SearchParams are the parameters of dataEntry.search.
type SearchParams struct {
	SearchString       string `json:"searchString"`
	DataCollectionHint string `json:"dataCollectionHint,omitempty"`
	Skip               int    `json:"skip,omitempty"`
	Take               *int   `json:"take,omitempty"`
}

const (
	UpdateModeReplace = "Replace"
	UpdateModeAppend  = "Append"

	defaultSearchTake = 10
)

var errNoFields = errors.New("at least one field value must be filled")

const createDataEntryMutation = `
mutation($input: CreateDataEntryInput!) {
  createDataEntry(input: $input) {
    dataEntry {
      id
      databaseId
      displayName
      fields {
        ...FieldsFragment
      }
    }
  }
}` + dataEntryFragments

const updateDataEntriesMutation = `
mutation Update($input: UpdateDataEntriesInput!) {
  updateDataEntries(input: $input) {
    dataEntry {
      id
      databaseId
      displayName
      fields {
        ...FieldsFragment
      }
    }
  }
}` + dataEntryFragments

const moveToTrashMutation = `
mutation DeleteDE($input: MoveToTrashInput!) {
  moveToTrash(input: $input) {
    dataEntry {
      id
    }
  }
}`

const dataEntryQuery = `
query($id: ID!) {
  dataEntry(id: $id) {
    id
    databaseId
    displayName
    created
    lastModified
    fields {
      ...FieldsFragment
    }
    dataForm {
      displayName
      dataCollection
      archived
    }
    dataTypes {
      key
      level
      color
      displayName
    }
  }
}` + dataEntryFragments

const globalSearchQuery = `
query($search: String!, $dataCollectionHint: String, $skip: Int, $take: Int) {
  globalSearch(searchString: $search, dataCollectionHint: $dataCollectionHint, skip: $skip, take: $take) {
    items {
      __typename
      id
      ... on IDataEntry {
        displayName
        databaseId
        fields {
          ...FieldsFragment
        }
      }
      ... on EmailConversation {
        ...EmailFragment
      }
      ... on Appointment {
        ...AppointmentFragment
      }
    }
  }
}` + dataEntryFragments + emailFragments + appointmentFragments

func (r *Router) createDataEntry(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p CreateDataEntryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.DataCollection == "" {
		return nil, fmt.Errorf("dataCollection is required")
	}
	if len(p.Fields) == 0 {
		return nil, errNoFields
	}

	fields, err := fieldvalue.BuildFields(p.Fields)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, createDataEntryMutation, map[string]any{
		"input": map[string]any{
			"dataCollection":       p.DataCollection,
			"fields":               fields,
			"types":                nonNil(p.Types),
			"shouldWatchDataEntry": p.ShouldWatchDataEntry,
		},
	})
	if err != nil {
		return nil, err
	}

	entry, err := resp.RawAt("data.createDataEntry.dataEntry")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{entry}, nil
}

func (r *Router) updateDataEntry(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p UpdateDataEntryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}
	if p.UpdateMode == "" {
		p.UpdateMode = UpdateModeReplace
	}
	if p.UpdateMode != UpdateModeReplace && p.UpdateMode != UpdateModeAppend {
		return nil, fmt.Errorf("updateMode must be %s or %s (got %q)", UpdateModeReplace, UpdateModeAppend, p.UpdateMode)
	}
	if len(p.Fields) == 0 {
		return nil, errNoFields
	}

	fields, err := fieldvalue.BuildFields(p.Fields)
	if err != nil {
		return nil, err
	}

	ids := make([]map[string]string, 0, len(p.IDs))
	for _, id := range p.IDs {
		ids = append(ids, map[string]string{"id": id})
	}

	resp, err := r.do(ctx, updateDataEntriesMutation, map[string]any{
		"input": map[string]any{
			"ids":        ids,
			"fields":     fields,
			"updateMode": p.UpdateMode,
			"types":      nonNil(p.Types),
		},
	})
	if err != nil {
		return nil, err
	}

	entries, err := resp.RawAt("data.updateDataEntries.dataEntry")
	if err != nil {
		return nil, fmt.Errorf("error while updating the data entry: %w", err)
	}
	return items(entries), nil
}

func (r *Router) deleteDataEntry(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p DeleteDataEntryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}

	resp, err := r.do(ctx, moveToTrashMutation, map[string]any{
		"input": map[string]any{"ids": p.IDs},
	})
	if err != nil {
		return nil, err
	}

	result, err := json.Marshal(struct {
		IDs     []string `json:"ids"`
		Success bool     `json:"success"`
	}{
		IDs:     p.IDs,
		Success: resp.Get("data.moveToTrash").IsObject(),
	})
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{result}, nil
}

func (r *Router) getDataEntry(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p GetDataEntryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	resp, err := r.do(ctx, dataEntryQuery, map[string]any{"id": p.ID})
	if err != nil {
		return nil, err
	}

	entry, err := resp.RawAt("data.dataEntry")
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{entry}, nil
}

func (r *Router) searchDataEntries(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p SearchParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.SearchString == "" {
		return nil, fmt.Errorf("searchString is required")
	}

	take := defaultSearchTake
	if p.Take != nil {
		take = *p.Take
	}
	var hint any
	if p.DataCollectionHint != "" {
		hint = p.DataCollectionHint
	}

	resp, err := r.do(ctx, globalSearchQuery, map[string]any{
		"search":             p.SearchString,
		"dataCollectionHint": hint,
		"skip":               p.Skip,
		"take":               take,
	})
	if err != nil {
		return nil, err
	}
	return resp.Items("data.globalSearch.items"), nil
}
