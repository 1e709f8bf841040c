package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// CustomQueryParams are the parameters of customQuery.execute. Variables
// may be a JSON object or a string holding one.
type CustomQueryParams struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables,omitempty"`
}

func (r *Router) customQuery(ctx context.Context, params json.RawMessage) ([]json.RawMessage, error) {
	var p CustomQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	variables, err := parseVariables(p.Variables)
	if err != nil {
		return nil, err
	}

	resp, err := r.do(ctx, p.Query, variables)
	if err != nil {
		return nil, err
	}
	return []json.RawMessage{resp.Raw()}, nil
}

func parseVariables(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("invalid variables: %w", err)
		}
		if s == "" {
			return nil, nil
		}
		raw = json.RawMessage(s)
	}

	var vars map[string]any
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("variables must be a JSON object: %w", err)
	}
	return vars, nil
}
