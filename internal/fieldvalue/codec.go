package fieldvalue

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultTagColor is the color assigned to tags created from plain text.
const DefaultTagColor = "Cream"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// ParseError reports a field value that could not be decoded at all.
// List values never produce it; they degrade to an empty list instead.
type ParseError struct {
	ValueType ValueType
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s value: %v", e.ValueType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Value converts a raw host value into the wire object the GraphQL field
// input expects for vt and st.
//
// raw is whatever the host mapped for the field: string, number, bool, nil,
// or (for Tag) an already structured slice. The result is a single-key map
// such as {"textList": [...]}, nil for Avatar, or raw itself for types
// without a dedicated wire shape (Rank, Custom, unknown).
//
// Malformed list input yields an empty list rather than an error, since hosts
// submit partially filled list inputs. The only error is an Address value
// that is not valid JSON.
func Value(raw any, vt ValueType, st SelectionType) (any, error) {
	vt = vt.normalize()
	single := st == Single
	list := func() []any { return extractList(raw, vt) }

	switch vt {
	case Status:
		return wire("status", raw), nil

	case Text:
		if single {
			return wire("text", orEmpty(raw)), nil
		}
		return wire("textList", list()), nil

	case Number:
		if single {
			return wire("number", toNumber(raw)), nil
		}
		return wire("numberList", list()), nil

	case Checkbox:
		if single {
			return wire("checkbox", truthy(raw)), nil
		}
		return wire("checkboxList", list()), nil

	case Date:
		if single {
			return wire("date", extractDate(raw)), nil
		}
		items := list()
		dates := make([]any, len(items))
		for i, item := range items {
			dates[i] = extractDate(item)
		}
		return wire("dateList", dates), nil

	case Priority:
		return pick(single, "priority", "priorityList", raw, list), nil

	case Link:
		return pick(single, "link", "linkList", raw, list), nil

	case PhoneNumber:
		return pick(single, "phoneNumber", "phoneNumberList", orEmpty(raw), list), nil

	case EmailAddress:
		return pick(single, "emailAddress", "emailAddressList", raw, list), nil

	case RichText:
		if single {
			return wire("richText", map[string]any{"htmlText": orEmpty(raw)}), nil
		}
		items := list()
		texts := make([]any, len(items))
		for i, item := range items {
			texts[i] = map[string]any{"htmlText": item}
		}
		return wire("richTextList", texts), nil

	case User:
		return pick(single, "user", "userList", raw, list), nil

	case DataEntry:
		return pick(single, "dataEntry", "dataEntryList", raw, list), nil

	case Tag:
		return wire("tagList", tagList(raw)), nil

	case ComboBox:
		return pick(single, "comboBox", "comboBoxList", raw, list), nil

	case Address:
		s, ok := raw.(string)
		if !ok {
			return wire("address", nil), nil
		}
		var addr any
		if err := json.Unmarshal([]byte(s), &addr); err != nil {
			return nil, &ParseError{ValueType: Address, Err: err}
		}
		return wire("address", addr), nil

	case Avatar:
		// Avatars are read-only on the server.
		return nil, nil

	default:
		return raw, nil
	}
}

func wire(key string, v any) map[string]any {
	return map[string]any{key: v}
}

func pick(single bool, singleKey, listKey string, raw any, list func() []any) map[string]any {
	if single {
		return wire(singleKey, raw)
	}
	return wire(listKey, list())
}

func orEmpty(raw any) any {
	if raw == nil {
		return ""
	}
	return raw
}

// extractList turns a list-cardinality raw value into a slice.
// Label/value types take a JSON array; every other type takes comma separated
// text. Anything unparsable is an empty list.
func extractList(raw any, vt ValueType) []any {
	s, ok := raw.(string)
	if !ok {
		return []any{}
	}

	if vt.labelValue() {
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err != nil || items == nil {
			return []any{}
		}
		return items
	}

	parts := strings.Split(s, ",")
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = `"` + strings.TrimSpace(p) + `"`
	}
	var items []any
	if err := json.Unmarshal([]byte("["+strings.Join(quoted, ",")+"]"), &items); err != nil {
		return []any{}
	}
	return items
}

func extractDate(v any) any {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	m := datePattern.FindString(s)
	if m == "" {
		return nil
	}
	return m
}

func tagList(raw any) []any {
	switch v := raw.(type) {
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i, t := range v {
			out[i] = t
		}
		return out
	case string:
		return []any{map[string]any{"label": v, "color": DefaultTagColor}}
	}
	return []any{}
}

// toNumber coerces raw to a finite float64; anything non-numeric is 0.
func toNumber(raw any) float64 {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case json.Number:
		f, _ = v.Float64()
	case bool:
		if v {
			f = 1
		}
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func truthy(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0 && !math.IsNaN(v)
	case float32:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	}
	return true
}
