package fieldvalue

import "strings"

// ValueType is the semantic kind of a field's content as reported by the
// Consolidate data form schema.
type ValueType string

const (
	Text         ValueType = "Text"
	Number       ValueType = "Number"
	Date         ValueType = "Date"
	RichText     ValueType = "RichText"
	Checkbox     ValueType = "Checkbox"
	DataEntry    ValueType = "DataEntry"
	User         ValueType = "User"
	Avatar       ValueType = "Avatar"
	Status       ValueType = "Status"
	Priority     ValueType = "Priority"
	Rank         ValueType = "Rank"
	Tag          ValueType = "Tag"
	Link         ValueType = "Link"
	Address      ValueType = "Address"
	EmailAddress ValueType = "EmailAddress"
	PhoneNumber  ValueType = "PhoneNumber"
	ComboBox     ValueType = "ComboBox"
	Custom       ValueType = "Custom"
)

// ValueTypes lists every value type known to this build, in schema order.
var ValueTypes = []ValueType{
	Text, Number, Date, RichText, Checkbox, DataEntry, User, Avatar, Status,
	Priority, Rank, Tag, Link, Address, EmailAddress, PhoneNumber, ComboBox, Custom,
}

// Known reports whether vt is one of the enumerated value types. Unknown
// types are still accepted everywhere and fall through to passthrough
// encoding.
func (vt ValueType) Known() bool {
	for _, known := range ValueTypes {
		if vt == known {
			return true
		}
	}
	return false
}

// labelValue reports whether list values of this type are entered as a JSON
// array rather than comma separated text.
func (vt ValueType) labelValue() bool {
	switch vt {
	case Address, RichText, Text:
		return true
	}
	return false
}

// normalize maps case variants ("richtext") onto the canonical name.
func (vt ValueType) normalize() ValueType {
	for _, known := range ValueTypes {
		if strings.EqualFold(string(vt), string(known)) {
			return known
		}
	}
	return vt
}

// SelectionType is the cardinality of a field.
type SelectionType string

const (
	Single SelectionType = "Single"
	List   SelectionType = "List"
)

// Valid reports whether st is Single or List.
func (st SelectionType) Valid() bool {
	return st == Single || st == List
}

// FieldKind distinguishes value fields from layout-only entries in a data form.
type FieldKind string

const (
	FieldKindValue   FieldKind = "Value"
	FieldKindGroup   FieldKind = "Group"
	FieldKindDisplay FieldKind = "Display"
)

// Field is a field definition from a data form or data type.
type Field struct {
	Key             string           `json:"key"`
	Label           string           `json:"label"`
	SelectionType   SelectionType    `json:"selectionType"`
	ValueType       ValueType        `json:"valueType"`
	Required        bool             `json:"required"`
	FieldType       FieldKind        `json:"fieldType"`
	ComboBoxOptions []ComboBoxOption `json:"comboBoxOptions,omitempty"`
}

// ComboBoxOption is one selectable entry of a ComboBox field.
type ComboBoxOption struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// TaskStatus is a workflow status a data entry can be moved to.
type TaskStatus struct {
	ID             string `json:"id"`
	DatabaseID     string `json:"databaseId"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	IsSystemStatus bool   `json:"isSystemStatus"`
	Rank           int    `json:"rank"`
}

// UserOption is a user offered by user lookups.
type UserOption struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Option is a name/value pair offered to the workflow host for enumerable fields.
type Option struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
