package fieldvalue

// Kind is the generic input type a workflow host renders for a field.
type Kind string

const (
	KindString   Kind = "string"
	KindNumber   Kind = "number"
	KindBoolean  Kind = "boolean"
	KindDateTime Kind = "dateTime"
	KindURL      Kind = "url"
	KindOptions  Kind = "options"
	KindArray    Kind = "array"
)

// InputKind classifies a field for the host UI. Lists of label/value types
// are entered as JSON arrays; everything unknown is a plain string.
func InputKind(vt ValueType, st SelectionType) Kind {
	vt = vt.normalize()
	if st == List && vt.labelValue() {
		return KindArray
	}

	switch vt {
	case Text, RichText, EmailAddress, User, DataEntry, Tag, Address, Avatar, PhoneNumber:
		return KindString
	case Priority, ComboBox, Status:
		return KindOptions
	case Number:
		return KindNumber
	case Checkbox:
		return KindBoolean
	case Date:
		return KindDateTime
	case Link:
		return KindURL
	default:
		return KindString
	}
}

// PriorityLevels are the fixed values of Priority fields, highest first.
var PriorityLevels = []string{"Highest", "High", "Medium", "Low", "Lowest"}

// Options returns the selectable values for fields whose InputKind is
// KindOptions, or nil when the field takes free input. User fields are
// entered as ids.
func Options(f Field, statuses []TaskStatus) []Option {
	switch f.ValueType.normalize() {
	case Priority:
		opts := make([]Option, len(PriorityLevels))
		for i, p := range PriorityLevels {
			opts[i] = Option{Name: p, Value: p}
		}
		return opts
	case ComboBox:
		if f.ComboBoxOptions == nil {
			return nil
		}
		opts := make([]Option, len(f.ComboBoxOptions))
		for i, o := range f.ComboBoxOptions {
			opts[i] = Option{Name: o.Value, Value: o.ID}
		}
		return opts
	case Status:
		opts := make([]Option, len(statuses))
		for i, s := range statuses {
			opts[i] = Option{Name: s.Name, Value: s.ID}
		}
		return opts
	default:
		return nil
	}
}
