package entity

// FieldKind is the declared type of a schema field. It drives value coercion,
// the column type of the backing table and which widget the capture form
// renders.
type FieldKind string

const (
	FieldText        FieldKind = "TEXT"
	FieldInt         FieldKind = "INT"
	FieldFloat       FieldKind = "FLOAT"
	FieldDate        FieldKind = "DATE"
	FieldTimestamp   FieldKind = "TIMESTAMP"
	FieldConstant    FieldKind = "CONSTANT"
	FieldUppercase   FieldKind = "UPPERCASE"
	FieldMultiSelect FieldKind = "MULTISELECT"
)

// IsTimestampFamily reports whether the kind is excluded from the metadata
// signature. Two photos of the same find taken seconds apart must still
// resolve to the same record.
func (k FieldKind) IsTimestampFamily() bool {
	return k == FieldTimestamp
}

// Widget names match the capture form controls.
const (
	WidgetText     = "text"
	WidgetDropdown = "dropdown"
	WidgetRadio    = "radio"
	WidgetConstant = "constant"
	WidgetUpper    = "uppercase"
)

// FieldDef is one normalized input field of an object type.
type FieldDef struct {
	Label         string    `json:"label"`
	Column        string    `json:"column"`
	Kind          FieldKind `json:"kind"`
	Widget        string    `json:"widget"`
	Options       []string  `json:"options,omitempty"`
	ConstantValue string    `json:"constant_value,omitempty"`
	// ServerManaged fields are stamped with the server clock at save time;
	// client-submitted values are always discarded.
	ServerManaged bool `json:"server_managed"`
	Required      bool `json:"required"`
}

// ObjectTypeSchema is the validated field catalog of one object type. Built
// once at startup by schema.Normalize and immutable afterwards. OType doubles
// as the table name of the record store.
type ObjectTypeSchema struct {
	OType          string     `json:"otype"`
	Label          string     `json:"label"`
	Fields         []FieldDef `json:"fields"`
	RequiredFields []string   `json:"required_fields"`
	FilenameFormat string     `json:"filename_format"`
	ResultRows     [][]string `json:"result_rows,omitempty"`
}

// Field returns the definition for a column, or nil when the schema does not
// declare it.
func (s *ObjectTypeSchema) Field(column string) *FieldDef {
	for i := range s.Fields {
		if s.Fields[i].Column == column {
			return &s.Fields[i]
		}
	}
	return nil
}

// Columns returns the field columns in declaration order.
func (s *ObjectTypeSchema) Columns() []string {
	cols := make([]string, 0, len(s.Fields))
	for i := range s.Fields {
		cols = append(cols, s.Fields[i].Column)
	}
	return cols
}
