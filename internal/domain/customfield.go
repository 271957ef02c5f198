package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldEnum    FieldType = "enum"
)

// FieldDefinition describes one custom field attachable to assets. Enum
// definitions carry the permitted options.
type FieldDefinition struct {
	ID        string
	Name      string
	Type      FieldType
	Options   []string
	CreatedAt time.Time
}

// FieldValue is a tagged union. Exactly the member matching Type is
// meaningful; Validate enforces the match against the definition at write
// time instead of duck-typing at read time.
type FieldValue struct {
	FieldID string
	Type    FieldType
	String  string
	Number  decimal.Decimal
	Boolean bool
	Date    time.Time
	Enum    string
}

// Validate checks the value against its definition.
func (v FieldValue) Validate(def FieldDefinition) error {
	if v.Type != def.Type {
		return ErrInvalidFieldValue
	}
	switch def.Type {
	case FieldString:
		if v.String == "" {
			return ErrInvalidFieldValue
		}
	case FieldDate:
		if v.Date.IsZero() {
			return ErrInvalidFieldValue
		}
	case FieldEnum:
		for _, opt := range def.Options {
			if v.Enum == opt {
				return nil
			}
		}
		return ErrInvalidFieldValue
	case FieldNumber, FieldBoolean:
		// Zero is a legal number and false a legal boolean.
	default:
		return ErrInvalidFieldValue
	}
	return nil
}
