package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFieldValueValidate(t *testing.T) {
	t.Parallel()

	t.Run("type must match definition", func(t *testing.T) {
		def := FieldDefinition{ID: "f1", Type: FieldString}
		v := FieldValue{FieldID: "f1", Type: FieldNumber, Number: decimal.NewFromInt(3)}
		if err := v.Validate(def); err != ErrInvalidFieldValue {
			t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
		}
	})

	t.Run("empty string rejected", func(t *testing.T) {
		def := FieldDefinition{ID: "f1", Type: FieldString}
		if err := (FieldValue{FieldID: "f1", Type: FieldString}).Validate(def); err != ErrInvalidFieldValue {
			t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
		}
		if err := (FieldValue{FieldID: "f1", Type: FieldString, String: "EF mount"}).Validate(def); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})

	t.Run("zero number and false boolean are legal", func(t *testing.T) {
		if err := (FieldValue{Type: FieldNumber}).Validate(FieldDefinition{Type: FieldNumber}); err != nil {
			t.Fatalf("expected zero number valid, got %v", err)
		}
		if err := (FieldValue{Type: FieldBoolean}).Validate(FieldDefinition{Type: FieldBoolean}); err != nil {
			t.Fatalf("expected false boolean valid, got %v", err)
		}
	})

	t.Run("zero date rejected", func(t *testing.T) {
		def := FieldDefinition{Type: FieldDate}
		if err := (FieldValue{Type: FieldDate}).Validate(def); err != ErrInvalidFieldValue {
			t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
		}
		if err := (FieldValue{Type: FieldDate, Date: time.Now()}).Validate(def); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})

	t.Run("enum checked against options", func(t *testing.T) {
		def := FieldDefinition{Type: FieldEnum, Options: []string{"EF", "RF"}}
		if err := (FieldValue{Type: FieldEnum, Enum: "PL"}).Validate(def); err != ErrInvalidFieldValue {
			t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
		}
		if err := (FieldValue{Type: FieldEnum, Enum: "RF"}).Validate(def); err != nil {
			t.Fatalf("expected valid, got %v", err)
		}
	})
}
