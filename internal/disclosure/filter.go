package disclosure

import (
	"fmt"

	"veil/internal/schema"
	dErrors "veil/pkg/domain-errors"
)

// Filter applies the mask to the record and returns the disclosure result.
//
// The function is pure: it reads mask and record, writes only its own result,
// and holds no state between calls, so it is safe to invoke concurrently
// against a shared snapshot. Disclosed values are copied byte-for-byte; the
// inputs are never mutated.
//
// Semantics, per field in the schema's ordinal order:
//   - field present in record, mask true  -> entry {disclosed, value}
//   - field present in record, mask false -> entry {withheld}
//   - field absent from record            -> no entry (absence upstream is not
//     the same fact as a withheld value)
//
// Errors: CodeMaskLengthMismatch when len(mask) != registry cardinality;
// CodeUnknownField when the record stores a field outside the schema. On
// error no partial result is returned.
func Filter(reg *schema.Registry, mask Mask, record *Record) (*Result, error) {
	if record == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "record must not be nil")
	}
	if len(mask) != reg.Cardinality() {
		return nil, dErrors.New(dErrors.CodeMaskLengthMismatch,
			fmt.Sprintf("mask has %d entries, schema defines %d fields", len(mask), reg.Cardinality()))
	}
	for name := range record.Values {
		if !reg.Contains(name) {
			return nil, dErrors.New(dErrors.CodeUnknownField, "record contains unknown field: "+name)
		}
	}

	result := &Result{
		Subject:       record.Subject,
		RecordVersion: record.Version,
		Entries:       make([]Entry, 0, len(record.Values)),
	}
	// Ascending ordinal order keeps the output deterministic; map iteration
	// order must never leak into serialized results.
	for ordinal, name := range reg.Fields() {
		value, present := record.Values[name]
		if !present {
			continue
		}
		if mask[ordinal] {
			result.Entries = append(result.Entries, Entry{
				Field:  name,
				Status: StatusDisclosed,
				Value:  append([]byte(nil), value...),
			})
			continue
		}
		result.Entries = append(result.Entries, Entry{
			Field:  name,
			Status: StatusWithheld,
		})
	}
	return result, nil
}

// ValidateValues checks that every field name in values belongs to the schema.
// Used by the record service before a snapshot is accepted, so stored records
// can never trip the filter's unknown-field check later.
func ValidateValues(reg *schema.Registry, values map[string][]byte) error {
	if len(values) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "record must contain at least one field")
	}
	for name := range values {
		if !reg.Contains(name) {
			return dErrors.New(dErrors.CodeUnknownField, "unknown field: "+name)
		}
	}
	return nil
}
