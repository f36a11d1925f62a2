// Package disclosure implements the selective disclosure filter: given a
// subject's record and a caller-supplied authorization mask, it produces a
// result that discloses exactly the authorized fields and explicitly withholds
// the rest. The filter is a pure function; everything with side effects lives
// in the service layer.
package disclosure

import (
	"time"

	id "veil/pkg/domain"
)

// Record is one subject's data snapshot. Values are opaque to this package:
// they stand in for commitments or ciphertext produced upstream, and the
// filter never interprets or transforms them.
//
// Invariant: at most one value per field. A field absent from Values is
// distinct from a field present but withheld by a mask.
type Record struct {
	Subject    id.SubjectID      `json:"subject_id"`
	Version    int64             `json:"version"`
	Values     map[string][]byte `json:"values"`
	UploadedAt time.Time         `json:"uploaded_at"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// aliasing the store's internal state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := &Record{
		Subject:    r.Subject,
		Version:    r.Version,
		UploadedAt: r.UploadedAt,
		Values:     make(map[string][]byte, len(r.Values)),
	}
	for name, v := range r.Values {
		cp.Values[name] = append([]byte(nil), v...)
	}
	return cp
}

// Mask is the per-request authorization vector, one flag per schema ordinal.
// Invariant: its length must equal the registry's cardinality; the filter
// rejects anything else instead of truncating or padding.
type Mask []bool

// EntryStatus is the explicit disclose/withhold marker. A withheld field is
// always represented, never omitted, so the result shape itself proves the
// filter saw every stored field.
type EntryStatus string

const (
	StatusDisclosed EntryStatus = "disclosed"
	StatusWithheld  EntryStatus = "withheld"
)

// Entry is the per-field outcome. Value is populated only when Status is
// StatusDisclosed; a withheld entry carries no value bytes anywhere.
type Entry struct {
	Field  string      `json:"field"`
	Status EntryStatus `json:"status"`
	Value  []byte      `json:"value,omitempty"`
}

// Result holds one entry per field present in the input record, in ascending
// schema ordinal order. The ordering is fixed so serialized results are
// byte-identical across calls with identical inputs.
type Result struct {
	Subject       id.SubjectID `json:"subject_id"`
	RecordVersion int64        `json:"record_version"`
	Entries       []Entry      `json:"entries"`
}

// DisclosedCount returns how many entries carry a value.
func (r *Result) DisclosedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == StatusDisclosed {
			n++
		}
	}
	return n
}

// WithheldCount returns how many entries were explicitly withheld.
func (r *Result) WithheldCount() int {
	return len(r.Entries) - r.DisclosedCount()
}
