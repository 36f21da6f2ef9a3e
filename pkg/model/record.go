// Package model defines the core data types for showroom: catalog records,
// row identifiers, collections, and verification match categories.
//
// A Record is a flat field/value mapping mirroring one row of the remote
// spreadsheet-style store. Values are always strings: the remote store has no
// typed cells, and clearing a cell yields an empty string rather than a
// missing key.
package model

import (
	"strconv"
	"strings"
)

// RowID is the canonical key for a catalog record. The remote store is
// inconsistent about whether row identifiers arrive as JSON numbers or
// strings, so every identifier is normalized through NormalizeRowID before
// it is used as a map key.
type RowID string

// NormalizeRowID coerces a row identifier into its canonical form: the
// shortest decimal representation when the input parses as a non-negative
// integer ("007" and 7 both become "7"), otherwise the trimmed input verbatim.
func NormalizeRowID(raw string) RowID {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && n >= 0 {
		return RowID(strconv.FormatInt(n, 10))
	}
	return RowID(s)
}

// RowIDFromInt converts a numeric row identifier to its canonical form.
func RowIDFromInt(n int64) RowID {
	return RowID(strconv.FormatInt(n, 10))
}

// String returns the canonical string form of the identifier.
func (id RowID) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id RowID) IsZero() bool { return id == "" }

// Record is one catalog item's field/value mapping. Absent fields and
// cleared fields are equivalent: both read as "".
type Record map[string]string

// Field returns the value for name, or "" when the field is absent.
func (r Record) Field(name string) string {
	if r == nil {
		return ""
	}
	return r[name]
}

// Filled reports whether the field holds a non-blank value after trimming.
func (r Record) Filled(name string) bool {
	return strings.TrimSpace(r.Field(name)) != ""
}

// Clone returns a deep copy of the record. Mutating the copy never affects
// the original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge shallow-merges fields into a copy of the record and returns it.
// The receiver is not modified.
func (r Record) Merge(fields map[string]string) Record {
	out := r.Clone()
	if out == nil {
		out = make(Record, len(fields))
	}
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// Well-known canonical field keys shared by every collection. Collection
// specific keys live in pkg/fieldmap.
const (
	FieldSKU          = "sku"
	FieldTitle        = "title"
	FieldVendor       = "vendor"
	FieldProductType  = "product_type"
	FieldBrand        = "brand"
	FieldQualityScore = "quality_score"
	FieldSpecSheetURL = "spec_sheet_url"
	FieldImages       = "images"
	FieldDescription  = "description"
	FieldSEOTitle     = "seo_title"
	FieldSEODesc      = "seo_description"
)

// SKU returns the record's stock keeping unit.
func (r Record) SKU() string { return r.Field(FieldSKU) }

// Title returns the record's display title.
func (r Record) Title() string { return r.Field(FieldTitle) }

// Brand returns the record's brand.
func (r Record) Brand() string { return r.Field(FieldBrand) }

// ServerScore returns the remote store's pre-computed quality score and
// whether one is present. The remote formula is authoritative when set.
func (r Record) ServerScore() (int, bool) {
	raw := strings.TrimSpace(r.Field(FieldQualityScore))
	if raw == "" {
		return 0, false
	}
	// Sheets sometimes export integers as "87.0".
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		n := int(f + 0.5)
		if n < 0 {
			n = 0
		}
		if n > 100 {
			n = 100
		}
		return n, true
	}
	return 0, false
}
