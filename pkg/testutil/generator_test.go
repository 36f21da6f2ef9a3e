package testutil

import (
	"testing"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/model"
)

func sinkSchema(t *testing.T) fieldmap.Schema {
	t.Helper()
	schema, ok := fieldmap.Defaults().Lookup(model.CollectionSinks)
	if !ok {
		t.Fatal("no default schema for sinks")
	}
	return schema
}

func TestCatalogIsDeterministic(t *testing.T) {
	schema := sinkSchema(t)

	a := New(DefaultConfig()).Catalog(schema, 20)
	b := New(DefaultConfig()).Catalog(schema, 20)

	AssertJSONEqual(t, a, b)
}

func TestCatalogFillsRequiredFields(t *testing.T) {
	schema := sinkSchema(t)
	rows := New(DefaultConfig()).Catalog(schema, 10)

	AssertRecordCount(t, rows, 10)
	AssertCanonicalIDs(t, rows)

	for id, rec := range rows {
		for _, key := range schema.Required {
			if !rec.Filled(key) {
				t.Errorf("row %s missing required field %s", id, key)
			}
		}
	}
}

func TestSparseRowsAreMostlyEmpty(t *testing.T) {
	schema := sinkSchema(t)
	rows := New(DefaultConfig()).Sparse(schema, 5)

	for id, rec := range rows {
		if len(rec) != 1 {
			t.Errorf("sparse row %s has %d fields", id, len(rec))
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	schema := sinkSchema(t)

	cfg := DefaultConfig()
	a := New(cfg).Catalog(schema, 10)
	cfg.Seed = 7
	b := New(cfg).Catalog(schema, 10)

	same := true
	for id, rec := range a {
		if b[id].Field(model.FieldTitle) != rec.Field(model.FieldTitle) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical catalogs")
	}
}
