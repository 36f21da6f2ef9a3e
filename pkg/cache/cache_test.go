package cache

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/showroom/pkg/model"
)

func TestLoadReplacesContents(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{
		"1": {model.FieldTitle: "Belfast Sink"},
		"2": {model.FieldTitle: "Basin Mixer"},
	})
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	s.Load(map[string]model.Record{
		"3": {model.FieldTitle: "Pendant Light"},
	})
	if s.Len() != 1 {
		t.Fatalf("Len after reload = %d, want 1", s.Len())
	}
	if _, ok := s.Get("1"); ok {
		t.Error("stale identifier survived reload")
	}
	if _, ok := s.Get("3"); !ok {
		t.Error("fresh identifier missing after reload")
	}
}

func TestGetNormalizesKeyForms(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{"7": {model.FieldTitle: "Rain Head"}})

	for _, form := range []string{"7", "07", " 7 ", "007"} {
		rec, ok := s.Get(form)
		if !ok {
			t.Errorf("Get(%q) missed", form)
			continue
		}
		if rec.Title() != "Rain Head" {
			t.Errorf("Get(%q) = %+v", form, rec)
		}
	}
}

func TestUpsertCreatesWhenAbsent(t *testing.T) {
	s := New()
	rec := s.Upsert("12", map[string]string{model.FieldSKU: "TAP-12"})
	if rec.SKU() != "TAP-12" {
		t.Fatalf("upsert result = %+v", rec)
	}
	got, ok := s.Get("12")
	if !ok || got.SKU() != "TAP-12" {
		t.Fatalf("Get after create-upsert = (%+v, %v)", got, ok)
	}
}

func TestUpsertMergesExisting(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{"5": {model.FieldTitle: "Close Coupled WC", model.FieldBrand: "Burlington"}})

	s.Upsert("5", map[string]string{model.FieldTitle: "Close Coupled Toilet"})

	rec, _ := s.Get("5")
	if rec.Title() != "Close Coupled Toilet" {
		t.Errorf("title not merged: %q", rec.Title())
	}
	if rec.Brand() != "Burlington" {
		t.Errorf("untouched field lost: %q", rec.Brand())
	}
}

func TestUpsertEmptyValueClearsField(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{"5": {model.FieldImages: "a.jpg,b.jpg"}})

	s.Upsert("5", map[string]string{model.FieldImages: ""})

	rec, _ := s.Get("5")
	if rec.Field(model.FieldImages) != "" {
		t.Errorf("field not cleared: %q", rec.Field(model.FieldImages))
	}
	// Cleared, not removed: the key still reads as empty like any absent field.
	if rec.Filled(model.FieldImages) {
		t.Error("cleared field reports filled")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{"1": {model.FieldTitle: "orig"}})

	rec, _ := s.Get("1")
	rec[model.FieldTitle] = "mutated locally"

	again, _ := s.Get("1")
	if again.Title() != "orig" {
		t.Errorf("caller mutation reached cache: %q", again.Title())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := New()
	s.Load(map[string]model.Record{"1": {model.FieldTitle: "before"}})

	snap := s.Snapshot()
	s.Upsert("1", map[string]string{model.FieldTitle: "after"})

	if snap["1"].Title() != "before" {
		t.Errorf("snapshot saw later mutation: %q", snap["1"].Title())
	}
}

func TestVersionBumpsOnMutation(t *testing.T) {
	s := New()
	v0 := s.Version()
	s.Load(map[string]model.Record{"1": {}})
	v1 := s.Version()
	s.Upsert("1", map[string]string{model.FieldTitle: "x"})
	v2 := s.Version()

	if !(v0 < v1 && v1 < v2) {
		t.Errorf("version not monotonic: %d %d %d", v0, v1, v2)
	}
}

// Applying the same field map twice must leave the cache in the same state as
// applying it once, for arbitrary records and field maps.
func TestUpsertIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fieldName := rapid.SampledFrom([]string{
			model.FieldTitle, model.FieldSKU, model.FieldBrand, model.FieldImages, "width_mm",
		})

		base := make(map[string]string)
		for _, k := range rapid.SliceOfDistinct(fieldName, rapid.ID[string]).Draw(t, "baseKeys") {
			base[k] = rapid.StringMatching(`[ -~]{0,12}`).Draw(t, "baseVal")
		}
		patch := make(map[string]string)
		for _, k := range rapid.SliceOfDistinct(fieldName, rapid.ID[string]).Draw(t, "patchKeys") {
			patch[k] = rapid.StringMatching(`[ -~]{0,12}`).Draw(t, "patchVal")
		}

		once := New()
		once.Load(map[string]model.Record{"9": base})
		once.Upsert("9", patch)

		twice := New()
		twice.Load(map[string]model.Record{"9": base})
		twice.Upsert("9", patch)
		twice.Upsert("9", patch)

		a, _ := once.Get("9")
		b, _ := twice.Get("9")
		if len(a) != len(b) {
			t.Fatalf("field count diverged: %d vs %d", len(a), len(b))
		}
		for k, v := range a {
			if b[k] != v {
				t.Fatalf("field %q diverged: %q vs %q", k, v, b[k])
			}
		}
	})
}

func BenchmarkSnapshot(b *testing.B) {
	s := New()
	rows := make(map[string]model.Record, 1000)
	for i := 0; i < 1000; i++ {
		rows[fmt.Sprint(i)] = model.Record{
			model.FieldTitle: fmt.Sprintf("Product %d", i),
			model.FieldSKU:   fmt.Sprintf("SKU-%04d", i),
		}
	}
	s.Load(rows)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Snapshot()
	}
}
