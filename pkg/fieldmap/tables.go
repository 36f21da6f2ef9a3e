package fieldmap

import "github.com/vanderheijden86/showroom/pkg/model"

// Canonical keys that only some collections carry.
const (
	KeyMaterial      = "material"
	KeyFinish        = "finish"
	KeyInstallType   = "install_type"
	KeyBowlCount     = "bowl_count"
	KeyWidthMM       = "width_mm"
	KeyDepthMM       = "depth_mm"
	KeyHeightMM      = "height_mm"
	KeyFlowRate      = "flow_rate_lpm"
	KeyPressureBar   = "min_pressure_bar"
	KeySpoutReach    = "spout_reach_mm"
	KeyLumens        = "lumens"
	KeyColourTemp    = "colour_temp_k"
	KeyIPRating      = "ip_rating"
	KeyBulbType      = "bulb_type"
	KeyHeadSize      = "head_size_mm"
	KeySprayPatterns = "spray_patterns"
	KeyValveType     = "valve_type"
	KeyPanType       = "pan_type"
	KeyFlushVolume   = "flush_volume_l"
	KeySeatIncluded  = "seat_included"
	KeyWarrantyYears = "warranty_years"
	KeyCareNotes     = "care_notes"
)

// baseFields is the UI-identifier mapping shared by every collection. The
// remote sheet headers predate the admin UI, hence the aliasing.
func baseFields() map[string]string {
	return map[string]string{
		"product-sku":     model.FieldSKU,
		"product-title":   model.FieldTitle,
		"product-vendor":  model.FieldVendor,
		"product-type":    model.FieldProductType,
		"product-brand":   model.FieldBrand,
		"spec-sheet":      model.FieldSpecSheetURL,
		"image-list":      model.FieldImages,
		"description":     model.FieldDescription,
		"seo-title":       model.FieldSEOTitle,
		"seo-description": model.FieldSEODesc,
	}
}

func withBase(extra map[string]string) map[string]string {
	m := baseFields()
	for k, v := range extra {
		m[k] = v
	}
	return m
}

var commonSearchable = []string{
	model.FieldSKU,
	model.FieldTitle,
	model.FieldVendor,
	model.FieldBrand,
	model.FieldProductType,
}

var commonForceInclude = []string{
	model.FieldImages,
	model.FieldSpecSheetURL,
}

// Defaults returns the built-in schema table for the five stock collections.
// Callers receive a fresh copy and may mutate it freely.
func Defaults() Table {
	return Table{
		model.CollectionSinks: {
			Collection: model.CollectionSinks,
			Fields: withBase(map[string]string{
				"sink-material": KeyMaterial,
				"sink-install":  KeyInstallType,
				"sink-bowls":    KeyBowlCount,
				"sink-width":    KeyWidthMM,
				"sink-depth":    KeyDepthMM,
				"sink-height":   KeyHeightMM,
				"sink-warranty": KeyWarrantyYears,
				"sink-care":     KeyCareNotes,
			}),
			Required: []string{
				model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand,
				KeyMaterial, KeyInstallType, KeyWidthMM, KeyDepthMM,
			},
			Optional: []string{
				KeyBowlCount, KeyHeightMM, KeyWarrantyYears, KeyCareNotes,
				model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc,
				model.FieldSpecSheetURL, model.FieldImages,
			},
			ForceInclude: commonForceInclude,
			Searchable:   commonSearchable,
		},
		model.CollectionTaps: {
			Collection: model.CollectionTaps,
			Fields: withBase(map[string]string{
				"tap-finish":   KeyFinish,
				"tap-flow":     KeyFlowRate,
				"tap-pressure": KeyPressureBar,
				"tap-reach":    KeySpoutReach,
				"tap-valve":    KeyValveType,
				"tap-warranty": KeyWarrantyYears,
			}),
			Required: []string{
				model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand,
				KeyFinish, KeyFlowRate, KeyPressureBar,
			},
			Optional: []string{
				KeySpoutReach, KeyValveType, KeyWarrantyYears,
				model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc,
				model.FieldSpecSheetURL, model.FieldImages,
			},
			ForceInclude: commonForceInclude,
			Searchable:   commonSearchable,
		},
		model.CollectionLighting: {
			Collection: model.CollectionLighting,
			Fields: withBase(map[string]string{
				"light-lumens": KeyLumens,
				"light-temp":   KeyColourTemp,
				"light-ip":     KeyIPRating,
				"light-bulb":   KeyBulbType,
				"light-finish": KeyFinish,
			}),
			Required: []string{
				model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand,
				KeyLumens, KeyIPRating,
			},
			Optional: []string{
				KeyColourTemp, KeyBulbType, KeyFinish,
				model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc,
				model.FieldSpecSheetURL, model.FieldImages,
			},
			ForceInclude: commonForceInclude,
			Searchable:   commonSearchable,
		},
		model.CollectionShowers: {
			Collection: model.CollectionShowers,
			Fields: withBase(map[string]string{
				"shower-head":     KeyHeadSize,
				"shower-patterns": KeySprayPatterns,
				"shower-pressure": KeyPressureBar,
				"shower-valve":    KeyValveType,
				"shower-finish":   KeyFinish,
			}),
			Required: []string{
				model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand,
				KeyHeadSize, KeyPressureBar, KeyValveType,
			},
			Optional: []string{
				KeySprayPatterns, KeyFinish,
				model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc,
				model.FieldSpecSheetURL, model.FieldImages,
			},
			ForceInclude: commonForceInclude,
			Searchable:   commonSearchable,
		},
		model.CollectionToilets: {
			Collection: model.CollectionToilets,
			Fields: withBase(map[string]string{
				"toilet-pan":   KeyPanType,
				"toilet-flush": KeyFlushVolume,
				"toilet-seat":  KeySeatIncluded,
				"toilet-width": KeyWidthMM,
				"toilet-depth": KeyDepthMM,
			}),
			Required: []string{
				model.FieldSKU, model.FieldTitle, model.FieldVendor, model.FieldBrand,
				KeyPanType, KeyFlushVolume,
			},
			Optional: []string{
				KeySeatIncluded, KeyWidthMM, KeyDepthMM,
				model.FieldDescription, model.FieldSEOTitle, model.FieldSEODesc,
				model.FieldSpecSheetURL, model.FieldImages,
			},
			ForceInclude: commonForceInclude,
			Searchable:   commonSearchable,
		},
	}
}

// CategoryFields returns the canonical keys belonging to a missing-info
// category for the given schema. Document verification has no field group;
// it is driven by spec-sheet verification outcomes instead.
func CategoryFields(s Schema, cat MissingCategory) []string {
	switch cat {
	case MissingSpecification:
		return []string{KeyMaterial, KeyFinish, KeyInstallType, KeyFlowRate,
			KeyPressureBar, KeyValveType, KeyLumens, KeyIPRating, KeyBulbType,
			KeyHeadSize, KeySprayPatterns, KeyPanType, KeyFlushVolume}
	case MissingDimensions:
		return []string{KeyWidthMM, KeyDepthMM, KeyHeightMM, KeySpoutReach, KeyColourTemp}
	case MissingAdditional:
		return []string{KeyBowlCount, KeySeatIncluded, KeyWarrantyYears, KeyCareNotes}
	case MissingSEO:
		return []string{model.FieldSEOTitle, model.FieldSEODesc}
	case MissingContent:
		return []string{model.FieldDescription, model.FieldImages}
	default:
		return nil
	}
}
