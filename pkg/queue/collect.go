package queue

import (
	"strings"

	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/model"
)

// Collect builds the save payload for one edit session. Edits are keyed by
// UI field identifier and mapped through the collection schema onto
// canonical record keys. A field is included when its value differs from
// the record's current value; force-include fields always pass through,
// even when empty, because clearing them is itself a meaningful write.
//
// The returned map is the payload for both the synchronous cache upsert and
// the enqueued save task, so local and remote converge on the same state.
func Collect(schema fieldmap.Schema, current model.Record, edits map[string]string) map[string]string {
	out := make(map[string]string, len(edits))
	for uiField, value := range edits {
		key := schema.Resolve(uiField)
		if schema.IsForced(key) {
			out[key] = value
			continue
		}
		if strings.TrimSpace(value) == "" && !current.Filled(key) {
			// Empty stayed empty: nothing to write.
			continue
		}
		if value == current.Field(key) {
			continue
		}
		out[key] = value
	}
	return out
}
