package reindexop

import "strings"

// isTypeWrapper reports whether key is a per-type mapping key the
// pre-typeless cluster still emits from a GET _mapping call. "_doc" is the usual single-type
// convention; anything else is treated as a genuine legacy type name and
// is still unwrapped the same way, since a destination index can only ever
// have one implicit type.
func isTypeWrapper(key string) bool {
	return key != "properties" && key != "dynamic" && key != "_meta"
}

// FlattenMappings takes the raw result of GET {index}/_mapping and returns
// the typeless "properties" block, discarding the deprecated "_all" meta
// field mapping along the way.
func FlattenMappings(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return map[string]interface{}{}
	}

	body := raw
	if props, ok := raw["properties"]; ok {
		_ = props
	} else {
		// Mapping is still wrapped in a type name, e.g. {"_doc": {...}}.
		for key, value := range raw {
			if !isTypeWrapper(key) {
				continue
			}
			if typed, ok := value.(map[string]interface{}); ok {
				body = typed
			}
			break
		}
	}

	delete(body, "_all")

	properties, _ := body["properties"].(map[string]interface{})
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return properties
}

// HasAllField reports whether the raw mapping still declares an explicit
// "_all" field, the condition the allField warning flags.
func HasAllField(raw map[string]interface{}) bool {
	if raw == nil {
		return false
	}
	for key, value := range raw {
		if !isTypeWrapper(key) {
			continue
		}
		typed, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		if _, found := typed["_all"]; found {
			return true
		}
	}
	return false
}

// BooleanFieldPaths walks a flattened properties map and returns the
// dot-separated path of every field mapped as type "boolean".
func BooleanFieldPaths(properties map[string]interface{}) []string {
	var paths []string
	collectBooleanPaths(properties, "", &paths)
	return paths
}

func collectBooleanPaths(properties map[string]interface{}, prefix string, out *[]string) {
	for name, raw := range properties {
		field, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		if fieldType, _ := field["type"].(string); fieldType == "boolean" {
			*out = append(*out, path)
		}
		if nested, ok := field["properties"].(map[string]interface{}); ok {
			collectBooleanPaths(nested, path, out)
		}
	}
}

// nonTransferableSettings are index.* settings that are either meaningless
// on a freshly created destination (allocation/routing decisions the
// cluster re-derives) or actively block the copy from happening
// (index.blocks.write).
var nonTransferableSettings = []string{
	"index.blocks.write",
	"index.routing.allocation.require._id",
	"index.routing.allocation.include._id",
	"index.routing.allocation.exclude._id",
	"index.creation_date",
	"index.provided_name",
	"index.uuid",
	"index.version.created",
	"index.version.upgraded",
}

// TransformSettingsForDestination drops settings that don't transfer to a
// newly created index and forces zero replicas for the duration of the copy,
// so the reindex isn't slowed down by replicating every batch.
func TransformSettingsForDestination(flat map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(flat))
	for key, value := range flat {
		if isNonTransferable(key) {
			continue
		}
		out[key] = value
	}
	out["index.number_of_replicas"] = "0"
	return out
}

func isNonTransferable(key string) bool {
	for _, prefix := range nonTransferableSettings {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}
