// Package warnings inspects a source index's settings and mappings and
// produces the advisory warnings the reindex service surfaces before an
// operation is created. Every rule here is a pure predicate over already
// fetched data; nothing in this package talks to a cluster.
package warnings

import "github.com/appbaseio/reindex-orchestrator/model/reindexop"

// apmProvidedNamePrefixes are the index naming conventions APM's own
// managed lifecycle uses; indices matching one are flagged rather than
// silently migrated, since APM ships its own index migration tooling.
var apmProvidedNamePrefixes = []string{"apm-", ".apm-"}

// Detect returns the warnings raised by a source index's flat settings and
// raw (possibly still type-wrapped) mapping document.
func Detect(flatSettings, rawMapping map[string]interface{}) []reindexop.Warning {
	var out []reindexop.Warning

	if reindexop.HasAllField(rawMapping) {
		out = append(out, reindexop.WarningAllField)
	}

	properties := reindexop.FlattenMappings(rawMapping)
	if len(reindexop.BooleanFieldPaths(properties)) > 0 {
		out = append(out, reindexop.WarningBooleanFields)
	}

	if isAPMManaged(flatSettings) {
		out = append(out, reindexop.WarningAPMReindex)
	}

	return out
}

func isAPMManaged(flatSettings map[string]interface{}) bool {
	name, _ := flatSettings["index.provided_name"].(string)
	for _, prefix := range apmProvidedNamePrefixes {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}
