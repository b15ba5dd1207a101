package reindexop

// Warning is a closed enumeration of advisory conditions the warning
// detector can raise about a source index before a reindex operation is
// created for it. Warnings never block operation creation.
type Warning string

const (
	// WarningAllField flags a mapping that still relies on the deprecated
	// _all meta field, dropped by typeless mappings.
	WarningAllField Warning = "allField"

	// WarningBooleanFields flags a mapping containing boolean fields that
	// may be fed loosely-typed values (e.g. "yes"/"1"/"on") the new
	// cluster no longer coerces implicitly.
	WarningBooleanFields Warning = "booleanFields"

	// WarningAPMReindex flags an APM-managed index, which has its own
	// separate migration tooling and generally shouldn't be reindexed by
	// this orchestrator.
	WarningAPMReindex Warning = "apmReindex"
)
