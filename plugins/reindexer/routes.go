package reindexer

import (
	"net/http"

	"github.com/appbaseio/reindex-orchestrator/plugins"
)

func (rx *reindexer) routes() []plugins.Route {
	return []plugins.Route{
		{
			Name:        "Create or retry a reindex operation",
			Methods:     []string{http.MethodPost},
			Path:        "/reindex/{index}",
			HandlerFunc: rx.create(),
			Description: "Creates a reindex operation for the given index, or retries one left in a failed state.",
		},
		{
			Name:        "Get a reindex operation",
			Methods:     []string{http.MethodGet},
			Path:        "/reindex/{index}",
			HandlerFunc: rx.get(),
			Description: "Returns the current reindex operation record for the given index, if any.",
		},
		{
			Name:        "Pause a reindex operation",
			Methods:     []string{http.MethodPost},
			Path:        "/reindex/{index}/pause",
			HandlerFunc: rx.pause(),
			Description: "Pauses an in-progress reindex operation.",
		},
		{
			Name:        "Resume a reindex operation",
			Methods:     []string{http.MethodPost},
			Path:        "/reindex/{index}/resume",
			HandlerFunc: rx.resume(),
			Description: "Resumes a paused reindex operation.",
		},
		{
			Name:        "Detect reindex warnings",
			Methods:     []string{http.MethodGet},
			Path:        "/reindex/{index}/warnings",
			HandlerFunc: rx.warnings(),
			Description: "Returns the advisory warnings detected for the given index.",
		},
	}
}
