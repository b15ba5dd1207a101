// Package reindexer is the thin HTTP layer over the reindex service: it
// validates requests, translates path variables into service calls, and
// maps the service's tagged errors to HTTP status codes. It owns the
// process-wide worker, starting it once the cluster client is ready.
package reindexer

import (
	"sync"

	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
	"github.com/appbaseio/reindex-orchestrator/internal/reindex"
	"github.com/appbaseio/reindex-orchestrator/internal/store"
	"github.com/appbaseio/reindex-orchestrator/internal/worker"
	"github.com/appbaseio/reindex-orchestrator/plugins"
	"github.com/appbaseio/reindex-orchestrator/util"
)

const logTag = "[reindexer]"

var (
	singleton *reindexer
	once      sync.Once
)

type reindexer struct {
	service *reindex.Service
	worker  *worker.Worker
}

// Instance returns the plugin's single instance. Use only this function to
// fetch it from outside the package, to avoid creating stateless duplicates.
func Instance() *reindexer {
	once.Do(func() { singleton = &reindexer{} })
	return singleton
}

func (rx *reindexer) Name() string {
	return logTag
}

func (rx *reindexer) InitFunc() error {
	util.NewClient()

	client := util.GetClient7()
	rx.service = reindex.NewService(store.New(client, store.DefaultIndex), cluster.NewES7Client(client))
	rx.worker = worker.New(rx.service)
	rx.worker.Start()
	return nil
}

func (rx *reindexer) Routes() []plugins.Route {
	return rx.routes()
}
