package main

import (
	"github.com/appbaseio/reindex-orchestrator/plugins"
	"github.com/appbaseio/reindex-orchestrator/plugins/reindexer"
)

var PluginInstance plugins.Plugin = reindexer.Instance()
