package reindexer

import (
	"encoding/json"
	"net/http"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/gorilla/mux"

	"github.com/appbaseio/reindex-orchestrator/util"
)

func (rx *reindexer) create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexName, ok := mux.Vars(r)["index"]
		if !ok {
			util.WriteBackError(w, "route inconsistency, expecting var {index}", http.StatusInternalServerError)
			return
		}

		op, err := rx.service.CreateReindexOperation(r.Context(), indexName)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		rx.worker.ForceRefresh()

		writeOperation(w, op, http.StatusCreated)
	}
}

func (rx *reindexer) get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexName, ok := mux.Vars(r)["index"]
		if !ok {
			util.WriteBackError(w, "route inconsistency, expecting var {index}", http.StatusInternalServerError)
			return
		}

		op, err := rx.service.FindReindexOperation(r.Context(), indexName)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if op == nil {
			util.WriteBackError(w, "no reindex operation found for "+indexName, http.StatusNotFound)
			return
		}

		writeOperation(w, op, http.StatusOK)
	}
}

func (rx *reindexer) pause() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexName, ok := mux.Vars(r)["index"]
		if !ok {
			util.WriteBackError(w, "route inconsistency, expecting var {index}", http.StatusInternalServerError)
			return
		}

		op, err := rx.service.PauseReindexOperation(r.Context(), indexName)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		writeOperation(w, op, http.StatusOK)
	}
}

func (rx *reindexer) resume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexName, ok := mux.Vars(r)["index"]
		if !ok {
			util.WriteBackError(w, "route inconsistency, expecting var {index}", http.StatusInternalServerError)
			return
		}

		op, err := rx.service.ResumeReindexOperation(r.Context(), indexName)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		rx.worker.ForceRefresh()

		writeOperation(w, op, http.StatusOK)
	}
}

func (rx *reindexer) warnings() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexName, ok := mux.Vars(r)["index"]
		if !ok {
			util.WriteBackError(w, "route inconsistency, expecting var {index}", http.StatusInternalServerError)
			return
		}

		warnings, err := rx.service.DetectReindexWarnings(r.Context(), indexName)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if warnings == nil {
			util.WriteBackError(w, "index "+indexName+" not found", http.StatusNotFound)
			return
		}

		raw, err := json.Marshal(map[string]interface{}{"warnings": warnings})
		if err != nil {
			util.WriteBackError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		util.WriteBackRaw(w, raw, http.StatusOK)
	}
}

func writeOperation(w http.ResponseWriter, op interface{}, code int) {
	raw, err := json.Marshal(op)
	if err != nil {
		util.WriteBackError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	util.WriteBackRaw(w, raw, code)
}

// writeServiceError maps the reindex service's tagged errors to the status
// codes the rest of the HTTP surface uses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *errors.NotFoundError:
		util.WriteBackError(w, err.Error(), http.StatusNotFound)
	case *errors.ConflictError:
		util.WriteBackError(w, err.Error(), http.StatusConflict)
	case *errors.PreconditionError:
		util.WriteBackError(w, err.Error(), http.StatusBadRequest)
	default:
		util.WriteBackError(w, err.Error(), http.StatusInternalServerError)
	}
}
