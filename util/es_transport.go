package util

import (
	"net/http"
)

// CustomESTransport tags every outgoing cluster request with the identity
// of the orchestrator process that issued it, so that slow log / audit log
// entries on the cluster side can be traced back to a worker instance.
type CustomESTransport struct {
	originalTransport http.RoundTripper
	workerID          string
}

// NewCustomESTransport wraps an existing transport, tagging requests with workerID.
func NewCustomESTransport(original http.RoundTripper, workerID string) *CustomESTransport {
	return &CustomESTransport{originalTransport: original, workerID: workerID}
}

// RoundTrip adds an identifying header to every ES request.
func (ct *CustomESTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if ct.workerID != "" {
		req.Header.Add("X-Reindex-Worker-Id", ct.workerID)
	}
	return ct.originalTransport.RoundTrip(req)
}
