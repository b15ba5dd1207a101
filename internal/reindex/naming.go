package reindex

import (
	"context"
	"fmt"

	"github.com/appbaseio/reindex-orchestrator/errors"
	"github.com/appbaseio/reindex-orchestrator/internal/cluster"
)

// maxDestinationNameAttempts bounds the search for a free destination name,
// so a runaway naming collision fails loudly instead of looping forever.
const maxDestinationNameAttempts = 100

// nextDestinationName finds the smallest n >= 0 such that
// "{indexName}-reindex-{n}" does not already exist on the cluster.
func nextDestinationName(ctx context.Context, cl cluster.Client, indexName string) (string, error) {
	for n := 0; n < maxDestinationNameAttempts; n++ {
		candidate := fmt.Sprintf("%s-reindex-%d", indexName, n)
		exists, err := cl.IndexExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.NewInternalError(
		fmt.Sprintf("no available destination name for %q after %d attempts", indexName, maxDestinationNameAttempts),
		nil,
	)
}
