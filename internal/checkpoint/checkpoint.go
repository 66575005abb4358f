// Package checkpoint persists the ingestion cursor: the highest block height
// whose batch was fully applied. Committed only after the aggregation pass,
// so a crash replays the batch and the pre-existence checks absorb the rerun.
package checkpoint

import (
	"context"
)

type Checkpoint interface {
	// Load returns the last committed height, 0 when none was ever committed
	Load(ctx context.Context) (uint64, error)
	Commit(ctx context.Context, height uint64) error
}
