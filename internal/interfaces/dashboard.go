package interfaces

import (
	"context"

	"nifty-pulse/internal/types"
)

// Dashboard assembles one snapshot per call.
type Dashboard interface {
	Snapshot(ctx context.Context) (*types.Snapshot, error)
}
