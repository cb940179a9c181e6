// Package persistence provides the storage abstraction behind the flow store.
package persistence

import (
	"context"

	"github.com/dukex/flowadmin/pkg/models"
)

// Snapshot is the durable state of a flow store: the flat flow set and the
// credentials keyed by node id.
type Snapshot struct {
	Flows       []models.NodeConfig
	Credentials map[string]models.Credentials
}

// Persistence is the backing source the flow store persists to and reloads from.
type Persistence interface {
	// LoadFlows returns the stored state. An empty store yields an empty snapshot.
	LoadFlows(ctx context.Context) (*Snapshot, error)
	// SaveFlows atomically replaces the stored state.
	SaveFlows(ctx context.Context, snapshot *Snapshot) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
