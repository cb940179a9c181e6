// Package redis provides Redis persistence for flows and credentials.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix  = "flowadmin"
	connectTimeout = 5 * time.Second
)

// Persistence stores the flow set as a JSON string and credentials as a hash
// keyed by node id.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the Redis server described by databaseURL
// (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return NewPersistenceWithClient(client, logger, defaultPrefix), nil
}

// NewPersistenceWithClient wraps an existing client. Keys are namespaced by prefix.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Persistence{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (p *Persistence) flowsKey() string {
	return p.prefix + ":flows"
}

func (p *Persistence) credentialsKey() string {
	return p.prefix + ":credentials"
}

// Close closes the underlying client.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// LoadFlows returns the stored flow set and credentials.
func (p *Persistence) LoadFlows(ctx context.Context) (*persistence.Snapshot, error) {
	snapshot := &persistence.Snapshot{
		Flows:       []models.NodeConfig{},
		Credentials: map[string]models.Credentials{},
	}

	raw, err := p.client.Get(ctx, p.flowsKey()).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
	case err != nil:
		return nil, fmt.Errorf("failed to read flows: %w", err)
	default:
		err = json.Unmarshal(raw, &snapshot.Flows)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal flows: %w", err)
		}
	}

	entries, err := p.client.HGetAll(ctx, p.credentialsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}

	for nodeID, value := range entries {
		var creds models.Credentials

		err = json.Unmarshal([]byte(value), &creds)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials for node %s: %w", nodeID, err)
		}

		snapshot.Credentials[nodeID] = creds
	}

	return snapshot, nil
}

// SaveFlows replaces flows and credentials inside a MULTI/EXEC transaction.
func (p *Persistence) SaveFlows(ctx context.Context, snapshot *persistence.Snapshot) error {
	flows := snapshot.Flows
	if flows == nil {
		flows = []models.NodeConfig{}
	}

	rawFlows, err := json.Marshal(flows)
	if err != nil {
		return fmt.Errorf("failed to marshal flows: %w", err)
	}

	credentials := make(map[string]any, len(snapshot.Credentials))

	for nodeID, creds := range snapshot.Credentials {
		raw, err := json.Marshal(creds)
		if err != nil {
			return fmt.Errorf("failed to marshal credentials for node %s: %w", nodeID, err)
		}

		credentials[nodeID] = string(raw)
	}

	_, err = p.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, p.flowsKey(), rawFlows, 0)
		pipe.Del(ctx, p.credentialsKey())

		if len(credentials) > 0 {
			pipe.HSet(ctx, p.credentialsKey(), credentials)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save flows: %w", err)
	}

	p.logger.DebugContext(ctx, "Saved flows to redis", "nodes", len(flows), "credentials", len(credentials))

	return nil
}
