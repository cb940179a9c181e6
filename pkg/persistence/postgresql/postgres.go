// Package postgresql provides PostgreSQL persistence for flows and credentials.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/dukex/flowadmin/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// LoadFlows returns the stored flow set and credentials.
func (p *Persistence) LoadFlows(ctx context.Context) (*persistence.Snapshot, error) {
	flows, err := p.loadNodes(ctx)
	if err != nil {
		return nil, err
	}

	credentials, err := p.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	return &persistence.Snapshot{
		Flows:       flows,
		Credentials: credentials,
	}, nil
}

func (p *Persistence) loadNodes(ctx context.Context) ([]models.NodeConfig, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT node FROM flow_nodes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow nodes: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.Error("Failed to close rows", "error", closeErr)
		}
	}()

	flows := make([]models.NodeConfig, 0)

	for rows.Next() {
		var raw []byte

		err := rows.Scan(&raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow node: %w", err)
		}

		var node models.NodeConfig

		err = json.Unmarshal(raw, &node)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal flow node: %w", err)
		}

		flows = append(flows, node)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating flow nodes: %w", err)
	}

	return flows, nil
}

func (p *Persistence) loadCredentials(ctx context.Context) (map[string]models.Credentials, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT node_id, credentials FROM node_credentials`)
	if err != nil {
		return nil, fmt.Errorf("failed to query node credentials: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			p.logger.Error("Failed to close rows", "error", closeErr)
		}
	}()

	credentials := make(map[string]models.Credentials)

	for rows.Next() {
		var (
			nodeID string
			raw    []byte
		)

		err := rows.Scan(&nodeID, &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to scan node credentials: %w", err)
		}

		var creds models.Credentials

		err = json.Unmarshal(raw, &creds)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials for node %s: %w", nodeID, err)
		}

		credentials[nodeID] = creds
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating node credentials: %w", err)
	}

	return credentials, nil
}

// SaveFlows replaces the stored flow set and credentials in a single transaction.
func (p *Persistence) SaveFlows(ctx context.Context, snapshot *persistence.Snapshot) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				p.logger.Error("Failed to rollback transaction", "error", rollbackErr)
			}
		}
	}()

	err = p.replaceNodes(ctx, tx, snapshot.Flows)
	if err != nil {
		return err
	}

	err = p.replaceCredentials(ctx, tx, snapshot.Credentials)
	if err != nil {
		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (p *Persistence) replaceNodes(ctx context.Context, tx *sql.Tx, flows []models.NodeConfig) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM flow_nodes`)
	if err != nil {
		return fmt.Errorf("failed to clear flow nodes: %w", err)
	}

	for position, node := range flows {
		raw, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("failed to marshal node %s: %w", node.ID(), err)
		}

		var flowID sql.NullString
		if z := node.FlowID(); z != "" {
			flowID = sql.NullString{String: z, Valid: true}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO flow_nodes (position, node_id, flow_id, node, updated_at) VALUES ($1, $2, $3, $4, NOW())`,
			position, node.ID(), flowID, raw,
		)
		if err != nil {
			return fmt.Errorf("failed to insert node %s: %w", node.ID(), err)
		}
	}

	return nil
}

func (p *Persistence) replaceCredentials(ctx context.Context, tx *sql.Tx, credentials map[string]models.Credentials) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM node_credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear node credentials: %w", err)
	}

	for nodeID, creds := range credentials {
		raw, err := json.Marshal(creds)
		if err != nil {
			return fmt.Errorf("failed to marshal credentials for node %s: %w", nodeID, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO node_credentials (node_id, credentials, updated_at) VALUES ($1, $2, NOW())`,
			nodeID, raw,
		)
		if err != nil {
			return fmt.Errorf("failed to insert credentials for node %s: %w", nodeID, err)
		}
	}

	return nil
}
