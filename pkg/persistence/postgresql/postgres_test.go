package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/dukex/flowadmin/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"node_credentials", "flow_nodes", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("flowadmin_test"),
			postgres.WithUsername("flowadmin"),
			postgres.WithPassword("flowadmin"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	for _, table := range []string{"flow_nodes", "node_credentials", "schema_migrations"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	err := p.HealthCheck(ctx)
	assert.NoError(t, err)
}

func TestPersistence_SaveAndLoadFlows(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	empty, err := p.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Flows)
	assert.Empty(t, empty.Credentials)

	snapshot := &persistence.Snapshot{
		Flows: []models.NodeConfig{
			{"id": "f1", "type": "tab", "label": "Main"},
			{"id": "n1", "type": "http request", "z": "f1", "url": "https://example.com"},
			{"id": "c1", "type": "mqtt-broker"},
		},
		Credentials: map[string]models.Credentials{
			"n1": {"user": "alice", "password": "secret"},
		},
	}

	err = p.SaveFlows(ctx, snapshot)
	require.NoError(t, err)

	loaded, err := p.LoadFlows(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Flows, 3)
	assert.Equal(t, []string{"f1", "n1", "c1"}, []string{loaded.Flows[0].ID(), loaded.Flows[1].ID(), loaded.Flows[2].ID()})
	assert.Equal(t, "https://example.com", loaded.Flows[1]["url"])
	assert.Equal(t, "secret", loaded.Credentials["n1"]["password"])

	// Replace drops what is no longer present
	snapshot.Flows = snapshot.Flows[:1]
	snapshot.Credentials = map[string]models.Credentials{}

	err = p.SaveFlows(ctx, snapshot)
	require.NoError(t, err)

	loaded, err = p.LoadFlows(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Flows, 1)
	assert.Empty(t, loaded.Credentials)
}
