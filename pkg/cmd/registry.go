package cmd

import (
	"context"
	"log/slog"

	"github.com/dukex/flowadmin/pkg/registry"
)

// NewRegistry creates the credential definition registry with the built-in
// node types, extended by the catalog file when one is given.
func NewRegistry(ctx context.Context, logger *slog.Logger, catalogPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)
	reg.RegisterDefaults()

	if catalogPath != "" {
		err := reg.LoadFile(catalogPath)
		if err != nil {
			return nil, err
		}

		logger.InfoContext(ctx, "Loaded credentials catalog", "path", catalogPath, "node_types", len(reg.NodeTypes()))
	}

	return reg, nil
}
