// Package file provides file-based persistence for flows and credentials.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
)

const (
	flowsFile       = "flows.json"
	credentialsFile = "flows_cred.json"
	backupSuffix    = ".backup"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence rooted at root.
func NewPersistence(root string) *Persistence {
	return &Persistence{
		root: strings.Replace(root, "file://", "", 1),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// LoadFlows reads flows.json and flows_cred.json. Missing files yield empty state.
func (fp *Persistence) LoadFlows(_ context.Context) (*persistence.Snapshot, error) {
	snapshot := &persistence.Snapshot{
		Flows:       []models.NodeConfig{},
		Credentials: map[string]models.Credentials{},
	}

	err := fp.readJSON(flowsFile, &snapshot.Flows)
	if err != nil {
		return nil, err
	}

	err = fp.readJSON(credentialsFile, &snapshot.Credentials)
	if err != nil {
		return nil, err
	}

	if snapshot.Flows == nil {
		snapshot.Flows = []models.NodeConfig{}
	}

	if snapshot.Credentials == nil {
		snapshot.Credentials = map[string]models.Credentials{}
	}

	return snapshot, nil
}

// SaveFlows writes credentials then flows, each through a temp file rename.
// The previous flows file is kept as a backup.
func (fp *Persistence) SaveFlows(_ context.Context, snapshot *persistence.Snapshot) error {
	err := os.MkdirAll(fp.root, 0750)
	if err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	credentials := snapshot.Credentials
	if credentials == nil {
		credentials = map[string]models.Credentials{}
	}

	err = fp.writeJSON(credentialsFile, credentials)
	if err != nil {
		return err
	}

	flowsPath := fp.path(flowsFile)
	if _, statErr := os.Stat(flowsPath); statErr == nil {
		err = copyFile(flowsPath, flowsPath+backupSuffix)
		if err != nil {
			return fmt.Errorf("failed to back up %s: %w", flowsFile, err)
		}
	}

	flows := snapshot.Flows
	if flows == nil {
		flows = []models.NodeConfig{}
	}

	return fp.writeJSON(flowsFile, flows)
}

func (fp *Persistence) path(name string) string {
	return filepath.Clean(filepath.Join(fp.root, name))
}

func (fp *Persistence) readJSON(name string, target any) error {
	body, err := os.ReadFile(fp.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if len(body) == 0 {
		return nil
	}

	err = json.Unmarshal(body, target)
	if err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}

	return nil
}

func (fp *Persistence) writeJSON(name string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	target := fp.path(name)
	tmp := target + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	err = os.Rename(tmp, target)
	if err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(filepath.Clean(src))
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0600)
}
