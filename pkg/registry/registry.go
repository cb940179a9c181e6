// Package registry keeps the credential definitions declared by node types.
package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dukex/flowadmin/pkg/models"
	"gopkg.in/yaml.v3"
)

type Registry struct {
	logger      *slog.Logger
	mu          sync.RWMutex
	credentials map[string]models.CredentialDefinition
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:      log,
		credentials: make(map[string]models.CredentialDefinition),
	}
}

// RegisterCredentials declares the credential fields of a node type,
// replacing any previous declaration.
func (r *Registry) RegisterCredentials(nodeType string, definition models.CredentialDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := make(models.CredentialDefinition, len(definition))
	for field, declaration := range definition {
		clone[field] = declaration
	}

	r.credentials[nodeType] = clone
}

// CredentialDefinition returns the declaration for nodeType. Unknown types
// yield an empty definition, which exposes nothing.
func (r *Registry) CredentialDefinition(nodeType string) models.CredentialDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	definition, ok := r.credentials[nodeType]
	if !ok {
		return models.CredentialDefinition{}
	}

	clone := make(models.CredentialDefinition, len(definition))
	for field, declaration := range definition {
		clone[field] = declaration
	}

	return clone
}

// NodeTypes returns the registered node types in sorted order.
func (r *Registry) NodeTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.credentials))
	for nodeType := range r.credentials {
		types = append(types, nodeType)
	}

	slices.Sort(types)

	return types
}

// HealthCheck reports whether any credential definition is registered.
func (r *Registry) HealthCheck() (string, bool) {
	count := len(r.NodeTypes())
	if count == 0 {
		return "Registry has no credential definitions", false
	}

	return fmt.Sprintf("Registry has %d credential definitions", count), true
}

// credentialsFile is the YAML layout of a credential definitions catalog:
//
//	credentials:
//	  http request:
//	    user: {type: text}
//	    password: {type: password}
type credentialsFile struct {
	Credentials map[string]models.CredentialDefinition `yaml:"credentials"`
}

// LoadFile registers every definition found in the YAML catalog at path.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read credentials catalog %s: %w", path, err)
	}

	var catalog credentialsFile

	err = yaml.Unmarshal(data, &catalog)
	if err != nil {
		return fmt.Errorf("failed to parse credentials catalog %s: %w", path, err)
	}

	for nodeType, definition := range catalog.Credentials {
		r.RegisterCredentials(nodeType, definition)
	}

	r.logger.Info("Loaded credentials catalog", "path", path, "node_types", len(catalog.Credentials))

	return nil
}
