// Package flowstore holds the active flow set in memory and persists every
// change through a storage backend.
package flowstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukex/flowadmin/pkg/models"
	"github.com/dukex/flowadmin/pkg/persistence"
	"github.com/google/uuid"
)

// CredentialDefinitions resolves the credential declaration of a node type.
type CredentialDefinitions interface {
	CredentialDefinition(nodeType string) models.CredentialDefinition
}

// Store is the flow store. Reads are served from memory; writes hold the lock
// across persist and state swap, so commits are serialized.
type Store struct {
	logger      *slog.Logger
	storage     persistence.Persistence
	definitions CredentialDefinitions
	schemas     *schemaValidator

	mu          sync.RWMutex
	rev         string
	flows       []models.NodeConfig
	credentials map[string]models.Credentials
}

// NewStore creates an empty store. Call Reload to load state from storage.
func NewStore(logger *slog.Logger, storage persistence.Persistence, definitions CredentialDefinitions) (*Store, error) {
	schemas, err := newSchemaValidator()
	if err != nil {
		return nil, err
	}

	flows := []models.NodeConfig{}

	return &Store{
		logger:      logger.With("module", "flowstore"),
		storage:     storage,
		definitions: definitions,
		schemas:     schemas,
		rev:         revision(flows),
		flows:       flows,
		credentials: map[string]models.Credentials{},
	}, nil
}

// FlowSet returns a copy of the active flow set and its revision.
func (s *Store) FlowSet() *models.FlowSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return &models.FlowSet{
		Rev:   s.rev,
		Flows: models.CloneNodes(s.flows),
	}
}

// Rev returns the active revision.
func (s *Store) Rev() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rev
}

// Reload replaces the active state with what storage holds.
func (s *Store) Reload(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, err := s.storage.LoadFlows(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load flows: %w", err)
	}

	flows := snapshot.Flows
	if flows == nil {
		flows = []models.NodeConfig{}
	}

	credentials := snapshot.Credentials
	if credentials == nil {
		credentials = map[string]models.Credentials{}
	}

	diff := diffFlows(s.flows, flows)

	s.flows = flows
	s.credentials = credentials
	s.rev = revision(flows)

	s.logger.InfoContext(ctx, "Reloaded flows from storage",
		"rev", s.rev,
		"nodes", len(flows),
		"added", diff.Added,
		"changed", diff.Changed,
		"removed", diff.Removed,
	)

	return s.rev, nil
}

// SetFlows replaces the whole flow set. Every deployment type replaces the
// stored content; the type only decides what the diff log reports.
func (s *Store) SetFlows(ctx context.Context, flows []models.NodeConfig, deploymentType models.DeploymentType) (string, error) {
	const op = "SetFlows"

	nodes := models.CloneNodes(flows)
	if nodes == nil {
		nodes = []models.NodeConfig{}
	}

	err := s.schemas.validateFlowSet(op, nodes)
	if err != nil {
		return "", err
	}

	err = checkUniqueIDs(op, nodes)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	credentials := extractCredentials(nodes, s.credentials)
	pruneCredentials(credentials, nodes)

	diff := diffFlows(s.flows, nodes)

	err = s.commit(ctx, nodes, credentials)
	if err != nil {
		return "", err
	}

	s.logDeployment(ctx, deploymentType, diff)

	return s.rev, nil
}

// AddFlow appends a new flow and returns its id. Missing flow and node ids
// are generated.
func (s *Store) AddFlow(ctx context.Context, flow *models.Flow) (string, error) {
	const op = "AddFlow"

	if flow == nil {
		return "", persistence.NewValidationError(op, persistence.CodeInvalidFlow, "flow is required")
	}

	nodes := models.CloneNodes(flow.Nodes)

	err := s.schemas.validateFlowNodes(op, nodes)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	flowID := flow.ID
	if flowID == "" {
		flowID = uuid.New().String()
	}

	if flowID == models.GlobalFlowID {
		return "", persistence.NewValidationError(op, persistence.CodeNotAllowed, "the global flow cannot be added")
	}

	existing := indexNodes(s.flows)
	if _, taken := existing[flowID]; taken {
		return "", persistence.NewValidationError(op, persistence.CodeDuplicateID,
			fmt.Sprintf("flow id %s already exists", flowID))
	}

	header := *flow
	header.ID = flowID

	assignFlow(nodes, flowID)

	err = checkUniqueIDs(op, append([]models.NodeConfig{header.Tab()}, nodes...), s.flows...)
	if err != nil {
		return "", err
	}

	credentials := extractCredentials(nodes, s.credentials)

	next := make([]models.NodeConfig, 0, len(s.flows)+len(nodes)+1)
	next = append(next, models.CloneNodes(s.flows)...)
	next = append(next, header.Tab())
	next = append(next, nodes...)

	err = s.commit(ctx, next, credentials)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "Added flow", "flow_id", flowID, "nodes", len(nodes), "rev", s.rev)

	return flowID, nil
}

// Flow returns the flow with the given id. The id "global" returns the
// config nodes that belong to no flow.
func (s *Store) Flow(id string) (*models.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id == models.GlobalFlowID {
		nodes := []models.NodeConfig{}

		for _, node := range s.flows {
			if !node.IsTab() && node.FlowID() == "" {
				nodes = append(nodes, node.Clone())
			}
		}

		return &models.Flow{ID: models.GlobalFlowID, Label: "Global", Nodes: nodes}, true
	}

	var tab models.NodeConfig

	nodes := []models.NodeConfig{}

	for _, node := range s.flows {
		switch {
		case node.IsTab() && node.ID() == id:
			tab = node
		case node.FlowID() == id:
			nodes = append(nodes, node.Clone())
		}
	}

	if tab == nil {
		return nil, false
	}

	return models.FlowFromTab(tab, nodes), true
}

// UpdateFlow replaces an existing flow's header and nodes.
func (s *Store) UpdateFlow(ctx context.Context, id string, flow *models.Flow) error {
	const op = "UpdateFlow"

	if flow == nil {
		return persistence.NewValidationError(op, persistence.CodeInvalidFlow, "flow is required")
	}

	nodes := models.CloneNodes(flow.Nodes)

	err := s.schemas.validateFlowNodes(op, nodes)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var replacement []models.NodeConfig

	if id == models.GlobalFlowID {
		assignFlow(nodes, "")
		replacement = nodes
	} else {
		header := *flow
		header.ID = id

		assignFlow(nodes, id)
		replacement = append([]models.NodeConfig{header.Tab()}, nodes...)
	}

	next, found := replaceFlow(s.flows, id, replacement)
	if !found {
		return persistence.NewFlowError(op, id, persistence.ErrFlowNotFound)
	}

	err = checkUniqueIDs(op, next)
	if err != nil {
		return err
	}

	credentials := extractCredentials(nodes, s.credentials)
	pruneCredentials(credentials, next)

	err = s.commit(ctx, next, credentials)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Updated flow", "flow_id", id, "nodes", len(nodes), "rev", s.rev)

	return nil
}

// RemoveFlow deletes a flow and every node it owns.
func (s *Store) RemoveFlow(ctx context.Context, id string) error {
	const op = "RemoveFlow"

	if id == models.GlobalFlowID {
		return persistence.NewValidationError(op, persistence.CodeNotAllowed, "the global flow cannot be removed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next, found := replaceFlow(s.flows, id, nil)
	if !found {
		return persistence.NewFlowError(op, id, persistence.ErrFlowNotFound)
	}

	credentials := extractCredentials(nil, s.credentials)
	pruneCredentials(credentials, next)

	err := s.commit(ctx, next, credentials)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Removed flow", "flow_id", id, "rev", s.rev)

	return nil
}

// Credentials returns a copy of the stored credentials of a node.
func (s *Store) Credentials(id string) (models.Credentials, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds, ok := s.credentials[id]
	if !ok {
		return nil, false
	}

	return creds.Clone(), true
}

// CredentialDefinition returns the credential declaration of a node type.
func (s *Store) CredentialDefinition(nodeType string) models.CredentialDefinition {
	if s.definitions == nil {
		return models.CredentialDefinition{}
	}

	return s.definitions.CredentialDefinition(nodeType)
}

// HealthCheck checks the storage backend.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.storage.HealthCheck(ctx)
}

// commit persists the next state and swaps it in. Callers hold the write lock.
func (s *Store) commit(ctx context.Context, flows []models.NodeConfig, credentials map[string]models.Credentials) error {
	err := s.storage.SaveFlows(ctx, &persistence.Snapshot{
		Flows:       flows,
		Credentials: credentials,
	})
	if err != nil {
		return fmt.Errorf("failed to persist flows: %w", err)
	}

	s.flows = flows
	s.credentials = credentials
	s.rev = revision(flows)

	return nil
}

func (s *Store) logDeployment(ctx context.Context, deploymentType models.DeploymentType, diff deploymentDiff) {
	attrs := []any{"deployment_type", deploymentType, "rev", s.rev}

	switch deploymentType {
	case models.DeploymentTypeFlows:
		attrs = append(attrs, "changed_flows", diff.ChangedFlows)
	case models.DeploymentTypeNodes:
		attrs = append(attrs, "added", diff.Added, "changed", diff.Changed, "removed", diff.Removed)
	default:
		attrs = append(attrs, "nodes", len(s.flows))
	}

	if diff.Empty() {
		s.logger.InfoContext(ctx, "Deployed flows with no changes", attrs...)

		return
	}

	s.logger.InfoContext(ctx, "Deployed flows", attrs...)
}

// revision hashes the canonical JSON of the flow set. encoding/json sorts map
// keys, so equal content yields equal revisions.
func revision(flows []models.NodeConfig) string {
	data, err := json.Marshal(flows)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", flows))
	}

	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

// assignFlow sets the owning flow of each node and generates missing ids.
func assignFlow(nodes []models.NodeConfig, flowID string) {
	for _, node := range nodes {
		if node.ID() == "" {
			node[models.NodeKeyID] = uuid.New().String()
		}

		if flowID == "" {
			delete(node, models.NodeKeyFlow)
		} else {
			node[models.NodeKeyFlow] = flowID
		}
	}
}

// replaceFlow returns flows with the flow id (tab and owned nodes, or the
// global config nodes) swapped for replacement, placed where the flow was.
func replaceFlow(flows []models.NodeConfig, id string, replacement []models.NodeConfig) ([]models.NodeConfig, bool) {
	next := make([]models.NodeConfig, 0, len(flows)+len(replacement))
	found := false
	inserted := false

	for _, node := range flows {
		if !belongsTo(node, id) {
			next = append(next, node.Clone())

			continue
		}

		if node.IsTab() {
			found = true
		}

		if !inserted {
			next = append(next, replacement...)
			inserted = true
		}
	}

	if id == models.GlobalFlowID {
		if !inserted {
			next = append(next, replacement...)
		}

		found = true
	}

	return next, found
}

func belongsTo(node models.NodeConfig, id string) bool {
	if id == models.GlobalFlowID {
		return !node.IsTab() && node.FlowID() == ""
	}

	return (node.IsTab() && node.ID() == id) || node.FlowID() == id
}

// checkUniqueIDs rejects duplicate node ids within nodes or against existing.
func checkUniqueIDs(op string, nodes []models.NodeConfig, existing ...models.NodeConfig) error {
	seen := make(map[string]struct{}, len(nodes)+len(existing))
	for _, node := range existing {
		seen[node.ID()] = struct{}{}
	}

	for _, node := range nodes {
		id := node.ID()
		if _, dup := seen[id]; dup {
			return persistence.NewValidationError(op, persistence.CodeDuplicateID,
				fmt.Sprintf("duplicate node id %s", id))
		}

		seen[id] = struct{}{}
	}

	return nil
}
