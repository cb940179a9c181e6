package models

import "slices"

// DeploymentType selects how a flow set write is applied.
type DeploymentType string

const (
	DeploymentTypeFull   DeploymentType = "full"   // Replace everything
	DeploymentTypeNodes  DeploymentType = "nodes"  // Only changed nodes are restarted
	DeploymentTypeFlows  DeploymentType = "flows"  // Only changed flows are restarted
	DeploymentTypeReload DeploymentType = "reload" // Re-derive state from storage, no payload
)

var deploymentTypes = []DeploymentType{
	DeploymentTypeFull,
	DeploymentTypeNodes,
	DeploymentTypeFlows,
	DeploymentTypeReload,
}

// IsValid reports whether the deployment type is one of the known modes.
func (d DeploymentType) IsValid() bool {
	return slices.Contains(deploymentTypes, d)
}

// OrDefault returns the deployment type, falling back to full when empty.
func (d DeploymentType) OrDefault() DeploymentType {
	if d == "" {
		return DeploymentTypeFull
	}

	return d
}

// DeploymentRequest is a flow set write. Flows is ignored for reload.
type DeploymentRequest struct {
	DeploymentType DeploymentType `json:"deployment_type,omitempty"`
	Flows          *FlowSet       `json:"flows,omitempty"`
}
