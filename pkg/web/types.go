// Package web provides HTTP request and response types for the flow admin API.
package web

import "github.com/dukex/flowadmin/pkg/models"

// Request headers understood by the API.
const (
	HeaderAPIVersion     = "Node-RED-API-Version"
	HeaderDeploymentType = "Node-RED-Deployment-Type"
	HeaderUser           = "X-Flowadmin-User"
)

const (
	APIVersionV1 = "v1"
	APIVersionV2 = "v2"

	AnonymousUser = "anonymous"
)

// FlowsRequest is the v2 body of a flow set deployment.
type FlowsRequest struct {
	Rev   string              `json:"rev,omitempty"`
	Flows []models.NodeConfig `json:"flows"          validate:"required"`
}

// FlowRequest is the body used to add or replace a single flow.
type FlowRequest struct {
	ID       string              `json:"id,omitempty"`
	Label    string              `json:"label"`
	Info     string              `json:"info,omitempty"`
	Disabled bool                `json:"disabled,omitempty"`
	Nodes    []models.NodeConfig `json:"nodes"`
	Configs  []models.NodeConfig `json:"configs,omitempty"`
}

func (r *FlowRequest) toFlow() *models.Flow {
	nodes := make([]models.NodeConfig, 0, len(r.Nodes)+len(r.Configs))
	nodes = append(nodes, r.Nodes...)
	nodes = append(nodes, r.Configs...)

	return &models.Flow{
		ID:       r.ID,
		Label:    r.Label,
		Info:     r.Info,
		Disabled: r.Disabled,
		Nodes:    nodes,
	}
}

// RevResponse is returned after a flow set deployment.
type RevResponse struct {
	Rev string `json:"rev"`
}

// IDResponse is returned after a flow is added or updated.
type IDResponse struct {
	ID string `json:"id"`
}
