package flowstore

import (
	"strings"

	"github.com/dukex/flowadmin/pkg/models"
)

// extractCredentials strips the credentials object from every node and merges
// it into a copy of current. Password placeholders keep the stored value and
// redacted has_* flags are ignored.
func extractCredentials(nodes []models.NodeConfig, current map[string]models.Credentials) map[string]models.Credentials {
	merged := make(map[string]models.Credentials, len(current))
	for nodeID, creds := range current {
		merged[nodeID] = creds.Clone()
	}

	for _, node := range nodes {
		raw, ok := node[models.NodeKeyCredentials]
		if !ok {
			continue
		}

		delete(node, models.NodeKeyCredentials)

		posted, ok := asCredentials(raw)
		if !ok {
			continue
		}

		nodeID := node.ID()

		stored := merged[nodeID]
		if stored == nil {
			stored = models.Credentials{}
		}

		for field, value := range posted {
			if strings.HasPrefix(field, "has_") {
				continue
			}

			if value == models.PasswordPlaceholder {
				continue
			}

			stored[field] = value
		}

		merged[nodeID] = stored
	}

	return merged
}

func asCredentials(raw any) (models.Credentials, bool) {
	switch value := raw.(type) {
	case models.Credentials:
		return value, true
	case map[string]any:
		return models.Credentials(value), true
	default:
		return nil, false
	}
}

// pruneCredentials drops credentials of nodes absent from nodes.
func pruneCredentials(credentials map[string]models.Credentials, nodes []models.NodeConfig) {
	present := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		present[node.ID()] = struct{}{}
	}

	for nodeID := range credentials {
		if _, ok := present[nodeID]; !ok {
			delete(credentials, nodeID)
		}
	}
}
