package flowstore

import (
	"reflect"

	"github.com/dukex/flowadmin/pkg/models"
)

// deploymentDiff counts what a write changes, keyed by node id.
type deploymentDiff struct {
	Added        int
	Changed      int
	Removed      int
	ChangedFlows int
}

func (d deploymentDiff) Empty() bool {
	return d.Added == 0 && d.Changed == 0 && d.Removed == 0
}

func diffFlows(previous, next []models.NodeConfig) deploymentDiff {
	var diff deploymentDiff

	before := indexNodes(previous)
	after := indexNodes(next)
	touchedFlows := make(map[string]struct{})

	for id, node := range after {
		old, existed := before[id]

		switch {
		case !existed:
			diff.Added++
		case !reflect.DeepEqual(old, node):
			diff.Changed++
		default:
			continue
		}

		touchedFlows[owningFlow(node)] = struct{}{}
	}

	for id, node := range before {
		if _, ok := after[id]; !ok {
			diff.Removed++
			touchedFlows[owningFlow(node)] = struct{}{}
		}
	}

	diff.ChangedFlows = len(touchedFlows)

	return diff
}

func indexNodes(nodes []models.NodeConfig) map[string]models.NodeConfig {
	index := make(map[string]models.NodeConfig, len(nodes))
	for _, node := range nodes {
		index[node.ID()] = node
	}

	return index
}

func owningFlow(node models.NodeConfig) string {
	if node.IsTab() {
		return node.ID()
	}

	if z := node.FlowID(); z != "" {
		return z
	}

	return models.GlobalFlowID
}
