package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Flow set nodes, ordered by position
			CREATE TABLE flow_nodes (
				position INT PRIMARY KEY,
				node_id VARCHAR(255) NOT NULL,
				flow_id VARCHAR(255),
				node JSONB NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);

			CREATE INDEX idx_flow_nodes_node_id ON flow_nodes(node_id);
			CREATE INDEX idx_flow_nodes_flow_id ON flow_nodes(flow_id);

			-- Credentials keyed by node id
			CREATE TABLE node_credentials (
				node_id VARCHAR(255) PRIMARY KEY,
				credentials JSONB NOT NULL DEFAULT '{}',
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
		`,
	}
}
