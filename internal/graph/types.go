package graph

// Node is the exported, storable form of a graph node: one declaration or
// named type in the amalgamation.
type Node struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	FilePath  string `json:"file_path"`
	Line      uint   `json:"line"`
	Col       uint   `json:"col"`
	Signature string `json:"signature"`
}

// Edge is a directed dependency between two nodes: the source must be
// textually present before the target.
type Edge struct {
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Relation string `json:"relation"`
}

const RelationDependsOn = "depends_on"
