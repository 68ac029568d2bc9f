package core

import (
	"sort"
	"strings"
)

// NodeType identifies a node in the schema tree.
type NodeType string

const (
	NodeConnection       NodeType = "connection"
	NodeDatabase         NodeType = "database"
	NodeSchema           NodeType = "schema"
	NodeTablesFolder     NodeType = "tables_folder"
	NodeTable            NodeType = "table"
	NodeColumnsFolder    NodeType = "columns_folder"
	NodeColumn           NodeType = "column"
	NodeIndexesFolder    NodeType = "indexes_folder"
	NodeIndex            NodeType = "index"
	NodeForeignKeyFolder NodeType = "foreign_keys_folder"
	NodeForeignKey       NodeType = "foreign_key"
	NodeTriggersFolder   NodeType = "triggers_folder"
	NodeTrigger          NodeType = "trigger"
	NodeViewsFolder      NodeType = "views_folder"
	NodeView             NodeType = "view"
	NodeFunctionsFolder  NodeType = "functions_folder"
	NodeFunction         NodeType = "function"
	NodeProcFolder       NodeType = "procedures_folder"
	NodeProcedure        NodeType = "procedure"
	NodeSequencesFolder  NodeType = "sequences_folder"
	NodeSequence         NodeType = "sequence"
	NodeQueriesFolder    NodeType = "queries_folder"
	NodeNamedQuery       NodeType = "named_query"
)

// nodeTypeOrder fixes sibling ordering in the tree: folders appear in a
// stable order, leaves sort within their folder.
var nodeTypeOrder = map[NodeType]int{
	NodeConnection:       0,
	NodeDatabase:         1,
	NodeSchema:           2,
	NodeTablesFolder:     3,
	NodeTable:            4,
	NodeColumnsFolder:    5,
	NodeColumn:           6,
	NodeIndexesFolder:    7,
	NodeIndex:            8,
	NodeForeignKeyFolder: 9,
	NodeForeignKey:       10,
	NodeTriggersFolder:   11,
	NodeTrigger:          12,
	NodeViewsFolder:      13,
	NodeView:             14,
	NodeFunctionsFolder:  15,
	NodeFunction:         16,
	NodeProcFolder:       17,
	NodeProcedure:        18,
	NodeSequencesFolder:  19,
	NodeSequence:         20,
	NodeQueriesFolder:    21,
	NodeNamedQuery:       22,
}

// Label returns the display name of the node type.
func (t NodeType) Label() string {
	switch t {
	case NodeTablesFolder:
		return "Tables"
	case NodeViewsFolder:
		return "Views"
	case NodeFunctionsFolder:
		return "Functions"
	case NodeProcFolder:
		return "Procedures"
	case NodeSequencesFolder:
		return "Sequences"
	case NodeQueriesFolder:
		return "Queries"
	case NodeColumnsFolder:
		return "Columns"
	case NodeIndexesFolder:
		return "Indexes"
	case NodeForeignKeyFolder:
		return "Foreign Keys"
	case NodeTriggersFolder:
		return "Triggers"
	case NodeNamedQuery:
		return "Query"
	case NodeForeignKey:
		return "Foreign Key"
	}
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// Node is a lazily-loaded schema tree node. IDs are colon-joined paths,
// e.g. "conn1:mydb:tables_folder:users".
type Node struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Type           NodeType          `json:"type"`
	ConnectionID   string            `json:"connection_id"`
	DatabaseType   string            `json:"database_type"`
	ChildrenLoaded bool              `json:"children_loaded"`
	Children       []*Node           `json:"children,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	ParentID       string            `json:"parent_id,omitempty"`
}

// NewNode builds a node with no children.
func NewNode(id, name string, t NodeType, connectionID, databaseType string) *Node {
	return &Node{
		ID:           id,
		Name:         name,
		Type:         t,
		ConnectionID: connectionID,
		DatabaseType: databaseType,
	}
}

// WithMetadata attaches metadata and returns the node for chaining.
func (n *Node) WithMetadata(md map[string]string) *Node {
	n.Metadata = md
	return n
}

// WithParent records the parent node ID and returns the node for chaining.
func (n *Node) WithParent(parentID string) *Node {
	n.ParentID = parentID
	return n
}

// SetChildren installs children and marks them loaded.
func (n *Node) SetChildren(children []*Node) {
	n.Children = children
	n.ChildrenLoaded = true
}

// Meta returns a metadata value, or "" when absent.
func (n *Node) Meta(key string) string {
	if n.Metadata == nil {
		return ""
	}
	return n.Metadata[key]
}

// SortChildren orders children by node type, then case-insensitive name,
// then ID.
func (n *Node) SortChildren() {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if oa, ob := nodeTypeOrder[a.Type], nodeTypeOrder[b.Type]; oa != ob {
			return oa < ob
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}

// SortChildrenRecursive sorts the whole subtree.
func (n *Node) SortChildrenRecursive() {
	n.SortChildren()
	for _, c := range n.Children {
		c.SortChildrenRecursive()
	}
}
