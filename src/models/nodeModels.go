package models

import "time"

type NodeType string

const (
	NodeTypeLocation NodeType = "LOCATION"
	NodeTypeAsset    NodeType = "ASSET"
)

// NodeModel is one entry of the tenant's location/asset hierarchy. The tree is
// stored flat: every node points at its parent through ParentID, roots have a
// null ParentID and level 0. Path caches the references from root to the node
// itself and must be kept consistent with Level by whoever mutates the tree.
type NodeModel struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Reference string         `json:"reference" gorm:"type:varchar(255);not null;index"`
	NodeType  NodeType       `json:"nodeType" gorm:"column:node_type;type:varchar(16);not null;index"`
	ParentID  *string        `json:"parentId" gorm:"column:parent_id;type:varchar(36);index"`
	Level     int            `json:"level" gorm:"not null"`
	Path      []string       `json:"path" gorm:"type:text;serializer:json"`
	Checked   *bool          `json:"checked,omitempty"`
	CheckedAt *time.Time     `json:"checkedAt,omitempty" gorm:"column:checked_at"`
	Photos    []string       `json:"photos" gorm:"type:text;serializer:json"`
	AssetData map[string]any `json:"assetData,omitempty" gorm:"column:asset_data;type:text;serializer:json"`
	CreatedAt time.Time      `json:"createdAt" gorm:"column:created_at"`
}

func (NodeModel) TableName() string {
	return "inventory_nodes"
}

func (n *NodeModel) IsLocation() bool {
	return n.NodeType == NodeTypeLocation
}

func (n *NodeModel) IsChecked() bool {
	return n.Checked != nil && *n.Checked
}
