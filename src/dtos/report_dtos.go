package dtos

import (
	"time"

	"github.com/Inventra/Inventra-Backend/src/models"
)

type HierarchyStand string

const (
	HierarchyStandParent HierarchyStand = "PARENT"
	HierarchyStandChild  HierarchyStand = "CHILD"
)

// ItemNodeDTO is one node of the analytical report tree, photos already
// resolved to temporary URLs.
type ItemNodeDTO struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	NodeType  models.NodeType `json:"nodeType"`
	IsChecked bool           `json:"isChecked"`
	CheckedAt *time.Time     `json:"checkedAt,omitempty"`
	Photos    []string       `json:"photos"`
	Children  []*ItemNodeDTO `json:"children"`
}

// TaggedNodeDTO is a flattened subtree member together with the id of the
// valid root whose expansion produced it, so callers can bucket a flat result
// set by root without re-walking the tree.
type TaggedNodeDTO struct {
	Node   models.NodeModel `json:"node"`
	RootID string           `json:"rootId"`
}

// AncestorPathsDTO carries the dual classification of a node: the chain of
// ancestor locations and the chain of ancestor assets, root-to-leaf order.
type AncestorPathsDTO struct {
	LocationPath     []string       `json:"locationPath"`
	HierarchyPath    []string       `json:"hierarchyPath"`
	DepthInHierarchy int            `json:"depthInHierarchy"`
	Classification   HierarchyStand `json:"classification"`
}

// AgreementRowDTO is one asset line of the responsibility agreement report.
// Rows reference each other by reference, not node id: ParentReference names
// the nearest ancestor asset, empty for assets hanging directly off a
// location.
type AgreementRowDTO struct {
	Reference       string         `json:"reference"`
	ParentReference string         `json:"parentReference"`
	LocationPath    []string       `json:"locationPath"`
	Classification  HierarchyStand `json:"classification"`
	Checked         bool           `json:"checked"`
	CheckedAt       *time.Time     `json:"checkedAt,omitempty"`
}

type AsyncTaskCreateResponse struct {
	ID     string                 `json:"id"`
	Status models.AsyncTaskStatus `json:"status"`
}

type AsyncTaskResponse struct {
	ID         string                     `json:"id"`
	Status     models.AsyncTaskStatus     `json:"status"`
	TaskType   models.AsyncTaskType       `json:"taskType"`
	ResultType models.AsyncTaskResultType `json:"resultType"`
	Progress   int                        `json:"progress"`
	Result     *string                    `json:"result,omitempty"`
	Log        *string                    `json:"log,omitempty"`
}
