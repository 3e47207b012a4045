package repositories

import (
	"context"

	"notaminda/internal/domain/models"
)

// NodeRepository persists nodes. The bulk operations exist for the tree
// reconciler, which applies them inside one transaction scope.
type NodeRepository interface {
	GetByID(ctx context.Context, id string) (*models.Node, error)

	// ListByMindMap returns every node of a mind map, oldest first.
	ListByMindMap(ctx context.Context, mindMapID string) ([]models.Node, error)

	Create(ctx context.Context, node *models.Node) error

	// Update persists title, note, parent and flow data of a single node.
	Update(ctx context.Context, node *models.Node) error

	Delete(ctx context.Context, id string) error

	// BulkCreate inserts nodes in one statement.
	BulkCreate(ctx context.Context, nodes []*models.Node) error

	// BulkUpdateAttrs persists title and flow data for each node.
	BulkUpdateAttrs(ctx context.Context, nodes []*models.Node) error

	// BulkUpdateParents persists the parent reference for each node.
	BulkUpdateParents(ctx context.Context, nodes []*models.Node) error

	// DeleteByIDs removes the given nodes.
	DeleteByIDs(ctx context.Context, ids []string) error
}
