package repositories

import (
	"context"

	"notaminda/internal/domain/models"
)

// MindMapRepository persists mind maps. Ownership and visibility checks live
// in the service layer; repositories only fetch and mutate rows.
type MindMapRepository interface {
	Create(ctx context.Context, mindMap *models.MindMap) error

	// GetByID retrieves a mind map without its nodes.
	GetByID(ctx context.Context, id string) (*models.MindMap, error)

	// List retrieves all mind maps owned by a user, newest first.
	List(ctx context.Context, userID string) ([]models.MindMap, error)

	// Update persists title, privacy flag and flow data.
	Update(ctx context.Context, mindMap *models.MindMap) error

	// Delete removes the mind map; its nodes cascade.
	Delete(ctx context.Context, id string) error
}
