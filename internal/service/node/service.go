// Package node implements single-node CRUD on top of the persisted forest.
// Bulk changes go through the mind map reconciler instead.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"notaminda/internal/config"
	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
)

// Service implements single-node operations
type Service struct {
	nodeRepo    repositories.NodeRepository
	mindMapRepo repositories.MindMapRepository
	logger      *slog.Logger
}

// NewService creates a new node service
func NewService(
	nodeRepo repositories.NodeRepository,
	mindMapRepo repositories.MindMapRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		nodeRepo:    nodeRepo,
		mindMapRepo: mindMapRepo,
		logger:      logger,
	}
}

// CreateNodeRequest carries the fields for creating one node
type CreateNodeRequest struct {
	UserID    string      `json:"-"`
	MindMapID string      `json:"mind_map"`
	Title     *string     `json:"title"`
	ParentID  *string     `json:"parent"`
	FlowData  models.Blob `json:"flow_data,omitempty"`
}

func (s *Service) validateCreateNodeRequest(req *CreateNodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.MindMapID, validation.Required),
		validation.Field(&req.Title, validation.Length(0, config.MaxNodeTitleLength)),
	)
}

// CreateNode creates one node in a map the user owns. Unlike reconciliation,
// the direct path is strict: a parent reference must resolve to a node of the
// same map or the call fails.
func (s *Service) CreateNode(ctx context.Context, req *CreateNodeRequest) (*models.Node, error) {
	if err := s.validateCreateNodeRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.getOwnedMap(ctx, req.UserID, req.MindMapID); err != nil {
		return nil, err
	}

	if req.ParentID != nil && *req.ParentID != "" {
		if err := s.checkParent(ctx, req.MindMapID, *req.ParentID); err != nil {
			return nil, err
		}
	} else {
		req.ParentID = nil
	}

	node := &models.Node{
		ID:        uuid.NewString(),
		MindMapID: req.MindMapID,
		Title:     req.Title,
		ParentID:  req.ParentID,
		FlowData:  req.FlowData,
		CreatedAt: time.Now(),
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node created",
		"id", node.ID,
		"mind_map_id", node.MindMapID,
		"parent_id", node.ParentID,
	)

	return node, nil
}

// GetNode retrieves a node owned by the user.
func (s *Service) GetNode(ctx context.Context, userID, id string) (*models.Node, error) {
	node, _, err := s.getOwnedNode(ctx, userID, id)
	return node, err
}

// GetPublicNode retrieves a node of a non-private map.
func (s *Service) GetPublicNode(ctx context.Context, id string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mindMap, err := s.mindMapRepo.GetByID(ctx, node.MindMapID)
	if err != nil {
		return nil, err
	}
	if mindMap.IsPrivate {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrForbidden)
	}

	return node, nil
}

// UpdateNodeRequest carries a partial node update
type UpdateNodeRequest struct {
	Title    *string     `json:"title"`
	Note     *string     `json:"note"`
	ParentID *string     `json:"parent"`
	FlowData models.Blob `json:"flow_data,omitempty"`
}

func (s *Service) validateUpdateNodeRequest(req *UpdateNodeRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(0, config.MaxNodeTitleLength)),
	)
}

// UpdateNode applies a partial update to a node the user owns.
func (s *Service) UpdateNode(ctx context.Context, userID, id string, req *UpdateNodeRequest) (*models.Node, error) {
	if err := s.validateUpdateNodeRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, _, err := s.getOwnedNode(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		node.Title = req.Title
	}
	if req.Note != nil {
		node.Note = *req.Note
	}
	if len(req.FlowData) > 0 {
		node.FlowData = req.FlowData
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			node.ParentID = nil
		} else {
			if *req.ParentID == node.ID {
				return nil, fmt.Errorf("node cannot be its own parent: %w", domain.ErrValidation)
			}
			if err := s.checkParent(ctx, node.MindMapID, *req.ParentID); err != nil {
				return nil, err
			}
			node.ParentID = req.ParentID
		}
	}

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node updated", "id", node.ID, "mind_map_id", node.MindMapID)

	return node, nil
}

// DeleteNode removes a node the user owns; children cascade.
func (s *Service) DeleteNode(ctx context.Context, userID, id string) error {
	if _, _, err := s.getOwnedNode(ctx, userID, id); err != nil {
		return err
	}

	if err := s.nodeRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("node deleted", "id", id)
	return nil
}

// checkParent verifies a parent id resolves to a node of the same map.
func (s *Service) checkParent(ctx context.Context, mindMapID, parentID string) error {
	parent, err := s.nodeRepo.GetByID(ctx, parentID)
	if err != nil {
		return fmt.Errorf("parent node %s: %w", parentID, domain.ErrValidation)
	}
	if parent.MindMapID != mindMapID {
		return fmt.Errorf("parent node %s belongs to a different mind map: %w", parentID, domain.ErrValidation)
	}
	return nil
}

// getOwnedNode fetches a node and enforces ownership via its mind map.
func (s *Service) getOwnedNode(ctx context.Context, userID, id string) (*models.Node, *models.MindMap, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	mindMap, err := s.getOwnedMap(ctx, userID, node.MindMapID)
	if err != nil {
		return nil, nil, err
	}

	return node, mindMap, nil
}

func (s *Service) getOwnedMap(ctx context.Context, userID, mindMapID string) (*models.MindMap, error) {
	mindMap, err := s.mindMapRepo.GetByID(ctx, mindMapID)
	if err != nil {
		return nil, err
	}
	if mindMap.UserID != userID {
		return nil, fmt.Errorf("mind map %s: %w", mindMapID, domain.ErrForbidden)
	}
	return mindMap, nil
}
