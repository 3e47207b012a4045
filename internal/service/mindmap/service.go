// Package mindmap implements mind map lifecycle operations and the node-tree
// reconciler.
package mindmap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"notaminda/internal/config"
	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
)

// mindMapIDLength matches the legacy 20-character primary key width.
const mindMapIDLength = 20

// Service implements mind map operations
type Service struct {
	mindMapRepo repositories.MindMapRepository
	nodeRepo    repositories.NodeRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewService creates a new mind map service
func NewService(
	mindMapRepo repositories.MindMapRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) *Service {
	return &Service{
		mindMapRepo: mindMapRepo,
		nodeRepo:    nodeRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateMindMapRequest carries the fields for creating a mind map
type CreateMindMapRequest struct {
	UserID string `json:"-"`
	Title  string `json:"title"`
}

func (s *Service) validateCreateMindMapRequest(req *CreateMindMapRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Title,
			validation.Required,
			validation.Length(1, config.MaxMindMapTitleLength),
		),
	)
}

// CreateMindMap creates a mind map together with its root node. The root
// node's flow data derives from the map title and anchors the canvas at the
// origin.
func (s *Service) CreateMindMap(ctx context.Context, req *CreateMindMapRequest) (*models.MindMap, error) {
	if err := s.validateCreateMindMapRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	id, err := gonanoid.New(mindMapIDLength)
	if err != nil {
		return nil, fmt.Errorf("generate mind map id: %w", err)
	}

	mindMap := &models.MindMap{
		ID:        id,
		UserID:    req.UserID,
		Title:     req.Title,
		IsPrivate: true,
		CreatedAt: time.Now(),
	}

	root := &models.Node{
		ID:        uuid.NewString(),
		MindMapID: mindMap.ID,
		Title:     &mindMap.Title,
		FlowData:  rootFlowData(mindMap.Title),
		CreatedAt: time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.mindMapRepo.Create(txCtx, mindMap); err != nil {
			return err
		}
		return s.nodeRepo.Create(txCtx, root)
	})
	if err != nil {
		return nil, err
	}

	mindMap.Nodes = []models.Node{*root}

	s.logger.Info("mind map created",
		"id", mindMap.ID,
		"user_id", mindMap.UserID,
		"root_node_id", root.ID,
	)

	return mindMap, nil
}

// rootFlowData builds the canvas blob for a freshly created root node.
func rootFlowData(title string) models.Blob {
	payload := map[string]interface{}{
		"id":   "root",
		"type": "mindmap",
		"data": map[string]string{
			"label": title,
		},
		"position": map[string]float64{
			"x": 0,
			"y": 0,
		},
		"dragHandle": ".dragHandle",
	}
	data, _ := json.Marshal(payload)
	return data
}

// GetMindMap retrieves a mind map with its full node forest.
// Only the owner may read it.
func (s *Service) GetMindMap(ctx context.Context, userID, id string) (*models.MindMap, error) {
	mindMap, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByMindMap(ctx, id)
	if err != nil {
		return nil, err
	}
	mindMap.Nodes = nodes

	return mindMap, nil
}

// GetPublicMindMap retrieves a non-private mind map without ownership checks.
func (s *Service) GetPublicMindMap(ctx context.Context, id string) (*models.MindMap, error) {
	mindMap, err := s.mindMapRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mindMap.IsPrivate {
		return nil, fmt.Errorf("mind map %s is private: %w", id, domain.ErrForbidden)
	}

	nodes, err := s.nodeRepo.ListByMindMap(ctx, id)
	if err != nil {
		return nil, err
	}
	mindMap.Nodes = nodes

	return mindMap, nil
}

// ListMindMaps returns all mind maps owned by the user, without nodes.
func (s *Service) ListMindMaps(ctx context.Context, userID string) ([]models.MindMap, error) {
	return s.mindMapRepo.List(ctx, userID)
}

// UpdateMindMapRequest carries a partial update. Nodes, when non-nil, is a
// full submission reconciled against persisted state; nil means "leave the
// forest alone".
type UpdateMindMapRequest struct {
	Title     *string          `json:"title"`
	IsPrivate *bool            `json:"is_private"`
	FlowData  models.Blob      `json:"flow_data,omitempty"`
	Nodes     []NodeDescriptor `json:"nodes"`
}

func (s *Service) validateUpdateMindMapRequest(req *UpdateMindMapRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxMindMapTitleLength),
		),
	)
}

// UpdateMindMap applies title/privacy/flow-data changes and, when a node list
// is submitted, reconciles the forest - all inside one transaction.
func (s *Service) UpdateMindMap(ctx context.Context, userID, id string, req *UpdateMindMapRequest) (*models.MindMap, error) {
	if err := s.validateUpdateMindMapRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	mindMap, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		mindMap.Title = *req.Title
	}
	if req.IsPrivate != nil {
		mindMap.IsPrivate = *req.IsPrivate
	}
	if len(req.FlowData) > 0 {
		mindMap.FlowData = req.FlowData
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.mindMapRepo.Update(txCtx, mindMap); err != nil {
			return err
		}
		if req.Nodes != nil {
			return s.reconcileNodes(txCtx, mindMap, req.Nodes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByMindMap(ctx, id)
	if err != nil {
		return nil, err
	}
	mindMap.Nodes = nodes

	s.logger.Info("mind map updated",
		"id", mindMap.ID,
		"nodes_submitted", len(req.Nodes),
	)

	return mindMap, nil
}

// DeleteMindMap removes a mind map and, by cascade, its nodes.
func (s *Service) DeleteMindMap(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}

	if err := s.mindMapRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("mind map deleted", "id", id, "user_id", userID)
	return nil
}

// getOwned fetches a mind map and enforces ownership.
func (s *Service) getOwned(ctx context.Context, userID, id string) (*models.MindMap, error) {
	mindMap, err := s.mindMapRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if mindMap.UserID != userID {
		return nil, fmt.Errorf("mind map %s: %w", id, domain.ErrForbidden)
	}
	return mindMap, nil
}
