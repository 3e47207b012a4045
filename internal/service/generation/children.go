// Package generation orchestrates the LLM-backed expansion features:
// synchronous child-subtopic generation and background note streaming.
package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"notaminda/internal/capabilities"
	"notaminda/internal/config"
	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
	"notaminda/internal/service/layout"
	"notaminda/internal/service/llm"
)

// GeneratedChild is one proposed subtopic with its canvas placement.
type GeneratedChild struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// ChildrenService generates subtopic children for a node in one structured
// completion and places them with the layout engine.
type ChildrenService struct {
	nodeRepo    repositories.NodeRepository
	mindMapRepo repositories.MindMapRepository
	factory     llm.Factory
	registry    *capabilities.Registry
	cfg         *config.Config
	logger      *slog.Logger

	// place is the layout engine entry point, swappable in tests.
	place func(layout.Position, int, []layout.Box) []layout.Box
}

// NewChildrenService creates a new child-generation service
func NewChildrenService(
	nodeRepo repositories.NodeRepository,
	mindMapRepo repositories.MindMapRepository,
	factory llm.Factory,
	registry *capabilities.Registry,
	cfg *config.Config,
	logger *slog.Logger,
) *ChildrenService {
	return &ChildrenService{
		nodeRepo:    nodeRepo,
		mindMapRepo: mindMapRepo,
		factory:     factory,
		registry:    registry,
		cfg:         cfg,
		logger:      logger,
		place:       layout.PlaceNewNodes,
	}
}

// GenerateChildrenRequest carries the inputs for one expansion call.
// NodeBoxes is the client's snapshot of rendered boxes for nodes already on
// the canvas; the layout engine avoids them when placing the new children.
type GenerateChildrenRequest struct {
	UserID    string
	NodeID    string
	NodeBoxes []layout.Box
	AIKey     string
	AIModel   string
}

// subtopicsPayload is the shape the structured completion must produce.
type subtopicsPayload struct {
	Subtopics []string `json:"subtopics"`
}

// GenerateChildren asks the model for sibling subtopic titles, lays them out
// around the anchor node and returns the merged result. Nothing is persisted;
// the client submits the accepted children through the node-list update.
func (s *ChildrenService) GenerateChildren(ctx context.Context, req *GenerateChildrenRequest) ([]GeneratedChild, error) {
	creds := llm.Resolve(s.cfg.OpenAIAPIKey, s.cfg.DefaultModel, req.AIKey, req.AIModel)
	if creds.APIKey == "" {
		return nil, fmt.Errorf("no AI key configured: %w", domain.ErrValidation)
	}
	if caps := s.registry.GetModelCapabilities("openai", creds.Model); caps != nil && !caps.SupportsStructuredOutput {
		return nil, fmt.Errorf("model %s does not support structured output: %w", creds.Model, domain.ErrValidation)
	}

	node, err := s.getOwnedNode(ctx, req.UserID, req.NodeID)
	if err != nil {
		return nil, err
	}

	siblings, err := s.nodeRepo.ListByMindMap(ctx, node.MindMapID)
	if err != nil {
		return nil, err
	}

	prompt, err := buildSubtopicPrompt(node, siblings)
	if err != nil {
		return nil, err
	}

	client := s.factory.NewClient(creds.APIKey, creds.Model)

	var payload subtopicsPayload
	err = client.StructuredComplete(ctx, &llm.StructuredRequest{
		System:     "You are a brainstorming assistant for mind maps.",
		Prompt:     prompt,
		SchemaName: "subtopics",
		Schema:     subtopicsSchema(),
	}, &payload)
	if err != nil {
		s.logger.Error("child generation failed",
			"node_id", req.NodeID,
			"model", creds.Model,
			"error", err,
		)
		return nil, &domain.GenerationFailedError{Message: "subtopic generation failed", Err: err}
	}

	if len(payload.Subtopics) == 0 {
		return nil, &domain.GenerationFailedError{Message: "model returned no subtopics"}
	}

	anchor := layout.Position{}
	if x, y, ok := node.FlowPosition(); ok {
		anchor = layout.Position{X: x, Y: y}
	}

	boxes := s.place(anchor, len(payload.Subtopics), req.NodeBoxes)
	if len(boxes) != len(payload.Subtopics) {
		return nil, &domain.MismatchedArityError{
			Titles:    len(payload.Subtopics),
			Positions: len(boxes),
		}
	}

	children := make([]GeneratedChild, len(payload.Subtopics))
	for i, title := range payload.Subtopics {
		children[i] = GeneratedChild{
			ID:    uuid.NewString(),
			Title: title,
			X:     boxes[i].Position.X,
			Y:     boxes[i].Position.Y,
		}
	}

	s.logger.Info("children generated",
		"node_id", req.NodeID,
		"model", creds.Model,
		"count", len(children),
	)

	return children, nil
}

// VerifyKey checks caller-supplied credentials with a cheap provider call.
func (s *ChildrenService) VerifyKey(ctx context.Context, apiKey, model string) error {
	creds := llm.Resolve(s.cfg.OpenAIAPIKey, s.cfg.DefaultModel, apiKey, model)
	if creds.APIKey == "" {
		return fmt.Errorf("no AI key provided: %w", domain.ErrValidation)
	}

	client := s.factory.NewClient(creds.APIKey, creds.Model)
	if err := client.VerifyKey(ctx); err != nil {
		return fmt.Errorf("AI key rejected: %w", domain.ErrValidation)
	}
	return nil
}

// topicEntry is one row of the tree snapshot fed into generation prompts.
type topicEntry struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Parent *string `json:"parent,omitempty"`
}

// mapSnapshot flattens the persisted forest into prompt-sized entries,
// dropping the excluded node and anything without a display label.
func mapSnapshot(all []models.Node, excludeID string) []topicEntry {
	entries := make([]topicEntry, 0, len(all))
	for i := range all {
		if all[i].ID == excludeID {
			continue
		}
		label := all[i].FlowLabel()
		if label == "" {
			continue
		}
		entries = append(entries, topicEntry{
			ID:     all[i].ID,
			Label:  label,
			Parent: all[i].ParentID,
		})
	}
	return entries
}

// buildSubtopicPrompt renders the anchor topic and a snapshot of the existing
// tree so the model avoids duplicating what is already on the map.
func buildSubtopicPrompt(node *models.Node, all []models.Node) (string, error) {
	existing, err := json.Marshal(mapSnapshot(all, node.ID))
	if err != nil {
		return "", fmt.Errorf("encode tree snapshot: %w", err)
	}

	return fmt.Sprintf(
		"Generate between %d and %d distinct subtopics for the topic %q. "+
			"Pick however many fit the topic best. The mind map already contains "+
			"these topics (with parent links): %s. Do not repeat any of them.",
		config.MinGeneratedChildren,
		config.MaxGeneratedChildren,
		node.FlowLabel(),
		existing,
	), nil
}

// subtopicsSchema is the strict JSON schema constraining the completion.
func subtopicsSchema() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"type": "object",
		"properties": {
			"subtopics": {
				"type": "array",
				"items": {"type": "string"},
				"minItems": %d,
				"maxItems": %d
			}
		},
		"required": ["subtopics"],
		"additionalProperties": false
	}`, config.MinGeneratedChildren, config.MaxGeneratedChildren))
}

// getOwnedNode fetches a node and enforces map ownership.
func (s *ChildrenService) getOwnedNode(ctx context.Context, userID, id string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	mindMap, err := s.mindMapRepo.GetByID(ctx, node.MindMapID)
	if err != nil {
		return nil, err
	}
	if mindMap.UserID != userID {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrForbidden)
	}

	return node, nil
}
