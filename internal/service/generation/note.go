package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"notaminda/internal/config"
	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
	"notaminda/internal/notify"
	"notaminda/internal/service/llm"
	"notaminda/internal/worker"
)

// Relay action names. The client subscribes to these per node id.
const (
	actionNotePartial  = "notaminda-node-auto-generate-note"
	actionNoteFinished = "notaminda-node-auto-generate-note-finished"
)

// NoteService streams LLM-generated note content for a node to the socket
// relay. Generation runs in the background; the triggering request returns as
// soon as the stream has been accepted by the worker pool.
type NoteService struct {
	nodeRepo    repositories.NodeRepository
	mindMapRepo repositories.MindMapRepository
	factory     llm.Factory
	sender      notify.Sender
	pool        *worker.Pool
	cfg         *config.Config
	logger      *slog.Logger
}

// NewNoteService creates a new note-streaming service
func NewNoteService(
	nodeRepo repositories.NodeRepository,
	mindMapRepo repositories.MindMapRepository,
	factory llm.Factory,
	sender notify.Sender,
	pool *worker.Pool,
	cfg *config.Config,
	logger *slog.Logger,
) *NoteService {
	return &NoteService{
		nodeRepo:    nodeRepo,
		mindMapRepo: mindMapRepo,
		factory:     factory,
		sender:      sender,
		pool:        pool,
		cfg:         cfg,
		logger:      logger,
	}
}

// StartNoteGenerationRequest carries the inputs for one note stream.
type StartNoteGenerationRequest struct {
	UserID      string
	NodeID      string
	Instruction string
	AIKey       string
	AIModel     string
}

// StartNoteGeneration validates the request synchronously, then hands the
// stream to the background pool. Validation failures surface to the caller;
// everything after acceptance is reported only through relay events.
func (s *NoteService) StartNoteGeneration(ctx context.Context, req *StartNoteGenerationRequest) error {
	if len(req.Instruction) > config.MaxInstructionLength {
		return fmt.Errorf("instruction exceeds %d characters: %w", config.MaxInstructionLength, domain.ErrValidation)
	}

	creds := llm.Resolve(s.cfg.OpenAIAPIKey, s.cfg.DefaultModel, req.AIKey, req.AIModel)
	if creds.APIKey == "" {
		return fmt.Errorf("no AI key configured: %w", domain.ErrValidation)
	}

	node, err := s.getOwnedNode(ctx, req.UserID, req.NodeID)
	if err != nil {
		return err
	}

	// Snapshot the map before handing off so the background stream never
	// touches request-scoped state.
	siblings, err := s.nodeRepo.ListByMindMap(ctx, node.MindMapID)
	if err != nil {
		return err
	}

	messages := buildNoteMessages(node, siblings, req.Instruction, s.cfg.DefaultNoteLength)

	return s.pool.Submit(func(taskCtx context.Context) {
		s.runNoteStream(taskCtx, node, creds, messages)
	})
}

// runNoteStream drives one streaming completion, flushing accumulated text to
// the relay every few tokens. The finished event always goes out, success or
// not, so the client can stop waiting; it is a pure stop signal and always
// reports success.
func (s *NoteService) runNoteStream(ctx context.Context, node *models.Node, creds llm.Credentials, messages []llm.Message) {
	var full strings.Builder
	pending := 0

	defer func() {
		s.sendEvent(ctx, &notify.Event{
			IsSuccess: true,
			Action:    actionNoteFinished,
			DatasetID: node.ID,
		})
	}()

	client := s.factory.NewClient(creds.APIKey, creds.Model)

	err := client.StreamComplete(ctx, messages, func(token string) {
		full.WriteString(token)
		pending++
		if pending >= s.cfg.StreamBufferSize {
			pending = 0
			s.flushPartial(ctx, node.ID, full.String())
		}
	})
	if err != nil {
		s.logger.Error("note stream failed",
			"node_id", node.ID,
			"model", creds.Model,
			"error", err,
		)
		return
	}

	// Flush whatever the buffer still holds, then persist the whole note.
	if pending > 0 {
		s.flushPartial(ctx, node.ID, full.String())
	}

	node.Note = full.String()
	if err := s.nodeRepo.Update(ctx, node); err != nil {
		s.logger.Error("note persistence failed", "node_id", node.ID, "error", err)
		return
	}

	s.logger.Info("note stream completed",
		"node_id", node.ID,
		"model", creds.Model,
		"length", full.Len(),
	)
}

// flushPartial sends one partial-note event. The relay client reads the text
// from data.reply, so the payload is an object, not a bare string.
func (s *NoteService) flushPartial(ctx context.Context, nodeID, text string) {
	s.sendEvent(ctx, &notify.Event{
		IsSuccess: true,
		Action:    actionNotePartial,
		DatasetID: nodeID,
		Data:      map[string]string{"reply": text},
	})
}

// sendEvent posts one relay event, logging and swallowing any failure.
func (s *NoteService) sendEvent(ctx context.Context, event *notify.Event) {
	if err := s.sender.PostEvent(ctx, event); err != nil {
		s.logger.Warn("relay event dropped",
			"action", event.Action,
			"dataset_id", event.DatasetID,
			"error", err,
		)
	}
}

// buildNoteMessages assembles the chat prompt for one note stream. The full
// tree snapshot gives the model context so the note stays scoped to this node.
func buildNoteMessages(node *models.Node, all []models.Node, instruction string, defaultWords int) []llm.Message {
	if instruction == "" {
		instruction = fmt.Sprintf("Explain this subtopic in %d words.", defaultWords)
	}

	snapshot, _ := json.Marshal(mapSnapshot(all, node.ID))

	prompt := fmt.Sprintf(
		"The mind map contains these topics: %s. Write about the topic %q (node %s). %s",
		snapshot,
		node.FlowLabel(),
		node.ID,
		instruction,
	)

	return []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a content generator."},
		{Role: llm.RoleUser, Content: prompt},
	}
}

// getOwnedNode fetches a node and enforces map ownership.
func (s *NoteService) getOwnedNode(ctx context.Context, userID, id string) (*models.Node, error) {
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
