package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"notaminda/internal/capabilities"
	"notaminda/internal/config"
	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/service/layout"
	"notaminda/internal/service/llm"
)

type fakeMindMapRepo struct {
	maps map[string]*models.MindMap
}

func (f *fakeMindMapRepo) Create(ctx context.Context, m *models.MindMap) error { return nil }
func (f *fakeMindMapRepo) Update(ctx context.Context, m *models.MindMap) error { return nil }
func (f *fakeMindMapRepo) Delete(ctx context.Context, id string) error         { return nil }

func (f *fakeMindMapRepo) GetByID(ctx context.Context, id string) (*models.MindMap, error) {
	m, ok := f.maps[id]
	if !ok {
		return nil, fmt.Errorf("mind map %s: %w", id, domain.ErrNotFound)
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMindMapRepo) List(ctx context.Context, userID string) ([]models.MindMap, error) {
	return nil, nil
}

type fakeNodeRepo struct {
	mu    sync.Mutex
	nodes map[string]*models.Node
}

func (f *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNodeRepo) ListByMindMap(ctx context.Context, mindMapID string) ([]models.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []models.Node{}
	for _, n := range f.nodes {
		if n.MindMapID == mindMapID {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (f *fakeNodeRepo) Create(ctx context.Context, n *models.Node) error { return nil }

func (f *fakeNodeRepo) Update(ctx context.Context, n *models.Node) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *n
	f.nodes[n.ID] = &clone
	return nil
}

func (f *fakeNodeRepo) Delete(ctx context.Context, id string) error                     { return nil }
func (f *fakeNodeRepo) BulkCreate(ctx context.Context, nodes []*models.Node) error      { return nil }
func (f *fakeNodeRepo) BulkUpdateAttrs(ctx context.Context, nodes []*models.Node) error { return nil }
func (f *fakeNodeRepo) BulkUpdateParents(ctx context.Context, nodes []*models.Node) error {
	return nil
}
func (f *fakeNodeRepo) DeleteByIDs(ctx context.Context, ids []string) error { return nil }

// fakeClient scripts the LLM capability for both orchestrators.
type fakeClient struct {
	subtopics     []string
	structuredErr error
	tokens        []string
	streamErr     error
	verifyErr     error
}

func (c *fakeClient) StructuredComplete(ctx context.Context, req *llm.StructuredRequest, out interface{}) error {
	if c.structuredErr != nil {
		return c.structuredErr
	}
	payload, _ := json.Marshal(map[string][]string{"subtopics": c.subtopics})
	return json.Unmarshal(payload, out)
}

func (c *fakeClient) StreamComplete(ctx context.Context, messages []llm.Message, onToken func(string)) error {
	for _, token := range c.tokens {
		onToken(token)
	}
	return c.streamErr
}

func (c *fakeClient) VerifyKey(ctx context.Context) error { return c.verifyErr }

type fakeFactory struct {
	client *fakeClient

	lastKey   string
	lastModel string
}

func (f *fakeFactory) NewClient(apiKey, model string) llm.Client {
	f.lastKey = apiKey
	f.lastModel = model
	return f.client
}

func testConfig() *config.Config {
	return &config.Config{
		OpenAIAPIKey:      "sk-default",
		DefaultModel:      "gpt-4o",
		StreamBufferSize:  config.NoteStreamBufferTokens,
		MaxNoteStreams:    2,
		DefaultNoteLength: config.DefaultNoteWordCount,
	}
}

func testRegistry(t *testing.T) *capabilities.Registry {
	t.Helper()
	registry, err := capabilities.NewRegistry()
	if err != nil {
		t.Fatalf("capability registry: %v", err)
	}
	return registry
}

func seedNode(mapRepo *fakeMindMapRepo, nodeRepo *fakeNodeRepo) *models.Node {
	mapRepo.maps = map[string]*models.MindMap{
		"map-1": {ID: "map-1", UserID: "user-1", Title: "Topic", IsPrivate: true},
	}
	flow, _ := json.Marshal(map[string]interface{}{
		"data":     map[string]string{"label": "Compost"},
		"position": map[string]float64{"x": 40, "y": -10},
	})
	node := &models.Node{ID: "node-1", MindMapID: "map-1", FlowData: flow}
	nodeRepo.nodes = map[string]*models.Node{"node-1": node}
	return node
}

func newChildrenService(t *testing.T, factory *fakeFactory) (*ChildrenService, *fakeMindMapRepo, *fakeNodeRepo) {
	mapRepo := &fakeMindMapRepo{}
	nodeRepo := &fakeNodeRepo{}
	svc := NewChildrenService(nodeRepo, mapRepo, factory, testRegistry(t), testConfig(), slog.New(slog.DiscardHandler))
	return svc, mapRepo, nodeRepo
}

func TestGenerateChildren_MergesTitlesAndPositions(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"Soil", "Water", "Light", "Pests"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	children, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "user-1",
		NodeID: "node-1",
	})
	if err != nil {
		t.Fatalf("GenerateChildren: %v", err)
	}

	if len(children) != 4 {
		t.Fatalf("expected 4 children, got %d", len(children))
	}

	// With no existing boxes the circle spread stays untouched; the first
	// child sits one radius to the right of the anchor (40, -10).
	if children[0].X != 190 {
		t.Errorf("first child x = %v, want 190", children[0].X)
	}

	seen := make(map[string]bool)
	for i, child := range children {
		if child.ID == "" {
			t.Errorf("child %d has no id", i)
		}
		if seen[child.ID] {
			t.Errorf("duplicate child id %s", child.ID)
		}
		seen[child.ID] = true
	}

	if children[1].Title != "Water" {
		t.Errorf("titles out of order: %v", children)
	}
}

func TestGenerateChildren_ProviderFailure(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{structuredErr: errors.New("rate limited")}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "user-1",
		NodeID: "node-1",
	})

	var genErr *domain.GenerationFailedError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationFailedError, got %v", err)
	}
	if !errors.Is(err, factory.client.structuredErr) {
		t.Error("provider error not wrapped")
	}
}

func TestGenerateChildren_EmptyResultFails(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "user-1",
		NodeID: "node-1",
	})

	var genErr *domain.GenerationFailedError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationFailedError, got %v", err)
	}
}

func TestGenerateChildren_NoKeyConfigured(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"a", "b", "c"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	svc.cfg.OpenAIAPIKey = ""
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "user-1",
		NodeID: "node-1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation without a key, got %v", err)
	}
}

func TestGenerateChildren_ModelWithoutStructuredOutput(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"a", "b", "c"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID:  "user-1",
		NodeID:  "node-1",
		AIModel: "gpt-3.5-turbo",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for unsupported model, got %v", err)
	}
}

func TestGenerateChildren_CallerOverridesCredentials(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"a", "b", "c"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID:  "user-1",
		NodeID:  "node-1",
		AIKey:   "sk-caller",
		AIModel: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("GenerateChildren: %v", err)
	}

	if factory.lastKey != "sk-caller" || factory.lastModel != "gpt-4o-mini" {
		t.Errorf("credentials not overridden: key=%s model=%s", factory.lastKey, factory.lastModel)
	}
}

func TestGenerateChildren_TitlePositionCountMismatch(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"a", "b", "c", "d"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	// Force the layout engine to drop a box so titles and positions diverge.
	svc.place = func(anchor layout.Position, count int, existing []layout.Box) []layout.Box {
		return make([]layout.Box, count-1)
	}

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "user-1",
		NodeID: "node-1",
	})

	var arityErr *domain.MismatchedArityError
	if !errors.As(err, &arityErr) {
		t.Fatalf("expected MismatchedArityError, got %v", err)
	}
	if arityErr.Titles != 4 || arityErr.Positions != 3 {
		t.Errorf("arity = %d titles / %d positions, want 4 / 3", arityErr.Titles, arityErr.Positions)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Error("arity mismatch should match ErrValidation")
	}
}

func TestGenerateChildren_OwnershipEnforced(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{subtopics: []string{"a", "b", "c"}}}
	svc, mapRepo, nodeRepo := newChildrenService(t, factory)
	seedNode(mapRepo, nodeRepo)

	_, err := svc.GenerateChildren(context.Background(), &GenerateChildrenRequest{
		UserID: "intruder",
		NodeID: "node-1",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestVerifyKey_RejectionMapsToValidation(t *testing.T) {
	factory := &fakeFactory{client: &fakeClient{verifyErr: errors.New("401")}}
	svc, _, _ := newChildrenService(t, factory)

	err := svc.VerifyKey(context.Background(), "sk-bad", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
