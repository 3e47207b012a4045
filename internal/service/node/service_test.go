package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
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
	nodes map[string]*models.Node
}

func (f *fakeNodeRepo) GetByID(ctx context.Context, id string) (*models.Node, error) {
	n, ok := f.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	clone := *n
	return &clone, nil
}

func (f *fakeNodeRepo) ListByMindMap(ctx context.Context, mindMapID string) ([]models.Node, error) {
	return nil, nil
}

func (f *fakeNodeRepo) Create(ctx context.Context, n *models.Node) error {
	clone := *n
	f.nodes[n.ID] = &clone
	return nil
}

func (f *fakeNodeRepo) Update(ctx context.Context, n *models.Node) error {
	if _, ok := f.nodes[n.ID]; !ok {
		return fmt.Errorf("node %s: %w", n.ID, domain.ErrNotFound)
	}
	clone := *n
	f.nodes[n.ID] = &clone
	return nil
}

func (f *fakeNodeRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.nodes[id]; !ok {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	delete(f.nodes, id)
	return nil
}

func (f *fakeNodeRepo) BulkCreate(ctx context.Context, nodes []*models.Node) error      { return nil }
func (f *fakeNodeRepo) BulkUpdateAttrs(ctx context.Context, nodes []*models.Node) error { return nil }
func (f *fakeNodeRepo) BulkUpdateParents(ctx context.Context, nodes []*models.Node) error {
	return nil
}
func (f *fakeNodeRepo) DeleteByIDs(ctx context.Context, ids []string) error { return nil }

func strPtr(s string) *string { return &s }

func newTestService() (*Service, *fakeMindMapRepo, *fakeNodeRepo) {
	mapRepo := &fakeMindMapRepo{maps: map[string]*models.MindMap{
		"map-1": {ID: "map-1", UserID: "user-1", IsPrivate: true},
		"map-2": {ID: "map-2", UserID: "user-2", IsPrivate: false},
	}}
	nodeRepo := &fakeNodeRepo{nodes: map[string]*models.Node{
		"n1": {ID: "n1", MindMapID: "map-1"},
		"n2": {ID: "n2", MindMapID: "map-2"},
	}}
	return NewService(nodeRepo, mapRepo, slog.New(slog.DiscardHandler)), mapRepo, nodeRepo
}

func TestCreateNode_WithValidParent(t *testing.T) {
	svc, _, nodeRepo := newTestService()

	created, err := svc.CreateNode(context.Background(), &CreateNodeRequest{
		UserID:    "user-1",
		MindMapID: "map-1",
		Title:     strPtr("child"),
		ParentID:  strPtr("n1"),
	})
	if err != nil {
		t.Fatalf("CreateNode: %v", err)
	}

	if created.ID == "" {
		t.Error("created node has no id")
	}
	if created.ParentID == nil || *created.ParentID != "n1" {
		t.Errorf("parent = %v, want n1", created.ParentID)
	}
	if _, ok := nodeRepo.nodes[created.ID]; !ok {
		t.Error("node not persisted")
	}
}

func TestCreateNode_ParentFromAnotherMapRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateNode(context.Background(), &CreateNodeRequest{
		UserID:    "user-1",
		MindMapID: "map-1",
		ParentID:  strPtr("n2"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateNode_ForeignMapForbidden(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateNode(context.Background(), &CreateNodeRequest{
		UserID:    "user-1",
		MindMapID: "map-2",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateNode_SetsNoteAndClearsParent(t *testing.T) {
	svc, _, nodeRepo := newTestService()
	nodeRepo.nodes["n1"].ParentID = strPtr("other")

	updated, err := svc.UpdateNode(context.Background(), "user-1", "n1", &UpdateNodeRequest{
		Note:     strPtr("some note"),
		ParentID: strPtr(""),
	})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}

	if updated.Note != "some note" {
		t.Errorf("note = %q", updated.Note)
	}
	if updated.ParentID != nil {
		t.Errorf("parent not cleared: %v", *updated.ParentID)
	}
}

func TestUpdateNode_SelfParentRejected(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.UpdateNode(context.Background(), "user-1", "n1", &UpdateNodeRequest{
		ParentID: strPtr("n1"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGetPublicNode_PrivateMapForbidden(t *testing.T) {
	svc, _, _ := newTestService()

	if _, err := svc.GetPublicNode(context.Background(), "n1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if _, err := svc.GetPublicNode(context.Background(), "n2"); err != nil {
		t.Fatalf("public node on public map: %v", err)
	}
}

func TestDeleteNode_OwnershipEnforced(t *testing.T) {
	svc, _, nodeRepo := newTestService()

	if err := svc.DeleteNode(context.Background(), "user-2", "n1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.DeleteNode(context.Background(), "user-1", "n1"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}
	if _, ok := nodeRepo.nodes["n1"]; ok {
		t.Error("node still present after delete")
	}
}
