package mindmap

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notaminda/internal/domain/models"
)

// NodeDescriptor is one entry of a submitted node list. Everything except
// the attributes is optional: a known id means "update", an unknown or
// missing id means "create", and absence from the submission means "delete".
type NodeDescriptor struct {
	ID       *string     `json:"id"`
	Title    *string     `json:"title"`
	ParentID *string     `json:"parent"`
	FlowData models.Blob `json:"flow_data,omitempty"`
}

// parentLink defers a parent assignment to the second phase, after every
// submitted node has an identity.
type parentLink struct {
	node     *models.Node
	parentID string
}

// reconcileNodes diffs a submitted node list against the persisted forest and
// applies creations, attribute updates, parent re-links and deletions. It
// must run inside a transaction context: any persistence failure aborts the
// whole operation with no partial effect.
//
// Parent ids resolve against the union of created and surviving persisted
// nodes. Unresolvable parent ids - including references to nodes the same
// submission deletes - and self references are skipped silently: the node
// stays parentless and the call still succeeds.
func (s *Service) reconcileNodes(ctx context.Context, mindMap *models.MindMap, descriptors []NodeDescriptor) error {
	existing, err := s.nodeRepo.ListByMindMap(ctx, mindMap.ID)
	if err != nil {
		return err
	}

	// unmatched starts as the full persisted set; whatever the submission
	// does not claim gets deleted.
	unmatched := make(map[string]*models.Node, len(existing))
	for i := range existing {
		unmatched[existing[i].ID] = &existing[i]
	}

	var toCreate []*models.Node
	var toUpdate []*models.Node
	var links []parentLink
	now := time.Now()

	for _, desc := range descriptors {
		var node *models.Node

		if desc.ID != nil && unmatched[*desc.ID] != nil {
			node = unmatched[*desc.ID]
			if desc.Title != nil {
				node.Title = desc.Title
			}
			if len(desc.FlowData) > 0 {
				node.FlowData = desc.FlowData
			}
			toUpdate = append(toUpdate, node)
			delete(unmatched, *desc.ID)
		} else {
			// Keep a submitted id so sibling descriptors referencing
			// it as parent still resolve; mint one otherwise.
			id := uuid.NewString()
			if desc.ID != nil && *desc.ID != "" {
				id = *desc.ID
			}
			node = &models.Node{
				ID:        id,
				MindMapID: mindMap.ID,
				Title:     desc.Title,
				FlowData:  desc.FlowData,
				CreatedAt: now,
			}
			toCreate = append(toCreate, node)
		}

		if desc.ParentID != nil && *desc.ParentID != "" {
			links = append(links, parentLink{node: node, parentID: *desc.ParentID})
		}
	}

	if err := s.nodeRepo.BulkCreate(ctx, toCreate); err != nil {
		return err
	}
	if err := s.nodeRepo.BulkUpdateAttrs(ctx, toUpdate); err != nil {
		return err
	}

	// Parent ids resolve against everything that survives this call.
	resolvable := make(map[string]struct{}, len(toCreate)+len(toUpdate))
	for _, node := range toCreate {
		resolvable[node.ID] = struct{}{}
	}
	for _, node := range toUpdate {
		resolvable[node.ID] = struct{}{}
	}

	var parentUpdates []*models.Node
	for _, link := range links {
		if link.parentID == link.node.ID {
			// A node must never parent itself.
			continue
		}
		if _, ok := resolvable[link.parentID]; !ok {
			continue
		}
		parentID := link.parentID
		link.node.ParentID = &parentID
		parentUpdates = append(parentUpdates, link.node)
	}

	if err := s.nodeRepo.BulkUpdateParents(ctx, parentUpdates); err != nil {
		return err
	}

	deleteIDs := make([]string, 0, len(unmatched))
	for id := range unmatched {
		deleteIDs = append(deleteIDs, id)
	}
	if err := s.nodeRepo.DeleteByIDs(ctx, deleteIDs); err != nil {
		return err
	}

	s.logger.Debug("nodes reconciled",
		"mind_map_id", mindMap.ID,
		"created", len(toCreate),
		"updated", len(toUpdate),
		"relinked", len(parentUpdates),
		"deleted", len(deleteIDs),
	)

	return nil
}
