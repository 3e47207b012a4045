package models

import (
	"encoding/json"
	"time"
)

// Node is a single topic unit in a mind map. ParentID, when set, references a
// node in the same map and never the node itself. Note content lives inline on
// the node.
type Node struct {
	ID        string    `json:"id" db:"id"`
	MindMapID string    `json:"mind_map" db:"mind_map_id"`
	Title     *string   `json:"title" db:"title"`
	Note      string    `json:"note" db:"note"`
	ParentID  *string   `json:"parent" db:"parent_id"`
	FlowData  Blob      `json:"flow_data,omitempty" db:"flow_data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// flowEnvelope mirrors the only flow-data fragments the engine reads.
type flowEnvelope struct {
	Data struct {
		Label string `json:"label"`
	} `json:"data"`
	Position *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	} `json:"position"`
}

// FlowLabel returns the display label embedded in the node's flow data,
// falling back to the title when the blob is absent or carries no label.
func (n *Node) FlowLabel() string {
	if len(n.FlowData) > 0 {
		var env flowEnvelope
		if err := json.Unmarshal(n.FlowData, &env); err == nil && env.Data.Label != "" {
			return env.Data.Label
		}
	}
	if n.Title != nil {
		return *n.Title
	}
	return ""
}

// FlowPosition extracts the canvas position from the node's flow data.
// ok is false when the blob is absent, malformed, or has no position.
func (n *Node) FlowPosition() (x, y float64, ok bool) {
	if len(n.FlowData) == 0 {
		return 0, 0, false
	}
	var env flowEnvelope
	if err := json.Unmarshal(n.FlowData, &env); err != nil || env.Position == nil {
		return 0, 0, false
	}
	return env.Position.X, env.Position.Y, true
}
