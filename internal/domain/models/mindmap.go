package models

import (
	"time"
)

// MindMap is a user-owned forest of nodes plus display metadata.
// Exactly one node in the forest has a null parent (the root).
type MindMap struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	IsPrivate bool      `json:"is_private" db:"is_private"`
	FlowData  Blob      `json:"flow_data,omitempty" db:"flow_data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Nodes is populated by read paths that return the full forest.
	Nodes []Node `json:"nodes,omitempty" db:"-"`
}
