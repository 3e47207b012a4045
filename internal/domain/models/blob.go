package models

import "encoding/json"

// Blob is an opaque JSON document attached to a mind map or node (canvas
// positions, rendering hints). It is decoded once at the HTTP boundary and
// re-encoded once when persisted; core logic never interprets fields it does
// not own.
type Blob = json.RawMessage
