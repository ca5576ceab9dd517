package nest

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// ID identifies a Frame or Scope for the lifetime of a process. Seq is a
// monotonically increasing, allocation-order counter useful for stable
// sorting and log correlation; UUID gives a globally unique identifier
// safe to export to external systems (metrics labels, trace spans).
//
// This mirrors the Design Notes' "generational id into an arena" idea:
// Seq plays the role of the generation counter, while the runtime itself
// is the arena (every live Frame/Scope is reachable only through its
// parent's children slice, never through a raw index).
type ID struct {
	Seq  uint64
	UUID uuid.UUID
}

var idSeq atomic.Uint64

func newID() ID {
	return ID{Seq: idSeq.Add(1), UUID: uuid.New()}
}

func (id ID) String() string {
	return id.UUID.String()
}
