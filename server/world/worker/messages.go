package worker

import "github.com/google/uuid"

// The typed request/response pairs exchanged between the world and its
// workers. The Pool itself is payload-agnostic; these types are the stable
// schema, versioned if ever evolved. Requests carry the minimum
// moved-in inputs and responses move their output arrays back; neither side
// retains a reference after the hand-off.

// GenerationRequest asks a worker to generate one chunk column.
type GenerationRequest struct {
	ID     uuid.UUID
	Seed   int64
	CX, CZ int64
}

// GenerationResult returns a generated column's raw arrays, one entry per
// sub-chunk bottom-up.
type GenerationResult struct {
	ID     uuid.UUID
	CX, CZ int64
	Blocks [][]uint16
	Light  [][]uint8
}

// MeshRequest asks a worker to mesh one sub-chunk from a snapshot of its
// block and light arrays. It has no fields for the six neighbour boundary
// slabs.
type MeshRequest struct {
	ID      uuid.UUID
	CX, CZ  int64
	Sub     int
	Blocks  []uint16
	Light   []uint8
	Version uint64
}

// RelightRequest asks a worker to recompute a whole column's light from a
// snapshot of its block data (the background correctness pass).
type RelightRequest struct {
	ID      uuid.UUID
	CX, CZ  int64
	Blocks  [][]uint16
	Version uint64
}

// PathRequest asks a worker for a path between two world positions. The
// world subsystem only defines the message shape; consumers are external.
type PathRequest struct {
	ID         uuid.UUID
	From, To   [3]int64
	MaxVisited int
}

// PathResult returns the found path as world positions, empty when no path
// exists within the visit budget.
type PathResult struct {
	ID   uuid.UUID
	Path [][3]int64
}
