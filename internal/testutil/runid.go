package testutil

// FixedRunID generates the same run id every time.
//
// Golden reports embed the run id, so a scenario run with FixedRunID
// produces byte-identical output on every run.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// DefaultRunID is used when NewFixedRunID is given an empty id.
const DefaultRunID = "run-00000000-0000-0000-0000-000000000001"

// NewFixedRunID creates a generator that always returns id.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed id. Implements ids.Generator.
func (g *FixedRunID) Generate() string {
	return g.id
}
