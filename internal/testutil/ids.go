package testutil

// DefaultSessionID is returned by a FixedIDGenerator built with an empty id.
const DefaultSessionID = "test-session-default"

// FixedIDGenerator returns the same binding session id on every call, so
// results of repeated runs compare equal.
//
// It satisfies binder.IDGenerator. Stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id, or for DefaultSessionID
// when id is empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = DefaultSessionID
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
