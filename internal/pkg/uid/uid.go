package uid

// NumberID generates unique int64 identifiers, typically for database rows.
type NumberID interface {
	// Generate returns a new unique int64 identifier.
	Generate() int64
}

// StringID generates unique string identifiers, typically for opaque tokens
// and request correlation.
type StringID interface {
	// Generate returns a new unique string identifier.
	Generate() string
}
