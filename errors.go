package firesnapshot

import "errors"

var (
	// ErrNotExist is returned when a raw document is missing or cannot be decoded.
	ErrNotExist = errors.New("firesnapshot: document does not exist")

	// ErrUnknownField is recorded when a query clause names a field the data type does not map.
	ErrUnknownField = errors.New("firesnapshot: field name not found")

	// ErrNotReplicable is returned when data holds a value Codec.Copy cannot reproduce.
	ErrNotReplicable = errors.New("firesnapshot: value cannot be replicated")

	// ErrNoResolver is returned when an operation needs to resolve a path but the codec has no Resolver.
	ErrNoResolver = errors.New("firesnapshot: codec has no resolver")
)
