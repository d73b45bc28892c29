package domain

import "errors"

var (
	// ErrInvalidQuery is returned when a lookup name is empty after trimming
	ErrInvalidQuery = errors.New("lookup name must not be empty")

	// ErrPokemonNotFound is returned when the catalog has no Pokémon with the given name
	ErrPokemonNotFound = errors.New("pokemon not found in catalog")

	// ErrCatalogUnavailable is returned when a catalog request fails for any reason other than a missing Pokémon
	ErrCatalogUnavailable = errors.New("catalog request failed")

	// ErrMalformedPayload is returned when the catalog answers with a payload we cannot use
	ErrMalformedPayload = errors.New("malformed catalog payload")

	// ErrRateLimited is returned when a client exceeds the inbound request budget
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSessionNotFound is returned when a lookup session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrAggregatorClosed is returned when searching on an aggregator that was closed
	ErrAggregatorClosed = errors.New("aggregator closed")
)

// Classify maps any lookup failure onto the two user-facing failure kinds.
// Only a missing Pokémon is user-correctable; everything else is transient.
func Classify(err error) OutcomeKind {
	if errors.Is(err, ErrPokemonNotFound) {
		return OutcomeNotFound
	}
	return OutcomeTransientError
}
