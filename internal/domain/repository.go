package domain

import (
	"context"
)

// CatalogClient defines the interface for reading from the remote Pokémon catalog
type CatalogClient interface {
	FetchPokemon(ctx context.Context, name string) (*Pokemon, error)
	FetchSpecies(ctx context.Context, id int) (*Species, error)
}
