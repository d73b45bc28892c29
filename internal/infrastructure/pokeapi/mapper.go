package pokeapi

import (
	"github.com/pokefinder/backend/internal/domain"
)

// MapToPokemon converts a catalog pokemon payload to our domain Pokemon
func MapToPokemon(p *PokemonPayload) *domain.Pokemon {
	pokemon := &domain.Pokemon{
		ID:        p.ID,
		Name:      p.Name,
		Height:    p.Height,
		Weight:    p.Weight,
		Stats:     make([]domain.Stat, 0, len(p.Stats)),
		Abilities: make([]domain.Ability, 0, len(p.Abilities)),
		Types:     make([]string, 0, len(p.Types)),
		Sprites:   extractSprites(p.Sprites),
	}

	for _, s := range p.Stats {
		pokemon.Stats = append(pokemon.Stats, domain.Stat{Name: s.Stat.Name, BaseValue: s.BaseStat})
	}
	for _, a := range p.Abilities {
		pokemon.Abilities = append(pokemon.Abilities, domain.Ability{Name: a.Ability.Name, IsHidden: a.IsHidden})
	}
	for _, t := range p.Types {
		pokemon.Types = append(pokemon.Types, t.Type.Name)
	}

	if p.Cries != nil {
		pokemon.CryURL = firstNonEmpty(p.Cries.Latest, p.Cries.Legacy)
	}

	return pokemon
}

// extractSprites prefers official artwork and falls back to the small front sprites
func extractSprites(s SpritesPayload) domain.Sprites {
	return domain.Sprites{
		Default: firstNonEmpty(s.Other.OfficialArtwork.FrontDefault, s.FrontDefault),
		Shiny:   firstNonEmpty(s.Other.OfficialArtwork.FrontShiny, s.FrontShiny),
	}
}

// MapToSpecies converts a catalog species payload to our domain Species
func MapToSpecies(p *SpeciesPayload) *domain.Species {
	species := &domain.Species{
		ID:          p.ID,
		Genera:      make([]domain.LocalizedText, 0, len(p.Genera)),
		FlavorTexts: make([]domain.LocalizedText, 0, len(p.FlavorTextEntries)),
	}

	for _, g := range p.Genera {
		species.Genera = append(species.Genera, domain.LocalizedText{Language: g.Language.Name, Text: g.Genus})
	}
	for _, f := range p.FlavorTextEntries {
		species.FlavorTexts = append(species.FlavorTexts, domain.LocalizedText{Language: f.Language.Name, Text: f.FlavorText})
	}

	return species
}

func firstNonEmpty(candidates ...*string) *string {
	for _, c := range candidates {
		if c != nil && *c != "" {
			v := *c
			return &v
		}
	}
	return nil
}
