package domain

import (
	"strings"
)

// LookupQuery is a validated, trimmed Pokémon name
type LookupQuery struct {
	name string
}

// NewLookupQuery trims raw input and rejects blank names
func NewLookupQuery(raw string) (LookupQuery, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return LookupQuery{}, ErrInvalidQuery
	}
	return LookupQuery{name: name}, nil
}

// Name returns the trimmed name as the user typed it
func (q LookupQuery) Name() string {
	return q.name
}

// Key returns the lower-cased name sent to the catalog
func (q LookupQuery) Key() string {
	return strings.ToLower(q.name)
}

// IsZero reports whether the query was never constructed through NewLookupQuery
func (q LookupQuery) IsZero() bool {
	return q.name == ""
}

// Pokemon is the primary catalog record for a single Pokémon
type Pokemon struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Stats     []Stat    `json:"stats"`
	Abilities []Ability `json:"abilities"`
	Types     []string  `json:"types"`
	Height    int       `json:"height"` // decimetres
	Weight    int       `json:"weight"` // hectograms
	Sprites   Sprites   `json:"sprites"`
	CryURL    *string   `json:"cryUrl,omitempty"`
}

// Stat is a base stat keyed by the catalog's stat name (e.g. "special-attack")
type Stat struct {
	Name      string `json:"name"`
	BaseValue int    `json:"baseValue"`
}

// Ability is one of the Pokémon's abilities
type Ability struct {
	Name     string `json:"name"`
	IsHidden bool   `json:"isHidden"`
}

// Sprites holds the official artwork URLs; either may be missing
type Sprites struct {
	Default *string `json:"default,omitempty"`
	Shiny   *string `json:"shiny,omitempty"`
}

// Species is the secondary catalog record carrying localized text
type Species struct {
	ID          int             `json:"id"`
	Genera      []LocalizedText `json:"genera"`
	FlavorTexts []LocalizedText `json:"flavorTexts"`
}

// LocalizedText is a text entry tagged with a language code
type LocalizedText struct {
	Language string `json:"language"`
	Text     string `json:"text"`
}

// ResolvedPokemon is the composite record produced by a successful lookup
type ResolvedPokemon struct {
	Pokemon
	Category    string `json:"category"`
	Description string `json:"description"`
}
