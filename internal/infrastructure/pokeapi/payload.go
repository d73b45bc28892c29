package pokeapi

// NamedResource is the catalog's {name, url} reference object
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// PokemonPayload is the subset of GET /pokemon/{name} we read
type PokemonPayload struct {
	ID        int            `json:"id"`
	Name      string         `json:"name"`
	Height    int            `json:"height"`
	Weight    int            `json:"weight"`
	Stats     []StatEntry    `json:"stats"`
	Abilities []AbilityEntry `json:"abilities"`
	Types     []TypeEntry    `json:"types"`
	Sprites   SpritesPayload `json:"sprites"`
	Cries     *CriesPayload  `json:"cries,omitempty"`
}

// StatEntry is one element of PokemonPayload.Stats
type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// AbilityEntry is one element of PokemonPayload.Abilities
type AbilityEntry struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// TypeEntry is one element of PokemonPayload.Types
type TypeEntry struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// SpritesPayload holds the small sprites and the nested artwork variants
type SpritesPayload struct {
	FrontDefault *string      `json:"front_default"`
	FrontShiny   *string      `json:"front_shiny"`
	Other        OtherSprites `json:"other"`
}

// OtherSprites groups the alternative sprite sets
type OtherSprites struct {
	OfficialArtwork ArtworkSprites `json:"official-artwork"`
}

// ArtworkSprites is the official artwork sprite set
type ArtworkSprites struct {
	FrontDefault *string `json:"front_default"`
	FrontShiny   *string `json:"front_shiny"`
}

// CriesPayload holds the cry audio URLs
type CriesPayload struct {
	Latest *string `json:"latest"`
	Legacy *string `json:"legacy"`
}

// SpeciesPayload is the subset of GET /pokemon-species/{id} we read
type SpeciesPayload struct {
	ID                int               `json:"id"`
	Name              string            `json:"name"`
	Genera            []GenusEntry      `json:"genera"`
	FlavorTextEntries []FlavorTextEntry `json:"flavor_text_entries"`
}

// GenusEntry is a localized category label
type GenusEntry struct {
	Genus    string        `json:"genus"`
	Language NamedResource `json:"language"`
}

// FlavorTextEntry is a localized Pokédex description for one game version
type FlavorTextEntry struct {
	FlavorText string        `json:"flavor_text"`
	Language   NamedResource `json:"language"`
	Version    NamedResource `json:"version"`
}
