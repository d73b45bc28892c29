// Package pokeapitest provides an in-process fake of the PokeAPI catalog for tests.
package pokeapitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/pokefinder/backend/internal/infrastructure/pokeapi"
)

// Catalog is a fake PokeAPI serving /pokemon/{name} and /pokemon-species/{id}
type Catalog struct {
	*httptest.Server

	mu           sync.Mutex
	pokemon      map[string]*pokeapi.PokemonPayload
	species      map[int]*pokeapi.SpeciesPayload
	speciesFault map[int]int
	gates        map[string]chan struct{}
	requests     []string
}

// NewCatalog starts a fake catalog; it is closed when the test ends
func NewCatalog(t interface {
	Cleanup(func())
}) *Catalog {
	c := &Catalog{
		pokemon:      make(map[string]*pokeapi.PokemonPayload),
		species:      make(map[int]*pokeapi.SpeciesPayload),
		speciesFault: make(map[int]int),
		gates:        make(map[string]chan struct{}),
	}
	c.Server = httptest.NewServer(http.HandlerFunc(c.serve))
	t.Cleanup(c.Server.Close)
	return c
}

// Add registers a Pokémon and its species
func (c *Catalog) Add(p *pokeapi.PokemonPayload, s *pokeapi.SpeciesPayload) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pokemon[p.Name] = p
	if s != nil {
		c.species[s.ID] = s
	}
	return c
}

// FailSpecies makes /pokemon-species/{id} answer with status
func (c *Catalog) FailSpecies(id, status int) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.speciesFault[id] = status
	return c
}

// Hold blocks /pokemon/{name} until the returned release func is called
func (c *Catalog) Hold(name string) (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gates[name] = gate
	c.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Requests returns the request paths seen so far, in order
func (c *Catalog) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.requests))
	copy(out, c.requests)
	return out
}

func (c *Catalog) serve(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests = append(c.requests, r.URL.Path)
	c.mu.Unlock()

	switch {
	case strings.HasPrefix(r.URL.Path, "/pokemon/"):
		name := strings.TrimPrefix(r.URL.Path, "/pokemon/")

		c.mu.Lock()
		gate := c.gates[name]
		c.mu.Unlock()
		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}

		c.mu.Lock()
		p, ok := c.pokemon[name]
		c.mu.Unlock()
		if !ok {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		writeJSON(w, p)

	case strings.HasPrefix(r.URL.Path, "/pokemon-species/"):
		id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/pokemon-species/"))
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}

		c.mu.Lock()
		status, faulty := c.speciesFault[id]
		s, ok := c.species[id]
		c.mu.Unlock()
		if faulty {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if !ok {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		writeJSON(w, s)

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
	}
}

// Pikachu returns the #25 fixture; its English flavor text contains line breaks
func Pikachu() (*pokeapi.PokemonPayload, *pokeapi.SpeciesPayload) {
	return Pokemon(25, "pikachu", []string{"electric"}),
		&pokeapi.SpeciesPayload{
			ID:   25,
			Name: "pikachu",
			Genera: []pokeapi.GenusEntry{
				{Genus: "ねずみポケモン", Language: pokeapi.NamedResource{Name: "ja-Hrkt"}},
				{Genus: "Mouse Pokémon", Language: pokeapi.NamedResource{Name: "en"}},
			},
			FlavorTextEntries: []pokeapi.FlavorTextEntry{
				{FlavorText: "Il stocke l'électricité.", Language: pokeapi.NamedResource{Name: "fr"}},
				{
					FlavorText: "When several of\nthese POKéMON gather, their\felectricity could build and cause lightning storms.",
					Language:   pokeapi.NamedResource{Name: "en"},
					Version:    pokeapi.NamedResource{Name: "red"},
				},
				{FlavorText: "A later English entry.", Language: pokeapi.NamedResource{Name: "en"}},
			},
		}
}

// Mewtwo returns the #150 fixture
func Mewtwo() (*pokeapi.PokemonPayload, *pokeapi.SpeciesPayload) {
	return Pokemon(150, "mewtwo", []string{"psychic"}),
		&pokeapi.SpeciesPayload{
			ID:                150,
			Name:              "mewtwo",
			Genera:            []pokeapi.GenusEntry{{Genus: "Genetic Pokémon", Language: pokeapi.NamedResource{Name: "en"}}},
			FlavorTextEntries: []pokeapi.FlavorTextEntry{{FlavorText: "It was created by\na scientist.", Language: pokeapi.NamedResource{Name: "en"}}},
		}
}

// Pokemon builds a well-formed primary payload with the six base stats
func Pokemon(id int, name string, types []string) *pokeapi.PokemonPayload {
	artwork := fmt.Sprintf("https://img.example/artwork/%d.png", id)
	shiny := fmt.Sprintf("https://img.example/artwork/shiny/%d.png", id)
	cry := fmt.Sprintf("https://cries.example/latest/%d.ogg", id)

	p := &pokeapi.PokemonPayload{
		ID:     id,
		Name:   name,
		Height: 4,
		Weight: 60,
		Stats: []pokeapi.StatEntry{
			{BaseStat: 35, Stat: pokeapi.NamedResource{Name: "hp"}},
			{BaseStat: 55, Stat: pokeapi.NamedResource{Name: "attack"}},
			{BaseStat: 40, Stat: pokeapi.NamedResource{Name: "defense"}},
			{BaseStat: 50, Stat: pokeapi.NamedResource{Name: "special-attack"}},
			{BaseStat: 50, Stat: pokeapi.NamedResource{Name: "special-defense"}},
			{BaseStat: 90, Stat: pokeapi.NamedResource{Name: "speed"}},
		},
		Abilities: []pokeapi.AbilityEntry{
			{Ability: pokeapi.NamedResource{Name: "static"}, Slot: 1},
			{Ability: pokeapi.NamedResource{Name: "lightning-rod"}, IsHidden: true, Slot: 3},
		},
		Types: make([]pokeapi.TypeEntry, 0, len(types)),
		Sprites: pokeapi.SpritesPayload{
			Other: pokeapi.OtherSprites{
				OfficialArtwork: pokeapi.ArtworkSprites{FrontDefault: &artwork, FrontShiny: &shiny},
			},
		},
		Cries: &pokeapi.CriesPayload{Latest: &cry},
	}
	for i, t := range types {
		p.Types = append(p.Types, pokeapi.TypeEntry{Slot: i + 1, Type: pokeapi.NamedResource{Name: t}})
	}
	return p
}

// NewClient returns a catalog client pointed at c with a generous rate limit
func (c *Catalog) NewClient() *pokeapi.Client {
	return pokeapi.NewClient(pokeapi.ClientConfig{
		BaseURL:           c.URL,
		RequestsPerMinute: 60000,
		Burst:             1000,
	}, nil)
}
