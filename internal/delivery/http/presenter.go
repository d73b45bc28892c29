package http

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pokefinder/backend/internal/domain"
)

// User-facing failure messages. Raw catalog errors never leave the server.
const (
	MessageNotFound       = "Pokémon not found"
	MessageTransientError = "The Pokédex is unavailable right now, please try again"
)

var statLabels = map[string]string{
	"hp":              "HP",
	"attack":          "ATK",
	"defense":         "DEF",
	"special-attack":  "SPA",
	"special-defense": "SPD",
	"speed":           "SPE",
}

// StatView is one row of the base stats table
type StatView struct {
	Label string `json:"label"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// AbilityView is a display-ready ability
type AbilityView struct {
	Label  string `json:"label"`
	Hidden bool   `json:"hidden"`
}

// PokemonCard is the display model of a found Pokémon
type PokemonCard struct {
	ID          int           `json:"id"`
	Number      string        `json:"number"`
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Description string        `json:"description"`
	Types       []string      `json:"types"`
	HeightM     float64       `json:"heightM"`
	WeightKg    float64       `json:"weightKg"`
	Stats       []StatView    `json:"stats"`
	Abilities   []AbilityView `json:"abilities"`
	Sprite      *string       `json:"sprite,omitempty"`
	Shiny       bool          `json:"shiny"`
	CryURL      *string       `json:"cryUrl,omitempty"`
}

// OutcomeView is the JSON shape of the current-outcome slot
type OutcomeView struct {
	Seq       uint64       `json:"seq"`
	State     domain.State `json:"state"`
	Query     string       `json:"query,omitempty"`
	Pokemon   *PokemonCard `json:"pokemon,omitempty"`
	Message   string       `json:"message,omitempty"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// NewOutcomeView renders a slot value; shiny selects the sprite of a found Pokémon
func NewOutcomeView(snap domain.Snapshot, shiny bool) OutcomeView {
	view := OutcomeView{
		Seq:       snap.Seq,
		State:     snap.State,
		Query:     snap.Query,
		UpdatedAt: snap.UpdatedAt,
	}

	switch snap.State {
	case domain.StateFound, domain.StateQuerying:
		// while querying, the previous Pokémon (if any) stays on screen
		view.Pokemon = NewPokemonCard(snap.Pokemon, shiny)
	case domain.StateNotFound:
		view.Message = MessageNotFound
	case domain.StateTransientError:
		view.Message = MessageTransientError
	}

	return view
}

// NewPokemonCard converts a resolved Pokémon into its display model
func NewPokemonCard(p *domain.ResolvedPokemon, shiny bool) *PokemonCard {
	if p == nil {
		return nil
	}

	card := &PokemonCard{
		ID:          p.ID,
		Number:      fmt.Sprintf("#%04d", p.ID),
		Name:        capitalize(p.Name),
		Category:    p.Category,
		Description: p.Description,
		Types:       make([]string, 0, len(p.Types)),
		HeightM:     float64(p.Height) / 10,
		WeightKg:    float64(p.Weight) / 10,
		Stats:       make([]StatView, 0, len(p.Stats)),
		Abilities:   make([]AbilityView, 0, len(p.Abilities)),
		Sprite:      p.Sprites.Default,
		CryURL:      p.CryURL,
	}

	if shiny && p.Sprites.Shiny != nil {
		card.Sprite = p.Sprites.Shiny
		card.Shiny = true
	}

	for _, t := range p.Types {
		card.Types = append(card.Types, capitalize(t))
	}
	for _, s := range p.Stats {
		card.Stats = append(card.Stats, StatView{
			Label: statLabel(s.Name),
			Name:  s.Name,
			Value: s.BaseValue,
		})
	}
	for _, a := range p.Abilities {
		card.Abilities = append(card.Abilities, AbilityView{
			Label:  capitalize(strings.Replace(a.Name, "-", " ", 1)),
			Hidden: a.IsHidden,
		})
	}

	return card
}

func statLabel(name string) string {
	if label, ok := statLabels[name]; ok {
		return label
	}
	return strings.ToUpper(name)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
