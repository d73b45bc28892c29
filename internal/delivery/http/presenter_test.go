package http

import (
	"testing"
	"time"

	"github.com/pokefinder/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func pikachuRecord() *domain.ResolvedPokemon {
	return &domain.ResolvedPokemon{
		Pokemon: domain.Pokemon{
			ID:   25,
			Name: "pikachu",
			Stats: []domain.Stat{
				{Name: "hp", BaseValue: 35},
				{Name: "attack", BaseValue: 55},
				{Name: "defense", BaseValue: 40},
				{Name: "special-attack", BaseValue: 50},
				{Name: "special-defense", BaseValue: 50},
				{Name: "speed", BaseValue: 90},
				{Name: "accuracy", BaseValue: 100},
			},
			Abilities: []domain.Ability{
				{Name: "static"},
				{Name: "lightning-rod", IsHidden: true},
			},
			Types:   []string{"electric"},
			Height:  4,
			Weight:  60,
			Sprites: domain.Sprites{Default: strPtr("default.png"), Shiny: strPtr("shiny.png")},
			CryURL:  strPtr("cry.ogg"),
		},
		Category:    "Mouse Pokémon",
		Description: "When several of these POKéMON gather, their electricity could build and cause lightning storms.",
	}
}

func TestNewPokemonCard(t *testing.T) {
	card := NewPokemonCard(pikachuRecord(), false)
	require.NotNil(t, card)

	assert.Equal(t, 25, card.ID)
	assert.Equal(t, "#0025", card.Number)
	assert.Equal(t, "Pikachu", card.Name)
	assert.Equal(t, "Mouse Pokémon", card.Category)
	assert.Equal(t, []string{"Electric"}, card.Types)
	assert.InDelta(t, 0.4, card.HeightM, 1e-9)
	assert.InDelta(t, 6.0, card.WeightKg, 1e-9)
	assert.Equal(t, "cry.ogg", *card.CryURL)
	assert.Equal(t, "default.png", *card.Sprite)
	assert.False(t, card.Shiny)

	labels := make([]string, 0, len(card.Stats))
	for _, s := range card.Stats {
		labels = append(labels, s.Label)
	}
	assert.Equal(t, []string{"HP", "ATK", "DEF", "SPA", "SPD", "SPE", "ACCURACY"}, labels)
	assert.Equal(t, "special-attack", card.Stats[3].Name)
	assert.Equal(t, 50, card.Stats[3].Value)

	assert.Equal(t, []AbilityView{
		{Label: "Static"},
		{Label: "Lightning rod", Hidden: true},
	}, card.Abilities)
}

func TestNewPokemonCard_Shiny(t *testing.T) {
	t.Run("selects shiny sprite", func(t *testing.T) {
		card := NewPokemonCard(pikachuRecord(), true)
		assert.Equal(t, "shiny.png", *card.Sprite)
		assert.True(t, card.Shiny)
	})

	t.Run("keeps default sprite when no shiny exists", func(t *testing.T) {
		p := pikachuRecord()
		p.Sprites.Shiny = nil
		card := NewPokemonCard(p, true)
		assert.Equal(t, "default.png", *card.Sprite)
		assert.False(t, card.Shiny)
	})

	t.Run("no sprites at all", func(t *testing.T) {
		p := pikachuRecord()
		p.Sprites = domain.Sprites{}
		card := NewPokemonCard(p, false)
		assert.Nil(t, card.Sprite)
	})
}

func TestNewPokemonCard_PadsLargeNumbers(t *testing.T) {
	p := pikachuRecord()
	p.ID = 1025
	assert.Equal(t, "#1025", NewPokemonCard(p, false).Number)

	p.ID = 7
	assert.Equal(t, "#0007", NewPokemonCard(p, false).Number)
}

func TestNewPokemonCard_Nil(t *testing.T) {
	assert.Nil(t, NewPokemonCard(nil, false))
}

func TestNewOutcomeView(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		snap        domain.Snapshot
		wantMessage string
		wantPokemon bool
	}{
		{
			name: "idle",
			snap: domain.Snapshot{State: domain.StateIdle, UpdatedAt: at},
		},
		{
			name: "querying",
			snap: domain.Snapshot{Seq: 1, State: domain.StateQuerying, Query: "pikachu", UpdatedAt: at},
		},
		{
			name:        "found",
			snap:        domain.SnapshotFor(2, "pikachu", domain.Found(pikachuRecord()), at),
			wantPokemon: true,
		},
		{
			name:        "querying keeps previous pokemon",
			snap:        domain.Snapshot{Seq: 3, State: domain.StateQuerying, Query: "mewtwo", Pokemon: pikachuRecord(), UpdatedAt: at},
			wantPokemon: true,
		},
		{
			name:        "not found",
			snap:        domain.SnapshotFor(3, "missingno", domain.NotFound(nil), at),
			wantMessage: MessageNotFound,
		},
		{
			name:        "transient error",
			snap:        domain.SnapshotFor(4, "pikachu", domain.TransientError(nil), at),
			wantMessage: MessageTransientError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewOutcomeView(tt.snap, false)

			assert.Equal(t, tt.snap.Seq, view.Seq)
			assert.Equal(t, tt.snap.State, view.State)
			assert.Equal(t, tt.snap.Query, view.Query)
			assert.Equal(t, at, view.UpdatedAt)
			assert.Equal(t, tt.wantMessage, view.Message)
			assert.Equal(t, tt.wantPokemon, view.Pokemon != nil)
		})
	}
}

func TestNewOutcomeView_HidesRawErrors(t *testing.T) {
	snap := domain.SnapshotFor(1, "pikachu",
		domain.TransientError(domain.ErrMalformedPayload), time.Now())

	view := NewOutcomeView(snap, false)

	assert.Equal(t, MessageTransientError, view.Message)
	assert.NotContains(t, view.Message, domain.ErrMalformedPayload.Error())
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"pikachu", "Pikachu"},
		{"mr-mime", "Mr-mime"},
		{"", ""},
		{"élan", "Élan"},
		{"Already", "Already"},
	}
	for _, tt := range tests {
		if got := capitalize(tt.in); got != tt.want {
			t.Errorf("capitalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
