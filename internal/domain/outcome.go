package domain

import "time"

// OutcomeKind is the terminal result of one lookup
type OutcomeKind string

const (
	OutcomeFound          OutcomeKind = "found"
	OutcomeNotFound       OutcomeKind = "not_found"
	OutcomeTransientError OutcomeKind = "transient_error"
)

// Outcome is a tagged result: Pokemon is set only for OutcomeFound, Err only for the failure kinds
type Outcome struct {
	Kind    OutcomeKind
	Pokemon *ResolvedPokemon
	Err     error
}

// Found builds a successful outcome
func Found(p *ResolvedPokemon) Outcome {
	return Outcome{Kind: OutcomeFound, Pokemon: p}
}

// NotFound builds an outcome for a name the catalog does not know
func NotFound(err error) Outcome {
	if err == nil {
		err = ErrPokemonNotFound
	}
	return Outcome{Kind: OutcomeNotFound, Err: err}
}

// TransientError builds an outcome for any failure that rewording the name will not fix
func TransientError(err error) Outcome {
	if err == nil {
		err = ErrCatalogUnavailable
	}
	return Outcome{Kind: OutcomeTransientError, Err: err}
}

// FromError builds the failure outcome matching err
func FromError(err error) Outcome {
	if Classify(err) == OutcomeNotFound {
		return NotFound(err)
	}
	return TransientError(err)
}

// State is a position in the lookup state machine
type State string

const (
	StateIdle           State = "idle"
	StateQuerying       State = "querying"
	StateFound          State = State(OutcomeFound)
	StateNotFound       State = State(OutcomeNotFound)
	StateTransientError State = State(OutcomeTransientError)
)

// IsTerminal reports whether the state is one of the three outcome states
func (s State) IsTerminal() bool {
	return s == StateFound || s == StateNotFound || s == StateTransientError
}

// Snapshot is the content of the current-outcome slot at one point in time
type Snapshot struct {
	Seq       uint64
	State     State
	Query     string
	Pokemon   *ResolvedPokemon
	Err       error
	UpdatedAt time.Time
}

// SnapshotFor turns a finished outcome for query seq into a slot value
func SnapshotFor(seq uint64, query string, o Outcome, at time.Time) Snapshot {
	return Snapshot{
		Seq:       seq,
		State:     State(o.Kind),
		Query:     query,
		Pokemon:   o.Pokemon,
		Err:       o.Err,
		UpdatedAt: at,
	}
}
