package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidState is wrapped by every validation failure.
var ErrInvalidState = errors.New("invalid game state")

// Validate is the gate every externally supplied state passes through.
// Decoded tokens come from the other player's browser or from an arbitrary
// pasted link, so this is the last line of defense: malformed input is
// rejected, never coerced.
func (s *GameState) Validate() error {
	return s.validate(true)
}

func (s *GameState) validate(allowSnapshot bool) error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrInvalidState)
	}
	if s.Version != SchemaVersion {
		return fmt.Errorf("%w: schema version %q", ErrInvalidState, s.Version)
	}
	if s.GameID == "" {
		return fmt.Errorf("%w: empty game id", ErrInvalidState)
	}
	if s.Players.P1.ID == "" || s.Players.P2.ID == "" {
		return fmt.Errorf("%w: missing player id", ErrInvalidState)
	}
	if s.Players.P1.IsActive == s.Players.P2.IsActive {
		return fmt.Errorf("%w: exactly one player must be marked active", ErrInvalidState)
	}
	if !s.Phase.Valid() {
		return fmt.Errorf("%w: phase %q", ErrInvalidState, s.Phase)
	}
	if len(s.Rounds) != NumRounds {
		return fmt.Errorf("%w: %d rounds", ErrInvalidState, len(s.Rounds))
	}
	if s.CurrentRound < 0 || s.CurrentRound >= NumRounds {
		return fmt.Errorf("%w: current round %d", ErrInvalidState, s.CurrentRound)
	}

	var sumP1, sumP2 int
	for i := range s.Rounds {
		r := &s.Rounds[i]
		if r.Number != i+1 {
			return fmt.Errorf("%w: round %d numbered %d", ErrInvalidState, i, r.Number)
		}
		if r.P1Choice != nil && !r.P1Choice.Valid() {
			return fmt.Errorf("%w: round %d p1 choice %q", ErrInvalidState, r.Number, *r.P1Choice)
		}
		if r.P2Choice != nil && !r.P2Choice.Valid() {
			return fmt.Errorf("%w: round %d p2 choice %q", ErrInvalidState, r.Number, *r.P2Choice)
		}

		// Complete iff both choices are in and results were computed.
		if r.Complete != (r.BothChosen() && r.Results != nil) {
			return fmt.Errorf("%w: round %d completeness mismatch", ErrInvalidState, r.Number)
		}
		if r.Complete && r.CompletedAt == nil {
			return fmt.Errorf("%w: round %d complete without timestamp", ErrInvalidState, r.Number)
		}
		if r.Results != nil && (r.Results.P1Gold < 0 || r.Results.P2Gold < 0) {
			return fmt.Errorf("%w: round %d negative results", ErrInvalidState, r.Number)
		}

		// No play is allowed beyond the round currently in progress. This is
		// a structural check only, not a cryptographic one: turn order is not
		// enforced beyond it (a deliberate product decision, see DESIGN.md).
		if i > s.CurrentRound && (r.P1Choice != nil || r.P2Choice != nil || r.Complete) {
			return fmt.Errorf("%w: round %d played out of order", ErrInvalidState, r.Number)
		}
		if i < s.CurrentRound && !r.Complete {
			return fmt.Errorf("%w: round %d left incomplete", ErrInvalidState, r.Number)
		}

		if r.Complete {
			sumP1 += r.Results.P1Gold
			sumP2 += r.Results.P2Gold
		}
	}

	if s.Totals.P1Gold != sumP1 || s.Totals.P2Gold != sumP2 {
		return fmt.Errorf("%w: totals (%d,%d) do not match round results (%d,%d)",
			ErrInvalidState, s.Totals.P1Gold, s.Totals.P2Gold, sumP1, sumP2)
	}

	switch s.Phase {
	case PhaseSetup:
		if s.CurrentRound != 0 || s.Rounds[0].P1Choice != nil || s.Rounds[0].P2Choice != nil {
			return fmt.Errorf("%w: setup phase with recorded play", ErrInvalidState)
		}
	case PhaseFinished:
		if s.CurrentRound != NumRounds-1 || !s.Rounds[NumRounds-1].Complete {
			return fmt.Errorf("%w: finished before the last round completed", ErrInvalidState)
		}
	}

	if s.Message != nil {
		if !s.Message.From.Valid() {
			return fmt.Errorf("%w: message from slot %d", ErrInvalidState, s.Message.From)
		}
		if len(s.Message.Text) == 0 || len(s.Message.Text) > MessageCap {
			return fmt.Errorf("%w: message length %d", ErrInvalidState, len(s.Message.Text))
		}
		if s.Phase != PhaseFinished {
			return fmt.Errorf("%w: message on an unfinished game", ErrInvalidState)
		}
	}

	if s.PreviousGameResults != nil {
		if !allowSnapshot {
			return fmt.Errorf("%w: nested rematch snapshot", ErrInvalidState)
		}
		snap := s.PreviousGameResults
		if err := snap.validate(false); err != nil {
			return fmt.Errorf("rematch snapshot: %w", err)
		}
		if snap.Phase != PhaseFinished {
			return fmt.Errorf("%w: rematch snapshot of unfinished game", ErrInvalidState)
		}
		if s.PreviousGameID != snap.GameID {
			return fmt.Errorf("%w: snapshot game id mismatch", ErrInvalidState)
		}
	}

	return nil
}
