package game

import (
	"errors"
	"fmt"
	"time"

	"goldlink/internal/domain"

	"github.com/google/uuid"
)

// Precondition failures. These mean the caller allowed an action the state
// forbids: the action is rejected and the input state is left untouched.
var (
	ErrGameFinished   = errors.New("game already finished")
	ErrNotFinished    = errors.New("game is not finished")
	ErrRoundComplete  = errors.New("round already complete")
	ErrAlreadyChosen  = errors.New("choice already recorded for this round")
	ErrChoicesMissing = errors.New("both choices required to complete the round")
	ErrNoResults      = errors.New("round has no computed results")
	ErrRoundOpen      = errors.New("current round is not complete")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrInvalidSlot    = errors.New("invalid player slot")
)

// NewGame creates a fresh game in the setup phase. P1 is marked active
// (informational) because the creating browser moves first in round one.
func NewGame(p1Name, p2Name string) *domain.GameState {
	now := time.Now().UTC()

	rounds := make([]domain.Round, domain.NumRounds)
	for i := range rounds {
		rounds[i] = domain.Round{Number: i + 1}
	}

	return &domain.GameState{
		Version: domain.SchemaVersion,
		GameID:  uuid.New().String(),
		Players: domain.Players{
			P1: domain.Player{ID: uuid.New().String(), Name: p1Name, IsActive: true},
			P2: domain.Player{ID: uuid.New().String(), Name: p2Name},
		},
		Rounds: rounds,
		Phase:  domain.PhaseSetup,
		Meta:   domain.Meta{CreatedAt: now, LastMoveAt: now},
	}
}

// NewRematch creates a new game linked to a finished predecessor. Seat
// names carry over, the active flag starts reversed, and a one-shot
// snapshot of the predecessor rides along for exactly one transport hop.
func NewRematch(prev *domain.GameState) (*domain.GameState, error) {
	if prev.Phase != domain.PhaseFinished {
		return nil, ErrNotFinished
	}

	st := NewGame(prev.Players.P1.Name, prev.Players.P2.Name)
	st.Players.P1.IsActive = false
	st.Players.P2.IsActive = true
	st.PreviousGameID = prev.GameID

	snap := prev.Clone()
	snap.PreviousGameResults = nil
	st.PreviousGameResults = snap

	return st, nil
}

// RecordChoice writes one player's choice into the current round. The first
// choice of the game promotes setup to playing. Fails on a complete round
// or a repeated choice; never overwrites.
func RecordChoice(st *domain.GameState, slot domain.Slot, c domain.Choice) (*domain.GameState, error) {
	if !slot.Valid() {
		return nil, ErrInvalidSlot
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChoice, c)
	}
	if st.Phase == domain.PhaseFinished {
		return nil, ErrGameFinished
	}

	r := st.Current()
	if r.Complete {
		return nil, ErrRoundComplete
	}
	if r.ChoiceOf(slot) != nil {
		return nil, ErrAlreadyChosen
	}

	out := st.Clone()
	if out.Phase == domain.PhaseSetup {
		out.Phase = domain.PhasePlaying
	}

	choice := c
	cur := out.Current()
	if slot == domain.SlotP1 {
		cur.P1Choice = &choice
	} else {
		cur.P2Choice = &choice
	}

	// Flip the cosmetic active marker towards the seat that acts next.
	out.Players.P1.IsActive = slot != domain.SlotP1
	out.Players.P2.IsActive = slot != domain.SlotP2

	out.Meta.Turns++
	out.Meta.LastMoveAt = time.Now().UTC()

	return out, nil
}

// CompleteRound computes the current round's results from the two recorded
// choices. Results are computed exactly once; calling this on a round that
// is incomplete or already scored is an error, not a no-op.
func CompleteRound(st *domain.GameState) (*domain.GameState, error) {
	r := st.Current()
	if r.Complete {
		return nil, ErrRoundComplete
	}
	if !r.BothChosen() {
		return nil, ErrChoicesMissing
	}

	out := st.Clone()
	cur := out.Current()

	g1, g2 := Score(*cur.P1Choice, *cur.P2Choice)
	cur.Results = &domain.RoundResult{P1Gold: g1, P2Gold: g2}
	cur.Complete = true
	now := time.Now().UTC()
	cur.CompletedAt = &now

	return out, nil
}

// Accumulate folds one round's results into the running totals.
func Accumulate(st *domain.GameState, roundIdx int) (*domain.GameState, error) {
	if roundIdx < 0 || roundIdx >= len(st.Rounds) {
		return nil, fmt.Errorf("round index %d out of range", roundIdx)
	}
	r := &st.Rounds[roundIdx]
	if r.Results == nil {
		return nil, ErrNoResults
	}

	out := st.Clone()
	out.Totals.P1Gold += r.Results.P1Gold
	out.Totals.P2Gold += r.Results.P2Gold

	return out, nil
}

// Advance leaves the current round. On the last round the phase becomes
// finished, which is terminal. Fails if the round being left is incomplete.
func Advance(st *domain.GameState) (*domain.GameState, error) {
	if st.Phase == domain.PhaseFinished {
		return nil, ErrGameFinished
	}
	if !st.Current().Complete {
		return nil, ErrRoundOpen
	}

	out := st.Clone()
	if out.CurrentRound == domain.NumRounds-1 {
		out.Phase = domain.PhaseFinished
	} else {
		out.CurrentRound++
	}

	return out, nil
}

// Play records a choice and, when it closes the round, runs the rest of the
// transition: score the round, fold it into the totals, advance. This is
// the one move operation the transport surface exposes.
func Play(st *domain.GameState, slot domain.Slot, c domain.Choice) (*domain.GameState, error) {
	out, err := RecordChoice(st, slot, c)
	if err != nil {
		return nil, err
	}

	if !out.Current().BothChosen() {
		return out, nil
	}

	if out, err = CompleteRound(out); err != nil {
		return nil, err
	}
	if out, err = Accumulate(out, out.CurrentRound); err != nil {
		return nil, err
	}
	return Advance(out)
}

// AttachMessage sets the optional end-of-game note on a finished game.
func AttachMessage(st *domain.GameState, from domain.Slot, text string) (*domain.GameState, error) {
	if st.Phase != domain.PhaseFinished {
		return nil, ErrNotFinished
	}
	if !from.Valid() {
		return nil, ErrInvalidSlot
	}
	if len(text) == 0 || len(text) > domain.MessageCap {
		return nil, fmt.Errorf("message length %d exceeds cap %d", len(text), domain.MessageCap)
	}

	out := st.Clone()
	out.Message = &domain.EndMessage{From: from, Text: text}
	return out, nil
}

// Summarize converts a finished game into its archive record.
func Summarize(st *domain.GameState) (*domain.CompletedGame, error) {
	if st.Phase != domain.PhaseFinished {
		return nil, ErrNotFinished
	}

	cg := &domain.CompletedGame{
		GameID:    st.GameID,
		P1Name:    st.Players.P1.Name,
		P2Name:    st.Players.P2.Name,
		P1Gold:    st.Totals.P1Gold,
		P2Gold:    st.Totals.P2Gold,
		StartedAt: st.Meta.CreatedAt,
	}

	for _, r := range st.Rounds {
		cg.Rounds = append(cg.Rounds, domain.ArchivedRound{
			Number:   r.Number,
			P1Choice: *r.P1Choice,
			P2Choice: *r.P2Choice,
			P1Gold:   r.Results.P1Gold,
			P2Gold:   r.Results.P2Gold,
		})
		if r.CompletedAt != nil {
			cg.FinishedAt = *r.CompletedAt
		}
	}

	switch {
	case st.Totals.P1Gold > st.Totals.P2Gold:
		cg.Winner = domain.OutcomeP1Win
	case st.Totals.P2Gold > st.Totals.P1Gold:
		cg.Winner = domain.OutcomeP2Win
	default:
		cg.Winner = domain.OutcomeDraw
	}

	return cg, nil
}
