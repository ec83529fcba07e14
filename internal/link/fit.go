package link

import (
	"errors"
	"fmt"

	"goldlink/internal/domain"
)

const (
	// DefaultMaxURLLen is the conservative cross-transport ceiling for a
	// complete share URL. Chat apps, SMS gateways and old browsers truncate
	// silently above roughly 2000 characters, and a truncated token fails
	// its integrity check outright, so shrinking content proactively beats
	// shipping a link that may arrive broken.
	DefaultMaxURLLen = 1900

	// MessageFloor is how short the truncation step cuts the message before
	// the ladder gives up on truncation and removes it.
	MessageFloor = 40

	// fitSafetyMargin keeps the affordable-message estimate honest against
	// data-dependent compression.
	fitSafetyMargin = 50

	// snapshotAllowance approximates the token growth from embedding a
	// finished-game rematch snapshot.
	snapshotAllowance = 320
)

// ErrBudgetExhausted reports that the degradation ladder ran out before the
// budget was met. The accompanying FitResult still carries the best-effort
// state so the caller can offer "download a backup or proceed anyway".
var ErrBudgetExhausted = errors.New("state does not fit the link budget")

// FitResult reports what the governor did. Every piece of stripped content
// is described in Stripped; nothing is discarded silently.
type FitResult struct {
	State     *domain.GameState
	Token     string
	FinalSize int
	Stripped  []string
}

// EstimateSize runs the real pipeline and returns the exact token length.
// Compression ratios are data-dependent, so a heuristic would be unsafe in
// both directions.
func (c *Codec) EstimateSize(st *domain.GameState) (int, error) {
	token, err := c.Encode(st)
	if err != nil {
		return 0, err
	}
	return len(token), nil
}

// Fit enforces the token budget by applying the degradation ladder in
// order, re-measuring through the real encoder after each step: first the
// optional message is truncated to its floor, then removed entirely. If the
// ladder is exhausted over budget, the overflow is surfaced as
// ErrBudgetExhausted rather than returned silently.
func (c *Codec) Fit(st *domain.GameState, budget int) (*FitResult, error) {
	token, err := c.Encode(st)
	if err != nil {
		return nil, err
	}

	res := &FitResult{State: st, Token: token, FinalSize: len(token)}
	if res.FinalSize <= budget {
		return res, nil
	}

	if st.Message != nil {
		if text := []rune(st.Message.Text); len(text) > MessageFloor {
			trimmed := st.Clone()
			trimmed.Message.Text = string(text[:MessageFloor])

			if token, err = c.Encode(trimmed); err != nil {
				return nil, err
			}
			res.State = trimmed
			res.Token = token
			res.FinalSize = len(token)
			res.Stripped = append(res.Stripped,
				fmt.Sprintf("message truncated from %d to %d characters", len(text), MessageFloor))
			ContentStripped.WithLabelValues("message_truncated").Inc()

			if res.FinalSize <= budget {
				return res, nil
			}
		}
	}

	if res.State.Message != nil {
		bare := res.State.Clone()
		bare.Message = nil

		if token, err = c.Encode(bare); err != nil {
			return nil, err
		}
		res.State = bare
		res.Token = token
		res.FinalSize = len(token)
		res.Stripped = append(res.Stripped, "message removed")
		ContentStripped.WithLabelValues("message_removed").Inc()

		if res.FinalSize <= budget {
			return res, nil
		}
	}

	// Ladder exhausted. There is deliberately no step that drops required
	// game data.
	return res, ErrBudgetExhausted
}

// MaxMessageLen computes, before the user types anything, how long a
// message the current state can still afford under the budget. It measures
// the state without its message through the real pipeline, then subtracts a
// safety margin and, when a rematch snapshot is about to be embedded, a
// fixed allowance for it. The result is scaled down for the base64
// expansion of incompressible text and clamped to the message cap.
func (c *Codec) MaxMessageLen(st *domain.GameState, budget int, withSnapshot bool) (int, error) {
	bare := st.Clone()
	bare.Message = nil

	base, err := c.EstimateSize(bare)
	if err != nil {
		return 0, err
	}

	room := budget - base - fitSafetyMargin
	if withSnapshot && st.PreviousGameResults == nil {
		room -= snapshotAllowance
	}
	if room <= 0 {
		return 0, nil
	}

	// base64 turns 3 payload bytes into 4 token characters.
	afford := room * 3 / 4
	if afford > domain.MessageCap {
		afford = domain.MessageCap
	}
	return afford, nil
}
