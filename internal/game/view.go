package game

import "goldlink/internal/domain"

// View - экран, который нужно показать игроку
type View string

const (
	ViewChoose       View = "choose"
	ViewWaiting      View = "waiting"
	ViewRoundResults View = "round_results"
	ViewFinished     View = "finished"
)

// Decision is what the presentation layer renders. It is derived from the
// state alone on every call, nothing in it is persisted.
type Decision struct {
	View       View               `json:"view"`
	Round      int                `json:"round"`
	FirstMover domain.Slot        `json:"first_mover"`
	YourTurn   bool               `json:"your_turn"`
	LastRound  *domain.Round      `json:"last_round,omitempty"`
	Totals     domain.Totals      `json:"totals"`
	Winner     *domain.Outcome    `json:"winner,omitempty"`
	Message    *domain.EndMessage `json:"message,omitempty"`
}

// ViewFor decides what the given seat should see. Turn order comes from
// round index parity via FirstMover, never from the IsActive flag.
func ViewFor(st *domain.GameState, viewer domain.Slot) Decision {
	d := Decision{
		Round:      st.CurrentRound + 1,
		FirstMover: FirstMover(st.CurrentRound),
		Totals:     st.Totals,
	}

	// The most recently completed round, for "here is what just happened".
	for i := st.CurrentRound; i >= 0; i-- {
		if st.Rounds[i].Complete {
			r := st.Rounds[i]
			d.LastRound = &r
			break
		}
	}

	if st.Phase == domain.PhaseFinished {
		d.View = ViewFinished
		d.Message = st.Message
		if cg, err := Summarize(st); err == nil {
			d.Winner = &cg.Winner
		}
		return d
	}

	cur := st.Current()
	mine := cur.ChoiceOf(viewer)
	theirs := cur.ChoiceOf(viewer.Other())

	switch {
	case mine == nil && theirs == nil:
		if d.FirstMover == viewer {
			d.View = ViewChoose
			d.YourTurn = true
		} else {
			d.View = ViewWaiting
		}
	case mine == nil:
		// The opponent moved first; now it is this seat's turn regardless
		// of parity.
		d.View = ViewChoose
		d.YourTurn = true
	case theirs == nil:
		d.View = ViewWaiting
	default:
		// Both choices in but the round not yet advanced; only reachable on
		// states built outside Play.
		d.View = ViewRoundResults
	}

	return d
}
