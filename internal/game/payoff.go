package game

import "goldlink/internal/domain"

// Score maps a pair of simultaneous choices to gold for each player.
// The four cells below are the entire rules of the game; they are written
// out literally so the exact values stay auditable.
func Score(a, b domain.Choice) (int, int) {
	switch {
	case a == domain.ChoiceCooperate && b == domain.ChoiceCooperate:
		return 3, 3
	case a == domain.ChoiceDefect && b == domain.ChoiceDefect:
		return 1, 1
	case a == domain.ChoiceCooperate && b == domain.ChoiceDefect:
		return 0, 5
	default: // defect vs cooperate
		return 5, 0
	}
}

// FirstMover returns who moves first in a round, as a pure function of the
// round index: P1 on even indices, P2 on odd. The stored IsActive flag is
// cosmetic and never consulted here.
func FirstMover(roundIdx int) domain.Slot {
	if roundIdx%2 == 0 {
		return domain.SlotP1
	}
	return domain.SlotP2
}
