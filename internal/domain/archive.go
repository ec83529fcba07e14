package domain

import "time"

// Outcome - итог завершённой игры
type Outcome string

const (
	OutcomeP1Win Outcome = "p1"
	OutcomeP2Win Outcome = "p2"
	OutcomeDraw  Outcome = "draw"
)

// ArchivedRound mirrors a completed round for the history archive.
type ArchivedRound struct {
	Number   int    `json:"number"`
	P1Choice Choice `json:"p1_choice"`
	P2Choice Choice `json:"p2_choice"`
	P1Gold   int    `json:"p1_gold"`
	P2Gold   int    `json:"p2_gold"`
}

// CompletedGame is the per-browser history record. It is a convenience
// cache only: discarding it never affects live play, the URL token stays
// authoritative.
type CompletedGame struct {
	GameID     string          `json:"game_id"`
	P1Name     string          `json:"p1_name"`
	P2Name     string          `json:"p2_name"`
	Rounds     []ArchivedRound `json:"rounds"`
	P1Gold     int             `json:"p1_gold"`
	P2Gold     int             `json:"p2_gold"`
	Winner     Outcome         `json:"winner"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}
