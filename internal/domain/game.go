package domain

import "time"

// SchemaVersion - версия схемы состояния; декодер отклоняет все остальные
const SchemaVersion = "1"

// NumRounds is fixed by the game design, not configurable.
const NumRounds = 5

// MessageCap bounds the optional end-of-game message.
const MessageCap = 500

// Choice - ход игрока в раунде
type Choice string

const (
	ChoiceCooperate Choice = "cooperate"
	ChoiceDefect    Choice = "defect"
)

func (c Choice) Valid() bool {
	return c == ChoiceCooperate || c == ChoiceDefect
}

// Phase - стадия игры (только вперёд, без отката)
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

func (p Phase) Valid() bool {
	return p == PhaseSetup || p == PhasePlaying || p == PhaseFinished
}

// Slot identifies one of the two player seats.
type Slot int

const (
	SlotP1 Slot = 1
	SlotP2 Slot = 2
)

func (s Slot) Valid() bool {
	return s == SlotP1 || s == SlotP2
}

func (s Slot) Other() Slot {
	if s == SlotP1 {
		return SlotP2
	}
	return SlotP1
}

// Player holds one seat. IsActive is informational only: the real turn
// order is derived from the round index, never from this flag.
type Player struct {
	ID       string `json:"id"`
	Name     string `json:"n,omitempty"`
	IsActive bool   `json:"a,omitempty"`
}

type Players struct {
	P1 Player `json:"p1"`
	P2 Player `json:"p2"`
}

// RoundResult - золото, начисленное за один раунд. Записывается один раз
// и больше не меняется.
type RoundResult struct {
	P1Gold int `json:"g1"`
	P2Gold int `json:"g2"`
}

type Round struct {
	Number      int          `json:"n"`
	P1Choice    *Choice      `json:"c1,omitempty"`
	P2Choice    *Choice      `json:"c2,omitempty"`
	Results     *RoundResult `json:"r,omitempty"`
	Complete    bool         `json:"f,omitempty"`
	CompletedAt *time.Time   `json:"t,omitempty"`
}

// ChoiceOf returns the recorded choice for a slot, nil if not made yet.
func (r *Round) ChoiceOf(s Slot) *Choice {
	if s == SlotP1 {
		return r.P1Choice
	}
	return r.P2Choice
}

func (r *Round) BothChosen() bool {
	return r.P1Choice != nil && r.P2Choice != nil
}

type Totals struct {
	P1Gold int `json:"g1"`
	P2Gold int `json:"g2"`
}

// Meta carries informational timestamps and a turn counter. Nothing here
// drives control flow.
type Meta struct {
	CreatedAt  time.Time `json:"c"`
	LastMoveAt time.Time `json:"m"`
	Turns      int       `json:"t"`
}

// EndMessage - необязательное сообщение от одного игрока другому,
// прикладывается только к завершённой игре.
type EndMessage struct {
	From Slot   `json:"f"`
	Text string `json:"x"`
}

// GameState is the unit of transport: the complete session travels between
// the two browsers inside an encoded URL token, there is no shared backend
// copy. All mutation goes through the engine and produces a new value.
//
// JSON keys are kept short on purpose: the wire form is compressed JSON and
// key length still leaks into the token size on low-redundancy states.
type GameState struct {
	Version      string  `json:"v"`
	GameID       string  `json:"id"`
	Players      Players `json:"p"`
	Rounds       []Round `json:"r"`
	CurrentRound int     `json:"cr"`
	Phase        Phase   `json:"ph"`
	Totals       Totals  `json:"tot"`
	Meta         Meta    `json:"meta"`

	// Message is the optional end-of-game note, capped at MessageCap.
	Message *EndMessage `json:"msg,omitempty"`

	// PreviousGameID links a rematch to its predecessor.
	PreviousGameID string `json:"pg,omitempty"`

	// PreviousGameResults is a one-shot embedded snapshot of the finished
	// predecessor. It rides along for exactly one transport hop: the first
	// successful decode on the receiving side detaches it.
	PreviousGameResults *GameState `json:"pr,omitempty"`
}

// Clone returns a deep copy so engine transitions never alias the input.
func (s *GameState) Clone() *GameState {
	out := *s

	out.Rounds = make([]Round, len(s.Rounds))
	for i, r := range s.Rounds {
		cp := r
		if r.P1Choice != nil {
			c := *r.P1Choice
			cp.P1Choice = &c
		}
		if r.P2Choice != nil {
			c := *r.P2Choice
			cp.P2Choice = &c
		}
		if r.Results != nil {
			res := *r.Results
			cp.Results = &res
		}
		if r.CompletedAt != nil {
			t := *r.CompletedAt
			cp.CompletedAt = &t
		}
		out.Rounds[i] = cp
	}

	if s.Message != nil {
		m := *s.Message
		out.Message = &m
	}
	if s.PreviousGameResults != nil {
		out.PreviousGameResults = s.PreviousGameResults.Clone()
	}

	return &out
}

// Current returns the round pointed at by CurrentRound.
func (s *GameState) Current() *Round {
	return &s.Rounds[s.CurrentRound]
}
