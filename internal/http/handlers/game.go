package handlers

import (
	"errors"
	"net/http"

	"goldlink/internal/domain"
	"goldlink/internal/game"
	"goldlink/internal/link"
	"goldlink/internal/logger"

	"github.com/gin-gonic/gin"
)

// errCorruptLink is the single user-facing wording for every decode
// failure; the internal stage goes to the debug log only.
const errCorruptLink = "invalid or corrupted link"

const nameCap = 32

type createGameRequest struct {
	P1Name string `json:"p1_name"`
	P2Name string `json:"p2_name"`
}

// CreateGame starts a fresh game and returns the first share URL.
func (h *Handler) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.P1Name) > nameCap || len(req.P2Name) > nameCap {
		c.JSON(http.StatusBadRequest, gin.H{"error": "player name too long"})
		return
	}

	st := game.NewGame(req.P1Name, req.P2Name)

	url, res, err := h.Transport.ShareURL(st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode game"})
		return
	}

	resp := shareFields(url, res, nil)
	resp["game"] = st
	resp["view"] = game.ViewFor(st, domain.SlotP1)
	c.JSON(http.StatusOK, resp)
}

// GetGame decodes the state parameter and derives the screen to present.
// An absent parameter is not an error: there is simply no game in
// progress. A corrupt token yields the uniform error plus a fresh-game
// hint, never a partial state.
func (h *Handler) GetGame(c *gin.Context) {
	viewer, ok := querySlot(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player slot"})
		return
	}

	st, snapshot, err := h.Transport.FromURL(c.Request.URL)
	if err != nil {
		h.rejectLink(c, err)
		return
	}
	if st == nil {
		c.JSON(http.StatusOK, gin.H{"game": nil})
		return
	}

	resp := gin.H{
		"game": st,
		"view": game.ViewFor(st, viewer),
	}

	// A detached rematch snapshot is delivered exactly once; the replacement
	// URL below no longer carries it.
	if snapshot != nil {
		resp["previous_game_results"] = snapshot
		if url, res, err := h.Transport.ShareURL(st); err == nil || errors.Is(err, link.ErrBudgetExhausted) {
			resp["replace_url"] = url
			resp["token"] = res.Token
		}
	}

	c.JSON(http.StatusOK, resp)
}

type choiceRequest struct {
	Token   string `json:"token"`
	Player  int    `json:"player"`
	Choice  string `json:"choice"`
	Message string `json:"message"`
}

// Choice applies one move and returns the next share URL. When the move
// closes a round the full transition runs: score, totals, advance.
func (h *Handler) Choice(c *gin.Context) {
	var req choiceRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	slot := domain.Slot(req.Player)
	if !slot.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player slot"})
		return
	}

	st, _, err := h.Transport.FromToken(req.Token)
	if err != nil {
		h.rejectLink(c, err)
		return
	}

	next, err := game.Play(st, slot, domain.Choice(req.Choice))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if req.Message != "" && next.Phase == domain.PhaseFinished {
		if next, err = game.AttachMessage(next, slot, req.Message); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// Soft deterrent against re-choosing after a refresh; defeatable and
	// fail-open, never load-bearing. The marker is written only once the
	// move is accepted, so a rejected request never burns it.
	if !h.Locks.Acquire(c.Request.Context(), st.GameID, st.CurrentRound, slot) {
		c.JSON(http.StatusConflict, gin.H{"error": "choice already recorded for this round"})
		return
	}

	url, res, err := h.Transport.ShareURL(next)
	if err != nil && !errors.Is(err, link.ErrBudgetExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode game"})
		return
	}

	resp := shareFields(url, res, err)
	resp["view"] = game.ViewFor(res.State, slot)
	if len(res.Stripped) > 0 || errors.Is(err, link.ErrBudgetExhausted) {
		// full pre-strip state so the user can download a backup before
		// sharing the shrunk link
		resp["backup"] = next
	}
	c.JSON(http.StatusOK, resp)
}

type rematchRequest struct {
	Token  string `json:"token"`
	Player int    `json:"player"`
}

// Rematch starts a new game linked to a finished one, embedding the
// one-shot snapshot of its results for the opponent's first decode.
func (h *Handler) Rematch(c *gin.Context) {
	var req rematchRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	slot := domain.Slot(req.Player)
	if !slot.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player slot"})
		return
	}

	prev, _, err := h.Transport.FromToken(req.Token)
	if err != nil {
		h.rejectLink(c, err)
		return
	}

	st, err := game.NewRematch(prev)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	url, res, err := h.Transport.ShareURL(st)
	if err != nil && !errors.Is(err, link.ErrBudgetExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode game"})
		return
	}

	resp := shareFields(url, res, err)
	resp["game"] = res.State
	resp["view"] = game.ViewFor(res.State, slot)
	c.JSON(http.StatusOK, resp)
}

// MessageBudget reports how long an end-of-game message the current state
// can still afford, so the input UI can cap typing live instead of
// discovering the overflow at share time.
func (h *Handler) MessageBudget(c *gin.Context) {
	st, _, err := h.Transport.FromURL(c.Request.URL)
	if err != nil {
		h.rejectLink(c, err)
		return
	}
	if st == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no game state in url"})
		return
	}

	withSnapshot := c.Query("rematch") == "true"

	n, err := h.Transport.Codec().MaxMessageLen(st, h.Transport.TokenBudget(), withSnapshot)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to measure state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"max_message_len": n, "message_cap": domain.MessageCap})
}

func (h *Handler) rejectLink(c *gin.Context, err error) {
	var de *link.DecodeError
	if errors.As(err, &de) {
		logger.Debug("token rejected", "stage", string(de.Stage), "error", de.Err.Error())
	}
	// always one face to the user, always a path forward
	c.JSON(http.StatusBadRequest, gin.H{"error": errCorruptLink, "fresh_game": true})
}

func shareFields(url string, res *link.FitResult, err error) gin.H {
	resp := gin.H{
		"token": res.Token,
		"url":   url,
		"size":  res.FinalSize,
	}
	if len(res.Stripped) > 0 {
		resp["stripped"] = res.Stripped
	}
	if errors.Is(err, link.ErrBudgetExhausted) {
		resp["over_budget"] = true
	}
	return resp
}

func querySlot(c *gin.Context) (domain.Slot, bool) {
	switch c.DefaultQuery("p", "1") {
	case "1":
		return domain.SlotP1, true
	case "2":
		return domain.SlotP2, true
	default:
		return 0, false
	}
}
