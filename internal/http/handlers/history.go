package handlers

import (
	"net/http"
	"strconv"

	"goldlink/internal/domain"
	"goldlink/internal/game"

	"github.com/gin-gonic/gin"
)

// CreateSession mints a browser-session token owning a history archive.
func (h *Handler) CreateSession(c *gin.Context) {
	token, sid, err := h.Sessions.Issue()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "session_id": sid})
}

type archiveRequest struct {
	Token string `json:"token"`
}

// ArchiveGame stores a finished game into the session's archive. With
// storage unavailable the request still succeeds: history is convenience,
// never a gameplay dependency.
func (h *Handler) ArchiveGame(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	var req archiveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	st, _, err := h.Transport.FromToken(req.Token)
	if err != nil {
		h.rejectLink(c, err)
		return
	}

	cg, err := game.Summarize(st)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if !h.History.Enabled() {
		c.JSON(http.StatusOK, gin.H{"archived": false, "reason": "storage unavailable"})
		return
	}

	if err := h.History.Archive(c.Request.Context(), sid, cg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to archive game"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": true, "game": cg})
}

// MyGames lists the session's archive, newest first.
func (h *Handler) MyGames(c *gin.Context) {
	sid, ok := getSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	games, err := h.History.List(c.Request.Context(), sid, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
		return
	}
	if games == nil {
		games = []*domain.CompletedGame{}
	}

	c.JSON(http.StatusOK, gin.H{"games": games, "enabled": h.History.Enabled()})
}
