package handlers

import (
	"goldlink/internal/link"
	"goldlink/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Transport *link.Transport
	Sessions  *service.Sessions
	History   *service.History
	Locks     *service.ChoiceLocks
}

func NewHandler(transport *link.Transport, sessions *service.Sessions, history *service.History, locks *service.ChoiceLocks) *Handler {
	return &Handler{
		Transport: transport,
		Sessions:  sessions,
		History:   history,
		Locks:     locks,
	}
}

// getSessionID извлекает session_id из контекста Gin
func getSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get("session_id")
	if !ok {
		return "", false
	}
	sid, ok := v.(string)
	return sid, ok
}
