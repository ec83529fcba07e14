package handlers

import (
	"errors"
	"net/http"

	"goldlink/internal/link"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

// ShareQR renders the share URL for a token as a QR PNG. The token is
// decoded first so garbage never gets a code, and the governor re-runs on
// the way out like every other write.
func (h *Handler) ShareQR(c *gin.Context) {
	st, _, err := h.Transport.FromURL(c.Request.URL)
	if err != nil {
		h.rejectLink(c, err)
		return
	}
	if st == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no game state in url"})
		return
	}

	url, _, err := h.Transport.ShareURL(st)
	if err != nil && !errors.Is(err, link.ErrBudgetExhausted) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode game"})
		return
	}

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
