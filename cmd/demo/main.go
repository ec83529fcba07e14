// Command demo plays a scripted five-round game through the real engine
// and link pipeline, printing the share URL produced at every hop. Useful
// as a smoke test and for eyeballing token sizes.
package main

import (
	"fmt"
	"os"

	"goldlink/internal/domain"
	"goldlink/internal/game"
	"goldlink/internal/link"
	"goldlink/internal/logger"
)

func main() {
	secret := os.Getenv("LINK_SECRET")
	if secret == "" {
		secret = "demo-secret"
	}
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	codec := link.NewCodec(secret)
	transport, err := link.NewTransport(codec, baseURL, link.DefaultMaxURLLen)
	if err != nil {
		logger.Fatal("invalid BASE_URL", "error", err)
	}

	st := game.NewGame("Alice", "Bob")

	script := []struct {
		slot   domain.Slot
		choice domain.Choice
	}{
		{domain.SlotP1, domain.ChoiceCooperate}, {domain.SlotP2, domain.ChoiceDefect},
		{domain.SlotP2, domain.ChoiceCooperate}, {domain.SlotP1, domain.ChoiceDefect},
		{domain.SlotP1, domain.ChoiceCooperate}, {domain.SlotP2, domain.ChoiceDefect},
		{domain.SlotP1, domain.ChoiceDefect}, {domain.SlotP2, domain.ChoiceDefect},
		{domain.SlotP1, domain.ChoiceCooperate}, {domain.SlotP2, domain.ChoiceCooperate},
	}

	for i, move := range script {
		if st, err = game.Play(st, move.slot, move.choice); err != nil {
			logger.Fatal("move rejected", "move", i, "error", err)
		}

		url, res, err := transport.ShareURL(st)
		if err != nil {
			logger.Fatal("encode failed", "move", i, "error", err)
		}

		fmt.Printf("move %2d: p%d %-9s | totals %2d:%2d | %4d chars | %s\n",
			i+1, move.slot, move.choice, st.Totals.P1Gold, st.Totals.P2Gold, res.FinalSize, url)

		// decode each hop the way the receiving browser would
		if _, _, err := transport.FromToken(res.Token); err != nil {
			logger.Fatal("round-trip failed", "move", i, "error", err)
		}
	}

	fmt.Printf("phase: %s, final totals %d:%d\n", st.Phase, st.Totals.P1Gold, st.Totals.P2Gold)
}
