package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"goldlink/internal/config"
	"goldlink/internal/domain"
	"goldlink/internal/game"
	apphttp "goldlink/internal/http"
	"goldlink/internal/link"
	"goldlink/internal/service"
)

func newTestServer(t *testing.T) (*gin.Engine, *link.Transport) {
	return newTestServerWithLocks(t, service.NewChoiceLocks(nil))
}

func newTestServerWithLocks(t *testing.T, locks *service.ChoiceLocks) (*gin.Engine, *link.Transport) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		BaseURL:       "https://goldlink.example/play",
		LinkSecret:    "integration-link-secret",
		JWTSecret:     "integration-jwt-secret",
		MaxURLLen:     1900,
		APIRateLimit:  1000,
		APIRateWindow: 60,
	}

	transport, err := link.NewTransport(link.NewCodec(cfg.LinkSecret), cfg.BaseURL, cfg.MaxURLLen)
	if err != nil {
		t.Fatalf("NewTransport failed: %v", err)
	}

	r := gin.New()
	apphttp.RegisterRoutes(r, cfg, transport, service.NewHistory(nil), locks, "test")
	return r, transport
}

// memMarkerStore backs the choice locks with a map, standing in for Redis.
type memMarkerStore struct {
	keys map[string]bool
}

func (m *memMarkerStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	if m.keys[key] {
		return redis.NewBoolResult(false, nil)
	}
	m.keys[key] = true
	return redis.NewBoolResult(true, nil)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

type viewBody struct {
	View     string        `json:"view"`
	Round    int           `json:"round"`
	YourTurn bool          `json:"your_turn"`
	Totals   domain.Totals `json:"totals"`
	Winner   *string       `json:"winner"`
	Message  *struct {
		Text string `json:"x"`
	} `json:"message"`
}

type shareBody struct {
	Token      string            `json:"token"`
	URL        string            `json:"url"`
	Size       int               `json:"size"`
	Game       *domain.GameState `json:"game"`
	View       viewBody          `json:"view"`
	Stripped   []string          `json:"stripped"`
	OverBudget bool              `json:"over_budget"`
	Error      string            `json:"error"`
}

type getBody struct {
	Game       *domain.GameState `json:"game"`
	View       viewBody          `json:"view"`
	Previous   *domain.GameState `json:"previous_game_results"`
	ReplaceURL string            `json:"replace_url"`
	Token      string            `json:"token"`
	Error      string            `json:"error"`
	FreshGame  bool              `json:"fresh_game"`
}

// Drives a complete five-round game through the HTTP surface, checking the
// running totals after every closed round, exactly as two browsers trading
// links would.
func TestFiveRoundGameOverHTTP(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/game",
		gin.H{"p1_name": "Alice", "p2_name": "Bob"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create game: status %d, body %s", w.Code, w.Body.String())
	}

	var created shareBody
	decodeBody(t, w, &created)
	if created.Token == "" || created.Game == nil {
		t.Fatalf("create game response incomplete: %+v", created)
	}
	if created.Game.Phase != domain.PhaseSetup {
		t.Fatalf("new game phase = %s; want setup", created.Game.Phase)
	}
	if len(created.URL) > 1900 {
		t.Fatalf("share URL is %d chars", len(created.URL))
	}
	if created.View.View != "choose" || !created.View.YourTurn {
		t.Fatalf("creator view = %+v; want choose/your turn", created.View)
	}

	token := created.Token
	moves := []struct {
		player  int
		choice  string
		message string
		closes  bool
		wantP1  int
		wantP2  int
	}{
		{1, "cooperate", "", false, 0, 0},
		{2, "defect", "", true, 0, 5},
		{2, "cooperate", "", false, 0, 5},
		{1, "defect", "", true, 5, 5},
		{1, "cooperate", "", false, 5, 5},
		{2, "defect", "", true, 5, 10},
		{2, "defect", "", false, 5, 10},
		{1, "defect", "", true, 6, 11},
		{1, "cooperate", "", false, 6, 11},
		{2, "cooperate", "gg", true, 9, 14},
	}

	for i, m := range moves {
		w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
			gin.H{"token": token, "player": m.player, "choice": m.choice, "message": m.message}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("move %d: status %d, body %s", i, w.Code, w.Body.String())
		}

		var moved shareBody
		decodeBody(t, w, &moved)
		if moved.Token == "" {
			t.Fatalf("move %d: no token in response", i)
		}
		if moved.View.Totals.P1Gold != m.wantP1 || moved.View.Totals.P2Gold != m.wantP2 {
			t.Fatalf("move %d: totals = (%d,%d); want (%d,%d)",
				i, moved.View.Totals.P1Gold, moved.View.Totals.P2Gold, m.wantP1, m.wantP2)
		}

		// Re-sending the same move against the already-advanced state must
		// bounce, not double-apply.
		if !m.closes {
			dup := doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
				gin.H{"token": moved.Token, "player": m.player, "choice": m.choice}, nil)
			if dup.Code != http.StatusConflict {
				t.Fatalf("move %d: duplicate choice got status %d", i, dup.Code)
			}
		}

		token = moved.Token
	}

	// The final link shows both players the finished game.
	w = doJSON(t, r, http.MethodGet, "/api/v1/game?p=2&s="+token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get finished game: status %d, body %s", w.Code, w.Body.String())
	}

	var final getBody
	decodeBody(t, w, &final)
	if final.Game == nil || final.Game.Phase != domain.PhaseFinished {
		t.Fatalf("final game = %+v; want finished", final.Game)
	}
	if final.Game.Totals.P1Gold != 9 || final.Game.Totals.P2Gold != 14 {
		t.Fatalf("final totals = (%d,%d); want (9,14)", final.Game.Totals.P1Gold, final.Game.Totals.P2Gold)
	}
	if final.View.View != "finished" {
		t.Fatalf("final view = %s; want finished", final.View.View)
	}
	if final.View.Winner == nil || *final.View.Winner != string(domain.OutcomeP2Win) {
		t.Fatalf("winner = %v; want p2", final.View.Winner)
	}
	if final.Game.Message == nil || final.Game.Message.Text != "gg" {
		t.Fatalf("end message = %+v; want gg", final.Game.Message)
	}
}

// A request the engine rejects must never consume the refresh marker: the
// player retries the round, and only an accepted move arms the deterrent.
func TestRejectedMoveDoesNotBurnMarker(t *testing.T) {
	r, _ := newTestServerWithLocks(t,
		service.NewChoiceLocksWithStore(&memMarkerStore{keys: map[string]bool{}}))

	w := doJSON(t, r, http.MethodPost, "/api/v1/game",
		gin.H{"p1_name": "Alice", "p2_name": "Bob"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create game: status %d", w.Code)
	}
	var created shareBody
	decodeBody(t, w, &created)

	// An unknown choice bounces before any marker is written.
	w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
		gin.H{"token": created.Token, "player": 1, "choice": "betray"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("invalid choice: status %d; want 409", w.Code)
	}

	// The corrected retry goes through.
	w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
		gin.H{"token": created.Token, "player": 1, "choice": "cooperate"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry after rejection: status %d, body %s", w.Code, w.Body.String())
	}
	var moved shareBody
	decodeBody(t, w, &moved)
	if moved.Token == "" {
		t.Fatal("no token after accepted retry")
	}

	// Now the marker is armed: replaying the pre-move token is deterred.
	w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
		gin.H{"token": created.Token, "player": 1, "choice": "cooperate"}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("replay against stale token: status %d; want 409", w.Code)
	}
}

// Same guarantee on the round-closing move: an over-cap message fails the
// whole request before the marker is written, so the retry succeeds.
func TestOversizedMessageDoesNotBurnMarker(t *testing.T) {
	r, _ := newTestServerWithLocks(t,
		service.NewChoiceLocksWithStore(&memMarkerStore{keys: map[string]bool{}}))

	w := doJSON(t, r, http.MethodPost, "/api/v1/game",
		gin.H{"p1_name": "Alice", "p2_name": "Bob"}, nil)
	var created shareBody
	decodeBody(t, w, &created)

	moves := []struct {
		player int
		choice string
	}{
		{1, "cooperate"}, {2, "defect"},
		{2, "cooperate"}, {1, "defect"},
		{1, "cooperate"}, {2, "defect"},
		{2, "defect"}, {1, "defect"},
		{1, "cooperate"},
	}

	token := created.Token
	for i, m := range moves {
		w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
			gin.H{"token": token, "player": m.player, "choice": m.choice}, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("move %d: status %d, body %s", i, w.Code, w.Body.String())
		}
		var moved shareBody
		decodeBody(t, w, &moved)
		token = moved.Token
	}

	// Closing move with a message over the cap: rejected whole.
	w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
		gin.H{"token": token, "player": 2, "choice": "cooperate",
			"message": strings.Repeat("a", domain.MessageCap+1)}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("oversized message: status %d; want 400", w.Code)
	}

	// The retry with a legal message finishes the game.
	w = doJSON(t, r, http.MethodPost, "/api/v1/game/choice",
		gin.H{"token": token, "player": 2, "choice": "cooperate", "message": "gg"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("retry after oversized message: status %d, body %s", w.Code, w.Body.String())
	}
	var final shareBody
	decodeBody(t, w, &final)
	if final.View.View != "finished" {
		t.Fatalf("view = %s; want finished", final.View.View)
	}
}

func TestGetGameWithoutState(t *testing.T) {
	r, _ := newTestServer(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/game", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d; want 200", w.Code)
	}

	var body getBody
	decodeBody(t, w, &body)
	if body.Game != nil {
		t.Fatalf("game = %+v; want nil for an absent parameter", body.Game)
	}
}

func TestCorruptTokenUniformError(t *testing.T) {
	r, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/v1/game?s=garbage-token", nil},
		{http.MethodPost, "/api/v1/game/choice", gin.H{"token": "garbage-token", "player": 1, "choice": "cooperate"}},
		{http.MethodPost, "/api/v1/game/rematch", gin.H{"token": "garbage-token", "player": 1}},
		{http.MethodGet, "/api/v1/game/message-budget?s=garbage-token", nil},
	}

	for _, p := range paths {
		w := doJSON(t, r, p.method, p.path, p.body, nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s %s: status %d; want 400", p.method, p.path, w.Code)
		}

		var body getBody
		decodeBody(t, w, &body)
		if body.Error != "invalid or corrupted link" {
			t.Fatalf("%s %s: error = %q; want the uniform wording", p.method, p.path, body.Error)
		}
		if !body.FreshGame {
			t.Fatalf("%s %s: fresh_game hint missing", p.method, p.path)
		}
	}
}

func TestRematchCarriesSnapshotOneHop(t *testing.T) {
	r, transport := newTestServer(t)

	prev := finishedOverEngine(t)
	prevToken, err := transport.Codec().Encode(prev)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/game/rematch",
		gin.H{"token": prevToken, "player": 2}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("rematch: status %d, body %s", w.Code, w.Body.String())
	}

	var rematch shareBody
	decodeBody(t, w, &rematch)
	if rematch.Game == nil || rematch.Game.GameID == prev.GameID {
		t.Fatalf("rematch game = %+v", rematch.Game)
	}
	if rematch.Game.PreviousGameResults == nil {
		t.Fatal("rematch response lost the snapshot")
	}

	// First decode of the rematch link surfaces the previous results and a
	// replacement URL without them.
	w = doJSON(t, r, http.MethodGet, "/api/v1/game?p=1&s="+rematch.Token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get rematch: status %d, body %s", w.Code, w.Body.String())
	}

	var first getBody
	decodeBody(t, w, &first)
	if first.Previous == nil || first.Previous.GameID != prev.GameID {
		t.Fatalf("previous_game_results = %+v; want the finished game", first.Previous)
	}
	if first.ReplaceURL == "" || first.Token == "" {
		t.Fatal("replacement URL missing alongside the snapshot")
	}

	u, err := url.Parse(first.ReplaceURL)
	if err != nil {
		t.Fatalf("replace_url does not parse: %v", err)
	}
	if !strings.HasPrefix(first.ReplaceURL, "https://goldlink.example/play?") {
		t.Fatalf("unexpected replace_url: %s", first.ReplaceURL)
	}

	// Second decode, via the replacement URL: the snapshot is gone.
	w = doJSON(t, r, http.MethodGet, "/api/v1/game?p=1&s="+u.Query().Get("s"), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get replacement: status %d, body %s", w.Code, w.Body.String())
	}

	var second getBody
	decodeBody(t, w, &second)
	if second.Previous != nil {
		t.Fatal("snapshot survived the replacement URL")
	}
	if second.Game == nil || second.Game.PreviousGameID != prev.GameID {
		t.Fatal("previous game link lost with the snapshot")
	}
}

func TestMessageBudgetEndpoint(t *testing.T) {
	r, transport := newTestServer(t)

	token, err := transport.Codec().Encode(finishedOverEngine(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/game/message-budget?s="+token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		MaxMessageLen int `json:"max_message_len"`
		MessageCap    int `json:"message_cap"`
	}
	decodeBody(t, w, &body)
	if body.MaxMessageLen <= 0 || body.MaxMessageLen > domain.MessageCap {
		t.Fatalf("max_message_len = %d", body.MaxMessageLen)
	}
	if body.MessageCap != domain.MessageCap {
		t.Fatalf("message_cap = %d; want %d", body.MessageCap, domain.MessageCap)
	}
}

func TestShareQR(t *testing.T) {
	r, transport := newTestServer(t)

	token, err := transport.Codec().Encode(finishedOverEngine(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/game/qr?s="+token, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %s; want image/png", ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("empty image body")
	}
}

// History without a database: the endpoints answer honestly instead of
// failing, and gameplay never notices.
func TestHistoryDegradesOverHTTP(t *testing.T) {
	r, transport := newTestServer(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/session", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("create session: status %d", w.Code)
	}
	var sess struct {
		Token     string `json:"token"`
		SessionID string `json:"session_id"`
	}
	decodeBody(t, w, &sess)
	if sess.Token == "" || sess.SessionID == "" {
		t.Fatalf("session response incomplete: %+v", sess)
	}

	if w = doJSON(t, r, http.MethodGet, "/api/v1/me/games", nil, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated list: status %d; want 401", w.Code)
	}

	auth := map[string]string{"Authorization": "Bearer " + sess.Token}

	w = doJSON(t, r, http.MethodGet, "/api/v1/me/games", nil, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("list games: status %d, body %s", w.Code, w.Body.String())
	}
	var list struct {
		Games   []*domain.CompletedGame `json:"games"`
		Enabled bool                    `json:"enabled"`
	}
	decodeBody(t, w, &list)
	if list.Enabled || len(list.Games) != 0 {
		t.Fatalf("list without storage = %+v", list)
	}

	gameToken, err := transport.Codec().Encode(finishedOverEngine(t))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/me/games", gin.H{"token": gameToken}, auth)
	if w.Code != http.StatusOK {
		t.Fatalf("archive: status %d, body %s", w.Code, w.Body.String())
	}
	var archived struct {
		Archived bool   `json:"archived"`
		Reason   string `json:"reason"`
	}
	decodeBody(t, w, &archived)
	if archived.Archived || archived.Reason == "" {
		t.Fatalf("archive without storage = %+v", archived)
	}

	// An unfinished game has nothing to archive.
	unfinished, err := transport.Codec().Encode(game.NewGame("a", "b"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if w = doJSON(t, r, http.MethodPost, "/api/v1/me/games", gin.H{"token": unfinished}, auth); w.Code != http.StatusConflict {
		t.Fatalf("archive unfinished: status %d; want 409", w.Code)
	}
}

func finishedOverEngine(t *testing.T) *domain.GameState {
	t.Helper()

	st := game.NewGame("Alice", "Bob")
	for i := 0; i < domain.NumRounds; i++ {
		first := game.FirstMover(i)
		var err error
		if st, err = game.Play(st, first, domain.ChoiceCooperate); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if st, err = game.Play(st, first.Other(), domain.ChoiceDefect); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
	}
	return st
}
