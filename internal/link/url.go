package link

import (
	"errors"
	"net/url"

	"goldlink/internal/domain"
)

// StateParam is the single query parameter carrying the token. No other
// parameters are reserved.
const StateParam = "s"

// Transport is the only component that touches share URLs. It drives the
// codec on the way in and the size governor plus codec on the way out.
type Transport struct {
	codec  *Codec
	base   *url.URL
	budget int
}

// NewTransport builds a transport boundary around a base URL (the page the
// share links open) and a whole-URL character budget.
func NewTransport(codec *Codec, baseURL string, budget int) (*Transport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if budget <= 0 {
		budget = DefaultMaxURLLen
	}
	return &Transport{codec: codec, base: base, budget: budget}, nil
}

// Codec exposes the underlying codec for size estimation.
func (t *Transport) Codec() *Codec {
	return t.codec
}

// TokenBudget is the character budget left for the token itself once the
// base URL and the query key are accounted for.
func (t *Transport) TokenBudget() int {
	return t.budget - len(t.base.String()) - len("?"+StateParam+"=")
}

// FromURL extracts and decodes the state parameter from a location. An
// absent parameter is a valid, non-error outcome: no game in progress. On
// success the one-shot rematch snapshot, if present, is detached from the
// state and returned separately — this is the decode that consumes it.
func (t *Transport) FromURL(u *url.URL) (*domain.GameState, *domain.GameState, error) {
	token := u.Query().Get(StateParam)
	if token == "" {
		return nil, nil, nil
	}
	return t.FromToken(token)
}

// FromToken decodes a bare token with the same snapshot-detaching
// semantics as FromURL.
func (t *Transport) FromToken(token string) (*domain.GameState, *domain.GameState, error) {
	st, err := t.codec.Decode(token)
	if err != nil {
		return nil, nil, err
	}

	var snapshot *domain.GameState
	if st.PreviousGameResults != nil {
		snapshot = st.PreviousGameResults
		st.PreviousGameResults = nil
	}

	return st, snapshot, nil
}

// ShareURL runs the size governor and embeds the resulting token into a
// complete share URL. Browsers rendering the result should replace the
// current history entry, not push one, so back navigation cannot replay a
// stale intermediate choice.
//
// On ErrBudgetExhausted the returned URL is still usable — over budget, at
// the caller's explicit risk — alongside the FitResult describing what was
// already stripped.
func (t *Transport) ShareURL(st *domain.GameState) (string, *FitResult, error) {
	res, err := t.codec.Fit(st, t.TokenBudget())
	if err != nil && !errors.Is(err, ErrBudgetExhausted) {
		return "", nil, err
	}

	u := *t.base
	q := u.Query()
	q.Set(StateParam, res.Token)
	u.RawQuery = q.Encode()

	return u.String(), res, err
}
