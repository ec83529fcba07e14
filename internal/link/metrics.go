package link

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TokensEncoded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "link_tokens_encoded_total",
			Help: "Total game states encoded into share tokens",
		},
	)
	TokenSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "link_token_size_chars",
			Help:    "Encoded token length in characters",
			Buckets: []float64{250, 500, 750, 1000, 1250, 1500, 1750, 2000, 2500},
		},
	)
	DecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_decode_failures_total",
			Help: "Token decode failures by pipeline stage",
		},
		[]string{"stage"},
	)
	ContentStripped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_content_stripped_total",
			Help: "Degradation ladder steps applied to oversized states",
		},
		[]string{"step"},
	)
)

func init() {
	prometheus.MustRegister(TokensEncoded)
	prometheus.MustRegister(TokenSize)
	prometheus.MustRegister(DecodeFailures)
	prometheus.MustRegister(ContentStripped)
}
