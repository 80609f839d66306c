package monitoring

import (
	"time"

	"auth-demo/signup"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	latencyHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	signupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signup_attempts_total",
			Help: "Signup submissions by outcome",
		},
		[]string{"outcome"},
	)
	signinCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_signins_total",
			Help: "OAuth sign-in callbacks by provider and result",
		},
		[]string{"provider", "result"},
	)
	hashHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "password_hash_duration_seconds",
			Help:    "Time spent hashing signup passwords",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)
)

// Init registers custom collectors.
func Init() {
	prometheus.MustRegister(requestCounter, latencyHistogram, signupCounter, signinCounter, hashHistogram)
}

// ObserveRequest records metrics.
func ObserveRequest(route, method, status string, seconds float64) {
	requestCounter.WithLabelValues(route, method, status).Inc()
	latencyHistogram.WithLabelValues(route, method).Observe(seconds)
}

// ObserveSignup counts a signup by outcome: created, invalid, not_created,
// failed or throttled.
func ObserveSignup(outcome string) {
	signupCounter.WithLabelValues(outcome).Inc()
}

func ObserveSignin(provider, result string) {
	signinCounter.WithLabelValues(provider, result).Inc()
}

type timedHasher struct {
	signup.Hasher
}

// InstrumentHasher records how long each Hash call takes.
func InstrumentHasher(h signup.Hasher) signup.Hasher {
	return timedHasher{Hasher: h}
}

func (t timedHasher) Hash(plain string) (string, error) {
	start := time.Now()
	defer func() { hashHistogram.Observe(time.Since(start).Seconds()) }()
	return t.Hasher.Hash(plain)
}
