package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// API key authentication outcomes. The "result" label is one of:
// ok, missing, malformed, unknown, revoked, expired, error.
var APIKeyAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "nanobanana",
		Name:      "apikey_auth_total",
		Help:      "API key authentication attempts by outcome.",
	},
	[]string{"result"},
)

var GeneratedImagesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "nanobanana",
		Name:      "generated_images_total",
		Help:      "Successfully generated images.",
	},
)

var QuotaRejectedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "nanobanana",
		Name:      "quota_rejected_total",
		Help:      "Generation requests rejected by the daily usage limit.",
	},
)
