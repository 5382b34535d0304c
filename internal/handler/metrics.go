package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	navigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reader_navigations_total",
			Help: "Total number of navigation requests by target kind and outcome.",
		},
		[]string{"target", "outcome"},
	)

	restartsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reader_restarts_total",
		Help: "Total number of successful story restarts.",
	})

	balanceCreditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reader_balance_credits_total",
			Help: "Total number of balance credit requests by status.",
		},
		[]string{"status"},
	)
)
