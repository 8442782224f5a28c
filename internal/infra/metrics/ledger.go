package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		ledgerPaymentsTotal,
		ledgerRevenueTotal,
		ledgerConflictsTotal,
		ledgerAmendmentsTotal,
	)
}

var (
	ledgerPaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payments_total",
			Help: "Payments recorded, by plan type and whether the amount was overridden.",
		},
		[]string{"plan_type", "overridden"},
	)

	ledgerRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_revenue_total",
			Help: "Sum of recorded payment amounts in KRW, by plan type.",
		},
		[]string{"plan_type"},
	)

	ledgerConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_conflicts_total",
			Help: "Payments rejected because the member changed concurrently.",
		},
	)

	ledgerAmendmentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_amendments_total",
			Help: "Administrative payment amendments.",
		},
	)
)

func IncPaymentRecorded(planType string, overridden bool, amount int64) {
	ledgerPaymentsTotal.WithLabelValues(norm(planType), strconv.FormatBool(overridden)).Inc()
	ledgerRevenueTotal.WithLabelValues(norm(planType)).Add(float64(amount))
}

func IncLedgerConflict() { ledgerConflictsTotal.Inc() }

func IncPaymentAmended() { ledgerAmendmentsTotal.Inc() }
