package metrics

import (
	"gymdesk/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		membersRegisteredTotal,
		membersImportedTotal,
		membersEntitlement,
		importRateLimitedTotal,
	)
}

var (
	membersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "members_registered_total",
			Help: "Members registered one at a time.",
		},
	)

	membersImportedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "members_imported_total",
			Help: "Spreadsheet rows processed by the bulk import.",
		},
		[]string{"result"}, // 'inserted', 'dropped', 'failed'
	)

	membersEntitlement = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "members_entitlement",
			Help: "Members by entitlement state, summed over all gyms.",
		},
		[]string{"state"},
	)

	importRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "import_rate_limited_total",
			Help: "Uploads refused by the per-gym rate limit.",
		},
	)
)

func IncMemberRegistered() { membersRegisteredTotal.Inc() }

func AddMembersImported(result string, n int) {
	membersImportedTotal.WithLabelValues(norm(result)).Add(float64(n))
}

func IncImportRateLimited() { importRateLimitedTotal.Inc() }

// SetMembersEntitlement replaces the gauge values. States missing from
// counts are reset to zero.
func SetMembersEntitlement(counts map[model.EntitlementState]int) {
	states := []model.EntitlementState{
		model.StateActive,
		model.StateExpiring,
		model.StateExpired,
		model.StateNeverPaid,
	}
	for _, s := range states {
		membersEntitlement.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
}
