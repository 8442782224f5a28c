// Package apiv1 exposes the gym ledger as JSON under /api/v1.
package apiv1

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gymdesk/internal/domain/ports/adapter"
	"gymdesk/internal/usecase"
)

type Server struct {
	gymUC     usecase.GymUseCase
	memberUC  usecase.MemberUseCase
	ledgerUC  usecase.LedgerUseCase
	pricingUC usecase.PricingUseCase
	importUC  usecase.ImportUseCase
	statsUC   usecase.StatsUseCase

	tr        adapter.Translator
	maxUpload int64
	log       *zerolog.Logger
}

type UseCases struct {
	Gym     usecase.GymUseCase
	Member  usecase.MemberUseCase
	Ledger  usecase.LedgerUseCase
	Pricing usecase.PricingUseCase
	Import  usecase.ImportUseCase
	Stats   usecase.StatsUseCase
}

func NewServer(uc UseCases, tr adapter.Translator, maxUpload int64, logger *zerolog.Logger) *Server {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Server{
		gymUC:     uc.Gym,
		memberUC:  uc.Member,
		ledgerUC:  uc.Ledger,
		pricingUC: uc.Pricing,
		importUC:  uc.Import,
		statsUC:   uc.Stats,
		tr:        tr,
		maxUpload: maxUpload,
		log:       logger,
	}
}

// RegisterAPIV1 mounts every endpoint on r. r is expected to be the
// /api/v1 sub-router.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/gym", func(r chi.Router) {
		r.Get("/", s.getGym)
		r.Post("/", s.openGym)
	})

	r.Get("/catalog", s.getCatalog)
	r.Post("/plans", s.createPlan)
	r.Delete("/plans/{id}", s.deactivatePlan)
	r.Post("/options", s.createOption)
	r.Delete("/options/{id}", s.deactivateOption)

	r.Route("/members", func(r chi.Router) {
		r.Get("/", s.listMembers)
		r.Post("/", s.registerMember)
		r.Delete("/", s.deleteMembers)
		r.Get("/{id}", s.getMember)
		r.Patch("/{id}", s.updateMember)
		r.Get("/{id}/payments", s.memberPayments)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", s.recordPayment)
		r.Post("/quote", s.quotePayment)
		r.Patch("/{id}", s.amendPayment)
		r.Get("/{id}/repeat", s.repeatPayment)
	})

	r.Post("/imports/preview", s.previewImport)
	r.Post("/imports", s.runImport)

	r.Get("/stats/members", s.memberStats)
	r.Get("/stats/revenue", s.revenueStats)
}
