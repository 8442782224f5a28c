package apiv1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/usecase"
)

// ===== Gym =====

func (s *Server) getGym(w http.ResponseWriter, r *http.Request) {
	g, err := s.gymUC.Current(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toGym(g))
}

func (s *Server) openGym(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.gymUC.Open(r.Context(), body.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGym(g))
}

// ===== Catalog =====

func (s *Server) getCatalog(w http.ResponseWriter, r *http.Request) {
	c, err := s.pricingUC.Catalog(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := struct {
		Plans   []planJSON   `json:"plans"`
		Options []optionJSON `json:"options"`
	}{Plans: []planJSON{}, Options: []optionJSON{}}
	for _, p := range c.Plans {
		out.Plans = append(out.Plans, toPlan(p))
	}
	for _, o := range c.Options {
		out.Options = append(out.Options, toOption(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name           string         `json:"name"`
		Type           model.PlanType `json:"type"`
		Price          int64          `json:"price"`
		DurationMonths int            `json:"duration_months"`
		DurationDays   int            `json:"duration_days"`
		SessionCount   int            `json:"session_count"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.pricingUC.CreatePlan(r.Context(), usecase.PlanInput(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlan(p))
}

func (s *Server) deactivatePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.pricingUC.DeactivatePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createOption(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GroupName string `json:"group_name"`
		Name      string `json:"name"`
		Price     int64  `json:"price"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	o, err := s.pricingUC.CreateOption(r.Context(), usecase.OptionInput(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOption(o))
}

func (s *Server) deactivateOption(w http.ResponseWriter, r *http.Request) {
	if err := s.pricingUC.DeactivateOption(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Members =====

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.MemberFilter{
		Status: model.MemberStatus(q.Get("status")),
		Query:  q.Get("q"),
		Sort:   model.MemberSort(q.Get("sort")),
		Desc:   q.Get("desc") == "true",
	}
	var err error
	if f.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if f.Offset, err = intParam(q.Get("offset"), "offset"); err != nil {
		s.writeError(w, r, err)
		return
	}
	views, err := s.memberUC.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]memberJSON, 0, len(views))
	for _, v := range views {
		items = append(items, toMember(v))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) registerMember(w http.ResponseWriter, r *http.Request) {
	var body memberRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := body.input()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.memberUC.Register(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMember(v))
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	v, err := s.memberUC.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(v))
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	var body memberPatch
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	upd, err := body.update()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	v, err := s.memberUC.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(v))
}

func (s *Server) deleteMembers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.memberUC.Delete(r.Context(), body.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": res.Deleted, "deactivated": res.Deactivated})
}

func (s *Server) memberPayments(w http.ResponseWriter, r *http.Request) {
	list, err := s.ledgerUC.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items := make([]paymentJSON, 0, len(list))
	for _, p := range list {
		items = append(items, toPayment(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// ===== Ledger =====

func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	var body purchaseRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.request()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ledgerUC.RecordPayment(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"payment": toPayment(res.Payment),
		"member":  toEntitlement(res.Member.Entitlement()),
		"message": s.tr.T("payment.recorded"),
	})
}

func (s *Server) quotePayment(w http.ResponseWriter, r *http.Request) {
	var body purchaseRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := body.request()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.ledgerUC.Quote(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuote(q))
}

func (s *Server) amendPayment(w http.ResponseWriter, r *http.Request) {
	var body amendRequest
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	date, err := parseDate("payment_date", body.PaymentDate)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.ledgerUC.AmendPayment(r.Context(), chi.URLParam(r, "id"), model.PaymentAmendment{
		Amount:      body.Amount,
		PaymentDate: date,
		Note:        body.Note,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

func (s *Server) repeatPayment(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledgerUC.RepeatPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDraft(d))
}

// ===== Stats =====

func (s *Server) memberStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.statsUC.Members(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := map[model.EntitlementState]int{
		model.StateActive:    0,
		model.StateExpiring:  0,
		model.StateExpired:   0,
		model.StateNeverPaid: 0,
	}
	for k, v := range counts {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) revenueStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := q.Get("period")
	if period == "" {
		period = "month"
	}
	n, err := intParam(q.Get("n"), "n")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buckets, err := s.statsUC.Revenue(r.Context(), period, n)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	type bucketJSON struct {
		Period string `json:"period"`
		Total  int64  `json:"total"`
		Count  int    `json:"count"`
	}
	items := make([]bucketJSON, 0, len(buckets))
	for _, b := range buckets {
		items = append(items, bucketJSON(b))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"period": period, "items": items})
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, domain.Invalid(name, "must be a non-negative integer")
	}
	return n, nil
}
