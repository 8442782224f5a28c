//go:build !integration

package apiv1_test

import (
	"context"
	"io"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/usecase"
)

// Unset funcs report ErrNotFound so that tests only wire what they need.

type mockGymUC struct {
	CurrentFunc func(ctx context.Context) (*model.Gym, error)
	OpenFunc    func(ctx context.Context, name string) (*model.Gym, error)
}

func (m *mockGymUC) Current(ctx context.Context) (*model.Gym, error) {
	if m.CurrentFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.CurrentFunc(ctx)
}
func (m *mockGymUC) Open(ctx context.Context, name string) (*model.Gym, error) {
	if m.OpenFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.OpenFunc(ctx, name)
}

type mockMemberUC struct {
	RegisterFunc func(ctx context.Context, in usecase.MemberInput) (*usecase.MemberView, error)
	GetFunc      func(ctx context.Context, id string) (*usecase.MemberView, error)
	ListFunc     func(ctx context.Context, f model.MemberFilter) ([]*usecase.MemberView, error)
	UpdateFunc   func(ctx context.Context, id string, u model.MemberUpdate) (*usecase.MemberView, error)
	DeleteFunc   func(ctx context.Context, ids []string) (*usecase.DeleteResult, error)
}

func (m *mockMemberUC) Register(ctx context.Context, in usecase.MemberInput) (*usecase.MemberView, error) {
	if m.RegisterFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.RegisterFunc(ctx, in)
}
func (m *mockMemberUC) Get(ctx context.Context, id string) (*usecase.MemberView, error) {
	if m.GetFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}
func (m *mockMemberUC) List(ctx context.Context, f model.MemberFilter) ([]*usecase.MemberView, error) {
	if m.ListFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.ListFunc(ctx, f)
}
func (m *mockMemberUC) Update(ctx context.Context, id string, u model.MemberUpdate) (*usecase.MemberView, error) {
	if m.UpdateFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.UpdateFunc(ctx, id, u)
}
func (m *mockMemberUC) Delete(ctx context.Context, ids []string) (*usecase.DeleteResult, error) {
	if m.DeleteFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.DeleteFunc(ctx, ids)
}

type mockLedgerUC struct {
	RecordPaymentFunc func(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseResult, error)
	QuoteFunc         func(ctx context.Context, req model.PurchaseRequest) (*model.Quote, error)
	AmendPaymentFunc  func(ctx context.Context, id string, a model.PaymentAmendment) (*model.Payment, error)
	RepeatPaymentFunc func(ctx context.Context, id string) (*model.DraftPurchase, error)
	HistoryFunc       func(ctx context.Context, memberID string) ([]*model.Payment, error)
}

func (m *mockLedgerUC) RecordPayment(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseResult, error) {
	if m.RecordPaymentFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.RecordPaymentFunc(ctx, req)
}
func (m *mockLedgerUC) Quote(ctx context.Context, req model.PurchaseRequest) (*model.Quote, error) {
	if m.QuoteFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.QuoteFunc(ctx, req)
}
func (m *mockLedgerUC) AmendPayment(ctx context.Context, id string, a model.PaymentAmendment) (*model.Payment, error) {
	if m.AmendPaymentFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.AmendPaymentFunc(ctx, id, a)
}
func (m *mockLedgerUC) RepeatPayment(ctx context.Context, id string) (*model.DraftPurchase, error) {
	if m.RepeatPaymentFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.RepeatPaymentFunc(ctx, id)
}
func (m *mockLedgerUC) History(ctx context.Context, memberID string) ([]*model.Payment, error) {
	if m.HistoryFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.HistoryFunc(ctx, memberID)
}

type mockPricingUC struct {
	CatalogFunc    func(ctx context.Context) (*model.Catalog, error)
	CreatePlanFunc func(ctx context.Context, in usecase.PlanInput) (*model.Plan, error)
}

func (m *mockPricingUC) Catalog(ctx context.Context) (*model.Catalog, error) {
	if m.CatalogFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.CatalogFunc(ctx)
}
func (m *mockPricingUC) CreatePlan(ctx context.Context, in usecase.PlanInput) (*model.Plan, error) {
	if m.CreatePlanFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.CreatePlanFunc(ctx, in)
}
func (m *mockPricingUC) CreateOption(ctx context.Context, in usecase.OptionInput) (*model.Option, error) {
	return nil, domain.ErrNotFound
}
func (m *mockPricingUC) DeactivatePlan(ctx context.Context, id string) error {
	if id == "missing" {
		return domain.NotFound("plan", id)
	}
	return nil
}
func (m *mockPricingUC) DeactivateOption(ctx context.Context, id string) error { return nil }

type mockImportUC struct {
	PreviewFunc func(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error)
	ImportFunc  func(ctx context.Context, r io.Reader, filename string) (*model.ImportReport, error)
}

func (m *mockImportUC) Preview(ctx context.Context, r io.Reader, filename string) ([]model.MemberDraft, int, error) {
	return m.PreviewFunc(ctx, r, filename)
}
func (m *mockImportUC) Import(ctx context.Context, r io.Reader, filename string) (*model.ImportReport, error) {
	return m.ImportFunc(ctx, r, filename)
}

type mockStatsUC struct {
	MembersFunc func(ctx context.Context) (map[model.EntitlementState]int, error)
	RevenueFunc func(ctx context.Context, period string, n int) ([]model.RevenueBucket, error)
}

func (m *mockStatsUC) Members(ctx context.Context) (map[model.EntitlementState]int, error) {
	return m.MembersFunc(ctx)
}
func (m *mockStatsUC) Revenue(ctx context.Context, period string, n int) ([]model.RevenueBucket, error) {
	return m.RevenueFunc(ctx, period, n)
}

type echoTranslator struct{}

func (echoTranslator) T(key string, args ...interface{}) string { return key }
