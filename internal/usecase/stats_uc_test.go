//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymdesk/internal/domain"
	"gymdesk/internal/domain/model"
	"gymdesk/internal/usecase"
)

func TestStatsUseCase_Members(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.addMember("a", model.Entitlement{PaymentEndDate: timePtr(date(2024, 8, 1))})
	f.addMember("b", model.Entitlement{PaymentEndDate: timePtr(date(2024, 6, 3))})
	f.addMember("c", model.Entitlement{PaymentEndDate: timePtr(date(2024, 1, 1))})
	f.addMember("d", model.Entitlement{})
	f.addMember("e", model.Entitlement{RemainingSessions: intPtr(4)})

	uc := usecase.NewStatsUseCase(f.gyms, f.members, f.payments, f.identity, fixedClock(date(2024, 6, 1)), 7, newTestLogger())
	counts, err := uc.Members(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := map[model.EntitlementState]int{
		model.StateActive:    2,
		model.StateExpiring:  1,
		model.StateExpired:   1,
		model.StateNeverPaid: 1,
	}
	for state, n := range want {
		if counts[state] != n {
			t.Errorf("%s: expected %d, got %d", state, n, counts[state])
		}
	}
}

func TestStatsUseCase_Revenue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, p := range []struct {
		amount int64
		on     time.Time
	}{
		{1000, date(2024, 5, 3)},
		{2000, date(2024, 5, 20)},
		{4000, date(2024, 6, 1)},
		{8000, date(2023, 1, 1)},
	} {
		pay, _ := model.NewPayment(gymID, "m1", p.amount, p.on, model.MethodCard, model.PlanSnapshot{}, "")
		_ = f.payments.Save(ctx, nil, pay)
	}
	uc := usecase.NewStatsUseCase(f.gyms, f.members, f.payments, f.identity, fixedClock(date(2024, 6, 15)), 7, newTestLogger())

	t.Run("should group by month", func(t *testing.T) {
		buckets, err := uc.Revenue(ctx, "month", 3)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(buckets) != 2 {
			t.Fatalf("expected 2 buckets, got %+v", buckets)
		}
		if buckets[0].Period != "2024-05" || buckets[0].Total != 3000 || buckets[0].Count != 2 {
			t.Errorf("unexpected may bucket: %+v", buckets[0])
		}
		if buckets[1].Period != "2024-06" || buckets[1].Total != 4000 {
			t.Errorf("unexpected june bucket: %+v", buckets[1])
		}
	})

	t.Run("should group by year", func(t *testing.T) {
		buckets, err := uc.Revenue(ctx, "year", 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(buckets) != 2 || buckets[0].Total != 8000 || buckets[1].Total != 7000 {
			t.Errorf("unexpected buckets: %+v", buckets)
		}
	})

	t.Run("should reject unknown periods", func(t *testing.T) {
		if _, err := uc.Revenue(ctx, "week", 1); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
