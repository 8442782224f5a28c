//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"gymdesk/internal/domain/model"
	"gymdesk/internal/domain/ports/repository"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func seedGym(t *testing.T, id string) *model.Gym {
	t.Helper()
	g, err := model.NewGym(id, "owner-"+id, "Gym "+id)
	if err != nil {
		t.Fatalf("model.NewGym() failed: %v", err)
	}
	if err := NewGymRepo(testPool).Save(context.Background(), repository.NoTX, g); err != nil {
		t.Fatalf("Failed to save gym: %v", err)
	}
	return g
}

func seedMember(t *testing.T, gymID, id, name string) *model.Member {
	t.Helper()
	m, err := model.NewMember(id, gymID, name)
	if err != nil {
		t.Fatalf("model.NewMember() failed: %v", err)
	}
	if err := NewMemberRepo(testPool).Save(context.Background(), repository.NoTX, m); err != nil {
		t.Fatalf("Failed to save member: %v", err)
	}
	return m
}
