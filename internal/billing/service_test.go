package billing

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGetOrCreateDefaultsToFree(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	sub, err := svc.GetOrCreate(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if sub.Plan != PlanFree {
		t.Fatalf("plan = %q, want free", sub.Plan)
	}
	if sub.EarningsAnalysisCount != 0 || sub.PortfolioAnalysisCount != 0 {
		t.Fatal("new subscription should have zero usage")
	}
}

func TestFreeTierEarningsQuota(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.CheckEarningsAnalysis(ctx, "user-1"); err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		svc.IncrementUsage(ctx, "user-1", UsageEarningsAnalysis)
	}
	if err := svc.CheckEarningsAnalysis(ctx, "user-1"); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("err = %v, want ErrLimitReached", err)
	}
}

func TestFreeTierPortfolioQuota(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	if err := svc.CheckPortfolioAnalysis(ctx, "user-1"); err != nil {
		t.Fatalf("first check: %v", err)
	}
	svc.IncrementUsage(ctx, "user-1", UsagePortfolioAnalysis)
	if err := svc.CheckPortfolioAnalysis(ctx, "user-1"); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("err = %v, want ErrLimitReached", err)
	}
}

func TestFreeTierGatesCompareAndForecast(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	if err := svc.CheckCompare(ctx, "user-1"); !errors.Is(err, ErrUpgradeRequired) {
		t.Fatalf("compare err = %v, want ErrUpgradeRequired", err)
	}
	if err := svc.CheckForecast(ctx, "user-1"); !errors.Is(err, ErrUpgradeRequired) {
		t.Fatalf("forecast err = %v, want ErrUpgradeRequired", err)
	}
}

func TestProTierUnlimited(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	ctx := context.Background()

	now := time.Now().UTC()
	if _, err := repo.Create(ctx, Subscription{
		UserID:                "pro-user",
		Plan:                  PlanPro,
		EarningsAnalysisCount: 99,
		UsageResetAt:          now,
		CreatedAt:             now,
		UpdatedAt:             now,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.CheckEarningsAnalysis(ctx, "pro-user"); err != nil {
		t.Fatalf("earnings: %v", err)
	}
	if err := svc.CheckCompare(ctx, "pro-user"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := svc.CheckForecast(ctx, "pro-user"); err != nil {
		t.Fatalf("forecast: %v", err)
	}
}

func TestMonthlyUsageReset(t *testing.T) {
	repo := NewMemoryRepo()
	svc := &Service{Repo: repo}
	ctx := context.Background()

	old := time.Now().UTC().Add(-31 * 24 * time.Hour)
	if _, err := repo.Create(ctx, Subscription{
		UserID:                 "user-1",
		Plan:                   PlanFree,
		EarningsAnalysisCount:  3,
		PortfolioAnalysisCount: 1,
		UsageResetAt:           old,
		CreatedAt:              old,
		UpdatedAt:              old,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sub, err := svc.GetOrCreate(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if sub.EarningsAnalysisCount != 0 || sub.PortfolioAnalysisCount != 0 {
		t.Fatalf("counters not reset: %+v", sub)
	}
	if err := svc.CheckEarningsAnalysis(ctx, "user-1"); err != nil {
		t.Fatalf("check after reset: %v", err)
	}
}

func TestPortfolioAndHoldingCaps(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	if err := svc.CheckCreatePortfolio(ctx, "user-1", 0); err != nil {
		t.Fatalf("first portfolio: %v", err)
	}
	if err := svc.CheckCreatePortfolio(ctx, "user-1", 1); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("second portfolio err = %v, want ErrLimitReached", err)
	}
	if err := svc.CheckAddHolding(ctx, "user-1", 9); err != nil {
		t.Fatalf("tenth holding: %v", err)
	}
	if err := svc.CheckAddHolding(ctx, "user-1", 10); !errors.Is(err, ErrLimitReached) {
		t.Fatalf("eleventh holding err = %v, want ErrLimitReached", err)
	}
}
