package ledger

import (
	"context"
	"testing"

	"github.com/emreakdag/stockdesk/internal/apperror"
	domain "github.com/emreakdag/stockdesk/internal/ledger"
	"github.com/emreakdag/stockdesk/internal/platform/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStartJob_And_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	id, err := repo.StartJob(ctx, "batch_run", "PIPELINE")
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero job id")
	}

	jobs, err := repo.ListJobs(ctx, domain.JobFilter{}, 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	j := jobs[0]
	if j.ID != id {
		t.Errorf("expected id %d, got %d", id, j.ID)
	}
	if j.Status != domain.StatusRunning {
		t.Errorf("expected running, got %s", j.Status)
	}
	if j.StartedAt == "" {
		t.Error("expected started_at to be set")
	}
	if j.FinishedAt != "" {
		t.Errorf("expected empty finished_at, got %s", j.FinishedAt)
	}
}

func TestFinishJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	id, err := repo.StartJob(ctx, "batch_run", "PIPELINE")
	if err != nil {
		t.Fatal(err)
	}

	if err := repo.FinishJob(ctx, id, domain.StatusFailed, "2 symbols failed"); err != nil {
		t.Fatalf("finish job: %v", err)
	}

	jobs, err := repo.ListJobs(ctx, domain.JobFilter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	j := jobs[0]
	if j.Status != domain.StatusFailed {
		t.Errorf("expected failed, got %s", j.Status)
	}
	if j.FinishedAt == "" {
		t.Error("expected finished_at to be set")
	}
	if j.ErrorMessage != "2 symbols failed" {
		t.Errorf("unexpected error message: %q", j.ErrorMessage)
	}
}

func TestFinishJob_InvalidStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	id, err := repo.StartJob(ctx, "batch_run", "")
	if err != nil {
		t.Fatal(err)
	}

	err = repo.FinishJob(ctx, id, domain.StatusRunning, "")
	if apperror.CodeOf(err) != apperror.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The job must remain untouched.
	jobs, err := repo.ListJobs(ctx, domain.JobFilter{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if jobs[0].Status != domain.StatusRunning {
		t.Errorf("expected running, got %s", jobs[0].Status)
	}
	if jobs[0].FinishedAt != "" {
		t.Errorf("expected empty finished_at, got %s", jobs[0].FinishedAt)
	}
}

func TestFinishJob_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	err := repo.FinishJob(context.Background(), 999, domain.StatusSuccess, "")
	if apperror.CodeOf(err) != apperror.Storage {
		t.Fatalf("expected storage error for missing job, got %v", err)
	}
}

func TestListJobs_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	runID, err := repo.StartJob(ctx, "batch_run", "PIPELINE")
	if err != nil {
		t.Fatal(err)
	}
	refreshID, err := repo.StartJob(ctx, "entity_refresh", "600519.SH")
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.FinishJob(ctx, refreshID, domain.StatusSuccess, ""); err != nil {
		t.Fatal(err)
	}

	jobs, err := repo.ListJobs(ctx, domain.JobFilter{Type: "batch_run"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != runID {
		t.Errorf("expected only the batch_run job, got %+v", jobs)
	}

	jobs, err = repo.ListJobs(ctx, domain.JobFilter{Status: domain.StatusSuccess}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != refreshID {
		t.Errorf("expected only the finished job, got %+v", jobs)
	}

	jobs, err = repo.ListJobs(ctx, domain.JobFilter{Symbol: "600519.SH"}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ID != refreshID {
		t.Errorf("expected only the symbol's job, got %+v", jobs)
	}
}

func TestListJobs_NewestFirstAndLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		id, err := repo.StartJob(ctx, "batch_run", "")
		if err != nil {
			t.Fatal(err)
		}
		last = id
	}

	jobs, err := repo.ListJobs(ctx, domain.JobFilter{}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != last {
		t.Errorf("expected newest job first, got id %d", jobs[0].ID)
	}
}

func TestListJobs_InvalidLimit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	_, err := repo.ListJobs(context.Background(), domain.JobFilter{}, 0)
	if apperror.CodeOf(err) != apperror.Validation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpsertSymbol_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	s := domain.Symbol{Symbol: "600519.SH", Market: "CN", Name: "Kweichow Moutai", Currency: "CNY", IsActive: true}
	if err := repo.UpsertSymbol(ctx, s); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	s.Name = "Kweichow Moutai Co"
	s.IsActive = false
	if err := repo.UpsertSymbol(ctx, s); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	symbols, err := repo.ListSymbols(ctx, false, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(symbols))
	}
	if symbols[0].Name != "Kweichow Moutai Co" {
		t.Errorf("expected updated name, got %s", symbols[0].Name)
	}
	if symbols[0].IsActive {
		t.Error("expected symbol to be inactive after update")
	}
}

func TestListSymbols_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	for _, s := range []domain.Symbol{
		{Symbol: "600519.SH", Market: "CN", Currency: "CNY", IsActive: true},
		{Symbol: "00700.HK", Market: "HK", Currency: "HKD", IsActive: true},
		{Symbol: "000001.SZ", Market: "CN", Currency: "CNY", IsActive: false},
	} {
		if err := repo.UpsertSymbol(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	active, err := repo.ListSymbols(ctx, true, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 2 {
		t.Errorf("expected 2 active symbols, got %d", len(active))
	}

	cn, err := repo.ListSymbols(ctx, false, "CN")
	if err != nil {
		t.Fatal(err)
	}
	if len(cn) != 2 {
		t.Errorf("expected 2 CN symbols, got %d", len(cn))
	}
	if cn[0].Symbol != "000001.SZ" {
		t.Errorf("expected symbols sorted ascending, got %s first", cn[0].Symbol)
	}
}

func TestRecordSnapshot_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	snap := domain.Snapshot{
		Symbol:      "600519.SH",
		DatasetType: "price_history",
		AsOfDate:    "2025-06-30",
		FilePath:    "data/normalized/2025-06-30/600519_SH/price_history-2025-06-30.csv",
		RowCount:    120,
		Checksum:    "aaa",
	}
	if err := repo.RecordSnapshot(ctx, snap); err != nil {
		t.Fatalf("record: %v", err)
	}

	snap.RowCount = 121
	snap.Checksum = "bbb"
	if err := repo.RecordSnapshot(ctx, snap); err != nil {
		t.Fatalf("record again: %v", err)
	}

	var count int
	var checksum string
	row := db.QueryRow(`SELECT COUNT(*), MAX(checksum) FROM dataset_snapshots`)
	if err := row.Scan(&count, &checksum); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 snapshot row, got %d", count)
	}
	if checksum != "bbb" {
		t.Errorf("expected refreshed checksum, got %s", checksum)
	}
}

func TestRecordReport_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	rep := domain.Report{
		Symbol:     "WATCHLIST",
		ReportType: "watchlist_screener",
		ReportDate: "2025-06-30",
		FilePath:   "data/reports/2025-06-30/watchlist_screener/watchlist-2025-06-30.md",
	}
	if err := repo.RecordReport(ctx, rep); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := repo.RecordReport(ctx, rep); err != nil {
		t.Fatalf("record again: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM reports`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 report row, got %d", count)
	}
}

func TestFxRate_DirectAndReverse(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	if err := repo.UpsertFxRate(ctx, "2025-06-30", "HKD", "CNY", 0.92, "manual"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rate, ok, err := repo.GetFxRate(ctx, "2025-06-30", "HKD", "CNY", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 0.92 {
		t.Errorf("expected 0.92, got %v (ok=%v)", rate, ok)
	}

	// The reverse pair is served from the reciprocal.
	rate, ok, err = repo.GetFxRate(ctx, "2025-06-30", "CNY", "HKD", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected reverse lookup to succeed")
	}
	want := 1.0 / 0.92
	if rate < want-1e-9 || rate > want+1e-9 {
		t.Errorf("expected %v, got %v", want, rate)
	}
}

func TestFxRate_SameCurrency(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	rate, ok, err := repo.GetFxRate(context.Background(), "2025-06-30", "CNY", "CNY", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 1.0 {
		t.Errorf("expected 1.0 for same currency, got %v (ok=%v)", rate, ok)
	}
}

func TestFxRate_NearestAndExact(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	if err := repo.UpsertFxRate(ctx, "2025-06-27", "USD", "CNY", 7.18, "yahoo"); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpsertFxRate(ctx, "2025-06-25", "USD", "CNY", 7.20, "yahoo"); err != nil {
		t.Fatal(err)
	}

	// Weekend date: the nearest earlier rate wins.
	rate, ok, err := repo.GetFxRate(ctx, "2025-06-29", "USD", "CNY", true)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 7.18 {
		t.Errorf("expected nearest rate 7.18, got %v (ok=%v)", rate, ok)
	}

	// Strict lookup on the same date finds nothing.
	_, ok, err = repo.GetFxRate(ctx, "2025-06-29", "USD", "CNY", false)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no exact match for 2025-06-29")
	}

	// Empty date returns the most recent rate.
	rate, ok, err = repo.GetFxRate(ctx, "", "USD", "CNY", false)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 7.18 {
		t.Errorf("expected latest rate 7.18, got %v (ok=%v)", rate, ok)
	}
}

func TestFxRate_MissingPair(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	_, ok, err := repo.GetFxRate(context.Background(), "2025-06-30", "JPY", "CNY", true)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no rate for unknown pair")
	}
}

func TestUpsertFxRate_Validation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	if err := repo.UpsertFxRate(ctx, "2025-06-30", "HKD", "CNY", 0, "manual"); apperror.CodeOf(err) != apperror.Validation {
		t.Errorf("expected validation error for zero rate, got %v", err)
	}
	if err := repo.UpsertFxRate(ctx, "2025-06-30", "", "CNY", 0.92, "manual"); apperror.CodeOf(err) != apperror.Validation {
		t.Errorf("expected validation error for empty base, got %v", err)
	}
	if err := repo.UpsertFxRate(ctx, "2025-06-30", "HKD", "CNY", 0.92, ""); apperror.CodeOf(err) != apperror.Validation {
		t.Errorf("expected validation error for empty source, got %v", err)
	}
}

func TestResolveToReporting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	rate, ok, err := repo.ResolveToReporting(ctx, "CNY", "2025-06-30", true)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 1.0 {
		t.Errorf("expected 1.0 for reporting currency, got %v (ok=%v)", rate, ok)
	}

	if err := repo.UpsertFxRate(ctx, "2025-06-28", "HKD", "CNY", 0.92, "manual"); err != nil {
		t.Fatal(err)
	}
	rate, ok, err = repo.ResolveToReporting(ctx, "hkd", "2025-06-30", true)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || rate != 0.92 {
		t.Errorf("expected 0.92 via nearest lookup, got %v (ok=%v)", rate, ok)
	}
}
