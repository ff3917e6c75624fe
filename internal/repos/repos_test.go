package repos

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.Provider{},
		&types.Procedure{},
		&types.ProviderProcedure{},
		&types.Rating{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func sampleProvider() *types.Provider {
	return &types.Provider{
		ProviderID:      "330101",
		ProviderName:    "Mount Sinai Hospital",
		ProviderCity:    "New York",
		ProviderState:   "NY",
		ProviderZipCode: "10001",
	}
}

func TestProviderUpsertCreatesThenOverwrites(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewProviderRepo(gdb, testLogger(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, nil, sampleProvider())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Fatalf("created: want=true got=false")
	}

	renamed := sampleProvider()
	renamed.ProviderName = "Mount Sinai Medical Center"
	renamed.ProviderZipCode = "10002"
	created, err = repo.Upsert(ctx, nil, renamed)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Fatalf("created on second upsert: want=false got=true")
	}

	got, err := repo.GetByID(ctx, nil, "330101")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.ProviderName != "Mount Sinai Medical Center" {
		t.Fatalf("name: want=%q got=%q", "Mount Sinai Medical Center", got.ProviderName)
	}
	if got.ProviderZipCode != "10002" {
		t.Fatalf("zip: want=10002 got=%q", got.ProviderZipCode)
	}

	count, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count: want=1 got=%d", count)
	}
}

func TestProcedureGetOrCreateRefreshesDescription(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewProcedureRepo(gdb, testLogger(t))
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, nil, "001", "HEART TRANSPLANT")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if first.ID == 0 {
		t.Fatalf("surrogate id not assigned")
	}

	second, err := repo.GetOrCreate(ctx, nil, "001", "HEART TRANSPLANT OR IMPLANT W MCC")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id drifted for same code: first=%d second=%d", first.ID, second.ID)
	}
	if second.MsDrgDescription != "HEART TRANSPLANT OR IMPLANT W MCC" {
		t.Fatalf("description not refreshed: got=%q", second.MsDrgDescription)
	}

	count, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count: want=1 got=%d", count)
	}
}

func TestProviderProcedureUpsertMergesNonNil(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewProviderProcedureRepo(gdb, testLogger(t))
	ctx := context.Background()

	discharges := int64(25)
	covered := 1000.0
	created, err := repo.Upsert(ctx, nil, &types.ProviderProcedure{
		ProviderID:            "330101",
		ProcedureID:           1,
		TotalDischarges:       &discharges,
		AverageCoveredCharges: &covered,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Fatalf("created: want=true got=false")
	}

	newCovered := 2000.0
	created, err = repo.Upsert(ctx, nil, &types.ProviderProcedure{
		ProviderID:            "330101",
		ProcedureID:           1,
		AverageCoveredCharges: &newCovered,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if created {
		t.Fatalf("created on merge: want=false got=true")
	}

	var link types.ProviderProcedure
	if err := gdb.Where("provider_id = ? AND procedure_id = ?", "330101", 1).First(&link).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if link.TotalDischarges == nil || *link.TotalDischarges != 25 {
		t.Fatalf("discharges overwritten by nil: got=%v", link.TotalDischarges)
	}
	if link.AverageCoveredCharges == nil || *link.AverageCoveredCharges != 2000.0 {
		t.Fatalf("covered charges: want=2000 got=%v", link.AverageCoveredCharges)
	}

	count, err := repo.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count: want=1 got=%d", count)
	}
}

func TestRatingUpsertOverwrites(t *testing.T) {
	gdb := openTestDB(t)
	repo := NewRatingRepo(gdb, testLogger(t))
	ctx := context.Background()

	if err := repo.Upsert(ctx, nil, "330101", 4); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(ctx, nil, "330101", 9); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := repo.GetByProviderID(ctx, nil, "330101")
	if err != nil {
		t.Fatalf("GetByProviderID: %v", err)
	}
	if got.Rating != 9 {
		t.Fatalf("rating: want=9 got=%d", got.Rating)
	}

	var count int64
	if err := gdb.Model(&types.Rating{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("rating rows: want=1 got=%d", count)
	}
}
