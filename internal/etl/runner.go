package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
	"github.com/medrates/pricing-backend/internal/repos"
	"github.com/medrates/pricing-backend/internal/types"
)

// RunState tracks where the batch driver is in its lifecycle. Failed is
// reachable from any state.
type RunState string

const (
	StateNotStarted RunState = "not_started"
	StateConnected  RunState = "connected"
	StateStreaming  RunState = "streaming"
	StateFiltering  RunState = "filtering"
	StateProcessing RunState = "processing"
	StateCommitted  RunState = "committed"
	StateClosed     RunState = "closed"
	StateFailed     RunState = "failed"
)

// DefaultRegion restricts ingestion to New York providers.
const DefaultRegion = "NY"

// consecutive chunk failures tolerated before the run gives up; keeps an
// unreadable tail from spinning forever.
const maxChunkFailures = 3

// Result aggregates one run. Nothing durable exists unless the run reached
// StateCommitted.
type Result struct {
	Processed int
	Errored   int
	Chunks    int
	Duration  time.Duration
}

// Runner drives one ETL pass: stream the file in chunks, keep only rows for
// the target region, upsert each row's entities, commit once at the end.
// Runs are idempotent, so recovery after a failed run is a plain re-run.
// Concurrent runs against the same store are not coordinated; operate it as
// a single exclusive process.
type Runner struct {
	db                    *gorm.DB
	log                   *logger.Logger
	providerRepo          repos.ProviderRepo
	procedureRepo         repos.ProcedureRepo
	providerProcedureRepo repos.ProviderProcedureRepo
	ratingRepo            repos.RatingRepo

	csvPath   string
	chunkSize int
	region    string
	state     RunState
}

func NewRunner(
	db *gorm.DB,
	baseLog *logger.Logger,
	providerRepo repos.ProviderRepo,
	procedureRepo repos.ProcedureRepo,
	providerProcedureRepo repos.ProviderProcedureRepo,
	ratingRepo repos.RatingRepo,
	csvPath string,
	chunkSize int,
	region string,
) *Runner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if region == "" {
		region = DefaultRegion
	}
	return &Runner{
		db:                    db,
		log:                   baseLog.With("component", "ETLRunner"),
		providerRepo:          providerRepo,
		procedureRepo:         procedureRepo,
		providerProcedureRepo: providerProcedureRepo,
		ratingRepo:            ratingRepo,
		csvPath:               csvPath,
		chunkSize:             chunkSize,
		region:                region,
		state:                 StateNotStarted,
	}
}

func (r *Runner) State() RunState { return r.state }

func (r *Runner) setState(log *logger.Logger, next RunState) {
	log.Debug("State transition", "from", string(r.state), "to", string(next))
	r.state = next
}

// Run executes the full pass. The whole run happens inside one transaction
// committed after the last chunk; a failure before that point leaves the
// store untouched.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runLog := r.log.With("run_id", uuid.New().String())
	runLog.Info("Starting ETL run", "csv_path", r.csvPath, "chunk_size", r.chunkSize, "region", r.region)

	if err := r.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		r.setState(runLog, StateFailed)
		return nil, fmt.Errorf("store liveness check: %w", err)
	}
	r.setState(runLog, StateConnected)

	reader, err := NewChunkReader(r.csvPath, r.chunkSize, runLog)
	if err != nil {
		r.setState(runLog, StateFailed)
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer reader.Close()
	r.setState(runLog, StateStreaming)

	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		r.setState(runLog, StateFailed)
		return nil, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	result := &Result{}
	// Explicit per-run accumulator: a provider rated in this run is not
	// re-rolled by later rows.
	rated := make(map[string]int)

	chunkFailures := 0
	for {
		chunk, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			chunkFailures++
			runLog.Error("Abandoning chunk", "chunk", result.Chunks+1, "error", err)
			if chunkFailures >= maxChunkFailures {
				tx.Rollback()
				r.setState(runLog, StateFailed)
				return nil, fmt.Errorf("too many consecutive chunk failures: %w", err)
			}
			continue
		}
		chunkFailures = 0
		result.Chunks++
		chunkLog := runLog.With("chunk", chunk.Index)

		r.setState(chunkLog, StateFiltering)
		matched := r.filterRegion(chunk.Rows)
		if len(matched) == 0 {
			chunkLog.Info("No matching providers in chunk, skipping", "total_rows", len(chunk.Rows))
			r.setState(chunkLog, StateStreaming)
			continue
		}
		chunkLog.Info("Filtered chunk", "matched", len(matched), "total_rows", len(chunk.Rows))

		r.setState(chunkLog, StateProcessing)
		processed, errored := r.processRows(ctx, tx, chunkLog, matched, rated)
		result.Processed += processed
		result.Errored += errored
		chunkLog.Info("Chunk completed", "processed", processed, "errors", errored)
		r.setState(chunkLog, StateStreaming)
	}

	if err := tx.Commit().Error; err != nil {
		r.setState(runLog, StateFailed)
		return nil, fmt.Errorf("commit run: %w", err)
	}
	r.setState(runLog, StateCommitted)
	r.setState(runLog, StateClosed)

	result.Duration = time.Since(start)
	runLog.Info("ETL run completed",
		"processed", result.Processed,
		"errors", result.Errored,
		"chunks", result.Chunks,
		"skipped_lines", reader.SkippedLines(),
		"duration", result.Duration.String(),
	)
	return result, nil
}

// filterRegion keeps rows whose region column equals the target region,
// trimmed and case-insensitive.
func (r *Runner) filterRegion(rows []Row) []Row {
	matched := make([]Row, 0, len(rows))
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row[colProviderState]), r.region) {
			matched = append(matched, row)
		}
	}
	return matched
}

// processRows runs extraction and upserts sequentially within the open
// transaction. Row failures are counted and skipped; they never abort the
// batch.
func (r *Runner) processRows(ctx context.Context, tx *gorm.DB, log *logger.Logger, rows []Row, rated map[string]int) (int, int) {
	processed := 0
	errored := 0
	for _, row := range rows {
		if err := r.processRow(ctx, tx, row, rated); err != nil {
			errored++
			log.Warn("Skipping row", "error", err)
			continue
		}
		processed++
	}
	return processed, errored
}

func (r *Runner) processRow(ctx context.Context, tx *gorm.DB, row Row, rated map[string]int) error {
	providerRec, ok := ExtractProvider(row)
	if !ok {
		return fmt.Errorf("invalid provider data")
	}
	procedureRec, ok := ExtractProcedure(row)
	if !ok {
		return fmt.Errorf("invalid procedure data for provider %s", providerRec.ProviderID)
	}
	financialRec, ok := ExtractFinancials(row)
	if !ok {
		return fmt.Errorf("no usable financial data for provider %s", providerRec.ProviderID)
	}

	provider := &types.Provider{
		ProviderID:      providerRec.ProviderID,
		ProviderName:    providerRec.ProviderName,
		ProviderCity:    providerRec.ProviderCity,
		ProviderState:   providerRec.ProviderState,
		ProviderZipCode: providerRec.ProviderZipCode,
	}
	if _, err := r.providerRepo.Upsert(ctx, tx, provider); err != nil {
		return fmt.Errorf("upsert provider %s: %w", provider.ProviderID, err)
	}

	procedure, err := r.procedureRepo.GetOrCreate(ctx, tx, procedureRec.MsDrgCode, procedureRec.MsDrgDescription)
	if err != nil {
		return fmt.Errorf("get or create procedure %s: %w", procedureRec.MsDrgCode, err)
	}

	link := &types.ProviderProcedure{
		ProviderID:              provider.ProviderID,
		ProcedureID:             procedure.ID,
		TotalDischarges:         financialRec.TotalDischarges,
		AverageCoveredCharges:   financialRec.AverageCoveredCharges,
		AverageTotalPayments:    financialRec.AverageTotalPayments,
		AverageMedicarePayments: financialRec.AverageMedicarePayments,
	}
	if _, err := r.providerProcedureRepo.Upsert(ctx, tx, link); err != nil {
		return fmt.Errorf("upsert provider-procedure %s/%s: %w", provider.ProviderID, procedureRec.MsDrgCode, err)
	}

	if _, done := rated[provider.ProviderID]; !done {
		value := RatingFor(provider.ProviderID)
		if err := r.ratingRepo.Upsert(ctx, tx, provider.ProviderID, value); err != nil {
			return fmt.Errorf("upsert rating for %s: %w", provider.ProviderID, err)
		}
		rated[provider.ProviderID] = value
	}
	return nil
}
