package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"github.com/medrates/pricing-backend/internal/logger"
)

// Verbs that mutate schema or data. The scan is a plain substring check over
// the upper-cased SQL, not a parser; it is a second line behind the
// translator's read-only instruction.
var mutatingKeywords = []string{"DROP", "DELETE", "INSERT", "UPDATE", "ALTER", "CREATE"}

const (
	refusalMessage    = "Sorry, I can only answer read-only questions about healthcare data."
	rephraseMessage   = "Sorry, I couldn't execute that query. Please try rephrasing your question."
	maxConcurrentAsks = 4
)

// AskResult mirrors the /ask response body.
type AskResult struct {
	Question string           `json:"question"`
	SQLQuery string           `json:"sql_query"`
	Results  []map[string]any `json:"results"`
	Message  string           `json:"message"`
}

type AssistantService interface {
	Ask(ctx context.Context, question string) (*AskResult, error)
}

type assistantService struct {
	db         *gorm.DB
	log        *logger.Logger
	translator Translator
	// Translator calls take seconds; the semaphore keeps a burst of slow
	// calls from piling up against the upstream quota.
	sem *semaphore.Weighted
}

func NewAssistantService(db *gorm.DB, baseLog *logger.Logger, translator Translator) AssistantService {
	serviceLog := baseLog.With("service", "AssistantService")
	return &assistantService{
		db:         db,
		log:        serviceLog,
		translator: translator,
		sem:        semaphore.NewWeighted(maxConcurrentAsks),
	}
}

// Ask translates the question to SQL, refuses anything containing a mutating
// keyword before touching the store, and otherwise executes the query and
// shapes the rows for serialization. Execution failures come back as a
// user-facing rephrase message with the SQL preserved for transparency.
func (as *assistantService) Ask(ctx context.Context, question string) (*AskResult, error) {
	if err := as.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire translation slot: %w", err)
	}
	start := time.Now()
	sqlQuery, err := as.translator.TranslateToSQL(ctx, question)
	as.sem.Release(1)
	if err != nil {
		return nil, fmt.Errorf("translate question: %w", err)
	}
	as.log.Debug("Translated question", "duration", time.Since(start).String())

	if keyword, found := containsMutatingKeyword(sqlQuery); found {
		as.log.Warn("Refusing mutating query", "keyword", keyword)
		return &AskResult{
			Question: question,
			SQLQuery: "",
			Results:  []map[string]any{},
			Message:  refusalMessage,
		}, nil
	}

	results, execErr := as.execute(ctx, sqlQuery)
	if execErr != nil {
		as.log.Error("Translated query execution failed", "error", execErr)
		return &AskResult{
			Question: question,
			SQLQuery: sqlQuery,
			Results:  []map[string]any{},
			Message:  rephraseMessage,
		}, nil
	}

	return &AskResult{
		Question: question,
		SQLQuery: sqlQuery,
		Results:  results,
		Message:  fmt.Sprintf("Found %d results for your query.", len(results)),
	}, nil
}

func containsMutatingKeyword(sql string) (string, bool) {
	upper := strings.ToUpper(sql)
	for _, keyword := range mutatingKeywords {
		if strings.Contains(upper, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// execute runs the translated query and builds one map per row from the
// store's column metadata, converting values to serializable forms.
func (as *assistantService) execute(ctx context.Context, sqlQuery string) ([]map[string]any, error) {
	rows, err := as.db.WithContext(ctx).Raw(sqlQuery).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rowMap := make(map[string]any, len(columns))
		for i, column := range columns {
			rowMap[column] = serializable(values[i])
		}
		results = append(results, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func serializable(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		return v
	}
}
