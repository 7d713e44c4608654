package repository

import (
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/database/postgres"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

const optimizationRunsTable = "optimization_runs"

// OptimizationRunRepository registra o resumo de cada execução diária do
// otimizador
type OptimizationRunRepository interface {
	Save(summary *domain.OptimizationRunSummary) error
	GetLatest() (*domain.OptimizationRunSummary, error)
}

type optimizationRunRepository struct {
	conn *postgres.Connection
}

func NewOptimizationRunRepository(conn *postgres.Connection) OptimizationRunRepository {
	return &optimizationRunRepository{
		conn: conn,
	}
}

func (r *optimizationRunRepository) Save(summary *domain.OptimizationRunSummary) error {
	query := squirrel.StatementBuilder.
		Insert(optimizationRunsTable).
		Columns(
			"run_id", "date", "units",
			"pid_rows", "budget_rows", "bidding_rows",
			"started_at", "completed_at",
		).
		Values(
			summary.RunID, summary.Date.Format("2006-01-02"), summary.Units,
			summary.PIDRows, summary.BudgetRows, summary.BiddingRows,
			summary.StartedAt, summary.CompletedAt,
		).
		Suffix(`
			ON CONFLICT (run_id) DO UPDATE SET
				units = EXCLUDED.units,
				pid_rows = EXCLUDED.pid_rows,
				budget_rows = EXCLUDED.budget_rows,
				bidding_rows = EXCLUDED.bidding_rows,
				completed_at = EXCLUDED.completed_at
		`).
		PlaceholderFormat(squirrel.Dollar)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	_, err = r.conn.Exec(sqlQuery, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("erro no banco de dados: %w (código: %s)", pqErr, pqErr.Code)
		}
		return fmt.Errorf("erro ao executar a query: %w", err)
	}

	return nil
}

func (r *optimizationRunRepository) GetLatest() (*domain.OptimizationRunSummary, error) {
	query, args, err := squirrel.
		Select(
			"run_id", "date", "units",
			"pid_rows", "budget_rows", "bidding_rows",
			"started_at", "completed_at",
		).
		From(optimizationRunsTable).
		OrderBy("completed_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	var summary domain.OptimizationRunSummary
	var dateStr string

	err = r.conn.QueryRow(query, args...).Scan(
		&summary.RunID, &dateStr, &summary.Units,
		&summary.PIDRows, &summary.BudgetRows, &summary.BiddingRows,
		&summary.StartedAt, &summary.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("erro ao buscar a última execução: %w", err)
	}

	summary.Date, err = parseDate(dateStr)
	if err != nil {
		return nil, err
	}

	return &summary, nil
}
