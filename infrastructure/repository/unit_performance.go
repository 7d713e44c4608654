package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/vfg2006/bid-optimizer-api/infrastructure/database/postgres"
	"github.com/vfg2006/bid-optimizer-api/internal/domain"
)

const (
	unitPerformancesTable = "unit_performances"
	pidResultsTable       = "pid_results"
)

// UnitPerformanceRepository fornece a tabela de entrada do controlador PID e
// persiste os ganhos calculados por unidade
type UnitPerformanceRepository interface {
	GetByDateRange(startDate, endDate time.Time) ([]domain.UnitPerformanceRecord, error)
	SavePIDResults(runID string, results []domain.PIDResult) error
	GetPIDResultsByDate(date time.Time) ([]domain.PIDResult, error)
}

type unitPerformanceRepository struct {
	conn *postgres.Connection
}

func NewUnitPerformanceRepository(conn *postgres.Connection) UnitPerformanceRepository {
	return &unitPerformanceRepository{
		conn: conn,
	}
}

func (r *unitPerformanceRepository) GetByDateRange(startDate, endDate time.Time) ([]domain.UnitPerformanceRecord, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "ad_type", "ad_id", "date",
			"impressions", "clicks", "conversions", "sales", "costs",
			"bidding_price", "cpc", "cvr", "rpc",
			"is_enabled_bidding_auto_adjustment",
			"mode", "target_kpi", "yesterday_target_kpi", "purpose", "target_kpi_value",
			"base_target_cost", "target_cost", "not_ml_applied_days",
			"p", "p_error", "p_sum_error", "p_kp", "p_ki", "p_kd",
			"q", "q_error", "q_sum_error", "q_kp", "q_ki", "q_kd",
			"unit_ex_observed_c",
		).
		From(unitPerformancesTable).
		Where(squirrel.GtOrEq{"date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"date": endDate.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "ad_id", "date").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	records := make([]domain.UnitPerformanceRecord, 0)
	for rows.Next() {
		record, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear desempenho da unidade: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

func (r *unitPerformanceRepository) scanRecord(rows *sql.Rows) (domain.UnitPerformanceRecord, error) {
	var record domain.UnitPerformanceRecord
	var portfolioID sql.NullInt64
	var dateStr string
	var biddingPrice, cpc, cvr, rpc sql.NullFloat64
	var mode, targetKPI, yesterdayTargetKPI, purpose string
	var targetKPIValue sql.NullFloat64
	var p, pError, pSumError, pKp, pKi, pKd sql.NullFloat64
	var q, qError, qSumError, qKp, qKi, qKd sql.NullFloat64
	var unitExObservedC sql.NullFloat64

	err := rows.Scan(
		&record.AdvertisingAccountID, &portfolioID, &record.CampaignID, &record.AdType, &record.AdID, &dateStr,
		&record.Impressions, &record.Clicks, &record.Conversions, &record.Sales, &record.Costs,
		&biddingPrice, &cpc, &cvr, &rpc,
		&record.IsEnabledBiddingAutoAdjustment,
		&mode, &targetKPI, &yesterdayTargetKPI, &purpose, &targetKPIValue,
		&record.BaseTargetCost, &record.TargetCost, &record.NotMLAppliedDays,
		&p, &pError, &pSumError, &pKp, &pKi, &pKd,
		&q, &qError, &qSumError, &qKp, &qKi, &qKd,
		&unitExObservedC,
	)
	if err != nil {
		return domain.UnitPerformanceRecord{}, err
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return domain.UnitPerformanceRecord{}, fmt.Errorf("erro ao converter a data: %w", err)
	}

	record.PortfolioID = nullableInt(portfolioID)
	record.Date = date
	record.BiddingPrice = nullableFloat(biddingPrice)
	record.CPC = nullableFloat(cpc)
	record.CVR = nullableFloat(cvr)
	record.RPC = nullableFloat(rpc)
	record.Mode = domain.ParseMode(mode)
	record.TargetKPI = domain.ParseKPI(targetKPI)
	record.YesterdayTargetKPI = domain.ParseKPI(yesterdayTargetKPI)
	record.Purpose = domain.ParsePurpose(purpose)
	record.TargetKPIValue = nullableFloat(targetKPIValue)
	record.P = nullableFloat(p)
	record.PError = nullableFloat(pError)
	record.PSumError = nullableFloat(pSumError)
	record.PKp = nullableFloat(pKp)
	record.PKi = nullableFloat(pKi)
	record.PKd = nullableFloat(pKd)
	record.Q = nullableFloat(q)
	record.QError = nullableFloat(qError)
	record.QSumError = nullableFloat(qSumError)
	record.QKp = nullableFloat(qKp)
	record.QKi = nullableFloat(qKi)
	record.QKd = nullableFloat(qKd)
	record.UnitExObservedC = nullableFloat(unitExObservedC)

	return record, nil
}

func (r *unitPerformanceRepository) SavePIDResults(runID string, results []domain.PIDResult) error {
	for i := range results {
		if err := r.savePIDResult(runID, &results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *unitPerformanceRepository) savePIDResult(runID string, result *domain.PIDResult) error {
	query := squirrel.StatementBuilder.
		Insert(pidResultsTable).
		Columns(
			"run_id", "advertising_account_id", "portfolio_id", "date",
			"purpose", "target_kpi", "target_kpi_value", "target_cost", "base_target_cost",
			"p", "p_kp", "p_ki", "p_kd", "p_error", "p_sum_error",
			"q", "q_kp", "q_ki", "q_kd", "q_error", "q_sum_error",
			"pre_reupdate_p", "pre_reupdate_q", "origin_p", "origin_q",
			"error", "is_updated", "is_pid_initialized", "is_skip_pid_calc_state",
			"obs_kpi", "valid_ads_num",
		).
		Values(
			runID, result.AdvertisingAccountID, result.PortfolioID, result.Date.Format("2006-01-02"),
			result.Purpose.String(), result.TargetKPI.String(), result.TargetKPIValue,
			result.TargetCost, result.BaseTargetCost,
			result.P, result.PKp, result.PKi, result.PKd, result.PError, result.PSumError,
			result.Q, result.QKp, result.QKi, result.QKd, result.QError, result.QSumError,
			result.PreReupdateP, result.PreReupdateQ, result.OriginP, result.OriginQ,
			result.Error, result.IsUpdated, result.IsPIDInitialized, result.IsSkipPIDCalcState,
			result.ObsKPI, result.ValidAdsNum,
		).
		Suffix(`
			ON CONFLICT (advertising_account_id, portfolio_id, date) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				purpose = EXCLUDED.purpose,
				target_kpi = EXCLUDED.target_kpi,
				target_kpi_value = EXCLUDED.target_kpi_value,
				target_cost = EXCLUDED.target_cost,
				base_target_cost = EXCLUDED.base_target_cost,
				p = EXCLUDED.p,
				p_kp = EXCLUDED.p_kp,
				p_ki = EXCLUDED.p_ki,
				p_kd = EXCLUDED.p_kd,
				p_error = EXCLUDED.p_error,
				p_sum_error = EXCLUDED.p_sum_error,
				q = EXCLUDED.q,
				q_kp = EXCLUDED.q_kp,
				q_ki = EXCLUDED.q_ki,
				q_kd = EXCLUDED.q_kd,
				q_error = EXCLUDED.q_error,
				q_sum_error = EXCLUDED.q_sum_error,
				pre_reupdate_p = EXCLUDED.pre_reupdate_p,
				pre_reupdate_q = EXCLUDED.pre_reupdate_q,
				origin_p = EXCLUDED.origin_p,
				origin_q = EXCLUDED.origin_q,
				error = EXCLUDED.error,
				is_updated = EXCLUDED.is_updated,
				is_pid_initialized = EXCLUDED.is_pid_initialized,
				is_skip_pid_calc_state = EXCLUDED.is_skip_pid_calc_state,
				obs_kpi = EXCLUDED.obs_kpi,
				valid_ads_num = EXCLUDED.valid_ads_num,
				updated_at = NOW()
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

func (r *unitPerformanceRepository) GetPIDResultsByDate(date time.Time) ([]domain.PIDResult, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "date",
			"purpose", "target_kpi", "target_kpi_value", "target_cost", "base_target_cost",
			"p", "p_kp", "p_ki", "p_kd", "p_error", "p_sum_error",
			"q", "q_kp", "q_ki", "q_kd", "q_error", "q_sum_error",
			"pre_reupdate_p", "pre_reupdate_q", "origin_p", "origin_q",
			"error", "is_updated", "is_pid_initialized", "is_skip_pid_calc_state",
			"obs_kpi", "valid_ads_num",
		).
		From(pidResultsTable).
		Where(squirrel.Eq{"date": date.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("erro ao executar a query: %w", err)
	}
	defer rows.Close()

	results := make([]domain.PIDResult, 0)
	for rows.Next() {
		var result domain.PIDResult
		var portfolioID sql.NullInt64
		var dateStr string
		var purpose, targetKPI string
		var targetKPIValue, obsKPI sql.NullFloat64
		var p, pKp, pKi, pKd, pError, pSumError sql.NullFloat64
		var q, qKp, qKi, qKd, qError, qSumError sql.NullFloat64
		var preP, preQ, originP, originQ sql.NullFloat64

		err := rows.Scan(
			&result.AdvertisingAccountID, &portfolioID, &dateStr,
			&purpose, &targetKPI, &targetKPIValue, &result.TargetCost, &result.BaseTargetCost,
			&p, &pKp, &pKi, &pKd, &pError, &pSumError,
			&q, &qKp, &qKi, &qKd, &qError, &qSumError,
			&preP, &preQ, &originP, &originQ,
			&result.Error, &result.IsUpdated, &result.IsPIDInitialized, &result.IsSkipPIDCalcState,
			&obsKPI, &result.ValidAdsNum,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear resultado PID: %w", err)
		}

		result.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}

		result.PortfolioID = nullableInt(portfolioID)
		result.Purpose = domain.ParsePurpose(purpose)
		result.TargetKPI = domain.ParseKPI(targetKPI)
		result.TargetKPIValue = nullableFloat(targetKPIValue)
		result.P = nullableFloat(p)
		result.PKp = nullableFloat(pKp)
		result.PKi = nullableFloat(pKi)
		result.PKd = nullableFloat(pKd)
		result.PError = nullableFloat(pError)
		result.PSumError = nullableFloat(pSumError)
		result.Q = nullableFloat(q)
		result.QKp = nullableFloat(qKp)
		result.QKi = nullableFloat(qKi)
		result.QKd = nullableFloat(qKd)
		result.QError = nullableFloat(qError)
		result.QSumError = nullableFloat(qSumError)
		result.PreReupdateP = nullableFloat(preP)
		result.PreReupdateQ = nullableFloat(preQ)
		result.OriginP = nullableFloat(originP)
		result.OriginQ = nullableFloat(originQ)
		result.ObsKPI = nullableFloat(obsKPI)

		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return results, nil
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("erro ao converter a data: %w", err)
	}
	return date, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	value := v.Float64
	return &value
}

func nullableInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}
