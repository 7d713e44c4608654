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
	campaignActualsTable      = "campaign_actuals"
	campaignBudgetInputsTable = "campaign_budget_inputs"
	dailyBudgetResultsTable   = "daily_budget_results"
)

// CampaignRepository fornece os históricos por campanha consumidos pelo
// controlador, pelo alocador de orçamento e pelo calculador de lances, e
// persiste os orçamentos diários calculados
type CampaignRepository interface {
	GetActualsByDateRange(startDate, endDate time.Time) ([]domain.CampaignActual, error)
	GetDailyActualsByDateRange(startDate, endDate time.Time) ([]domain.CampaignDailyActual, error)
	GetBudgetRecordsByDate(date time.Time) ([]domain.CampaignBudgetRecord, error)
	SaveDailyBudgets(runID string, results []domain.DailyBudgetResult) error
	GetDailyBudgetsByDate(date time.Time) ([]domain.DailyBudgetResult, error)
}

type campaignRepository struct {
	conn *postgres.Connection
}

func NewCampaignRepository(conn *postgres.Connection) CampaignRepository {
	return &campaignRepository{
		conn: conn,
	}
}

func (r *campaignRepository) GetActualsByDateRange(startDate, endDate time.Time) ([]domain.CampaignActual, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "date",
			"impressions", "clicks", "conversions", "sales", "costs",
		).
		From(campaignActualsTable).
		Where(squirrel.GtOrEq{"date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"date": endDate.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id", "date").
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

	actuals := make([]domain.CampaignActual, 0)
	for rows.Next() {
		var actual domain.CampaignActual
		var portfolioID sql.NullInt64
		var dateStr string

		err := rows.Scan(
			&actual.AdvertisingAccountID, &portfolioID, &actual.CampaignID, &dateStr,
			&actual.Impressions, &actual.Clicks, &actual.Conversions, &actual.Sales, &actual.Costs,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear atual da campanha: %w", err)
		}

		actual.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}
		actual.PortfolioID = nullableInt(portfolioID)

		actuals = append(actuals, actual)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return actuals, nil
}

func (r *campaignRepository) GetDailyActualsByDateRange(startDate, endDate time.Time) ([]domain.CampaignDailyActual, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "date",
			"clicks", "conversions", "sales", "costs",
		).
		From(campaignActualsTable).
		Where(squirrel.GtOrEq{"date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"date": endDate.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id", "date").
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

	actuals := make([]domain.CampaignDailyActual, 0)
	for rows.Next() {
		var actual domain.CampaignDailyActual
		var portfolioID sql.NullInt64
		var dateStr string

		err := rows.Scan(
			&actual.AdvertisingAccountID, &portfolioID, &actual.CampaignID, &dateStr,
			&actual.Clicks, &actual.Conversions, &actual.Sales, &actual.Costs,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear histórico diário da campanha: %w", err)
		}

		actual.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}
		actual.PortfolioID = nullableInt(portfolioID)

		actuals = append(actuals, actual)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return actuals, nil
}

func (r *campaignRepository) GetBudgetRecordsByDate(date time.Time) ([]domain.CampaignBudgetRecord, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "date",
			"yesterday_costs", "purpose", "mode",
			"optimization_costs", "remaining_days",
			"today_target_cost", "today_noboost_target_cost", "yesterday_target_cost",
			"weight", "ideal_target_cost",
			"yesterday_daily_budget", "minimum_daily_budget", "maximum_daily_budget",
			"today_coefficient", "yesterday_coefficient", "c",
			"unit_weekly_ema_costs", "unit_ex_observed_c",
			"campaign_weekly_ema_costs", "campaign_observed_c_yesterday_in_month",
		).
		From(campaignBudgetInputsTable).
		Where(squirrel.Eq{"date": date.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id").
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

	records := make([]domain.CampaignBudgetRecord, 0)
	for rows.Next() {
		var record domain.CampaignBudgetRecord
		var portfolioID sql.NullInt64
		var dateStr string
		var purpose, mode string
		var weight, yesterdayDailyBudget, c sql.NullFloat64
		var unitExObservedC, campaignObservedC sql.NullFloat64

		err := rows.Scan(
			&record.AdvertisingAccountID, &portfolioID, &record.CampaignID, &dateStr,
			&record.YesterdayCosts, &purpose, &mode,
			&record.OptimizationCosts, &record.RemainingDays,
			&record.TodayTargetCost, &record.TodayNoboostTargetCost, &record.YesterdayTargetCost,
			&weight, &record.IdealTargetCost,
			&yesterdayDailyBudget, &record.MinimumDailyBudget, &record.MaximumDailyBudget,
			&record.TodayCoefficient, &record.YesterdayCoefficient, &c,
			&record.UnitWeeklyEmaCosts, &unitExObservedC,
			&record.CampaignWeeklyEmaCosts, &campaignObservedC,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear entrada de orçamento da campanha: %w", err)
		}

		record.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}

		record.PortfolioID = nullableInt(portfolioID)
		record.Purpose = domain.ParsePurpose(purpose)
		record.Mode = domain.ParseMode(mode)
		record.Weight = nullableFloat(weight)
		record.YesterdayDailyBudget = nullableFloat(yesterdayDailyBudget)
		record.C = nullableFloat(c)
		record.UnitExObservedC = nullableFloat(unitExObservedC)
		record.CampaignObservedCYesterdayInMonth = nullableFloat(campaignObservedC)

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

func (r *campaignRepository) SaveDailyBudgets(runID string, results []domain.DailyBudgetResult) error {
	for i := range results {
		if err := r.saveDailyBudget(runID, &results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *campaignRepository) saveDailyBudget(runID string, result *domain.DailyBudgetResult) error {
	query := squirrel.StatementBuilder.
		Insert(dailyBudgetResultsTable).
		Columns(
			"run_id", "advertising_account_id", "portfolio_id", "campaign_id", "date",
			"daily_budget_upper", "weight",
			"today_target_cost", "ideal_target_cost", "total_expected_cost",
			"value_of_campaign", "gradient", "q", "max_q", "has_potential",
			"yesterday_daily_budget", "last_week_max_costs",
			"is_daily_budget_undecidable_unit", "unit_weekly_cpc_for_cap",
		).
		Values(
			runID, result.AdvertisingAccountID, result.PortfolioID, result.CampaignID, result.Date.Format("2006-01-02"),
			result.DailyBudgetUpper, result.Weight,
			result.TodayTargetCost, result.IdealTargetCost, result.TotalExpectedCost,
			result.ValueOfCampaign, result.Gradient, result.Q, result.MaxQ, result.HasPotential,
			result.YesterdayDailyBudget, result.LastWeekMaxCosts,
			result.IsDailyBudgetUndecidableUnit, result.UnitWeeklyCPCForCap,
		).
		Suffix(`
			ON CONFLICT (advertising_account_id, portfolio_id, campaign_id, date) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				daily_budget_upper = EXCLUDED.daily_budget_upper,
				weight = EXCLUDED.weight,
				today_target_cost = EXCLUDED.today_target_cost,
				ideal_target_cost = EXCLUDED.ideal_target_cost,
				total_expected_cost = EXCLUDED.total_expected_cost,
				value_of_campaign = EXCLUDED.value_of_campaign,
				gradient = EXCLUDED.gradient,
				q = EXCLUDED.q,
				max_q = EXCLUDED.max_q,
				has_potential = EXCLUDED.has_potential,
				yesterday_daily_budget = EXCLUDED.yesterday_daily_budget,
				last_week_max_costs = EXCLUDED.last_week_max_costs,
				is_daily_budget_undecidable_unit = EXCLUDED.is_daily_budget_undecidable_unit,
				unit_weekly_cpc_for_cap = EXCLUDED.unit_weekly_cpc_for_cap,
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

func (r *campaignRepository) GetDailyBudgetsByDate(date time.Time) ([]domain.DailyBudgetResult, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "date",
			"daily_budget_upper", "weight",
			"today_target_cost", "ideal_target_cost", "total_expected_cost",
			"value_of_campaign", "gradient", "q", "max_q", "has_potential",
			"yesterday_daily_budget", "last_week_max_costs",
			"is_daily_budget_undecidable_unit", "unit_weekly_cpc_for_cap",
		).
		From(dailyBudgetResultsTable).
		Where(squirrel.Eq{"date": date.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id").
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

	results := make([]domain.DailyBudgetResult, 0)
	for rows.Next() {
		var result domain.DailyBudgetResult
		var portfolioID sql.NullInt64
		var dateStr string
		var weight, totalExpectedCost sql.NullFloat64
		var valueOfCampaign, gradient, q, maxQ sql.NullFloat64
		var hasPotential sql.NullBool
		var yesterdayDailyBudget, lastWeekMaxCosts sql.NullFloat64

		err := rows.Scan(
			&result.AdvertisingAccountID, &portfolioID, &result.CampaignID, &dateStr,
			&result.DailyBudgetUpper, &weight,
			&result.TodayTargetCost, &result.IdealTargetCost, &totalExpectedCost,
			&valueOfCampaign, &gradient, &q, &maxQ, &hasPotential,
			&yesterdayDailyBudget, &lastWeekMaxCosts,
			&result.IsDailyBudgetUndecidableUnit, &result.UnitWeeklyCPCForCap,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear resultado de orçamento diário: %w", err)
		}

		result.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}

		result.PortfolioID = nullableInt(portfolioID)
		result.Weight = nullableFloat(weight)
		result.TotalExpectedCost = nullableFloat(totalExpectedCost)
		result.ValueOfCampaign = nullableFloat(valueOfCampaign)
		result.Gradient = nullableFloat(gradient)
		result.Q = nullableFloat(q)
		result.MaxQ = nullableFloat(maxQ)
		if hasPotential.Valid {
			value := hasPotential.Bool
			result.HasPotential = &value
		}
		result.YesterdayDailyBudget = nullableFloat(yesterdayDailyBudget)
		result.LastWeekMaxCosts = nullableFloat(lastWeekMaxCosts)

		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return results, nil
}
