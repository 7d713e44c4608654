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
	adBiddingInputsTable = "ad_bidding_inputs"
	biddingResultsTable  = "bidding_results"
)

// AdBiddingRepository fornece a tabela de entrada do calculador de lances e
// persiste os preços calculados por anúncio
type AdBiddingRepository interface {
	GetBidRecordsByDateRange(startDate, endDate time.Time) ([]domain.AdBidRecord, error)
	SaveBiddingResults(runID string, results []domain.BiddingResult) error
	GetResultsByDate(date time.Time) ([]domain.BiddingResult, error)
}

type adBiddingRepository struct {
	conn *postgres.Connection
}

func NewAdBiddingRepository(conn *postgres.Connection) AdBiddingRepository {
	return &adBiddingRepository{
		conn: conn,
	}
}

func (r *adBiddingRepository) GetBidRecordsByDateRange(startDate, endDate time.Time) ([]domain.AdBidRecord, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "ad_type", "ad_id", "date",
			"impressions", "clicks", "conversions", "sales", "costs",
			"bidding_price", "cpc", "cvr", "rpc",
			"is_enabled_bidding_auto_adjustment",
			"purpose", "target_kpi", "mode", "c", "p", "q",
			"target_cost", "base_target_cost",
			"minimum_bidding_price", "maximum_bidding_price", "round_up_point",
			"unit_weekly_ema_costs", "unit_ex_observed_c",
			"ad_weekly_ema_costs", "ad_observed_c_yesterday_in_month",
		).
		From(adBiddingInputsTable).
		Where(squirrel.GtOrEq{"date": startDate.Format("2006-01-02")}).
		Where(squirrel.LtOrEq{"date": endDate.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id", "ad_id", "date").
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

	records := make([]domain.AdBidRecord, 0)
	for rows.Next() {
		var record domain.AdBidRecord
		var portfolioID sql.NullInt64
		var dateStr string
		var biddingPrice, cpc, cvr, rpc sql.NullFloat64
		var purpose, targetKPI, mode string
		var c, p, q sql.NullFloat64
		var unitExObservedC, adObservedC sql.NullFloat64

		err := rows.Scan(
			&record.AdvertisingAccountID, &portfolioID, &record.CampaignID, &record.AdType, &record.AdID, &dateStr,
			&record.Impressions, &record.Clicks, &record.Conversions, &record.Sales, &record.Costs,
			&biddingPrice, &cpc, &cvr, &rpc,
			&record.IsEnabledBiddingAutoAdjustment,
			&purpose, &targetKPI, &mode, &c, &p, &q,
			&record.TargetCost, &record.BaseTargetCost,
			&record.MinimumBiddingPrice, &record.MaximumBiddingPrice, &record.RoundUpPoint,
			&record.UnitWeeklyEmaCosts, &unitExObservedC,
			&record.AdWeeklyEmaCosts, &adObservedC,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear entrada de lance do anúncio: %w", err)
		}

		record.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}

		record.PortfolioID = nullableInt(portfolioID)
		record.BiddingPrice = nullableFloat(biddingPrice)
		record.CPC = nullableFloat(cpc)
		record.CVR = nullableFloat(cvr)
		record.RPC = nullableFloat(rpc)
		record.Purpose = domain.ParsePurpose(purpose)
		record.TargetKPI = domain.ParseKPI(targetKPI)
		record.Mode = domain.ParseMode(mode)
		record.C = nullableFloat(c)
		record.P = nullableFloat(p)
		record.Q = nullableFloat(q)
		record.UnitExObservedC = nullableFloat(unitExObservedC)
		record.AdObservedCYesterdayInMonth = nullableFloat(adObservedC)

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return records, nil
}

func (r *adBiddingRepository) SaveBiddingResults(runID string, results []domain.BiddingResult) error {
	for i := range results {
		if err := r.saveBiddingResult(runID, &results[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *adBiddingRepository) saveBiddingResult(runID string, result *domain.BiddingResult) error {
	query := squirrel.StatementBuilder.
		Insert(biddingResultsTable).
		Columns(
			"run_id", "advertising_account_id", "portfolio_id", "campaign_id", "ad_type", "ad_id", "date",
			"bidding_price", "origin_bidding_price",
			"is_ml_applied", "is_provisional_bidding", "has_exception",
			"unit_cpc", "ad_ema_weekly_cpc", "ad_value",
			"sum_click_last_four_weeks", "sum_cost_last_four_weeks", "cpc_last_four_weeks",
			"bidding_algorithm",
		).
		Values(
			runID, result.AdvertisingAccountID, result.PortfolioID, result.CampaignID,
			result.AdType, result.AdID, result.Date.Format("2006-01-02"),
			result.BiddingPrice, result.OriginBiddingPrice,
			result.IsMLApplied, result.IsProvisionalBidding, result.HasException,
			result.UnitCPC, result.AdEmaWeeklyCPC, result.AdValue,
			result.SumClickLastFourWeeks, result.SumCostLastFourWeeks, result.CPCLastFourWeeks,
			result.BiddingAlgorithm,
		).
		Suffix(`
			ON CONFLICT (advertising_account_id, portfolio_id, campaign_id, ad_type, ad_id, date) DO UPDATE SET
				run_id = EXCLUDED.run_id,
				bidding_price = EXCLUDED.bidding_price,
				origin_bidding_price = EXCLUDED.origin_bidding_price,
				is_ml_applied = EXCLUDED.is_ml_applied,
				is_provisional_bidding = EXCLUDED.is_provisional_bidding,
				has_exception = EXCLUDED.has_exception,
				unit_cpc = EXCLUDED.unit_cpc,
				ad_ema_weekly_cpc = EXCLUDED.ad_ema_weekly_cpc,
				ad_value = EXCLUDED.ad_value,
				sum_click_last_four_weeks = EXCLUDED.sum_click_last_four_weeks,
				sum_cost_last_four_weeks = EXCLUDED.sum_cost_last_four_weeks,
				cpc_last_four_weeks = EXCLUDED.cpc_last_four_weeks,
				bidding_algorithm = EXCLUDED.bidding_algorithm,
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

func (r *adBiddingRepository) GetResultsByDate(date time.Time) ([]domain.BiddingResult, error) {
	query, args, err := squirrel.
		Select(
			"advertising_account_id", "portfolio_id", "campaign_id", "ad_type", "ad_id", "date",
			"bidding_price", "origin_bidding_price",
			"is_ml_applied", "is_provisional_bidding", "has_exception",
			"unit_cpc", "ad_ema_weekly_cpc", "ad_value",
			"sum_click_last_four_weeks", "sum_cost_last_four_weeks", "cpc_last_four_weeks",
			"bidding_algorithm",
		).
		From(biddingResultsTable).
		Where(squirrel.Eq{"date": date.Format("2006-01-02")}).
		OrderBy("advertising_account_id", "portfolio_id", "campaign_id", "ad_id").
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

	results := make([]domain.BiddingResult, 0)
	for rows.Next() {
		var result domain.BiddingResult
		var portfolioID sql.NullInt64
		var dateStr string
		var originBiddingPrice sql.NullFloat64
		var unitCPC, adEmaWeeklyCPC, adValue sql.NullFloat64
		var sumClicks, sumCosts, cpcFourWeeks sql.NullFloat64

		err := rows.Scan(
			&result.AdvertisingAccountID, &portfolioID, &result.CampaignID, &result.AdType, &result.AdID, &dateStr,
			&result.BiddingPrice, &originBiddingPrice,
			&result.IsMLApplied, &result.IsProvisionalBidding, &result.HasException,
			&unitCPC, &adEmaWeeklyCPC, &adValue,
			&sumClicks, &sumCosts, &cpcFourWeeks,
			&result.BiddingAlgorithm,
		)
		if err != nil {
			return nil, fmt.Errorf("erro ao escanear resultado de lance: %w", err)
		}

		result.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("erro ao converter a data: %w", err)
		}

		result.PortfolioID = nullableInt(portfolioID)
		result.OriginBiddingPrice = nullableFloat(originBiddingPrice)
		result.UnitCPC = nullableFloat(unitCPC)
		result.AdEmaWeeklyCPC = nullableFloat(adEmaWeeklyCPC)
		result.AdValue = nullableFloat(adValue)
		result.SumClickLastFourWeeks = nullableFloat(sumClicks)
		result.SumCostLastFourWeeks = nullableFloat(sumCosts)
		result.CPCLastFourWeeks = nullableFloat(cpcFourWeeks)

		results = append(results, result)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return results, nil
}
