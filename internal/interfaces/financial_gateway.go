package interfaces

import (
	"context"

	"github.com/ternarybob/mgp/internal/models"
)

// FinancialDataGateway supplies fundamentals for the Iron Gate.
// Every method degrades to an empty slice or nil on failure; errors are
// logged by the implementation and never returned.
type FinancialDataGateway interface {
	// GetIncomeStatement returns at most limit periods, most recent first.
	GetIncomeStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.FinancialPeriod

	// GetCashFlowStatement returns at most limit periods, most recent first.
	GetCashFlowStatement(ctx context.Context, ticker string, period models.Period, limit int) []models.CashFlowPeriod

	GetRatiosTTM(ctx context.Context, ticker string) *models.ValuationSnapshot
	GetQuote(ctx context.Context, ticker string) *models.Quote
	GetProfile(ctx context.Context, ticker string) *models.CompanyProfile

	// Name identifies the provider, used in cache keys and logs.
	Name() string
}
