package installment

import (
	"card-statement-analyzer/internal/models"

	"github.com/shopspring/decimal"
)

// Project groups installment transactions by remaining months and returns
// one bucket per month from 0 to the largest remaining count. Each bucket's
// outstanding balance is the sum of its own and every later period amount.
// Transactions without a local amount still extend the series but add 0.
func Project(transactions []models.Transaction) []models.ProjectionBucket {
	sums := make(map[int]decimal.Decimal)
	maxRemaining := -1

	for _, tx := range transactions {
		if !tx.IsInstallment || tx.Installment == nil {
			continue
		}
		remaining := tx.Installment.Remaining
		current, ok := sums[remaining]
		if !ok {
			current = decimal.Zero
		}
		if tx.AmountLocal.Valid {
			current = current.Add(tx.AmountLocal.Decimal)
		}
		sums[remaining] = current
		if remaining > maxRemaining {
			maxRemaining = remaining
		}
	}

	if maxRemaining < 0 {
		return []models.ProjectionBucket{{
			RemainingMonth:     0,
			PeriodAmount:       decimal.Zero,
			OutstandingBalance: decimal.Zero,
		}}
	}

	buckets := make([]models.ProjectionBucket, maxRemaining+1)
	for month := range buckets {
		amount, ok := sums[month]
		if !ok {
			amount = decimal.Zero
		}
		buckets[month] = models.ProjectionBucket{RemainingMonth: month, PeriodAmount: amount}
	}

	running := decimal.Zero
	for month := maxRemaining; month >= 0; month-- {
		running = running.Add(buckets[month].PeriodAmount)
		buckets[month].OutstandingBalance = running
	}

	return buckets
}

// ChartSeries flattens buckets into the month and balance arrays used by
// charts. A single-bucket series is padded to two points by repeating the
// balance.
func ChartSeries(buckets []models.ProjectionBucket) (months []int, balances []decimal.Decimal) {
	for _, b := range buckets {
		months = append(months, b.RemainingMonth)
		balances = append(balances, b.OutstandingBalance)
	}
	switch len(balances) {
	case 0:
		months = []int{0}
		balances = []decimal.Decimal{decimal.Zero, decimal.Zero}
	case 1:
		balances = append(balances, balances[0])
	}
	return months, balances
}
