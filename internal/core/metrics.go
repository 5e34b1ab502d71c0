package core

import "github.com/shopspring/decimal"

// MonthEntry is the slice of a transaction the metrics reduction needs: its
// kind, amount and recurring flag, joined with the owning account's kind.
type MonthEntry struct {
	Kind        TransactionKind
	Amount      decimal.Decimal
	IsRecurring bool
	AccountKind AccountKind
}

// MonthlyMetrics is the five-figure summary for one calendar month. It is
// derived, never persisted: always recomputed from the live transaction set.
type MonthlyMetrics struct {
	TotalExpenses      decimal.Decimal `json:"totalExpenses"`
	InterestPaid       decimal.Decimal `json:"interestPaid"`
	RecurringCharges   decimal.Decimal `json:"recurringCharges"`
	CreditCardSpending decimal.Decimal `json:"creditCardSpending"`
	LoanPayments       decimal.Decimal `json:"loanPayments"`
}

// MonthlyComparison is the current month's metrics plus the percentage change
// of each figure against the immediately preceding calendar month.
type MonthlyComparison struct {
	MonthlyMetrics
	TotalExpensesChange      decimal.Decimal `json:"totalExpensesChange"`
	InterestPaidChange       decimal.Decimal `json:"interestPaidChange"`
	RecurringChargesChange   decimal.Decimal `json:"recurringChargesChange"`
	CreditCardSpendingChange decimal.Decimal `json:"creditCardSpendingChange"`
	LoanPaymentsChange       decimal.Decimal `json:"loanPaymentsChange"`
}

// ReduceMonthlyMetrics folds one month's entries into the five totals.
// An empty input yields all zeros. The reduction is pure: a single pass,
// no I/O, no mutation of the input.
func ReduceMonthlyMetrics(entries []MonthEntry) MonthlyMetrics {
	m := MonthlyMetrics{
		TotalExpenses:      decimal.Zero,
		InterestPaid:       decimal.Zero,
		RecurringCharges:   decimal.Zero,
		CreditCardSpending: decimal.Zero,
		LoanPayments:       decimal.Zero,
	}
	for _, e := range entries {
		switch e.Kind {
		case TransactionExpense:
			m.TotalExpenses = m.TotalExpenses.Add(e.Amount)
			if e.IsRecurring {
				m.RecurringCharges = m.RecurringCharges.Add(e.Amount)
			}
			switch e.AccountKind {
			case AccountCreditCard:
				m.CreditCardSpending = m.CreditCardSpending.Add(e.Amount)
			case AccountLoan:
				m.LoanPayments = m.LoanPayments.Add(e.Amount)
			}
		case TransactionInterestCharge:
			m.InterestPaid = m.InterestPaid.Add(e.Amount)
		case TransactionLoanPayment:
			m.LoanPayments = m.LoanPayments.Add(e.Amount)
		}
	}
	return m
}

// PercentageChange returns the relative change from previous to current, in
// percent. A zero previous yields 100 when current is positive and 0
// otherwise. No rounding is applied; callers round for display.
func PercentageChange(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.Sign() > 0 {
			return decimal.NewFromInt(100)
		}
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
}

// CompareMonthlyMetrics pairs the current month's metrics with per-figure
// percentage changes against the previous month's.
func CompareMonthlyMetrics(current, previous MonthlyMetrics) MonthlyComparison {
	return MonthlyComparison{
		MonthlyMetrics:           current,
		TotalExpensesChange:      PercentageChange(current.TotalExpenses, previous.TotalExpenses),
		InterestPaidChange:       PercentageChange(current.InterestPaid, previous.InterestPaid),
		RecurringChargesChange:   PercentageChange(current.RecurringCharges, previous.RecurringCharges),
		CreditCardSpendingChange: PercentageChange(current.CreditCardSpending, previous.CreditCardSpending),
		LoanPaymentsChange:       PercentageChange(current.LoanPayments, previous.LoanPayments),
	}
}
