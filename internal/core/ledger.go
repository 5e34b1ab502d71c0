package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BalanceDelta returns the signed amount to add to an account's balance when
// a transaction of the given kind and (positive) amount is recorded against it.
//
// For liability accounts (credit card, loan) the balance tracks amount owed:
// expenses and interest charges grow the debt, income and loan payments shrink
// it. For depository accounts (checking, savings) income adds and expenses
// subtract. Transfers never move the balance here; interest charges and loan
// payments on depository accounts are likewise deliberate no-ops.
//
// The switches are exhaustive over the declared kinds: an unknown kind or a
// non-positive amount is a validation error, never a silent zero.
func BalanceDelta(accountKind AccountKind, transactionKind TransactionKind, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}

	switch accountKind {
	case AccountCreditCard, AccountLoan:
		switch transactionKind {
		case TransactionExpense, TransactionInterestCharge:
			return amount, nil // debt grows
		case TransactionIncome, TransactionLoanPayment:
			return amount.Neg(), nil // debt shrinks
		case TransactionTransfer:
			return decimal.Zero, nil
		}
	case AccountChecking, AccountSavings:
		switch transactionKind {
		case TransactionIncome:
			return amount, nil
		case TransactionExpense:
			return amount.Neg(), nil
		case TransactionTransfer, TransactionInterestCharge, TransactionLoanPayment:
			return decimal.Zero, nil
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownAccountKind, accountKind)
	}
	return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownTransactionKind, transactionKind)
}

// UpdateDelta returns the net balance adjustment when a transaction changes
// from (oldKind, oldAmount) to (newKind, newAmount) on the same account:
// the old effect is reversed and the new one applied.
func UpdateDelta(accountKind AccountKind, oldKind TransactionKind, oldAmount decimal.Decimal, newKind TransactionKind, newAmount decimal.Decimal) (decimal.Decimal, error) {
	oldDelta, err := BalanceDelta(accountKind, oldKind, oldAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("old delta: %w", err)
	}
	newDelta, err := BalanceDelta(accountKind, newKind, newAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("new delta: %w", err)
	}
	return newDelta.Sub(oldDelta), nil
}
