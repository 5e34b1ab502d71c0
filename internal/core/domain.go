package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountCreditCard AccountKind = "credit_card"
	AccountLoan       AccountKind = "loan"
)

const (
	TransactionIncome         TransactionKind = "income"
	TransactionExpense        TransactionKind = "expense"
	TransactionTransfer       TransactionKind = "transfer"
	TransactionInterestCharge TransactionKind = "interest_charge"
	TransactionLoanPayment    TransactionKind = "loan_payment"
)

type (
	// AccountKind determines the sign convention for balance deltas.
	AccountKind string

	// TransactionKind carries the direction of money movement; amounts are
	// always positive.
	TransactionKind string

	Account struct {
		ID             string
		UserID         string
		Name           string
		Kind           AccountKind
		OpeningBalance decimal.Decimal
		Balance        decimal.Decimal
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	Transaction struct {
		ID          string
		UserID      string
		AccountID   string
		CategoryID  string // empty = uncategorized
		Kind        TransactionKind
		Amount      decimal.Decimal // strictly positive
		Description string
		Date        time.Time
		IsRecurring bool
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Category struct {
		ID        string
		UserID    string
		Name      string
		Color     string
		Icon      string
		CreatedAt time.Time
	}
)

var (
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownAccountKind     = errors.New("unknown account kind")
	ErrUnknownTransactionKind = errors.New("unknown transaction kind")
	ErrEmptyName              = errors.New("empty name")
	ErrEmptyUser              = errors.New("empty user id")
	ErrEmptyAccount           = errors.New("empty account id")
	ErrZeroDate               = errors.New("date cannot be zero")
)

// Valid reports whether the kind is one of the four supported account kinds.
func (k AccountKind) Valid() bool {
	switch k {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountLoan:
		return true
	}
	return false
}

// Liability reports whether the balance tracks amount owed rather than
// amount held.
func (k AccountKind) Liability() bool {
	return k == AccountCreditCard || k == AccountLoan
}

// Valid reports whether the kind is one of the five supported transaction kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case TransactionIncome, TransactionExpense, TransactionTransfer,
		TransactionInterestCharge, TransactionLoanPayment:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	if len(a.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if !a.Kind.Valid() {
		return ErrUnknownAccountKind
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return ErrEmptyAccount
	}
	if !t.Kind.Valid() {
		return ErrUnknownTransactionKind
	}
	if t.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.UserID) == "" {
		return ErrEmptyUser
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	return nil
}
