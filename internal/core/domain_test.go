package core

import (
	"errors"
	"testing"
	"time"
)

func validTransaction() Transaction {
	return Transaction{
		UserID:    "user-1",
		AccountID: "acct-1",
		Kind:      TransactionExpense,
		Amount:    amt("25.00"),
		Date:      time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"missing user", func(tx *Transaction) { tx.UserID = " " }, ErrEmptyUser},
		{"missing account", func(tx *Transaction) { tx.AccountID = "" }, ErrEmptyAccount},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "refund" }, ErrUnknownTransactionKind},
		{"zero amount", func(tx *Transaction) { tx.Amount = amt("1").Sub(amt("1")) }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = amt("5").Neg() }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr error
	}{
		{"valid checking", Account{UserID: "u", Name: "Main", Kind: AccountChecking}, nil},
		{"valid loan", Account{UserID: "u", Name: "Mortgage", Kind: AccountLoan}, nil},
		{"missing user", Account{Name: "Main", Kind: AccountChecking}, ErrEmptyUser},
		{"missing name", Account{UserID: "u", Kind: AccountChecking}, ErrEmptyName},
		{"unknown kind", Account{UserID: "u", Name: "x", Kind: "brokerage"}, ErrUnknownAccountKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountKind_Liability(t *testing.T) {
	if !AccountCreditCard.Liability() || !AccountLoan.Liability() {
		t.Error("credit card and loan must be liability kinds")
	}
	if AccountChecking.Liability() || AccountSavings.Liability() {
		t.Error("checking and savings must not be liability kinds")
	}
}
