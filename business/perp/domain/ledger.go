package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-trader/internal/apperror"
)

// Ledger tracks the trader's free balance in base units of the collateral.
type Ledger struct {
	balance *big.Int
}

func NewLedger(initial *big.Int) *Ledger {
	b := new(big.Int)
	if initial != nil {
		b.Set(initial)
	}
	return &Ledger{balance: b}
}

// Balance returns a copy of the balance.
func (l *Ledger) Balance() *big.Int {
	return new(big.Int).Set(l.balance)
}

// Fraction returns floor(balance × f).
func (l *Ledger) Fraction(f decimal.Decimal) *big.Int {
	return decimal.NewFromBigInt(l.balance, 0).Mul(f).Floor().BigInt()
}

// Debit removes amount or fails without change.
func (l *Ledger) Debit(amount *big.Int) error {
	if amount.Cmp(l.balance) > 0 {
		return apperror.New(apperror.CodeInsufficientFunds,
			apperror.WithContext("balance "+l.balance.String()+" below "+amount.String()))
	}
	l.balance.Sub(l.balance, amount)
	return nil
}

func (l *Ledger) Credit(amount *big.Int) {
	l.balance.Add(l.balance, amount)
}

// Charge removes up to amount and returns what was taken.
func (l *Ledger) Charge(amount *big.Int) *big.Int {
	taken := new(big.Int).Set(amount)
	if taken.Cmp(l.balance) > 0 {
		taken.Set(l.balance)
	}
	l.balance.Sub(l.balance, taken)
	return taken
}
