package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxTopUp              TxType = "topup"
	TxHold               TxType = "hold"
	TxCapture            TxType = "capture"
	TxEarning            TxType = "earning"
	TxCommission         TxType = "commission"
	TxRefund             TxType = "refund"
	TxEarningReversal    TxType = "earning_reversal"
	TxCommissionReversal TxType = "commission_reversal"
	TxCredit             TxType = "credit"
	TxDebit              TxType = "debit"
	TxWithdrawal         TxType = "withdrawal"
)

type TxStatus string

const (
	StatusCompleted TxStatus = "completed"
	// StatusPending marks a withdrawal awaiting payout.
	StatusPending TxStatus = "pending"
)

// Transaction is one journal line. Amount is always positive; BalanceAfter
// and HeldAfter are the account's state once the line is applied.
type Transaction struct {
	ID           string          `db:"id" json:"id"`
	AccountID    string          `db:"account_id" json:"account_id"`
	Reference    string          `db:"reference" json:"reference,omitempty"`
	Type         TxType          `db:"type" json:"type"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	BalanceAfter decimal.Decimal `db:"balance_after" json:"balance_after"`
	HeldAfter    decimal.Decimal `db:"held_after" json:"held_after"`
	Status       TxStatus        `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// Account is a read view of one ledger account.
type Account struct {
	ID        string          `json:"id"`
	Balance   decimal.Decimal `json:"balance"`
	Held      decimal.Decimal `json:"held"`
	Available decimal.Decimal `json:"available"`
}

// Settlement records how a captured hold was split.
type Settlement struct {
	Reference  string          `json:"reference"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Gross      decimal.Decimal `json:"gross"`
	Net        decimal.Decimal `json:"net"`
	Commission decimal.Decimal `json:"commission"`
}

const earningsPrefix = "earnings:"

// MenteeAccount is the spendable wallet of a mentee.
func MenteeAccount(menteeID string) string {
	return menteeID
}

// EarningsAccount is the withdrawable balance of a provider.
func EarningsAccount(providerID string) string {
	return earningsPrefix + providerID
}

type TopUpRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}
