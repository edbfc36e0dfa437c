package wallet

import (
	"context"
	"sort"
	"sync"
	"time"

	"mentorbook/internal/apperr"
	"mentorbook/internal/logger"
	"mentorbook/internal/metrics"
	"mentorbook/internal/pricing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds      = apperr.New(apperr.KindInsufficientFunds, "insufficient funds")
	ErrBelowMinimumWithdrawal = apperr.New(apperr.KindBelowMinimumWithdrawal, "amount is below the minimum withdrawal")
	ErrInvalidAmount          = apperr.New(apperr.KindValidation, "amount must be positive with at most two decimal places")
	ErrInvalidCommission      = apperr.New(apperr.KindValidation, "commission rate must be in [0, 1)")
	ErrMissingReference       = apperr.New(apperr.KindValidation, "reference is required")
	ErrHoldMismatch           = apperr.New(apperr.KindValidation, "reference already holds a different amount")
	ErrHoldNotFound           = apperr.New(apperr.KindNotFound, "no funds held for reference")
	ErrSettlementNotFound     = apperr.New(apperr.KindNotFound, "no captured payment for reference")
)

type Config struct {
	MinWithdrawal   decimal.Decimal
	PlatformAccount string
}

type account struct {
	mu      sync.Mutex
	id      string
	balance decimal.Decimal
	held    decimal.Decimal
	holds   map[string]decimal.Decimal
}

func (a *account) available() decimal.Decimal {
	return a.balance.Sub(a.held)
}

func (a *account) view() Account {
	return Account{ID: a.id, Balance: a.balance, Held: a.held, Available: a.available()}
}

// Ledger keeps balances in memory and writes every movement to a Journal
// before applying it. Operations on one account are serialized; operations
// touching several accounts lock them in lexicographic id order.
type Ledger struct {
	cfg     Config
	journal Journal
	now     func() time.Time

	mu          sync.Mutex
	accounts    map[string]*account
	settlements map[string]Settlement
}

func NewLedger(cfg Config, journal Journal) *Ledger {
	return &Ledger{
		cfg:         cfg,
		journal:     journal,
		now:         time.Now,
		accounts:    make(map[string]*account),
		settlements: make(map[string]Settlement),
	}
}

func (l *Ledger) account(id string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[id]
	if !ok {
		a = &account{id: id, holds: make(map[string]decimal.Decimal)}
		l.accounts[id] = a
	}
	return a
}

func (l *Ledger) lock(ids ...string) (map[string]*account, func()) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Strings(uniq)

	locked := make(map[string]*account, len(uniq))
	order := make([]*account, 0, len(uniq))
	for _, id := range uniq {
		a := l.account(id)
		a.mu.Lock()
		locked[id] = a
		order = append(order, a)
	}

	return locked, func() {
		for i := len(order) - 1; i >= 0; i-- {
			order[i].mu.Unlock()
		}
	}
}

type posting struct {
	acct    *account
	ref     string
	typ     TxType
	amount  decimal.Decimal
	balance decimal.Decimal
	held    decimal.Decimal
	status  TxStatus
}

type accountState struct {
	balance decimal.Decimal
	held    decimal.Decimal
}

// commit journals the postings and, only if that succeeds, applies them.
// Callers hold the locks of every account involved.
func (l *Ledger) commit(ctx context.Context, postings []posting, apply func()) ([]Transaction, error) {
	now := l.now().UTC()
	after := make(map[*account]accountState, len(postings))
	lines := make([]Transaction, 0, len(postings))

	for _, p := range postings {
		st, ok := after[p.acct]
		if !ok {
			st = accountState{balance: p.acct.balance, held: p.acct.held}
		}
		st.balance = st.balance.Add(p.balance)
		st.held = st.held.Add(p.held)
		if st.balance.IsNegative() || st.held.IsNegative() || st.held.GreaterThan(st.balance) {
			apperr.Panicf("ledger invariant broken on %s: balance %s, held %s", p.acct.id, st.balance, st.held)
		}
		after[p.acct] = st

		status := p.status
		if status == "" {
			status = StatusCompleted
		}
		lines = append(lines, Transaction{
			ID:           uuid.NewString(),
			AccountID:    p.acct.id,
			Reference:    p.ref,
			Type:         p.typ,
			Amount:       p.amount,
			BalanceAfter: st.balance,
			HeldAfter:    st.held,
			Status:       status,
			CreatedAt:    now,
		})
	}

	if err := l.journal.Append(ctx, lines); err != nil {
		return nil, apperr.Wrap(err, apperr.KindRetryable, "ledger journal unavailable, nothing was applied")
	}

	for acct, st := range after {
		acct.balance = st.balance
		acct.held = st.held
	}
	if apply != nil {
		apply()
	}
	return lines, nil
}

func validAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(pricing.Round2(amount)) {
		return apperr.Wrapf(ErrInvalidAmount, "invalid amount %s", amount)
	}
	return nil
}

func insufficient(a *account, requested decimal.Decimal) error {
	return apperr.Wrapf(ErrInsufficientFunds, "insufficient funds: available %s, requested %s",
		a.available().StringFixed(2), requested.StringFixed(2)).
		WithDetail("available", a.available().StringFixed(2)).
		WithDetail("requested", requested.StringFixed(2))
}

func record(op string, amount decimal.Decimal, err error) {
	metrics.RecordLedger(op, amount.InexactFloat64(), err)
}

// TopUp adds spendable funds to a mentee wallet.
func (l *Ledger) TopUp(ctx context.Context, accountID string, amount decimal.Decimal) (acct Account, err error) {
	defer func() { record("topup", amount, err) }()

	if err := validAmount(amount); err != nil {
		return Account{}, err
	}

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	_, err = l.commit(ctx, []posting{{acct: a, typ: TxTopUp, amount: amount, balance: amount}}, nil)
	if err != nil {
		return Account{}, err
	}
	return a.view(), nil
}

// Hold earmarks amount against the account's available balance. Holding the
// same reference again with the same amount is a no-op.
func (l *Ledger) Hold(ctx context.Context, accountID, ref string, amount decimal.Decimal) (err error) {
	defer func() { record("hold", amount, err) }()

	if err := validAmount(amount); err != nil {
		return err
	}
	if ref == "" {
		return ErrMissingReference
	}

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	if existing, ok := a.holds[ref]; ok {
		if existing.Equal(amount) {
			return nil
		}
		return apperr.Wrapf(ErrHoldMismatch, "reference %s already holds %s", ref, existing)
	}
	if amount.GreaterThan(a.available()) {
		return insufficient(a, amount)
	}

	_, err = l.commit(ctx,
		[]posting{{acct: a, ref: ref, typ: TxHold, amount: amount, held: amount}},
		func() { a.holds[ref] = amount })
	return err
}

// Release returns a hold to the available balance as a refund line. It
// reports the amount released; a missing hold releases nothing.
func (l *Ledger) Release(ctx context.Context, accountID, ref string) (released decimal.Decimal, err error) {
	defer func() { record("release", released, err) }()

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	amount, ok := a.holds[ref]
	if !ok {
		return decimal.Zero, nil
	}

	_, err = l.commit(ctx,
		[]posting{{acct: a, ref: ref, typ: TxRefund, amount: amount, held: amount.Neg()}},
		func() { delete(a.holds, ref) })
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// Capture converts the hold for ref into a debit on from and a credit on to
// net of commission. The commission goes to the platform account. Capturing
// an already captured reference returns the original settlement.
func (l *Ledger) Capture(ctx context.Context, from, to, ref string, amount, commissionRate decimal.Decimal) (s Settlement, err error) {
	defer func() { record("capture", amount, err) }()

	if commissionRate.IsNegative() || commissionRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return Settlement{}, apperr.Wrapf(ErrInvalidCommission, "invalid commission rate %s", commissionRate)
	}

	accts, unlock := l.lock(from, to, l.cfg.PlatformAccount)
	defer unlock()
	src, dst, platform := accts[from], accts[to], accts[l.cfg.PlatformAccount]

	if existing, ok := l.Settlement(ref); ok {
		return existing, nil
	}

	held, ok := src.holds[ref]
	if !ok {
		return Settlement{}, apperr.Wrapf(ErrHoldNotFound, "no funds held for %s on %s", ref, from)
	}
	if !held.Equal(amount) {
		return Settlement{}, apperr.Wrapf(ErrHoldMismatch, "capture of %s does not match hold of %s", amount, held)
	}

	net := pricing.Round2(amount.Mul(decimal.NewFromInt(1).Sub(commissionRate)))
	s = Settlement{
		Reference:  ref,
		From:       from,
		To:         to,
		Gross:      amount,
		Net:        net,
		Commission: amount.Sub(net),
	}

	postings := []posting{
		{acct: src, ref: ref, typ: TxCapture, amount: amount, balance: amount.Neg(), held: amount.Neg()},
		{acct: dst, ref: ref, typ: TxEarning, amount: net, balance: net},
	}
	if s.Commission.IsPositive() {
		postings = append(postings, posting{acct: platform, ref: ref, typ: TxCommission, amount: s.Commission, balance: s.Commission})
	}

	_, err = l.commit(ctx, postings, func() {
		delete(src.holds, ref)
		l.mu.Lock()
		l.settlements[ref] = s
		l.mu.Unlock()
	})
	if err != nil {
		return Settlement{}, err
	}

	logger.Info("payment captured", "reference", ref, "from", from, "to", to,
		"gross", s.Gross.StringFixed(2), "net", s.Net.StringFixed(2))
	return s, nil
}

// RefundCaptured reverses a capture: the payer is refunded in full and both
// the payee credit and the commission are taken back.
func (l *Ledger) RefundCaptured(ctx context.Context, ref string) (s Settlement, err error) {
	s, ok := l.Settlement(ref)
	defer func() { record("refund_captured", s.Gross, err) }()
	if !ok {
		return Settlement{}, apperr.Wrapf(ErrSettlementNotFound, "no captured payment for %s", ref)
	}

	accts, unlock := l.lock(s.From, s.To, l.cfg.PlatformAccount)
	defer unlock()
	src, dst, platform := accts[s.From], accts[s.To], accts[l.cfg.PlatformAccount]

	if _, ok := l.Settlement(ref); !ok {
		return Settlement{}, apperr.Wrapf(ErrSettlementNotFound, "payment %s was already refunded", ref)
	}
	if s.Net.GreaterThan(dst.available()) {
		return Settlement{}, insufficient(dst, s.Net)
	}
	if s.Commission.GreaterThan(platform.available()) {
		return Settlement{}, insufficient(platform, s.Commission)
	}

	postings := []posting{
		{acct: src, ref: ref, typ: TxRefund, amount: s.Gross, balance: s.Gross},
		{acct: dst, ref: ref, typ: TxEarningReversal, amount: s.Net, balance: s.Net.Neg()},
	}
	if s.Commission.IsPositive() {
		postings = append(postings, posting{acct: platform, ref: ref, typ: TxCommissionReversal, amount: s.Commission, balance: s.Commission.Neg()})
	}

	_, err = l.commit(ctx, postings, func() {
		l.mu.Lock()
		delete(l.settlements, ref)
		l.mu.Unlock()
	})
	if err != nil {
		return Settlement{}, err
	}

	logger.Info("captured payment refunded", "reference", ref, "from", s.From, "to", s.To,
		"gross", s.Gross.StringFixed(2))
	return s, nil
}

// Credit is a direct positive adjustment.
func (l *Ledger) Credit(ctx context.Context, accountID, ref string, amount decimal.Decimal) (acct Account, err error) {
	defer func() { record("credit", amount, err) }()

	if err := validAmount(amount); err != nil {
		return Account{}, err
	}

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	_, err = l.commit(ctx, []posting{{acct: a, ref: ref, typ: TxCredit, amount: amount, balance: amount}}, nil)
	if err != nil {
		return Account{}, err
	}
	return a.view(), nil
}

// Debit is a direct negative adjustment limited to the available balance.
func (l *Ledger) Debit(ctx context.Context, accountID, ref string, amount decimal.Decimal) (acct Account, err error) {
	defer func() { record("debit", amount, err) }()

	if err := validAmount(amount); err != nil {
		return Account{}, err
	}

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	if amount.GreaterThan(a.available()) {
		return Account{}, insufficient(a, amount)
	}

	_, err = l.commit(ctx, []posting{{acct: a, ref: ref, typ: TxDebit, amount: amount, balance: amount.Neg()}}, nil)
	if err != nil {
		return Account{}, err
	}
	return a.view(), nil
}

// Withdraw requests a payout of earnings. The line stays pending until paid
// out externally.
func (l *Ledger) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (tx Transaction, err error) {
	defer func() { record("withdraw", amount, err) }()

	if err := validAmount(amount); err != nil {
		return Transaction{}, err
	}
	if amount.LessThan(l.cfg.MinWithdrawal) {
		return Transaction{}, apperr.Wrapf(ErrBelowMinimumWithdrawal, "minimum withdrawal is %s", l.cfg.MinWithdrawal.StringFixed(2)).
			WithDetail("minimum", l.cfg.MinWithdrawal.StringFixed(2))
	}

	accts, unlock := l.lock(accountID)
	defer unlock()
	a := accts[accountID]

	if amount.GreaterThan(a.available()) {
		return Transaction{}, insufficient(a, amount)
	}

	lines, err := l.commit(ctx, []posting{{
		acct: a, ref: uuid.NewString(), typ: TxWithdrawal, amount: amount, balance: amount.Neg(), status: StatusPending,
	}}, nil)
	if err != nil {
		return Transaction{}, err
	}

	logger.Info("withdrawal requested", "account_id", accountID, "amount", amount.StringFixed(2), "reference", lines[0].Reference)
	return lines[0], nil
}

// Account returns the current view of an account. Unknown accounts are
// empty.
func (l *Ledger) Account(accountID string) Account {
	l.mu.Lock()
	a, ok := l.accounts[accountID]
	l.mu.Unlock()
	if !ok {
		return Account{ID: accountID}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

func (l *Ledger) Balance(accountID string) decimal.Decimal {
	return l.Account(accountID).Balance
}

func (l *Ledger) HeldAmount(accountID string) decimal.Decimal {
	return l.Account(accountID).Held
}

func (l *Ledger) Available(accountID string) decimal.Decimal {
	return l.Account(accountID).Available
}

// HeldFor reports the amount held for ref on an account.
func (l *Ledger) HeldFor(accountID, ref string) (decimal.Decimal, bool) {
	l.mu.Lock()
	a, ok := l.accounts[accountID]
	l.mu.Unlock()
	if !ok {
		return decimal.Zero, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	amount, ok := a.holds[ref]
	return amount, ok
}

func (l *Ledger) Settlement(ref string) (Settlement, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.settlements[ref]
	return s, ok
}

// History returns journal lines for an account, newest first.
func (l *Ledger) History(ctx context.Context, accountID string, limit, offset int) ([]Transaction, error) {
	return l.journal.History(ctx, accountID, limit, offset)
}

// Restore rebuilds balances, holds and settlements from the journal. It must
// run before the ledger serves requests.
func (l *Ledger) Restore(ctx context.Context) error {
	txs, err := l.journal.All(ctx)
	if err != nil {
		return err
	}

	accounts := make(map[string]*account)
	settlements := make(map[string]Settlement)
	get := func(id string) *account {
		a, ok := accounts[id]
		if !ok {
			a = &account{id: id, holds: make(map[string]decimal.Decimal)}
			accounts[id] = a
		}
		return a
	}

	for _, t := range txs {
		a := get(t.AccountID)
		a.balance = t.BalanceAfter
		a.held = t.HeldAfter

		switch t.Type {
		case TxHold:
			a.holds[t.Reference] = t.Amount
		case TxRefund:
			if _, ok := a.holds[t.Reference]; ok {
				delete(a.holds, t.Reference)
			} else if s, ok := settlements[t.Reference]; ok && s.From == t.AccountID {
				delete(settlements, t.Reference)
			}
		case TxCapture:
			delete(a.holds, t.Reference)
			settlements[t.Reference] = Settlement{Reference: t.Reference, From: t.AccountID, Gross: t.Amount}
		case TxEarning:
			s := settlements[t.Reference]
			s.To = t.AccountID
			s.Net = t.Amount
			settlements[t.Reference] = s
		case TxCommission:
			s := settlements[t.Reference]
			s.Commission = t.Amount
			settlements[t.Reference] = s
		}
	}

	l.mu.Lock()
	l.accounts = accounts
	l.settlements = settlements
	l.mu.Unlock()

	logger.Info("ledger restored", "transactions", len(txs), "accounts", len(accounts))
	return nil
}
