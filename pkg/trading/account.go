package trading

import (
	"time"

	"tradebench/internal/logging"
	"tradebench/internal/types"

	"github.com/shopspring/decimal"
)

var amountStep = decimal.New(1, -AmountScale)

var _ Executor = (*Account)(nil)

// Account is a single-instrument cash account with long-only positions.
// It is not safe for concurrent use; each run owns its own Account.
type Account struct {
	feeRate  decimal.Decimal
	cash     decimal.Decimal
	position decimal.Decimal
	fees     decimal.Decimal

	fills  []types.Fill
	trades []types.Trade
	states []types.AccountState

	lot    lot
	logger *logging.Logger
}

// lot accumulates one round trip from the first buy until the position is flat
type lot struct {
	entryTime   time.Time
	entryAmount decimal.Decimal
	entryValue  decimal.Decimal
	entryFee    decimal.Decimal
	exitAmount  decimal.Decimal
	exitValue   decimal.Decimal
	exitFee     decimal.Decimal
}

// NewAccount creates an account holding only cash
func NewAccount(cfg AccountConfig, logger *logging.Logger) *Account {
	if logger == nil {
		logger = logging.CreateTradingLogger()
	}
	return &Account{
		feeRate:  cfg.FeeRate,
		cash:     cfg.InitialCash,
		position: decimal.Zero,
		fees:     decimal.Zero,
		logger:   logger,
	}
}

// Buy adds to the position. When cash does not cover value plus fee the
// amount is floored to the largest affordable quantity; a zero result is a no-op.
func (a *Account) Buy(t time.Time, price, amount decimal.Decimal, reason string) (types.Fill, bool) {
	if !price.IsPositive() || !amount.IsPositive() {
		a.logger.Warnf("Ignoring buy with price %s and amount %s", price, amount)
		return types.Fill{}, false
	}

	value := price.Mul(amount)
	fee := value.Mul(a.feeRate)

	if a.cash.LessThan(value.Add(fee)) {
		requested := amount
		amount = a.affordable(price)
		if !amount.IsPositive() {
			a.logger.Warnf("Insufficient cash %s for buy at %s, skipping", a.cash, price)
			return types.Fill{}, false
		}
		a.logger.LogClamp(string(types.FillSideBuy), requested, amount, "insufficient cash")
		value = price.Mul(amount)
		fee = value.Mul(a.feeRate)
	}

	if a.position.IsZero() {
		a.lot = lot{entryTime: t}
	}

	a.cash = a.cash.Sub(value).Sub(fee)
	a.position = a.position.Add(amount)
	a.fees = a.fees.Add(fee)

	a.lot.entryAmount = a.lot.entryAmount.Add(amount)
	a.lot.entryValue = a.lot.entryValue.Add(value)
	a.lot.entryFee = a.lot.entryFee.Add(fee)

	return a.fill(t, types.FillSideBuy, price, amount, value, fee, reason), true
}

// affordable returns the largest quantity whose value plus fee fits in cash
func (a *Account) affordable(price decimal.Decimal) decimal.Decimal {
	unitCost := price.Mul(decimal.NewFromInt(1).Add(a.feeRate))
	amount := a.cash.Div(unitCost).RoundFloor(AmountScale)

	// Div is limited to DivisionPrecision digits and may round up past cash
	for amount.IsPositive() && amount.Mul(unitCost).GreaterThan(a.cash) {
		amount = amount.Sub(amountStep)
	}
	return amount
}

// Sell reduces the position, clamped to what is held. Closing the position
// appends one trade to the ledger.
func (a *Account) Sell(t time.Time, price, amount decimal.Decimal, reason string) (types.Fill, bool) {
	if !price.IsPositive() {
		a.logger.Warnf("Ignoring sell with price %s", price)
		return types.Fill{}, false
	}

	if a.position.LessThan(amount) {
		a.logger.LogClamp(string(types.FillSideSell), amount, a.position, "insufficient position")
		amount = a.position
	}
	if !amount.IsPositive() {
		a.logger.Debugf("Nothing to sell at %s", price)
		return types.Fill{}, false
	}

	value := price.Mul(amount)
	fee := value.Mul(a.feeRate)

	a.cash = a.cash.Add(value).Sub(fee)
	a.position = a.position.Sub(amount)
	a.fees = a.fees.Add(fee)

	a.lot.exitAmount = a.lot.exitAmount.Add(amount)
	a.lot.exitValue = a.lot.exitValue.Add(value)
	a.lot.exitFee = a.lot.exitFee.Add(fee)

	f := a.fill(t, types.FillSideSell, price, amount, value, fee, reason)

	if a.position.IsZero() {
		a.trades = append(a.trades, a.lot.settle(t, reason))
		a.lot = lot{}
	}
	return f, true
}

// SellAll closes the whole position
func (a *Account) SellAll(t time.Time, price decimal.Decimal, reason string) (types.Fill, bool) {
	return a.Sell(t, price, a.position, reason)
}

// RecordState appends one equity curve point marked at price
func (a *Account) RecordState(t time.Time, price decimal.Decimal) {
	a.states = append(a.states, types.NewAccountState(t, a.cash, a.position, price))
}

func (a *Account) fill(t time.Time, side types.FillSide, price, amount, value, fee decimal.Decimal, reason string) types.Fill {
	f := types.Fill{
		Time:   t,
		Side:   side,
		Price:  price,
		Amount: amount,
		Value:  value,
		Fee:    fee,
		Reason: reason,
	}
	a.fills = append(a.fills, f)
	a.logger.LogTrade(string(side), amount, price, fee, reason)
	return f
}

// settle converts the accumulated lot into a ledger entry
func (l lot) settle(exitTime time.Time, reason string) types.Trade {
	entryCapital := l.entryValue.Add(l.entryFee)
	exitCapital := l.exitValue.Sub(l.exitFee)
	profit := exitCapital.Sub(entryCapital)

	pct := decimal.Zero
	if entryCapital.IsPositive() {
		pct = profit.DivRound(entryCapital, PercentScale)
	}

	return types.Trade{
		Side:             types.PositionSideLong,
		EntryTime:        l.entryTime,
		EntryPrice:       l.entryValue.DivRound(l.entryAmount, AmountScale),
		EntryAmount:      l.entryAmount,
		ExitTime:         exitTime,
		ExitPrice:        l.exitValue.DivRound(l.exitAmount, AmountScale),
		ExitAmount:       l.exitAmount,
		EntryCapital:     entryCapital,
		ExitCapital:      exitCapital,
		EntryFee:         l.entryFee,
		ExitFee:          l.exitFee,
		Fee:              l.entryFee.Add(l.exitFee),
		Profit:           profit,
		ProfitPercentage: pct,
		ExitReason:       reason,
	}
}

// Cash returns the available cash
func (a *Account) Cash() decimal.Decimal {
	return a.cash
}

// Position returns the units held
func (a *Account) Position() decimal.Decimal {
	return a.position
}

// IsFlat returns true when no units are held
func (a *Account) IsFlat() bool {
	return a.position.IsZero()
}

// TotalFees returns all fees paid so far
func (a *Account) TotalFees() decimal.Decimal {
	return a.fees
}

// Fills returns a copy of the executed fills
func (a *Account) Fills() []types.Fill {
	return append([]types.Fill(nil), a.fills...)
}

// Trades returns a copy of the closed round trips
func (a *Account) Trades() []types.Trade {
	return append([]types.Trade(nil), a.trades...)
}

// States returns a copy of the recorded equity curve
func (a *Account) States() []types.AccountState {
	return append([]types.AccountState(nil), a.states...)
}
