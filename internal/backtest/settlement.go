package backtest

import (
	"fmt"
	"sort"

	"tradebench/internal/logging"
	"tradebench/internal/types"
	"tradebench/pkg/trading"

	"github.com/shopspring/decimal"
)

// Settle turns closed positions into trades under a fully compounding,
// all-in/all-out capital policy: each trade's net exit proceeds become the
// capital of the next. Percentages are rounded half-up to 4 places and
// amounts to 8. Open positions are skipped.
func Settle(series *types.Series, positions []types.Position, initialCapital, feeRate decimal.Decimal, logger *logging.Logger) ([]types.Trade, error) {
	if logger == nil {
		logger = logging.CreateBacktestLogger()
	}

	closed := make([]types.Position, 0, len(positions))
	for _, p := range positions {
		if p.IsOpen() {
			logger.Warnf("Skipping open position entered at bar %d", p.EntryIndex)
			continue
		}
		closed = append(closed, p)
	}
	sort.SliceStable(closed, func(i, j int) bool {
		return closed[i].EntryIndex < closed[j].EntryIndex
	})

	if err := validatePositions(series, closed); err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)
	capital := initialCapital
	trades := make([]types.Trade, 0, len(closed))

	for _, p := range closed {
		entryFee := capital.Mul(feeRate).Round(trading.AmountScale)
		invested := capital.Sub(entryFee)

		var move decimal.Decimal
		if p.IsShort() {
			move = p.EntryPrice.Sub(p.ExitPrice)
		} else {
			move = p.ExitPrice.Sub(p.EntryPrice)
		}
		profitPct := move.DivRound(p.EntryPrice, trading.PercentScale)

		exitValue := invested.Mul(one.Add(profitPct)).Round(trading.AmountScale)
		exitFee := exitValue.Mul(feeRate).Round(trading.AmountScale)
		netExit := exitValue.Sub(exitFee)
		netProfit := netExit.Sub(capital)

		amount := invested.DivRound(p.EntryPrice, trading.AmountScale)

		pct := decimal.Zero
		if capital.IsPositive() {
			pct = netProfit.DivRound(capital, trading.PercentScale)
		}

		trade := types.Trade{
			Side:             p.Side,
			EntryIndex:       p.EntryIndex,
			ExitIndex:        p.ExitIndex,
			EntryPrice:       p.EntryPrice,
			EntryAmount:      amount,
			ExitPrice:        p.ExitPrice,
			ExitAmount:       amount,
			EntryCapital:     capital,
			ExitCapital:      netExit,
			EntryFee:         entryFee,
			ExitFee:          exitFee,
			Fee:              entryFee.Add(exitFee),
			Profit:           netProfit,
			ProfitPercentage: pct,
			ExitReason:       p.ExitReason,
		}
		if series != nil {
			trade.EntryTime = series.Bar(p.EntryIndex).OpenTime
			trade.ExitTime = series.Bar(p.ExitIndex).OpenTime
		}

		trades = append(trades, trade)
		capital = netExit
	}

	return trades, nil
}

// validatePositions checks indices, prices and that round trips do not overlap
func validatePositions(series *types.Series, positions []types.Position) error {
	prevExit := -1
	for _, p := range positions {
		if !p.EntryPrice.IsPositive() || !p.ExitPrice.IsPositive() {
			return fmt.Errorf("%w: non-positive price at entry %d", ErrInvalidPosition, p.EntryIndex)
		}
		if p.EntryIndex < 0 || p.ExitIndex <= p.EntryIndex {
			return fmt.Errorf("%w: entry %d must precede exit %d", ErrInvalidPosition, p.EntryIndex, p.ExitIndex)
		}
		if series != nil && p.ExitIndex >= series.Len() {
			return fmt.Errorf("%w: exit %d outside series of %d bars", ErrInvalidPosition, p.ExitIndex, series.Len())
		}
		if p.EntryIndex < prevExit {
			return fmt.Errorf("%w: entry %d overlaps previous position", ErrInvalidPosition, p.EntryIndex)
		}
		if p.Side != types.PositionSideLong && p.Side != types.PositionSideShort {
			return fmt.Errorf("%w: unknown side %q", ErrInvalidPosition, p.Side)
		}
		prevExit = p.ExitIndex
	}
	return nil
}
