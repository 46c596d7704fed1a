package calculator

import "github.com/shopspring/decimal"

// SettledLabel is shown for balances within Epsilon of zero.
const SettledLabel = "$0 ✓"

// FormatAmount renders a positive amount as "$10.00".
func FormatAmount(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatBalance renders a balance with its sign: "+$20.00" when the
// participant is owed money, "-$10.00" when they owe, SettledLabel otherwise.
func FormatBalance(balance decimal.Decimal) string {
	switch {
	case balance.GreaterThan(Epsilon):
		return "+$" + balance.StringFixed(2)
	case balance.LessThan(Epsilon.Neg()):
		return "-$" + balance.Abs().StringFixed(2)
	default:
		return SettledLabel
	}
}

// AllSettled reports whether every entry is within Epsilon of zero.
func AllSettled(entries []BalanceEntry) bool {
	for _, e := range entries {
		if !e.IsSettled() {
			return false
		}
	}
	return true
}
