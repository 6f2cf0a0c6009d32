package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	SGD Currency = "SGD"
	USD Currency = "USD"
	MYR Currency = "MYR"
	EUR Currency = "EUR"
)

// DefaultCurrency applies wherever the wire or storage format carries
// only an amount.
const DefaultCurrency = SGD

// Money is an immutable amount in a single currency. Arithmetic across
// currencies is refused rather than converted.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

func NewMoneyFromFloat(amount float64, currency Currency) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

func NewMoneySGD(amount decimal.Decimal) Money { return Money{amount: amount, currency: SGD} }

func NewMoneySGDFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount), currency: SGD}
}

func Zero(currency Currency) Money { return Money{amount: decimal.Zero, currency: currency} }

func ZeroSGD() Money { return Zero(SGD) }

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsPositive() bool        { return m.amount.IsPositive() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// with keeps the currency while swapping the amount.
func (m Money) with(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: m.currency}
}

func (m Money) sameCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("cannot %s money with different currencies: %s and %s", op, m.currency, other.currency)
	}
	return nil
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency("add", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Add(other.amount)), nil
}

// MustAdd panics on currency mismatch. For callers that already hold
// two amounts from the same invoice or payment.
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency("subtract", other); err != nil {
		return Money{}, err
	}
	return m.with(m.amount.Sub(other.amount)), nil
}

func (m Money) MustSubtract(other Money) Money {
	result, err := m.Subtract(other)
	if err != nil {
		panic(err)
	}
	return result
}

func (m Money) Multiply(factor decimal.Decimal) Money { return m.with(m.amount.Mul(factor)) }

func (m Money) Negate() Money { return m.with(m.amount.Neg()) }

func (m Money) Abs() Money { return m.with(m.amount.Abs()) }

func (m Money) Round(places int32) Money { return m.with(m.amount.Round(places)) }

// Equals compares amount and currency; SGD 0 and USD 0 differ.
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) LessThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.LessThan(other.amount), nil
}

func (m Money) GreaterThan(other Money) (bool, error) {
	if err := m.sameCurrency("compare", other); err != nil {
		return false, err
	}
	return m.amount.GreaterThan(other.amount), nil
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), m.currency)
}

func (m Money) StringFixed(places int32) string { return m.amount.StringFixed(places) }

// Float64 loses precision; display use only.
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// GST is the tax portion at a percentage rate, rounded to cents.
func (m Money) GST(rate decimal.Decimal) Money {
	return m.with(m.amount.Mul(rate).Div(decimal.NewFromInt(100)).Round(2))
}

// WithGST is the gross amount at a percentage rate.
func (m Money) WithGST(rate decimal.Decimal) Money {
	return m.with(m.amount.Add(m.GST(rate).amount))
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = amount
	m.currency = v.Currency
	return nil
}

// Value stores the bare amount; the column's table fixes the currency.
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan fills the amount and falls back to DefaultCurrency when the
// receiver has none.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		m.currency = DefaultCurrency
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid decimal value: %w", err)
	}
	m.amount = amount
	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}
