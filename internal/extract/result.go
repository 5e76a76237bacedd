package extract

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Category is one of the fixed classification tags assigned to a document.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTravel        Category = "travel"
	CategoryShopping      Category = "shopping"
	CategoryEntertainment Category = "entertainment"
	CategoryBills         Category = "bills"
	CategoryOther         Category = "other"
)

// Method is a payment method label. The set is closed; free text that does
// not map onto one of these labels yields no method at all.
type Method string

const (
	MethodCreditCard    Method = "Credit Card"
	MethodDebitCard     Method = "Debit Card"
	MethodCash          Method = "Cash"
	MethodDigitalWallet Method = "Digital Wallet"
)

// Date is a calendar date with no time component. It serializes as
// YYYY-MM-DD and always lives in UTC.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year/month/day. It does not validate the
// combination; use ParseDateParts for validated construction.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDateParts validates that year/month/day form a real calendar date.
func ParseDateParts(year, month, day int) (Date, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflows (Feb 30 -> Mar 2), so reject any
	// candidate whose components moved.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return Date{}, false
	}
	return Date{t: t}, true
}

// Time returns the date as a UTC midnight time.Time.
func (d Date) Time() time.Time { return d.t }

// String renders the date in ISO form.
func (d Date) String() string { return d.t.Format("2006-01-02") }

// MarshalJSON serializes the date as a "YYYY-MM-DD" string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", d.String())), nil
}

// UnmarshalJSON parses a "YYYY-MM-DD" string.
func (d *Date) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.t = t.UTC()
	return nil
}

// FieldResult is the structured output of a document extraction. Every
// field is independently optional; a nil pointer means the field was
// absent from the document, which is distinct from a present-but-zero
// value (a legitimately zero Amount keeps a non-nil pointer).
type FieldResult struct {
	Date     *Date            `json:"date,omitempty"`
	Source   *string          `json:"source,omitempty"`
	Category *Category        `json:"category,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Method   *Method          `json:"method,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}

// Empty reports whether no field at all was extracted.
func (r *FieldResult) Empty() bool {
	if r == nil {
		return true
	}
	return r.Date == nil && r.Source == nil && r.Category == nil &&
		r.Amount == nil && r.Method == nil && r.Notes == nil
}

// merge fills every nil field of the primary result from the fallback
// result. Structured values always win over heuristic guesses; heuristics
// only fill gaps.
func merge(primary, fallback *FieldResult) *FieldResult {
	if primary == nil {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	out := *primary
	if out.Date == nil {
		out.Date = fallback.Date
	}
	if out.Source == nil {
		out.Source = fallback.Source
	}
	if out.Category == nil {
		out.Category = fallback.Category
	}
	if out.Amount == nil {
		out.Amount = fallback.Amount
	}
	if out.Method == nil {
		out.Method = fallback.Method
	}
	if out.Notes == nil {
		out.Notes = fallback.Notes
	}
	return &out
}

func strptr(s string) *string { return &s }

func catptr(c Category) *Category { return &c }

func methodptr(m Method) *Method { return &m }

func decptr(d decimal.Decimal) *decimal.Decimal { return &d }

func dateptr(d Date) *Date { return &d }
