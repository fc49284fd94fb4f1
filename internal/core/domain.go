package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Vault       AccountKind = "vault"
	Operational AccountKind = "operational"
)

const (
	KindExpense MovementKind = "expense"
	KindIncome  MovementKind = "income"
	KindSaving  MovementKind = "saving"
)

const (
	Expense Direction = "expense"
	Income  Direction = "income"
)

// MaxDescriptionLength bounds free-text descriptions on every entity.
const MaxDescriptionLength = 200

// MaxNameLength bounds obligation, goal and account names. The ledger embeds
// names in generated descriptions ("Goal emergency withdrawal: <name>"), so a
// name must leave room for the longest prefix.
const MaxNameLength = 100

type (
	// AccountKind is the closed tag identifying one of the two accounts.
	AccountKind string

	// MovementKind encodes the effect a movement had on its account.
	MovementKind string

	// Direction is the caller-facing choice for a plain transaction.
	Direction string

	Date struct {
		time.Time
	}

	Account struct {
		Kind    AccountKind
		Name    string
		Balance decimal.Decimal
	}

	Movement struct {
		ID          int64
		Date        Date
		Description string
		Amount      decimal.Decimal // always a positive magnitude
		Kind        MovementKind
		Account     AccountKind
		CreatedAt   time.Time
	}

	Obligation struct {
		ID     int64
		Name   string
		Amount decimal.Decimal
		DueDay int
		Paid   bool
	}

	Goal struct {
		ID                int64
		Name              string
		TargetAmount      decimal.Decimal
		AccumulatedAmount decimal.Decimal
	}

	// Settings is the persisted configuration read by derived metrics and the
	// income deduction step.
	Settings struct {
		VaultName       string
		OperationalName string
		DeductionRate   decimal.Decimal // percent, 0..100
		AlertThreshold  decimal.Decimal
	}

	// MovementFilter selects journal entries. An empty Month means all months.
	MovementFilter struct {
		Month string // YYYY-MM
		Limit int
	}

	// DailyTotal is the sum of expenses recorded on one day.
	DailyTotal struct {
		Date  Date
		Total decimal.Decimal
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAccount    = errors.New("invalid account kind")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidKind       = errors.New("invalid movement kind")
	ErrEmptyName         = errors.New("empty name")
	ErrInvalidDueDay     = errors.New("invalid due day")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidText       = errors.New("invalid text")
)

// StorageError marks a failure of the persistence layer. The whole compound
// operation that produced it was rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it is nil or already a domain sentinel.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) || isDomainError(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidAmount, ErrNotFound, ErrInsufficientFunds, ErrInvalidAccount,
		ErrInvalidDirection, ErrInvalidKind, ErrEmptyName, ErrInvalidDueDay,
		ErrInvalidSettings, ErrInvalidMonth, ErrInvalidText,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (k AccountKind) Validate() error {
	switch k {
	case Vault, Operational:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidAccount, string(k))
	}
}

func (k AccountKind) String() string {
	return string(k)
}

// ParseAccountKind accepts the canonical names case-insensitively.
func ParseAccountKind(s string) (AccountKind, error) {
	k := AccountKind(strings.ToLower(strings.TrimSpace(s)))
	return k, k.Validate()
}

func (k MovementKind) Validate() error {
	switch k {
	case KindExpense, KindIncome, KindSaving:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// Sign is the effect of the movement on its account: +1 for income, -1 for
// expense and saving.
func (k MovementKind) Sign() int64 {
	if k == KindIncome {
		return 1
	}
	return -1
}

func (d Direction) Validate() error {
	switch d {
	case Expense, Income:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
	}
}

// MovementKind maps a transaction direction onto the journal kind.
func (d Direction) MovementKind() MovementKind {
	if d == Income {
		return KindIncome
	}
	return KindExpense
}

// ParseDirection accepts the canonical names case-insensitively.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	return d, d.Validate()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// String formats the date as YYYY-MM-DD, the stored representation.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM prefix used to filter the journal.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// ValidateMonthKey checks a YYYY-MM filter value.
func ValidateMonthKey(s string) error {
	if _, err := time.Parse("2006-01", s); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return nil
}

// SignedAmount is the delta the movement applied to its account.
func (m Movement) SignedAmount() decimal.Decimal {
	return m.Amount.Mul(decimal.NewFromInt(m.Kind.Sign()))
}

func (m Movement) Validate() error {
	if m.Date.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidText)
	}
	if err := validateDescription(m.Description); err != nil {
		return err
	}
	if err := ValidateAmount(m.Amount); err != nil {
		return err
	}
	if err := m.Kind.Validate(); err != nil {
		return err
	}
	return m.Account.Validate()
}

func (o Obligation) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if len(o.Name) > MaxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidText, MaxNameLength)
	}
	if err := ValidateAmount(o.Amount); err != nil {
		return err
	}
	if o.DueDay < 1 || o.DueDay > 31 {
		return ErrInvalidDueDay
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if len(g.Name) > MaxNameLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidText, MaxNameLength)
	}
	if err := ValidateAmount(g.TargetAmount); err != nil {
		return err
	}
	if g.AccumulatedAmount.IsNegative() {
		return fmt.Errorf("%w: accumulated amount below zero", ErrInvalidAmount)
	}
	return nil
}

func (s Settings) Validate() error {
	var problems []string
	if strings.TrimSpace(s.VaultName) == "" {
		problems = append(problems, "vault name is empty")
	}
	if strings.TrimSpace(s.OperationalName) == "" {
		problems = append(problems, "operational name is empty")
	}
	if len(s.VaultName) > MaxNameLength || len(s.OperationalName) > MaxNameLength {
		problems = append(problems, fmt.Sprintf("account names are limited to %d characters", MaxNameLength))
	}
	if s.DeductionRate.IsNegative() || s.DeductionRate.GreaterThan(decimal.NewFromInt(100)) {
		problems = append(problems, "deduction rate must be between 0 and 100")
	}
	if s.AlertThreshold.IsNegative() {
		problems = append(problems, "alert threshold cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// Name returns the configured display name of an account kind.
func (s Settings) Name(k AccountKind) string {
	if k == Vault {
		return s.VaultName
	}
	return s.OperationalName
}

// DefaultSettings mirrors the values seeded by the initial migration.
func DefaultSettings() Settings {
	return Settings{
		VaultName:       "Vault",
		OperationalName: "Operational",
		DeductionRate:   decimal.RequireFromString("11.37"),
		AlertThreshold:  decimal.RequireFromString("10.0"),
	}
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(a decimal.Decimal) error {
	if !a.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ComposeDescription joins prefix, text and suffix, shortening text on a rune
// boundary so the result never exceeds MaxDescriptionLength.
func ComposeDescription(prefix, text, suffix string) string {
	room := MaxDescriptionLength - len(prefix) - len(suffix)
	if room < 0 {
		room = 0
	}
	if len(text) > room {
		cut := room
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = strings.TrimSpace(text[:cut])
	}
	return prefix + text + suffix
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return fmt.Errorf("%w: empty description", ErrInvalidText)
	}
	if len(desc) > MaxDescriptionLength {
		return fmt.Errorf("%w: description too long (max 200 characters)", ErrInvalidText)
	}
	return nil
}
