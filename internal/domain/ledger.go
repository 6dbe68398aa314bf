package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType classifies a fund asset.
type AssetType string

const (
	AssetTypeLoan         AssetType = "loan"
	AssetTypeRealEstate   AssetType = "real-estate"
	AssetTypeVehicle      AssetType = "vehicle"
	AssetTypeStock        AssetType = "stock"
	AssetTypeMaterial     AssetType = "material"
	AssetTypeCompanyShare AssetType = "company-share"
)

// AssetStatus is the lifecycle state of an asset. SOLD is terminal.
type AssetStatus string

const (
	AssetStatusActive AssetStatus = "ACTIVE"
	AssetStatusSold   AssetStatus = "SOLD"
)

// Asset is a fund holding valued at CurrentValue while ACTIVE.
type Asset struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Type          AssetType           `json:"type"`
	CurrentValue  decimal.Decimal     `json:"currentValue"`
	Status        AssetStatus         `json:"status"`
	AcquiredPrice decimal.NullDecimal `json:"acquiredPrice"`
	SalePrice     decimal.NullDecimal `json:"salePrice"`
	SaleDate      *time.Time          `json:"saleDate"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// HeldAt reports whether the asset was on the books at asOf: created by then and not
// yet sold. An asset sold after asOf still counts for that date.
func (a Asset) HeldAt(asOf time.Time) bool {
	if a.CreatedAt.After(asOf) {
		return false
	}
	switch a.Status {
	case AssetStatusActive:
		return true
	case AssetStatusSold:
		return a.SaleDate != nil && a.SaleDate.After(asOf)
	default:
		return false
	}
}

// Validate checks the sale invariants: a SOLD asset carries both sale price and date,
// an ACTIVE one carries neither.
func (a Asset) Validate() error {
	switch a.Status {
	case AssetStatusSold:
		if !a.SalePrice.Valid || a.SaleDate == nil {
			return fmt.Errorf("asset %s: sold asset requires sale price and sale date", a.ID)
		}
	case AssetStatusActive:
		if a.SalePrice.Valid || a.SaleDate != nil {
			return fmt.Errorf("asset %s: active asset must not carry sale details", a.ID)
		}
	default:
		return fmt.Errorf("asset %s: unknown status %q", a.ID, a.Status)
	}
	return nil
}

// RealizedPnL returns salePrice − acquiredPrice for a sold asset.
// The second result is false when the asset is not sold or has no acquired price.
func (a Asset) RealizedPnL() (decimal.Decimal, bool) {
	if a.Status != AssetStatusSold || !a.SalePrice.Valid || !a.AcquiredPrice.Valid {
		return decimal.Zero, false
	}
	return a.SalePrice.Decimal.Sub(a.AcquiredPrice.Decimal), true
}

// AssetEventType is the kind of entry in an asset's audit trail.
type AssetEventType string

const (
	AssetEventValuation       AssetEventType = "VALUATION"
	AssetEventPaymentIn       AssetEventType = "PAYMENT_IN"
	AssetEventPaymentOut      AssetEventType = "PAYMENT_OUT"
	AssetEventCapex           AssetEventType = "CAPEX"
	AssetEventNote            AssetEventType = "NOTE"
	AssetEventSale            AssetEventType = "SALE"
	AssetEventInterestAccrual AssetEventType = "INTEREST_ACCRUAL"
	AssetEventPrincipalRepaid AssetEventType = "PRINCIPAL_REPAYMENT"
)

// AssetEvent is an append-only record against one asset.
type AssetEvent struct {
	ID      uuid.UUID           `json:"id"`
	AssetID uuid.UUID           `json:"assetId"`
	Type    AssetEventType      `json:"type"`
	Amount  decimal.NullDecimal `json:"amount"`
	Date    time.Time           `json:"date"`
	Note    string              `json:"note,omitempty"`
}

// Liability reduces NAV by its current balance.
type Liability struct {
	ID             uuid.UUID           `json:"id"`
	Name           string              `json:"name"`
	CurrentBalance decimal.Decimal     `json:"currentBalance"`
	InterestRate   decimal.NullDecimal `json:"interestRate"`
	MaturityDate   *time.Time          `json:"maturityDate"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// BankBalance is one dated balance observation of a bank account.
type BankBalance struct {
	ID          uuid.UUID       `json:"id"`
	AccountName string          `json:"accountName"`
	BankName    string          `json:"bankName"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
}

// AccountKey identifies a bank account across balance observations.
type AccountKey struct {
	AccountName string
	BankName    string
}

// Key returns the account the balance belongs to.
func (b BankBalance) Key() AccountKey {
	return AccountKey{AccountName: b.AccountName, BankName: b.BankName}
}

// Investor holds capital in the fund.
type Investor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CashflowType is the direction of an investor cash movement.
type CashflowType string

const (
	CashflowDeposit    CashflowType = "DEPOSIT"
	CashflowWithdrawal CashflowType = "WITHDRAWAL"
)

// InvestorCashflow is an append-only investor deposit or withdrawal. Amount is positive.
type InvestorCashflow struct {
	ID         uuid.UUID       `json:"id"`
	InvestorID uuid.UUID       `json:"investorId"`
	Type       CashflowType    `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note,omitempty"`
}

// Validate checks the amount is positive and the type known.
func (c InvestorCashflow) Validate() error {
	if !c.Amount.IsPositive() {
		return fmt.Errorf("cashflow %s: amount must be positive, got %s", c.ID, c.Amount)
	}
	switch c.Type {
	case CashflowDeposit, CashflowWithdrawal:
		return nil
	default:
		return fmt.Errorf("cashflow %s: unknown type %q", c.ID, c.Type)
	}
}

// Signed returns the amount as a contribution to capital basis.
func (c InvestorCashflow) Signed() decimal.Decimal {
	if c.Type == CashflowWithdrawal {
		return c.Amount.Neg()
	}
	return c.Amount
}
