package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PeriodSnapshot is a frozen, dated fund statement. It is never updated after commit.
type PeriodSnapshot struct {
	ID                  uuid.UUID           `json:"id"`
	Date                time.Time           `json:"date"`
	TotalAssetValue     decimal.Decimal     `json:"totalAssetValue"`
	TotalBankBalance    decimal.Decimal     `json:"totalBankBalance"`
	TotalLiabilities    decimal.Decimal     `json:"totalLiabilities"`
	NAV                 decimal.Decimal     `json:"nav"`
	PerformanceFeeRate  decimal.NullDecimal `json:"performanceFeeRate"`
	TotalPerformanceFee decimal.NullDecimal `json:"totalPerformanceFee"`
	CreatedAt           time.Time           `json:"createdAt"`
	Investors           []InvestorSnapshot  `json:"investors"`
}

// InvestorSnapshot is one investor's position inside a PeriodSnapshot.
type InvestorSnapshot struct {
	ID               uuid.UUID           `json:"id"`
	SnapshotID       uuid.UUID           `json:"snapshotId"`
	InvestorID       uuid.UUID           `json:"investorId"`
	InvestorName     string              `json:"investorName,omitempty"`
	CapitalAmount    decimal.Decimal     `json:"capitalAmount"`
	OwnershipPercent decimal.Decimal     `json:"ownershipPercent"`
	PerformanceFee   decimal.NullDecimal `json:"performanceFee"`
}

// TotalCapital sums the capital basis across all investor rows.
func (s PeriodSnapshot) TotalCapital() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range s.Investors {
		total = total.Add(inv.CapitalAmount)
	}
	return total
}
