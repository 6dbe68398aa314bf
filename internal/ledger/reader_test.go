package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/fundbook/internal/domain"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func balance(account, bank string, date time.Time, amount int64) domain.BankBalance {
	return domain.BankBalance{
		ID:          uuid.New(),
		AccountName: account,
		BankName:    bank,
		Amount:      decimal.NewFromInt(amount),
		Currency:    "EUR",
		Date:        date,
	}
}

func TestLatestPerAccountNeverSumsHistory(t *testing.T) {
	got := LatestPerAccount([]domain.BankBalance{
		balance("A", "Bank", day(1), 100),
		balance("A", "Bank", day(2), 150),
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(150)), "amount = %s, want 150", got[0].Amount)
}

func TestLatestPerAccountOrderIndependent(t *testing.T) {
	got := LatestPerAccount([]domain.BankBalance{
		balance("A", "Bank", day(3), 300),
		balance("A", "Bank", day(1), 100),
		balance("A", "Bank", day(2), 200),
	})

	require.Len(t, got, 1)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(300)))
}

func TestLatestPerAccountKeysOnBankAndAccount(t *testing.T) {
	got := LatestPerAccount([]domain.BankBalance{
		balance("Ops", "Alpha", day(1), 10),
		balance("Ops", "Beta", day(1), 20),
		balance("Reserve", "Alpha", day(1), 30),
		balance("Ops", "Alpha", day(5), 40),
	})

	require.Len(t, got, 3)
	assert.Equal(t, "Alpha", got[0].BankName)
	assert.Equal(t, "Ops", got[0].AccountName)
	assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Reserve", got[1].AccountName)
	assert.Equal(t, "Beta", got[2].BankName)
}

func TestLatestPerAccountSameDateTieBreak(t *testing.T) {
	a := balance("A", "Bank", day(1), 100)
	b := balance("A", "Bank", day(1), 200)
	want := a
	if b.ID.String() > a.ID.String() {
		want = b
	}

	first := LatestPerAccount([]domain.BankBalance{a, b})
	second := LatestPerAccount([]domain.BankBalance{b, a})

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, want.ID, first[0].ID)
	assert.Equal(t, want.ID, second[0].ID)
}

func TestLatestPerAccountEmpty(t *testing.T) {
	assert.Empty(t, LatestPerAccount(nil))
}
