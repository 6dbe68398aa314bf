package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/nav"
	"github.com/mtlprog/fundbook/internal/ownership"
)

func TestPrintNAV(t *testing.T) {
	r := nav.Result{
		AsOf:             time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		TotalAssetValue:  decimal.NewFromInt(500000),
		TotalBankBalance: decimal.NewFromInt(225000),
		TotalLiabilities: decimal.NewFromInt(250000),
		NAV:              decimal.NewFromInt(475000),
		Breakdown: nav.Breakdown{
			ByCurrency: []nav.Subtotal{{Key: "USD", Amount: decimal.RequireFromString("1234.5"), Count: 1}},
		},
	}
	var buf bytes.Buffer

	require.NoError(t, printNAV(&buf, r))

	out := buf.String()
	for _, want := range []string{"NAV", "475000", "$1,234.50"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintOwnership(t *testing.T) {
	r := ownership.Result{
		TotalCapital: decimal.NewFromInt(325000),
		Stakes: []ownership.Stake{
			{InvestorID: uuid.New(), Name: "Alice", CapitalAmount: decimal.NewFromInt(150000), OwnershipPercent: decimal.RequireFromString("46.153846")},
			{InvestorID: uuid.New(), Name: "Bob", CapitalAmount: decimal.NewFromInt(175000), OwnershipPercent: decimal.RequireFromString("53.846154")},
		},
	}
	var buf bytes.Buffer

	require.NoError(t, printOwnership(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "46.153846")
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "100", "total percent")
}

func TestPrintSnapshotWithoutFee(t *testing.T) {
	snap := domain.PeriodSnapshot{
		ID:   uuid.New(),
		Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		NAV:  decimal.NewFromInt(475000),
		Investors: []domain.InvestorSnapshot{
			{InvestorName: "Alice", CapitalAmount: decimal.NewFromInt(150000), OwnershipPercent: decimal.NewFromInt(100)},
		},
	}
	var buf bytes.Buffer

	require.NoError(t, printSnapshot(&buf, snap))

	out := buf.String()
	assert.NotContains(t, out, "Performance fee")
	assert.True(t, strings.Contains(out, "-"), "missing fee placeholder:\n%s", out)
}

func TestWriteStatement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	snap := domain.PeriodSnapshot{ID: uuid.New(), Date: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, writeStatement(path, snap))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size(), "statement file is empty")
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDay("2024-03-31")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "2024-03-31", d.Format(time.DateOnly))

	_, err = parseDay("31/03/2024")
	assert.Error(t, err)
}
