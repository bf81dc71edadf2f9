package service_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMonthlyClosing_Workbook(t *testing.T) {
	ana := seller("Ana")
	bia := seller("Bia")
	ledger := newFakeLedgerRepo()
	at := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	s1 := sale(at, ana.ID, model.PaymentPix, 100)
	s1.SellerName = ana.Name
	s2 := sale(at.AddDate(0, 1, 0), ana.ID, model.PaymentPix, 900) // April
	ledger.set.Sales = []model.Sale{s1, s2}
	ledger.set.Expenses = []model.Expense{{
		EventHeader:  model.EventHeader{ID: uuid.New(), OccurredAt: at, PerformedBy: "Dona"},
		Category:     model.ExpenseVideo,
		ProviderName: "Studio",
		Description:  "reels",
		Amount:       decimal.NewFromInt(200),
		Status:       model.ExpensePending,
	}}
	products := newFakeProductRepo(model.Product{
		ID: uuid.New(), Name: "Blusa", Price: decimal.NewFromInt(60), Cost: decimal.NewFromInt(25), Stock: 4,
	})
	settings := service.NewSettingsService(&fakeSettingsRepo{}, nil, nil, time.Minute, service.StandardDefaults(), nil)
	svc := service.NewExportService(ledger, products, newFakeUserRepo(ana, bia), settings, decimal.RequireFromString("0.03"), storeLoc)

	wb, err := svc.MonthlyClosing(context.Background(), dto.ExportQuery{Month: 3, Year: 2026})

	require.NoError(t, err)
	assert.Equal(t, "FECHAMENTO_CONTABIL_3_2026.xlsx", wb.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Vendas", "Despesas", "Comissões", "Inventário"}, f.GetSheetList())

	sales, err := f.GetRows("Vendas")
	require.NoError(t, err)
	require.Len(t, sales, 2, "header plus the March sale")
	assert.Equal(t, "10/03/2026", sales[1][0])
	assert.Equal(t, "0.9", sales[1][3])
	assert.Equal(t, "Pix", sales[1][5])

	commissions, err := f.GetRows("Comissões")
	require.NoError(t, err)
	require.Len(t, commissions, 2, "sellers without revenue are left out")
	assert.Equal(t, "Ana", commissions[1][0])
	assert.Equal(t, "3%", commissions[1][3])
	assert.Equal(t, "3", commissions[1][4])

	expenses, err := f.GetRows("Despesas")
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "PENDING", expenses[1][5])

	inventory, err := f.GetRows("Inventário")
	require.NoError(t, err)
	require.Len(t, inventory, 2)
	assert.Equal(t, "100", inventory[1][4])
}
