package service

import (
	"context"
	"fmt"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const brDateLayout = "02/01/2006"

// Workbook is a rendered spreadsheet ready to be streamed.
type Workbook struct {
	FileName string
	Data     []byte
}

// ExportService builds the monthly closing workbook handed to the accountant.
type ExportService interface {
	MonthlyClosing(ctx context.Context, q dto.ExportQuery) (*Workbook, error)
}

type exportService struct {
	ledger         repository.LedgerRepository
	products       repository.ProductRepository
	users          repository.UserRepository
	settings       SettingsService
	commissionRate decimal.Decimal
	loc            *time.Location
}

func NewExportService(
	ledger repository.LedgerRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	settings SettingsService,
	commissionRate decimal.Decimal,
	loc *time.Location,
) ExportService {
	if loc == nil {
		loc = time.UTC
	}
	return &exportService{
		ledger:         ledger,
		products:       products,
		users:          users,
		settings:       settings,
		commissionRate: commissionRate,
		loc:            loc,
	}
}

// ── MonthlyClosing ────────────────────────────────────────────────────────────
// Sheets: Vendas, Despesas, Comissões, Inventário.
// MDR uses the current settings.

func (s *exportService) MonthlyClosing(ctx context.Context, q dto.ExportQuery) (*Workbook, error) {
	if q.Month < 1 || q.Month > 12 {
		return nil, invalid("month", "mês deve estar entre 1 e 12")
	}
	from, to := MonthWindow(time.Month(q.Month), q.Year, s.loc)

	set, err := s.ledger.Snapshot(ctx, repository.EventFilter{
		Kinds: []model.EventKind{model.KindSale, model.KindExpense},
		From:  &from,
		To:    &to,
	})
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn().Err(err).Msg("export: closing workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", "Vendas"); err != nil {
		return nil, err
	}
	if err := s.writeSales(f, set.Sales, settings); err != nil {
		return nil, err
	}
	if err := s.writeExpenses(f, set.Expenses); err != nil {
		return nil, err
	}
	if err := s.writeCommissions(f, users, set.Sales); err != nil {
		return nil, err
	}
	if err := writeInventory(f, products); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: rendering workbook: %w", err)
	}
	return &Workbook{
		FileName: fmt.Sprintf("FECHAMENTO_CONTABIL_%d_%d.xlsx", q.Month, q.Year),
		Data:     buf.Bytes(),
	}, nil
}

func (s *exportService) writeSales(f *excelize.File, sales []model.Sale, st *model.AccountingSettings) error {
	rows := [][]any{{"Data", "ID Transação", "Valor Bruto (Base Imposto)", "MDR (Taxa Maquininha)", "Valor Líquido", "Meio de Pagamento", "Vendedor"}}
	for _, sale := range sales {
		mdr := sale.Total.Mul(st.MdrFor(sale.PaymentMethod))
		rows = append(rows, []any{
			sale.OccurredAt.In(s.loc).Format(brDateLayout),
			sale.ID.String(),
			sale.Total.InexactFloat64(),
			mdr.Round(2).InexactFloat64(),
			sale.Total.Sub(mdr).Round(2).InexactFloat64(),
			PaymentLabel(sale.PaymentMethod),
			sale.SellerName,
		})
	}
	return writeRows(f, "Vendas", rows)
}

func (s *exportService) writeExpenses(f *excelize.File, expenses []model.Expense) error {
	rows := [][]any{{"Data", "Categoria", "Descrição", "Prestador", "Valor", "Status"}}
	for _, e := range expenses {
		rows = append(rows, []any{
			e.OccurredAt.In(s.loc).Format(brDateLayout),
			string(e.Category),
			e.Description,
			e.ProviderName,
			e.Amount.InexactFloat64(),
			string(e.Status),
		})
	}
	return writeRows(f, "Despesas", rows)
}

// writeCommissions lists sellers that sold something in the month.
func (s *exportService) writeCommissions(f *excelize.File, users []model.User, sales []model.Sale) error {
	type tally struct {
		revenue decimal.Decimal
		count   int
	}
	bySeller := map[string]*tally{}
	for _, sale := range sales {
		t, ok := bySeller[sale.SellerID.String()]
		if !ok {
			t = &tally{revenue: decimal.Zero}
			bySeller[sale.SellerID.String()] = t
		}
		t.revenue = t.revenue.Add(sale.Total)
		t.count++
	}

	label := s.commissionRate.Mul(decimal.NewFromInt(100)).String() + "%"
	rows := [][]any{{"Vendedora", "Total Vendido (R$)", "Vendas Realizadas", "% Comissão", "Valor à Pagar (R$)"}}
	for _, u := range users {
		if u.Role != model.RoleSeller {
			continue
		}
		t, ok := bySeller[u.ID.String()]
		if !ok || !t.revenue.IsPositive() {
			continue
		}
		rows = append(rows, []any{
			u.Name,
			t.revenue.InexactFloat64(),
			t.count,
			label,
			t.revenue.Mul(s.commissionRate).Round(2).InexactFloat64(),
		})
	}
	return writeRows(f, "Comissões", rows)
}

func writeInventory(f *excelize.File, products []model.Product) error {
	rows := [][]any{{"SKU/Ref", "Descrição", "Qtd Estoque", "Preço de Custo (un)", "Valor Total em Custo"}}
	for _, p := range products {
		rows = append(rows, []any{
			p.ID.String(),
			p.Name,
			p.Stock,
			p.Cost.InexactFloat64(),
			p.Cost.Mul(decimal.NewFromInt(int64(p.Stock))).InexactFloat64(),
		})
	}
	return writeRows(f, "Inventário", rows)
}

// writeRows creates sheet when missing and writes rows from A1 down.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return err
	}
	if idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("export: sheet %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
