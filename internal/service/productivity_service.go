package service

import (
	"context"
	"sort"
	"time"

	"chicpos/internal/dto"
	"chicpos/internal/model"
	"chicpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Seller is one candidate of the ranking.
type Seller struct {
	ID   uuid.UUID
	Name string
}

// Window is a half-open time range; nil bounds are open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Rank computes yield per attendance (revenue / attendances, 0 without
// attendances) for each seller over sales and attendances already restricted
// to the window. Sellers with neither revenue nor attendances are dropped.
// The order is descending by yield; ties keep the order of sellers.
func Rank(sellers []Seller, sales []model.Sale, attendances []model.Attendance) []dto.ProductivityEntry {
	revenue := make(map[uuid.UUID]decimal.Decimal, len(sellers))
	count := make(map[uuid.UUID]int, len(sellers))
	for _, s := range sales {
		revenue[s.SellerID] = revenue[s.SellerID].Add(s.Total)
	}
	for _, a := range attendances {
		count[a.SellerID]++
	}

	type row struct {
		entry dto.ProductivityEntry
		yield decimal.Decimal
	}
	rows := make([]row, 0, len(sellers))
	for _, sl := range sellers {
		rev := revenue[sl.ID]
		atts := count[sl.ID]
		if rev.IsZero() && atts == 0 {
			continue
		}
		yield := decimal.Zero
		if atts > 0 {
			yield = rev.Div(decimal.NewFromInt(int64(atts)))
		}
		rows = append(rows, row{
			entry: dto.ProductivityEntry{
				SellerID:           sl.ID.String(),
				Name:               sl.Name,
				Revenue:            rev,
				AttendanceCount:    atts,
				YieldPerAttendance: yield.Round(2),
			},
			yield: yield,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].yield.GreaterThan(rows[j].yield) })

	out := make([]dto.ProductivityEntry, len(rows))
	for i, r := range rows {
		out[i] = r.entry
	}
	return out
}

type ProductivityService interface {
	// RankSellers ranks every user with the SELLER role over the window.
	RankSellers(ctx context.Context, w Window) ([]dto.ProductivityEntry, error)
}

type productivityService struct {
	ledger repository.LedgerRepository
	users  repository.UserRepository
}

func NewProductivityService(ledger repository.LedgerRepository, users repository.UserRepository) ProductivityService {
	return &productivityService{ledger: ledger, users: users}
}

func (s *productivityService) RankSellers(ctx context.Context, w Window) ([]dto.ProductivityEntry, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	var sellers []Seller
	for _, u := range users {
		if u.Role == model.RoleSeller {
			sellers = append(sellers, Seller{ID: u.ID, Name: u.Name})
		}
	}

	set, err := s.ledger.Snapshot(ctx, repository.EventFilter{
		Kinds:              []model.EventKind{model.KindSale},
		From:               w.From,
		To:                 w.To,
		IncludeAttendances: true,
	})
	if err != nil {
		return nil, err
	}
	return Rank(sellers, set.Sales, set.Attendances), nil
}
