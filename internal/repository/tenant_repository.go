package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Ledger kinds stored in payment_records.kind.
const (
	recordKindRent = "rent"
	recordKindEMI  = "emi"
)

type tenantRepository struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepository{db: db}
}

// recordRow is one row of payment_records. owner_id is a shop id for rent
// records and a loan id for EMI records.
type recordRow struct {
	OwnerID  uuid.UUID       `db:"owner_id"`
	Kind     string          `db:"kind"`
	Year     int             `db:"period_year"`
	Month    int             `db:"period_month"`
	Paid     bool            `db:"is_paid"`
	PaidDate *time.Time      `db:"paid_date"`
	Penalty  decimal.Decimal `db:"penalty"`
	Amount   decimal.Decimal `db:"amount"`
}

func (r recordRow) toDomain() domain.PaymentRecord {
	return domain.PaymentRecord{
		Period:   domain.Period{Year: r.Year, Month: time.Month(r.Month)},
		Paid:     r.Paid,
		PaidDate: r.PaidDate,
		Penalty:  r.Penalty,
		Amount:   r.Amount,
	}
}

func (r *tenantRepository) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	query := `
		SELECT id, tenant_name, mobile_no, adhar_no, created_at
		FROM tenants
		ORDER BY tenant_name, id
	`

	var tenants []*domain.Tenant
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}

	if err := r.loadShops(ctx, tenants); err != nil {
		return nil, err
	}

	return tenants, nil
}

func (r *tenantRepository) GetTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Tenant, error) {
	query := `
		SELECT id, tenant_name, mobile_no, adhar_no, created_at
		FROM tenants
		WHERE id = $1
	`

	var tenant domain.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, tenantID); err != nil {
		return nil, fmt.Errorf("get tenant %s: %w", tenantID, err)
	}

	if err := r.loadShops(ctx, []*domain.Tenant{&tenant}); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (r *tenantRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// loadShops attaches shops, loans and ledgers to the tenants with one query
// per table.
func (r *tenantRepository) loadShops(ctx context.Context, tenants []*domain.Tenant) error {
	if len(tenants) == 0 {
		return nil
	}

	byTenant := make(map[uuid.UUID]*domain.Tenant, len(tenants))
	tenantIDs := make([]string, 0, len(tenants))
	for _, t := range tenants {
		byTenant[t.ID] = t
		tenantIDs = append(tenantIDs, t.ID.String())
	}

	shopQuery := `
		SELECT id, tenant_id, shop_no, rent_amount, deposit, agreement_date
		FROM shops
		WHERE tenant_id = ANY($1::uuid[])
		ORDER BY shop_no, id
	`

	var shops []*domain.Shop
	if err := r.db.SelectContext(ctx, &shops, shopQuery, pq.Array(tenantIDs)); err != nil {
		return fmt.Errorf("list shops: %w", err)
	}
	if len(shops) == 0 {
		return nil
	}

	byShop := make(map[uuid.UUID]*domain.Shop, len(shops))
	shopIDs := make([]string, 0, len(shops))
	for _, s := range shops {
		if t, ok := byTenant[s.TenantID]; ok {
			t.Shops = append(t.Shops, s)
		}
		byShop[s.ID] = s
		shopIDs = append(shopIDs, s.ID.String())
	}

	loanQuery := `
		SELECT id, shop_id, principal, emi_per_month, start_date, tenure_months, is_active
		FROM loans
		WHERE shop_id = ANY($1::uuid[])
		ORDER BY start_date, id
	`

	var loans []*domain.Loan
	if err := r.db.SelectContext(ctx, &loans, loanQuery, pq.Array(shopIDs)); err != nil {
		return fmt.Errorf("list loans: %w", err)
	}

	byLoan := make(map[uuid.UUID]*domain.Loan, len(loans))
	ownerIDs := append([]string{}, shopIDs...)
	for _, l := range loans {
		if s, ok := byShop[l.ShopID]; ok {
			s.Loans = append(s.Loans, l)
		}
		byLoan[l.ID] = l
		ownerIDs = append(ownerIDs, l.ID.String())
	}

	recordQuery := `
		SELECT owner_id, kind, period_year, period_month, is_paid, paid_date, penalty, amount
		FROM payment_records
		WHERE owner_id = ANY($1::uuid[])
		ORDER BY period_year, period_month, id
	`

	var records []recordRow
	if err := r.db.SelectContext(ctx, &records, recordQuery, pq.Array(ownerIDs)); err != nil {
		return fmt.Errorf("list payment records: %w", err)
	}

	for _, rec := range records {
		switch rec.Kind {
		case recordKindRent:
			if s, ok := byShop[rec.OwnerID]; ok {
				s.RentHistory = append(s.RentHistory, rec.toDomain())
			}
		case recordKindEMI:
			if l, ok := byLoan[rec.OwnerID]; ok {
				l.EMIHistory = append(l.EMIHistory, rec.toDomain())
			}
		}
	}

	return nil
}
