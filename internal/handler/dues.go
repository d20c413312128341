package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/dues-engine/internal/domain"
	"github.com/segyhp/dues-engine/internal/reconcile"
	"github.com/segyhp/dues-engine/internal/report"
	customError "github.com/segyhp/dues-engine/pkg/errors"
	"github.com/segyhp/dues-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// DuesService is what the handler needs from the service layer.
type DuesService interface {
	PendingTenants(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]report.TenantRow, error)
	TenantPending(ctx context.Context, tenantID uuid.UUID, asOf domain.Period, window domain.Window) (domain.PendingSummary, error)
	TenantDetail(ctx context.Context, tenantID uuid.UUID, asOf domain.Period) (*report.TenantDetail, error)
	ShopPending(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period) (*report.ShopPending, error)
	PenaltyPreview(ctx context.Context, tenantID uuid.UUID, shopNo string, asOf domain.Period, rent, emi bool) (*report.PenaltyPreview, error)
	Dashboard(ctx context.Context, asOf domain.Period, year *int) (*report.DashboardCards, error)
	AwaitingFirstPayment(ctx context.Context, asOf domain.Period) ([]reconcile.AwaitingPayment, error)
	PendingWorkbook(ctx context.Context, asOf domain.Period, kind domain.DueKind, window domain.Window) ([]byte, error)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DuesHandler struct {
	service   DuesService
	validator *validator.Validate
	location  *time.Location
	now       func() time.Time
}

// NewDuesHandler creates the handler. The current month, used when a request
// has no asOf, is taken from now in loc.
func NewDuesHandler(service DuesService, loc *time.Location, now func() time.Time) *DuesHandler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DuesHandler{
		service:   service,
		validator: validator.New(),
		location:  loc,
		now:       now,
	}
}

// Register mounts the dues routes on r, normally the /api/v1 subrouter.
func (h *DuesHandler) Register(r *mux.Router) {
	r.HandleFunc("/tenants/pending", h.PendingTenants).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{tenantId}/pending", h.TenantPending).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{tenantId}/details", h.TenantDetail).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{tenantId}/shops/{shopNo}/pending", h.ShopPending).Methods(http.MethodGet)
	r.HandleFunc("/tenants/{tenantId}/shops/{shopNo}/penalties", h.PenaltyPreview).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
	r.HandleFunc("/reports/awaiting-first-payment", h.AwaitingFirstPayment).Methods(http.MethodGet)
	r.HandleFunc("/reports/pending.xlsx", h.PendingWorkbook).Methods(http.MethodGet)
}

// pendingQuery holds the query parameters shared by the list endpoints
type pendingQuery struct {
	AsOf   string
	Kind   string `validate:"omitempty,oneof=rent emi either"`
	Window string `validate:"omitempty,oneof=all last-month year"`
	Year   string `validate:"omitempty,numeric,len=4"`
}

type parsedQuery struct {
	asOf   domain.Period
	kind   domain.DueKind
	window domain.Window
	year   *int
}

func (h *DuesHandler) parseQuery(r *http.Request) (parsedQuery, error) {
	q := r.URL.Query()
	raw := pendingQuery{
		AsOf:   q.Get("asOf"),
		Kind:   q.Get("kind"),
		Window: q.Get("window"),
		Year:   q.Get("year"),
	}
	if err := h.validator.Struct(raw); err != nil {
		return parsedQuery{}, customError.WrapInvalidRequest(err)
	}

	var parsed parsedQuery
	parsed.asOf = domain.PeriodOf(h.now().In(h.location))
	if raw.AsOf != "" {
		p, err := domain.ParsePeriod(raw.AsOf)
		if err != nil {
			return parsedQuery{}, customError.WrapInvalidPeriod(raw.AsOf, err)
		}
		parsed.asOf = p
	}

	parsed.kind = domain.DueKindEither
	if raw.Kind != "" {
		parsed.kind = domain.DueKind(raw.Kind)
	}

	if raw.Year != "" {
		year, err := strconv.Atoi(raw.Year)
		if err != nil {
			return parsedQuery{}, customError.WrapInvalidRequest(err)
		}
		parsed.year = &year
	}

	switch raw.Window {
	case "", "all":
		parsed.window = domain.AllPeriods()
	case "last-month":
		parsed.window = domain.LastMonth(parsed.asOf)
	case "year":
		if parsed.year == nil {
			return parsedQuery{}, customError.WrapInvalidRequest(fmt.Errorf("window=year needs a year parameter"))
		}
		parsed.window = domain.YearWindow(*parsed.year)
	}

	return parsed, nil
}

func tenantIDFrom(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["tenantId"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, customError.WrapInvalidRequest(fmt.Errorf("tenantId %q: %w", raw, err))
	}
	return id, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, customError.WrapInvalidRequest(fmt.Errorf("%s: %w", name, err))
	}
	return v, nil
}

// PendingTenants handles GET /tenants/pending
func (h *DuesHandler) PendingTenants(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rows, err := h.service.PendingTenants(r.Context(), q.asOf, q.kind, q.window)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"asOf":    q.asOf.String(),
		"kind":    q.kind,
		"tenants": rows,
	})
}

// TenantPending handles GET /tenants/{tenantId}/pending
func (h *DuesHandler) TenantPending(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.service.TenantPending(r.Context(), tenantID, q.asOf, q.window)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"tenantId": tenantID,
		"asOf":     q.asOf.String(),
		"summary":  summary,
		"total":    summary.Total(),
	})
}

// TenantDetail handles GET /tenants/{tenantId}/details
func (h *DuesHandler) TenantDetail(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.service.TenantDetail(r.Context(), tenantID, q.asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, detail)
}

// ShopPending handles GET /tenants/{tenantId}/shops/{shopNo}/pending
func (h *DuesHandler) ShopPending(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.ShopPending(r.Context(), tenantID, mux.Vars(r)["shopNo"], q.asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

// PenaltyPreview handles GET /tenants/{tenantId}/shops/{shopNo}/penalties
func (h *DuesHandler) PenaltyPreview(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantIDFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rent, err := boolParam(r, "rent", true)
	if err != nil {
		writeError(w, err)
		return
	}
	emi, err := boolParam(r, "emi", true)
	if err != nil {
		writeError(w, err)
		return
	}

	preview, err := h.service.PenaltyPreview(r.Context(), tenantID, mux.Vars(r)["shopNo"], q.asOf, rent, emi)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, preview)
}

// Dashboard handles GET /dashboard
func (h *DuesHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	cards, err := h.service.Dashboard(r.Context(), q.asOf, q.year)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, cards)
}

// AwaitingFirstPayment handles GET /reports/awaiting-first-payment
func (h *DuesHandler) AwaitingFirstPayment(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	awaiting, err := h.service.AwaitingFirstPayment(r.Context(), q.asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, awaiting)
}

// PendingWorkbook handles GET /reports/pending.xlsx
func (h *DuesHandler) PendingWorkbook(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := h.service.PendingWorkbook(r.Context(), q.asOf, q.kind, q.window)
	if err != nil {
		writeError(w, err)
		return
	}

	response.File(w, xlsxContentType, fmt.Sprintf("pending-dues-%s.xlsx", q.asOf), data)
}

// writeError maps business error codes to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	code := customError.CodeOf(err)

	status := http.StatusInternalServerError
	switch code {
	case customError.ErrCodeTenantNotFound, customError.ErrCodeShopNotFound:
		status = http.StatusNotFound
	case customError.ErrCodeInvalidPeriod, customError.ErrCodeInvalidRequest:
		status = http.StatusBadRequest
	case customError.ErrCodeInvalidSchedule:
		status = http.StatusUnprocessableEntity
	case customError.ErrCodeReconcileCanceled:
		status = http.StatusServiceUnavailable
	}

	message := "Internal server error"
	if be := customError.AsBusinessError(err); be != nil {
		message = be.Message
	}

	response.ErrorWithCode(w, status, code, message, err)
}
