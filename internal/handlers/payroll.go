package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-payroll/httpx"
	"github.com/diewo77/go-payroll/internal/logging"
	"github.com/diewo77/go-payroll/internal/metrics"
	"github.com/diewo77/go-payroll/internal/services"
)

// PayrollHandler serves the /api/pos_paie endpoints. Every endpoint answers
// with a JSON envelope whose "status" is "success" or "error".
type PayrollHandler struct {
	Aggregator *services.Aggregator
	Periods    *services.PeriodManager
	Payouts    *services.PayoutService
	Metrics    *metrics.Registry
	Log        *slog.Logger
	Location   *time.Location
}

// NewPayrollHandler creates the payroll API handler.
func NewPayrollHandler(
	agg *services.Aggregator,
	periods *services.PeriodManager,
	payouts *services.PayoutService,
	m *metrics.Registry,
	log *slog.Logger,
	loc *time.Location,
) *PayrollHandler {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logging.Discard()
	}
	return &PayrollHandler{
		Aggregator: agg,
		Periods:    periods,
		Payouts:    payouts,
		Metrics:    m,
		Log:        log,
		Location:   loc,
	}
}

// apiFunc is an endpoint body. A returned error is turned into the error
// envelope by Handle; nothing must have been written in that case.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn into an http.Handler recording metrics under route.
// Panics become a 500 error envelope.
func (h *PayrollHandler) Handle(route string, fn apiFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		log := logging.FromContext(r.Context(), h.Log)

		defer func() {
			if rec := recover(); rec != nil {
				log.ErrorContext(r.Context(), "panic in handler", "route", route, "panic", rec)
				h.Metrics.ObserveError("panic")
				if !sw.wrote {
					httpx.Error(sw, http.StatusInternalServerError, "Erreur interne du serveur")
				}
			}
			h.Metrics.ObserveRequest(route, sw.code, time.Since(start))
		}()

		if err := fn(sw, r); err != nil {
			code, kind := classify(err)
			h.Metrics.ObserveError(kind)
			msg := err.Error()
			if code == http.StatusInternalServerError {
				log.ErrorContext(r.Context(), "request failed", "route", route, "error", err)
				msg = "Erreur interne du serveur"
			} else {
				log.InfoContext(r.Context(), "request rejected", "route", route, "kind", kind, "error", err)
			}
			httpx.Error(sw, code, msg)
		}
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest, "bad_body"
	case errors.Is(err, services.ErrMissingParameter),
		errors.Is(err, services.ErrInvalidDate),
		errors.Is(err, services.ErrInvalidRate):
		return http.StatusBadRequest, services.Kind(err)
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden, services.Kind(err)
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, services.Kind(err)
	default:
		return http.StatusInternalServerError, services.Kind(err)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code  int
	wrote bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wrote {
		w.code = code
		w.wrote = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// ListVendors handles GET/POST /api/pos_paie/vendeurs.
func (h *PayrollHandler) ListVendors(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	list, err := h.Aggregator.ListVendors(r.Context(), services.ListVendorsInput{
		Limit:      p.Int("limit", services.DefaultVendorLimit),
		DateStart:  p.String("date_debut"),
		DateEnd:    p.String("date_fin"),
		WithTotals: p.Bool("with_totaux"),
		Rate:       p.String("pourcentage"),
	})
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, newVendorList(list))
	return nil
}

func calculateInput(p params) services.CalculateInput {
	return services.CalculateInput{
		VendorCard: p.String("vendeur_card"),
		DateStart:  p.String("date_debut"),
		DateEnd:    p.String("date_fin"),
		Rate:       p.String("pourcentage"),
	}
}

// Calculate handles POST /api/pos_paie/calculer.
func (h *PayrollHandler) Calculate(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	d, err := h.Aggregator.Calculate(r.Context(), calculateInput(p))
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, newCalculate(d, h.Location))
	return nil
}

// Report handles POST /api/pos_paie/rapport: calculer without the orders.
func (h *PayrollHandler) Report(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	d, err := h.Aggregator.Report(r.Context(), calculateInput(p))
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, newDetail(d))
	return nil
}

// LegacyTotals handles GET /api/pos_paie/totaux.
func (h *PayrollHandler) LegacyTotals(w http.ResponseWriter, r *http.Request) error {
	rows, err := h.Aggregator.LegacyTotals(r.Context())
	if err != nil {
		return err
	}
	out := legacyResponse{Status: httpx.StatusSuccess, Vendors: make([]legacyEntry, 0, len(rows))}
	for _, row := range rows {
		out.Vendors = append(out.Vendors, legacyEntry{
			CardNumber: row.Vendor.CardNumber,
			Name:       row.Vendor.DisplayName(),
			Gross:      units(row.GrossTotal),
			Withheld:   units(row.Commission),
			Payable:    units(row.NetPayable),
		})
	}
	httpx.JSON(w, http.StatusOK, out)
	return nil
}

// Pay handles POST /api/pos_paie/payer/{numeroCarte}. It acknowledges the
// request and changes nothing.
func (h *PayrollHandler) Pay(w http.ResponseWriter, r *http.Request) error {
	card := r.PathValue("numeroCarte")
	if card == "" {
		return fmt.Errorf("%w: numeroCarte", services.ErrMissingParameter)
	}
	logging.FromContext(r.Context(), h.Log).InfoContext(r.Context(), "payout acknowledged", "vendor_card", card)
	httpx.OK(w)
	return nil
}

// PreparePayout handles POST /api/pos_paie/sortie. The optional rate is a
// percentage in pourcentage_commission.
func (h *PayrollHandler) PreparePayout(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	d, err := h.Payouts.PreparePayout(r.Context(), services.PayoutInput{
		VendorCard:  p.String("vendeur_card"),
		DateStart:   p.String("date_debut"),
		DateEnd:     p.String("date_fin"),
		RatePercent: p.String("pourcentage_commission"),
	})
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, draftResponse{
		Status:     httpx.StatusSuccess,
		Type:       d.Type,
		VendorCard: d.VendorCard,
		VendorName: d.VendorName,
		Amount:     d.Amount,
		Memo:       d.Memo,
		DateStart:  d.DateStart,
		DateEnd:    d.DateEnd,
		PreparedAt: d.PreparedAt,
	})
	return nil
}

// CreatePeriod handles POST /api/pos_paie/periode/create.
func (h *PayrollHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	period, err := h.Periods.CreatePeriod(r.Context(), services.CreatePeriodInput{
		Name:      p.String("name"),
		DateStart: p.String("date_debut"),
		DateEnd:   p.String("date_fin"),
	})
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, periodResponse{Status: httpx.StatusSuccess, periodEntry: newPeriodEntry(period)})
	return nil
}

// ListPeriods handles GET/POST /api/pos_paie/periodes.
func (h *PayrollHandler) ListPeriods(w http.ResponseWriter, r *http.Request) error {
	p, err := readParams(r)
	if err != nil {
		return err
	}
	page, err := h.Periods.List(r.Context(), p.Int("limit", services.DefaultPeriodLimit), p.Offset("offset"))
	if err != nil {
		return err
	}
	out := periodListResponse{
		Status:  httpx.StatusSuccess,
		Periods: make([]periodWithLines, 0, len(page.Periods)),
		Total:   page.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
	}
	for i := range page.Periods {
		out.Periods = append(out.Periods, newPeriodWithLines(&page.Periods[i]))
	}
	httpx.JSON(w, http.StatusOK, out)
	return nil
}

// GetPeriod handles GET /api/pos_paie/periode/{id}.
func (h *PayrollHandler) GetPeriod(w http.ResponseWriter, r *http.Request) error {
	id, err := periodID(r)
	if err != nil {
		return err
	}
	period, err := h.Periods.Get(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, periodDetailResponse{Status: httpx.StatusSuccess, periodWithLines: newPeriodWithLines(period)})
	return nil
}

// RecomputePeriod handles POST /api/pos_paie/periode/{id}/recompute.
func (h *PayrollHandler) RecomputePeriod(w http.ResponseWriter, r *http.Request) error {
	id, err := periodID(r)
	if err != nil {
		return err
	}
	period, err := h.Periods.RecomputeByID(r.Context(), id)
	if err != nil {
		return err
	}
	httpx.JSON(w, http.StatusOK, periodDetailResponse{Status: httpx.StatusSuccess, periodWithLines: newPeriodWithLines(period)})
	return nil
}

// DeletePeriod handles POST /api/pos_paie/periode/{id}/delete.
func (h *PayrollHandler) DeletePeriod(w http.ResponseWriter, r *http.Request) error {
	id, err := periodID(r)
	if err != nil {
		return err
	}
	if err := h.Periods.Delete(r.Context(), id); err != nil {
		return err
	}
	httpx.OK(w)
	return nil
}

func periodID(r *http.Request) (uint, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: periode %q", services.ErrNotFound, raw)
	}
	return uint(id), nil
}
