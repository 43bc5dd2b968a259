package handlers

import (
	"time"

	"github.com/diewo77/go-payroll/httpx"
	"github.com/diewo77/go-payroll/internal/commission"
	"github.com/diewo77/go-payroll/internal/models"
	"github.com/diewo77/go-payroll/internal/services"
	"github.com/diewo77/go-payroll/internal/window"
	"github.com/shopspring/decimal"
)

// Monetary fields leave the API as whole currency units truncated toward
// zero. Rates stay fractions.

type vendorEntry struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	CardNumber   string `json:"carte_numero"`
	VoucherTotal int64  `json:"total_bp"`
	VoucherCount int    `json:"nb_commandes"`
	GrossTotal   *int64 `json:"total_commandes,omitempty"`
	Commission   *int64 `json:"commission,omitempty"`
	NetPayable   *int64 `json:"montant_net,omitempty"`
}

type vendorListResponse struct {
	Status    string        `json:"status"`
	Vendors   []vendorEntry `json:"vendeurs"`
	DateStart *string       `json:"date_debut"`
	DateEnd   *string       `json:"date_fin"`
}

type orderEntry struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Date        string             `json:"date"`
	Total       int64              `json:"total"`
	PaymentType models.PaymentType `json:"type_paiement"`
}

type dayEntry struct {
	Date    string `json:"date"`
	Total   int64  `json:"total"`
	Voucher int64  `json:"total_bp"`
	Count   int    `json:"nb"`
}

type detailResponse struct {
	Status       string     `json:"status"`
	VendorCard   string     `json:"vendeur_card"`
	DateStart    string     `json:"date_debut"`
	DateEnd      string     `json:"date_fin"`
	Rate         float64    `json:"pourcentage"`
	GrossTotal   int64      `json:"total_commandes"`
	VoucherTotal int64      `json:"total_bp"`
	Commission   int64      `json:"commission"`
	NetPayable   int64      `json:"montant_net"`
	Daily        []dayEntry `json:"breakdown_jour"`
}

type calculateResponse struct {
	detailResponse
	Orders []orderEntry `json:"commandes"`
}

type legacyEntry struct {
	CardNumber string `json:"numero_carte"`
	Name       string `json:"nom"`
	Gross      int64  `json:"total_commandes_fc"`
	Withheld   int64  `json:"retenue_fc"`
	Payable    int64  `json:"a_payer_fc"`
}

type legacyResponse struct {
	Status  string        `json:"status"`
	Vendors []legacyEntry `json:"vendeurs"`
}

type lineEntry struct {
	ID           uint    `json:"id"`
	Name         string  `json:"name"`
	CardNumber   string  `json:"carte_numero"`
	OrderCount   int     `json:"nb_commandes"`
	GrossTotal   int64   `json:"total_commandes"`
	VoucherTotal int64   `json:"total_bp"`
	Rate         float64 `json:"pourcentage"`
	Commission   int64   `json:"commission"`
	NetPayable   int64   `json:"montant_net"`
}

type periodEntry struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	DateStart       string `json:"date_debut"`
	DateEnd         string `json:"date_fin"`
	VendorCount     int    `json:"nb_vendeurs"`
	GrossTotal      int64  `json:"total_commandes"`
	VoucherTotal    int64  `json:"total_bp"`
	CommissionTotal int64  `json:"commission_total"`
	NetTotal        int64  `json:"montant_net_total"`
}

type periodWithLines struct {
	periodEntry
	Lines []lineEntry `json:"paies"`
}

type periodResponse struct {
	Status string `json:"status"`
	periodEntry
}

type periodDetailResponse struct {
	Status string `json:"status"`
	periodWithLines
}

type periodListResponse struct {
	Status  string            `json:"status"`
	Periods []periodWithLines `json:"periodes"`
	Total   int64             `json:"total"`
	Offset  int               `json:"offset"`
	Limit   int               `json:"limit"`
}

type draftResponse struct {
	Status     string    `json:"status"`
	Type       string    `json:"type"`
	VendorCard string    `json:"vendeur_card"`
	VendorName string    `json:"vendeur_name"`
	Amount     int64     `json:"montant"`
	Memo       string    `json:"motif"`
	DateStart  string    `json:"date_debut"`
	DateEnd    string    `json:"date_fin"`
	PreparedAt time.Time `json:"prepared_at"`
}

func units(d decimal.Decimal) int64 { return commission.Units(d) }

func unitsPtr(d decimal.Decimal) *int64 {
	u := units(d)
	return &u
}

func optionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := window.Format(t)
	return &s
}

func newVendorList(l *services.VendorList) vendorListResponse {
	out := vendorListResponse{
		Status:    httpx.StatusSuccess,
		Vendors:   make([]vendorEntry, 0, len(l.Vendors)),
		DateStart: optionalDate(l.Window.Start),
		DateEnd:   optionalDate(l.Window.End),
	}
	for _, s := range l.Vendors {
		e := vendorEntry{
			ID:           s.Vendor.ID,
			Name:         s.Vendor.DisplayName(),
			CardNumber:   s.Vendor.CardNumber,
			VoucherTotal: units(s.VoucherTotal),
			VoucherCount: s.VoucherCount,
		}
		if s.HasTotals {
			e.GrossTotal = unitsPtr(s.GrossTotal)
			e.Commission = unitsPtr(s.Commission)
			e.NetPayable = unitsPtr(s.NetPayable)
		}
		out.Vendors = append(out.Vendors, e)
	}
	return out
}

func newDetail(d *services.VendorPeriodDetail) detailResponse {
	out := detailResponse{
		Status:       httpx.StatusSuccess,
		VendorCard:   d.VendorCard,
		DateStart:    window.Format(d.Window.Start),
		DateEnd:      window.Format(d.Window.End),
		Rate:         d.Rate.Float(),
		GrossTotal:   units(d.Totals.Gross),
		VoucherTotal: units(d.Totals.Voucher),
		Commission:   units(d.Result.Commission),
		NetPayable:   units(d.Result.NetPayable),
		Daily:        make([]dayEntry, 0, len(d.Daily)),
	}
	for _, day := range d.Daily {
		out.Daily = append(out.Daily, dayEntry{
			Date:    day.Date,
			Total:   units(day.Gross),
			Voucher: units(day.Voucher),
			Count:   day.Count,
		})
	}
	return out
}

func newCalculate(d *services.VendorPeriodDetail, loc *time.Location) calculateResponse {
	out := calculateResponse{
		detailResponse: newDetail(d),
		Orders:         make([]orderEntry, 0, len(d.Orders)),
	}
	for _, o := range d.Orders {
		out.Orders = append(out.Orders, orderEntry{
			ID:          o.ID,
			Name:        o.Name,
			Date:        o.Date.In(loc).Format(models.DateLayout),
			Total:       o.Total,
			PaymentType: o.PaymentType,
		})
	}
	return out
}

func newPeriodEntry(p *models.Period) periodEntry {
	t := p.Totals()
	return periodEntry{
		ID:              p.ID,
		Name:            p.Name,
		DateStart:       p.DateStart.UTC().Format(models.DateLayout),
		DateEnd:         p.DateEnd.UTC().Format(models.DateLayout),
		VendorCount:     t.Vendors,
		GrossTotal:      units(t.Gross),
		VoucherTotal:    units(t.Voucher),
		CommissionTotal: units(t.Commission),
		NetTotal:        units(t.NetPayable),
	}
}

func newPeriodWithLines(p *models.Period) periodWithLines {
	out := periodWithLines{
		periodEntry: newPeriodEntry(p),
		Lines:       make([]lineEntry, 0, len(p.Lines)),
	}
	for _, l := range p.Lines {
		le := lineEntry{
			ID:           l.VendorID,
			OrderCount:   l.OrderCount,
			GrossTotal:   units(l.GrossTotal),
			VoucherTotal: units(l.VoucherTotal),
			Rate:         l.Rate.InexactFloat64(),
			Commission:   units(l.Commission),
			NetPayable:   units(l.NetPayable),
		}
		if l.Vendor != nil {
			le.Name = l.Vendor.DisplayName()
			le.CardNumber = l.Vendor.CardNumber
		}
		out.Lines = append(out.Lines, le)
	}
	return out
}
