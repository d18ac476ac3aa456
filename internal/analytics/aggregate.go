package analytics

import "sort"

// topVendors is how many vendors are kept individually before the rest
// collapse into a single "Others" entry.
const topVendors = 8

// OthersKey names the synthetic vendor entry that absorbs everything
// below the top vendors.
const OthersKey = "Others"

type (
	// KPI is the headline summary over the filtered rows.
	KPI struct {
		InvoiceCount int     `json:"invoiceCount"`
		TotalAmount  float64 `json:"totalAmount"`
		TotalVAT     float64 `json:"totalVat"`
		AvgInvoice   float64 `json:"avgInvoice"`
	}

	// MonthlyTotal sums all rows sharing one month key.
	MonthlyTotal struct {
		Month    string  `json:"month"`
		Total    float64 `json:"total"`
		VAT      float64 `json:"vat"`
		Subtotal float64 `json:"subtotal"`
	}

	// VendorTotal is one slice of the vendor share.
	VendorTotal struct {
		Name  string  `json:"name"`
		Total float64 `json:"total"`
	}

	// MonthlyFlow is the subtotal/VAT pair per month.
	MonthlyFlow struct {
		Month    string  `json:"month"`
		Subtotal float64 `json:"subtotalAmount"`
		VAT      float64 `json:"vatAmount"`
	}

	// CumulativePoint is the running total up to and including a month.
	CumulativePoint struct {
		Month      string  `json:"month"`
		Cumulative float64 `json:"cumulativeTotal"`
	}

	// Summary bundles every derived view over one filtered snapshot.
	Summary struct {
		KPIs       KPI               `json:"kpis"`
		ByMonth    []MonthlyTotal    `json:"byMonth"`
		ByVendor   []VendorTotal     `json:"byVendor"`
		Flows      []MonthlyFlow     `json:"flows"`
		Cumulative []CumulativePoint `json:"cumulative"`
	}
)

// Aggregate computes every derived view from the filtered rows. Each
// view is rebuilt from scratch; nothing is cached or mutated in place,
// so the same input always yields the same output.
func Aggregate(rows []Row) Summary {
	return Summary{
		KPIs:       computeKPIs(rows),
		ByMonth:    aggregateByMonth(rows),
		ByVendor:   aggregateByVendor(rows),
		Flows:      monthlyFlows(aggregateByMonth(rows)),
		Cumulative: cumulative(aggregateByMonth(rows)),
	}
}

func computeKPIs(rows []Row) KPI {
	k := KPI{InvoiceCount: len(rows)}
	for _, r := range rows {
		k.TotalAmount += r.Total
		k.TotalVAT += r.VAT
	}
	if k.InvoiceCount > 0 {
		k.AvgInvoice = k.TotalAmount / float64(k.InvoiceCount)
	}
	return k
}

// aggregateByMonth buckets rows by month key and sorts the buckets
// ascending lexicographically. For well-formed YYYY-MM keys that is
// chronological order; "Unknown" sorts after every valid key.
func aggregateByMonth(rows []Row) []MonthlyTotal {
	byKey := make(map[string]*MonthlyTotal)
	for _, r := range rows {
		m, ok := byKey[r.MonthKey]
		if !ok {
			m = &MonthlyTotal{Month: r.MonthKey}
			byKey[r.MonthKey] = m
		}
		m.Total += r.Total
		m.VAT += r.VAT
		m.Subtotal += r.Subtotal
	}

	out := make([]MonthlyTotal, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// aggregateByVendor sums totals per vendor, keeps the top vendors by
// total and collapses the remainder into one "Others" entry. The
// "Others" entry only appears when at least one vendor was collapsed.
func aggregateByVendor(rows []Row) []VendorTotal {
	byName := make(map[string]float64)
	for _, r := range rows {
		byName[r.Vendor] += r.Total
	}

	all := make([]VendorTotal, 0, len(byName))
	for name, total := range byName {
		all = append(all, VendorTotal{Name: name, Total: total})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Total != all[j].Total {
			return all[i].Total > all[j].Total
		}
		return all[i].Name < all[j].Name
	})

	if len(all) <= topVendors {
		return all
	}
	top := all[:topVendors:topVendors]
	var rest float64
	for _, v := range all[topVendors:] {
		rest += v.Total
	}
	return append(top, VendorTotal{Name: OthersKey, Total: rest})
}

func monthlyFlows(byMonth []MonthlyTotal) []MonthlyFlow {
	out := make([]MonthlyFlow, len(byMonth))
	for i, m := range byMonth {
		out[i] = MonthlyFlow{Month: m.Month, Subtotal: m.Subtotal, VAT: m.VAT}
	}
	return out
}

// cumulative walks the already-sorted monthly sequence and accumulates
// totals in order.
func cumulative(byMonth []MonthlyTotal) []CumulativePoint {
	out := make([]CumulativePoint, len(byMonth))
	var acc float64
	for i, m := range byMonth {
		acc += m.Total
		out[i] = CumulativePoint{Month: m.Month, Cumulative: acc}
	}
	return out
}
