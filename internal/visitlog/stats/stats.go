// Package stats joins companies with their work logs to produce the
// per-company visit statistics shown in the company table.
package stats

import (
	"github.com/gartstein/visitlog/internal/visitlog/models"
	"github.com/google/uuid"
)

// Aggregate annotates every company with its visit count and most recent
// visit date. Logs whose company is not in companies are ignored. The
// output has one row per company, in input order.
func Aggregate(companies []models.Company, logs []models.WorkLog) []models.CompanyStats {
	type partition struct {
		count int
		last  models.Date
	}
	byCompany := make(map[uuid.UUID]*partition, len(companies))
	for i := range logs {
		p, ok := byCompany[logs[i].CompanyID]
		if !ok {
			p = &partition{}
			byCompany[logs[i].CompanyID] = p
		}
		p.count++
		if p.count == 1 || logs[i].VisitDate.After(p.last) {
			p.last = logs[i].VisitDate
		}
	}

	rows := make([]models.CompanyStats, 0, len(companies))
	for _, c := range companies {
		row := models.CompanyStats{Company: c}
		if p, ok := byCompany[c.ID]; ok {
			last := p.last
			row.VisitCount = p.count
			row.LastVisitDate = &last
		}
		rows = append(rows, row)
	}
	return rows
}
