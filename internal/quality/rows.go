package quality

import "latency-dashboard/internal/models"

// Row is one line of the classified results table
type Row struct {
	Target string `json:"target"`
	models.TargetStatistics
	Classification
}

// Rows classifies every target of a result set, keeping its order
func Rows(rs *models.ResultSet) []Row {
	rows := make([]Row, 0, rs.Len())
	rs.Each(func(target string, s models.TargetStatistics) {
		rows = append(rows, Row{
			Target:           target,
			TargetStatistics: s,
			Classification:   Classify(s),
		})
	})
	return rows
}
