package database

import (
	"fmt"
	log "github.com/sirupsen/logrus"
)

// MetricRow is one persisted sample. Unlabeled metrics use empty label fields.
type MetricRow struct {
	Name       string
	LabelKey   string
	LabelValue string
	Value      float64
}

func (s *Store) SaveMetric(metricName, labelKey, labelValue string, value float64) error {
	query := `
	INSERT OR REPLACE INTO metrics (metric_name, label_key, label_value, metric_value)
	VALUES (?, ?, ?, ?);`
	_, err := s.db.Exec(query, metricName, labelKey, labelValue, value)
	if err != nil {
		return fmt.Errorf("failed to save metric: %w", err)
	}
	log.Debugf("Metric saved: %s[%s=%s] = %f", metricName, labelKey, labelValue, value)
	return nil
}

// GetMetrics fetches every stored sample for metricName
func (s *Store) GetMetrics(metricName string) ([]MetricRow, error) {
	query := `
	SELECT label_key, label_value, metric_value
	FROM metrics
	WHERE metric_name = ?
	ORDER BY label_key, label_value;`

	rows, err := s.db.Query(query, metricName)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric %s: %w", metricName, err)
	}
	defer rows.Close()

	var out []MetricRow
	for rows.Next() {
		row := MetricRow{Name: metricName}
		if err := rows.Scan(&row.LabelKey, &row.LabelValue, &row.Value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
