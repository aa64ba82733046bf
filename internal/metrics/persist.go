package metrics

import (
	"github.com/fightingentropy/bird-eye/internal/database"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
	"strings"
)

// Load adds the persisted values back onto the in-process counters
func Load(store *database.Store) {
	for name, collector := range persisted {
		rows, err := store.GetMetrics(name)
		if err != nil {
			log.Errorf("Failed to load metric %s: %v", name, err)
			continue
		}

		for _, row := range rows {
			if row.Value <= 0 {
				continue
			}
			switch c := collector.(type) {
			case prometheus.Counter:
				c.Add(row.Value)
			case *prometheus.CounterVec:
				counter, err := c.GetMetricWith(labelsOf(row))
				if err != nil {
					log.Errorf("Skipping stored sample %s[%s=%s]: %v", name, row.LabelKey, row.LabelValue, err)
					continue
				}
				counter.Add(row.Value)
			}
		}
	}

	log.Debug("Metrics loaded from database.")
}

// Save writes the current value of every persisted counter
func Save(store *database.Store) {
	for name, collector := range persisted {
		for _, sample := range collect(collector) {
			if err := store.SaveMetric(name, sample.LabelKey, sample.LabelValue, sample.Value); err != nil {
				log.Errorf("Failed to save metric %s: %v", name, err)
			}
		}
	}

	log.Debug("Metrics saved to database.")
}

func collect(collector prometheus.Collector) []database.MetricRow {
	metricChan := make(chan prometheus.Metric)
	go func() {
		collector.Collect(metricChan)
		close(metricChan)
	}()

	var out []database.MetricRow
	for metric := range metricChan {
		metricProto := &dto.Metric{}
		if err := metric.Write(metricProto); err != nil {
			log.Errorf("Failed to read metric value: %v", err)
			continue
		}

		var names, values []string
		for _, label := range metricProto.Label {
			names = append(names, label.GetName())
			values = append(values, label.GetValue())
		}

		out = append(out, database.MetricRow{
			LabelKey:   strings.Join(names, ","),
			LabelValue: strings.Join(values, ","),
			Value:      metricProto.GetCounter().GetValue(),
		})
	}
	return out
}

func labelsOf(row database.MetricRow) prometheus.Labels {
	labels := prometheus.Labels{}
	if row.LabelKey == "" {
		return labels
	}
	names := strings.Split(row.LabelKey, ",")
	values := strings.Split(row.LabelValue, ",")
	for i, name := range names {
		if i < len(values) {
			labels[name] = values[i]
		}
	}
	return labels
}
