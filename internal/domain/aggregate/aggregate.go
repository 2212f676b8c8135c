// Package aggregate implements the Aggregated staging layer: batch-relative
// metrics derived from a validated batch. The computation is two-pass
// (collect batch statistics, then map) because normalization needs the
// whole batch, not a row-at-a-time stream.
package aggregate

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/okian/encore/internal/domain/model"
)

// neutralEfficiency is used when the batch gives no cost spread to
// normalize against: a single record, or all records costing the same.
const neutralEfficiency = 1.0

// ExperienceFunc derives the experience proxy for one record from its
// ticket and merchandise spend and the batch-wide maximum of that spend.
// Implementations must return a finite value in [0, 1].
type ExperienceFunc func(ticket, merchandise, maxSpend float64) float64

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithExperienceFunc replaces the default experience proxy.
func WithExperienceFunc(fn ExperienceFunc) Option {
	return func(b *Builder) {
		if fn != nil {
			b.experience = fn
		}
	}
}

// Builder derives AggregatedMetrics from validated records.
type Builder struct {
	experience ExperienceFunc
}

// NewBuilder creates a Builder with the default experience proxy.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		experience: defaultExperience,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// defaultExperience normalizes ticket+merchandise spend against the batch
// maximum. Zero spend across the batch yields zero.
func defaultExperience(ticket, merchandise, maxSpend float64) float64 {
	if maxSpend <= 0 {
		return 0
	}
	return (ticket + merchandise) / maxSpend
}

// Build computes metrics for every record. Deterministic: identical input
// yields field-for-field identical output, and every derived field is
// finite and non-negative.
func (b *Builder) Build(records []model.ValidatedRecord) []model.AggregatedMetrics {
	if len(records) == 0 {
		return nil
	}

	// First pass: batch statistics.
	maxCost, minCost := records[0].CostTotal(), records[0].CostTotal()
	maxSpend := 0.0
	for _, rec := range records {
		cost := rec.CostTotal()
		if cost > maxCost {
			maxCost = cost
		}
		if cost < minCost {
			minCost = cost
		}
		if spend := rec.TicketPrice + rec.MerchandiseCost; spend > maxSpend {
			maxSpend = spend
		}
	}

	// Second pass: per-record metrics.
	entries := make([]model.AggregatedMetrics, len(records))
	for i, rec := range records {
		cost := rec.CostTotal()

		efficiency := neutralEfficiency
		if maxCost > minCost {
			efficiency = 1 - cost/maxCost
		}

		entries[i] = model.AggregatedMetrics{
			Record:          rec,
			TotalCost:       cost,
			CostEfficiency:  efficiency,
			ExperienceValue: b.experience(rec.TicketPrice, rec.MerchandiseCost, maxSpend),
		}
	}
	return entries
}

// LocationStat summarizes total cost for one location.
type LocationStat struct {
	Mean  float64
	Min   float64
	Max   float64
	Count int
}

// LocationStats groups entries by location and summarizes their total cost.
func LocationStats(entries []model.AggregatedMetrics) map[string]LocationStat {
	stats := make(map[string]LocationStat)
	for _, e := range entries {
		s, ok := stats[e.Record.Location]
		if !ok {
			s = LocationStat{Min: e.TotalCost, Max: e.TotalCost}
		}
		if e.TotalCost < s.Min {
			s.Min = e.TotalCost
		}
		if e.TotalCost > s.Max {
			s.Max = e.TotalCost
		}
		// Mean carries the running sum until the end of the loop.
		s.Mean += e.TotalCost
		s.Count++
		stats[e.Record.Location] = s
	}
	for loc, s := range stats {
		s.Mean /= float64(s.Count)
		stats[loc] = s
	}
	return stats
}

// aggregatedColumns is the header of the Aggregated layer's CSV form.
var aggregatedColumns = []string{
	"nama_konser",
	"lokasi",
	"tanggal",
	"harga_tiket",
	"biaya_transport",
	"biaya_akomodasi",
	"merchandise",
	"total_pengeluaran",
	"total_cost",
	"cost_efficiency",
	"experience_value",
}

const dateLayout = "2006-01-02"

// EncodeBatch renders aggregated entries to CSV for the Aggregated layer.
func EncodeBatch(entries []model.AggregatedMetrics) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(aggregatedColumns); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.Record.Name,
			e.Record.Location,
			e.Record.Date.Format(dateLayout),
			formatFloat(e.Record.TicketPrice),
			formatFloat(e.Record.TransportCost),
			formatFloat(e.Record.AccommodationCost),
			formatFloat(e.Record.MerchandiseCost),
			formatFloat(e.Record.TotalExpense),
			formatFloat(e.TotalCost),
			formatFloat(e.CostEfficiency),
			formatFloat(e.ExperienceValue),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeBatch parses what EncodeBatch wrote. Used when a recommendation
// request reads the Aggregated layer back from storage.
func DecodeBatch(data []byte) ([]model.AggregatedMetrics, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(aggregatedColumns)

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: no header row", ErrCorruptLayer)
	}
	if len(header) != len(aggregatedColumns) {
		return nil, fmt.Errorf("%w: unexpected header width %d", ErrCorruptLayer, len(header))
	}

	var entries []model.AggregatedMetrics
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", ErrCorruptLayer, err)
		}
		e, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeRow(row []string) (model.AggregatedMetrics, error) {
	var e model.AggregatedMetrics

	date, err := time.Parse(dateLayout, row[2])
	if err != nil {
		return e, fmt.Errorf("%w: bad date %q", ErrCorruptLayer, row[2])
	}

	nums := make([]float64, 8)
	for i, cell := range row[3:] {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return e, fmt.Errorf("%w: bad number %q", ErrCorruptLayer, cell)
		}
		nums[i] = v
	}

	e.Record = model.ValidatedRecord{
		Name:              row[0],
		Location:          row[1],
		Date:              date,
		TicketPrice:       nums[0],
		TransportCost:     nums[1],
		AccommodationCost: nums[2],
		MerchandiseCost:   nums[3],
		TotalExpense:      nums[4],
	}
	e.TotalCost = nums[5]
	e.CostEfficiency = nums[6]
	e.ExperienceValue = nums[7]
	return e, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
