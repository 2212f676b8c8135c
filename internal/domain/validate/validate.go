// Package validate implements the Validated staging layer: it parses raw
// tabular uploads and coerces rows into typed concert records. Rows that
// fail coercion are dropped and tallied, never raised.
package validate

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/okian/encore/internal/domain/model"
)

// Source column names. The upstream export's naming is the wire format.
const (
	colName          = "nama_konser"
	colLocation      = "lokasi"
	colDate          = "tanggal"
	colTicket        = "harga_tiket"
	colTransport     = "biaya_transport"
	colAccommodation = "biaya_akomodasi"
	colMerchandise   = "merchandise"
	colTotal         = "total_pengeluaran"
)

// requiredColumns lists every column a row must provide, in canonical order.
var requiredColumns = []string{
	colName,
	colLocation,
	colDate,
	colTicket,
	colTransport,
	colAccommodation,
	colMerchandise,
	colTotal,
}

// dateLayouts are the accepted formats for the tanggal column.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// ParseBatch parses delimited bytes into validated records. It returns the
// surviving records in input order, the number of rejected rows, and
// ErrEmptyBatch when zero rows survive. One bad row never aborts the batch.
// Parsing is idempotent: identical bytes yield identical output.
func ParseBatch(data []byte) ([]model.ValidatedRecord, int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: no header row", ErrEmptyBatch)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		// Every data row is rejected when a required column is absent.
		rejected := 0
		for {
			if _, err := r.Read(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
			}
			rejected++
		}
		return nil, rejected, fmt.Errorf("%w: missing columns %s", ErrEmptyBatch, strings.Join(missing, ", "))
	}

	var records []model.ValidatedRecord
	rejected := 0
	for {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			rejected++
			continue
		}
		rec, ok := coerceRow(row, index)
		if !ok {
			rejected++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, rejected, fmt.Errorf("%w: %d rows rejected", ErrEmptyBatch, rejected)
	}
	return records, rejected, nil
}

// coerceRow turns one raw row into a ValidatedRecord. Any missing field,
// unparseable date, or negative/non-numeric cost fails the whole row.
func coerceRow(row []string, index map[string]int) (model.ValidatedRecord, bool) {
	field := func(col string) (string, bool) {
		i := index[col]
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	var rec model.ValidatedRecord

	name, ok := field(colName)
	if !ok || name == "" {
		return rec, false
	}
	rec.Name = name

	location, ok := field(colLocation)
	if !ok {
		return rec, false
	}
	rec.Location = location

	rawDate, ok := field(colDate)
	if !ok {
		return rec, false
	}
	date, ok := parseDate(rawDate)
	if !ok {
		return rec, false
	}
	rec.Date = date

	for _, c := range []struct {
		col string
		dst *float64
	}{
		{colTicket, &rec.TicketPrice},
		{colTransport, &rec.TransportCost},
		{colAccommodation, &rec.AccommodationCost},
		{colMerchandise, &rec.MerchandiseCost},
		{colTotal, &rec.TotalExpense},
	} {
		raw, ok := field(c.col)
		if !ok {
			return rec, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return rec, false
		}
		*c.dst = v
	}

	return rec, true
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EncodeBatch renders validated records back to canonical CSV for the
// Validated layer write. Decoding the result with ParseBatch round-trips.
func EncodeBatch(records []model.ValidatedRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(requiredColumns); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.Location,
			rec.Date.Format(dateLayouts[0]),
			formatFloat(rec.TicketPrice),
			formatFloat(rec.TransportCost),
			formatFloat(rec.AccommodationCost),
			formatFloat(rec.MerchandiseCost),
			formatFloat(rec.TotalExpense),
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

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
