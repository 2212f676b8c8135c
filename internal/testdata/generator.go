// Package testdata generates realistic concert-cost CSV files for
// exercising the staging pipeline, including deliberately broken rows.
package testdata

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/encore/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	costBandDivisor    = 3
	badKindDivisor     = 3
)

// Cost bands in the source currency (thousands of rupiah).
const (
	budgetTicketMin    = 350.0
	budgetTicketRange  = 400.0
	midTicketMin       = 750.0
	midTicketRange     = 650.0
	premiumTicketMin   = 1400.0
	premiumTicketRange = 1100.0

	transportMin       = 50.0
	transportRange     = 350.0
	accommodationMin   = 0.0
	accommodationRange = 500.0
	merchandiseMin     = 0.0
	merchandiseRange   = 400.0
)

// Broken row kinds.
const (
	badKindDate = iota
	badKindNegativeCost
	badKindMissingName
)

var cities = []string{
	"Jakarta", "Bandung", "Surabaya", "Yogyakarta", "Medan",
	"Semarang", "Tangerang", "Bekasi", "Bali", "Makassar",
}

var acts = []string{
	"NCT Dream", "Seventeen", "Blackpink", "Stray Kids", "Twice",
	"Enhypen", "IVE", "NewJeans", "Ateez", "Itzy",
}

// Config holds configuration for concert data generation.
type Config struct {
	Rows     int     // Number of rows to generate
	BadShare float64 // Fraction of rows made deliberately invalid, in [0,1]
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomInt returns a random int below n using crypto/rand.
func getRandomInt(n int64) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return int(v.Int64())
}

// Generate produces a CSV document with cfg.Rows concert rows, of which
// roughly cfg.BadShare are broken in one of several ways.
func Generate(ctx context.Context, cfg *Config) ([]byte, error) {
	if cfg.Rows < 1 {
		return nil, fmt.Errorf("row count must be positive, got %d", cfg.Rows)
	}
	if cfg.BadShare < 0 || cfg.BadShare > 1 {
		return nil, fmt.Errorf("bad share must be in [0,1], got %g", cfg.BadShare)
	}

	logger.Get().Info(ctx, "generating concert rows",
		logger.Int("rows", cfg.Rows),
		logger.Float64("badShare", cfg.BadShare),
	)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"nama_konser", "lokasi", "tanggal",
		"harga_tiket", "biaya_transport", "biaya_akomodasi",
		"merchandise", "total_pengeluaran",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i := 0; i < cfg.Rows; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row := generateRow()
		if getRandomFloat() < cfg.BadShare {
			breakRow(row)
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// generateRow builds one well-formed concert row.
func generateRow() []string {
	act := acts[getRandomInt(int64(len(acts)))]
	city := cities[getRandomInt(int64(len(cities)))]
	name := fmt.Sprintf("%s %s %s", act, city, uuid.New().String()[:8])

	var ticket float64
	switch getRandomInt(costBandDivisor) {
	case 0:
		ticket = budgetTicketMin + getRandomFloat()*budgetTicketRange
	case 1:
		ticket = midTicketMin + getRandomFloat()*midTicketRange
	default:
		ticket = premiumTicketMin + getRandomFloat()*premiumTicketRange
	}

	transport := transportMin + getRandomFloat()*transportRange
	accommodation := accommodationMin + getRandomFloat()*accommodationRange
	merchandise := merchandiseMin + getRandomFloat()*merchandiseRange
	total := ticket + transport + accommodation + merchandise

	date := time.Now().AddDate(0, getRandomInt(12), getRandomInt(28)).Format("2006-01-02")

	return []string{
		name,
		city,
		date,
		formatAmount(ticket),
		formatAmount(transport),
		formatAmount(accommodation),
		formatAmount(merchandise),
		formatAmount(total),
	}
}

// breakRow damages a row in place so validation must reject it.
func breakRow(row []string) {
	switch getRandomInt(badKindDivisor) {
	case badKindDate:
		row[2] = "soon"
	case badKindNegativeCost:
		row[3] = "-" + row[3]
	default:
		row[0] = ""
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
