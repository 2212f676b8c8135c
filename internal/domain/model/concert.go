// Package model contains domain models passed between layers.
package model

import "time"

// RawHandle identifies where a raw upload landed in the blob store.
type RawHandle struct {
	BatchID    string // unique id namespacing all of the batch's layer writes
	Key        string // blob store key of the verbatim upload
	SourceName string // caller-supplied name of the uploaded file
}

// ValidatedRecord is one concert-cost row after schema enforcement.
// All cost fields are non-negative; Date parsed successfully.
type ValidatedRecord struct {
	Name              string
	Location          string
	Date              time.Time
	TicketPrice       float64
	TransportCost     float64
	AccommodationCost float64
	MerchandiseCost   float64
	TotalExpense      float64 // as reported by the source row
}

// CostTotal sums the four cost components. This, not TotalExpense, is the
// figure the aggregation and scoring layers work from.
func (r ValidatedRecord) CostTotal() float64 {
	return r.TicketPrice + r.TransportCost + r.AccommodationCost + r.MerchandiseCost
}

// ValidatedBatch is the output of the Validated staging layer.
type ValidatedBatch struct {
	Handle        RawHandle
	Records       []ValidatedRecord
	RejectedCount int // rows dropped during coercion, tallied not raised
}

// AggregatedMetrics is one Validated record plus its batch-relative metrics.
type AggregatedMetrics struct {
	Record ValidatedRecord

	TotalCost       float64 // sum of the four cost components
	CostEfficiency  float64 // in [0,1]; 1.0 is neutral/cheapest
	ExperienceValue float64 // in [0,1]; normalized ticket+merchandise proxy
}

// AggregatedBatch is the output of the Aggregated staging layer.
type AggregatedBatch struct {
	Handle  RawHandle
	Entries []AggregatedMetrics
}
