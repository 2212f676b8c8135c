// Package types contains common types used across the application
package types

// Recommendation represents one ranked concert suggestion.
type Recommendation struct {
	Rank            int     `json:"rank"`
	Name            string  `json:"name"`
	Location        string  `json:"location"`
	Date            string  `json:"date"`
	TotalCost       float64 `json:"total_cost"`
	Affordability   string  `json:"affordability"`
	Score           float64 `json:"score"`
	CostEfficiency  float64 `json:"cost_efficiency"`
	BudgetRemaining float64 `json:"budget_remaining_ratio"`
	ExperienceValue float64 `json:"experience_value"`
}
