package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/okian/encore/internal/domain/model"
	scoring "github.com/okian/encore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func entry(name string, totalCost, efficiency, experience float64) model.AggregatedMetrics {
	return model.AggregatedMetrics{
		Record: model.ValidatedRecord{
			Name:     name,
			Location: "Jakarta",
			Date:     time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		TotalCost:       totalCost,
		CostEfficiency:  efficiency,
		ExperienceValue: experience,
	}
}

func TestRecommend(t *testing.T) {
	Convey("Given a recommender with default weights", t, func() {
		r := scoring.NewRecommender()
		ctx := context.Background()

		Convey("When three concerts cost 500, 800, 1200 and the budget is 1000", func() {
			entries := []model.AggregatedMetrics{
				entry("Cheap", 500, 0.8, 0.3),
				entry("Mid", 800, 0.5, 0.9),
				entry("Pricey", 1200, 0.1, 1.0),
			}

			recs, err := r.Recommend(ctx, entries, 1000, 10)

			Convey("Then exactly the affordable two should come back, ranked", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				names := []string{recs[0].Name, recs[1].Name}
				So(names, ShouldContain, "Cheap")
				So(names, ShouldContain, "Mid")
				So(recs[0].Rank, ShouldEqual, 1)
				So(recs[1].Rank, ShouldEqual, 2)
				So(recs[0].Score, ShouldBeGreaterThanOrEqualTo, recs[1].Score)
			})

			Convey("Then the score should follow the 40/30/30 weighting", func() {
				// Cheap: 0.4*0.8 + 0.3*0.5 + 0.3*0.3 = 0.56
				for _, rec := range recs {
					if rec.Name == "Cheap" {
						So(rec.Score, ShouldAlmostEqual, 0.56, 1e-12)
						So(rec.BudgetRemaining, ShouldAlmostEqual, 0.5, 1e-12)
					}
				}
			})
		})

		Convey("When the budget is below every total cost", func() {
			entries := []model.AggregatedMetrics{
				entry("A", 500, 1, 1),
				entry("B", 800, 1, 1),
			}

			recs, err := r.Recommend(ctx, entries, 100, 10)

			Convey("Then the result is empty and not an error", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldBeEmpty)
			})
		})

		Convey("When the budget is negative", func() {
			_, err := r.Recommend(ctx, []model.AggregatedMetrics{entry("A", 1, 1, 1)}, -1, 10)

			Convey("Then it should fail with ErrInvalidBudget", func() {
				So(errors.Is(err, scoring.ErrInvalidBudget), ShouldBeTrue)
			})
		})

		Convey("When the budget is zero", func() {
			recs, err := r.Recommend(ctx, []model.AggregatedMetrics{entry("Free", 0, 1, 0)}, 0, 10)

			Convey("Then the remaining ratio is defined as zero", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
				So(recs[0].BudgetRemaining, ShouldEqual, 0)
			})
		})

		Convey("When scores tie", func() {
			// Two concerts with identical cost and metrics tie on both
			// score and cost, so original batch order must decide.
			entries := []model.AggregatedMetrics{
				entry("Tie One", 400, 0.5, 0.5),
				entry("Tie Two", 400, 0.5, 0.5),
				entry("Winner", 100, 0.9, 0.9),
			}

			recs, err := r.Recommend(ctx, entries, 1000, 10)

			Convey("Then ties break by cost then original order", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
				So(recs[0].Name, ShouldEqual, "Winner")
				So(recs[1].Name, ShouldEqual, "Tie One")
				So(recs[2].Name, ShouldEqual, "Tie Two")
			})

			Convey("Then adjacent equal scores never order pricier first", func() {
				for i := 0; i < len(recs)-1; i++ {
					So(recs[i].Score, ShouldBeGreaterThanOrEqualTo, recs[i+1].Score)
					if recs[i].Score == recs[i+1].Score {
						So(recs[i].TotalCost, ShouldBeLessThanOrEqualTo, recs[i+1].TotalCost)
					}
				}
			})
		})

		Convey("When more concerts qualify than topN", func() {
			entries := []model.AggregatedMetrics{
				entry("A", 100, 0.9, 0.9),
				entry("B", 200, 0.8, 0.8),
				entry("C", 300, 0.7, 0.7),
				entry("D", 400, 0.6, 0.6),
			}

			recs, err := r.Recommend(ctx, entries, 1000, 2)

			Convey("Then only the top entries are returned", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 2)
				So(recs[0].Name, ShouldEqual, "A")
				So(recs[1].Name, ShouldEqual, "B")
			})
		})

		Convey("When topN is not positive", func() {
			entries := []model.AggregatedMetrics{entry("A", 100, 1, 1)}

			recs, err := r.Recommend(ctx, entries, 1000, 0)

			Convey("Then the configured default applies", func() {
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 1)
			})
		})

		Convey("When calling twice with identical inputs", func() {
			entries := []model.AggregatedMetrics{
				entry("A", 100, 0.9, 0.2),
				entry("B", 200, 0.8, 0.8),
			}

			first, err1 := r.Recommend(ctx, entries, 1000, 10)
			second, err2 := r.Recommend(ctx, entries, 1000, 10)

			Convey("Then the results are identical", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first, ShouldResemble, second)
			})
		})
	})

	Convey("Given a recommender with custom weights", t, func() {
		r := scoring.NewRecommender(scoring.WithWeights(1, 0, 0), scoring.WithTopN(5))
		ctx := context.Background()

		Convey("When only cost efficiency matters", func() {
			entries := []model.AggregatedMetrics{
				entry("Low Eff", 100, 0.1, 1.0),
				entry("High Eff", 900, 0.9, 0.0),
			}

			recs, err := r.Recommend(ctx, entries, 1000, 0)

			Convey("Then ranking should follow efficiency alone", func() {
				So(err, ShouldBeNil)
				So(recs[0].Name, ShouldEqual, "High Eff")
				So(recs[0].Score, ShouldAlmostEqual, 0.9, 1e-12)
			})
		})
	})
}

func TestAffordability(t *testing.T) {
	Convey("Given a budget of 1000", t, func() {
		Convey("Then tiers should split at 50%, 80%, and 100%", func() {
			So(scoring.Affordability(400, 1000), ShouldEqual, scoring.TierVeryAffordable)
			So(scoring.Affordability(500, 1000), ShouldEqual, scoring.TierVeryAffordable)
			So(scoring.Affordability(700, 1000), ShouldEqual, scoring.TierAffordable)
			So(scoring.Affordability(900, 1000), ShouldEqual, scoring.TierAtLimit)
			So(scoring.Affordability(1001, 1000), ShouldEqual, scoring.TierOverBudget)
		})
	})
}
