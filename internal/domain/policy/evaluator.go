// Package policy recomputes a trip's policy compliance from its items and
// the active policy snapshot. Evaluation is deterministic and side-effect
// free: identical items and policy always produce identical violation
// content, in the same order. The caller persists the result.
package policy

import (
	"fmt"
	"time"

	"github.com/tripdesk/tripdesk/internal/domain/entity"
	"github.com/tripdesk/tripdesk/internal/domain/money"
)

// UnknownMealDate is the sentinel bucket for meal items whose date is
// missing or unparseable. Such items are grouped, not dropped.
const UnknownMealDate = "unknown"

// Evaluation is the full result of one evaluator run.
type Evaluation struct {
	Violations  []entity.Violation `json:"violations"`
	TotalCents  int64              `json:"total_cents"`
	Policy      *entity.Policy     `json:"policy"`
	HasBlockers bool               `json:"has_blockers"`
}

// Evaluate recomputes the violation set for the given items against the
// policy snapshot. Violations are emitted in rule order: cabin class,
// hotel cap, meal cap (grouped by date in first-seen order), preapproval
// total.
func Evaluate(pol *entity.Policy, items []*entity.TripItem) *Evaluation {
	eval := &Evaluation{
		Violations: []entity.Violation{},
		Policy:     pol,
	}

	// Rule 1: economy-only cabin class. Categorical, no quantitative values.
	if pol.EconomyOnly {
		for _, item := range items {
			if item.ItemType != entity.ItemTypeFlight {
				continue
			}
			if item.Metadata.CabinClass != entity.CabinEconomy {
				eval.add(pol, entity.CodeBusinessClass, entity.SeverityBlocker,
					fmt.Sprintf("flight %q booked in %s cabin; policy requires economy",
						item.Description, item.Metadata.CabinClass),
					nil, nil)
			}
		}
	}

	// Rule 2: hotel nightly rate cap.
	for _, item := range items {
		if item.ItemType != entity.ItemTypeHotel {
			continue
		}
		rate := item.Metadata.NightlyRateCents
		if rate > pol.HotelNightlyCapCents {
			eval.add(pol, entity.CodeHotelCap, entity.SeverityWarning,
				fmt.Sprintf("hotel %q nightly rate %s exceeds cap %s",
					item.Description, money.Format(rate), money.Format(pol.HotelNightlyCapCents)),
				cents(rate), cents(pol.HotelNightlyCapCents))
		}
	}

	// Rule 3: meal daily cap, summed per calendar date.
	for _, date := range mealDates(items) {
		dayTotal := mealTotal(items, date)
		if dayTotal > pol.MealDailyCapCents {
			eval.add(pol, entity.CodeMealCap, entity.SeverityWarning,
				fmt.Sprintf("meals on %s total %s, above daily cap %s",
					date, money.Format(dayTotal), money.Format(pol.MealDailyCapCents)),
				cents(dayTotal), cents(pol.MealDailyCapCents))
		}
	}

	// Rule 4: preapproval threshold over the whole trip total.
	for _, item := range items {
		eval.TotalCents += item.AmountCents
	}
	if eval.TotalCents > pol.PreapprovalOverCents {
		eval.add(pol, entity.CodePreapproval, entity.SeverityBlocker,
			fmt.Sprintf("trip total %s exceeds preapproval threshold %s",
				money.Format(eval.TotalCents), money.Format(pol.PreapprovalOverCents)),
			cents(eval.TotalCents), cents(pol.PreapprovalOverCents))
	}

	return eval
}

func (e *Evaluation) add(pol *entity.Policy, code, severity, message string, computed, limit *int64) {
	e.Violations = append(e.Violations, entity.Violation{
		PolicyID:      pol.ID,
		Code:          code,
		Severity:      severity,
		Message:       message,
		ComputedCents: computed,
		LimitCents:    limit,
	})
	if severity == entity.SeverityBlocker {
		e.HasBlockers = true
	}
}

// mealDates returns the distinct meal-date buckets in first-seen item
// order, so the grouping is stable per evaluation.
func mealDates(items []*entity.TripItem) []string {
	seen := make(map[string]bool)
	var dates []string
	for _, item := range items {
		if item.ItemType != entity.ItemTypeMeal {
			continue
		}
		date := mealBucket(item)
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	return dates
}

func mealTotal(items []*entity.TripItem, date string) int64 {
	var total int64
	for _, item := range items {
		if item.ItemType == entity.ItemTypeMeal && mealBucket(item) == date {
			total += item.AmountCents
		}
	}
	return total
}

// mealBucket resolves the grouping key for a meal item. Missing or
// unparseable dates land in the sentinel bucket.
func mealBucket(item *entity.TripItem) string {
	date := item.Metadata.MealDate
	if date == "" {
		return UnknownMealDate
	}
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return UnknownMealDate
	}
	return date
}

func cents(v int64) *int64 {
	return &v
}
