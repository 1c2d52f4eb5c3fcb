package service

import (
	"context"
	"sort"
	"time"

	"github.com/tripdesk/tripdesk/internal/application/port"
	"github.com/tripdesk/tripdesk/internal/domain/access"
	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
	"github.com/tripdesk/tripdesk/internal/domain/money"
)

// Grouping dimensions accepted by the analytics views.
const (
	GroupByCode       = "code"
	GroupByDepartment = "department"
	GroupByEmployee   = "employee"
)

// DateRange is a closed [From, To] range of YYYY-MM-DD dates.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ViolationGroup is one bucket of the violation rollup. ComputedSumCents
// sums computed values where present; categorical violations contribute
// zero.
type ViolationGroup struct {
	Key              string `json:"key"`
	Count            int    `json:"count"`
	Blockers         int    `json:"blockers"`
	Warnings         int    `json:"warnings"`
	ComputedSumCents int64  `json:"computed_sum_cents"`
}

// ViolationAnalytics is the violation rollup over a date range.
type ViolationAnalytics struct {
	Range    DateRange        `json:"range"`
	GroupBy  string           `json:"group_by"`
	Total    int              `json:"total"`
	Blockers int              `json:"blockers"`
	Warnings int              `json:"warnings"`
	Groups   []ViolationGroup `json:"groups"`
}

// SpendGroup is one bucket of the spend rollup. MeanTripCents is the
// rounded (half-up) mean spend per trip in the bucket.
type SpendGroup struct {
	Key           string `json:"key"`
	TripCount     int    `json:"trip_count"`
	TotalCents    int64  `json:"total_cents"`
	MeanTripCents int64  `json:"mean_trip_cents"`
}

// SpendAnalytics is the spend rollup over a date range.
type SpendAnalytics struct {
	Range      DateRange    `json:"range"`
	GroupBy    string       `json:"group_by"`
	TripCount  int          `json:"trip_count"`
	TotalCents int64        `json:"total_cents"`
	Groups     []SpendGroup `json:"groups"`
}

// AnalyticsService computes read-only rollups. Both views are pure
// projections over stored state and mutate nothing.
type AnalyticsService interface {
	GetViolationAnalytics(ctx context.Context, actor *entity.User, rng DateRange, groupBy string) (*ViolationAnalytics, error)
	GetSpendAnalytics(ctx context.Context, actor *entity.User, rng DateRange, groupBy string) (*SpendAnalytics, error)
}

type analyticsServiceImpl struct {
	tripRepo      port.TripRepository
	itemRepo      port.ItemRepository
	violationRepo port.ViolationRepository
	userRepo      port.UserRepository
	logger        Logger
}

// NewAnalyticsService creates a new AnalyticsService
func NewAnalyticsService(
	tripRepo port.TripRepository,
	itemRepo port.ItemRepository,
	violationRepo port.ViolationRepository,
	userRepo port.UserRepository,
	logger Logger,
) AnalyticsService {
	return &analyticsServiceImpl{
		tripRepo:      tripRepo,
		itemRepo:      itemRepo,
		violationRepo: violationRepo,
		userRepo:      userRepo,
		logger:        logger,
	}
}

// GetViolationAnalytics counts violations created in the range, grouped by
// violation code or by the owning trip's department.
func (s *analyticsServiceImpl) GetViolationAnalytics(ctx context.Context, actor *entity.User, rng DateRange, groupBy string) (*ViolationAnalytics, error) {
	if err := access.CanViewAnalytics(actor); err != nil {
		return nil, err
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if groupBy != GroupByCode && groupBy != GroupByDepartment {
		return nil, apperr.Validation("unknown grouping %q", groupBy).
			WithHint("violation analytics group by code or department")
	}

	violations, err := s.violationRepo.ListCreatedBetween(ctx, rng.From, rng.To)
	if err != nil {
		s.logger.Error("Failed to list violations", "error", err)
		return nil, apperr.Internal(err, "list violations")
	}

	// Department grouping needs the owning trips.
	var trips map[int64]*entity.Trip
	if groupBy == GroupByDepartment {
		ids := make([]int64, 0, len(violations))
		for _, v := range violations {
			ids = append(ids, v.TripID)
		}
		trips, err = s.tripRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, apperr.Internal(err, "load trips for violations")
		}
	}

	result := &ViolationAnalytics{Range: rng, GroupBy: groupBy, Groups: []ViolationGroup{}}
	buckets := make(map[string]*ViolationGroup)
	for _, v := range violations {
		key := v.Code
		if groupBy == GroupByDepartment {
			if trip, ok := trips[v.TripID]; ok {
				key = trip.Department
			} else {
				key = "unknown"
			}
		}

		group, ok := buckets[key]
		if !ok {
			group = &ViolationGroup{Key: key}
			buckets[key] = group
		}

		group.Count++
		result.Total++
		if v.IsBlocker() {
			group.Blockers++
			result.Blockers++
		} else {
			group.Warnings++
			result.Warnings++
		}
		if v.ComputedCents != nil {
			group.ComputedSumCents += *v.ComputedCents
		}
	}

	result.Groups = sortedViolationGroups(buckets)
	return result, nil
}

// GetSpendAnalytics sums item amounts for trips whose start date falls in
// the range, grouped by department or by employee name.
func (s *analyticsServiceImpl) GetSpendAnalytics(ctx context.Context, actor *entity.User, rng DateRange, groupBy string) (*SpendAnalytics, error) {
	if err := access.CanViewAnalytics(actor); err != nil {
		return nil, err
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if groupBy != GroupByDepartment && groupBy != GroupByEmployee {
		return nil, apperr.Validation("unknown grouping %q", groupBy).
			WithHint("spend analytics group by department or employee")
	}

	trips, err := s.tripRepo.ListByStartDateRange(ctx, rng.From, rng.To)
	if err != nil {
		s.logger.Error("Failed to list trips", "error", err)
		return nil, apperr.Internal(err, "list trips")
	}

	result := &SpendAnalytics{Range: rng, GroupBy: groupBy, Groups: []SpendGroup{}}
	buckets := make(map[string]*SpendGroup)
	owners := make(map[int64]string)

	for _, trip := range trips {
		key := trip.Department
		if groupBy == GroupByEmployee {
			name, ok := owners[trip.OwnerID]
			if !ok {
				owner, err := s.userRepo.GetByID(ctx, trip.OwnerID)
				if err != nil {
					return nil, apperr.Internal(err, "load owner of trip %d", trip.ID)
				}
				name = owner.Name
				owners[trip.OwnerID] = name
			}
			key = name
		}

		items, err := s.itemRepo.GetByTripID(ctx, trip.ID)
		if err != nil {
			return nil, apperr.Internal(err, "load items for trip %d", trip.ID)
		}
		var tripTotal int64
		for _, item := range items {
			tripTotal += item.AmountCents
		}

		group, ok := buckets[key]
		if !ok {
			group = &SpendGroup{Key: key}
			buckets[key] = group
		}
		group.TripCount++
		group.TotalCents += tripTotal
		result.TripCount++
		result.TotalCents += tripTotal
	}

	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		group := buckets[key]
		group.MeanTripCents = money.MeanRounded(group.TotalCents, int64(group.TripCount))
		result.Groups = append(result.Groups, *group)
	}

	return result, nil
}

func validateRange(rng DateRange) error {
	from, err := time.Parse(entity.DateLayout, rng.From)
	if err != nil {
		return apperr.Validation("from %q is not a valid date", rng.From).
			WithHint("dates use the YYYY-MM-DD form")
	}
	to, err := time.Parse(entity.DateLayout, rng.To)
	if err != nil {
		return apperr.Validation("to %q is not a valid date", rng.To).
			WithHint("dates use the YYYY-MM-DD form")
	}
	if to.Before(from) {
		return apperr.Validation("range end %s precedes start %s", rng.To, rng.From)
	}
	return nil
}

func sortedViolationGroups(buckets map[string]*ViolationGroup) []ViolationGroup {
	keys := make([]string, 0, len(buckets))
	for key := range buckets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	groups := make([]ViolationGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *buckets[key])
	}
	return groups
}
