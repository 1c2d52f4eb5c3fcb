package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripdesk/tripdesk/internal/domain/apperr"
	"github.com/tripdesk/tripdesk/internal/domain/entity"
)

func seedFixture() (*fixture, *entity.User, *entity.User) {
	f := newFixture()
	employee := f.store.addUser(&entity.User{Name: "Ana Costa", Role: entity.RoleEmployee, Department: "engineering"})
	reviewer := f.store.addUser(&entity.User{Name: "Rui Alves", Role: entity.RoleFinanceManager, Department: "finance"})
	f.store.addPolicy(&entity.Policy{
		EconomyOnly:          true,
		HotelNightlyCapCents: 25000,
		MealDailyCapCents:    7500,
		PreapprovalOverCents: 150000,
	})
	return f, employee, reviewer
}

func validCreateReq() CreateTripRequest {
	return CreateTripRequest{
		Destination: "Berlin",
		StartDate:   "2026-09-10",
		EndDate:     "2026-09-14",
		Purpose:     "customer onsite",
	}
}

func TestCreateTrip(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDraft, trip.Status)
	assert.Equal(t, employee.ID, trip.OwnerID)
	assert.Equal(t, "engineering", trip.Department, "department is denormalized from the owner")
	assert.NotZero(t, trip.ID)
}

func TestCreateTrip_Validation(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateTripRequest)
	}{
		{"missing destination", func(r *CreateTripRequest) { r.Destination = "" }},
		{"missing purpose", func(r *CreateTripRequest) { r.Purpose = "" }},
		{"bad start date", func(r *CreateTripRequest) { r.StartDate = "10/09/2026" }},
		{"bad end date", func(r *CreateTripRequest) { r.EndDate = "soon" }},
		{"end before start", func(r *CreateTripRequest) { r.StartDate = "2026-09-14"; r.EndDate = "2026-09-10" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateReq()
			tt.mutate(&req)
			_, err := f.trips.CreateTrip(ctx, employee, req)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		})
	}
}

func TestAddTripItem(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)

	item, err := f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{
		ItemType:    entity.ItemTypeHotel,
		Description: "Hotel Adlon",
		AmountCents: 84000,
		Metadata:    entity.ItemMetadata{NightlyRateCents: 42000, Nights: 2},
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, trip.ID, item.TripID)
}

func TestAddTripItem_Guards(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()
	stranger := f.store.addUser(&entity.User{Name: "Nuno Reis", Role: entity.RoleEmployee, Department: "sales"})

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)

	req := AddItemRequest{ItemType: entity.ItemTypeMeal, Description: "lunch", AmountCents: 2500}

	_, err = f.trips.AddTripItem(ctx, stranger, trip.ID, req)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// Reviewers cannot modify either: ownership, not role, grants writes.
	_, err = f.trips.AddTripItem(ctx, reviewer, trip.ID, req)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.trips.AddTripItem(ctx, employee, 9999, req)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{ItemType: "souvenir", Description: "mug", AmountCents: 100})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{ItemType: entity.ItemTypeMeal, Description: "lunch", AmountCents: -1})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	// Once submitted, items are frozen.
	_, err = f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, req)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

// A submission that lands between the entry check and the commit must
// reject the item, not silently drop it.
func TestAddTripItem_RechecksStatusAtCommit(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)

	calls := 0
	f.tripRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.Trip, error) {
		calls++
		stored := f.store.trips[id]
		if calls > 1 {
			// Concurrent submission won the race.
			moved := *stored
			moved.Status = entity.StatusPendingReview
			return &moved, nil
		}
		return stored, nil
	}

	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{
		ItemType: entity.ItemTypeMeal, Description: "lunch", AmountCents: 2500,
	})
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
	assert.Empty(t, f.store.items[trip.ID])
}

func TestSubmitTripForReview(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{
		ItemType:    entity.ItemTypeFlight,
		Description: "LIS-BER",
		AmountCents: 90000,
		Metadata:    entity.ItemMetadata{CabinClass: "business"},
	})
	require.NoError(t, err)

	result, err := f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	require.NoError(t, err)

	// Blockers never stop the submission itself.
	assert.Equal(t, entity.StatusPendingReview, result.Trip.Status)
	assert.True(t, result.HasBlockers)
	assert.Equal(t, int64(90000), result.TotalCents)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, entity.CodeBusinessClass, result.Violations[0].Code)
	assert.Equal(t, trip.ID, result.Violations[0].TripID)

	// Stored set matches the returned set.
	stored := f.store.violations[trip.ID]
	require.Len(t, stored, 1)
	assert.Equal(t, entity.CodeBusinessClass, stored[0].Code)

	// A second submit is rejected: the trip already left draft.
	_, err = f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	assert.Equal(t, apperr.CodeInvalidState, apperr.CodeOf(err))
}

func TestSubmitTripForReview_Guards(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)

	_, err = f.trips.SubmitTripForReview(ctx, reviewer, trip.ID)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.trips.SubmitTripForReview(ctx, employee, 4242)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

// Re-evaluation replaces the stored set; it never accumulates across runs.
func TestSubmitTripForReview_ReplacesViolations(t *testing.T) {
	f, employee, _ := seedFixture()
	ctx := context.Background()

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{
		ItemType:    entity.ItemTypeFlight,
		Description: "LIS-BER",
		AmountCents: 90000,
		Metadata:    entity.ItemMetadata{CabinClass: "business"},
	})
	require.NoError(t, err)

	_, err = f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	require.NoError(t, err)
	require.Len(t, f.store.violations[trip.ID], 1)

	// Force the trip back to draft and change the picture entirely.
	f.store.trips[trip.ID].Status = entity.StatusDraft
	f.store.items[trip.ID][0].Metadata.CabinClass = entity.CabinEconomy
	f.store.items[trip.ID][0].AmountCents = 200000

	result, err := f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	require.NoError(t, err)

	stored := f.store.violations[trip.ID]
	require.Len(t, stored, 1, "second evaluation replaces the first, never unions")
	assert.Equal(t, entity.CodePreapproval, stored[0].Code)
	assert.Equal(t, entity.CodePreapproval, result.Violations[0].Code)
}

func TestGetMyTrips(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()

	first, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.SubmitTripForReview(ctx, employee, first.ID)
	require.NoError(t, err)

	all, err := f.trips.GetMyTrips(ctx, employee, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := f.trips.GetMyTrips(ctx, employee, entity.StatusDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)

	none, err := f.trips.GetMyTrips(ctx, reviewer, "")
	require.NoError(t, err)
	assert.Empty(t, none, "listing is scoped to the actor's own trips")

	_, err = f.trips.GetMyTrips(ctx, employee, "in_limbo")
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestListPendingTrips(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()
	sales := f.store.addUser(&entity.User{Name: "Marta Pinto", Role: entity.RoleEmployee, Department: "sales"})

	clean, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, employee, clean.ID, AddItemRequest{
		ItemType: entity.ItemTypeMeal, Description: "dinner", AmountCents: 4000,
		Metadata: entity.ItemMetadata{MealDate: "2026-09-10"},
	})
	require.NoError(t, err)
	_, err = f.trips.SubmitTripForReview(ctx, employee, clean.ID)
	require.NoError(t, err)

	blocked, err := f.trips.CreateTrip(ctx, sales, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, sales, blocked.ID, AddItemRequest{
		ItemType: entity.ItemTypeFlight, Description: "LIS-JFK", AmountCents: 400000,
		Metadata: entity.ItemMetadata{CabinClass: "business"},
	})
	require.NoError(t, err)
	_, err = f.trips.SubmitTripForReview(ctx, sales, blocked.ID)
	require.NoError(t, err)

	_, err = f.trips.ListPendingTrips(ctx, employee, "", false)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	queue, err := f.trips.ListPendingTrips(ctx, reviewer, "", false)
	require.NoError(t, err)
	assert.Len(t, queue, 2)

	blockersOnly, err := f.trips.ListPendingTrips(ctx, reviewer, "", true)
	require.NoError(t, err)
	require.Len(t, blockersOnly, 1)
	assert.Equal(t, blocked.ID, blockersOnly[0].Trip.ID)
	assert.True(t, blockersOnly[0].HasBlockers)
	assert.Equal(t, int64(400000), blockersOnly[0].TotalCents)

	salesOnly, err := f.trips.ListPendingTrips(ctx, reviewer, "sales", false)
	require.NoError(t, err)
	require.Len(t, salesOnly, 1)
	assert.Equal(t, blocked.ID, salesOnly[0].Trip.ID)
}

func TestGetTripReviewPacket(t *testing.T) {
	f, employee, reviewer := seedFixture()
	ctx := context.Background()
	stranger := f.store.addUser(&entity.User{Name: "Nuno Reis", Role: entity.RoleEmployee, Department: "sales"})

	trip, err := f.trips.CreateTrip(ctx, employee, validCreateReq())
	require.NoError(t, err)
	_, err = f.trips.AddTripItem(ctx, employee, trip.ID, AddItemRequest{
		ItemType: entity.ItemTypeHotel, Description: "Hotel Adlon", AmountCents: 84000,
		Metadata: entity.ItemMetadata{NightlyRateCents: 42000, Nights: 2},
	})
	require.NoError(t, err)
	_, err = f.trips.SubmitTripForReview(ctx, employee, trip.ID)
	require.NoError(t, err)

	packet, err := f.trips.GetTripReviewPacket(ctx, reviewer, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, trip.ID, packet.Trip.ID)
	assert.Equal(t, employee.ID, packet.Owner.ID)
	assert.Len(t, packet.Items, 1)
	require.Len(t, packet.Violations, 1)
	assert.Equal(t, entity.CodeHotelCap, packet.Violations[0].Code)
	assert.NotNil(t, packet.Policy)
	assert.Equal(t, int64(84000), packet.TotalCents)

	// The owner can read their own packet; a stranger cannot.
	_, err = f.trips.GetTripReviewPacket(ctx, employee, trip.ID)
	assert.NoError(t, err)
	_, err = f.trips.GetTripReviewPacket(ctx, stranger, trip.ID)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}
