package route

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

var routeCols = []string{"id", "user_id", "name", "route_type", "total_budget", "total_duration",
	"transportation_mode", "city", "steps", "is_favorite", "created_at", "updated_at"}

var (
	ownerID = uuid.MustParse("d290f1ee-6c54-4b01-90e6-d701748f0851")
	routeID = uuid.MustParse("5b3f8a2e-0c1d-4e6f-9a7b-8c9d0e1f2a3b")
)

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewRepositoryImpl(mockPool, slog.New(slog.DiscardHandler)), mockPool
}

func sampleRoute() types.GeneratedRoute {
	return types.GeneratedRoute{
		ID:                 routeID.String(),
		Name:               "Economic route",
		RouteType:          types.RouteTypeEconomic,
		TotalBudget:        30,
		TotalDuration:      132,
		TransportationMode: types.TransportWalking,
		Steps: []types.Step{
			{ID: "s1", Order: 1, Place: place("a", costPtr(10)), TimeSlot: types.TimeSlotMorning, EstimatedDuration: 60, Cost: 15},
			{ID: "s2", Order: 2, Place: place("b", costPtr(10)), TimeSlot: types.TimeSlotMorning, EstimatedDuration: 60,
				DistanceFromPrevious: costPtr(0.4), Cost: 15},
		},
	}
}

func stepsJSON(t *testing.T, steps []types.Step) []byte {
	t.Helper()
	b, err := json.Marshal(steps)
	require.NoError(t, err)
	return b
}

func TestRepositorySave(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	r := sampleRoute()

	t.Run("upserts and decodes steps", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		fav := true
		mockPool.ExpectQuery("INSERT INTO routes").
			WithArgs(r.ID, ownerID, r.Name, "ECONOMIC", 30.0, 132, "WALKING", "", string(stepsJSON(t, r.Steps)), &fav).
			WillReturnRows(pgxmock.NewRows(routeCols).
				AddRow(routeID, ownerID, r.Name, "ECONOMIC", 30.0, 132, "WALKING", "", stepsJSON(t, r.Steps), true, now, now))

		saved, err := repo.Save(ctx, ownerID, r, &fav)
		require.NoError(t, err)
		assert.Equal(t, r.ID, saved.ID)
		assert.Equal(t, ownerID, saved.UserID)
		assert.True(t, saved.IsFavorite)
		require.Len(t, saved.Steps, 2)
		assert.Equal(t, 2, saved.Steps[1].Order)
		require.NotNil(t, saved.Steps[1].DistanceFromPrevious)
		assert.Nil(t, saved.Steps[0].DistanceFromPrevious)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("route owned by another user", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("INSERT INTO routes").
			WithArgs(r.ID, ownerID, r.Name, "ECONOMIC", 30.0, 132, "WALKING", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.Save(ctx, ownerID, r, nil)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryListByUser(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	now := time.Now()
	other := uuid.New()

	mockPool.ExpectQuery("FROM routes WHERE user_id").
		WithArgs(ownerID).
		WillReturnRows(pgxmock.NewRows(routeCols).
			AddRow(routeID, ownerID, "Balanced route", "BALANCED", 45.0, 204, "TELEPORT", "Lisbon", []byte(`[]`), false, now, now).
			AddRow(other, ownerID, "Comfort route", "COMFORT", 60.0, 250, "CAR", "", []byte(nil), true, now, now))

	routes, err := repo.ListByUser(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, types.TransportMixed, routes[0].TransportationMode, "unknown modes read back as MIXED")
	assert.Equal(t, "Lisbon", routes[0].City)
	assert.NotNil(t, routes[1].Steps)
	assert.Empty(t, routes[1].Steps)
	assert.Equal(t, types.TransportCar, routes[1].TransportationMode)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryFindByID(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	mockPool.ExpectQuery("FROM routes WHERE id").
		WithArgs(routeID, ownerID).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), ownerID, routeID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRepositoryToggleFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the new state", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("UPDATE routes SET is_favorite = NOT is_favorite").
			WithArgs(routeID, ownerID).
			WillReturnRows(pgxmock.NewRows([]string{"is_favorite"}).AddRow(true))

		fav, err := repo.ToggleFavorite(ctx, ownerID, routeID)
		require.NoError(t, err)
		assert.True(t, fav)
	})

	t.Run("missing route", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("UPDATE routes").
			WithArgs(routeID, ownerID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ToggleFavorite(ctx, ownerID, routeID)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("DELETE FROM routes").
			WithArgs(routeID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, ownerID, routeID))
	})

	t.Run("nothing to delete", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectExec("DELETE FROM routes").
			WithArgs(routeID, ownerID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(ctx, ownerID, routeID), types.ErrNotFound)
	})
}
