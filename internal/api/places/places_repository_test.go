package places

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-route-planner/internal/types"
)

var placeCols = []string{"id", "name", "category", "latitude", "longitude", "address", "description",
	"average_cost", "estimated_wait_time", "cold_impact", "heat_impact", "humidity_impact"}

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewRepositoryImpl(mockPool, slog.New(slog.DiscardHandler)), mockPool
}

func TestRepositoryFindNearbyByCategory(t *testing.T) {
	repo, mockPool := setupRepositoryTest(t)
	cost := 12.5
	wait := 15

	mockPool.ExpectQuery("FROM places WHERE category").
		WithArgs("CULTURE", -9.14, 38.72, 2000, nearbyLimit).
		WillReturnRows(pgxmock.NewRows(placeCols).
			AddRow("osm_1", "Museu", "CULTURE", 38.721, -9.141, "", "", &cost, &wait, 0, 0, 0).
			AddRow("osm_2", "Jardim", "CULTURE", 38.722, -9.142, "Rua 1", "", (*float64)(nil), (*int)(nil), 1, 0, 0))

	got, err := repo.FindNearbyByCategory(context.Background(), types.PlaceSearchParams{
		Latitude: 38.72, Longitude: -9.14, RadiusMeters: 2000, Category: types.PlaceCategoryCulture,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 12.5, got[0].Cost())
	assert.Equal(t, 15, got[0].WaitMinutes())
	assert.False(t, got[1].HasKnownCost())
	assert.Equal(t, 1, got[1].ColdImpact)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepositoryFindByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("FROM places WHERE id").
			WithArgs("osm_1").
			WillReturnRows(pgxmock.NewRows(placeCols).
				AddRow("osm_1", "Museu", "CULTURE", 38.721, -9.141, "", "", (*float64)(nil), (*int)(nil), 0, 0, 0))

		p, err := repo.FindByID(context.Background(), "osm_1")
		require.NoError(t, err)
		assert.Equal(t, types.PlaceCategoryCulture, p.Category)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectQuery("FROM places WHERE id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(context.Background(), "missing")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryUpsert(t *testing.T) {
	places := []types.Place{
		{ID: "osm_1", Name: "A", Category: types.PlaceCategoryRestaurant, Latitude: 1, Longitude: 2},
		{ID: "osm_2", Name: "B", Category: types.PlaceCategoryLeisure, Latitude: 3, Longitude: 4},
	}
	anyArgs := func(id, name, cat string) []interface{} {
		return []interface{}{id, name, cat, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), 0, 0, 0}
	}

	t.Run("commits all rows", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO places").WithArgs(anyArgs("osm_1", "A", "RESTAURANT")...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectExec("INSERT INTO places").WithArgs(anyArgs("osm_2", "B", "LEISURE")...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mockPool.ExpectCommit()

		require.NoError(t, repo.Upsert(context.Background(), places))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("rolls back on failure", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		mockPool.ExpectBegin()
		mockPool.ExpectExec("INSERT INTO places").WithArgs(anyArgs("osm_1", "A", "RESTAURANT")...).
			WillReturnError(errors.New("disk full"))
		mockPool.ExpectRollback()

		assert.Error(t, repo.Upsert(context.Background(), places))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		repo, mockPool := setupRepositoryTest(t)
		require.NoError(t, repo.Upsert(context.Background(), nil))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
