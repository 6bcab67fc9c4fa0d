package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hearth/internal/config"
	"hearth/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock with ping monitoring.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return gormDB, mock
}

func paginationApp() *fiber.App {
	app := fiber.New()
	app.Get("/items", func(c *fiber.Ctx) error {
		p := parsePagination(c, 25)
		return c.JSON(fiber.Map{"limit": p.Limit, "offset": p.Offset})
	})
	return app
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query         string
		limit, offset float64
	}{
		{"", 25, 0},
		{"?limit=10&offset=30", 10, 30},
		{"?limit=0&offset=-4", 25, 0},
		{"?limit=5000", maxPaginationLimit, 0},
	}
	app := paginationApp()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items"+tt.query, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusBadRequest, statusFor(models.CodeValidation))
	assert.Equal(t, fiber.StatusForbidden, statusFor(models.CodeForbidden))
	assert.Equal(t, fiber.StatusNotFound, statusFor(models.CodeNotFound))
	assert.Equal(t, fiber.StatusInternalServerError, statusFor("SOMETHING_ELSE"))
}

func TestRespondError(t *testing.T) {
	app := fiber.New()
	app.Get("/keyed", func(c *fiber.Ctx) error {
		return respondError(c, models.NewKeyedError(models.KeyNoSuchPost).WithParam("post", "7"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("disk on fire"))
	})
	app.Get("/id/:id", func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return nil
		}
		return c.JSON(fiber.Map{"id": id})
	})

	t.Run("keyed error carries params", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/keyed", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, string(models.KeyNoSuchPost), body.Error)
		assert.Equal(t, "7", body.Params["post"])
	})

	t.Run("unknown error is opaque", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/plain", nil))
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

		var body models.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotContains(t, body.Error, "disk on fire")
	})

	t.Run("bad id is a 400", func(t *testing.T) {
		for _, path := range []string{"/id/abc", "/id/0", "/id/-3"} {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, path)
		}
	})
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	srv, err := NewServerWithDeps(&config.Config{JWTSecret: testSecret, LocalHostname: "hearth.test", AllowedOrigins: "*"}, db, nil)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
	require.NoError(t, mock.ExpectationsWereMet())
}
