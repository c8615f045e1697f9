package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"widgets/internal/database"
	"widgets/internal/handlers"
	"widgets/internal/models"
	"widgets/internal/repositories"
	"widgets/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupApp builds a Fiber app serving the widget routes on top of repo.
func setupApp(t *testing.T, repo repositories.WidgetRepository) *fiber.App {
	t.Helper()
	logger := zaptest.NewLogger(t)
	service := services.NewWidgetService(repo, nil, logger)
	handler := handlers.NewWidgetHandler(service, logger)

	app := fiber.New()
	handler.RegisterRoutes(app.Group("/v1"))
	return app
}

// doRequest sends a request through the app and returns the status and raw body.
func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

type validationBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func decodeValidation(t *testing.T, raw string) validationBody {
	t.Helper()
	var body validationBody
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	return body
}

func TestWidgetLifecycle(t *testing.T) {
	backends := map[string]func(t *testing.T) repositories.WidgetRepository{
		"gorm": func(t *testing.T) repositories.WidgetRepository {
			return repositories.NewGORMWidgetRepository(database.NewTestDB(t))
		},
		"memory": func(t *testing.T) repositories.WidgetRepository {
			return repositories.NewMemoryWidgetRepository()
		},
	}

	for name, newRepo := range backends {
		t.Run(name, func(t *testing.T) {
			app := setupApp(t, newRepo(t))

			// --- Empty list ---
			status, body := doRequest(t, app, http.MethodGet, "/v1/widgets", "")
			assert.Equal(t, http.StatusOK, status)
			assert.JSONEq(t, `[]`, body)

			// --- Create ---
			status, body = doRequest(t, app, http.MethodPost, "/v1/widgets",
				`{"name":"Sample Widget","description":"A sample widget","price":20000}`)
			require.Equal(t, http.StatusCreated, status, body)
			var created models.WidgetResponse
			require.NoError(t, json.Unmarshal([]byte(body), &created))
			assert.NotZero(t, created.ID)
			assert.Equal(t, "Sample Widget", created.Name)
			assert.Contains(t, body, `"price":20000.00`)

			// --- Duplicate ---
			status, _ = doRequest(t, app, http.MethodPost, "/v1/widgets",
				`{"name":"Sample Widget","price":10}`)
			assert.Equal(t, http.StatusConflict, status)

			// --- Get by escaped name ---
			status, body = doRequest(t, app, http.MethodGet, "/v1/widgets/Sample%20Widget", "")
			require.Equal(t, http.StatusOK, status, body)
			var fetched models.WidgetResponse
			require.NoError(t, json.Unmarshal([]byte(body), &fetched))
			assert.Equal(t, created.ID, fetched.ID)
			require.NotNil(t, fetched.Description)
			assert.Equal(t, "A sample widget", *fetched.Description)

			// --- Update ---
			status, body = doRequest(t, app, http.MethodPut, "/v1/widgets/Sample%20Widget",
				`{"name":"Renamed","price":1}`)
			require.Equal(t, http.StatusOK, status, body)
			var updated models.WidgetResponse
			require.NoError(t, json.Unmarshal([]byte(body), &updated))
			assert.Equal(t, created.ID, updated.ID)
			assert.Equal(t, "Sample Widget", updated.Name)
			assert.Equal(t, "A sample widget", *updated.Description)
			assert.Contains(t, body, `"price":1.00`)

			// --- List ---
			status, body = doRequest(t, app, http.MethodGet, "/v1/widgets", "")
			assert.Equal(t, http.StatusOK, status)
			var list []models.WidgetResponse
			require.NoError(t, json.Unmarshal([]byte(body), &list))
			require.Len(t, list, 1)
			assert.Equal(t, "Sample Widget", list[0].Name)

			// --- Delete ---
			status, body = doRequest(t, app, http.MethodDelete, "/v1/widgets/Sample%20Widget", "")
			assert.Equal(t, http.StatusNoContent, status)
			assert.Empty(t, body)

			status, _ = doRequest(t, app, http.MethodGet, "/v1/widgets/Sample%20Widget", "")
			assert.Equal(t, http.StatusNotFound, status)

			// Deleting again is a conflict, not a 404.
			status, _ = doRequest(t, app, http.MethodDelete, "/v1/widgets/Sample%20Widget", "")
			assert.Equal(t, http.StatusConflict, status)
		})
	}
}

func TestCreateWidget_ValidationErrors(t *testing.T) {
	app := setupApp(t, repositories.NewMemoryWidgetRepository())

	t.Run("every violation is reported", func(t *testing.T) {
		status, raw := doRequest(t, app, http.MethodPost, "/v1/widgets",
			`{"name":"ab","description":"abc","price":0.5}`)
		require.Equal(t, http.StatusBadRequest, status)

		body := decodeValidation(t, raw)
		assert.Equal(t, "Validation failed", body.Message)
		assert.ElementsMatch(t, []string{
			"name: Name must be between 3 and 100 characters",
			"description: Description must be between 5 and 1000 characters",
			"price: Price must be at least 1.00",
		}, body.Errors)
	})

	t.Run("missing name and price", func(t *testing.T) {
		status, raw := doRequest(t, app, http.MethodPost, "/v1/widgets", `{}`)
		require.Equal(t, http.StatusBadRequest, status)
		assert.ElementsMatch(t, []string{
			"name: Name cannot be blank",
			"price: Price cannot be null",
		}, decodeValidation(t, raw).Errors)
	})

	t.Run("malformed body", func(t *testing.T) {
		status, raw := doRequest(t, app, http.MethodPost, "/v1/widgets", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, raw, "Invalid request body")
	})

	status, _ := doRequest(t, app, http.MethodGet, "/v1/widgets", "")
	assert.Equal(t, http.StatusOK, status)
}

func TestCreateWidget_PriceBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		price  string
		status int
	}{
		{name: "minimum", price: "1.00", status: http.StatusCreated},
		{name: "maximum", price: "20000.00", status: http.StatusCreated},
		{name: "below minimum", price: "0.99", status: http.StatusBadRequest},
		{name: "above maximum", price: "20000.01", status: http.StatusBadRequest},
		{name: "three decimals", price: "10.001", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, repositories.NewMemoryWidgetRepository())
			status, body := doRequest(t, app, http.MethodPost, "/v1/widgets",
				`{"name":"Boundary","price":`+tt.price+`}`)
			assert.Equal(t, tt.status, status, body)
		})
	}
}

func TestUpdateWidget(t *testing.T) {
	app := setupApp(t, repositories.NewMemoryWidgetRepository())

	status, _ := doRequest(t, app, http.MethodPut, "/v1/widgets/Missing", `{"price":5}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = doRequest(t, app, http.MethodPost, "/v1/widgets", `{"name":"Gadget","price":5}`)
	require.Equal(t, http.StatusCreated, status)

	status, raw := doRequest(t, app, http.MethodPut, "/v1/widgets/Gadget", `{"price":500000}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.ElementsMatch(t, []string{
		"price: Price cannot exceed 20000.00",
		"price: Price must have up to 5 integer digits and 2 decimal places",
	}, decodeValidation(t, raw).Errors)

	status, body := doRequest(t, app, http.MethodPut, "/v1/widgets/Gadget", `{"description":"Shiny gadget"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"description":"Shiny gadget"`)
	assert.Contains(t, body, `"price":5.00`)
}

func TestWidgetPathName(t *testing.T) {
	app := setupApp(t, repositories.NewMemoryWidgetRepository())

	status, raw := doRequest(t, app, http.MethodGet, "/v1/widgets/ab", "")
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"name: Name must be between 3 and 100 characters"}, decodeValidation(t, raw).Errors)

	status, _ = doRequest(t, app, http.MethodDelete, "/v1/widgets/"+strings.Repeat("x", 101), "")
	assert.Equal(t, http.StatusBadRequest, status)
}

// failingRepository fails every call with a storage error.
type failingRepository struct{ err error }

func (r failingRepository) FindAll(context.Context) ([]models.Widget, error) { return nil, r.err }
func (r failingRepository) FindByName(context.Context, string) (*models.Widget, error) {
	return nil, r.err
}
func (r failingRepository) ExistsByName(context.Context, string) (bool, error) { return false, r.err }
func (r failingRepository) Save(context.Context, *models.Widget) error          { return r.err }
func (r failingRepository) DeleteByName(context.Context, string) error         { return r.err }

func TestWidgetHandler_StorageFailure(t *testing.T) {
	app := setupApp(t, failingRepository{err: errors.New("connection refused")})

	status, raw := doRequest(t, app, http.MethodGet, "/v1/widgets", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, raw, "Internal server error")

	status, _ = doRequest(t, app, http.MethodPost, "/v1/widgets", `{"name":"Gadget","price":5}`)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = doRequest(t, app, http.MethodDelete, "/v1/widgets/Gadget", "")
	assert.Equal(t, http.StatusInternalServerError, status)
}
