package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mentorbook/internal/auth"
	"mentorbook/internal/pricing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerSecret = "catalog-test-secret"

func setupHandler(t *testing.T) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newTestStore(t)
	_, err := store.SaveProvider(context.Background(), newProvider("p1"))
	require.NoError(t, err)

	sessions := attendedSessions{"b1": "m1/p1", "b2": "m2/p1", "b9": "m1/p9"}
	h := NewHandler(store, pricing.Formatter{Symbol: pricing.DefaultSymbol}, sessions)
	r := gin.New()
	r.GET("/providers/:id", h.GetProvider)
	r.GET("/providers/:id/services", h.ListServices)
	r.GET("/service-kinds", h.ListKinds)
	r.GET("/quote", h.Quote)

	protected := r.Group("/", auth.AuthMiddleware(handlerSecret))
	protected.POST("/providers/:id/services", h.CreateService)
	protected.PUT("/providers/:id/services/:serviceID", h.UpdateService)
	protected.PUT("/providers/:id", h.SaveProfile)
	protected.DELETE("/providers/:id", h.Deactivate)
	protected.POST("/providers/:id/reviews", h.Review)

	return r, store
}

func bearer(t *testing.T, userID string) string {
	token, err := auth.GenerateAccessToken(userID, auth.RoleProvider, handlerSecret)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHandler_GetProvider(t *testing.T) {
	r, _ := setupHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/p1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Asha Rao")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/providers/ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_CreateService(t *testing.T) {
	r, store := setupHandler(t)

	body := `{"kind":"call","title":"Mock interview","duration_minutes":45,"price":"900"}`

	t.Run("owner creates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/providers/p1/services", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, "p1"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		var svc Service
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &svc))
		assert.Equal(t, "Mock interview", svc.Title)

		services, err := store.ListServices(context.Background(), "p1")
		require.NoError(t, err)
		assert.Len(t, services, 1)
	})

	t.Run("someone else is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/providers/p1/services", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, "p2"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/providers/p1/services",
			bytes.NewBufferString(`{"kind":"seminar","title":"x","price":"900"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, "p1"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("price out of range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/providers/p1/services",
			bytes.NewBufferString(`{"kind":"call","title":"x","duration_minutes":30,"price":"20000"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer(t, "p1"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "price")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/providers/p1/services", bytes.NewBufferString(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_ListKinds(t *testing.T) {
	r, _ := setupHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/service-kinds", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 5)
	assert.Equal(t, "call", out[0]["kind"])
	assert.Equal(t, true, out[0]["time_boxed"])
}

func TestHandler_Quote(t *testing.T) {
	r, _ := setupHandler(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p1&minutes=60", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var q pricing.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "1000", q.Price.String())
	assert.Equal(t, "₹1,000.00", q.Display)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p1&minutes=0", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?minutes=30", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_QuoteForService(t *testing.T) {
	r, store := setupHandler(t)
	svc, err := store.UpsertService(context.Background(), "p1", Service{
		Kind: KindCall, Title: "Mock interview", DurationMinutes: 45, Price: decimal.NewFromInt(900),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p1&minutes=30&service_id="+svc.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var q pricing.Quote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	assert.Equal(t, "600", q.Price.String())

	_, err = store.SaveProvider(context.Background(), newProvider("p2"))
	require.NoError(t, err)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p2&minutes=30&service_id="+svc.ID, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p1&service_id=ghost", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func send(t *testing.T, r *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, userID))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SaveProfile(t *testing.T) {
	r, store := setupHandler(t)
	profile := `{"name":"Ravi Menon","role":"alumni","institution":"NIT Trichy","batch_year":"2019","languages":["English"],"base_rate":"800"}`

	w := send(t, r, http.MethodPut, "/providers/p9", "p9", profile)
	require.Equal(t, http.StatusCreated, w.Code)

	p, err := store.GetProvider(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, RoleAlumni, p.Role)
	assert.True(t, p.Active)

	_, err = store.RecordReview(context.Background(), attendedSessions{"b9": "m1/p9"}, "p9", "b9", "m1", 4)
	require.NoError(t, err)
	require.NoError(t, store.Deactivate(context.Background(), "p9"))

	w = send(t, r, http.MethodPut, "/providers/p9", "p9", profile)
	require.Equal(t, http.StatusOK, w.Code)
	p, err = store.GetProvider(context.Background(), "p9")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ReviewCount)
	assert.False(t, p.Active, "profile edit must not reactivate a deactivated provider")

	w = send(t, r, http.MethodPut, "/providers/p9", "p1", profile)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(t, r, http.MethodPut, "/providers/p9", "p9", `{"name":"Ravi","role":"guru","base_rate":"800"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Deactivate(t *testing.T) {
	r, store := setupHandler(t)

	w := send(t, r, http.MethodDelete, "/providers/p1", "p2", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(t, r, http.MethodDelete, "/providers/p1", "p1", "")
	require.Equal(t, http.StatusOK, w.Code)

	p, err := store.GetProvider(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, p.Active)
}

func TestHandler_Review(t *testing.T) {
	r, _ := setupHandler(t)

	w := send(t, r, http.MethodPost, "/providers/p1/reviews", "m1", `{"booking_id":"b1","rating":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	var p Provider
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 1, p.ReviewCount)
	assert.Equal(t, 1, p.Sessions)

	w = send(t, r, http.MethodPost, "/providers/p1/reviews", "m1", `{"booking_id":"b1","rating":4}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already been reviewed")

	w = send(t, r, http.MethodPost, "/providers/p1/reviews", "m1", `{"booking_id":"b2","rating":5}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(t, r, http.MethodPost, "/providers/p1/reviews", "m1", `{"rating":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, r, http.MethodPost, "/providers/p1/reviews", "m2", `{"booking_id":"b2","rating":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send(t, r, http.MethodPost, "/providers/p1/reviews", "p1", `{"booking_id":"b1","rating":5}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(t, r, http.MethodPost, "/providers/ghost/reviews", "m1", `{"booking_id":"b1","rating":5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_QuoteRejectsRetiredService(t *testing.T) {
	r, store := setupHandler(t)
	ctx := context.Background()

	svc, err := store.UpsertService(ctx, "p1", newCall("Career chat", 800))
	require.NoError(t, err)
	require.NoError(t, store.LockService(ctx, svc.ID))
	edit := newCall("Career chat", 1200)
	edit.ID = svc.ID
	_, err = store.UpsertService(ctx, "p1", edit)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/quote?provider_id=p1&minutes=30&service_id="+svc.ID, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "superseded_by")
}
