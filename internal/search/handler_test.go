package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageBody struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func TestHandler_Browse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/providers", NewHandler(NewEngine(seededStore(t), nil)).Browse)

	tests := []struct {
		name   string
		url    string
		status int
		ids    []string
		total  int
	}{
		{"default sort", "/providers", http.StatusOK, []string{"b", "a", "d", "c"}, 4},
		{"filters from query params", "/providers?institution=iit-bombay&sort=price-high", http.StatusOK, []string{"c", "a"}, 2},
		{"paging", "/providers?limit=2&offset=1", http.StatusOK, []string{"a", "d"}, 4},
		{"text", "/providers?q=razorpay", http.StatusOK, []string{"c"}, 1},
		{"bad sort", "/providers?sort=newest", http.StatusBadRequest, nil, 0},
		{"bad limit", "/providers?limit=500", http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.status, w.Code)
			if tt.status != http.StatusOK {
				return
			}

			var body pageBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			got := make([]string, 0, len(body.Items))
			for _, it := range body.Items {
				got = append(got, it.ID)
			}
			assert.Equal(t, tt.ids, got)
			assert.Equal(t, tt.total, body.Total)
		})
	}
}
