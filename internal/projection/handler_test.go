package projection

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"github.com/salestrack-lab/salestrack/internal/core/storage"
	storagemocks "github.com/salestrack-lab/salestrack/internal/mocks/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandlers_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		path           string
		configure      func(store *storagemocks.Store)
		expectedStatus int
		expectedType   string
	}{
		{
			name:           "negative days_ago returns 400",
			path:           "/v1/analytics/daily?days_ago=-1",
			configure:      func(_ *storagemocks.Store) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_query",
		},
		{
			name:           "non numeric weeks_ago returns 400",
			path:           "/v1/analytics/weekly?weeks_ago=last",
			configure:      func(_ *storagemocks.Store) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_query",
		},
		{
			name:           "unknown item view returns 400",
			path:           "/v1/items/item-1/analytics?view=hourly",
			configure:      func(_ *storagemocks.Store) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_query",
		},
		{
			name:           "unknown data range type returns 400",
			path:           "/v1/analytics/data-range?type=middle",
			configure:      func(_ *storagemocks.Store) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_query",
		},
		{
			name: "unknown item returns 404",
			path: "/v1/items/missing/analytics?view=weekly",
			configure: func(store *storagemocks.Store) {
				store.On("GetItem", mock.Anything, "missing").Return(nil, storage.ErrNotFound).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedType:   "not_found",
		},
		{
			name: "store error returns 500",
			path: "/v1/analytics/monthly?months_ago=2",
			configure: func(store *storagemocks.Store) {
				store.On("ListItems", mock.Anything).Return(nil, errors.New("db failure")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedType:   "internal_error",
		},
		{
			name: "yearly returns 200",
			path: "/v1/analytics/yearly?days=730",
			configure: func(store *storagemocks.Store) {
				store.On("ListItems", mock.Anything).Return([]v1.Item{}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, store := newTestService(t, nil)
			tc.configure(store)

			router := gin.New()
			svc.RegisterRoutes(router)

			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.expectedStatus, w.Code, w.Body.String())
			if tc.expectedType != "" {
				var body struct {
					ErrorType string `json:"error_type"`
				}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tc.expectedType, body.ErrorType)
			}
		})
	}
}

func TestHandleListItems(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, store := newTestService(t, nil)
	store.On("ListItems", mock.Anything).Return(testItems, nil).Once()
	store.On("LatestSnapshots", mock.Anything, []string{"item-1", "item-2"}).Return(map[string]v1.Snapshot{}, nil).Once()

	router := gin.New()
	svc.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/items", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Items []ItemSummary `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	assert.Equal(t, "Admin Theme", body.Items[0].Name)
}

func TestHandleDataRange_DefaultsToOldest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc, store := newTestService(t, nil)
	oldest := at(1, 0, 0).UTC()
	store.On("OldestSnapshotTime", mock.Anything).Return(&oldest, nil).Once()

	router := gin.New()
	svc.RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/analytics/data-range", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"type":"oldest"`)
}
