package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorsMiddleware(t *testing.T) {
	testCases := []struct {
		name           string
		origin         string
		extraOrigins   []string
		expectCors     bool
		expectedStatus int
	}{
		{
			name:           "NoOrigin",
			expectCors:     false,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "AllowedOrigin",
			origin:         "http://localhost:8081",
			expectCors:     true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ExpoOrigin",
			origin:         "exp://192.168.1.5:8081",
			expectCors:     true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "ExtraOrigin",
			origin:         "https://fitcalc.example.com",
			extraOrigins:   []string{"https://fitcalc.example.com/"},
			expectCors:     true,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "NotAllowedOrigin",
			origin:         "https://www.notallowed.com",
			expectCors:     false,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req, err := http.NewRequest(http.MethodPost, "/functions/v1/bmi", nil)
			require.NoError(t, err)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			Cors(tc.extraOrigins...)(nextHandler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			if tc.expectCors {
				assert.Equal(t, tc.origin, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
