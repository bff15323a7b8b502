/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-quotagate/testutil"
)

func TestHealthCheckHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name         string
		fn           HealthCheck
		wantCode     int
		wantRespData interface{}
	}{
		{
			name:         "nil func",
			fn:           nil,
			wantCode:     http.StatusOK,
			wantRespData: &healthCheckResponseData{Components: map[string]bool{}},
		},
		{
			name: "all components are healthy",
			fn: func(ctx context.Context) (HealthCheckResult, error) {
				return HealthCheckResult{"admission": HealthCheckStatusOK, "session": HealthCheckStatusOK}, nil
			},
			wantCode:     http.StatusOK,
			wantRespData: &healthCheckResponseData{Components: map[string]bool{"admission": true, "session": true}},
		},
		{
			name: "one component is unhealthy",
			fn: func(ctx context.Context) (HealthCheckResult, error) {
				return HealthCheckResult{"admission": HealthCheckStatusOK, "session": HealthCheckStatusFail}, nil
			},
			wantCode:     http.StatusServiceUnavailable,
			wantRespData: &healthCheckResponseData{Components: map[string]bool{"admission": true, "session": false}},
		},
		{
			name: "health-check error",
			fn: func(ctx context.Context) (HealthCheckResult, error) {
				return nil, errors.New("internal error")
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "request canceled",
			fn: func(ctx context.Context) (HealthCheckResult, error) {
				return nil, context.Canceled
			},
			wantCode: StatusClientClosedRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			resp := httptest.NewRecorder()
			NewHealthCheckHandler(tt.fn).ServeHTTP(resp, req)
			require.Equal(t, tt.wantCode, resp.Code)
			if tt.wantRespData != nil {
				testutil.RequireJSONInRecorder(t, resp, tt.wantRespData, &healthCheckResponseData{})
			}
		})
	}
}
