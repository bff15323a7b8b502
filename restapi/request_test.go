/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type ceilingBody struct {
	Ceiling int `json:"ceiling"`
}

func TestDecodeRequestJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		maxBytes    int64
		wantCeiling int
		wantStatus  int
	}{
		{name: "ok", body: `{"ceiling": 5}`, contentType: "application/json; charset=utf-8", wantCeiling: 5},
		{name: "no content type", body: `{"ceiling": 2}`, wantCeiling: 2},
		{name: "unsupported content type", body: `ceiling=5`, contentType: "text/plain", wantStatus: http.StatusUnsupportedMediaType},
		{name: "empty", body: ``, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{"ceiling": }`, wantStatus: http.StatusBadRequest},
		{name: "truncated json", body: `{"ceiling": 5`, wantStatus: http.StatusBadRequest},
		{name: "wrong type", body: `{"ceiling": "five"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown field", body: `{"limit": 5}`, wantStatus: http.StatusBadRequest},
		{name: "two objects", body: `{"ceiling": 1}{"ceiling": 2}`, wantStatus: http.StatusBadRequest},
		{name: "too large", body: `{"ceiling": 100000000}`, maxBytes: 8, wantStatus: http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.maxBytes > 0 {
				req.Body = http.MaxBytesReader(httptest.NewRecorder(), req.Body, tt.maxBytes)
			}
			var dst ceilingBody
			err := DecodeRequestJSON(req, &dst)
			if tt.wantStatus == 0 {
				require.NoError(t, err)
				require.Equal(t, tt.wantCeiling, dst.Ceiling)
				return
			}
			var reqErr *MalformedRequestError
			require.ErrorAs(t, err, &reqErr)
			require.Equal(t, tt.wantStatus, reqErr.HTTPStatusCode)
		})
	}
}
