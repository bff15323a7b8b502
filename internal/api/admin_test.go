/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/testutil"
)

func (s *APITestSuite) doAdmin(method, target, adminToken, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", restapi.ContentTypeAppJSON)
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	return resp
}

func (s *APITestSuite) TestAdmin_Unauthorized() {
	for _, token := range []string{"", "wrong-token"} {
		resp := s.doAdmin(http.MethodGet, "/v1/admin/identities", token, "")
		testutil.RequireErrorInRecorder(s.T(), resp, http.StatusUnauthorized, ErrorDomain, restapi.ErrCodeUnauthorized)
		s.Require().Equal("Bearer", resp.Header().Get("WWW-Authenticate"))
	}
}

func (s *APITestSuite) TestAdmin_Disabled() {
	s.router = s.newRouter(Opts{})
	resp := s.doAdmin(http.MethodGet, "/v1/admin/identities", testAdminToken, "")
	s.Require().Equal(http.StatusNotFound, resp.Code)
}

func (s *APITestSuite) TestAdmin_ListIdentities() {
	resp := s.doAdmin(http.MethodGet, "/v1/admin/identities", testAdminToken, "")
	s.Require().Equal(http.StatusOK, resp.Code)
	testutil.RequireJSONInRecorder(s.T(), resp, &identitiesResponse{
		AnonymousCeiling: 1,
		Identities:       map[string]int{"Morteza": 5, "Reza": 3, "Ali": 7},
	}, &identitiesResponse{})
}

func (s *APITestSuite) TestAdmin_SetCeiling() {
	resp := s.doAdmin(http.MethodPut, "/v1/admin/identities/Sara", testAdminToken, `{"ceiling": 2}`)
	s.Require().Equal(http.StatusOK, resp.Code)
	testutil.RequireJSONInRecorder(s.T(), resp, &ceilingResponse{Identity: "Sara", Ceiling: 2}, &ceilingResponse{})

	token := s.login("Sara")
	resp = s.limited(token, "")
	s.Require().Equal(http.StatusOK, resp.Code)
	testutil.RequireQuotaHeaders(s.T(), resp.Header(), 2, 1)

	resp = s.doAdmin(http.MethodPut, "/v1/admin/identities/Sara", testAdminToken, `{"ceiling": 4}`)
	s.Require().Equal(http.StatusOK, resp.Code)
	resp = s.limited(token, "")
	s.Require().Equal(http.StatusOK, resp.Code)
	testutil.RequireQuotaHeaders(s.T(), resp.Header(), 4, 2)
}

func (s *APITestSuite) TestAdmin_SetCeilingErrors() {
	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
		wantErr  string
	}{
		{"non-positive ceiling", "/v1/admin/identities/Sara", `{"ceiling": 0}`, http.StatusBadRequest, "badRequest"},
		{"unknown field", "/v1/admin/identities/Sara", `{"limit": 10}`, http.StatusBadRequest, "badRequest"},
		{"invalid json", "/v1/admin/identities/Sara", `{"ceiling":`, http.StatusBadRequest, "badRequest"},
		{"anonymous tier", "/v1/admin/identities/anonymous", `{"ceiling": 10}`, http.StatusBadRequest, "badRequest"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.doAdmin(http.MethodPut, tt.target, testAdminToken, tt.body)
			testutil.RequireErrorInRecorder(s.T(), resp, tt.wantCode, ErrorDomain, tt.wantErr)
		})
	}
	_, known := s.registry.Lookup("Sara")
	s.Require().False(known)
}

func (s *APITestSuite) TestAdmin_RemoveIdentity() {
	resp := s.doAdmin(http.MethodDelete, "/v1/admin/identities/Reza", testAdminToken, "")
	s.Require().Equal(http.StatusNoContent, resp.Code)
	_, known := s.registry.Lookup("Reza")
	s.Require().False(known)

	resp = s.doAdmin(http.MethodDelete, "/v1/admin/identities/Reza", testAdminToken, "")
	testutil.RequireErrorInRecorder(s.T(), resp, http.StatusNotFound, ErrorDomain, restapi.ErrCodeNotFound)

	resp = s.do(http.MethodGet, "/v1/login?user=Reza", "", "")
	s.Require().Equal(http.StatusOK, resp.Code)
	s.Require().Empty(resp.Header().Get("X-Session-Token"))
}

func (s *APITestSuite) TestAdmin_ResetQuota() {
	token := s.login("Reza")
	for i := 0; i < 3; i++ {
		s.Require().Equal(http.StatusOK, s.limited(token, "").Code)
	}
	s.Require().Equal(http.StatusTooManyRequests, s.limited(token, "").Code)

	resp := s.doAdmin(http.MethodPost, "/v1/admin/identities/Reza/reset", testAdminToken, "")
	s.Require().Equal(http.StatusNoContent, resp.Code)

	resp = s.limited(token, "")
	s.Require().Equal(http.StatusOK, resp.Code)
	testutil.RequireQuotaHeaders(s.T(), resp.Header(), 3, 2)
}
