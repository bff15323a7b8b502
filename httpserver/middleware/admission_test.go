/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/acronis/go-quotagate/admission"
	"github.com/acronis/go-quotagate/log"
	"github.com/acronis/go-quotagate/restapi"
	"github.com/acronis/go-quotagate/testutil"
)

const testErrDomain = "Quotagate"

type AdmissionTestSuite struct {
	suite.Suite
	now        time.Time
	controller *admission.Controller
	called     int
	decisions  []admission.Decision
}

func TestAdmission(t *testing.T) {
	suite.Run(t, new(AdmissionTestSuite))
}

func (s *AdmissionTestSuite) SetupTest() {
	registry, err := admission.NewRegistry(map[string]int{"Morteza": 5, "Reza": 3, "Ali": 7}, 1)
	s.Require().NoError(err)
	s.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.controller, err = admission.NewControllerWithOpts(registry, admission.Opts{
		Window: time.Minute,
		Clock:  func() time.Time { return s.now },
	})
	s.Require().NoError(err)
	s.called = 0
	s.decisions = nil
}

func (s *AdmissionTestSuite) next() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		s.called++
		decision, ok := GetAdmissionDecisionFromContext(r.Context())
		s.Require().True(ok)
		s.decisions = append(s.decisions, decision)
	})
}

func (s *AdmissionTestSuite) serve(handler http.Handler, identity string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/limited", nil)
	if identity != "" {
		req = req.WithContext(NewContextWithIdentity(req.Context(), identity))
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func (s *AdmissionTestSuite) TestCeilingIsEnforcedPerIdentity() {
	handler := Admission(s.controller, testErrDomain)(s.next())

	for i := 0; i < 3; i++ {
		resp := s.serve(handler, "Reza")
		s.Require().Equal(http.StatusOK, resp.Code)
		testutil.RequireQuotaHeaders(s.T(), resp.Header(), 3, 2-i)
	}

	s.now = s.now.Add(time.Second * 10)
	resp := s.serve(handler, "Reza")
	errResp := testutil.RequireErrorInRecorder(s.T(), resp, http.StatusTooManyRequests, testErrDomain, restapi.ErrCodeTooManyRequests)
	s.Require().Equal("50", resp.Header().Get(HeaderRetryAfter))
	testutil.RequireQuotaHeaders(s.T(), resp.Header(), 3, 0)
	s.Require().Equal("Reza", errResp.Context["identity"])
	s.Require().Equal(float64(50), errResp.Context["retryAfterSeconds"])

	// Other identities are not affected.
	s.Require().Equal(http.StatusOK, s.serve(handler, "Morteza").Code)
	s.Require().Equal(4, s.called)
}

func (s *AdmissionTestSuite) TestAnonymous() {
	handler := Admission(s.controller, testErrDomain)(s.next())
	s.Require().Equal(http.StatusOK, s.serve(handler, "").Code)
	resp := s.serve(handler, "")
	testutil.RequireErrorInRecorder(s.T(), resp, http.StatusTooManyRequests, testErrDomain, restapi.ErrCodeTooManyRequests)
	testutil.RequireRetryAfterHeader(s.T(), resp.Header(), 60, 60)

	// Unknown identities get the anonymous ceiling but their own quota.
	s.Require().Equal(http.StatusOK, s.serve(handler, "Stranger").Code)
}

func (s *AdmissionTestSuite) TestWindowExpiry() {
	handler := Admission(s.controller, testErrDomain)(s.next())
	s.Require().Equal(http.StatusOK, s.serve(handler, "").Code)

	s.now = s.now.Add(time.Minute)
	s.Require().Equal(http.StatusTooManyRequests, s.serve(handler, "").Code, "window is still active at its boundary")

	s.now = s.now.Add(time.Nanosecond)
	s.Require().Equal(http.StatusOK, s.serve(handler, "").Code)
}

func (s *AdmissionTestSuite) TestExcludedIdentities() {
	handler := MustAdmissionWithOpts(s.controller, testErrDomain, AdmissionOpts{ExcludedIdentities: []string{"svc-*"}})(s.next())
	for i := 0; i < 10; i++ {
		resp := s.serve(handler, "svc-backup")
		s.Require().Equal(http.StatusOK, resp.Code)
		s.Require().Empty(resp.Header().Get(HeaderRateLimitLimit))
	}
	s.Require().Equal(0, s.controller.Len())
	s.Require().True(s.decisions[0].Allow)
}

func (s *AdmissionTestSuite) TestIncludedIdentities() {
	handler := MustAdmissionWithOpts(s.controller, testErrDomain, AdmissionOpts{IncludedIdentities: []string{"Ali"}})(s.next())
	for i := 0; i < 3; i++ {
		s.Require().Equal(http.StatusOK, s.serve(handler, "").Code)
	}
	s.Require().Equal(http.StatusOK, s.serve(handler, "Ali").Code)
	s.Require().Equal(1, s.controller.Len())
}

func (s *AdmissionTestSuite) TestIncludedAndExcludedTogether() {
	_, err := AdmissionWithOpts(s.controller, testErrDomain, AdmissionOpts{
		IncludedIdentities: []string{"a"}, ExcludedIdentities: []string{"b"},
	})
	s.Require().Error(err)
}

func (s *AdmissionTestSuite) TestCanceledRequestDoesNotConsumeQuota() {
	handler := Admission(s.controller, testErrDomain)(s.next())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/limited", nil).WithContext(NewContextWithIdentity(ctx, "Reza"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	testutil.RequireErrorInRecorder(s.T(), resp, http.StatusServiceUnavailable, testErrDomain, restapi.ErrCodeServiceUnavailable)
	s.Require().Equal(3, s.controller.Peek("Reza", s.now).Remaining)
}

func TestAdmission_CustomOnReject(t *testing.T) {
	registry, err := admission.NewRegistry(nil, 1)
	require.NoError(t, err)
	controller, err := admission.NewController(registry)
	require.NoError(t, err)

	var rejectedIdentity string
	handler := MustAdmissionWithOpts(controller, testErrDomain, AdmissionOpts{
		OnReject: func(rw http.ResponseWriter, _ *http.Request, identity string, decision admission.Decision, _ string, _ log.FieldLogger) {
			rejectedIdentity = identity
			require.False(t, decision.Allow)
			rw.WriteHeader(http.StatusTeapot)
		},
	})(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusTeapot, resp.Code)
	require.Equal(t, admission.AnonymousIdentity, rejectedIdentity)
}
