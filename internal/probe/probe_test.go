package probe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bastiangx/oracle/internal/mocks"
	"github.com/bastiangx/oracle/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func cands(paths ...string) []score.Candidate {
	out := make([]score.Candidate, len(paths))
	for i, p := range paths {
		out[i] = score.Candidate{Path: p}
	}
	return out
}

func newTarget(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "k" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		switch r.URL.Path {
		case "/api/v1/users":
			w.WriteHeader(http.StatusOK)
		case "/api/v1/admin":
			w.WriteHeader(http.StatusForbidden)
		case "/api/v1/me":
			w.WriteHeader(http.StatusUnauthorized)
		case "/api/v1/boom":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeClassifiesStatus(t *testing.T) {
	srv := newTarget(t)
	opts := DefaultOptions()
	opts.BaseURL = srv.URL + "/"
	opts.StaticPattern = "?api_key=k"
	opts.Throttle = 0
	p, err := New(opts, srv.Client())
	require.NoError(t, err)

	want := map[string]int{
		"/api/v1/users": 200,
		"/api/v1/admin": 403,
		"/api/v1/me":    401,
		"/api/v1/boom":  500,
		"/api/v1/nope":  404,
	}
	var got []Result
	n, err := p.Probe(context.Background(),
		cands("/api/v1/users", "/api/v1/admin", "/api/v1/me", "/api/v1/boom", "/api/v1/nope"),
		func(r Result) { got = append(got, r) })
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, got, 5)
	for _, r := range got {
		assert.Equal(t, want[r.Candidate.Path], r.Status, r.URL)
		assert.Equal(t, r.Status < 500 && r.Status != 404, r.Reachable, r.URL)
		assert.True(t, strings.HasSuffix(r.URL, r.Candidate.Path+"?api_key=k"), r.URL)
	}
}

func TestProbeCustomValidCodes(t *testing.T) {
	srv := newTarget(t)
	opts := DefaultOptions()
	opts.BaseURL = srv.URL
	opts.StaticPattern = "?api_key=k"
	opts.Throttle = 0
	opts.ValidCodes = []int{http.StatusNotFound}
	p, err := New(opts, srv.Client())
	require.NoError(t, err)

	res := p.Check(context.Background(), score.Candidate{Path: "/missing"})
	assert.True(t, res.Reachable)
	res = p.Check(context.Background(), score.Candidate{Path: "/api/v1/users"})
	assert.False(t, res.Reachable)
}

func TestTransportErrorIsUnreachable(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).Return(nil, errors.New("connection refused")).Times(2)

	opts := DefaultOptions()
	opts.BaseURL = "http://target.invalid"
	opts.Throttle = 0
	p, err := New(opts, doer)
	require.NoError(t, err)

	var got []Result
	n, err := p.Probe(context.Background(), cands("/a", "/b"), func(r Result) { got = append(got, r) })
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Zero(t, r.Status)
		assert.False(t, r.Reachable)
		assert.Error(t, r.Err)
	}
}

func TestCheckSendsGetWithUserAgent(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockDoer(ctrl)
	doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "http://target.test/base/x?k=v", req.URL.String())
		assert.Equal(t, "oracle/1", req.Header.Get("User-Agent"))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("ok"))}, nil
	})

	opts := DefaultOptions()
	opts.BaseURL = "http://target.test/base/"
	opts.StaticPattern = "?k=v"
	p, err := New(opts, doer)
	require.NoError(t, err)
	res := p.Check(context.Background(), score.Candidate{Path: "x"})
	assert.True(t, res.Reachable)
	assert.Equal(t, 200, res.Status)
}

func TestProbeThrottles(t *testing.T) {
	srv := newTarget(t)
	opts := DefaultOptions()
	opts.BaseURL = srv.URL
	opts.Throttle = 20 * time.Millisecond
	p, err := New(opts, srv.Client())
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Probe(context.Background(), cands("/a", "/b", "/c"), nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestProbeCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	doer := mocks.NewMockDoer(ctrl)

	opts := DefaultOptions()
	opts.BaseURL = "https://target.test"
	p, err := New(opts, doer)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Probe(ctx, cands("/a"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsBadTarget(t *testing.T) {
	for _, base := range []string{"", "ftp://host", "http://", "::not a url"} {
		opts := DefaultOptions()
		opts.BaseURL = base
		_, err := New(opts, nil)
		assert.ErrorIs(t, err, ErrInvalidTarget, base)
	}
}
