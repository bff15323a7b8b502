/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		rate    string
		want    Rate
		wantErr bool
	}{
		{rate: "10/s", want: Rate{10, time.Second}},
		{rate: "100/M", want: Rate{100, time.Minute}},
		{rate: " 1000/h ", want: Rate{1000, time.Hour}},
		{rate: "10", wantErr: true},
		{rate: "ten/s", wantErr: true},
		{rate: "0/s", wantErr: true},
		{rate: "10/d", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.rate, func(t *testing.T) {
			got, err := ParseRate(tt.rate)
			if tt.wantErr {
				require.ErrorContains(t, err, "should be N/(s|m|h)")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Equal(t, got, mustParseRate(t, got.String()))
		})
	}
}

func mustParseRate(t *testing.T, s string) Rate {
	t.Helper()
	r, err := ParseRate(s)
	require.NoError(t, err)
	return r
}

func TestRate_Unmarshal(t *testing.T) {
	var holder struct {
		Rate Rate `json:"rate" yaml:"rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"5/m"}`), &holder))
	require.Equal(t, Rate{5, time.Minute}, holder.Rate)

	require.NoError(t, yaml.Unmarshal([]byte(`rate: 7/s`), &holder))
	require.Equal(t, Rate{7, time.Second}, holder.Rate)

	require.Error(t, yaml.Unmarshal([]byte(`rate: fast`), &holder))
}

func TestLeakyBucketLimiter(t *testing.T) {
	_, err := NewLeakyBucketLimiter(Rate{}, 0)
	require.Error(t, err)

	limiter, err := NewLeakyBucketLimiter(Rate{1, time.Hour}, 1)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		allow, _, err := limiter.Allow(context.Background())
		require.NoError(t, err)
		require.True(t, allow, "request #%d fits into rate and burst", i+1)
	}
	allow, retryAfter, err := limiter.Allow(context.Background())
	require.NoError(t, err)
	require.False(t, allow)
	require.Greater(t, retryAfter, time.Duration(0))
	require.LessOrEqual(t, retryAfter, time.Hour)
}

func TestSlidingWindowLimiter(t *testing.T) {
	_, err := NewSlidingWindowLimiter(Rate{-1, time.Second})
	require.Error(t, err)

	limiter, err := NewSlidingWindowLimiter(Rate{2, time.Hour})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		allow, _, err := limiter.Allow(context.Background())
		require.NoError(t, err)
		require.True(t, allow)
	}
	allow, retryAfter, err := limiter.Allow(context.Background())
	require.NoError(t, err)
	require.False(t, allow)
	require.Greater(t, retryAfter, time.Duration(0))
	require.LessOrEqual(t, retryAfter, time.Hour)
}
