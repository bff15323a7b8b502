/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// blockingUnit blocks in Start until it is stopped, like an HTTP server does.
type blockingUnit struct {
	name    string
	running *atomic.Int32
	stopped chan struct{}
	stopErr error

	stopCalls         atomic.Int32
	gracefulStopCalls atomic.Int32
	registerCalls     atomic.Int32
	unregisterCalls   atomic.Int32
}

func newBlockingUnit(name string, running *atomic.Int32) *blockingUnit {
	return &blockingUnit{name: name, running: running, stopped: make(chan struct{})}
}

func (u *blockingUnit) Start(chan<- error) {
	u.running.Inc()
	<-u.stopped
	u.running.Dec()
}

func (u *blockingUnit) Stop(gracefully bool) error {
	if u.stopCalls.Inc() == 1 {
		close(u.stopped)
	}
	if gracefully {
		u.gracefulStopCalls.Inc()
	}
	return u.stopErr
}

func (u *blockingUnit) MustRegisterMetrics() { u.registerCalls.Inc() }

func (u *blockingUnit) UnregisterMetrics() { u.unregisterCalls.Inc() }

// failingUnit reports a fatal error right away.
type failingUnit struct {
	err error
}

func (u failingUnit) Start(fatalErr chan<- error) { fatalErr <- u.err }

func (u failingUnit) Stop(bool) error { return nil }

func TestCompositeUnit_StartStop(t *testing.T) {
	running := atomic.NewInt32(0)
	api := newBlockingUnit("api", running)
	metrics := newBlockingUnit("metrics", running)
	cu := NewCompositeUnit(api, metrics)

	cu.MustRegisterMetrics()
	require.EqualValues(t, 1, api.registerCalls.Load())
	require.EqualValues(t, 1, metrics.registerCalls.Load())

	startDone := make(chan error, 1)
	go func() {
		fatalErr := make(chan error, 1)
		cu.Start(fatalErr)
		close(fatalErr)
		startDone <- <-fatalErr
	}()
	require.Eventually(t, func() bool { return running.Load() == 2 }, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, cu.Stop(true))
	require.NoError(t, <-startDone)
	require.EqualValues(t, 0, running.Load())
	require.EqualValues(t, 1, api.gracefulStopCalls.Load())
	require.EqualValues(t, 1, metrics.gracefulStopCalls.Load())

	cu.UnregisterMetrics()
	require.EqualValues(t, 1, api.unregisterCalls.Load())
}

func TestCompositeUnit_StartFailure(t *testing.T) {
	running := atomic.NewInt32(0)
	api := newBlockingUnit("api", running)
	api.stopErr = errors.New("api: close listener")
	cu := NewCompositeUnit(api, failingUnit{errors.New("metrics: address already in use")})

	fatalErr := make(chan error, 1)
	cu.Start(fatalErr)

	var cuErr *CompositeUnitError
	require.ErrorAs(t, <-fatalErr, &cuErr)
	require.Len(t, cuErr.UnitErrors, 2)
	require.Contains(t, cuErr.Error(), "metrics: address already in use")
	require.Contains(t, cuErr.Error(), "api: close listener")
	require.EqualValues(t, 1, api.stopCalls.Load())
	require.EqualValues(t, 0, api.gracefulStopCalls.Load())
}

func TestCompositeUnit_StopErrors(t *testing.T) {
	running := atomic.NewInt32(0)
	first := newBlockingUnit("first", running)
	first.stopErr = errors.New("first failed")
	second := newBlockingUnit("second", running)
	second.stopErr = errors.New("second failed")

	err := NewCompositeUnit(first, second).Stop(false)
	var cuErr *CompositeUnitError
	require.ErrorAs(t, err, &cuErr)
	require.ElementsMatch(t, []error{first.stopErr, second.stopErr}, cuErr.UnitErrors)
}
