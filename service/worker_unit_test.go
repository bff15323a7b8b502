/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerUnit(t *testing.T) {
	t.Run("graceful stop", func(t *testing.T) {
		started := make(chan struct{})
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return nil
		}))

		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		<-started

		require.NoError(t, unit.Stop(true))
		require.Empty(t, fatalErr)
	})

	t.Run("stop timeout exceeded", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		started := make(chan struct{})
		unit := NewWorkerUnitWithOpts(WorkerFunc(func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		}), WorkerUnitOpts{GracefulStopTimeout: 20 * time.Millisecond})

		go unit.Start(make(chan error, 1))
		<-started

		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errors.New("boom")
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.EqualError(t, <-fatalErr, "boom")
		require.NoError(t, unit.Stop(true))
	})
}
