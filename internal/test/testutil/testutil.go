// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package testutil holds helpers shared by the gavel package tests. The
// wait helpers poll or select with a deadline instead of sleeping.
package testutil

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blinklabs-io/gavel/event"
	"github.com/blinklabs-io/gavel/types"
	"github.com/stretchr/testify/require"
)

// DiscardLogger returns a logger that drops every record
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// WaitForCondition polls condition every 10ms until it returns true or the
// timeout expires
func WaitForCondition(
	t *testing.T,
	condition func() bool,
	timeout time.Duration,
	msg string,
) {
	t.Helper()
	require.Eventually(
		t,
		condition,
		timeout,
		10*time.Millisecond,
		msg,
	)
}

// RequireReceive waits for a value on ch or fails the test
func RequireReceive[T any](
	t *testing.T,
	ch <-chan T,
	timeout time.Duration,
	msg string,
) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timeout waiting for channel receive: %s", msg)
		var zero T
		return zero // unreachable
	}
}

// RequireNoReceive fails the test if a value arrives on ch within duration
func RequireNoReceive[T any](
	t *testing.T,
	ch <-chan T,
	duration time.Duration,
	msg string,
) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf(
			"unexpected value received on channel: %v: %s",
			v,
			msg,
		)
	case <-time.After(duration):
	}
}

// RequireEvent waits for an event on ch and returns its data as T
func RequireEvent[T any](
	t *testing.T,
	ch <-chan event.Event,
	timeout time.Duration,
) T {
	t.Helper()
	var zero T
	evt := RequireReceive(t, ch, timeout, "event")
	data, ok := evt.Data.(T)
	require.True(t, ok, "unexpected event data type %T, wanted %T", evt.Data, zero)
	return data
}

// RequireGovernanceError asserts that err wraps the typed sentinel and
// classifies with the sentinel's kind
func RequireGovernanceError(t *testing.T, err error, sentinel *types.Error) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, sentinel)
	var govErr *types.Error
	require.True(t, errors.As(err, &govErr), "no typed error in %v", err)
	require.Equal(t, sentinel.Kind, types.KindOf(err))
}
