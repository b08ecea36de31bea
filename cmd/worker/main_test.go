package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/pkg/logger"
)

type flakyHandler struct {
	failures int
	calls    int
}

func (h *flakyHandler) Execute(context.Context, service.ProfileEvent) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("redis unavailable")
	}
	return nil
}

var testBackoff = []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond}

func testEvent() service.ProfileEvent {
	return service.ProfileEvent{EventType: service.ProfileEventUpdated, OwnerID: uuid.New(), Username: "ada"}
}

func TestProcessEvent_RetriesSameEvent(t *testing.T) {
	h := &flakyHandler{failures: 2}
	err := processEvent(context.Background(), h, testEvent(), testBackoff, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestProcessEvent_GivesUpAfterBackoff(t *testing.T) {
	h := &flakyHandler{failures: 100}
	err := processEvent(context.Background(), h, testEvent(), testBackoff, logger.NewNop())
	assert.EqualError(t, err, "redis unavailable")
	assert.Equal(t, len(testBackoff)+1, h.calls)
}

func TestProcessEvent_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := &flakyHandler{failures: 100}
	err := processEvent(ctx, h, testEvent(), []time.Duration{time.Hour}, logger.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.calls)
}
