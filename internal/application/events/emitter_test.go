package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/patentdesk/internal/testutil"
	"github.com/turtacn/patentdesk/pkg/types/common"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, evt common.DomainEvent) error {
	return m.Called(ctx, evt).Error(0)
}

func TestEmit(t *testing.T) {
	pub := &mockPublisher{}
	evt := common.NewBaseEvent("patent.created", "p-1")
	pub.On("Publish", mock.Anything, evt).Return(nil).Once()

	NewEmitter(pub, nil, testutil.NewMockLogger()).Emit(context.Background(), evt)
	pub.AssertExpectations(t)
}

func TestEmit_FailureIsLogged(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	log := testutil.NewMockLogger()

	NewEmitter(pub, nil, log).Emit(context.Background(), common.NewBaseEvent("patent.deleted", "p-1"))
	assert.True(t, log.HasMessage("warn", "failed to publish event"))
}

func TestEmit_SurvivesCancelledRequest(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewEmitter(pub, nil, testutil.NewMockLogger()).Emit(ctx, common.NewBaseEvent("patent.updated", "p-1"))
	pub.AssertExpectations(t)
}

func TestEmit_NilSafe(t *testing.T) {
	var e *Emitter
	assert.NotPanics(t, func() { e.Emit(context.Background(), common.NewBaseEvent("x", "y")) })
}
