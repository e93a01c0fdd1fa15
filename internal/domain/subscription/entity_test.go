package subscription

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patentdesk/internal/domain/user"
	"github.com/turtacn/patentdesk/pkg/errors"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	uid := uuid.New()
	s, err := New(uid, user.PlanPro, "card", 14, t0)
	require.NoError(t, err)

	assert.Equal(t, uid, s.UserID)
	assert.Equal(t, StatusActive, s.Status)
	assert.True(t, s.AutoRenew)
	assert.Equal(t, t0.Add(30*24*time.Hour), s.CurrentPeriodEnd)
	require.NotNil(t, s.TrialEndsAt)
	assert.Equal(t, t0.AddDate(0, 0, 14), *s.TrialEndsAt)

	s, err = New(uid, user.PlanFree, "", 0, t0)
	require.NoError(t, err)
	assert.Nil(t, s.TrialEndsAt)
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(uuid.Nil, user.PlanFree, "", 0, t0)
	assert.True(t, errors.IsValidation(err))

	_, err = New(uuid.New(), user.Plan("gold"), "", 0, t0)
	assert.True(t, errors.IsCode(err, errors.ErrCodePlanInvalid))
}

func TestCancel(t *testing.T) {
	s, _ := New(uuid.New(), user.PlanPro, "", 0, t0)
	require.NoError(t, s.Cancel(t0.Add(time.Hour)))

	assert.Equal(t, StatusCancelled, s.Status)
	assert.False(t, s.AutoRenew)
	require.NotNil(t, s.CancelledAt)

	err := s.Cancel(t0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubscriptionNotFound))
}

func TestChangePlan(t *testing.T) {
	s, _ := New(uuid.New(), user.PlanFree, "", 0, t0)
	require.NoError(t, s.ChangePlan(user.PlanPro, t0))
	assert.Equal(t, user.PlanPro, s.Plan)

	assert.Error(t, s.ChangePlan(user.Plan("x"), t0))
	require.NoError(t, s.Cancel(t0))
	assert.Error(t, s.ChangePlan(user.PlanFree, t0))
}

func TestRoll(t *testing.T) {
	s, _ := New(uuid.New(), user.PlanPro, "", 0, t0)
	assert.False(t, s.Roll(t0.Add(time.Hour)), "period not over")

	// two full periods elapsed
	assert.True(t, s.Roll(t0.Add(61*24*time.Hour)))
	assert.Equal(t, StatusActive, s.Status)
	assert.Equal(t, t0.Add(60*24*time.Hour), s.CurrentPeriodStart)
	assert.Equal(t, t0.Add(90*24*time.Hour), s.CurrentPeriodEnd)

	s.AutoRenew = false
	assert.True(t, s.Roll(t0.Add(91*24*time.Hour)))
	assert.Equal(t, StatusExpired, s.Status)
	assert.False(t, s.Roll(t0.Add(200*24*time.Hour)))
}

func TestNewChangedEvent(t *testing.T) {
	s, _ := New(uuid.New(), user.PlanPro, "", 0, t0)
	e := NewChangedEvent(s)
	assert.Equal(t, EventChanged, e.EventType())
	assert.Equal(t, s.ID.String(), e.AggregateID())
	assert.Equal(t, StatusActive, e.Status)
}
