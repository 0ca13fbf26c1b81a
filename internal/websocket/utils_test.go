package websocket

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-portal/internal/model"
	"github.com/stemsi/exstem-portal/internal/response"
	"github.com/stemsi/exstem-portal/internal/scoring"
	"github.com/stemsi/exstem-portal/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSessionEvent(t *testing.T) {
	resultID := uuid.New()

	tick, ok := FromSessionEvent(session.TickEvent{RemainingSeconds: 41}).(TickResponse)
	require.True(t, ok)
	assert.Equal(t, EventTick, tick.Event)
	assert.Equal(t, 41, tick.RemainingSeconds)

	warn, ok := FromSessionEvent(session.WarningEvent{
		Warning: &session.PersistenceWarning{ResultID: resultID, Err: errors.New("down")},
	}).(WarningResponse)
	require.True(t, ok)
	assert.Equal(t, response.ErrResultNotSaved, warn.Code)
	assert.Equal(t, resultID, warn.ResultID)

	nav, ok := FromSessionEvent(session.NavigationEvent{Index: 2}).(NavigationResponse)
	require.True(t, ok)
	assert.Equal(t, 2, nav.Index)
}

func TestCompletedFromResult(t *testing.T) {
	msg := CompletedFromResult(&model.ExamResult{Score: 80, TimeSpentSeconds: 125})
	assert.Equal(t, EventCompleted, msg.Event)
	assert.Equal(t, scoring.BandGood, msg.Band)
	assert.Equal(t, "2 min 5 sec", msg.TimeSpent)
}
