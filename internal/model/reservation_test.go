package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationTransitionTo(t *testing.T) {
	t.Run("pending can confirm", func(t *testing.T) {
		r := &Reservation{Status: StatusPending}
		require.NoError(t, r.TransitionTo(StatusConfirmed))
		assert.Equal(t, StatusConfirmed, r.Status)
	})

	t.Run("pending can fail", func(t *testing.T) {
		r := &Reservation{Status: StatusPending}
		require.NoError(t, r.TransitionTo(StatusFailed))
		assert.Equal(t, StatusFailed, r.Status)
	})

	t.Run("confirmed can complete", func(t *testing.T) {
		r := &Reservation{Status: StatusConfirmed}
		require.NoError(t, r.TransitionTo(StatusCompleted))
		assert.Equal(t, StatusCompleted, r.Status)
	})

	t.Run("confirmed cannot go back to pending", func(t *testing.T) {
		r := &Reservation{Status: StatusConfirmed}
		err := r.TransitionTo(StatusPending)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusConfirmed, r.Status)
	})

	t.Run("terminal states accept nothing", func(t *testing.T) {
		for _, terminal := range []string{StatusFailed, StatusCompleted} {
			for _, target := range []string{StatusPending, StatusConfirmed, StatusFailed, StatusCompleted} {
				r := &Reservation{Status: terminal}
				err := r.TransitionTo(target)
				assert.ErrorIs(t, err, ErrInvalidTransition, "from %s to %s", terminal, target)
			}
		}
	})

	t.Run("unknown target is rejected", func(t *testing.T) {
		r := &Reservation{Status: StatusPending}
		assert.ErrorIs(t, r.TransitionTo("EXPIRED"), ErrInvalidTransition)
	})
}

func TestLive(t *testing.T) {
	assert.True(t, Live(StatusPending))
	assert.True(t, Live(StatusConfirmed))
	assert.False(t, Live(StatusFailed))
	assert.False(t, Live(StatusCompleted))
	assert.False(t, Live("UNKNOWN"))
}

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusFailed, StatusCompleted} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("pending"))
	assert.False(t, ValidStatus(""))
}

func TestSnapshotSeat(t *testing.T) {
	seat := &Seat{
		ID:         7,
		HallID:     3,
		RowNum:     2,
		ColNum:     5,
		SeatNumber: "B5",
		SeatType:   SeatVIP,
		PriceCents: 1850,
	}
	snap := SnapshotSeat(seat)
	assert.Equal(t, uint64(7), snap.SeatID)
	assert.Equal(t, uint32(2), snap.RowNum)
	assert.Equal(t, uint32(5), snap.ColNum)
	assert.Equal(t, "B5", snap.SeatNumber)
	assert.Equal(t, SeatVIP, snap.SeatType)
	assert.Equal(t, uint32(1850), snap.PriceCents)
}
