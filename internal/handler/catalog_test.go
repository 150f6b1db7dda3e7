package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetix/cinema-booking/internal/model"
)

func TestRowLabel(t *testing.T) {
	cases := map[uint32]string{
		1:  "A",
		2:  "B",
		26: "Z",
		27: "AA",
		28: "AB",
		52: "AZ",
		53: "BA",
	}
	for row, want := range cases {
		assert.Equal(t, want, rowLabel(row), "row %d", row)
	}
}

func TestSeatNumberFor(t *testing.T) {
	assert.Equal(t, "A1", seatNumberFor(1, 1))
	assert.Equal(t, "C12", seatNumberFor(3, 12))
	assert.Equal(t, "AA4", seatNumberFor(27, 4))
}

func TestBuildSeatGrid(t *testing.T) {
	req := &hallReq{
		CinemaID:         1,
		Name:             "Hall 1",
		Rows:             3,
		Cols:             4,
		PriceCents:       1200,
		VIPRows:          []uint32{3},
		VIPPriceCents:    1800,
		CoupleRows:       []uint32{2},
		CouplePriceCents: 2400,
	}
	seats := buildSeatGrid(42, req)
	require.Len(t, seats, 12)

	// Row-major order: A1..A4, B1..B4, C1..C4.
	assert.Equal(t, "A1", seats[0].SeatNumber)
	assert.Equal(t, "A4", seats[3].SeatNumber)
	assert.Equal(t, "B1", seats[4].SeatNumber)
	assert.Equal(t, "C4", seats[11].SeatNumber)

	for _, s := range seats {
		assert.Equal(t, uint64(42), s.HallID)
		switch s.RowNum {
		case 1:
			assert.Equal(t, model.SeatRegular, s.SeatType)
			assert.Equal(t, uint32(1200), s.PriceCents)
		case 2:
			assert.Equal(t, model.SeatCouple, s.SeatType)
			assert.Equal(t, uint32(2400), s.PriceCents)
		case 3:
			assert.Equal(t, model.SeatVIP, s.SeatType)
			assert.Equal(t, uint32(1800), s.PriceCents)
		}
	}
}

func TestBuildSeatGridVIPBeatsCouple(t *testing.T) {
	// A row listed in both sets gets the VIP type.
	req := &hallReq{
		Rows:             1,
		Cols:             2,
		PriceCents:       1000,
		VIPRows:          []uint32{1},
		VIPPriceCents:    1500,
		CoupleRows:       []uint32{1},
		CouplePriceCents: 2000,
	}
	seats := buildSeatGrid(1, req)
	require.Len(t, seats, 2)
	assert.Equal(t, model.SeatVIP, seats[0].SeatType)
	assert.Equal(t, uint32(1500), seats[0].PriceCents)
}
