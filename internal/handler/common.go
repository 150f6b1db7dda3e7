package handler // handler defines the HTTP handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id placed in the context by the JWT
// middleware and converts it to uint64.  JWT numeric claims arrive as
// float64 after JSON decoding, so several representations are accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim from the context.  An empty string is
// returned when no role is present.
func getRole(c echo.Context) string {
	if r, ok := c.Get("role").(string); ok {
		return r
	}
	return ""
}

// paramID parses a numeric path parameter.  Zero is treated as invalid
// because no entity uses id 0.
func paramID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// rowLabel converts a 1-based row number to an alphabetical label like
// A, B, ..., Z, AA.  Seat numbers are composed as label + column, e.g.
// row 1 column 3 -> "A3".
func rowLabel(row uint32) string {
	i := int(row) - 1
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// seatNumberFor builds the human-facing seat label for a grid position.
func seatNumberFor(row, col uint32) string {
	return rowLabel(row) + strconv.FormatUint(uint64(col), 10)
}
