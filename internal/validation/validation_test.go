package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/bistro/pkg/errorbank"
)

func TestRequiredDate(t *testing.T) {
	v := New()
	got := v.RequiredDate("start_date", "2025-06-01")
	require.False(t, v.Failed())
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestRequiredDateMissing(t *testing.T) {
	v := New()
	v.RequiredDate("start_date", "")
	require.True(t, v.Failed())
	assert.Equal(t, []string{"The start_date field is required."}, v.Messages()["start_date"])
}

func TestRequiredDateBadFormat(t *testing.T) {
	v := New()
	v.RequiredDate("start_date", "01-06-2025")
	require.True(t, v.Failed())
	assert.Equal(t, []string{"The start_date does not match the format Y-m-d."}, v.Messages()["start_date"])
}

func TestOptionalDateAbsent(t *testing.T) {
	v := New()
	assert.Nil(t, v.OptionalDate("end_date", ""))
	assert.False(t, v.Failed())
}

func TestDateOrder(t *testing.T) {
	v := New()
	start := v.RequiredDate("start_date", "2025-06-10")
	end := v.RequiredDate("end_date", "2025-06-01")
	v.DateOrder("end_date", "start_date", start, end)

	require.True(t, v.Failed())
	assert.Equal(t, []string{"The end_date must be a date after or equal to start_date."}, v.Messages()["end_date"])
}

func TestDateOrderEqualDatesPass(t *testing.T) {
	v := New()
	start := v.RequiredDate("start_date", "2025-06-01")
	end := v.RequiredDate("end_date", "2025-06-01")
	v.DateOrder("end_date", "start_date", start, end)
	assert.False(t, v.Failed())
}

func TestDateOrderSkippedWhenParseFailed(t *testing.T) {
	v := New()
	start := v.RequiredDate("start_date", "bogus")
	end := v.RequiredDate("end_date", "2025-06-01")
	v.DateOrder("end_date", "start_date", start, end)

	assert.NotContains(t, v.Messages(), "end_date")
}

func TestIntInRange(t *testing.T) {
	v := New()
	assert.Equal(t, 5, v.IntInRange("limit", "5", 1, 10, 3))
	assert.False(t, v.Failed())
}

func TestIntInRangeDefault(t *testing.T) {
	v := New()
	assert.Equal(t, 3, v.IntInRange("limit", "", 1, 10, 3))
	assert.False(t, v.Failed())
}

func TestIntInRangeOutOfBounds(t *testing.T) {
	v := New()
	v.IntInRange("limit", "11", 1, 10, 3)
	require.True(t, v.Failed())
	assert.Equal(t, []string{"The limit must be between 1 and 10."}, v.Messages()["limit"])
}

func TestIntBetween(t *testing.T) {
	v := New()
	v.IntBetween("hour_range.start", 24, 0, 23)
	require.True(t, v.Failed())
	assert.Equal(t, []string{"The hour_range.start must be between 0 and 23."}, v.Messages()["hour_range.start"])
}

func TestOneOf(t *testing.T) {
	v := New()
	v.OneOf("group_by", "week", "day", "hour", "restaurant")
	require.True(t, v.Failed())
	assert.Equal(t, []string{"The selected group_by is invalid."}, v.Messages()["group_by"])
}

func TestErrNilWhenValid(t *testing.T) {
	v := New()
	v.RequiredDate("start_date", "2025-06-01")
	assert.NoError(t, v.Err())
}

func TestErrCarriesFieldMessages(t *testing.T) {
	v := New()
	v.RequiredDate("start_date", "")
	v.RequiredInt("restaurant_id", "abc")

	err := v.Err()
	require.Error(t, err)

	appErr := errorbank.From(err)
	assert.Equal(t, 422, appErr.StatusCode())
	assert.Equal(t, "Validation failed", appErr.Message())
	assert.Len(t, appErr.FieldMessages(), 2)
}
