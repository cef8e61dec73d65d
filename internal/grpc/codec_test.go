package grpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/nps-insights/pkg/fiscal"
)

func TestIntField(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    int
		present bool
		wantErr bool
	}{
		{"number", 12.0, 12, true, false},
		{"numeric string", " 7 ", 7, true, false},
		{"null", nil, 0, false, false},
		{"fraction", 1.5, 0, true, true},
		{"word", "seven", 0, true, true},
		{"bool", true, 0, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := structpb.NewStruct(map[string]any{"n": tc.value})
			require.NoError(t, err)

			got, present, err := intField(req, "n")
			assert.Equal(t, tc.present, present)
			if tc.wantErr {
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, present, err := intField(&structpb.Struct{}, "n")
	assert.NoError(t, err)
	assert.False(t, present)
}

func TestDateField(t *testing.T) {
	req, err := structpb.NewStruct(map[string]any{
		"day":    "2025-01-20",
		"stamp":  "2025-01-20T09:30:00+02:00",
		"number": 20250120,
		"bad":    "20/01/2025",
	})
	require.NoError(t, err)

	d, err := dateField(req, "day")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), d)

	d, err = dateField(req, "stamp")
	require.NoError(t, err)
	assert.Equal(t, 9, d.Hour())

	d, err = dateField(req, "missing")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = dateField(req, "number")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = dateField(req, "bad")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestParseWeekKey(t *testing.T) {
	req, _ := structpb.NewStruct(map[string]any{"year": 2025, "week": 0})
	_, err := parseWeekKey(req)
	assert.ErrorContains(t, err, "must be positive")

	req, _ = structpb.NewStruct(map[string]any{"year": "2025", "week": 52})
	key, err := parseWeekKey(req)
	require.NoError(t, err)
	assert.Equal(t, fiscal.WeekKey{Year: 2025, Week: 52}, key)
}

func TestParseTrendQuery(t *testing.T) {
	req, _ := structpb.NewStruct(map[string]any{"period": "WEEK", "group_by": "Team", "span": "8"})
	q, err := parseTrendQuery(req)
	require.NoError(t, err)
	assert.Equal(t, fiscal.WeekPeriodKind, q.Period)
	assert.Equal(t, fiscal.GroupByTeam, q.GroupBy)
	assert.Equal(t, 8, q.Span)
	assert.Nil(t, q.Range)

	for _, bad := range []map[string]any{
		{"period": "quarter"},
		{"span": -1},
		{"end": "2025-01-01"},
		{"start": "2025-02-01", "end": "2025-01-01"},
		{"group_by": 3},
	} {
		req, _ := structpb.NewStruct(bad)
		_, err := parseTrendQuery(req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "%v", bad)
	}
}

func TestEncode(t *testing.T) {
	out, err := encode(fiscal.WeekPeriod{
		Year:  2025,
		Week:  3,
		Key:   "2025-W03",
		Start: time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Equal(t, float64(3), out.GetFields()["week"].GetNumberValue())
	assert.Equal(t, "2025-01-19T00:00:00Z", out.GetFields()["start"].GetStringValue())

	_, err = encode([]int{1, 2})
	assert.Error(t, err, "top-level arrays are not Struct documents")
}

func TestCacheArgs(t *testing.T) {
	day := time.Date(2025, 1, 20, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2025-01-20", cacheArgs(day))
	assert.Equal(t, "week:team:0:-", cacheArgs(fiscal.WeekPeriodKind, fiscal.GroupByTeam, 0, (*fiscal.DateRange)(nil)))
	assert.Equal(t, "2025-W03", cacheArgs(fiscal.WeekKey{Year: 2025, Week: 3}))
	assert.Equal(t, "2025-01-20..2025-01-20", cacheArgs(&fiscal.DateRange{Start: day, End: day}))
}
