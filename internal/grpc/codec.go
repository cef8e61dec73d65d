package grpc

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/nps-insights/internal/service"
	"github.com/godilite/nps-insights/pkg/fiscal"
)

const wireDateLayout = "2006-01-02"

func invalidArgument(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

func field(req *structpb.Struct, name string) (*structpb.Value, bool) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// intField accepts integral numbers and numeric strings.
func intField(req *structpb.Struct, name string) (n int, present bool, err error) {
	v, ok := field(req, name)
	if !ok {
		return 0, false, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return 0, true, invalidArgument("%s must be an integer", name)
		}
		return int(f), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return 0, true, invalidArgument("%s must be an integer", name)
		}
		return n, true, nil
	default:
		return 0, true, invalidArgument("%s must be an integer", name)
	}
}

func requiredInt(req *structpb.Struct, name string) (int, error) {
	n, present, err := intField(req, name)
	if err != nil {
		return 0, err
	}
	if !present {
		return 0, invalidArgument("%s is required", name)
	}
	return n, nil
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := field(req, name)
	if !ok {
		return "", nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", invalidArgument("%s must be a string", name)
	}
	return strings.TrimSpace(s.StringValue), nil
}

// dateField parses YYYY-MM-DD or an RFC 3339 timestamp. Absent fields yield
// the zero time.
func dateField(req *structpb.Struct, name string) (time.Time, error) {
	s, err := stringField(req, name)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	if t, err := time.Parse(wireDateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, invalidArgument("%s must be a date (YYYY-MM-DD), got %q", name, s)
}

func parseWeekKey(req *structpb.Struct) (fiscal.WeekKey, error) {
	year, err := requiredInt(req, "year")
	if err != nil {
		return fiscal.WeekKey{}, err
	}
	week, err := requiredInt(req, "week")
	if err != nil {
		return fiscal.WeekKey{}, err
	}
	if year <= 0 || week <= 0 {
		return fiscal.WeekKey{}, invalidArgument("year and week must be positive")
	}
	return fiscal.WeekKey{Year: year, Week: week}, nil
}

func parseRange(req *structpb.Struct) (start, end time.Time, err error) {
	if start, err = dateField(req, "start"); err != nil {
		return
	}
	if end, err = dateField(req, "end"); err != nil {
		return
	}
	if start.IsZero() || end.IsZero() {
		err = invalidArgument("start and end dates are required")
		return
	}
	if end.Before(start) {
		err = invalidArgument("end date must not be before start date")
		return
	}
	return
}

func parseTrendQuery(req *structpb.Struct) (service.TrendQuery, error) {
	var q service.TrendQuery

	period, err := stringField(req, "period")
	if err != nil {
		return q, err
	}
	switch strings.ToLower(period) {
	case "", "week", "weekly":
		q.Period = fiscal.WeekPeriodKind
	case "month", "monthly":
		q.Period = fiscal.MonthPeriodKind
	default:
		return q, invalidArgument("period must be week or month, got %q", period)
	}

	groupBy, err := stringField(req, "group_by")
	if err != nil {
		return q, err
	}
	switch strings.ToLower(groupBy) {
	case "", "team":
		q.GroupBy = fiscal.GroupByTeam
	case "reason":
		q.GroupBy = fiscal.GroupByReason
	default:
		return q, invalidArgument("group_by must be team or reason, got %q", groupBy)
	}

	span, _, err := intField(req, "span")
	if err != nil {
		return q, err
	}
	if span < 0 {
		return q, invalidArgument("span must not be negative")
	}
	q.Span = span

	_, hasStart := field(req, "start")
	_, hasEnd := field(req, "end")
	if hasStart || hasEnd {
		start, end, err := parseRange(req)
		if err != nil {
			return q, err
		}
		q.Range = &fiscal.DateRange{Start: start, End: end}
	}
	return q, nil
}

// encode converts v into a Struct through its JSON form.
func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// cacheArgs renders parsed arguments into a stable cache key fragment.
func cacheArgs(parts ...any) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case time.Time:
			out[i] = v.Format(wireDateLayout)
		case *fiscal.DateRange:
			if v == nil {
				out[i] = "-"
			} else {
				out[i] = v.Start.Format(wireDateLayout) + ".." + v.End.Format(wireDateLayout)
			}
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(out, ":")
}
