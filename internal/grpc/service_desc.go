package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const FeedbackReportingServiceName = "feedback.v1.FeedbackReporting"

const (
	MethodListWeeks     = "ListWeeks"
	MethodListMonths    = "ListMonths"
	MethodGetWeekStats  = "GetWeekStats"
	MethodGetMonthStats = "GetMonthStats"
	MethodGetRangeStats = "GetRangeStats"
	MethodGetTrend      = "GetTrend"
	MethodResolveWeek   = "ResolveWeek"
)

// FullMethod returns the gRPC path of method, e.g.
// "/feedback.v1.FeedbackReporting/GetWeekStats".
func FullMethod(method string) string {
	return "/" + FeedbackReportingServiceName + "/" + method
}

// FeedbackReportingServer is the server API of the reporting service. Requests
// and responses are google.protobuf.Struct documents.
type FeedbackReportingServer interface {
	ListWeeks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMonths(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetWeekStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMonthStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRangeStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTrend(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveWeek(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(FeedbackReportingServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedbackReportingServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FeedbackReportingServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FeedbackReporting_ServiceDesc describes the reporting service for
// grpc.Server.RegisterService.
var FeedbackReporting_ServiceDesc = grpc.ServiceDesc{
	ServiceName: FeedbackReportingServiceName,
	HandlerType: (*FeedbackReportingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodListWeeks, Handler: unaryHandler(MethodListWeeks, FeedbackReportingServer.ListWeeks)},
		{MethodName: MethodListMonths, Handler: unaryHandler(MethodListMonths, FeedbackReportingServer.ListMonths)},
		{MethodName: MethodGetWeekStats, Handler: unaryHandler(MethodGetWeekStats, FeedbackReportingServer.GetWeekStats)},
		{MethodName: MethodGetMonthStats, Handler: unaryHandler(MethodGetMonthStats, FeedbackReportingServer.GetMonthStats)},
		{MethodName: MethodGetRangeStats, Handler: unaryHandler(MethodGetRangeStats, FeedbackReportingServer.GetRangeStats)},
		{MethodName: MethodGetTrend, Handler: unaryHandler(MethodGetTrend, FeedbackReportingServer.GetTrend)},
		{MethodName: MethodResolveWeek, Handler: unaryHandler(MethodResolveWeek, FeedbackReportingServer.ResolveWeek)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "feedback/v1/feedback_reporting.proto",
}

func RegisterFeedbackReportingServer(s grpc.ServiceRegistrar, srv FeedbackReportingServer) {
	s.RegisterService(&FeedbackReporting_ServiceDesc, srv)
}

// FeedbackReportingClient calls the reporting service over an existing
// connection.
type FeedbackReportingClient struct {
	cc grpc.ClientConnInterface
}

func NewFeedbackReportingClient(cc grpc.ClientConnInterface) *FeedbackReportingClient {
	return &FeedbackReportingClient{cc: cc}
}

// Call invokes method with req. A nil req sends an empty document.
func (c *FeedbackReportingClient) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if req == nil {
		req = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
