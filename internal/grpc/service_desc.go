package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the report service.
const ServiceName = "perfdash.v1.PerformanceReport"

const (
	MethodGetDivisionSummary    = "GetDivisionSummary"
	MethodGetStakeholderSummary = "GetStakeholderSummary"
	MethodGetPairSummary        = "GetPairSummary"
	MethodListDivisions         = "ListDivisions"
	MethodListStakeholders      = "ListStakeholders"
	MethodGetBreakdown          = "GetBreakdown"
	MethodReloadDataset         = "ReloadDataset"
)

// PerformanceReportServer is the server API of the report service. Requests
// and responses are free-form structs whose fields mirror the JSON API.
type PerformanceReportServer interface {
	GetDivisionSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStakeholderSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPairSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDivisions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListStakeholders(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadDataset(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterPerformanceReportServer(s grpc.ServiceRegistrar, srv PerformanceReportServer) {
	s.RegisterService(&PerformanceReportServiceDesc, srv)
}

var PerformanceReportServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PerformanceReportServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetDivisionSummary, Handler: unaryHandler(MethodGetDivisionSummary, PerformanceReportServer.GetDivisionSummary)},
		{MethodName: MethodGetStakeholderSummary, Handler: unaryHandler(MethodGetStakeholderSummary, PerformanceReportServer.GetStakeholderSummary)},
		{MethodName: MethodGetPairSummary, Handler: unaryHandler(MethodGetPairSummary, PerformanceReportServer.GetPairSummary)},
		{MethodName: MethodListDivisions, Handler: unaryHandler(MethodListDivisions, PerformanceReportServer.ListDivisions)},
		{MethodName: MethodListStakeholders, Handler: unaryHandler(MethodListStakeholders, PerformanceReportServer.ListStakeholders)},
		{MethodName: MethodGetBreakdown, Handler: unaryHandler(MethodGetBreakdown, PerformanceReportServer.GetBreakdown)},
		{MethodName: MethodReloadDataset, Handler: unaryHandler(MethodReloadDataset, PerformanceReportServer.ReloadDataset)},
	},
	Streams: []grpc.StreamDesc{},
}

type unaryMethod func(PerformanceReportServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PerformanceReportServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PerformanceReportServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
