package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/perf-dashboard/internal/service"
)

// encode converts a JSON-tagged value into a Struct.
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return structpb.NewStruct(fields)
}

// Decode fills dest, a pointer to a JSON-tagged value, from a Struct.
func Decode(s *structpb.Struct, dest any) error {
	raw, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// PerformanceReportClient calls the report service over a client connection.
type PerformanceReportClient struct {
	cc grpc.ClientConnInterface
}

func NewPerformanceReportClient(cc grpc.ClientConnInterface) *PerformanceReportClient {
	return &PerformanceReportClient{cc: cc}
}

// Invoke calls method with req and decodes the response into dest.
func (c *PerformanceReportClient) Invoke(ctx context.Context, method string, req map[string]any, dest any, opts ...grpc.CallOption) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	return Decode(out, dest)
}

func (c *PerformanceReportClient) Summary(ctx context.Context, by service.GroupBy, opts ...grpc.CallOption) (service.Summary, error) {
	var method string
	switch by {
	case service.GroupByDivision:
		method = MethodGetDivisionSummary
	case service.GroupByStakeholder:
		method = MethodGetStakeholderSummary
	case service.GroupByDivisionStakeholder:
		method = MethodGetPairSummary
	default:
		return service.Summary{}, fmt.Errorf("%w: %q", service.ErrInvalidGroupBy, by)
	}
	var out service.Summary
	err := c.Invoke(ctx, method, nil, &out, opts...)
	return out, err
}

func (c *PerformanceReportClient) Divisions(ctx context.Context, opts ...grpc.CallOption) ([]string, error) {
	var out DivisionList
	err := c.Invoke(ctx, MethodListDivisions, nil, &out, opts...)
	return out.Divisions, err
}

func (c *PerformanceReportClient) Stakeholders(ctx context.Context, division string, opts ...grpc.CallOption) ([]string, error) {
	var out StakeholderList
	err := c.Invoke(ctx, MethodListStakeholders, map[string]any{"division": division}, &out, opts...)
	return out.Stakeholders, err
}

func (c *PerformanceReportClient) Breakdown(ctx context.Context, division, stakeholder string, opts ...grpc.CallOption) (service.Breakdown, error) {
	var out service.Breakdown
	err := c.Invoke(ctx, MethodGetBreakdown, map[string]any{
		"division":    division,
		"stakeholder": stakeholder,
	}, &out, opts...)
	return out, err
}

func (c *PerformanceReportClient) Reload(ctx context.Context, opts ...grpc.CallOption) (ReloadResult, error) {
	var out ReloadResult
	err := c.Invoke(ctx, MethodReloadDataset, nil, &out, opts...)
	return out, err
}
