package grpc

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/perf-dashboard/internal/dataset"
	"github.com/godilite/perf-dashboard/internal/service"
	"github.com/godilite/perf-dashboard/pkg/cache"
)

const (
	defaultGRPCTimeout = 10 * time.Second
)

type CacheKeyType string

const (
	cacheKeySummary      CacheKeyType = "grpc:summary"
	cacheKeyDivisions    CacheKeyType = "grpc:divisions"
	cacheKeyStakeholders CacheKeyType = "grpc:stakeholders"
	cacheKeyBreakdown    CacheKeyType = "grpc:breakdown"
)

type DivisionList struct {
	Version   string   `json:"version"`
	Divisions []string `json:"divisions"`
}

type StakeholderList struct {
	Version      string   `json:"version"`
	Division     string   `json:"division"`
	Stakeholders []string `json:"stakeholders"`
}

type ReloadResult struct {
	Version  string    `json:"version"`
	Records  int       `json:"records"`
	Sheets   []string  `json:"sheets"`
	LoadedAt time.Time `json:"loaded_at"`
}

type GRPCHandlers struct {
	perf   PerformanceService
	cache  *cache.ReadThrough
	logger *zap.Logger
}

var _ PerformanceReportServer = (*GRPCHandlers)(nil)

// NewGRPCHandlers initializes the gRPC handlers.
func NewGRPCHandlers(perf PerformanceService, rt *cache.ReadThrough, logger *zap.Logger) *GRPCHandlers {
	if perf == nil {
		panic("nil PerformanceService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if rt == nil {
		rt = cache.NewReadThrough(cache.Nop{}, 0, logger)
	}
	return &GRPCHandlers{
		perf:   perf,
		cache:  rt,
		logger: logger.Named("grpc-handler"),
	}
}

// versionedKey builds a cache key scoped to one dataset version, so entries
// written for an older file are never served.
func versionedKey(prefix CacheKeyType, version string, parts ...string) string {
	var b strings.Builder
	b.WriteString(string(prefix))
	b.WriteByte(':')
	b.WriteString(version)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(p))
	}
	return b.String()
}

func stringField(req *structpb.Struct, name string) string {
	return strings.TrimSpace(req.GetFields()[name].GetStringValue())
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrNoData):
		s.logger.Info("no data for selection", zap.String("op", op))
		return status.Error(codes.NotFound, service.ErrNoData.Error())
	case errors.Is(err, service.ErrInvalidGroupBy):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, dataset.ErrLoad):
		s.logger.Error("dataset unavailable", zap.String("op", op), zap.Error(err))
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

func (s *GRPCHandlers) respond(op string, v any) (*structpb.Struct, error) {
	out, err := encode(v)
	if err != nil {
		s.logger.Error("response encoding failed", zap.String("op", op), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "%s failed: encode response", op)
	}
	return out, nil
}

func (s *GRPCHandlers) summary(ctx context.Context, op string, by service.GroupBy) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := s.perf.CurrentVersion(ctx)
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}

	key := versionedKey(cacheKeySummary, v.Fingerprint, string(by))
	summary, err := cache.FindAndCache(ctx, s.cache, key, func(fetchCtx context.Context) (service.Summary, error) {
		return s.perf.Summarize(fetchCtx, by)
	})
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}
	if summary.Groups == nil {
		summary.Groups = []service.Aggregate{}
	}

	return s.respond(op, summary)
}

func (s *GRPCHandlers) GetDivisionSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.summary(ctx, MethodGetDivisionSummary, service.GroupByDivision)
}

func (s *GRPCHandlers) GetStakeholderSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.summary(ctx, MethodGetStakeholderSummary, service.GroupByStakeholder)
}

func (s *GRPCHandlers) GetPairSummary(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.summary(ctx, MethodGetPairSummary, service.GroupByDivisionStakeholder)
}

func (s *GRPCHandlers) ListDivisions(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := s.perf.CurrentVersion(ctx)
	if err != nil {
		return nil, s.handleError(ctx, MethodListDivisions, err)
	}

	key := versionedKey(cacheKeyDivisions, v.Fingerprint)
	divisions, err := cache.FindAndCache(ctx, s.cache, key, func(fetchCtx context.Context) ([]string, error) {
		return s.perf.Divisions(fetchCtx)
	})
	if err != nil {
		return nil, s.handleError(ctx, MethodListDivisions, err)
	}
	if divisions == nil {
		divisions = []string{}
	}

	return s.respond(MethodListDivisions, DivisionList{Version: v.Fingerprint, Divisions: divisions})
}

func (s *GRPCHandlers) ListStakeholders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	division := stringField(req, "division")
	if division == "" {
		return nil, status.Error(codes.InvalidArgument, "division is required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := s.perf.CurrentVersion(ctx)
	if err != nil {
		return nil, s.handleError(ctx, MethodListStakeholders, err)
	}

	key := versionedKey(cacheKeyStakeholders, v.Fingerprint, division)
	stakeholders, err := cache.FindAndCache(ctx, s.cache, key, func(fetchCtx context.Context) ([]string, error) {
		return s.perf.Stakeholders(fetchCtx, division)
	})
	if err != nil {
		return nil, s.handleError(ctx, MethodListStakeholders, err)
	}
	if stakeholders == nil {
		stakeholders = []string{}
	}

	return s.respond(MethodListStakeholders, StakeholderList{
		Version:      v.Fingerprint,
		Division:     division,
		Stakeholders: stakeholders,
	})
}

func (s *GRPCHandlers) GetBreakdown(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	division := stringField(req, "division")
	stakeholder := stringField(req, "stakeholder")
	if division == "" || stakeholder == "" {
		return nil, status.Error(codes.InvalidArgument, "division and stakeholder are required")
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := s.perf.CurrentVersion(ctx)
	if err != nil {
		return nil, s.handleError(ctx, MethodGetBreakdown, err)
	}

	key := versionedKey(cacheKeyBreakdown, v.Fingerprint, division, stakeholder)
	breakdown, err := cache.FindAndCache(ctx, s.cache, key, func(fetchCtx context.Context) (service.Breakdown, error) {
		return s.perf.Breakdown(fetchCtx, division, stakeholder)
	})
	if err != nil {
		return nil, s.handleError(ctx, MethodGetBreakdown, err)
	}

	return s.respond(MethodGetBreakdown, breakdown)
}

func (s *GRPCHandlers) ReloadDataset(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	v, err := s.perf.Reload(ctx)
	if err != nil {
		return nil, s.handleError(ctx, MethodReloadDataset, err)
	}

	sheets := v.Sheets
	if sheets == nil {
		sheets = []string{}
	}
	return s.respond(MethodReloadDataset, ReloadResult{
		Version:  v.Fingerprint,
		Records:  v.Records,
		Sheets:   sheets,
		LoadedAt: v.LoadedAt,
	})
}
