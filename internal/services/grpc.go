package services

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/attritionlab/attrition-engine/internal/api"
	"github.com/attritionlab/attrition-engine/internal/export"
	"github.com/attritionlab/attrition-engine/internal/utils"
)

// GRPCService adapts AnalyticsService to the AttritionEngine gRPC service.
type GRPCService struct {
	logger    *slog.Logger
	analytics *AnalyticsService
}

var (
	_ api.AttritionEngineServer = (*GRPCService)(nil)
	_ api.ExportBackend         = (*AnalyticsService)(nil)
)

// NewGRPCService constructs the gRPC facade.
func NewGRPCService(logger *slog.Logger, analytics *AnalyticsService) *GRPCService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCService{logger: logger, analytics: analytics}
}

// Analyze runs an analysis for the request's filter.
func (s *GRPCService) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.analytics == nil {
		return nil, status.Error(codes.FailedPrecondition, "analytics service not configured")
	}
	spec, err := api.FilterFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.logger.Debug("Analyze called", slog.String("filter", spec.CanonicalKey()))

	analysis, err := s.analytics.Analyze(ctx, spec)
	if err != nil {
		return nil, s.statusError(err)
	}
	resp, err := api.ToStruct(analysis)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Export renders the requested export kind inline.
func (s *GRPCService) Export(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.analytics == nil {
		return nil, status.Error(codes.FailedPrecondition, "analytics service not configured")
	}
	name, err := api.StringFromStruct(req, api.FieldKind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	kind, err := export.ParseKind(name)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	spec, err := api.FilterFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.analytics.Export(ctx, kind, spec)
	if err != nil {
		return nil, s.statusError(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"kind":      string(result.Kind),
		"filename":  result.Filename,
		"rows":      result.Rows,
		"delimiter": string(s.analytics.formatter.Delimiter()),
		"content":   string(result.Data),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Describe reports the loaded dataset.
func (s *GRPCService) Describe(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.analytics == nil {
		return nil, status.Error(codes.FailedPrecondition, "analytics service not configured")
	}
	info, err := s.analytics.Describe()
	if err != nil {
		return nil, s.statusError(err)
	}
	resp, err := api.ToStruct(info)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

// Reload re-reads the configured dataset source.
func (s *GRPCService) Reload(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if s.analytics == nil {
		return nil, status.Error(codes.FailedPrecondition, "analytics service not configured")
	}
	info, err := s.analytics.Reload(ctx)
	if err != nil {
		s.logger.Error("reload failed", slog.Any("error", err))
		return nil, s.statusError(err)
	}
	resp, err := api.ToStruct(info)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return resp, nil
}

func (s *GRPCService) statusError(err error) error {
	switch utils.KindOf(err) {
	case utils.KindInvalid:
		return status.Error(codes.InvalidArgument, err.Error())
	case utils.KindUnavailable:
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, err.Error())
}
