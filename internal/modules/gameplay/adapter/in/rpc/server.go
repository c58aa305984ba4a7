package rpc

import (
	"context"
	"errors"
	"net"

	hclog "github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
	gamedto "gametune/internal/modules/gameplay/dto"
	gamein "gametune/internal/modules/gameplay/port/in"
	apperrors "gametune/internal/platform/errors"
	"gametune/internal/platform/logging"
)

type Server struct {
	gameplay    gamein.Usecase
	experiments expin.Usecase
}

func NewServer(gameplay gamein.Usecase, experiments expin.Usecase) *Server {
	return &Server{gameplay: gameplay, experiments: experiments}
}

// NewGRPCServer registers the engine on a traced gRPC server whose handlers
// return status errors.
func NewGRPCServer(impl EngineServer, logger hclog.Logger) *grpc.Server {
	logger = logging.OrNull(logger).Named("rpc")
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(statusInterceptor(logger)),
	)
	RegisterEngineServer(server, impl)
	return server
}

// Serve runs server on addr until ctx is done.
func Serve(ctx context.Context, server *grpc.Server, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, server, lis)
}

func ServeListener(ctx context.Context, server *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- server.Serve(lis) }()
	select {
	case <-ctx.Done():
		server.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return err
	}
}

func statusInterceptor(logger hclog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			if apperrors.GRPCCode(err) == codes.Internal {
				logger.Error("rpc failed", "method", info.FullMethod, "error", err)
			} else {
				logger.Debug("rpc rejected", "method", info.FullMethod, "error", err)
			}
			return nil, apperrors.ToGRPCStatus(err)
		}
		return resp, nil
	}
}

func (s *Server) GetGameParameters(ctx context.Context, in *gamedto.ResolveInput) (*gamedto.ParametersOutput, error) {
	out, err := s.gameplay.GetGameParameters(ctx, *in)
	return &out, err
}

func (s *Server) SubmitSessionResult(ctx context.Context, in *gamedto.SubmitSessionInput) (*gamedto.SubmitSessionOutput, error) {
	out, err := s.gameplay.SubmitSessionResult(ctx, *in)
	return &out, err
}

func (s *Server) SetDebugMode(ctx context.Context, in *gamedto.DebugInput) (*gamedto.DebugOutput, error) {
	out, err := s.gameplay.SetDebugMode(ctx, *in)
	return &out, err
}

func (s *Server) CreateExperiment(ctx context.Context, in *expdto.CreateExperimentInput) (*expdto.ExperimentOutput, error) {
	out, err := s.experiments.CreateExperiment(ctx, *in)
	return &out, err
}

func (s *Server) StopExperiment(ctx context.Context, in *StopExperimentRequest) (*expdto.ResultOutput, error) {
	out, err := s.experiments.StopExperiment(ctx, in.ExperimentID, in.Reason)
	return &out, err
}

func (s *Server) GetDashboard(ctx context.Context, in *DashboardRequest) (*expdto.DashboardOutput, error) {
	out, err := s.experiments.Dashboard(ctx, in.ExperimentID)
	return &out, err
}

func (s *Server) ListExperiments(ctx context.Context, _ *Empty) (*ListExperimentsResponse, error) {
	list, err := s.experiments.List(ctx)
	return &ListExperimentsResponse{Experiments: list}, err
}
