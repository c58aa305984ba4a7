// Package rpc exposes the engine over gRPC with a JSON codec and a
// hand-written service descriptor.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	expdto "gametune/internal/modules/experiment/dto"
	gamedto "gametune/internal/modules/gameplay/dto"
)

const (
	ServiceName   = "gametune.engine.v1.Engine"
	jsonCodecName = "json"

	methodGetGameParameters   = "GetGameParameters"
	methodSubmitSessionResult = "SubmitSessionResult"
	methodSetDebugMode        = "SetDebugMode"
	methodCreateExperiment    = "CreateExperiment"
	methodStopExperiment      = "StopExperiment"
	methodGetDashboard        = "GetDashboard"
	methodListExperiments     = "ListExperiments"
)

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

type Empty struct{}

type StopExperimentRequest struct {
	ExperimentID string `json:"experiment_id"`
	Reason       string `json:"reason"`
}

type DashboardRequest struct {
	ExperimentID string `json:"experiment_id"`
}

type ListExperimentsResponse struct {
	Experiments []expdto.ExperimentOutput `json:"experiments"`
}

type EngineServer interface {
	GetGameParameters(ctx context.Context, in *gamedto.ResolveInput) (*gamedto.ParametersOutput, error)
	SubmitSessionResult(ctx context.Context, in *gamedto.SubmitSessionInput) (*gamedto.SubmitSessionOutput, error)
	SetDebugMode(ctx context.Context, in *gamedto.DebugInput) (*gamedto.DebugOutput, error)
	CreateExperiment(ctx context.Context, in *expdto.CreateExperimentInput) (*expdto.ExperimentOutput, error)
	StopExperiment(ctx context.Context, in *StopExperimentRequest) (*expdto.ResultOutput, error)
	GetDashboard(ctx context.Context, in *DashboardRequest) (*expdto.DashboardOutput, error)
	ListExperiments(ctx context.Context, in *Empty) (*ListExperimentsResponse, error)
}

func RegisterEngineServer(server grpc.ServiceRegistrar, impl EngineServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*EngineServer)(nil),
		Methods: []grpc.MethodDesc{
			unary(methodGetGameParameters, impl.GetGameParameters),
			unary(methodSubmitSessionResult, impl.SubmitSessionResult),
			unary(methodSetDebugMode, impl.SetDebugMode),
			unary(methodCreateExperiment, impl.CreateExperiment),
			unary(methodStopExperiment, impl.StopExperiment),
			unary(methodGetDashboard, impl.GetDashboard),
			unary(methodListExperiments, impl.ListExperiments),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "gametune/engine/v1/engine.json",
	}, impl)
}

func unary[Req, Resp any](name string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("invalid request type %T", req)
				}
				return call(ctx, typed)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
