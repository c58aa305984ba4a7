package rpc

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	expdto "gametune/internal/modules/experiment/dto"
	gamedto "gametune/internal/modules/gameplay/dto"
	apperrors "gametune/internal/platform/errors"
)

// Client talks to a remote engine. Errors carry the same sentinels as local
// calls.
type Client struct {
	conn *grpc.ClientConn
}

func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func invoke[Resp any](ctx context.Context, c *Client, method string, in any) (Resp, error) {
	var out Resp
	if err := c.conn.Invoke(ctx, fullMethod(method), in, &out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return out, apperrors.FromGRPCStatus(err)
	}
	return out, nil
}

func (c *Client) GetGameParameters(ctx context.Context, in gamedto.ResolveInput) (gamedto.ParametersOutput, error) {
	return invoke[gamedto.ParametersOutput](ctx, c, methodGetGameParameters, &in)
}

func (c *Client) SubmitSessionResult(ctx context.Context, in gamedto.SubmitSessionInput) (gamedto.SubmitSessionOutput, error) {
	return invoke[gamedto.SubmitSessionOutput](ctx, c, methodSubmitSessionResult, &in)
}

func (c *Client) SetDebugMode(ctx context.Context, in gamedto.DebugInput) (gamedto.DebugOutput, error) {
	return invoke[gamedto.DebugOutput](ctx, c, methodSetDebugMode, &in)
}

func (c *Client) CreateExperiment(ctx context.Context, in expdto.CreateExperimentInput) (expdto.ExperimentOutput, error) {
	return invoke[expdto.ExperimentOutput](ctx, c, methodCreateExperiment, &in)
}

func (c *Client) StopExperiment(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error) {
	return invoke[expdto.ResultOutput](ctx, c, methodStopExperiment, &StopExperimentRequest{ExperimentID: experimentID, Reason: reason})
}

func (c *Client) Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error) {
	return invoke[expdto.DashboardOutput](ctx, c, methodGetDashboard, &DashboardRequest{ExperimentID: experimentID})
}

func (c *Client) List(ctx context.Context) ([]expdto.ExperimentOutput, error) {
	out, err := invoke[ListExperimentsResponse](ctx, c, methodListExperiments, &Empty{})
	return out.Experiments, err
}
