package in

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	expdto "gametune/internal/modules/experiment/dto"
	expin "gametune/internal/modules/experiment/port/in"
)

type CLIHandler struct {
	usecase expin.Usecase
}

func NewCLIHandler(usecase expin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// CreateFromFile reads a YAML experiment definition and creates it.
func (h CLIHandler) CreateFromFile(ctx context.Context, path string) (expdto.ExperimentOutput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return expdto.ExperimentOutput{}, fmt.Errorf("read experiment file: %w", err)
	}
	input, err := ParseDefinition(raw)
	if err != nil {
		return expdto.ExperimentOutput{}, err
	}
	return h.usecase.CreateExperiment(ctx, input)
}

func ParseDefinition(raw []byte) (expdto.CreateExperimentInput, error) {
	input := expdto.CreateExperimentInput{}
	if err := yaml.Unmarshal(raw, &input); err != nil {
		return expdto.CreateExperimentInput{}, fmt.Errorf("parse experiment definition: %w", err)
	}
	return input, nil
}

func (h CLIHandler) Create(ctx context.Context, input expdto.CreateExperimentInput) (expdto.ExperimentOutput, error) {
	return h.usecase.CreateExperiment(ctx, input)
}

func (h CLIHandler) Stop(ctx context.Context, experimentID, reason string) (expdto.ResultOutput, error) {
	return h.usecase.StopExperiment(ctx, experimentID, reason)
}

func (h CLIHandler) Dashboard(ctx context.Context, experimentID string) (expdto.DashboardOutput, error) {
	return h.usecase.Dashboard(ctx, experimentID)
}

func (h CLIHandler) List(ctx context.Context) ([]expdto.ExperimentOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Analyze(ctx context.Context, experimentID string) ([]expdto.StatisticalResult, error) {
	return h.usecase.Analyze(ctx, experimentID)
}
