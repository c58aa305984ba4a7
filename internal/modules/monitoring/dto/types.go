package dto

import expdto "gametune/internal/modules/experiment/dto"

type CheckOutput struct {
	ExperimentID string         `json:"experiment_id"`
	Alerts       []expdto.Alert `json:"alerts"`
	Stopped      bool           `json:"stopped"`
	Reason       string         `json:"reason,omitempty"`
}
