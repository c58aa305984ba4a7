package dto

import "time"

type SweepReport struct {
	Cutoff             time.Time `json:"cutoff"`
	StartedAt          time.Time `json:"started_at"`
	Duration           string    `json:"duration"`
	PerformanceRecords int       `json:"performance_records"`
	RecordsDeleted     int       `json:"records_deleted"`
	SessionsRemoved    int       `json:"sessions_removed"`
	AdjustmentsRemoved int       `json:"adjustments_removed"`
	SamplesRemoved     int       `json:"samples_removed"`
	AlertsRemoved      int       `json:"alerts_removed"`
	OverridesPurged    int       `json:"overrides_purged"`
}
