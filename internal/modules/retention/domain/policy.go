package domain

import "time"

const (
	DefaultRetention = 30 * 24 * time.Hour
	DefaultInterval  = 24 * time.Hour
)

// Policy decides how long history is kept and how often it is swept.
type Policy struct {
	Retention time.Duration
	Interval  time.Duration
}

func (p Policy) WithDefaults() Policy {
	if p.Retention <= 0 {
		p.Retention = DefaultRetention
	}
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	return p
}

// Cutoff is the oldest instant still retained at now.
func (p Policy) Cutoff(now time.Time) time.Time {
	return now.Add(-p.WithDefaults().Retention)
}
