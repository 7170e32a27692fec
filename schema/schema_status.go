package schema

import "time"

// GraphStatus represents the status of the graph store.
type GraphStatus struct {
	Backend     string           `json:"backend"`
	Connected   bool             `json:"connected"`
	Vertices    int64            `json:"vertices"`
	Edges       int64            `json:"edges"`
	LabelCounts map[string]int64 `json:"label_counts"`
}

// TrackingStatus represents the status of the tracking store.
type TrackingStatus struct {
	Backend     string    `json:"backend"`
	Connected   bool      `json:"connected"`
	Experiments int       `json:"experiments"`
	Runs        int       `json:"runs"`
	LastRunTime time.Time `json:"last_run_time"`
}
