package types

import (
	"fmt"
	"time"
)

// EnvironmentID identifies a job-execution source
type EnvironmentID string

const (
	EnvSPA   EnvironmentID = "SPA"
	EnvUPCTM EnvironmentID = "UPCTM"
)

// DefaultLicenseLimit is the combined job ceiling used when none is configured
const DefaultLicenseLimit int64 = 48500

// JobCount is a fetched job count. A count that is not Present is absent,
// which is different from a present zero.
type JobCount struct {
	Count   int64 `json:"count"`
	Present bool  `json:"present"`
}

func NewJobCount(n int64) JobCount {
	return JobCount{Count: n, Present: true}
}

func AbsentJobCount() JobCount {
	return JobCount{}
}

func (c JobCount) String() string {
	if !c.Present {
		return "absent"
	}
	return fmt.Sprintf("%d", c.Count)
}

// Record is a persisted total
type Record struct {
	ID      string    `json:"id"`
	Total   int64     `json:"total"`
	SavedAt time.Time `json:"saved_at"`
}
