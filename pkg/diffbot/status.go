package diffbot

import "fmt"

// JobStatusCode is the numeric jobStatus.status reported for bulk and crawl
// jobs. Only StatusCompleted allows results to be read.
type JobStatusCode int

const (
	StatusInitializing      JobStatusCode = 0
	StatusMaxRoundsReached  JobStatusCode = 1
	StatusMaxToCrawlReached JobStatusCode = 2
	StatusMaxToProcess      JobStatusCode = 3
	StatusNextRoundPending  JobStatusCode = 4
	StatusNoURLsAdded       JobStatusCode = 5
	StatusPaused            JobStatusCode = 6
	StatusInProgress        JobStatusCode = 7
	StatusMaintenancePause  JobStatusCode = 8
	StatusCompleted         JobStatusCode = 9 // completed, no repeat scheduled
	StatusSeedsFailed       JobStatusCode = 10
)

// String returns a readable name for the code.
func (c JobStatusCode) String() string {
	switch c {
	case StatusInitializing:
		return "initializing"
	case StatusMaxRoundsReached:
		return "max rounds reached"
	case StatusMaxToCrawlReached:
		return "max to crawl reached"
	case StatusMaxToProcess:
		return "max to process reached"
	case StatusNextRoundPending:
		return "next round pending"
	case StatusNoURLsAdded:
		return "no urls added"
	case StatusPaused:
		return "paused"
	case StatusInProgress:
		return "in progress"
	case StatusMaintenancePause:
		return "paused for maintenance"
	case StatusCompleted:
		return "completed"
	case StatusSeedsFailed:
		return "seeds failed"
	default:
		return fmt.Sprintf("status(%d)", int(c))
	}
}

// JobStatus is the jobStatus object of a job listing entry.
type JobStatus struct {
	Status  JobStatusCode `json:"status"`
	Message string        `json:"message"`
}

// Completed reports whether results may be read.
func (s JobStatus) Completed() bool { return s.Status == StatusCompleted }
