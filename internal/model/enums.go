package model

type BlastStatus string

const (
	BlastStatusDraft     BlastStatus = "draft"
	BlastStatusScheduled BlastStatus = "scheduled"
	BlastStatusPaused    BlastStatus = "paused"
)

func (s BlastStatus) Valid() bool {
	switch s {
	case BlastStatusDraft, BlastStatusScheduled, BlastStatusPaused:
		return true
	}
	return false
}

func ValidBlastStatuses() []string {
	return []string{
		string(BlastStatusDraft),
		string(BlastStatusScheduled),
		string(BlastStatusPaused),
	}
}
