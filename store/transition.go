package store

import (
	"strings"

	"ciudamos/types"
)

// checkTransition validates a status change of a report currently in from.
// An empty to means the status is not being changed.
func checkTransition(from, to types.Status, evidence string) error {
	evidence = strings.TrimSpace(evidence)
	if from == types.StatusDone {
		return ErrReportClosed
	}
	if to == "" {
		if evidence != "" {
			return ErrEvidenceWithoutDone
		}
		return nil
	}
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if to != types.StatusDone && evidence != "" {
		return ErrEvidenceWithoutDone
	}
	if to == types.StatusDone && evidence == "" {
		return ErrEvidenceRequired
	}
	if to.Rank() <= from.Rank() {
		return ErrInvalidTransition
	}
	return nil
}
