package domain

import (
	"errors"
	"time"
)

const MaxReportDescriptionLength = 2000

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonInappropriate ReportReason = "inappropriate"
	ReasonBrokenLink    ReportReason = "broken_link"
	ReasonMalware       ReportReason = "malware"
	ReasonCopyright     ReportReason = "copyright"
	ReasonOther         ReportReason = "other"
)

func (r ReportReason) Valid() bool {
	switch r {
	case ReasonSpam, ReasonInappropriate, ReasonBrokenLink, ReasonMalware, ReasonCopyright, ReasonOther:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportReviewing ReportStatus = "reviewing"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Valid() bool {
	_, ok := reportTransitions[s]
	return ok
}

// Terminal reports whether s closes the ticket.
func (s ReportStatus) Terminal() bool {
	return s == ReportResolved || s == ReportDismissed
}

// reportTransitions lists, for each status, the statuses it may move to.
var reportTransitions = map[ReportStatus][]ReportStatus{
	ReportPending:   {ReportReviewing, ReportResolved, ReportDismissed},
	ReportReviewing: {ReportResolved, ReportDismissed},
	ReportResolved:  {ReportReviewing, ReportPending},
	ReportDismissed: {ReportReviewing, ReportPending},
}

// CanTransition reports whether a report may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to ReportStatus) bool {
	for _, s := range reportTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var ErrInvalidTransition = errors.New("invalid report status transition")

// ContentReport is a moderation ticket raised by a user against content.
type ContentReport struct {
	ID          string       `json:"id"`
	ContentID   string       `json:"content_id"`
	ContentType ContentType  `json:"content_type"`
	ReporterID  string       `json:"reporter_id"`
	Reason      ReportReason `json:"reason"`
	Description *string      `json:"description,omitempty"`
	Status      ReportStatus `json:"status"`
	AdminNotes  *string      `json:"admin_notes,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
	ResolvedBy  *string      `json:"resolved_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// ApplyStatus moves the report to status on behalf of admin, stamping or
// clearing the resolution fields. notes, when non-nil, replaces AdminNotes.
// Re-applying the current status only updates the notes.
func (r *ContentReport) ApplyStatus(status ReportStatus, admin string, notes *string, now time.Time) error {
	if notes != nil {
		r.AdminNotes = notes
	}
	if status == r.Status {
		r.UpdatedAt = now
		return nil
	}
	if !CanTransition(r.Status, status) {
		return ErrInvalidTransition
	}

	r.Status = status
	r.UpdatedAt = now
	if status.Terminal() {
		at := now
		by := admin
		r.ResolvedAt = &at
		r.ResolvedBy = &by
	} else {
		r.ResolvedAt = nil
		r.ResolvedBy = nil
	}
	return nil
}
