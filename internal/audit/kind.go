package audit

import (
	"fmt"
	"strings"
)

// Kind identifies the category of mutation a log entry represents.
type Kind string

const (
	KindSubjectCreate Kind = "subject_create"
	KindSubjectUpdate Kind = "subject_update"
	KindSubjectDelete Kind = "subject_delete"

	KindEventCreate Kind = "event_create"
	KindEventUpdate Kind = "event_update"
	KindEventDelete Kind = "event_delete"

	KindFixedSlotsBatchUpdate Kind = "fixed_slots_batch_update"

	KindDailyAnnouncementUpsert       Kind = "daily_announcement_upsert"
	KindDailyAnnouncementsBatchUpsert Kind = "daily_announcements_batch_upsert"

	KindGeneralAnnouncementCreate Kind = "general_announcement_create"
	KindGeneralAnnouncementUpdate Kind = "general_announcement_update"
	KindGeneralAnnouncementDelete Kind = "general_announcement_delete"

	KindAssignmentCreate Kind = "assignment_create"
	KindAssignmentUpdate Kind = "assignment_update"
	KindAssignmentDelete Kind = "assignment_delete"

	KindInquiryCreate Kind = "inquiry_create"
	KindInquiryUpdate Kind = "inquiry_update"
	KindInquiryDelete Kind = "inquiry_delete"

	KindInquiryMessageCreate Kind = "inquiry_message_create"
	KindInquiryMessageDelete Kind = "inquiry_message_delete"

	KindSettingsUpdate Kind = "settings_update"

	KindScheduleApplyFuture      Kind = "schedule_apply_future"
	KindAnnouncementsResetFuture Kind = "announcements_reset_future"

	KindRollback             Kind = "rollback"
	KindRollbackReapply      Kind = "rollback_reapply"
	KindRollbackActionFailed Kind = "rollback_action_failed"
)

// Shape describes how an action kind touches its collection, and therefore how it is reversed.
type Shape int

const (
	ShapeCreate Shape = iota + 1
	ShapeUpdate
	ShapeDelete
	ShapeBatchUpdate
	ShapeBatchUpsert
	ShapeNonReversiblePropagation
	ShapeRollback
	ShapeReapply
	ShapeRollbackFailure
)

var shapeNames = map[Shape]string{
	ShapeCreate:                   "create",
	ShapeUpdate:                   "update",
	ShapeDelete:                   "delete",
	ShapeBatchUpdate:              "batch_update",
	ShapeBatchUpsert:              "batch_upsert",
	ShapeNonReversiblePropagation: "non_reversible_propagation",
	ShapeRollback:                 "rollback",
	ShapeReapply:                  "rollback_reapply",
	ShapeRollbackFailure:          "rollback_failure",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// IsBatch reports whether before/after payloads are keyed by record identifier.
func (s Shape) IsBatch() bool {
	return s == ShapeBatchUpdate || s == ShapeBatchUpsert
}

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether the kind belongs to the closed set known to the registry.
func (k Kind) Valid() bool {
	_, ok := registry[k]
	return ok
}

// ParseKind converts user supplied input into a known kind.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", NewError(ErrValidation, "parse kind", fmt.Errorf("unknown action kind %q", raw))
	}
	return kind, nil
}
