package audit

import (
	"fmt"
	"sort"
)

// SettingsRecordID is the document id of a class's settings record.
const SettingsRecordID = "default"

// RecordIDExtractor derives the affected record id from a before/after pair.
type RecordIDExtractor func(before, after Snapshot) (string, error)

// Entry is the static registry description of one action kind.
type Entry struct {
	Kind       Kind
	Collection Collection
	Shape      Shape
	Reversible bool
	RecordID   RecordIDExtractor
}

// Schema returns the snapshot schema of the entry's collection.
func (e Entry) Schema() (Schema, bool) {
	return SchemaFor(e.Collection)
}

func entry(kind Kind, collection Collection, shape Shape) Entry {
	reversible := true
	switch shape {
	case ShapeNonReversiblePropagation, ShapeReapply, ShapeRollbackFailure:
		reversible = false
	}
	return Entry{Kind: kind, Collection: collection, Shape: shape, Reversible: reversible, RecordID: idField}
}

func withFixedID(e Entry, id string) Entry {
	e.RecordID = func(before, after Snapshot) (string, error) {
		if before.ID() != "" && before.ID() != id {
			return "", NewError(ErrAmbiguousState, "extract record id", fmt.Errorf("%s snapshot id %q, want %q", e.Kind, before.ID(), id))
		}
		return id, nil
	}
	return e
}

var registry = func() map[Kind]Entry {
	entries := []Entry{
		entry(KindSubjectCreate, CollectionSubjects, ShapeCreate),
		entry(KindSubjectUpdate, CollectionSubjects, ShapeUpdate),
		entry(KindSubjectDelete, CollectionSubjects, ShapeDelete),

		entry(KindEventCreate, CollectionEvents, ShapeCreate),
		entry(KindEventUpdate, CollectionEvents, ShapeUpdate),
		entry(KindEventDelete, CollectionEvents, ShapeDelete),

		entry(KindFixedSlotsBatchUpdate, CollectionFixedSlots, ShapeBatchUpdate),

		entry(KindDailyAnnouncementUpsert, CollectionDailyAnnouncements, ShapeUpdate),
		entry(KindDailyAnnouncementsBatchUpsert, CollectionDailyAnnouncements, ShapeBatchUpsert),

		entry(KindGeneralAnnouncementCreate, CollectionGeneralAnnouncements, ShapeCreate),
		entry(KindGeneralAnnouncementUpdate, CollectionGeneralAnnouncements, ShapeUpdate),
		entry(KindGeneralAnnouncementDelete, CollectionGeneralAnnouncements, ShapeDelete),

		entry(KindAssignmentCreate, CollectionAssignments, ShapeCreate),
		entry(KindAssignmentUpdate, CollectionAssignments, ShapeUpdate),
		entry(KindAssignmentDelete, CollectionAssignments, ShapeDelete),

		entry(KindInquiryCreate, CollectionInquiries, ShapeCreate),
		entry(KindInquiryUpdate, CollectionInquiries, ShapeUpdate),
		entry(KindInquiryDelete, CollectionInquiries, ShapeDelete),

		entry(KindInquiryMessageCreate, CollectionInquiryMessages, ShapeCreate),
		entry(KindInquiryMessageDelete, CollectionInquiryMessages, ShapeDelete),

		withFixedID(entry(KindSettingsUpdate, CollectionSettings, ShapeUpdate), SettingsRecordID),

		entry(KindScheduleApplyFuture, CollectionDailyAnnouncements, ShapeNonReversiblePropagation),
		entry(KindAnnouncementsResetFuture, CollectionDailyAnnouncements, ShapeNonReversiblePropagation),

		entry(KindRollback, CollectionActionLogs, ShapeRollback),
		entry(KindRollbackReapply, CollectionActionLogs, ShapeReapply),
		entry(KindRollbackActionFailed, CollectionActionLogs, ShapeRollbackFailure),
	}

	out := make(map[Kind]Entry, len(entries))
	for _, e := range entries {
		out[e.Kind] = e
	}
	return out
}()

// Lookup returns the registry entry for kind.
func Lookup(kind Kind) (Entry, error) {
	e, ok := registry[kind]
	if !ok {
		return Entry{}, NewError(ErrNotFound, "lookup action kind", fmt.Errorf("unknown action kind %q", kind))
	}
	return e, nil
}

// ResolveCollection returns the collection an action kind targets.
func ResolveCollection(kind Kind) (Collection, error) {
	e, err := Lookup(kind)
	if err != nil {
		return "", err
	}
	return e.Collection, nil
}

// IsReversible reports whether entries of this kind may be rolled back. Unknown kinds are not.
func IsReversible(kind Kind) bool {
	e, ok := registry[kind]
	return ok && e.Reversible
}

// Kinds lists every registered kind in lexical order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for kind := range registry {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ExtractRecordID derives the single affected record id of a non-batch action.
func ExtractRecordID(kind Kind, before, after Snapshot) (string, error) {
	e, err := Lookup(kind)
	if err != nil {
		return "", err
	}
	if e.Shape.IsBatch() {
		return "", NewError(ErrAmbiguousState, "extract record id", fmt.Errorf("%s is a batch action", kind))
	}
	return e.RecordID(before, after)
}

// ExtractRecordIDs derives every record id touched by a batch action, sorted.
func ExtractRecordIDs(kind Kind, before, after map[string]Snapshot) ([]string, error) {
	e, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	if !e.Shape.IsBatch() {
		return nil, NewError(ErrAmbiguousState, "extract record ids", fmt.Errorf("%s is not a batch action", kind))
	}

	seen := make(map[string]struct{}, len(before)+len(after))
	for _, states := range []map[string]Snapshot{before, after} {
		for key, snapshot := range states {
			if key == "" {
				return nil, NewError(ErrAmbiguousState, "extract record ids", fmt.Errorf("%s contains an empty record key", kind))
			}
			if id := snapshot.ID(); id != "" && id != key {
				return nil, NewError(ErrAmbiguousState, "extract record ids", fmt.Errorf("%s key %q holds snapshot of %q", kind, key, id))
			}
			seen[key] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, NewError(ErrAmbiguousState, "extract record ids", fmt.Errorf("%s has no recorded states", kind))
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func idField(before, after Snapshot) (string, error) {
	beforeID, afterID := before.ID(), after.ID()
	switch {
	case beforeID == "" && afterID == "":
		return "", NewError(ErrAmbiguousState, "extract record id", fmt.Errorf("neither snapshot carries an id"))
	case beforeID != "" && afterID != "" && beforeID != afterID:
		return "", NewError(ErrAmbiguousState, "extract record id", fmt.Errorf("before id %q differs from after id %q", beforeID, afterID))
	case beforeID != "":
		return beforeID, nil
	default:
		return afterID, nil
	}
}
