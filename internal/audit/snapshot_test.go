package audit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type lessonRecord struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Location  *string    `json:"location"`
	AllDay    bool       `json:"allDay"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Ignored   string     `json:"ignored"`
}

func (lessonRecord) SnapshotCollection() Collection { return CollectionEvents }

func fixedCodec(now time.Time) Codec {
	return Codec{Now: func() time.Time { return now }}
}

func TestCaptureNormalizesToSchema(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	starts := time.Date(2026, 4, 1, 8, 30, 0, 0, jakarta)

	snapshot, err := DefaultCodec.Capture(lessonRecord{
		ID:        "e1",
		Title:     "Field trip",
		StartsAt:  starts,
		UpdatedAt: starts,
		Ignored:   "dropped",
	})
	require.NoError(t, err)

	require.Equal(t, "e1", snapshot["id"])
	require.Equal(t, "2026-04-01T01:30:00Z", snapshot["startsAt"])
	require.Nil(t, snapshot["endsAt"])
	require.Nil(t, snapshot["location"])
	require.Equal(t, false, snapshot["allDay"])
	require.Contains(t, snapshot, "description")
	require.Nil(t, snapshot["description"])
	require.NotContains(t, snapshot, "ignored")
}

func TestCaptureTreatsZeroTimeAsAbsent(t *testing.T) {
	snapshot, err := DefaultCodec.Capture(lessonRecord{ID: "e1"})
	require.NoError(t, err)
	require.Nil(t, snapshot["startsAt"])
	require.Nil(t, snapshot["updatedAt"])
}

func TestRestoreConvertsTemporalFields(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	schema, _ := SchemaFor(CollectionEvents)

	doc, err := fixedCodec(now).Restore(schema, Snapshot{
		"id":       "e1",
		"title":    "Exam",
		"startsAt": "2026-04-01T01:30:00Z",
		"endsAt":   nil,
	})
	require.NoError(t, err)

	require.Equal(t, time.Date(2026, 4, 1, 1, 30, 0, 0, time.UTC), doc["startsAt"])
	require.Nil(t, doc["endsAt"])
	require.Equal(t, now, doc["updatedAt"], "missing mandatory timestamp defaults to now")
	require.Nil(t, doc["location"])
}

func TestRestoreRejectsUnparsableTimestamp(t *testing.T) {
	schema, _ := SchemaFor(CollectionEvents)
	_, err := DefaultCodec.Restore(schema, Snapshot{"id": "e1", "startsAt": "next tuesday"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRestoreRejectsEmptySnapshot(t *testing.T) {
	schema, _ := SchemaFor(CollectionSubjects)
	_, err := DefaultCodec.Restore(schema, Snapshot{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCaptureRestoreRoundTripKeepsValues(t *testing.T) {
	schema, _ := SchemaFor(CollectionSettings)
	original := Snapshot{
		"className":       "7B",
		"numberOfPeriods": json.Number("7"),
		"periodTimes":     []any{"08:00", "08:50"},
		"schoolDays":      []any{json.Number("1"), json.Number("2")},
		"timezone":        "Asia/Jakarta",
		"updatedAt":       "2026-04-01T01:30:00.123456789Z",
	}

	doc, err := DefaultCodec.Restore(schema, original)
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	stored, err := ParseDocument(raw)
	require.NoError(t, err)

	recaptured, err := DefaultCodec.CaptureDocument(schema, stored)
	require.NoError(t, err)
	require.True(t, original.Equal(recaptured), "got %v", recaptured)
}

func TestDecodeInto(t *testing.T) {
	var record lessonRecord
	err := DecodeInto(Document{"id": "e1", "title": "Exam", "startsAt": time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}, &record)
	require.NoError(t, err)
	require.Equal(t, "Exam", record.Title)
	require.Equal(t, 2026, record.StartsAt.Year())
}
