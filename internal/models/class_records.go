package models

import (
	"time"

	"github.com/noah-isme/jadwal-api/internal/audit"
)

// Subject is a taught subject of a class.
type Subject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name" validate:"required,max=120"`
	TeacherName string    `json:"teacherName" validate:"max=120"`
	Room        *string   `json:"room"`
	Color       *string   `json:"color"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Subject) SnapshotCollection() audit.Collection { return audit.CollectionSubjects }

// Event is a calendar entry.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Description *string    `json:"description"`
	Location    *string    `json:"location"`
	AllDay      bool       `json:"allDay"`
	StartsAt    time.Time  `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Event) SnapshotCollection() audit.Collection { return audit.CollectionEvents }

// FixedSlot is one cell of the weekly base timetable, keyed "<day>-<period>".
type FixedSlot struct {
	ID        string    `json:"id"`
	DayOfWeek int       `json:"dayOfWeek" validate:"min=0,max=6"`
	Period    int       `json:"period" validate:"min=1,max=12"`
	SubjectID *string   `json:"subjectId"`
	Note      *string   `json:"note"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FixedSlot) SnapshotCollection() audit.Collection { return audit.CollectionFixedSlots }

// PeriodEntry is one period of a daily announcement.
type PeriodEntry struct {
	Period    int     `json:"period"`
	SubjectID *string `json:"subjectId"`
	Note      *string `json:"note"`
}

// DailyAnnouncement is the concrete schedule of one date, keyed by the ISO date.
type DailyAnnouncement struct {
	ID           string        `json:"id"`
	Date         string        `json:"date" validate:"required,datetime=2006-01-02"`
	Periods      []PeriodEntry `json:"periods"`
	Message      *string       `json:"message"`
	IsCustomized bool          `json:"isCustomized"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func (DailyAnnouncement) SnapshotCollection() audit.Collection {
	return audit.CollectionDailyAnnouncements
}

// GeneralAnnouncement is a class-wide notice.
type GeneralAnnouncement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required,max=200"`
	Body        string     `json:"body"`
	IsPinned    bool       `json:"isPinned"`
	PublishedAt time.Time  `json:"publishedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (GeneralAnnouncement) SnapshotCollection() audit.Collection {
	return audit.CollectionGeneralAnnouncements
}

// Assignment is homework with a due date.
type Assignment struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" validate:"required,max=200"`
	SubjectID   *string   `json:"subjectId"`
	Description *string   `json:"description"`
	Status      string    `json:"status" validate:"oneof=assigned done archived"`
	DueAt       time.Time `json:"dueAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Assignment) SnapshotCollection() audit.Collection { return audit.CollectionAssignments }

// Inquiry statuses.
const (
	InquiryStatusOpen       = "open"
	InquiryStatusInProgress = "in_progress"
	InquiryStatusResolved   = "resolved"
)

// Inquiry is a question raised to the class administrators.
type Inquiry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" validate:"required,max=200"`
	Body      string    `json:"body" validate:"required"`
	Category  string    `json:"category"`
	Status    string    `json:"status" validate:"oneof=open in_progress resolved"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Inquiry) SnapshotCollection() audit.Collection { return audit.CollectionInquiries }

// InquiryMessage is one reply in an inquiry thread.
type InquiryMessage struct {
	ID        string    `json:"id"`
	InquiryID string    `json:"inquiryId" validate:"required"`
	AuthorID  string    `json:"authorId"`
	Body      string    `json:"body" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

func (InquiryMessage) SnapshotCollection() audit.Collection {
	return audit.CollectionInquiryMessages
}

// ClassSettings holds per-class configuration. A class has exactly one settings record.
type ClassSettings struct {
	ClassName       string    `json:"className"`
	NumberOfPeriods int       `json:"numberOfPeriods" validate:"min=1,max=12"`
	PeriodTimes     []string  `json:"periodTimes"`
	SchoolDays      []int     `json:"schoolDays" validate:"dive,min=0,max=6"`
	Timezone        string    `json:"timezone"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (ClassSettings) SnapshotCollection() audit.Collection { return audit.CollectionSettings }
