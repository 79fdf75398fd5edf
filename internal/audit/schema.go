package audit

// Collection names a logical table inside the shared document store.
type Collection string

const (
	CollectionSubjects             Collection = "subjects"
	CollectionEvents               Collection = "events"
	CollectionFixedSlots           Collection = "fixed_timetable"
	CollectionDailyAnnouncements   Collection = "daily_announcements"
	CollectionGeneralAnnouncements Collection = "general_announcements"
	CollectionAssignments          Collection = "assignments"
	CollectionInquiries            Collection = "inquiries"
	CollectionInquiryMessages      Collection = "inquiry_messages"
	CollectionSettings             Collection = "settings"
	CollectionActionLogs           Collection = "action_logs"
)

// Field declares one snapshot attribute.
type Field struct {
	Name string
	// Temporal fields are stored as time.Time and captured as UTC RFC3339Nano strings.
	Temporal bool
	// Required temporal fields default to the current time on restore when absent.
	Required bool
}

// Schema lists every attribute a collection's snapshots carry.
type Schema struct {
	Collection Collection
	Fields     []Field
}

func plain(names ...string) []Field {
	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fields = append(fields, Field{Name: name})
	}
	return fields
}

func temporal(name string, required bool) Field {
	return Field{Name: name, Temporal: true, Required: required}
}

var schemas = map[Collection]Schema{
	CollectionSubjects: {
		Collection: CollectionSubjects,
		Fields: append(plain("id", "name", "teacherName", "room", "color"),
			temporal("updatedAt", true)),
	},
	CollectionEvents: {
		Collection: CollectionEvents,
		Fields: append(plain("id", "title", "description", "location", "allDay"),
			temporal("startsAt", true), temporal("endsAt", false), temporal("updatedAt", true)),
	},
	CollectionFixedSlots: {
		Collection: CollectionFixedSlots,
		Fields: append(plain("id", "dayOfWeek", "period", "subjectId", "note"),
			temporal("updatedAt", true)),
	},
	CollectionDailyAnnouncements: {
		Collection: CollectionDailyAnnouncements,
		Fields: append(plain("id", "date", "periods", "message", "isCustomized"),
			temporal("updatedAt", true)),
	},
	CollectionGeneralAnnouncements: {
		Collection: CollectionGeneralAnnouncements,
		Fields: append(plain("id", "title", "body", "isPinned"),
			temporal("publishedAt", true), temporal("expiresAt", false), temporal("updatedAt", true)),
	},
	CollectionAssignments: {
		Collection: CollectionAssignments,
		Fields: append(plain("id", "title", "subjectId", "description", "status"),
			temporal("dueAt", true), temporal("updatedAt", true)),
	},
	CollectionInquiries: {
		Collection: CollectionInquiries,
		Fields: append(plain("id", "title", "body", "category", "status", "authorId"),
			temporal("createdAt", true), temporal("updatedAt", true)),
	},
	CollectionInquiryMessages: {
		Collection: CollectionInquiryMessages,
		Fields: append(plain("id", "inquiryId", "authorId", "body"),
			temporal("createdAt", true)),
	},
	CollectionSettings: {
		Collection: CollectionSettings,
		Fields: append(plain("className", "numberOfPeriods", "periodTimes", "schoolDays", "timezone"),
			temporal("updatedAt", true)),
	},
}

// SchemaFor returns the snapshot schema of a collection.
func SchemaFor(collection Collection) (Schema, bool) {
	schema, ok := schemas[collection]
	return schema, ok
}
