package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a complete, plain-data copy of a record. Every schema field is present;
// absent values are explicit nils and temporal values are UTC RFC3339Nano strings.
type Snapshot map[string]any

// Document is the value shape handed to the document store. Temporal fields hold time.Time.
type Document map[string]any

// Record is implemented by every domain model that can be captured.
type Record interface {
	SnapshotCollection() Collection
}

// Codec converts between live records, snapshots and storage documents.
type Codec struct {
	Now func() time.Time
}

// DefaultCodec stamps mandatory temporal fields with the wall clock.
var DefaultCodec = Codec{Now: time.Now}

// Capture converts a typed record into its canonical snapshot.
func (c Codec) Capture(record Record) (Snapshot, error) {
	if record == nil {
		return nil, NewError(ErrValidation, "capture", fmt.Errorf("record is nil"))
	}
	schema, ok := SchemaFor(record.SnapshotCollection())
	if !ok {
		return nil, NewError(ErrValidation, "capture", fmt.Errorf("no schema for collection %q", record.SnapshotCollection()))
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return nil, NewError(ErrValidation, "capture", err)
	}
	values, err := decodeObject(raw)
	if err != nil {
		return nil, NewError(ErrValidation, "capture", err)
	}

	return c.normalize(schema, values)
}

// CaptureDocument normalizes a document read back from the store.
func (c Codec) CaptureDocument(schema Schema, doc Document) (Snapshot, error) {
	if doc == nil {
		return nil, nil
	}
	return c.normalize(schema, map[string]any(doc))
}

// Restore converts a snapshot into the value the document store writes.
func (c Codec) Restore(schema Schema, snapshot Snapshot) (Document, error) {
	if len(snapshot) == 0 {
		return nil, NewError(ErrValidation, "restore", fmt.Errorf("empty snapshot for %s", schema.Collection))
	}

	doc := make(Document, len(schema.Fields))
	for _, field := range schema.Fields {
		value := snapshot[field.Name]
		if !field.Temporal {
			doc[field.Name] = value
			continue
		}

		ts, present, err := parseTemporal(value)
		if err != nil {
			return nil, NewError(ErrValidation, "restore", fmt.Errorf("%s.%s: %w", schema.Collection, field.Name, err))
		}
		switch {
		case present:
			doc[field.Name] = ts
		case field.Required:
			doc[field.Name] = c.now()
		default:
			doc[field.Name] = nil
		}
	}

	return doc, nil
}

// DecodeInto fills a typed record from a stored document.
func DecodeInto(doc Document, target any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return NewError(ErrValidation, "decode document", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return NewError(ErrValidation, "decode document", err)
	}
	return nil
}

// Equal reports whether two snapshots hold the same plain data.
func (s Snapshot) Equal(other Snapshot) bool {
	left, err := json.Marshal(s)
	if err != nil {
		return false
	}
	right, err := json.Marshal(other)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// ID returns the string form of the snapshot's id field, if any.
func (s Snapshot) ID() string {
	if s == nil {
		return ""
	}
	switch v := s["id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (c Codec) normalize(schema Schema, values map[string]any) (Snapshot, error) {
	snapshot := make(Snapshot, len(schema.Fields))
	for _, field := range schema.Fields {
		value, ok := values[field.Name]
		if !ok || value == nil {
			snapshot[field.Name] = nil
			continue
		}
		if !field.Temporal {
			plainValue, err := toPlain(value)
			if err != nil {
				return nil, NewError(ErrValidation, "capture", fmt.Errorf("%s.%s: %w", schema.Collection, field.Name, err))
			}
			snapshot[field.Name] = plainValue
			continue
		}

		ts, present, err := parseTemporal(value)
		if err != nil {
			return nil, NewError(ErrValidation, "capture", fmt.Errorf("%s.%s: %w", schema.Collection, field.Name, err))
		}
		if !present {
			snapshot[field.Name] = nil
			continue
		}
		snapshot[field.Name] = ts.Format(time.RFC3339Nano)
	}
	return snapshot, nil
}

func (c Codec) now() time.Time {
	if c.Now == nil {
		return time.Now().UTC()
	}
	return c.Now().UTC()
}

// parseTemporal accepts the canonical string form or a time.Time. The zero time counts as absent.
func parseTemporal(value any) (time.Time, bool, error) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case *time.Time:
		if v == nil || v.IsZero() {
			return time.Time{}, false, nil
		}
		return v.UTC(), true, nil
	case string:
		if v == "" {
			return time.Time{}, false, nil
		}
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("invalid timestamp %q: %w", v, err)
		}
		if ts.IsZero() {
			return time.Time{}, false, nil
		}
		return ts.UTC(), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("unsupported temporal value of type %T", value)
	}
}

// toPlain round-trips a value through JSON so only maps, slices, strings, bools and numbers remain.
func toPlain(value any) (any, error) {
	switch value.(type) {
	case string, bool, json.Number:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return decodeValue(raw)
}

func decodeValue(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out map[string]any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// ParseDocument decodes stored document bytes, keeping numbers exact.
func ParseDocument(raw []byte) (Document, error) {
	values, err := decodeObject(raw)
	if err != nil {
		return nil, NewError(ErrValidation, "parse document", err)
	}
	return Document(values), nil
}
