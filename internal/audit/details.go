package audit

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed details.schema.json
var detailsSchemaSource []byte

const detailsSchemaURL = "https://jadwal.local/schemas/action-log-details.json"

var (
	detailsSchemaOnce sync.Once
	detailsSchema     *jsonschema.Schema
	detailsSchemaErr  error
)

// Details is the persisted payload of a log entry.
type Details struct {
	Before          json.RawMessage `json:"before"`
	After           json.RawMessage `json:"after"`
	Meta            map[string]any  `json:"meta,omitempty"`
	OriginalLogID   string          `json:"originalLogId,omitempty"`
	OriginalAction  Kind            `json:"originalAction,omitempty"`
	ReappliedLogID  string          `json:"reappliedLogId,omitempty"`
	RestoredDocID   string          `json:"restoredDocId,omitempty"`
	RestoredDocIDs  []string        `json:"restoredDocIds,omitempty"`
	AttemptedAction Kind            `json:"attemptedAction,omitempty"`
	Reason          string          `json:"reason,omitempty"`
}

// SingleChange builds details for an action touching one record. A nil snapshot means the record is absent.
func SingleChange(before, after Snapshot, meta map[string]any) (Details, error) {
	beforeRaw, err := encodeState(before)
	if err != nil {
		return Details{}, err
	}
	afterRaw, err := encodeState(after)
	if err != nil {
		return Details{}, err
	}
	return Details{Before: beforeRaw, After: afterRaw, Meta: meta}, nil
}

// BatchChange builds details for an action keyed by record id. Nil map values mean the record is absent.
func BatchChange(before, after map[string]Snapshot, meta map[string]any) (Details, error) {
	beforeRaw, err := encodeBatch(before)
	if err != nil {
		return Details{}, err
	}
	afterRaw, err := encodeBatch(after)
	if err != nil {
		return Details{}, err
	}
	return Details{Before: beforeRaw, After: afterRaw, Meta: meta}, nil
}

// SingleStates decodes the before/after snapshots of a non-batch entry.
func (d Details) SingleStates() (Snapshot, Snapshot, error) {
	before, err := decodeState(d.Before)
	if err != nil {
		return nil, nil, NewError(ErrAmbiguousState, "decode before", err)
	}
	after, err := decodeState(d.After)
	if err != nil {
		return nil, nil, NewError(ErrAmbiguousState, "decode after", err)
	}
	return before, after, nil
}

// BatchStates decodes the per-record before/after maps of a batch entry.
func (d Details) BatchStates() (map[string]Snapshot, map[string]Snapshot, error) {
	before, err := decodeBatch(d.Before)
	if err != nil {
		return nil, nil, NewError(ErrAmbiguousState, "decode before", err)
	}
	after, err := decodeBatch(d.After)
	if err != nil {
		return nil, nil, NewError(ErrAmbiguousState, "decode after", err)
	}
	return before, after, nil
}

// Encode serializes the details and checks them against the persisted envelope schema.
func (d Details) Encode() ([]byte, error) {
	if len(d.Before) == 0 {
		d.Before = json.RawMessage("null")
	}
	if len(d.After) == 0 {
		d.After = json.RawMessage("null")
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, NewError(ErrValidation, "encode details", err)
	}
	if err := ValidateDetails(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// DecodeDetails parses persisted details.
func DecodeDetails(raw []byte) (Details, error) {
	var d Details
	if len(bytes.TrimSpace(raw)) == 0 {
		return d, nil
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&d); err != nil {
		return Details{}, NewError(ErrValidation, "decode details", err)
	}
	return d, nil
}

// ValidateDetails checks raw details against the embedded JSON schema.
func ValidateDetails(raw []byte) error {
	detailsSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(detailsSchemaURL, bytes.NewReader(detailsSchemaSource)); err != nil {
			detailsSchemaErr = err
			return
		}
		detailsSchema, detailsSchemaErr = compiler.Compile(detailsSchemaURL)
	})
	if detailsSchemaErr != nil {
		return NewError(ErrValidation, "compile details schema", detailsSchemaErr)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return NewError(ErrValidation, "validate details", err)
	}
	if err := detailsSchema.Validate(payload); err != nil {
		return NewError(ErrValidation, "validate details", err)
	}
	return nil
}

// BatchKeys returns the union of record keys in both maps, sorted.
func BatchKeys(before, after map[string]Snapshot) []string {
	seen := make(map[string]struct{}, len(before)+len(after))
	for key := range before {
		seen[key] = struct{}{}
	}
	for key := range after {
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func encodeState(snapshot Snapshot) (json.RawMessage, error) {
	if len(snapshot) == 0 {
		return json.RawMessage("null"), nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, NewError(ErrValidation, "encode snapshot", err)
	}
	return raw, nil
}

func encodeBatch(states map[string]Snapshot) (json.RawMessage, error) {
	if states == nil {
		return json.RawMessage("null"), nil
	}
	out := make(map[string]json.RawMessage, len(states))
	for key, snapshot := range states {
		raw, err := encodeState(snapshot)
		if err != nil {
			return nil, err
		}
		out[key] = raw
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, NewError(ErrValidation, "encode batch", err)
	}
	return raw, nil
}

func decodeState(raw json.RawMessage) (Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	values, err := decodeObject(trimmed)
	if err != nil {
		return nil, fmt.Errorf("snapshot is not an object: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	return Snapshot(values), nil
}

func decodeBatch(raw json.RawMessage) (map[string]Snapshot, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]Snapshot{}, nil
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return nil, fmt.Errorf("batch state is not an object: %w", err)
	}
	out := make(map[string]Snapshot, len(keyed))
	for key, value := range keyed {
		snapshot, err := decodeState(value)
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}
		out[key] = snapshot
	}
	return out, nil
}
