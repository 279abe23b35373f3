package store

import (
	"encoding/json"
	"fmt"

	"github.com/econcal/econcal/pkg/events"
)

// Document is the wire shape of a canonical event: a flat field map holding
// only present fields. Optional fields that are nil on the record never
// appear as keys, which is what makes shallow-merge upserts safe: an absent
// field can never overwrite a stored value.
type Document map[string]any

// EncodeDocument converts a canonical event into its write payload,
// stripping absent fields.
func EncodeDocument(ev *events.CanonicalEvent) (Document, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode document %s: %w", ev.ID, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document %s: %w", ev.ID, err)
	}
	return doc, nil
}

// DecodeDocument converts a stored field map back into a canonical event.
func DecodeDocument(doc Document) (*events.CanonicalEvent, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	var ev events.CanonicalEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &ev, nil
}

// MergeDocument shallow-merges an incoming payload into an existing
// document: every top-level field in the payload overwrites the stored
// field, nothing else changes.
func MergeDocument(existing, incoming Document) Document {
	if existing == nil {
		existing = make(Document, len(incoming))
	}
	for k, v := range incoming {
		existing[k] = v
	}
	return existing
}
