// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

// Package changefeed implements the change-data-capture boundary between
// the store and the dashboard engine: a durable JetStream stream of
// insert/update records, one subject per table, published on every store
// write and consumed by the engine in commit order per table.
package changefeed

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Op is a change operation.
type Op string

const (
	// OpInsert is a newly created row.
	OpInsert Op = "insert"
	// OpUpdate is a mutation of an existing row. Old carries the row as it
	// was before the update.
	OpUpdate Op = "update"
)

// SubjectPrefix is the JetStream subject prefix for change records.
// Full subjects are "changes.<table>"; per-table ordering follows from
// per-subject ordering inside a single stream.
const SubjectPrefix = "changes"

// SubjectAll matches every change subject.
const SubjectAll = SubjectPrefix + ".>"

// Subject returns the change subject for a table.
func Subject(table string) string {
	return SubjectPrefix + "." + table
}

// Record is one change-feed entry. New and Old are the raw row payloads;
// the consumer decodes them by table.
type Record struct {
	ID        string          `json:"id"`
	Table     string          `json:"table"`
	Op        Op              `json:"op"`
	New       json.RawMessage `json:"new"`
	Old       json.RawMessage `json:"old,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// NewRecord builds a change record with a fresh id and timestamp. The row
// arguments are marshaled immediately so a later mutation of the source
// struct cannot alter the published payload.
func NewRecord(table string, op Op, newRow, oldRow any) (*Record, error) {
	newPayload, err := json.Marshal(newRow)
	if err != nil {
		return nil, fmt.Errorf("marshal new row: %w", err)
	}

	var oldPayload json.RawMessage
	if oldRow != nil {
		oldPayload, err = json.Marshal(oldRow)
		if err != nil {
			return nil, fmt.Errorf("marshal old row: %w", err)
		}
	}

	return &Record{
		ID:        uuid.New().String(),
		Table:     table,
		Op:        op,
		New:       newPayload,
		Old:       oldPayload,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Validate checks the fields a consumer depends on.
func (r *Record) Validate() error {
	if r.Table == "" {
		return fmt.Errorf("change record missing table")
	}
	if r.Op != OpInsert && r.Op != OpUpdate {
		return fmt.Errorf("change record has unknown op %q", r.Op)
	}
	if len(r.New) == 0 {
		return fmt.Errorf("change record missing new row")
	}
	return nil
}

// Marshal serializes the record for publishing.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalRecord deserializes a published record.
func UnmarshalRecord(data []byte) (*Record, error) {
	rec := &Record{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("unmarshal change record: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
