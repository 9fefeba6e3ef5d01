// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package changefeed

import (
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/danvera/pulseboard/internal/models"
)

func TestSubject(t *testing.T) {
	if got := Subject("auth_sessions"); got != "changes.auth_sessions" {
		t.Errorf("Subject = %q", got)
	}
}

func TestNewRecordRoundTrip(t *testing.T) {
	login := time.Now().UTC().Truncate(time.Millisecond)
	s := models.Session{ID: "s1", ActorID: "a1", LoginAt: login, LastActiveAt: login, IsActive: true}
	closed := s
	closed.IsActive = false

	rec, err := NewRecord(models.TableSessions, OpUpdate, &closed, &s)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if rec.ID == "" {
		t.Error("record id not assigned")
	}

	data, err := rec.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := UnmarshalRecord(data)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}

	if decoded.Table != models.TableSessions || decoded.Op != OpUpdate {
		t.Errorf("routing fields lost: %+v", decoded)
	}
	if len(decoded.New) == 0 || len(decoded.Old) == 0 {
		t.Error("payloads lost in round trip")
	}
}

// The payload is captured at record-build time; mutating the source
// struct afterwards must not change what gets published.
func TestNewRecordSnapshotsPayload(t *testing.T) {
	s := models.Session{ID: "s1", ActorID: "a1", IsActive: true}
	rec, err := NewRecord(models.TableSessions, OpInsert, &s, nil)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	s.IsActive = false

	var decoded models.Session
	if err := json.Unmarshal(rec.New, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !decoded.IsActive {
		t.Error("published payload followed a later mutation of the source struct")
	}
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid insert", Record{Table: "t", Op: OpInsert, New: []byte(`{}`)}, false},
		{"missing table", Record{Op: OpInsert, New: []byte(`{}`)}, true},
		{"unknown op", Record{Table: "t", Op: "delete", New: []byte(`{}`)}, true},
		{"missing new row", Record{Table: "t", Op: OpInsert}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalRecordRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalRecord([]byte("not json")); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := UnmarshalRecord([]byte(`{"table":"","op":"insert","new":{}}`)); err == nil {
		t.Error("expected validation error for missing table")
	}
}
