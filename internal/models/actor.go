// Pulseboard - Valentine Week Live Activity Dashboard
// Copyright 2026 Dan V. (danvera)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danvera/pulseboard

package models

// ActorRole identifies which of the two actors a record belongs to.
type ActorRole string

const (
	// RoleOwner is the operator running the dashboard. Owner-originated
	// records are excluded from all subject-activity views.
	RoleOwner ActorRole = "owner"

	// RoleSubject is the single observed end user.
	RoleSubject ActorRole = "subject"
)

// Classifier resolves the actor role of a record. The owner identity is
// injected at construction so the classifier stays testable and
// environment-independent.
//
// Classification precedence:
//  1. an explicit role on the joined profile equal to the owner role
//     sentinel -> owner
//  2. the record's actor id equal to the configured owner id -> owner
//  3. otherwise -> subject
//
// The id fallback exists because realtime-pushed records may arrive before
// their joined profile is populated.
type Classifier struct {
	ownerID   string
	ownerRole string
}

// NewClassifier builds a classifier for the given owner identity.
// ownerRole defaults to "owner" when empty.
func NewClassifier(ownerID, ownerRole string) Classifier {
	if ownerRole == "" {
		ownerRole = string(RoleOwner)
	}
	return Classifier{ownerID: ownerID, ownerRole: ownerRole}
}

// Classify resolves the role for a record's actor id and optional joined
// profile. It never fails: records that cannot be proven owner are subject.
func (c Classifier) Classify(actorID string, profile *ActorProfile) ActorRole {
	if profile != nil && profile.Role == c.ownerRole {
		return RoleOwner
	}
	if actorID != "" && actorID == c.ownerID {
		return RoleOwner
	}
	return RoleSubject
}

// IsSubject reports whether the record belongs to the observed subject.
func (c Classifier) IsSubject(actorID string, profile *ActorProfile) bool {
	return c.Classify(actorID, profile) == RoleSubject
}
