// Package audit records who did what to which record. Events are persisted
// through the audit store and, when brokers are configured, mirrored to
// Kafka for downstream consumers.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Action names an auditable operation.
type Action string

const (
	ActionLogin          Action = "auth.login"
	ActionLogout         Action = "auth.logout"
	ActionPasswordChange Action = "auth.password_changed"

	ActionAdminCreated Action = "admin.created"
	ActionAdminUpdated Action = "admin.updated"
	ActionAdminDeleted Action = "admin.deleted"

	ActionPersonRegistered     Action = "person.registered"
	ActionPersonUpdated        Action = "person.updated"
	ActionPersonDeleted        Action = "person.deleted"
	ActionPersonProcessStarted Action = "person.process_started"
	ActionPersonProcessCleared Action = "person.process_cleared"

	ActionRefDataCreated Action = "refdata.created"
	ActionRefDataUpdated Action = "refdata.updated"
	ActionRefDataDeleted Action = "refdata.deleted"
)

// Event is a single audit record.
type Event struct {
	ID        uuid.UUID `json:"id"`
	At        time.Time `json:"at"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actorId,omitempty"`
	ActorName string    `json:"actorName,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	SubjectID string    `json:"subjectId,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}
