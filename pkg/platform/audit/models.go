package audit

import (
	"context"
	"time"

	id "docverify/pkg/domain"
)

// Action is the verb recorded on an audit entry.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionUpload  Action = "upload"
	ActionRestore Action = "restore"
	ActionLogin   Action = "login"
	ActionLogout  Action = "logout"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionUpload, ActionRestore, ActionLogin, ActionLogout:
		return true
	}
	return false
}

// TargetType names the kind of record an entry is about.
// Verification records are logged as TargetUser.
type TargetType string

const (
	TargetUser        TargetType = "User"
	TargetAdmin       TargetType = "Admin"
	TargetCertificate TargetType = "Certificate"
)

// Details carries action-specific context. Shapes in use:
//
//	review:     {email, oldStatus, newStatus, notes, reviewedBy}
//	employment: {employmentStatusChange: {from, to, endDate}, updatedBy}
//	delete:     {email, name, deletedBy}
type Details map[string]any

// Entry is one append-only audit record.
type Entry struct {
	ID         string     `json:"id"`
	AdminID    id.AdminID `json:"adminId"`
	Action     Action     `json:"action"`
	TargetType TargetType `json:"targetType"`
	TargetID   string     `json:"targetId"`
	Details    Details    `json:"details,omitempty"`
	IPAddress  string     `json:"ipAddress,omitempty"`
	UserAgent  string     `json:"userAgent,omitempty"`
	// Client is a short browser/OS summary parsed from UserAgent.
	Client    string    `json:"client,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Query narrows a listing. Zero fields are ignored.
type Query struct {
	AdminID    id.AdminID
	TargetType TargetType
	TargetID   string
	Actions    []Action
	Limit      int
}

// Store persists entries. Implementations never update or delete.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context, q Query) ([]Entry, error)
}

// Sink receives a copy of each persisted entry, e.g. a message broker.
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}

const DefaultListLimit = 50
