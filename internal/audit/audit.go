package audit

//go:generate mockgen -destination=../mocks/mock_audit_recorder.go -package=mocks github.com/Pelan2022/Koulio/internal/audit Recorder

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	ActionRegister       = "REGISTER"
	ActionLogin          = "LOGIN"
	ActionLoginFailed    = "LOGIN_FAILED"
	ActionAccountLocked  = "ACCOUNT_LOCKED"
	ActionTokenRefresh   = "TOKEN_REFRESH"
	ActionLogout         = "LOGOUT"
	ActionPasswordChange = "PASSWORD_CHANGE"
	ActionProfileUpdate  = "PROFILE_UPDATE"
	ActionAccountDelete  = "ACCOUNT_DELETE"
)

const ResourceTypeUser = "user"

// Entry describes a single auditable event. UserID is nil for events that
// cannot be tied to an account, such as failed logins on unknown emails.
type Entry struct {
	UserID       *string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]interface{}
	IPAddress    string
	UserAgent    string
}

// Recorder appends audit entries. Recording is best-effort: a failed write
// must never fail the flow that produced it.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type recorder struct {
	repo AuditRepository
	log  *zap.Logger
}

func NewRecorder(repo AuditRepository, log *zap.Logger) Recorder {
	return &recorder{repo: repo, log: log}
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	if err := r.repo.Insert(ctx, &entry); err != nil {
		r.log.Error("failed to write audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
	}
}

// Record is a stored audit row.
type Record struct {
	ID           string
	UserID       *string
	Action       string
	ResourceType string
	ResourceID   string
	Details      []byte
	IPAddress    string
	UserAgent    string
	CreatedAt    time.Time
}

// Filter narrows admin audit-log listings.
type Filter struct {
	UserID   string
	Action   string
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
