package db

import (
	"time"

	"github.com/mkale-dev/rollcall/internal/models"
)

// AuditOp enumerates the closed set of mutations normal operation may apply
// to an audit record. Anything outside this set is rejected, which removes
// the "unknown field" failure class from the update path entirely. The
// repair paths in IntegrityRepository deliberately bypass this set.
type AuditOp int

const (
	OpSetLogin AuditOp = iota + 1
	OpSetLogout
	OpIncrementSelfNotified
	OpIncrementSupervisorNotified
	OpIncrementEmailSupervisorNotified
	OpIncrementSecondSupervisorNotified
	OpIncrementEmailSecondSupervisorNotified
	OpSetSupervisorAcked
	OpSetSecondSupervisorAcked
	OpStampSupervisorNotifiedAt
	OpStampSecondSupervisorNotifiedAt
)

// AuditChange is one tagged update operation. At carries the payload for the
// timestamp-bearing operations and is ignored by the rest.
type AuditChange struct {
	Op AuditOp
	At time.Time
}

func SetLogin(at time.Time) AuditChange  { return AuditChange{Op: OpSetLogin, At: at} }
func SetLogout(at time.Time) AuditChange { return AuditChange{Op: OpSetLogout, At: at} }
func IncrementSelfNotified() AuditChange { return AuditChange{Op: OpIncrementSelfNotified} }
func IncrementSupervisorNotified() AuditChange {
	return AuditChange{Op: OpIncrementSupervisorNotified}
}
func IncrementEmailSupervisorNotified() AuditChange {
	return AuditChange{Op: OpIncrementEmailSupervisorNotified}
}
func IncrementSecondSupervisorNotified() AuditChange {
	return AuditChange{Op: OpIncrementSecondSupervisorNotified}
}
func IncrementEmailSecondSupervisorNotified() AuditChange {
	return AuditChange{Op: OpIncrementEmailSecondSupervisorNotified}
}
func SetSupervisorAcked() AuditChange       { return AuditChange{Op: OpSetSupervisorAcked} }
func SetSecondSupervisorAcked() AuditChange { return AuditChange{Op: OpSetSecondSupervisorAcked} }
func StampSupervisorNotifiedAt(at time.Time) AuditChange {
	return AuditChange{Op: OpStampSupervisorNotifiedAt, At: at}
}
func StampSecondSupervisorNotifiedAt(at time.Time) AuditChange {
	return AuditChange{Op: OpStampSecondSupervisorNotifiedAt, At: at}
}

// applyChange mutates the in-memory record to its expected post-update state
// and records the corresponding column assignment. The mutated record doubles
// as the expectation for post-write verification.
func applyChange(record *models.AuditRecord, change AuditChange, updates map[string]any) error {
	switch change.Op {
	case OpSetLogin:
		at := change.At
		record.LoginAt = &at
		updates["login_at"] = &at
	case OpSetLogout:
		at := change.At
		record.LogoutAt = &at
		updates["logout_at"] = &at
	case OpIncrementSelfNotified:
		record.SelfNotified++
		updates["self_notified"] = record.SelfNotified
	case OpIncrementSupervisorNotified:
		record.SupervisorNotified++
		updates["supervisor_notified"] = record.SupervisorNotified
	case OpIncrementEmailSupervisorNotified:
		record.EmailSupervisorNotified++
		updates["email_supervisor_notified"] = record.EmailSupervisorNotified
	case OpIncrementSecondSupervisorNotified:
		if !record.SupervisorNotifiedAny() {
			return ErrTierOrderViolation
		}
		record.SecondSupervisorNotified++
		updates["second_supervisor_notified"] = record.SecondSupervisorNotified
	case OpIncrementEmailSecondSupervisorNotified:
		if !record.SupervisorNotifiedAny() {
			return ErrTierOrderViolation
		}
		record.EmailSecondSupervisorNotified++
		updates["email_second_supervisor_notified"] = record.EmailSecondSupervisorNotified
	case OpSetSupervisorAcked:
		record.SupervisorAcked = true
		updates["supervisor_acked"] = true
	case OpSetSecondSupervisorAcked:
		record.SecondSupervisorAcked = true
		updates["second_supervisor_acked"] = true
	case OpStampSupervisorNotifiedAt:
		at := change.At
		record.LastSupervisorNotifyAt = &at
		updates["last_supervisor_notify_at"] = &at
	case OpStampSecondSupervisorNotifiedAt:
		at := change.At
		record.LastSecondSupervisorNotifyAt = &at
		updates["last_second_supervisor_notify_at"] = &at
	default:
		return ErrUnknownAuditOp
	}
	return nil
}
