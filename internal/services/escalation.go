package services

import (
	"fmt"
	"log"
	"time"

	"github.com/mkale-dev/rollcall/internal/db"
	"github.com/mkale-dev/rollcall/internal/models"
	"github.com/mkale-dev/rollcall/internal/notify"
)

type escalationAuditRepository interface {
	GetOrCreate(user models.User, workday string) (models.AuditRecord, error)
	Apply(recordID uint, changes []db.AuditChange) (models.AuditRecord, error)
	FindLatestNotifiedUnacked(userChatID string, secondTier bool) (models.AuditRecord, bool, error)
	FindUnacknowledgedEscalation(supervisorChatID string, secondTier bool) (models.AuditRecord, bool, error)
}

type escalationUserRepository interface {
	FindByChatID(chatID string) (models.User, bool, error)
}

type tokenIssuer interface {
	Issue(userChatID string, secondTier bool) (string, error)
	Consume(value string) (models.AcknowledgmentToken, error)
}

type settingsProvider interface {
	Current() models.EscalationSettings
}

// EscalationEngine drives a missed login through its tiers: reminders to the
// person, then the supervisor, then the second supervisor. State transitions
// commit before any notification is sent, so delivery failures can only cause
// a missed message, never a phantom state.
type EscalationEngine struct {
	audits   escalationAuditRepository
	users    escalationUserRepository
	tokens   tokenIssuer
	gateway  notify.Gateway
	settings settingsProvider
	clock    Clock
	logger   *log.Logger

	// emailAvailable reflects whether an email transport is wired at all.
	// The store-level toggle only matters when it is.
	emailAvailable bool
}

func NewEscalationEngine(
	audits escalationAuditRepository,
	users escalationUserRepository,
	tokens tokenIssuer,
	gateway notify.Gateway,
	settings settingsProvider,
	clock Clock,
	logger *log.Logger,
	emailAvailable bool,
) *EscalationEngine {
	return &EscalationEngine{
		audits:         audits,
		users:          users,
		tokens:         tokens,
		gateway:        gateway,
		settings:       settings,
		clock:          clock,
		logger:         logger,
		emailAvailable: emailAvailable,
	}
}

// Evaluate advances one user's escalation by at most one step. It is called
// once per scheduler tick for every user past their expected login time and
// is a no-op once the user has logged in or an acknowledgment closed the day.
func (engine *EscalationEngine) Evaluate(user models.User) error {
	now := engine.clock.Now()
	workday := now.Format(models.WorkdayFormat)

	record, err := engine.audits.GetOrCreate(user, workday)
	if err != nil {
		return fmt.Errorf("load audit record for %s: %w", user.ChatID, err)
	}
	if record.LoginAt != nil || record.Acknowledged() {
		return nil
	}

	settings := engine.settings.Current()

	if record.SelfNotified < settings.MaxSelfNotifications {
		return engine.notifySelf(user, record, now, workday)
	}

	if !record.SupervisorNotifiedAny() {
		if !engine.tierReachable(user, settings, false) {
			engine.logger.Printf("escalation: user %s has no reachable supervisor configured, cannot escalate", user.ChatID)
			return nil
		}
		return engine.notifySupervisor(user, record, settings, now, workday, false)
	}

	if !record.SecondSupervisorNotifiedAny() {
		lastNotify := record.LastSupervisorNotifyAt
		if lastNotify != nil && now.Sub(*lastNotify) >= settings.EscalationWindow() {
			if engine.tierReachable(user, settings, true) {
				return engine.notifySupervisor(user, record, settings, now, workday, true)
			}
			// No tier above; the primary supervisor keeps being reminded
			// on the notification interval below.
			engine.logger.Printf("escalation: user %s has no reachable second supervisor, escalation stays at first tier", user.ChatID)
		}
		if lastNotify == nil || now.Sub(*lastNotify) >= settings.NotificationInterval() {
			return engine.notifySupervisor(user, record, settings, now, workday, false)
		}
		return nil
	}

	if record.SecondSupervisorAcked {
		return nil
	}
	lastNotify := record.LastSecondSupervisorNotifyAt
	if lastNotify == nil || now.Sub(*lastNotify) >= settings.NotificationInterval() {
		return engine.notifySupervisor(user, record, settings, now, workday, true)
	}
	return nil
}

func (engine *EscalationEngine) notifySelf(user models.User, record models.AuditRecord, now time.Time, workday string) error {
	updated, err := engine.audits.Apply(record.ID, []db.AuditChange{db.IncrementSelfNotified()})
	if err != nil {
		return fmt.Errorf("record self notification for %s: %w", user.ChatID, err)
	}

	engine.deliver(notify.Intent{
		Channel:   notify.ChannelChat,
		Tier:      notify.TierSelf,
		Recipient: user.ChatID,
		UserName:  user.Name,
		Workday:   workday,
		Expected:  record.ExpectedLoginSnapshot,
	})
	engine.logger.Printf("escalation: self reminder %d/%d sent to %s", updated.SelfNotified, engine.settings.Current().MaxSelfNotifications, user.ChatID)
	return nil
}

// tierReachable reports whether a tier has at least one deliverable contact.
// An email-only supervisor is unreachable while email delivery is disabled
// or the transport is absent; entering the tier anyway would stamp state
// without ever counting a notification.
func (engine *EscalationEngine) tierReachable(user models.User, settings models.EscalationSettings, secondTier bool) bool {
	chatID := user.SupervisorChatID
	email := user.SupervisorEmail
	if secondTier {
		chatID = user.SecondSupervisorChatID
		email = user.SecondSupervisorEmail
	}
	return chatID != "" || (engine.emailSendable(settings) && email != "")
}

func (engine *EscalationEngine) emailSendable(settings models.EscalationSettings) bool {
	return engine.emailAvailable && settings.EmailNotificationsEnabled
}

// notifySupervisor handles both first notification and repeats of a tier.
// Each delivery gets its own token; earlier tokens stay spendable until one
// of them is consumed.
func (engine *EscalationEngine) notifySupervisor(user models.User, record models.AuditRecord, settings models.EscalationSettings, now time.Time, workday string, secondTier bool) error {
	chatID := user.SupervisorChatID
	email := user.SupervisorEmail
	tier := notify.TierSupervisor
	if secondTier {
		chatID = user.SecondSupervisorChatID
		email = user.SecondSupervisorEmail
		tier = notify.TierSecondSupervisor
	}

	token, err := engine.tokens.Issue(user.ChatID, secondTier)
	if err != nil {
		return fmt.Errorf("issue acknowledgment token for %s: %w", user.ChatID, err)
	}

	changes := make([]db.AuditChange, 0, 3)
	sendEmail := engine.emailSendable(settings) && email != ""
	if secondTier {
		if chatID != "" {
			changes = append(changes, db.IncrementSecondSupervisorNotified())
		}
		if sendEmail {
			changes = append(changes, db.IncrementEmailSecondSupervisorNotified())
		}
		changes = append(changes, db.StampSecondSupervisorNotifiedAt(now))
	} else {
		if chatID != "" {
			changes = append(changes, db.IncrementSupervisorNotified())
		}
		if sendEmail {
			changes = append(changes, db.IncrementEmailSupervisorNotified())
		}
		changes = append(changes, db.StampSupervisorNotifiedAt(now))
	}

	if _, err := engine.audits.Apply(record.ID, changes); err != nil {
		return fmt.Errorf("record %s notification for %s: %w", tier, user.ChatID, err)
	}

	if chatID != "" {
		engine.deliver(notify.Intent{
			Channel:   notify.ChannelChat,
			Tier:      tier,
			Recipient: chatID,
			UserName:  user.Name,
			Workday:   workday,
			Expected:  record.ExpectedLoginSnapshot,
			AckToken:  token,
		})
	}
	if sendEmail {
		engine.deliver(notify.Intent{
			Channel:   notify.ChannelEmail,
			Tier:      tier,
			Recipient: email,
			UserName:  user.Name,
			Workday:   workday,
			Expected:  record.ExpectedLoginSnapshot,
			AckToken:  token,
		})
	}
	engine.logger.Printf("escalation: %s notified for user %s on %s", tier, user.ChatID, workday)
	return nil
}

// deliver sends one intent and logs failures without propagating them. The
// audit state is already committed at this point.
func (engine *EscalationEngine) deliver(intent notify.Intent) {
	if err := engine.gateway.Send(intent); err != nil {
		engine.logger.Printf("escalation: %s delivery to %s failed: %v", intent.Channel, intent.Recipient, err)
	}
}

// AcknowledgeByToken spends a one-time token and closes the tier it was
// bound to. A valid token whose escalation is already closed still consumes;
// the caller sees success either way.
func (engine *EscalationEngine) AcknowledgeByToken(value string) error {
	token, err := engine.tokens.Consume(value)
	if err != nil {
		return err
	}

	record, found, err := engine.audits.FindLatestNotifiedUnacked(token.UserChatID, token.SecondTier)
	if err != nil {
		return fmt.Errorf("resolve escalation for token: %w", err)
	}
	if !found {
		return nil
	}

	change := db.SetSupervisorAcked()
	if token.SecondTier {
		change = db.SetSecondSupervisorAcked()
	}
	if _, err := engine.audits.Apply(record.ID, []db.AuditChange{change}); err != nil {
		return fmt.Errorf("close escalation for %s: %w", token.UserChatID, err)
	}
	engine.logger.Printf("escalation: token acknowledgment closed record %d (second tier: %t)", record.ID, token.SecondTier)
	return nil
}

// AcknowledgeBySupervisor closes the most recent open escalation awaiting
// the given chat ID, covering supervisors who reply in chat instead of
// following the link.
func (engine *EscalationEngine) AcknowledgeBySupervisor(supervisorChatID string) error {
	for _, secondTier := range []bool{false, true} {
		record, found, err := engine.audits.FindUnacknowledgedEscalation(supervisorChatID, secondTier)
		if err != nil {
			return fmt.Errorf("resolve escalation for supervisor %s: %w", supervisorChatID, err)
		}
		if !found {
			continue
		}

		change := db.SetSupervisorAcked()
		if secondTier {
			change = db.SetSecondSupervisorAcked()
		}
		if _, err := engine.audits.Apply(record.ID, []db.AuditChange{change}); err != nil {
			return fmt.Errorf("close escalation record %d: %w", record.ID, err)
		}
		engine.logger.Printf("escalation: chat acknowledgment by %s closed record %d (second tier: %t)", supervisorChatID, record.ID, secondTier)
		return nil
	}
	return ErrNoPendingEscalation
}
