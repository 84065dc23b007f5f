package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"user-registry/internal/model"
	"user-registry/internal/repository"
	"user-registry/internal/validation"
)

const auditBatchSize = 200

// Notifier delivers a formatted audit report somewhere a person will read it.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Violation is a stored user that no longer passes the rule set.
type Violation struct {
	UserID   uint
	Email    string
	Messages []string
}

// Report summarizes one audit run.
type Report struct {
	RanAt        time.Time
	Revision     validation.Revision
	Checked      int
	Invalid      []Violation
	Unnormalized []uint
	Duplicates   []repository.DuplicateEmail
}

// Clean reports whether the run found nothing to act on.
func (r Report) Clean() bool {
	return len(r.Invalid) == 0 && len(r.Unnormalized) == 0 && len(r.Duplicates) == 0
}

// AuditService re-checks stored users against the rule set in force.
// Rows saved under an older revision may fail a stricter one.
type AuditService struct {
	repo     *repository.UserRepository
	notifier Notifier
	log      *zap.Logger
}

// NewAuditService builds the service. notifier may be nil.
func NewAuditService(repo *repository.UserRepository, notifier Notifier, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, notifier: notifier, log: log}
}

// Run walks every user, then sends the report when it is not clean.
// Records are only read; nothing is rewritten.
func (s *AuditService) Run(ctx context.Context, now time.Time) (Report, error) {
	rules := s.repo.Rules()
	report := Report{RanAt: now, Revision: rules.Revision()}

	err := s.repo.Each(ctx, auditBatchSize, func(users []model.User) error {
		for _, stored := range users {
			report.Checked++

			u := stored
			u.Normalize()
			if u.FirstName != stored.FirstName || u.LastName != stored.LastName || u.Email != stored.Email {
				report.Unnormalized = append(report.Unnormalized, stored.ID)
			}
			if res := u.Validate(rules); res.HasErrors() {
				report.Invalid = append(report.Invalid, Violation{
					UserID:   stored.ID,
					Email:    stored.Email,
					Messages: res.FullMessages(),
				})
			}
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("audit users: %w", err)
	}

	report.Duplicates, err = s.repo.DuplicateEmails(ctx)
	if err != nil {
		return report, fmt.Errorf("audit duplicates: %w", err)
	}

	s.log.Info("user audit finished",
		zap.String("revision", string(report.Revision)),
		zap.Int("checked", report.Checked),
		zap.Int("invalid", len(report.Invalid)),
		zap.Int("unnormalized", len(report.Unnormalized)),
		zap.Int("duplicates", len(report.Duplicates)),
	)
	for _, v := range report.Invalid {
		s.log.Warn("stored user fails validation", zap.Uint("user_id", v.UserID), zap.Strings("messages", v.Messages))
	}

	if report.Clean() || s.notifier == nil {
		return report, nil
	}
	if err := s.notifier.Notify(ctx, report.Format()); err != nil {
		return report, fmt.Errorf("send audit report: %w", err)
	}
	return report, nil
}

// Format renders the report as Telegram-flavoured HTML. User data is escaped.
func (r Report) Format() string {
	var b strings.Builder
	b.WriteString("📋 <b>User audit</b>\n")
	fmt.Fprintf(&b, "🗓 %s · revision <code>%s</code> · %d checked\n", r.RanAt.Format("2006-01-02 15:04 MST"), html.EscapeString(string(r.Revision)), r.Checked)

	if r.Clean() {
		b.WriteString("\n✅ All records pass.")
		return b.String()
	}

	if len(r.Invalid) > 0 {
		fmt.Fprintf(&b, "\n⚠️ <b>Invalid records (%d)</b>\n", len(r.Invalid))
		for _, v := range r.Invalid {
			fmt.Fprintf(&b, "#%d %s\n", v.UserID, html.EscapeString(v.Email))
			for _, m := range v.Messages {
				fmt.Fprintf(&b, "   • %s\n", html.EscapeString(m))
			}
		}
	}

	if len(r.Unnormalized) > 0 {
		ids := make([]string, 0, len(r.Unnormalized))
		for _, id := range r.Unnormalized {
			ids = append(ids, fmt.Sprintf("#%d", id))
		}
		fmt.Fprintf(&b, "\n✂️ <b>Not normalized (%d)</b>\n%s\n", len(r.Unnormalized), strings.Join(ids, ", "))
	}

	if len(r.Duplicates) > 0 {
		fmt.Fprintf(&b, "\n👥 <b>Duplicate emails (%d)</b>\n", len(r.Duplicates))
		for _, d := range r.Duplicates {
			fmt.Fprintf(&b, "%s ×%d\n", html.EscapeString(d.Email), d.Count)
		}
	}

	return strings.TrimSpace(b.String())
}
