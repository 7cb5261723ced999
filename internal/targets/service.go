package targets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bluewhale-ops/bluewhale-analytics/internal/shared"
)

// Store is the persistence contract for targets.
type Store interface {
	List(ctx context.Context, currency string, year int) ([]Target, error)
	Find(ctx context.Context, currency, line string, year, quarter int) (Target, error)
	Create(ctx context.Context, t Target) error
	Update(ctx context.Context, t Target) error
}

// Auditor records target edits.
type Auditor interface {
	Record(ctx context.Context, entry shared.AuditEntry) error
}

// Service applies target edits with change logging.
type Service struct {
	store   Store
	auditor Auditor
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs a Service instance.
func NewService(store Store, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns targets for a currency/year.
func (s *Service) List(ctx context.Context, currency string, year int) ([]Target, error) {
	return s.store.List(ctx, currency, year)
}

// Save creates or updates the target identified by its business key and
// writes one audit entry per changed field. The write itself is a
// single statement; the audit trail tolerates best-effort ordering.
func (s *Service) Save(ctx context.Context, t Target, actor string) (Target, error) {
	if actor == "" {
		return Target{}, fmt.Errorf("%w: actor required", shared.ErrValidation)
	}
	if t.Quarter < 1 || t.Quarter > 4 {
		return Target{}, fmt.Errorf("%w: quarter must be 1-4", shared.ErrValidation)
	}
	t.UpdatedBy = actor
	t.UpdatedAt = s.now()

	existing, err := s.store.Find(ctx, t.Currency, t.Line, t.Year, t.Quarter)
	if errors.Is(err, shared.ErrNotFound) {
		t.ID = uuid.New()
		if err := s.store.Create(ctx, t); err != nil {
			return Target{}, err
		}
		s.audit(ctx, t, actor, "created", "", describeTarget(t))
		return t, nil
	}
	if err != nil {
		return Target{}, err
	}

	t.ID = existing.ID
	if err := s.store.Update(ctx, t); err != nil {
		return Target{}, err
	}
	for _, change := range diffTargets(existing, t) {
		s.audit(ctx, t, actor, change.field, change.oldValue, change.newValue)
	}
	return t, nil
}

func (s *Service) audit(ctx context.Context, t Target, actor, field, oldValue, newValue string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Record(ctx, shared.AuditEntry{
		Actor:    actor,
		Entity:   "bp_target",
		EntityID: t.ID.String(),
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
		Meta: map[string]any{
			"currency": t.Currency,
			"line":     t.Line,
			"year":     t.Year,
			"quarter":  t.Quarter,
		},
		At: t.UpdatedAt,
	})
	// The target write already committed; a failed audit insert must
	// not undo it, but it cannot go unnoticed either.
	if err != nil && s.logger != nil {
		s.logger.Warn("audit write failed",
			slog.String("entity", "bp_target"),
			slog.String("field", field),
			slog.Any("error", err))
	}
}

type fieldChange struct {
	field    string
	oldValue string
	newValue string
}

func diffTargets(old, new Target) []fieldChange {
	var changes []fieldChange
	if old.DepositTarget != new.DepositTarget {
		changes = append(changes, fieldChange{"deposit_target", formatFloat(old.DepositTarget), formatFloat(new.DepositTarget)})
	}
	if old.GGRTarget != new.GGRTarget {
		changes = append(changes, fieldChange{"ggr_target", formatFloat(old.GGRTarget), formatFloat(new.GGRTarget)})
	}
	if old.ActiveMemberTarget != new.ActiveMemberTarget {
		changes = append(changes, fieldChange{"active_member_target", strconv.Itoa(old.ActiveMemberTarget), strconv.Itoa(new.ActiveMemberTarget)})
	}
	return changes
}

func describeTarget(t Target) string {
	return fmt.Sprintf("deposit=%s ggr=%s members=%d", formatFloat(t.DepositTarget), formatFloat(t.GGRTarget), t.ActiveMemberTarget)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
