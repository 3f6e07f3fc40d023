package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uniportal/uniportal-rbac/internal/db/models"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// auditTx appends entries sharing one transaction id.
// It must be used with the Store handed to a Transaction callback so the
// entries commit or roll back together with the mutation they describe.
type auditTx struct {
	store Store
	id    string
	actor string
	at    time.Time
	// actions lists what was recorded, for metrics after commit.
	actions []models.AuditAction
}

func newAuditTx(st Store, actor string, at time.Time) *auditTx {
	return &auditTx{store: st, id: newID(), actor: actor, at: at}
}

func (a *auditTx) record(
	ctx context.Context,
	action models.AuditAction,
	kind models.AuditTarget,
	targetID string,
	before, after any,
) error {
	b, err := snapshot(before)
	if err != nil {
		return err
	}

	f, err := snapshot(after)
	if err != nil {
		return err
	}

	if err = a.store.AppendAudit(ctx, &models.AuditEntry{
		ID:         newID(),
		TxID:       a.id,
		Actor:      a.actor,
		Action:     action,
		TargetKind: kind,
		TargetID:   targetID,
		Before:     b,
		After:      f,
		CreatedAt:  a.at,
	}); err != nil {
		return err
	}

	a.actions = append(a.actions, action)

	return nil
}

// committed counts the recorded actions once the transaction succeeded.
func (a *auditTx) committed() {
	for _, action := range a.actions {
		mutationsTotal.WithLabelValues(string(action)).Inc()
	}
}

func snapshot(v any) (string, error) {
	if v == nil {
		return "", nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// AuditLog is the read side of the append-only audit log.
// Entries are only written by the mutating operations of the other components.
type AuditLog struct {
	*core
}

// History returns audit entries matching filter, oldest first.
func (l *AuditLog) History(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}

	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	return l.store.ListAudit(ctx, filter)
}

// stateAt replays the audit trail of one target and decodes the snapshot that
// was current at t into out. It reports false when the trail holds no entry at
// or before t, and deleted=true when the target did not exist at t.
func stateAt(ctx context.Context, st Store, kind models.AuditTarget, id string, t time.Time, out any) (found, deleted bool, err error) {
	entries, err := st.ListAudit(ctx, AuditFilter{TargetKind: kind, TargetID: id})
	if err != nil {
		return false, false, err
	}

	var latest *models.AuditEntry

	for i := range entries {
		if entries[i].CreatedAt.After(t) {
			break
		}

		latest = &entries[i]
	}

	if latest == nil {
		return false, false, nil
	}

	if latest.After == "" {
		return true, true, nil
	}

	if err = json.Unmarshal([]byte(latest.After), out); err != nil {
		return false, false, err
	}

	return true, false, nil
}
