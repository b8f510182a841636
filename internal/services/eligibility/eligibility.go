// Package eligibility решает, виден ли техник работодателям и должен ли его
// профиль стоять на паузе.
package eligibility

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/technician-marketplace/internal/lib/docexpiry"
	"github.com/magabrotheeeer/technician-marketplace/internal/models"
)

// Ledger отвечает на вопрос об активной подписке пользователя.
type Ledger interface {
	HasActiveSubscription(ctx context.Context, userID int64, now time.Time) (bool, error)
}

// Engine объединяет флаги профиля, пробный период и подписку.
// То же правило в виде SQL использует repository.VisibleClause.
type Engine struct {
	ledger Ledger
}

func New(ledger Ledger) *Engine {
	return &Engine{ledger: ledger}
}

// IsVisibleToEmployers: одобрен, не на паузе и (идёт пробный период или есть
// активная подписка). Подписка запрашивается, только если остальное не решило
// ответ.
func (e *Engine) IsVisibleToEmployers(ctx context.Context, p *models.TechnicianProfile, now time.Time) (bool, error) {
	const op = "eligibility.IsVisibleToEmployers"

	if !p.IsApproved || p.IsPaused {
		return false, nil
	}
	if OnTrial(p, now) {
		return true, nil
	}
	has, err := e.ledger.HasActiveSubscription(ctx, p.UserID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return has, nil
}

// ComputeAutoPause возвращает желаемое значение флага паузы для собственного
// профиля техника: пауза, если нет ни пробного периода, ни подписки.
func (e *Engine) ComputeAutoPause(ctx context.Context, p *models.TechnicianProfile, now time.Time) (bool, error) {
	const op = "eligibility.ComputeAutoPause"

	if OnTrial(p, now) {
		return false, nil
	}
	has, err := e.ledger.HasActiveSubscription(ctx, p.UserID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return !has, nil
}

// OnTrial сообщает, покрывает ли пробный период момент now. Граница включительна.
func OnTrial(p *models.TechnicianProfile, now time.Time) bool {
	return p.TrialEndsAt != nil && !p.TrialEndsAt.Before(now)
}

// IsDocumentExpired истинно, если срок документа не задан или уже наступил.
func IsDocumentExpired(p *models.TechnicianProfile, now time.Time) bool {
	return docexpiry.IsExpired(p.DocumentExpiresAt, now)
}

// View дополняет профиль вычисляемыми полями документа.
func View(p *models.TechnicianProfile, now time.Time) *models.TechnicianView {
	return &models.TechnicianView{
		TechnicianProfile: p,
		DocumentExpired:   IsDocumentExpired(p, now),
		DocumentStatus:    docexpiry.Status(p.DocumentRef != nil, p.DocumentExpiresAt, now),
	}
}

// Views применяет View к каждому профилю.
func Views(ps []*models.TechnicianProfile, now time.Time) []*models.TechnicianView {
	out := make([]*models.TechnicianView, 0, len(ps))
	for _, p := range ps {
		out = append(out, View(p, now))
	}
	return out
}
