package pricing

import (
	"context"

	interf "github.com/glkeru/hotel/pricing/internal/interfaces"
	models "github.com/glkeru/hotel/pricing/internal/models"
	"go.uber.org/zap"
)

// Журнал аудита. Записи об изменении правила пишет хранилище вместе с правилом,
// здесь только отдельные записи и публикация (по возможности).
type auditor struct {
	db         interf.AuditStorage
	publishers []interf.AuditPublisher
	logger     *zap.Logger
}

// запись без изменения правила (повторный revoke)
func (a auditor) record(ctx context.Context, entry models.AuditEntry) error {
	if err := a.db.AppendAudit(ctx, entry); err != nil {
		a.logger.Error("audit append",
			zap.String("service", "Audit"),
			zap.String("rule", entry.RuleID.String()),
			zap.Error(err),
		)
		return err
	}
	a.publish(ctx, entry)
	return nil
}

func (a auditor) publish(ctx context.Context, entry models.AuditEntry) {
	for _, p := range a.publishers {
		if err := p.Publish(ctx, entry); err != nil {
			a.logger.Warn("audit publish",
				zap.String("service", "Audit"),
				zap.String("rule", entry.RuleID.String()),
				zap.Error(err),
			)
		}
	}
}
