package backend

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/kdudkov/tgsubs/internal/database"
)

// Expirer periodically marks active subscriptions past their term as expired.
type Expirer struct {
	cron   *cron.Cron
	dbm    *database.DatabaseManager
	logger *zap.SugaredLogger
}

func NewExpirer(dbm *database.DatabaseManager, logger *zap.SugaredLogger) *Expirer {
	return &Expirer{
		cron:   cron.New(),
		dbm:    dbm,
		logger: logger.Named("expirer"),
	}
}

// Schedule adds the job with a cron spec like "@every 1m" or "*/5 * * * *".
func (e *Expirer) Schedule(spec string) error {
	if _, err := e.cron.AddFunc(spec, e.Run); err != nil {
		return fmt.Errorf("bad expire schedule %q: %w", spec, err)
	}

	return nil
}

func (e *Expirer) Run() {
	if _, err := e.dbm.ExpireDue(); err != nil {
		e.logger.Errorf("expire: %s", err.Error())
	}
}

func (e *Expirer) Start() {
	e.cron.Start()
}

func (e *Expirer) Stop() {
	ctx := e.cron.Stop()
	<-ctx.Done()
}
