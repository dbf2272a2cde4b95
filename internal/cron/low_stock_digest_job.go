package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type lowStockLister interface {
	LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error)
}

type digestEmitter interface {
	EmitLowStockDigest(ctx context.Context, tx *gorm.DB, location enums.Location, itemCount int) error
}

type onceStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

type LowStockDigestJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Inventory lowStockLister
	Outbox    digestEmitter
	// Once limits the digest to one per location per UTC day. Without it a
	// digest is queued on every cycle.
	Once      onceStore
	Locations []enums.Location
	Now       func() time.Time
}

// NewLowStockDigestJob queues a low_stock_digest outbox event for each
// location that has items at or below their reorder point.
func NewLowStockDigestJob(params LowStockDigestJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory source required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	locations := params.Locations
	if len(locations) == 0 {
		locations = []enums.Location{enums.LocationThessaloniki, enums.LocationMykonos}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &lowStockDigestJob{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		outbox:    params.Outbox,
		once:      params.Once,
		locations: locations,
		now:       now,
	}, nil
}

type lowStockDigestJob struct {
	logg      *logger.Logger
	db        txRunner
	inventory lowStockLister
	outbox    digestEmitter
	once      onceStore
	locations []enums.Location
	now       func() time.Time
}

func (j *lowStockDigestJob) Name() string { return "low-stock-digest" }

func (j *lowStockDigestJob) Run(ctx context.Context) error {
	for _, location := range j.locations {
		if err := j.runLocation(ctx, location); err != nil {
			return fmt.Errorf("%s: %w", location, err)
		}
	}
	return nil
}

func (j *lowStockDigestJob) runLocation(ctx context.Context, location enums.Location) error {
	logCtx := j.logg.WithField(ctx, "location", location)
	loc := location
	items, err := j.inventory.LowStock(ctx, &loc)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		j.logg.Debug(logCtx, "cron.low_stock_clear")
		return nil
	}

	key := ""
	if j.once != nil {
		key = fmt.Sprintf("ag:cron:low-stock-digest:%s:%s", location, j.now().UTC().Format("2006-01-02"))
		first, err := j.once.SetNX(ctx, key, "1", 26*time.Hour)
		if err != nil {
			return fmt.Errorf("digest marker: %w", err)
		}
		if !first {
			j.logg.Debug(logCtx, "cron.low_stock_already_sent")
			return nil
		}
	}

	err = j.db.WithTx(ctx, func(tx *gorm.DB) error {
		return j.outbox.EmitLowStockDigest(ctx, tx, location, len(items))
	})
	if err != nil {
		if key != "" {
			_ = j.once.Del(ctx, key)
		}
		return err
	}
	j.logg.Info(j.logg.WithField(logCtx, "items", len(items)), "cron.low_stock_digest_queued")
	return nil
}
