package purchaseorders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/pagination"
	"github.com/angelmondragon/aerogourmet-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry activity.Entry) error
}

// Service manages purchase orders. Every line mutation recalculates the
// cached total in the same transaction.
type Service interface {
	List(ctx context.Context, filters Filters) (pagination.Page[models.PurchaseOrder], error)
	Get(ctx context.Context, id uint) (*models.PurchaseOrder, error)
	Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*models.PurchaseOrder, error)
	Delete(ctx context.Context, id uint, actorUserID *uint) error
	ListItems(ctx context.Context, purchaseOrderID uint) ([]models.PurchaseOrderItem, error)
	AddItem(ctx context.Context, input ItemInput) (*models.PurchaseOrderItem, error)
	UpdateItem(ctx context.Context, id uint, input ItemUpdate) (*models.PurchaseOrderItem, error)
	DeleteItem(ctx context.Context, id uint) error
}

type service struct {
	repo     Repository
	tx       txRunner
	activity activityRecorder
	now      func() time.Time
}

func NewService(repo Repository, tx txRunner, recorder activityRecorder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	return &service{repo: repo, tx: tx, activity: recorder, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, filters Filters) (pagination.Page[models.PurchaseOrder], error) {
	cursor, err := pagination.ParseCursor(filters.Cursor)
	if err != nil {
		return pagination.Page[models.PurchaseOrder]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, filters, cursor)
	if err != nil {
		return pagination.Page[models.PurchaseOrder]{}, db.MapError(err, "purchase orders")
	}
	return pagination.BuildPage(rows, filters.Limit, func(po models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: po.CreatedAt, ID: po.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	po, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "purchase order")
	}
	return po, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.PurchaseOrder, error) {
	if input.VendorID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendorId is required")
	}
	if !input.Location.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid location %q", input.Location)
	}
	status := enums.PurchaseOrderDraft
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
		}
		status = *input.Status
	}
	lines := make([]models.PurchaseOrderItem, 0, len(input.Items))
	for i, item := range input.Items {
		line, err := newLine(item)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("items[%d]", i))
		}
		lines = append(lines, line)
	}
	number, err := poNumber(s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate purchase order number")
	}

	var created uint
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ok, err := repo.VendorExists(ctx, input.VendorID)
		if err != nil {
			return db.MapError(err, "vendor")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "vendor not found")
		}
		po := &models.PurchaseOrder{
			PONumber:     number,
			VendorID:     input.VendorID,
			Status:       status,
			Location:     input.Location,
			ExpectedDate: input.ExpectedDate,
			Notes:        input.Notes,
			CreatedByID:  input.ActorUserID,
		}
		if err := repo.Create(ctx, po); err != nil {
			return db.MapError(err, "purchase order")
		}
		created = po.ID
		for i := range lines {
			lines[i].PurchaseOrderID = po.ID
		}
		if err := repo.CreateItems(ctx, lines); err != nil {
			return db.MapError(err, "purchase order item")
		}
		if _, err := repo.RecalculateTotal(ctx, po.ID); err != nil {
			return db.MapError(err, "purchase order")
		}
		return s.record(ctx, tx, input.ActorUserID, po.ID, "created")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, created)
}

func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*models.PurchaseOrder, error) {
	updates := map[string]any{}
	if input.VendorID != nil {
		updates["vendor_id"] = *input.VendorID
	}
	if input.Location != nil {
		if !input.Location.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid location %q", *input.Location)
		}
		updates["location"] = *input.Location
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid status %q", *input.Status)
		}
		updates["status"] = *input.Status
	}
	if input.ExpectedDate != nil {
		updates["expected_date"] = *input.ExpectedDate
	}
	if input.Notes != nil {
		updates["notes"] = *input.Notes
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if input.VendorID != nil {
			ok, err := repo.VendorExists(ctx, *input.VendorID)
			if err != nil {
				return db.MapError(err, "vendor")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "vendor not found")
			}
		}
		if len(updates) == 0 {
			_, err := repo.FindByID(ctx, id)
			return db.MapError(err, "purchase order")
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return db.MapError(err, "purchase order")
		}
		return s.record(ctx, tx, input.ActorUserID, id, "updated")
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uint, actorUserID *uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return db.MapError(err, "purchase order")
		}
		return s.record(ctx, tx, actorUserID, id, "deleted")
	})
}

func (s *service) ListItems(ctx context.Context, purchaseOrderID uint) ([]models.PurchaseOrderItem, error) {
	if _, err := s.repo.FindByID(ctx, purchaseOrderID); err != nil {
		return nil, db.MapError(err, "purchase order")
	}
	rows, err := s.repo.ListItems(ctx, purchaseOrderID)
	if err != nil {
		return nil, db.MapError(err, "purchase order items")
	}
	return rows, nil
}

func (s *service) AddItem(ctx context.Context, input ItemInput) (*models.PurchaseOrderItem, error) {
	line, err := newLine(input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid purchase order item")
	}
	line.PurchaseOrderID = input.PurchaseOrderID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByID(ctx, input.PurchaseOrderID); err != nil {
			return db.MapError(err, "purchase order")
		}
		items := []models.PurchaseOrderItem{line}
		if err := repo.CreateItems(ctx, items); err != nil {
			return db.MapError(err, "purchase order item")
		}
		line = items[0]
		_, err := repo.RecalculateTotal(ctx, input.PurchaseOrderID)
		return db.MapError(err, "purchase order")
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *service) UpdateItem(ctx context.Context, id uint, input ItemUpdate) (*models.PurchaseOrderItem, error) {
	updates := map[string]any{}
	if input.InventoryItemID != nil {
		updates["inventory_item_id"] = *input.InventoryItemID
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		if desc == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "description must not be empty")
		}
		updates["description"] = desc
	}
	if input.Quantity != nil {
		if *input.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.UnitCostCents != nil {
		if *input.UnitCostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unitCost must not be negative")
		}
		updates["unit_cost_cents"] = *input.UnitCostCents
	}

	var item *models.PurchaseOrderItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateItem(ctx, id, updates); err != nil {
			return db.MapError(err, "purchase order item")
		}
		found, err := repo.FindItem(ctx, id)
		if err != nil {
			return db.MapError(err, "purchase order item")
		}
		item = found
		_, err = repo.RecalculateTotal(ctx, found.PurchaseOrderID)
		return db.MapError(err, "purchase order")
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id uint) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := repo.FindItem(ctx, id)
		if err != nil {
			return db.MapError(err, "purchase order item")
		}
		if err := repo.DeleteItem(ctx, id); err != nil {
			return db.MapError(err, "purchase order item")
		}
		_, err = repo.RecalculateTotal(ctx, item.PurchaseOrderID)
		return db.MapError(err, "purchase order")
	})
}

func (s *service) record(ctx context.Context, tx *gorm.DB, actorUserID *uint, id uint, change string) error {
	return s.activity.RecordTx(ctx, tx, activity.Entry{
		UserID:     actorUserID,
		Action:     activity.ActionPurchaseOrderChange,
		EntityType: activity.EntityPurchaseOrder,
		EntityID:   &id,
		Details:    map[string]any{"change": change},
	})
}

func newLine(input ItemInput) (models.PurchaseOrderItem, error) {
	desc := strings.TrimSpace(input.Description)
	if desc == "" {
		return models.PurchaseOrderItem{}, fmt.Errorf("description is required")
	}
	if input.Quantity <= 0 {
		return models.PurchaseOrderItem{}, fmt.Errorf("quantity must be positive")
	}
	if input.UnitCostCents < 0 {
		return models.PurchaseOrderItem{}, fmt.Errorf("unitCost must not be negative")
	}
	return models.PurchaseOrderItem{
		InventoryItemID: input.InventoryItemID,
		Description:     desc,
		Quantity:        input.Quantity,
		UnitCostCents:   input.UnitCostCents,
	}, nil
}

// poNumber returns PO-YYYYMMDD-XXXX.
func poNumber(now time.Time) (string, error) {
	suffix, err := security.RandomString(4, security.UpperAlnum)
	if err != nil {
		return "", err
	}
	return "PO-" + now.UTC().Format("20060102") + "-" + suffix, nil
}
