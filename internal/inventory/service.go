package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/aerogourmet-backend/internal/activity"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db"
	"github.com/angelmondragon/aerogourmet-backend/pkg/db/models"
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/aerogourmet-backend/pkg/errors"
	"github.com/angelmondragon/aerogourmet-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type activityRecorder interface {
	RecordTx(ctx context.Context, tx *gorm.DB, entry activity.Entry) error
}

// Service manages stock levels and the inventory transaction ledger.
type Service interface {
	ConsumeForOrder(ctx context.Context, input ConsumeInput) (*ConsumptionResult, error)
	ApplyTransaction(ctx context.Context, input TransactionInput) (*models.InventoryTransaction, *models.InventoryItem, error)
	LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error)
	ExportLowStock(ctx context.Context, location *enums.Location) ([]byte, error)
	ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error)
	GetItem(ctx context.Context, id uint) (*models.InventoryItem, error)
	CreateItem(ctx context.Context, input ItemInput) (*models.InventoryItem, error)
	UpdateItem(ctx context.Context, id uint, input ItemUpdate) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id uint) error
	ListTransactions(ctx context.Context, filters TransactionFilters) ([]models.InventoryTransaction, error)
}

// ServiceParams wires the inventory service.
type ServiceParams struct {
	Repository Repository
	TxRunner   txRunner
	Activity   activityRecorder
	Logger     *logger.Logger
	Now        func() time.Time
}

type service struct {
	repo     Repository
	tx       txRunner
	activity activityRecorder
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Activity == nil {
		return nil, fmt.Errorf("activity recorder required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repository,
		tx:       params.TxRunner,
		activity: params.Activity,
		logg:     logg,
		now:      now,
	}, nil
}

// ConsumeForOrder writes one order_consumption transaction per recipe line of
// every order item and applies it. Running it twice consumes twice.
func (s *service) ConsumeForOrder(ctx context.Context, input ConsumeInput) (*ConsumptionResult, error) {
	if input.OrderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	var result *ConsumptionResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		items, order, err := repo.OrderItems(ctx, input.OrderID)
		if err != nil {
			return db.MapError(err, "order")
		}
		location := order.Location
		if raw := strings.TrimSpace(input.Location); raw != "" {
			parsed, err := enums.ParseLocation(raw)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location")
			}
			location = parsed
		}

		menuIDs := make([]uint, 0, len(items))
		for _, item := range items {
			menuIDs = append(menuIDs, item.MenuItemID)
		}
		recipes, err := repo.Ingredients(ctx, menuIDs)
		if err != nil {
			return db.MapError(err, "menu item ingredients")
		}

		result = &ConsumptionResult{
			OrderID:      order.ID,
			Location:     location,
			Transactions: []ConsumedTransaction{},
			Totals:       map[uint]decimal.Decimal{},
		}
		orderID := order.ID
		for _, item := range items {
			portions := decimal.NewFromInt(int64(item.Quantity))
			for _, ingredient := range recipes[item.MenuItemID] {
				qty := ingredient.Quantity.Mul(portions).Abs().Neg()
				txn, updated, err := s.apply(ctx, repo, TransactionInput{
					InventoryItemID: ingredient.InventoryItemID,
					Quantity:        qty,
					Type:            enums.InventoryTxOrderConsumption,
					OrderID:         &orderID,
					Location:        &location,
					ActorUserID:     input.ActorUserID,
				})
				if err != nil {
					return err
				}
				result.Transactions = append(result.Transactions, ConsumedTransaction{
					TransactionID:   txn.ID,
					InventoryItemID: txn.InventoryItemID,
					Quantity:        txn.Quantity,
					InStock:         updated.InStock,
				})
				result.Totals[txn.InventoryItemID] = result.Totals[txn.InventoryItemID].Add(txn.Quantity)
			}
		}

		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     input.ActorUserID,
			Action:     activity.ActionInventoryConsumed,
			EntityType: activity.EntityOrder,
			EntityID:   &orderID,
			Details: map[string]any{
				"location":     location,
				"transactions": len(result.Transactions),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderID(ctx, result.OrderID)
	logCtx = s.logg.WithField(logCtx, "transactions", len(result.Transactions))
	s.logg.Info(logCtx, "inventory.order_consumed")
	return result, nil
}

func (s *service) ApplyTransaction(ctx context.Context, input TransactionInput) (*models.InventoryTransaction, *models.InventoryItem, error) {
	var (
		txn  *models.InventoryTransaction
		item *models.InventoryItem
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		txn, item, err = s.apply(ctx, s.repo.WithTx(tx), input)
		if err != nil {
			return err
		}
		itemID := item.ID
		return s.activity.RecordTx(ctx, tx, activity.Entry{
			UserID:     input.ActorUserID,
			Action:     activity.ActionInventoryAdjusted,
			EntityType: activity.EntityInventoryItem,
			EntityID:   &itemID,
			Details: map[string]any{
				"type":     txn.TransactionType,
				"quantity": txn.Quantity.String(),
				"inStock":  item.InStock.String(),
			},
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, item, nil
}

// apply inserts the ledger row and moves the cached stock. There is no floor:
// stock may go negative.
func (s *service) apply(ctx context.Context, repo Repository, input TransactionInput) (*models.InventoryTransaction, *models.InventoryItem, error) {
	if !input.Type.IsValid() {
		return nil, nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid transaction type %q", input.Type)
	}
	qty, err := signedQuantity(input.Type, input.Quantity)
	if err != nil {
		return nil, nil, err
	}
	item, err := repo.FindItem(ctx, input.InventoryItemID)
	if err != nil {
		return nil, nil, db.MapError(err, "inventory item")
	}
	location := item.Location
	if input.Location != nil {
		location = *input.Location
	}

	now := s.now().UTC()
	txn := &models.InventoryTransaction{
		InventoryItemID: item.ID,
		Quantity:        qty,
		TransactionType: input.Type,
		OrderID:         input.OrderID,
		Location:        location,
		Notes:           input.Notes,
		ActorUserID:     input.ActorUserID,
	}
	if err := repo.InsertTransaction(ctx, txn); err != nil {
		return nil, nil, db.MapError(err, "inventory transaction")
	}
	if err := repo.ApplyStockDelta(ctx, item.ID, qty, now, input.Type == enums.InventoryTxRestock); err != nil {
		return nil, nil, db.MapError(err, "inventory item")
	}
	updated, err := repo.FindItem(ctx, item.ID)
	if err != nil {
		return nil, nil, db.MapError(err, "inventory item")
	}
	return txn, updated, nil
}

func signedQuantity(kind enums.InventoryTransactionType, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.IsZero() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-zero")
	}
	switch kind {
	case enums.InventoryTxRestock:
		return qty.Abs(), nil
	case enums.InventoryTxWaste, enums.InventoryTxOrderConsumption:
		return qty.Abs().Neg(), nil
	default:
		return qty, nil
	}
}

func (s *service) LowStock(ctx context.Context, location *enums.Location) ([]models.InventoryItem, error) {
	rows, err := s.repo.LowStock(ctx, location)
	if err != nil {
		return nil, db.MapError(err, "inventory items")
	}
	return rows, nil
}

func (s *service) ExportLowStock(ctx context.Context, location *enums.Location) ([]byte, error) {
	rows, err := s.LowStock(ctx, location)
	if err != nil {
		return nil, err
	}
	out, err := LowStockWorkbook(rows)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render low stock workbook")
	}
	return out, nil
}

func (s *service) ListItems(ctx context.Context, filters ItemFilters) ([]models.InventoryItem, error) {
	rows, err := s.repo.ListItems(ctx, filters)
	if err != nil {
		return nil, db.MapError(err, "inventory items")
	}
	return rows, nil
}

func (s *service) GetItem(ctx context.Context, id uint) (*models.InventoryItem, error) {
	item, err := s.repo.FindItem(ctx, id)
	if err != nil {
		return nil, db.MapError(err, "inventory item")
	}
	return item, nil
}

func (s *service) CreateItem(ctx context.Context, input ItemInput) (*models.InventoryItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit is required")
	}
	if !input.Location.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid location %q", input.Location)
	}
	if input.UnitCostCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unitCost must not be negative")
	}
	item := &models.InventoryItem{
		Name:          name,
		Category:      strings.TrimSpace(input.Category),
		Unit:          unit,
		InStock:       input.InStock,
		ReorderPoint:  input.ReorderPoint,
		IdealStock:    input.IdealStock,
		Location:      input.Location,
		UnitCostCents: input.UnitCostCents,
		VendorID:      input.VendorID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, db.MapError(err, "inventory item")
	}
	return item, nil
}

func (s *service) UpdateItem(ctx context.Context, id uint, input ItemUpdate) (*models.InventoryItem, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
		}
		updates["name"] = name
	}
	if input.Category != nil {
		updates["category"] = strings.TrimSpace(*input.Category)
	}
	if input.Unit != nil {
		updates["unit"] = strings.TrimSpace(*input.Unit)
	}
	if input.ReorderPoint != nil {
		updates["reorder_point"] = *input.ReorderPoint
	}
	if input.IdealStock != nil {
		updates["ideal_stock"] = *input.IdealStock
	}
	if input.Location != nil {
		if !input.Location.IsValid() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid location %q", *input.Location)
		}
		updates["location"] = *input.Location
	}
	if input.UnitCostCents != nil {
		if *input.UnitCostCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unitCost must not be negative")
		}
		updates["unit_cost_cents"] = *input.UnitCostCents
	}
	if input.VendorID != nil {
		updates["vendor_id"] = *input.VendorID
	}
	if len(updates) > 0 {
		updates["updated_at"] = s.now().UTC()
	}
	if err := s.repo.UpdateItem(ctx, id, updates); err != nil {
		return nil, db.MapError(err, "inventory item")
	}
	return s.GetItem(ctx, id)
}

func (s *service) DeleteItem(ctx context.Context, id uint) error {
	return db.MapError(s.repo.DeleteItem(ctx, id), "inventory item")
}

func (s *service) ListTransactions(ctx context.Context, filters TransactionFilters) ([]models.InventoryTransaction, error) {
	rows, err := s.repo.ListTransactions(ctx, filters)
	if err != nil {
		return nil, db.MapError(err, "inventory transactions")
	}
	return rows, nil
}
