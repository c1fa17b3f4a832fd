package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bytedance/sonic"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/matheusmosca/bookstore-backoffice/internal/apperror"
	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/logger"
	"github.com/matheusmosca/bookstore-backoffice/internal/messaging"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

const publishTimeout = 5 * time.Second

// OrderLine is one validated purchase request line
type OrderLine struct {
	BookID   string
	Quantity int
}

// ParseItems validates the raw items field of a checkout request. Lines are
// returned in request order; repeated books are kept as separate lines.
func ParseItems(raw []byte) ([]OrderLine, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, apperror.Validation("items", "Items array is required")
	}

	var items []any
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, apperror.Validation("items", "Items must be an array")
	}
	if len(items) == 0 {
		return nil, apperror.Validation("items", "Items array cannot be empty")
	}

	lines := make([]OrderLine, 0, len(items))
	for i, item := range items {
		n := i + 1
		fields, _ := item.(map[string]any)

		bookID, _ := fields["book_id"].(string)
		if bookID == "" {
			return nil, apperror.Validation("book_id", fmt.Sprintf("Item %d: book_id is required", n))
		}

		quantity, ok := fields["quantity"].(float64)
		if !ok || quantity < 1 {
			return nil, apperror.Validation("quantity", fmt.Sprintf("Item %d: quantity must be at least 1", n))
		}
		if quantity != math.Trunc(quantity) {
			return nil, apperror.Validation("quantity", fmt.Sprintf("Item %d: quantity must be an integer, not a decimal number", n))
		}
		if quantity > math.MaxInt32 {
			return nil, apperror.Validation("quantity", fmt.Sprintf("Item %d: quantity must not exceed %d", n, math.MaxInt32))
		}

		lines = append(lines, OrderLine{BookID: bookID, Quantity: int(quantity)})
	}
	return lines, nil
}

// TransactionUseCase places orders and reads them back
type TransactionUseCase struct {
	store     repository.Store
	publisher messaging.Publisher
	tracer    trace.Tracer

	createdCounter  metric.Int64Counter
	rejectedCounter metric.Int64Counter
	itemsCounter    metric.Int64Counter
}

func NewTransactionUseCase(
	store repository.Store,
	publisher messaging.Publisher,
	tracer trace.Tracer,
	meter metric.Meter,
) (*TransactionUseCase, error) {
	if publisher == nil {
		publisher = messaging.Noop{}
	}

	created, err := meter.Int64Counter("bookstore.transactions.created",
		metric.WithDescription("Committed checkouts"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("bookstore.transactions.rejected",
		metric.WithDescription("Checkouts rolled back or refused before any write"))
	if err != nil {
		return nil, err
	}
	items, err := meter.Int64Counter("bookstore.books.sold",
		metric.WithDescription("Units sold across committed checkouts"))
	if err != nil {
		return nil, err
	}

	return &TransactionUseCase{
		store:           store,
		publisher:       publisher,
		tracer:          tracer,
		createdCounter:  created,
		rejectedCounter: rejected,
		itemsCounter:    items,
	}, nil
}

// CreateTransaction places one order for all requested lines or none of
// them. Every book row is locked for the lifetime of the transaction, so
// two checkouts competing for the last unit cannot both succeed.
func (uc *TransactionUseCase) CreateTransaction(ctx context.Context, userID string, rawItems []byte) (*entity.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "TransactionUseCase.CreateTransaction")
	defer span.End()

	log := logger.GetLogger(ctx).WithField("user_id", userID)
	log.Info("➡️ [CREATE TRANSACTION] started")

	order, err := uc.createTransaction(ctx, userID, rawItems)
	if err != nil {
		kind := apperror.KindOf(err)
		uc.rejectedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("error.kind", kind.String())))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		entry := log.WithError(err).WithField("kind", kind.String())
		if kind == apperror.KindInternal {
			entry.Error("❌ [CREATE TRANSACTION] failed")
		} else {
			entry.Warn("❌ [CREATE TRANSACTION] rejected")
		}
		return nil, err
	}

	units := lo.SumBy(order.Items, func(item entity.OrderItem) int64 { return int64(item.Quantity) })
	uc.createdCounter.Add(ctx, 1)
	uc.itemsCounter.Add(ctx, units)
	span.SetAttributes(
		attribute.String("transaction.id", order.ID),
		attribute.Int("transaction.items", len(order.Items)),
		attribute.String("transaction.total_price", order.TotalPrice.StringFixed(2)),
	)

	uc.publishCreated(ctx, order)

	log.WithField("transaction_id", order.ID).
		WithField("total_price", order.TotalPrice.StringFixed(2)).
		Info("✅ [CREATE TRANSACTION] committed")
	return order, nil
}

func (uc *TransactionUseCase) createTransaction(ctx context.Context, userID string, rawItems []byte) (*entity.Order, error) {
	if userID == "" {
		return nil, apperror.Authentication("User authentication required")
	}

	lines, err := ParseItems(rawItems)
	if err != nil {
		return nil, err
	}

	_, err = uc.store.Users().GetByID(ctx, userID)
	if isNotFound(err) {
		return nil, apperror.NotFound("User", userID)
	}
	if err != nil {
		return nil, internalError("failed to look up user", err)
	}

	var order *entity.Order
	err = repository.WithinTx(ctx, uc.store, func(tx repository.Tx) error {
		created, err := uc.placeOrder(ctx, tx, userID, lines)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, internalError("failed to create transaction", err)
	}
	return order, nil
}

// placeOrder runs inside the transaction. Any error it returns discards
// the order row, every stock decrement and every item written so far.
func (uc *TransactionUseCase) placeOrder(ctx context.Context, tx repository.Tx, userID string, lines []OrderLine) (*entity.Order, error) {
	ctx, span := uc.tracer.Start(ctx, "TransactionUseCase.placeOrder",
		trace.WithAttributes(attribute.Int("transaction.lines", len(lines))))
	defer span.End()

	order := entity.NewOrder(userID)
	if err := tx.Orders().Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrInvalidReference) {
			return nil, apperror.NotFound("User", userID)
		}
		return nil, err
	}

	total := decimal.Zero
	for _, line := range lines {
		book, err := tx.Books().GetForUpdate(ctx, line.BookID)
		if isNotFound(err) {
			return nil, apperror.NotFound("Book", line.BookID)
		}
		if err != nil {
			return nil, err
		}

		if book.IsDeleted() {
			return nil, apperror.BusinessLogic(fmt.Sprintf("Book \"%s\" has been deleted and cannot be purchased", book.Title))
		}
		if !book.HasStock(line.Quantity) {
			return nil, apperror.BusinessLogic(fmt.Sprintf("Insufficient stock for \"%s\". Available: %d, Requested: %d",
				book.Title, book.StockQuantity, line.Quantity))
		}

		if err := tx.Books().UpdateStock(ctx, book.ID, book.StockQuantity-line.Quantity); err != nil {
			return nil, err
		}
		if err := tx.Orders().CreateItem(ctx, entity.NewOrderItem(order.ID, book.ID, line.Quantity)); err != nil {
			return nil, err
		}

		total = total.Add(book.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	if err := tx.Orders().SetTotal(ctx, order.ID, total); err != nil {
		return nil, err
	}
	return tx.Orders().GetByID(ctx, order.ID)
}

// publishCreated announces a committed order. The order is already durable,
// so a broker failure is only logged.
func (uc *TransactionUseCase) publishCreated(ctx context.Context, order *entity.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := messaging.Event{
		Type:       messaging.EventTransactionCreated,
		OccurredAt: order.CreatedAt,
		Payload: messaging.TransactionCreated{
			TransactionID: order.ID,
			UserID:        order.UserID,
			TotalPrice:    order.TotalPrice,
			Items: lo.Map(order.Items, func(item entity.OrderItem, _ int) messaging.ItemSold {
				return messaging.ItemSold{BookID: item.BookID, Quantity: item.Quantity}
			}),
		},
	}

	if err := uc.publisher.Publish(ctx, order.ID, event); err != nil {
		logger.GetLogger(ctx).WithError(err).
			WithField("transaction_id", order.ID).
			Warn("failed to publish transaction event")
	}
}

func (uc *TransactionUseCase) List(ctx context.Context) ([]entity.Order, error) {
	orders, err := uc.store.Orders().List(ctx)
	if err != nil {
		return nil, internalError("failed to list transactions", err)
	}
	return orders, nil
}

func (uc *TransactionUseCase) Get(ctx context.Context, id string) (*entity.Order, error) {
	if id == "" {
		return nil, apperror.Validation("transaction_id", "Transaction ID is required")
	}
	order, err := uc.store.Orders().GetByID(ctx, id)
	if isNotFound(err) {
		return nil, apperror.NotFound("Transaction", id)
	}
	if err != nil {
		return nil, internalError("failed to look up transaction", err)
	}
	return order, nil
}

func (uc *TransactionUseCase) Statistics(ctx context.Context) (*entity.TransactionStatistics, error) {
	ctx, span := uc.tracer.Start(ctx, "TransactionUseCase.Statistics")
	defer span.End()

	stats, err := uc.store.Orders().Statistics(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, internalError("failed to compute statistics", err)
	}
	return stats, nil
}
