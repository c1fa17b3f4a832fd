package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
)

const orderColumns = `o.id, o.user_id, o.total_price, o.created_at, u.id, u.email, u.username`

type orderRepository struct {
	db querier
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, user_id, total_price, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, order.ID, order.UserID, order.TotalPrice, order.CreatedAt)
	return translate(err)
}

func (r *orderRepository) CreateItem(ctx context.Context, item *entity.OrderItem) error {
	query := `
		INSERT INTO order_items (id, order_id, book_id, quantity)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, item.ID, item.OrderID, item.BookID, item.Quantity)
	return translate(err)
}

func (r *orderRepository) SetTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	return mustAffect(r.db.Exec(ctx, `UPDATE orders SET total_price = $2 WHERE id = $1`, orderID, total))
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		order entity.Order
		user  entity.UserSummary
	)
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalPrice,
		&order.CreatedAt,
		&user.ID,
		&user.Email,
		&user.Username,
	)
	if err != nil {
		return nil, err
	}
	order.User = &user
	order.Items = []entity.OrderItem{}
	return &order, nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN users u ON u.id = o.user_id WHERE o.id = $1`
	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}

	items, err := r.itemsOf(ctx, []string{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = append(order.Items, items[order.ID]...)
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o JOIN users u ON u.id = o.user_id ORDER BY o.created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	orders := []entity.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if len(orders) == 0 {
		return orders, nil
	}

	items, err := r.itemsOf(ctx, lo.Map(orders, func(o entity.Order, _ int) string { return o.ID }))
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = append(orders[i].Items, items[orders[i].ID]...)
	}
	return orders, nil
}

// itemsOf loads the items of the given orders keyed by order id, each in
// the order they were written.
func (r *orderRepository) itemsOf(ctx context.Context, orderIDs []string) (map[string][]entity.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.book_id, oi.quantity, b.id, b.title, b.price, b.writer
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.seq
	`
	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	items := make(map[string][]entity.OrderItem, len(orderIDs))
	for rows.Next() {
		var (
			item entity.OrderItem
			book entity.BookSummary
		)
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.BookID,
			&item.Quantity,
			&book.ID,
			&book.Title,
			&book.Price,
			&book.Writer,
		); err != nil {
			return nil, err
		}
		item.Book = &book
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	return items, rows.Err()
}

func (r *orderRepository) Statistics(ctx context.Context) (*entity.TransactionStatistics, error) {
	stats := &entity.TransactionStatistics{AllGenres: []entity.GenreSales{}}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&stats.TotalTransactions); err != nil {
		return nil, translate(err)
	}

	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(AVG(quantity), 0)::float8
		FROM order_items
	`).Scan(&stats.TotalItemsSold, &stats.AverageQuantityPerTransaction)
	if err != nil {
		return nil, translate(err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT g.name, COUNT(oi.id), COUNT(DISTINCT b.id)
		FROM order_items oi
		JOIN books b ON b.id = oi.book_id
		JOIN genres g ON g.id = b.genre_id
		WHERE b.deleted_at IS NULL
		GROUP BY g.id, g.name
		ORDER BY COUNT(oi.id) DESC, g.name ASC
	`)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	for rows.Next() {
		var sales entity.GenreSales
		if err := rows.Scan(&sales.Genre, &sales.TotalSold, &sales.UniqueBooks); err != nil {
			return nil, err
		}
		stats.AllGenres = append(stats.AllGenres, sales)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if n := len(stats.AllGenres); n > 0 {
		most, least := stats.AllGenres[0], stats.AllGenres[n-1]
		stats.GenreMostSold = &most
		stats.GenreLeastSold = &least
	}
	return stats, nil
}
