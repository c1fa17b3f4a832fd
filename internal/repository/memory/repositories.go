package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

type userRepository struct{ a access }

func (r userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.a.write(ctx, func(d *dataset) error {
		for _, u := range d.users {
			if strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("email %s: %w", user.Email, repository.ErrDuplicate)
			}
		}
		d.users[user.ID] = *user
		d.track(user.ID)
		return nil
	})
}

func (r userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := r.a.read(ctx, func(d *dataset) error {
		u, ok := d.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user *entity.User
	err := r.a.read(ctx, func(d *dataset) error {
		u, ok := lo.Find(lo.Values(d.users), func(u entity.User) bool {
			return strings.EqualFold(u.Email, email)
		})
		if !ok {
			return repository.ErrNotFound
		}
		user = &u
		return nil
	})
	return user, err
}

type genreRepository struct{ a access }

func (r genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	return r.a.write(ctx, func(d *dataset) error {
		if nameTaken(d, genre.Name, "") {
			return fmt.Errorf("genre name %s: %w", genre.Name, repository.ErrDuplicate)
		}
		d.genres[genre.ID] = *genre
		d.track(genre.ID)
		return nil
	})
}

func nameTaken(d *dataset, name, exceptID string) bool {
	for _, g := range d.genres {
		if g.ID != exceptID && g.Name == name {
			return true
		}
	}
	return false
}

func (r genreRepository) GetByID(ctx context.Context, id string) (*entity.Genre, error) {
	var genre entity.Genre
	err := r.a.read(ctx, func(d *dataset) error {
		g, ok := d.genres[id]
		if !ok {
			return repository.ErrNotFound
		}
		genre = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

func (r genreRepository) GetByName(ctx context.Context, name string) (*entity.Genre, error) {
	var genre *entity.Genre
	err := r.a.read(ctx, func(d *dataset) error {
		g, ok := lo.Find(lo.Values(d.genres), func(g entity.Genre) bool { return g.Name == name })
		if !ok {
			return repository.ErrNotFound
		}
		genre = &g
		return nil
	})
	return genre, err
}

func (r genreRepository) List(ctx context.Context) ([]entity.Genre, error) {
	var genres []entity.Genre
	err := r.a.read(ctx, func(d *dataset) error {
		genres = lo.Filter(lo.Values(d.genres), func(g entity.Genre, _ int) bool { return !g.IsDeleted() })
		sort.Slice(genres, func(i, j int) bool {
			return newerFirst(d, genres[i].ID, genres[j].ID, genres[i].CreatedAt.UnixNano(), genres[j].CreatedAt.UnixNano())
		})
		return nil
	})
	return genres, err
}

func (r genreRepository) Update(ctx context.Context, genre *entity.Genre) error {
	return r.a.write(ctx, func(d *dataset) error {
		current, ok := d.genres[genre.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if nameTaken(d, genre.Name, genre.ID) {
			return fmt.Errorf("genre name %s: %w", genre.Name, repository.ErrDuplicate)
		}
		current.Name = genre.Name
		current.UpdatedAt = genre.UpdatedAt
		current.DeletedAt = genre.DeletedAt
		d.genres[genre.ID] = current
		return nil
	})
}

func newerFirst(d *dataset, idA, idB string, createdA, createdB int64) bool {
	if createdA != createdB {
		return createdA > createdB
	}
	return d.seq[idA] > d.seq[idB]
}

type bookRepository struct{ a access }

func titleTaken(d *dataset, title, exceptID string) bool {
	for _, b := range d.books {
		if b.ID != exceptID && b.Title == title {
			return true
		}
	}
	return false
}

func withGenre(d *dataset, b entity.Book) entity.Book {
	if g, ok := d.genres[b.GenreID]; ok {
		b.Genre = &g
	}
	return b
}

func (r bookRepository) Create(ctx context.Context, book *entity.Book) error {
	return r.a.write(ctx, func(d *dataset) error {
		if titleTaken(d, book.Title, "") {
			return fmt.Errorf("book title %s: %w", book.Title, repository.ErrDuplicate)
		}
		if _, ok := d.genres[book.GenreID]; !ok {
			return fmt.Errorf("genre %s: %w", book.GenreID, repository.ErrInvalidReference)
		}
		stored := *book
		stored.Genre = nil
		d.books[book.ID] = stored
		d.track(book.ID)
		return nil
	})
}

func (r bookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	var book entity.Book
	err := r.a.read(ctx, func(d *dataset) error {
		b, ok := d.books[id]
		if !ok {
			return repository.ErrNotFound
		}
		book = withGenre(d, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetForUpdate needs no extra locking: transactions are already serialised.
func (r bookRepository) GetForUpdate(ctx context.Context, id string) (*entity.Book, error) {
	return r.GetByID(ctx, id)
}

func (r bookRepository) GetByTitle(ctx context.Context, title string) (*entity.Book, error) {
	var book *entity.Book
	err := r.a.read(ctx, func(d *dataset) error {
		b, ok := lo.Find(lo.Values(d.books), func(b entity.Book) bool { return b.Title == title })
		if !ok {
			return repository.ErrNotFound
		}
		b = withGenre(d, b)
		book = &b
		return nil
	})
	return book, err
}

func (r bookRepository) List(ctx context.Context, filter repository.BookFilter) ([]entity.Book, int, error) {
	var (
		page  []entity.Book
		total int
	)
	query := strings.ToLower(filter.Query)
	err := r.a.read(ctx, func(d *dataset) error {
		matches := lo.Filter(lo.Values(d.books), func(b entity.Book, _ int) bool {
			if b.IsDeleted() {
				return false
			}
			if filter.GenreID != "" && b.GenreID != filter.GenreID {
				return false
			}
			return strings.Contains(strings.ToLower(b.Title), query)
		})
		sort.Slice(matches, func(i, j int) bool {
			return newerFirst(d, matches[i].ID, matches[j].ID, matches[i].CreatedAt.UnixNano(), matches[j].CreatedAt.UnixNano())
		})

		total = len(matches)
		offset := filter.Offset()
		if offset >= total {
			page = []entity.Book{}
			return nil
		}
		end := total
		if filter.Limit > 0 && offset+filter.Limit < total {
			end = offset + filter.Limit
		}
		page = lo.Map(matches[offset:end], func(b entity.Book, _ int) entity.Book { return withGenre(d, b) })
		return nil
	})
	return page, total, err
}

func (r bookRepository) CountActiveByGenre(ctx context.Context, genreID string) (int, error) {
	var count int
	err := r.a.read(ctx, func(d *dataset) error {
		count = lo.CountBy(lo.Values(d.books), func(b entity.Book) bool {
			return b.GenreID == genreID && !b.IsDeleted()
		})
		return nil
	})
	return count, err
}

func (r bookRepository) Update(ctx context.Context, book *entity.Book) error {
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.books[book.ID]; !ok {
			return repository.ErrNotFound
		}
		if titleTaken(d, book.Title, book.ID) {
			return fmt.Errorf("book title %s: %w", book.Title, repository.ErrDuplicate)
		}
		if _, ok := d.genres[book.GenreID]; !ok {
			return fmt.Errorf("genre %s: %w", book.GenreID, repository.ErrInvalidReference)
		}
		stored := *book
		stored.Genre = nil
		d.books[book.ID] = stored
		return nil
	})
}

func (r bookRepository) UpdateStock(ctx context.Context, id string, stock int) error {
	return r.a.write(ctx, func(d *dataset) error {
		book, ok := d.books[id]
		if !ok {
			return repository.ErrNotFound
		}
		if stock < 0 {
			return fmt.Errorf("stock_quantity of book %s would become %d: violates non-negative stock", id, stock)
		}
		book.StockQuantity = stock
		d.books[id] = book
		return nil
	})
}

type orderRepository struct{ a access }

func (r orderRepository) Create(ctx context.Context, order *entity.Order) error {
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.users[order.UserID]; !ok {
			return fmt.Errorf("user %s: %w", order.UserID, repository.ErrInvalidReference)
		}
		stored := *order
		stored.User = nil
		stored.Items = nil
		d.orders[order.ID] = stored
		d.track(order.ID)
		return nil
	})
}

func (r orderRepository) CreateItem(ctx context.Context, item *entity.OrderItem) error {
	return r.a.write(ctx, func(d *dataset) error {
		if _, ok := d.orders[item.OrderID]; !ok {
			return fmt.Errorf("order %s: %w", item.OrderID, repository.ErrInvalidReference)
		}
		if _, ok := d.books[item.BookID]; !ok {
			return fmt.Errorf("book %s: %w", item.BookID, repository.ErrInvalidReference)
		}
		stored := *item
		stored.Book = nil
		d.items = append(d.items, stored)
		return nil
	})
}

func (r orderRepository) SetTotal(ctx context.Context, orderID string, total decimal.Decimal) error {
	return r.a.write(ctx, func(d *dataset) error {
		order, ok := d.orders[orderID]
		if !ok {
			return repository.ErrNotFound
		}
		order.TotalPrice = total
		d.orders[orderID] = order
		return nil
	})
}

func compose(d *dataset, o entity.Order) entity.Order {
	if u, ok := d.users[o.UserID]; ok {
		summary := u.Summary()
		o.User = &summary
	}
	o.Items = []entity.OrderItem{}
	for _, item := range d.items {
		if item.OrderID != o.ID {
			continue
		}
		if b, ok := d.books[item.BookID]; ok {
			item.Book = &entity.BookSummary{ID: b.ID, Title: b.Title, Price: b.Price, Writer: b.Writer}
		}
		o.Items = append(o.Items, item)
	}
	return o
}

func (r orderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	var order entity.Order
	err := r.a.read(ctx, func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return repository.ErrNotFound
		}
		order = compose(d, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r orderRepository) List(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	err := r.a.read(ctx, func(d *dataset) error {
		orders = lo.Map(lo.Values(d.orders), func(o entity.Order, _ int) entity.Order { return compose(d, o) })
		sort.Slice(orders, func(i, j int) bool {
			return newerFirst(d, orders[i].ID, orders[j].ID, orders[i].CreatedAt.UnixNano(), orders[j].CreatedAt.UnixNano())
		})
		return nil
	})
	return orders, err
}

func (r orderRepository) Statistics(ctx context.Context) (*entity.TransactionStatistics, error) {
	stats := &entity.TransactionStatistics{AllGenres: []entity.GenreSales{}}
	err := r.a.read(ctx, func(d *dataset) error {
		stats.TotalTransactions = int64(len(d.orders))
		stats.TotalItemsSold = lo.SumBy(d.items, func(item entity.OrderItem) int64 { return int64(item.Quantity) })
		if len(d.items) > 0 {
			stats.AverageQuantityPerTransaction = float64(stats.TotalItemsSold) / float64(len(d.items))
		}

		type bucket struct {
			name  string
			lines int64
			books map[string]struct{}
		}
		buckets := map[string]*bucket{}
		for _, item := range d.items {
			book, ok := d.books[item.BookID]
			if !ok || book.IsDeleted() {
				continue
			}
			genre, ok := d.genres[book.GenreID]
			if !ok {
				continue
			}
			b, ok := buckets[genre.ID]
			if !ok {
				b = &bucket{name: genre.Name, books: map[string]struct{}{}}
				buckets[genre.ID] = b
			}
			b.lines++
			b.books[book.ID] = struct{}{}
		}

		stats.AllGenres = lo.MapToSlice(buckets, func(_ string, b *bucket) entity.GenreSales {
			return entity.GenreSales{Genre: b.name, TotalSold: b.lines, UniqueBooks: int64(len(b.books))}
		})
		sort.Slice(stats.AllGenres, func(i, j int) bool {
			if stats.AllGenres[i].TotalSold != stats.AllGenres[j].TotalSold {
				return stats.AllGenres[i].TotalSold > stats.AllGenres[j].TotalSold
			}
			return stats.AllGenres[i].Genre < stats.AllGenres[j].Genre
		})
		if n := len(stats.AllGenres); n > 0 {
			most, least := stats.AllGenres[0], stats.AllGenres[n-1]
			stats.GenreMostSold = &most
			stats.GenreLeastSold = &least
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
