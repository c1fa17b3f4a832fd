package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account able to place transactions
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUser creates a new User with a hashed password
func NewUser(email, username, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:        uuid.New().String(),
		Email:     email,
		Username:  username,
		Password:  passwordHash,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Summary returns the public projection embedded in transactions
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Username: u.Username}
}

// UserSummary is the user view attached to an order
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Genre classifies books
type Genre struct {
	ID        string     `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at" db:"deleted_at"`
}

// NewGenre creates a new Genre
func NewGenre(name string) *Genre {
	now := time.Now().UTC()
	return &Genre{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (g *Genre) IsDeleted() bool {
	return g.DeletedAt != nil
}

// Book is a purchasable item
type Book struct {
	ID              string          `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Writer          string          `json:"writer" db:"writer"`
	Publisher       string          `json:"publisher" db:"publisher"`
	PublicationYear int             `json:"publication_year" db:"publication_year"`
	Description     string          `json:"description" db:"description"`
	Price           decimal.Decimal `json:"price" db:"price"`
	StockQuantity   int             `json:"stock_quantity" db:"stock_quantity"`
	GenreID         string          `json:"genre_id" db:"genre_id"`
	Genre           *Genre          `json:"genre,omitempty" db:"-"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt       *time.Time      `json:"deleted_at" db:"deleted_at"`
}

// NewBook creates a new Book
func NewBook(title, writer, publisher string, publicationYear int, description string, price decimal.Decimal, stock int, genreID string) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:              uuid.New().String(),
		Title:           title,
		Writer:          writer,
		Publisher:       publisher,
		PublicationYear: publicationYear,
		Description:     description,
		Price:           price,
		StockQuantity:   stock,
		GenreID:         genreID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (b *Book) IsDeleted() bool {
	return b.DeletedAt != nil
}

// HasStock reports whether quantity units can be taken from the book
func (b *Book) HasStock(quantity int) bool {
	return b.StockQuantity >= quantity
}

// BookSummary is the book view attached to an order item
type BookSummary struct {
	ID     string          `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Writer string          `json:"writer"`
}

// Order represents one checkout. Orders are never updated after commit.
type Order struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	User       *UserSummary    `json:"user,omitempty" db:"-"`
	Items      []OrderItem     `json:"items" db:"-"`
}

// NewOrder creates a new Order owned by userID
func NewOrder(userID string) *Order {
	return &Order{
		ID:         uuid.New().String(),
		UserID:     userID,
		TotalPrice: decimal.Zero,
		CreatedAt:  time.Now().UTC(),
		Items:      []OrderItem{},
	}
}

// OrderItem is one line of an order
type OrderItem struct {
	ID       string       `json:"id" db:"id"`
	OrderID  string       `json:"order_id" db:"order_id"`
	BookID   string       `json:"book_id" db:"book_id"`
	Quantity int          `json:"quantity" db:"quantity"`
	Book     *BookSummary `json:"book,omitempty" db:"-"`
}

// NewOrderItem creates a new OrderItem
func NewOrderItem(orderID, bookID string, quantity int) *OrderItem {
	return &OrderItem{
		ID:       uuid.New().String(),
		OrderID:  orderID,
		BookID:   bookID,
		Quantity: quantity,
	}
}

// GenreSales aggregates sold items per genre
type GenreSales struct {
	Genre       string `json:"genre"`
	TotalSold   int64  `json:"total_sold"`
	UniqueBooks int64  `json:"unique_books"`
}

// TransactionStatistics is the aggregate view over all orders
type TransactionStatistics struct {
	TotalTransactions             int64        `json:"totalTransactions"`
	TotalItemsSold                int64        `json:"totalItemsSold"`
	AverageQuantityPerTransaction float64      `json:"averageQuantityPerTransaction"`
	GenreMostSold                 *GenreSales  `json:"genreMostSold"`
	GenreLeastSold                *GenreSales  `json:"genreLeastSold"`
	AllGenres                     []GenreSales `json:"allGenres"`
}
