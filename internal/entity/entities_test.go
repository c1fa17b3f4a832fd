package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewOrder(t *testing.T) {
	// Arrange
	userID := "user-456"

	// Act
	order := NewOrder(userID)

	// Assert
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, userID, order.UserID)
	assert.True(t, order.TotalPrice.IsZero())
	assert.Empty(t, order.Items)
	assert.WithinDuration(t, time.Now(), order.CreatedAt, time.Second)
}

func TestNewBook(t *testing.T) {
	book := NewBook("Go in Action", "Kennedy", "Manning", 2015, "", decimal.NewFromInt(10), 5, "genre-1")

	assert.NotEmpty(t, book.ID)
	assert.False(t, book.IsDeleted())
	assert.True(t, book.HasStock(5))
	assert.False(t, book.HasStock(6))
	assert.Equal(t, book.CreatedAt, book.UpdatedAt)
}

func TestBookIsDeleted(t *testing.T) {
	book := NewBook("Deleted", "W", "P", 2000, "", decimal.Zero, 0, "g")
	now := time.Now()
	book.DeletedAt = &now

	assert.True(t, book.IsDeleted())
}

func TestUserSummary(t *testing.T) {
	user := NewUser("ana@example.com", "ana", "hash")

	summary := user.Summary()

	assert.Equal(t, UserSummary{ID: user.ID, Email: "ana@example.com", Username: "ana"}, summary)
}

func TestNewOrderItem(t *testing.T) {
	item := NewOrderItem("order-1", "book-1", 3)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "order-1", item.OrderID)
	assert.Equal(t, "book-1", item.BookID)
	assert.Equal(t, 3, item.Quantity)
}
