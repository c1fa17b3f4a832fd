// Package client is a small Go client for the bookstore back-office API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
)

// APIError is returned for every non 2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("bookstore api: %d %s", e.StatusCode, e.Message)
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type errorEnvelope struct {
	Message string `json:"message"`
}

type Client struct {
	http *resty.Client
}

func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json").
			SetError(&errorEnvelope{}),
	}
}

// SetToken authenticates every following request
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out envelope[T]
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		var zero T
		apiErr := &APIError{StatusCode: resp.StatusCode()}
		if e, ok := resp.Error().(*errorEnvelope); ok {
			apiErr.Message = e.Message
		}
		return zero, apiErr
	}
	return out.Data, nil
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username,omitempty"`
}

type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (c *Client) Register(ctx context.Context, creds Credentials) (User, error) {
	return do[User](ctx, c, http.MethodPost, "/auth/register", creds)
}

// Login authenticates and keeps the issued token for later calls.
func (c *Client) Login(ctx context.Context, creds Credentials) (Token, error) {
	token, err := do[Token](ctx, c, http.MethodPost, "/auth/login", Credentials{Email: creds.Email, Password: creds.Password})
	if err != nil {
		return token, err
	}
	c.SetToken(token.AccessToken)
	return token, nil
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := do[any](ctx, c, http.MethodPost, "/auth/logout", nil)
	return err
}

func (c *Client) CreateGenre(ctx context.Context, name string) (entity.Genre, error) {
	return do[entity.Genre](ctx, c, http.MethodPost, "/genre", map[string]string{"name": name})
}

func (c *Client) ListGenres(ctx context.Context) ([]entity.Genre, error) {
	return do[[]entity.Genre](ctx, c, http.MethodGet, "/genre", nil)
}

type NewBook struct {
	Title           string          `json:"title"`
	Writer          string          `json:"writer"`
	Publisher       string          `json:"publisher"`
	PublicationYear int             `json:"publication_year"`
	Description     string          `json:"description,omitempty"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stock_quantity"`
	GenreID         string          `json:"genre_id"`
}

func (c *Client) CreateBook(ctx context.Context, book NewBook) (entity.Book, error) {
	return do[entity.Book](ctx, c, http.MethodPost, "/books", book)
}

func (c *Client) GetBook(ctx context.Context, id string) (entity.Book, error) {
	return do[entity.Book](ctx, c, http.MethodGet, "/books/"+id, nil)
}

type Item struct {
	BookID   string `json:"book_id"`
	Quantity int    `json:"quantity"`
}

func (c *Client) CreateTransaction(ctx context.Context, items ...Item) (entity.Order, error) {
	return do[entity.Order](ctx, c, http.MethodPost, "/transactions", map[string][]Item{"items": items})
}

func (c *Client) GetTransaction(ctx context.Context, id string) (entity.Order, error) {
	return do[entity.Order](ctx, c, http.MethodGet, "/transactions/"+id, nil)
}

func (c *Client) ListTransactions(ctx context.Context) ([]entity.Order, error) {
	return do[[]entity.Order](ctx, c, http.MethodGet, "/transactions", nil)
}

func (c *Client) Statistics(ctx context.Context) (entity.TransactionStatistics, error) {
	return do[entity.TransactionStatistics](ctx, c, http.MethodGet, "/transactions/statistics/all", nil)
}
