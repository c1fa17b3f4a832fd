package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/matheusmosca/bookstore-backoffice/internal/entity"
	"github.com/matheusmosca/bookstore-backoffice/internal/repository"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("transaction has already been committed or rolled back")

type dataset struct {
	users  map[string]entity.User
	genres map[string]entity.Genre
	books  map[string]entity.Book
	orders map[string]entity.Order
	items  []entity.OrderItem

	// seq keeps insertion order to break created_at ties.
	seq     map[string]int64
	nextSeq int64
}

func newDataset() *dataset {
	return &dataset{
		users:  map[string]entity.User{},
		genres: map[string]entity.Genre{},
		books:  map[string]entity.Book{},
		orders: map[string]entity.Order{},
		seq:    map[string]int64{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:   make(map[string]entity.User, len(d.users)),
		genres:  make(map[string]entity.Genre, len(d.genres)),
		books:   make(map[string]entity.Book, len(d.books)),
		orders:  make(map[string]entity.Order, len(d.orders)),
		items:   make([]entity.OrderItem, len(d.items)),
		seq:     make(map[string]int64, len(d.seq)),
		nextSeq: d.nextSeq,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.genres {
		c.genres[k] = v
	}
	for k, v := range d.books {
		c.books[k] = v
	}
	for k, v := range d.orders {
		c.orders[k] = v
	}
	copy(c.items, d.items)
	for k, v := range d.seq {
		c.seq[k] = v
	}
	return c
}

func (d *dataset) track(id string) {
	d.nextSeq++
	d.seq[id] = d.nextSeq
}

type access interface {
	read(ctx context.Context, fn func(d *dataset) error) error
	write(ctx context.Context, fn func(d *dataset) error) error
}

// Store keeps every table in process memory. Write transactions are
// serialised: BeginTx waits until the previous transaction has finished, so
// a locked read inside a transaction always observes committed state.
type Store struct {
	// sem is held by the open transaction or by a single autocommit write.
	sem  chan struct{}
	mu   sync.RWMutex
	data *dataset
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		sem:  make(chan struct{}, 1),
		data: newDataset(),
	}
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) release() {
	<-s.sem
}

func (s *Store) read(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

func (s *Store) write(ctx context.Context, fn func(d *dataset) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	// Work on a copy so a failing write leaves nothing behind.
	s.mu.RLock()
	next := s.data.clone()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = next
	s.mu.Unlock()
	return nil
}

func (s *Store) Users() repository.UserRepository   { return userRepository{s} }
func (s *Store) Genres() repository.GenreRepository { return genreRepository{s} }
func (s *Store) Books() repository.BookRepository   { return bookRepository{s} }
func (s *Store) Orders() repository.OrderRepository { return orderRepository{s} }

// BeginTx opens a transaction over a private copy of the data.
func (s *Store) BeginTx(ctx context.Context) (repository.Tx, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	return &memoryTx{store: s, data: snapshot}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() {}

type memoryTx struct {
	store *Store
	data  *dataset
	done  bool
}

func (t *memoryTx) read(ctx context.Context, fn func(d *dataset) error) error {
	if t.done {
		return ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(t.data)
}

func (t *memoryTx) write(ctx context.Context, fn func(d *dataset) error) error {
	return t.read(ctx, fn)
}

func (t *memoryTx) Users() repository.UserRepository   { return userRepository{t} }
func (t *memoryTx) Genres() repository.GenreRepository { return genreRepository{t} }
func (t *memoryTx) Books() repository.BookRepository   { return bookRepository{t} }
func (t *memoryTx) Orders() repository.OrderRepository { return orderRepository{t} }

func (t *memoryTx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	t.store.mu.Lock()
	t.store.data = t.data
	t.store.mu.Unlock()
	t.store.release()
	return nil
}

func (t *memoryTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.data = nil
	t.store.release()
	return nil
}
