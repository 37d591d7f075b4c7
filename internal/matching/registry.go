package matching

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrBookPoisoned is returned for any submission against a book that a
// prior invariant violation has taken offline. This is intentionally
// terminal for that symbol: the design treats an invariant violation as a
// bug, not a condition to route around.
var ErrBookPoisoned = errors.New("matching: book is poisoned by a prior invariant violation")

// bookEntry pairs a book with the exclusive lock that serialises matching
// against it. The whole critical section — matching plus snapshot capture
// — runs under mu, per the concurrency model: once acquired, matching
// never yields.
type bookEntry struct {
	mu       sync.Mutex
	book     *OrderBook
	poisoned bool
}

// Registry maps symbol to book, creating books lazily on first reference.
// Different symbols matched concurrently never contend; the registry's own
// mutex is only ever held for the brief insert-or-get path.
type Registry struct {
	mu    sync.Mutex
	books map[string]*bookEntry
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{books: make(map[string]*bookEntry)}
}

func (r *Registry) entry(symbol string) *bookEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.books[symbol]
	if !ok {
		e = &bookEntry{book: NewOrderBook(symbol)}
		r.books[symbol] = e
	}
	return e
}

// WithBook runs fn under the exclusive lock of symbol's book, lazily
// creating the book on first reference. If fn returns an *InvariantError,
// the book is poisoned: every subsequent call for the same symbol fails
// fast with ErrBookPoisoned instead of operating on state that may be
// corrupted. The violation itself is logged at Panic level and re-raised
// as a panic — this is a detected-impossible-state, not an ordinary
// error path, and callers serving HTTP rely on gin.Recovery() to turn it
// into a 500 without bringing the process down.
func (r *Registry) WithBook(symbol string, fn func(*OrderBook) error) error {
	e := r.entry(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.poisoned {
		return ErrBookPoisoned
	}

	err := fn(e.book)
	var invariant *InvariantError
	if errors.As(err, &invariant) {
		e.poisoned = true
		log.Panic().
			Str("symbol", symbol).
			Str("detail", invariant.Detail).
			Msg("book poisoned by invariant violation")
	}
	return err
}
