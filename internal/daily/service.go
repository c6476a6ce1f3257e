// Package daily owns the day lifecycle of a learner's practice set: it
// detects civil-date rollover, carries unfinished modules forward, runs
// the planner and writes the new state back as one unit.
package daily

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/clock"
	"github.com/abhisek/prepday/internal/logger"
	"github.com/abhisek/prepday/internal/planner"
	"github.com/abhisek/prepday/internal/store"
)

// ErrNoEligibleModules is returned (wrapped) when the pool cannot support
// an allocation and nothing was carried over.
var ErrNoEligibleModules = planner.ErrNoEligibleModules

// ErrNotAssigned is returned when toggling a module that is not in the
// current daily set.
var ErrNotAssigned = errors.New("module is not assigned today")

// DefaultAttempts is how many times a write is retried after a version
// conflict before giving up.
const DefaultAttempts = 3

// StoreError reports a failed read or write of user state.
type StoreError struct {
	Op     string
	UserID string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.UserID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Service runs the engine entry points against a user state repository.
type Service struct {
	catalog  *catalog.Catalog
	repo     store.UserStateRepo
	clock    clock.Clock
	policy   planner.Policy
	newRand  func() planner.Rand
	log      *logger.Logger
	events   store.EventRepo
	attempts int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
	flight  singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithPolicy replaces the default allocation policy.
func WithPolicy(p planner.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithRandSource sets the factory for the random source used by each
// allocation. Tests pass a seeded generator.
func WithRandSource(f func() planner.Rand) Option {
	return func(s *Service) { s.newRand = f }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

// WithEvents records allocations and toggles to an event log. Event
// failures are logged and never fail the operation.
func WithEvents(r store.EventRepo) Option {
	return func(s *Service) { s.events = r }
}

// WithAttempts sets the number of tries for a conflicting write.
func WithAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.attempts = n
		}
	}
}

// NewService creates a Service. The catalog, repository and clock are
// required.
func NewService(cat *catalog.Catalog, repo store.UserStateRepo, clk clock.Clock, opts ...Option) (*Service, error) {
	if cat == nil || repo == nil || clk == nil {
		return nil, errors.New("daily: catalog, repository and clock are required")
	}
	s := &Service{
		catalog:  cat,
		repo:     repo,
		clock:    clk,
		policy:   planner.DefaultPolicy(),
		newRand:  func() planner.Rand { return globalRand{} },
		log:      logger.Nop(),
		attempts: DefaultAttempts,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Catalog returns the catalog the service allocates from.
func (s *Service) Catalog() *catalog.Catalog { return s.catalog }

// Policy returns the allocation policy.
func (s *Service) Policy() planner.Policy { return s.policy }

// Clock returns the service clock.
func (s *Service) Clock() clock.Clock { return s.clock }

// userLock returns the mutex serializing mutations for one user.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	if l, ok := s.locks[userID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[userID] = l
	return l
}

// load returns the stored state, or a fresh zero-value state for a user
// seen for the first time.
func (s *Service) load(ctx context.Context, userID string) (*store.UserState, error) {
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, &StoreError{Op: "get", UserID: userID, Err: err}
	}
	if st == nil {
		return store.NewUserState(userID), nil
	}
	st.Normalize()
	return st, nil
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
