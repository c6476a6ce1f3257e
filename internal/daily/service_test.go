package daily

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prepday/internal/catalog"
	"github.com/abhisek/prepday/internal/planner"
	"github.com/abhisek/prepday/internal/store"
)

// dayClock is a settable clock.
type dayClock struct {
	mu   sync.Mutex
	date string
}

func (c *dayClock) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

func (c *dayClock) Set(d string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.date = d
}

// hookRepo wraps a repo and runs beforePut once before the first Put.
type hookRepo struct {
	store.UserStateRepo
	once      sync.Once
	beforePut func()
	puts      int
}

func (r *hookRepo) Put(ctx context.Context, s *store.UserState) error {
	r.puts++
	if r.beforePut != nil {
		r.once.Do(r.beforePut)
	}
	return r.UserStateRepo.Put(ctx, s)
}

// conflictRepo fails the first n puts with a version conflict.
type conflictRepo struct {
	store.UserStateRepo
	n    int
	puts int
}

func (r *conflictRepo) Put(ctx context.Context, s *store.UserState) error {
	r.puts++
	if r.puts <= r.n {
		return store.ErrVersionConflict
	}
	return r.UserStateRepo.Put(ctx, s)
}

type brokenRepo struct {
	store.UserStateRepo
	getErr, putErr error
}

func (r *brokenRepo) Get(ctx context.Context, id string) (*store.UserState, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	return r.UserStateRepo.Get(ctx, id)
}

func (r *brokenRepo) Put(ctx context.Context, s *store.UserState) error {
	if r.putErr != nil {
		return r.putErr
	}
	return r.UserStateRepo.Put(ctx, s)
}

// ctxRepo fails every call whose context is done.
type ctxRepo struct {
	store.UserStateRepo
}

func (r *ctxRepo) Get(ctx context.Context, id string) (*store.UserState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.UserStateRepo.Get(ctx, id)
}

func (r *ctxRepo) Put(ctx context.Context, s *store.UserState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.UserStateRepo.Put(ctx, s)
}

// fakeEvents implements store.EventRepo for engine tests.
type fakeEvents struct {
	mu          sync.Mutex
	allocations []store.AllocationEventData
	completions []store.CompletionEventData
	err         error
}

func (f *fakeEvents) AppendAllocation(_ context.Context, d store.AllocationEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allocations = append(f.allocations, d)
	return f.err
}

func (f *fakeEvents) AppendCompletion(_ context.Context, d store.CompletionEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions = append(f.completions, d)
	return f.err
}

func (f *fakeEvents) QueryAllocations(_ context.Context, _ store.QueryOpts) ([]store.AllocationEvent, error) {
	return nil, nil
}

func (f *fakeEvents) QueryCompletions(_ context.Context, _ store.QueryOpts) ([]store.CompletionEvent, error) {
	return nil, nil
}

func (f *fakeEvents) Prune(_ context.Context, _ int) (int, error) { return 0, nil }

type panicRand struct{}

func (panicRand) Float64() float64 { panic("boom") }

func seeded(seed uint64) Option {
	return WithRandSource(func() planner.Rand {
		return rand.New(rand.NewPCG(seed, seed))
	})
}

func newTestService(t *testing.T, repo store.UserStateRepo, clk *dayClock, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{seeded(7)}, opts...)
	svc, err := NewService(catalog.Default(), repo, clk, opts...)
	require.NoError(t, err)
	return svc
}

func assignedIDs(as []store.DailyAssignment) []string {
	ids := make([]string, len(as))
	for i, a := range as {
		ids[i] = a.ModuleID
	}
	return ids
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(nil, store.NewMemoryStore(), &dayClock{})
	assert.Error(t, err)

	bad := planner.DefaultPolicy()
	bad.MinMinutes = 200
	_, err = NewService(catalog.Default(), store.NewMemoryStore(), &dayClock{}, WithPolicy(bad))
	assert.Error(t, err)
}

func TestFirstTransitionAllocates(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

	res := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.NotNil(t, res)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "2024-05-01", res.Date)
	assert.Equal(t, planner.InBand, res.Budget)
	assert.NotEmpty(t, res.RunID)
	assert.GreaterOrEqual(t, res.TotalDuration, 170)
	assert.LessOrEqual(t, res.TotalDuration, 190)

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, int64(1), st.Version)
	assert.Equal(t, "2024-05-01", st.CurrentDate)
	assert.Equal(t, assignedIDs(res.DailyAssignments), assignedIDs(st.DailyAssignments))
	assert.Empty(t, st.CarryOver)
	assert.LessOrEqual(t, len(st.RecentHistory), 15)

	groups := map[catalog.Group]bool{}
	total := 0
	for _, a := range st.DailyAssignments {
		assert.Equal(t, "2024-05-01", a.AssignedDate)
		assert.False(t, a.IsCompleted)
		m := catalog.Default().MustGet(a.ModuleID)
		groups[m.Group] = true
		total += m.Duration
	}
	assert.Len(t, groups, 7)
	assert.Equal(t, res.TotalDuration, total)
}

func TestTransitionIsIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

	require.NotNil(t, svc.CheckAndTransitionIfNewDay(ctx, "u1"))
	assert.Nil(t, svc.CheckAndTransitionIfNewDay(ctx, "u1"))
	assert.Nil(t, svc.CheckAndTransitionIfNewDay(ctx, "u1"))

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Version)
}

func TestNewDayCarriesOverIncomplete(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	clk := &dayClock{date: "2024-05-01"}
	svc := newTestService(t, repo, clk)

	first := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.True(t, first.Success)
	ids := assignedIDs(first.DailyAssignments)
	require.Greater(t, len(ids), 2)

	// Leave the first two unfinished.
	for _, id := range ids[2:] {
		_, err := svc.ToggleCompletion(ctx, "u1", id)
		require.NoError(t, err)
	}

	clk.Set("2024-05-02")
	next := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.NotNil(t, next)
	require.True(t, next.Success, next.Message)
	assert.ElementsMatch(t, ids[:2], next.CarryOver)
	assert.Subset(t, assignedIDs(next.DailyAssignments), ids[:2])

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", st.CurrentDate)
	assert.Empty(t, st.CarryOver)
	for _, a := range st.DailyAssignments {
		assert.Equal(t, "2024-05-02", a.AssignedDate)
		assert.False(t, a.IsCompleted)
	}
	for _, id := range ids[2:] {
		assert.Equal(t, 1, st.Stat(id).CompletedCount)
	}
}

func TestCarryOverOnlyAcrossDays(t *testing.T) {
	st := store.NewUserState("u1")
	st.CurrentDate = "2024-05-01"
	st.DailyAssignments = []store.DailyAssignment{
		{ModuleID: "Part 1 01", AssignedDate: "2024-05-01"},
		{ModuleID: "Part 2 01", IsCompleted: true, AssignedDate: "2024-05-01"},
		{ModuleID: "Part 7 01", AssignedDate: "2024-05-01"},
	}
	st.CarryOver = []string{"Part 7 01", "Part 6 02"}

	assert.Equal(t, []string{"Part 1 01", "Part 7 01", "Part 6 02"}, carryOver(st, "2024-05-02"))
	assert.Equal(t, []string{"Part 7 01", "Part 6 02"}, carryOver(st, "2024-05-01"))
}

func TestGenerateSameDayRedraws(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

	first := svc.GenerateDailyAssignments(ctx, "u1")
	require.True(t, first.Success)
	second := svc.GenerateDailyAssignments(ctx, "u1")
	require.True(t, second.Success, second.Message)
	assert.Empty(t, second.CarryOver)

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Version)
	assert.Equal(t, assignedIDs(second.DailyAssignments), assignedIDs(st.DailyAssignments))
}

func TestNoEligibleModulesLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	p := planner.DefaultPolicy()

	st := store.NewUserState("u1")
	st.CurrentDate = "2024-04-30"
	st.DailyAssignments = []store.DailyAssignment{
		{ModuleID: "Part 1 01", IsCompleted: true, AssignedDate: "2024-04-30"},
	}
	for i, m := range catalog.Default().All() {
		if i < 2 {
			continue
		}
		st.Stats = append(st.Stats, store.PracticeStat{ModuleID: m.ID, CompletedCount: p.Cap(m.Category)})
	}
	require.NoError(t, repo.Put(ctx, st))

	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})
	res := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrNoEligibleModules)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.DailyAssignments)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, "2024-04-30", got.CurrentDate)
	assert.Equal(t, st.DailyAssignments, got.DailyAssignments)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")

	t.Run("get", func(t *testing.T) {
		repo := &brokenRepo{UserStateRepo: store.NewMemoryStore(), getErr: down}
		svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

		res := svc.CheckAndTransitionIfNewDay(ctx, "u1")
		require.NotNil(t, res)
		assert.False(t, res.Success)
		var serr *StoreError
		require.ErrorAs(t, res.Err, &serr)
		assert.Equal(t, "get", serr.Op)
		assert.ErrorIs(t, res.Err, down)
	})

	t.Run("put", func(t *testing.T) {
		mem := store.NewMemoryStore()
		repo := &brokenRepo{UserStateRepo: mem, putErr: down}
		svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

		res := svc.GenerateDailyAssignments(ctx, "u1")
		assert.False(t, res.Success)
		var serr *StoreError
		require.ErrorAs(t, res.Err, &serr)
		assert.Equal(t, "put", serr.Op)

		got, err := mem.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestConflictRetriesWholePipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("retry succeeds", func(t *testing.T) {
		repo := &conflictRepo{UserStateRepo: store.NewMemoryStore(), n: 2}
		svc := newTestService(t, repo, &dayClock{date: "2024-05-01"})

		res := svc.GenerateDailyAssignments(ctx, "u1")
		require.True(t, res.Success, res.Message)
		assert.Equal(t, 3, repo.puts)
	})

	t.Run("attempts exhausted", func(t *testing.T) {
		repo := &conflictRepo{UserStateRepo: store.NewMemoryStore(), n: 10}
		svc := newTestService(t, repo, &dayClock{date: "2024-05-01"}, WithAttempts(2))

		res := svc.GenerateDailyAssignments(ctx, "u1")
		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, store.ErrVersionConflict)
		assert.Equal(t, 2, repo.puts)
	})

	t.Run("other writer transitioned first", func(t *testing.T) {
		mem := store.NewMemoryStore()
		clk := &dayClock{date: "2024-05-01"}
		other := newTestService(t, mem, clk)
		repo := &hookRepo{UserStateRepo: mem}
		repo.beforePut = func() {
			require.NotNil(t, other.CheckAndTransitionIfNewDay(ctx, "u1"))
		}
		svc := newTestService(t, repo, clk)

		assert.Nil(t, svc.CheckAndTransitionIfNewDay(ctx, "u1"))
		assert.Equal(t, 1, repo.puts)

		st, err := mem.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), st.Version)
	})
}

func TestConcurrentTransitionsAllocateOnce(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	events := &fakeEvents{}
	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"}, WithEvents(events))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if res := svc.CheckAndTransitionIfNewDay(ctx, "u1"); res != nil {
				assert.True(t, res.Success)
			}
		}()
	}
	wg.Wait()

	st, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Version)
	assert.Len(t, events.allocations, 1)
}

func TestTransitionSurvivesCallerCancellation(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(t, &ctxRepo{UserStateRepo: mem}, &dayClock{date: "2024-05-01"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.NotNil(t, res)
	require.True(t, res.Success, res.Message)

	st, err := mem.Get(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "2024-05-01", st.CurrentDate)
}

func TestEventsRecorded(t *testing.T) {
	ctx := context.Background()
	events := &fakeEvents{}
	svc := newTestService(t, store.NewMemoryStore(), &dayClock{date: "2024-05-01"}, WithEvents(events))

	res := svc.CheckAndTransitionIfNewDay(ctx, "u1")
	require.True(t, res.Success)
	id := res.DailyAssignments[0].ModuleID
	_, err := svc.ToggleCompletion(ctx, "u1", id)
	require.NoError(t, err)

	require.Len(t, events.allocations, 1)
	a := events.allocations[0]
	assert.Equal(t, res.RunID, a.RunID)
	assert.Equal(t, "transition", a.Kind)
	assert.True(t, a.Success)
	assert.Equal(t, assignedIDs(res.DailyAssignments), a.ModuleIDs)

	require.Len(t, events.completions, 1)
	assert.Equal(t, store.CompletionEventData{
		UserID: "u1", ModuleID: id, Date: "2024-05-01", Completed: true, CompletedCount: 1,
	}, events.completions[0])
}

func TestEventFailureDoesNotFailAllocation(t *testing.T) {
	events := &fakeEvents{err: errors.New("disk full")}
	svc := newTestService(t, store.NewMemoryStore(), &dayClock{date: "2024-05-01"}, WithEvents(events))

	res := svc.GenerateDailyAssignments(context.Background(), "u1")
	assert.True(t, res.Success)
}

func TestPanicBecomesFailure(t *testing.T) {
	ctx := context.Background()
	repo := store.NewMemoryStore()
	svc := newTestService(t, repo, &dayClock{date: "2024-05-01"},
		WithRandSource(func() planner.Rand { return panicRand{} }))

	res := svc.GenerateDailyAssignments(ctx, "u1")
	require.NotNil(t, res)
	assert.False(t, res.Success)
	assert.Error(t, res.Err)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEmptyUserID(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore(), &dayClock{date: "2024-05-01"})
	res := svc.GenerateDailyAssignments(context.Background(), "")
	assert.False(t, res.Success)
}
