package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yard-planner/backend/internal/interaction"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/yard"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSeed() Seed {
	return Seed{
		Name: "data.json",
		Records: []models.ContainerRecord{
			{ContainerNumber: "MSCU1111111", Size: "20ft", ShippingLine: "MSC", Location: "A1"},
			{ContainerNumber: "MAEU2222222", Size: "40ft", ShippingLine: "Maersk", Location: "B2"},
			{ContainerNumber: "CMAU3333333", Size: "20ft", ShippingLine: "CMA", Location: ""},
		},
	}
}

func newTestManager(t *testing.T, max int) (*Manager, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
	m, err := NewManager(Options{
		Layout:      yard.DefaultLayout(),
		MaxSessions: max,
		Now:         clock.Now,
	})
	require.NoError(t, err)
	return m, clock
}

func TestNewManager_InvalidLayout(t *testing.T) {
	layout := yard.DefaultLayout()
	layout.Capacity = 0
	_, err := NewManager(Options{Layout: layout})
	assert.Error(t, err)
}

func TestManager_CreateAndGet(t *testing.T) {
	m, _ := newTestManager(t, 0)

	info, err := m.Create(testSeed())
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "data.json", info.SeedName)
	assert.Equal(t, 3, info.Seed.Registered)
	assert.Equal(t, 2, info.Seed.Placed)
	assert.Equal(t, 1, info.Seed.Unassigned)

	got, ok := m.Get(info.ID)
	require.True(t, ok)
	assert.Equal(t, info.ID, got.ID)

	_, ok = m.Get("nope")
	assert.False(t, ok)
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m, _ := newTestManager(t, 0)

	a, err := m.Create(testSeed())
	require.NoError(t, err)
	b, err := m.Create(testSeed())
	require.NoError(t, err)

	require.NoError(t, m.With(a.ID, func(s *YardSession) error {
		_, err := s.Engine().MoveToSlot("MSCU1111111", "C3")
		return err
	}))

	require.NoError(t, m.With(b.ID, func(s *YardSession) error {
		holder, err := s.Engine().Registry().HolderOf("MSCU1111111")
		require.NoError(t, err)
		assert.Equal(t, models.SlotHolder("A1"), holder)
		return nil
	}))
}

func TestManager_WithUnknownSession(t *testing.T) {
	m, _ := newTestManager(t, 0)
	err := m.With("missing", func(*YardSession) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = m.Journal("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Journal(t *testing.T) {
	m, clock := newTestManager(t, 0)
	info, err := m.Create(testSeed())
	require.NoError(t, err)

	require.NoError(t, m.With(info.ID, func(s *YardSession) error {
		res, err := s.Surface().Move("CMAU3333333", interaction.Target{Kind: interaction.TargetSlot, Location: "D4"})
		require.NoError(t, err)
		assert.True(t, res.Accepted)

		clock.Advance(time.Second)
		res, err = s.Surface().Move("MAEU2222222", interaction.Target{Kind: interaction.TargetSlot, Location: "A6"})
		require.NoError(t, err)
		assert.False(t, res.Accepted)
		return nil
	}))

	journal, err := m.Journal(info.ID)
	require.NoError(t, err)
	require.Len(t, journal, 2)

	assert.Equal(t, models.MoveAccepted, journal[0].Outcome)
	assert.Equal(t, models.UnassignedHolder, journal[0].From)
	assert.Equal(t, models.SlotHolder("D4"), journal[0].To)

	assert.Equal(t, models.MoveRejected, journal[1].Outcome)
	assert.Equal(t, string(yard.LastRowRestricted), journal[1].Reason)
	assert.NotEmpty(t, journal[1].Message)
	assert.True(t, journal[1].At.After(journal[0].At))

	got, _ := m.Get(info.ID)
	assert.Equal(t, 2, got.Moves)
}

func TestManager_SerialisesCallsPerSession(t *testing.T) {
	m, _ := newTestManager(t, 0)
	info, err := m.Create(Seed{})
	require.NoError(t, err)

	active := 0
	maxActive := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.With(info.ID, func(*YardSession) error {
				active++
				if active > maxActive {
					maxActive = active
				}
				time.Sleep(time.Millisecond)
				active--
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxActive)
}

func TestManager_Delete(t *testing.T) {
	m, _ := newTestManager(t, 0)
	info, _ := m.Create(testSeed())

	assert.True(t, m.Delete(info.ID))
	assert.False(t, m.Delete(info.ID))
	assert.Equal(t, 0, m.Len())
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m, clock := newTestManager(t, 2)

	first, _ := m.Create(testSeed())
	clock.Advance(time.Minute)
	second, _ := m.Create(testSeed())
	clock.Advance(time.Minute)
	assert.True(t, m.Touch(first.ID))
	clock.Advance(time.Minute)

	third, err := m.Create(testSeed())
	require.NoError(t, err)

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get(second.ID)
	assert.False(t, ok, "least recently used session should be evicted")
	_, ok = m.Get(first.ID)
	assert.True(t, ok)
	_, ok = m.Get(third.ID)
	assert.True(t, ok)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, third.ID, list[0].ID)
}

func TestManager_CleanupOldSessions(t *testing.T) {
	m, clock := newTestManager(t, 0)

	stale, _ := m.Create(testSeed())
	clock.Advance(40 * time.Minute)
	fresh, _ := m.Create(testSeed())
	clock.Advance(2 * time.Minute)

	removed := m.CleanupOldSessions(30 * time.Minute)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(stale.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)

	// Recently used sessions survive even a zero max age.
	assert.Equal(t, 0, m.CleanupOldSessions(0))
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, time.Millisecond, time.Hour) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
