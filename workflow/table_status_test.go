package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboard(t *testing.T, seed []TableRecord, opts ...StatusOption) (*TableStatusWorkflow, *Directory, *fakeGate, *fakeAuditor) {
	t.Helper()
	dir, err := NewDirectory(seed)
	require.NoError(t, err)
	gate := &fakeGate{}
	audit := &fakeAuditor{}
	opts = append([]StatusOption{WithStatusClock(fixedClock()), WithStatusLogger(quietLogger())}, opts...)
	return NewTableStatusWorkflow(dir, gate, audit, opts...), dir, gate, audit
}

func loggedIn(t *testing.T, w *TableStatusWorkflow) {
	t.Helper()
	_, err := w.Login(context.Background(), "maria", "s3cret")
	require.NoError(t, err)
	require.Equal(t, StageDashboard, w.Stage())
}

func TestLoginOpensDashboard(t *testing.T) {
	w, _, _, audit := newTestDashboard(t, DefaultFloorPlan())

	sess, err := w.Login(context.Background(), "  maria ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "maria", sess.Username)
	assert.Equal(t, StageDashboard, w.Stage())

	got, ok := w.Session()
	require.True(t, ok)
	assert.Equal(t, sess, got)

	require.Len(t, audit.attempts, 1)
	assert.Equal(t, "maria", audit.attempts[0].Username)
	assert.True(t, audit.attempts[0].Success)
}

func TestLoginRequiresBothFields(t *testing.T) {
	w, _, _, audit := newTestDashboard(t, DefaultFloorPlan())

	_, err := w.Login(context.Background(), "", "x")
	assert.True(t, IsValidation(err))
	_, err = w.Login(context.Background(), "maria", "")
	assert.True(t, IsValidation(err))
	assert.Equal(t, StageLoggedOut, w.Stage())
	assert.Empty(t, audit.attempts)
}

func TestLoginRejectedByGate(t *testing.T) {
	w, _, gate, audit := newTestDashboard(t, DefaultFloorPlan())
	gate.AuthFunc = func(ctx context.Context, username, password string) (Session, error) {
		return Session{}, ErrInvalidCredentials
	}

	_, err := w.Login(context.Background(), "maria", "wrong")
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, StageLoggedOut, w.Stage())
	_, ok := w.Session()
	assert.False(t, ok)

	require.Len(t, audit.attempts, 1)
	assert.False(t, audit.attempts[0].Success)
}

func TestLoginGateOutageIsNotRejection(t *testing.T) {
	w, _, gate, audit := newTestDashboard(t, DefaultFloorPlan())
	outage := errors.New("dial tcp 10.0.0.5:3306: connection refused")
	gate.AuthFunc = func(ctx context.Context, username, password string) (Session, error) {
		return Session{}, outage
	}

	_, err := w.Login(context.Background(), "maria", "s3cret")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, outage)
	var ae *AuthError
	assert.False(t, errors.As(err, &ae))
	assert.Equal(t, StageLoggedOut, w.Stage())
	assert.Empty(t, audit.attempts)

	gate.AuthFunc = func(ctx context.Context, username, password string) (Session, error) {
		return Session{}, fmt.Errorf("user %q: %w", username, ErrInvalidCredentials)
	}
	_, err = w.Login(context.Background(), "maria", "wrong")
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, audit.attempts, 1)
	assert.False(t, audit.attempts[0].Success)
}

func TestLoginInFlightGuard(t *testing.T) {
	w, _, gate, _ := newTestDashboard(t, DefaultFloorPlan())
	entered := make(chan struct{})
	release := make(chan struct{})
	gate.AuthFunc = func(ctx context.Context, username, password string) (Session, error) {
		close(entered)
		<-release
		return Session{Username: username}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := w.Login(context.Background(), "maria", "s3cret")
		done <- err
	}()
	<-entered

	assert.Equal(t, StageAuthenticating, w.Stage())
	assert.True(t, w.Busy())
	_, err := w.Login(context.Background(), "maria", "s3cret")
	assert.ErrorIs(t, err, ErrInFlight)
	assert.ErrorIs(t, w.Logout(), ErrInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StageDashboard, w.Stage())
	assert.False(t, w.Busy())
}

func TestDashboardRequiresLogin(t *testing.T) {
	w, _, _, _ := newTestDashboard(t, DefaultFloorPlan())
	ctx := context.Background()

	assert.ErrorIs(t, w.SelectTable(ctx, 1), ErrInvalidTransition)
	_, err := w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	v, err := w.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, StageLoggedOut, v.Stage)
	assert.Empty(t, v.Tables)
}

func TestSelectTableOpensSingleMenu(t *testing.T) {
	w, _, _, _ := newTestDashboard(t, DefaultFloorPlan())
	loggedIn(t, w)
	ctx := context.Background()

	require.NoError(t, w.SelectTable(ctx, 2))
	require.NoError(t, w.SelectTable(ctx, 5))

	v, err := w.View(ctx)
	require.NoError(t, err)
	assert.True(t, v.StatusMenuOpen)
	require.NotNil(t, v.SelectedTableID)
	assert.Equal(t, uint(5), *v.SelectedTableID)

	assert.ErrorIs(t, w.SelectTable(ctx, 42), ErrTableNotFound)

	require.NoError(t, w.CloseMenu())
	v, err = w.View(ctx)
	require.NoError(t, err)
	assert.False(t, v.StatusMenuOpen)
	assert.Nil(t, v.SelectedTableID)
}

func TestSetStatusFreeClearsDetails(t *testing.T) {
	for _, seed := range DefaultFloorPlan() {
		seed := seed
		t.Run(string(seed.Status), func(t *testing.T) {
			w, dir, _, _ := newTestDashboard(t, []TableRecord{seed})
			loggedIn(t, w)
			ctx := context.Background()
			require.NoError(t, w.SelectTable(ctx, seed.ID))

			rec, err := w.SetStatus(ctx, seed.ID, StatusChange{Status: StatusFree, Occupancy: intPtr(3)})
			require.NoError(t, err)
			assert.Equal(t, StatusFree, rec.Status)
			assert.Zero(t, rec.Occupancy)
			assert.Nil(t, rec.ReservedTime)

			stored, err := dir.GetTable(ctx, seed.ID)
			require.NoError(t, err)
			assert.Equal(t, rec, stored)
			assert.Equal(t, seed.Position, stored.Position)

			v, err := w.View(ctx)
			require.NoError(t, err)
			assert.False(t, v.StatusMenuOpen)
			assert.Nil(t, v.SelectedTableID)
		})
	}
}

func TestSetStatusWithoutDetailsDefaults(t *testing.T) {
	seed := []TableRecord{
		{ID: 1, Status: StatusFree},
		{ID: 2, Status: StatusOccupied, Occupancy: 4, ReservedTime: strPtr("7:30 PM")},
	}
	w, dir, _, _ := newTestDashboard(t, seed)
	loggedIn(t, w)
	ctx := context.Background()

	_, err := w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	require.NoError(t, err)

	got, err := dir.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, got.Status)
	assert.Equal(t, 1, got.Occupancy)
	require.NotNil(t, got.ReservedTime)
	assert.Equal(t, "6:05 PM", *got.ReservedTime)

	other, err := dir.GetTable(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, seed[1], other)
}

func TestSetStatusCarriesDetailsBetweenBusyStates(t *testing.T) {
	seed := []TableRecord{{ID: 3, Status: StatusReserved, Occupancy: 2, ReservedTime: strPtr("8:00 PM")}}
	w, _, _, _ := newTestDashboard(t, seed)
	loggedIn(t, w)

	rec, err := w.SetStatus(context.Background(), 3, StatusChange{Status: StatusOccupied})
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, rec.Status)
	assert.Equal(t, 2, rec.Occupancy)
	require.NotNil(t, rec.ReservedTime)
	assert.Equal(t, "8:00 PM", *rec.ReservedTime)
}

func newStoreDashboard(t *testing.T, seed []TableRecord, opts ...StatusOption) (*TableStatusWorkflow, *fakeStore) {
	t.Helper()
	dir, err := NewDirectory(seed)
	require.NoError(t, err)
	store := &fakeStore{Directory: dir}
	opts = append([]StatusOption{WithStatusClock(fixedClock()), WithStatusLogger(quietLogger())}, opts...)
	w := NewTableStatusWorkflow(store, &fakeGate{}, &fakeAuditor{}, opts...)
	loggedIn(t, w)
	return w, store
}

func TestStoreFailuresAreFetchOrPersist(t *testing.T) {
	w, store := newStoreDashboard(t, DefaultFloorPlan())
	ctx := context.Background()
	down := errors.New("connection refused")

	store.GetFunc = func(ctx context.Context, id uint) (TableRecord, error) { return TableRecord{}, down }
	var fe *FetchError
	require.ErrorAs(t, w.SelectTable(ctx, 1), &fe)
	_, err := w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, down)

	store.GetFunc = nil
	store.UpdateFunc = func(ctx context.Context, id uint, expected TableStatus, next TableRecord) (TableRecord, error) {
		return TableRecord{}, down
	}
	_, err = w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	var pe *PersistError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, down)

	store.UpdateFunc = func(ctx context.Context, id uint, expected TableStatus, next TableRecord) (TableRecord, error) {
		return TableRecord{}, ErrStaleStatus
	}
	_, err = w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	assert.ErrorIs(t, err, ErrStaleStatus)
	assert.False(t, errors.As(err, &pe))

	assert.ErrorIs(t, w.SelectTable(ctx, 99), ErrTableNotFound)
	assert.False(t, w.Busy())
}

func TestSetStatusSkipsBroadcastWithoutCounters(t *testing.T) {
	listener := &fakeListener{}
	w, store := newStoreDashboard(t, DefaultFloorPlan(), WithListener(listener))
	store.ListFunc = func(ctx context.Context) ([]TableRecord, error) {
		return nil, errors.New("connection reset")
	}

	rec, err := w.SetStatus(context.Background(), 1, StatusChange{Status: StatusOccupied})
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, rec.Status)
	assert.Empty(t, listener.calls)

	got, err := store.Directory.GetTable(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, got.Status)
}

func TestSetStatusUsesSuppliedDetails(t *testing.T) {
	w, _, _, _ := newTestDashboard(t, DefaultFloorPlan())
	loggedIn(t, w)

	rec, err := w.SetStatus(context.Background(), 1, StatusChange{
		Status:       StatusReserved,
		Occupancy:    intPtr(5),
		ReservedTime: strPtr(" 8:30 PM"),
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rec.Occupancy)
	assert.Equal(t, "8:30 PM", *rec.ReservedTime)
}

func TestSetStatusValidation(t *testing.T) {
	w, dir, _, _ := newTestDashboard(t, DefaultFloorPlan())
	loggedIn(t, w)
	ctx := context.Background()

	tests := []StatusChange{
		{Status: "dirty"},
		{Status: StatusOccupied, Occupancy: intPtr(0)},
		{Status: StatusReserved, ReservedTime: strPtr("soon")},
	}
	for _, change := range tests {
		_, err := w.SetStatus(ctx, 1, change)
		assert.True(t, IsValidation(err), "change %+v", change)
	}

	got, err := dir.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFree, got.Status)

	_, err = w.SetStatus(ctx, 99, StatusChange{Status: StatusFree})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestStrictDetailsRequireInput(t *testing.T) {
	w, dir, _, _ := newTestDashboard(t, DefaultFloorPlan(), WithStrictDetails())
	loggedIn(t, w)
	ctx := context.Background()

	_, err := w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "guests", ve.Field)

	_, err = w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied, Occupancy: intPtr(2)})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "time", ve.Field)

	got, err := dir.GetTable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFree, got.Status)

	rec, err := w.SetStatus(ctx, 1, StatusChange{Status: StatusOccupied, Occupancy: intPtr(2), ReservedTime: strPtr("6:15 PM")})
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, rec.Status)
}

func TestCountersMatchDirectory(t *testing.T) {
	listener := &fakeListener{}
	w, _, _, _ := newTestDashboard(t, DefaultFloorPlan(), WithListener(listener))
	loggedIn(t, w)
	ctx := context.Background()

	changes := []struct {
		id     uint
		status TableStatus
	}{
		{1, StatusOccupied}, {2, StatusFree}, {3, StatusOccupied}, {4, StatusReserved}, {8, StatusFree},
	}
	for _, c := range changes {
		_, err := w.SetStatus(ctx, c.id, StatusChange{Status: c.status})
		require.NoError(t, err)

		v, err := w.View(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(v.Tables), v.Counters.Total)
		assert.Equal(t, v.Counters.Total, v.Counters.Free+v.Counters.Reserved+v.Counters.Occupied)
		assert.Equal(t, CountTables(v.Tables), v.Counters)
	}

	require.Len(t, listener.calls, len(changes))
	last := listener.calls[len(listener.calls)-1]
	assert.Equal(t, uint(8), last.table.ID)
	assert.Equal(t, StatusOccupied, last.previous)
	assert.Equal(t, Counters{Free: 3, Reserved: 2, Occupied: 3, Total: 8}, last.counters)
}

func TestLogoutKeepsDirectory(t *testing.T) {
	w, dir, _, _ := newTestDashboard(t, DefaultFloorPlan())
	loggedIn(t, w)
	ctx := context.Background()

	require.NoError(t, w.SelectTable(ctx, 6))
	_, err := w.SetStatus(ctx, 6, StatusChange{Status: StatusReserved, Occupancy: intPtr(2), ReservedTime: strPtr("9:00 PM")})
	require.NoError(t, err)
	require.NoError(t, w.SelectTable(ctx, 1))

	require.NoError(t, w.Logout())
	assert.Equal(t, StageLoggedOut, w.Stage())
	_, ok := w.Session()
	assert.False(t, ok)
	v, err := w.View(ctx)
	require.NoError(t, err)
	assert.False(t, v.StatusMenuOpen)
	assert.Nil(t, v.SelectedTableID)

	got, err := dir.GetTable(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, got.Status)

	loggedIn(t, w)
	v, err = w.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, v.Tables[5].Status)
}
