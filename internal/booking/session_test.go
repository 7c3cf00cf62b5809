package booking

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymbook/internal/events"
	"gymbook/internal/models"
)

const testEndpoint = "https://script.google.com/macros/s/AKfycbTest123/exec"

type fakeGateway struct {
	mu          sync.Mutex
	rows        []models.Row
	fetchErr    error
	createErr   error
	fetchCalls  int
	createCalls int
	onCreate    func(models.Row)
}

func (f *fakeGateway) FetchBookings(_ context.Context, _ string) ([]models.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return append([]models.Row(nil), f.rows...), nil
}

func (f *fakeGateway) CreateBooking(_ context.Context, _ string, row models.Row) error {
	f.mu.Lock()
	hook := f.onCreate
	f.createCalls++
	err := f.createErr
	if err == nil {
		f.rows = append(f.rows, row)
	}
	f.mu.Unlock()
	if hook != nil {
		hook(row)
	}
	return err
}

func (f *fakeGateway) counts() (fetches, creates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.createCalls
}

type fakeEndpoint struct {
	url string
	err error
}

func (f fakeEndpoint) EndpointURL(context.Context) (string, error) {
	return f.url, f.err
}

func newTestSession(gw Gateway, url string) *Session {
	logger := zerolog.Nop()
	return NewSession(gw, fakeEndpoint{url: url}, events.NewBus(), &logger)
}

func futureRow(id, date, slot string) models.Row {
	return models.Row{
		BookingID: id,
		Date:      date,
		Slot:      slot,
		MachineID: "underwater-treadmill",
		FirstName: "A",
		LastName:  "B",
		MemberID:  "M-001",
		Age:       30,
	}
}

func TestLoadMapsFiltersAndSorts(t *testing.T) {
	gw := &fakeGateway{rows: []models.Row{
		futureRow("late", "2099-01-02", "09:00-10:00"),
		futureRow("early", "2099-01-01", "09:00-10:00"),
		futureRow("past", "2001-01-01", "09:00-10:00"),
		futureRow("same-day-later", "2099-01-01", "15:00-16:00"),
	}}
	s := newTestSession(gw, testEndpoint)

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, Loaded, snap.LoadState)
	assert.Empty(t, snap.LastError)
	assert.Empty(t, snap.Notice)
	assert.False(t, snap.LastFetchedAt.IsZero())

	require.Len(t, snap.Bookings, 3)
	assert.Equal(t, "early", snap.Bookings[0].ID)
	assert.Equal(t, "same-day-later", snap.Bookings[1].ID)
	assert.Equal(t, "late", snap.Bookings[2].ID)
}

func TestLoadErrorKeepsPreviousList(t *testing.T) {
	gw := &fakeGateway{rows: []models.Row{futureRow("b-1", "2099-01-01", "09:00-10:00")}}
	s := newTestSession(gw, testEndpoint)
	require.NoError(t, s.Load(context.Background()))

	gw.mu.Lock()
	gw.fetchErr = errors.New("upstream exploded")
	gw.mu.Unlock()

	err := s.Load(context.Background())
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, LoadError, snap.LoadState)
	assert.Equal(t, "โหลดข้อมูลล้มเหลว: upstream exploded", snap.LastError)
	require.Len(t, snap.Bookings, 1)
	assert.Equal(t, "b-1", snap.Bookings[0].ID)
}

func TestLoadNoticeWhenOnlyPastRows(t *testing.T) {
	gw := &fakeGateway{rows: []models.Row{
		futureRow("old-1", "2001-01-01", "09:00-10:00"),
		futureRow("old-2", "2001-01-02", "09:00-10:00"),
	}}
	s := newTestSession(gw, testEndpoint)

	require.NoError(t, s.Load(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, Loaded, snap.LoadState)
	assert.Empty(t, snap.Bookings)
	assert.Equal(t, NoticeNoFutureRows, snap.Notice)
}

func TestLoadNoNoticeOnEmptySheet(t *testing.T) {
	s := newTestSession(&fakeGateway{}, testEndpoint)
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Snapshot().Notice)
}

func TestLoadSkipsUnconfiguredEndpoint(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestSession(gw, "https://example.com/not-a-script")

	require.NoError(t, s.Load(context.Background()))

	fetches, _ := gw.counts()
	assert.Zero(t, fetches)
	assert.Equal(t, LoadIdle, s.Snapshot().LoadState)
}

func TestSubmitCreatesAndReconciles(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestSession(gw, testEndpoint)

	candidate := models.Booking{
		Date:      "2099-01-01",
		SlotID:    "09:00-10:00",
		MachineID: "underwater-treadmill",
		FirstName: "A",
		LastName:  "B",
		MemberID:  "M-001",
		Age:       30,
	}
	require.NoError(t, s.Submit(context.Background(), candidate))

	fetches, creates := gw.counts()
	assert.Equal(t, 1, creates)
	assert.Equal(t, 1, fetches, "submit reconciles with a reload")

	snap := s.Snapshot()
	assert.Equal(t, SaveOK, snap.SaveState)
	require.Len(t, snap.Bookings, 1)
	assert.NotEmpty(t, snap.Bookings[0].ID, "submit assigns an id")
	assert.NotEmpty(t, snap.Bookings[0].CreatedAt)
}

func TestSubmitPublishesEvent(t *testing.T) {
	gw := &fakeGateway{}
	bus := events.NewBus()
	logger := zerolog.Nop()
	s := NewSession(gw, fakeEndpoint{url: testEndpoint}, bus, &logger)

	var published []models.Booking
	bus.Subscribe(events.TopicBookingCreated, func(_ string, b models.Booking) {
		published = append(published, b)
	})

	candidate := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "A", LastName: "B", MemberID: "M-001", Age: 30,
	}
	require.NoError(t, s.Submit(context.Background(), candidate))

	require.Len(t, published, 1)
	assert.Equal(t, "M-001", published[0].MemberID)
	assert.NotEmpty(t, published[0].ID)
}

func TestSubmitValidationFailureMakesNoNetworkCall(t *testing.T) {
	gw := &fakeGateway{rows: []models.Row{futureRow("taken", "2099-01-01", "09:00-10:00")}}
	s := newTestSession(gw, testEndpoint)
	require.NoError(t, s.Load(context.Background()))
	fetchesBefore, _ := gw.counts()

	conflict := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "C", LastName: "D", MemberID: "M-002", Age: 40,
	}
	assert.ErrorIs(t, s.Submit(context.Background(), conflict), ErrSlotConflict)

	fetches, creates := gw.counts()
	assert.Zero(t, creates)
	assert.Equal(t, fetchesBefore, fetches, "rejected submit must not reload")
	require.Len(t, s.Bookings(), 1)
	assert.Equal(t, "taken", s.Bookings()[0].ID)
}

func TestSubmitUnconfiguredEndpoint(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestSession(gw, "https://example.com/exec")

	candidate := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "A", LastName: "B", MemberID: "M-001", Age: 30,
	}
	assert.ErrorIs(t, s.Submit(context.Background(), candidate), ErrEndpointNotConfigured)

	_, creates := gw.counts()
	assert.Zero(t, creates)
}

func TestSubmitOptimisticEntryVisibleBeforeDispatch(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestSession(gw, testEndpoint)

	var seen []models.Booking
	var stateDuringCreate SaveState
	gw.onCreate = func(models.Row) {
		seen = s.Bookings()
		stateDuringCreate = s.Snapshot().SaveState
	}

	candidate := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "A", LastName: "B", MemberID: "M-001", Age: 30,
	}
	require.NoError(t, s.Submit(context.Background(), candidate))

	require.Len(t, seen, 1, "entry must be in the list while the create is in flight")
	assert.Equal(t, "M-001", seen[0].MemberID)
	assert.Equal(t, Saving, stateDuringCreate)
}

func TestSubmitFailureSurfacesErrorAndReconcilesAway(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("timeout talking to sheet")}
	s := newTestSession(gw, testEndpoint)

	candidate := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "A", LastName: "B", MemberID: "M-001", Age: 30,
	}
	err := s.Submit(context.Background(), candidate)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Equal(t, "บันทึกข้อมูลล้มเหลว: timeout talking to sheet", snap.LastError)
	// The reconciling reload replaced the list with the server's view, so the
	// optimistic entry is gone.
	assert.Empty(t, snap.Bookings)
}

func TestSaveErrorRetiredByLaterReload(t *testing.T) {
	gw := &fakeGateway{createErr: errors.New("timeout talking to sheet")}
	s := newTestSession(gw, testEndpoint)

	candidate := models.Booking{
		Date: "2099-01-01", SlotID: "09:00-10:00", MachineID: "underwater-treadmill",
		FirstName: "A", LastName: "B", MemberID: "M-001", Age: 30,
	}
	require.Error(t, s.Submit(context.Background(), candidate))

	// The message survives the reconciling reload inside Submit...
	assert.Equal(t, "บันทึกข้อมูลล้มเหลว: timeout talking to sheet", s.Snapshot().LastError)

	// ...but a later explicit reload clears it.
	require.NoError(t, s.Load(context.Background()))
	assert.Empty(t, s.Snapshot().LastError)
}

func TestHasConflict(t *testing.T) {
	gw := &fakeGateway{rows: []models.Row{futureRow("taken", "2099-01-01", "09:00-10:00")}}
	s := newTestSession(gw, testEndpoint)
	require.NoError(t, s.Load(context.Background()))

	assert.True(t, s.HasConflict("underwater-treadmill", "2099-01-01", "09:00-10:00"))
	assert.False(t, s.HasConflict("underwater-treadmill", "2099-01-01", "10:00-11:00"))
	assert.False(t, s.HasConflict("rowing-machine", "2099-01-01", "09:00-10:00"))
}
