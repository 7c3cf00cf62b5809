// Package booking holds the client-side booking rules: candidate validation
// and the session controller that keeps the local list in sync with the
// remote sheet.
package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gymbook/internal/events"
	"gymbook/internal/gateway"
	"gymbook/internal/metrics"
	"gymbook/internal/models"
)

// LoadState tracks the fetch-on-load lifecycle.
type LoadState string

const (
	LoadIdle  LoadState = "idle"
	Loading   LoadState = "loading"
	Loaded    LoadState = "loaded"
	LoadError LoadState = "load_error"
)

// SaveState tracks the submission lifecycle, independent of LoadState.
type SaveState string

const (
	SaveIdle  SaveState = "idle"
	Saving    SaveState = "saving"
	SaveOK    SaveState = "save_ok"
	SaveError SaveState = "save_error"
)

// NoticeNoFutureRows is surfaced when the sheet returned rows but none of
// them parse into a future booking, which usually means the sheet's date or
// slot columns are formatted wrong.
const NoticeNoFutureRows = "โหลดสำเร็จแต่ไม่มีรายการอนาคตให้แสดง (ตรวจรูปแบบวันที่/เวลาในชีต)"

// ErrEndpointNotConfigured is returned when the persisted endpoint URL does
// not look like a deployed Apps Script URL; no request is attempted.
var ErrEndpointNotConfigured = errors.New("endpoint url is not a valid apps script /exec url")

// Gateway is the remote store surface the session needs.
type Gateway interface {
	FetchBookings(ctx context.Context, endpoint string) ([]models.Row, error)
	CreateBooking(ctx context.Context, endpoint string, row models.Row) error
}

// EndpointSource resolves the currently configured endpoint URL.
type EndpointSource interface {
	EndpointURL(ctx context.Context) (string, error)
}

// Snapshot is a point-in-time copy of the session state for rendering.
type Snapshot struct {
	Bookings      []models.Booking `json:"bookings"`
	LoadState     LoadState        `json:"load_state"`
	SaveState     SaveState        `json:"save_state"`
	LastError     string           `json:"last_error,omitempty"`
	Notice        string           `json:"notice,omitempty"`
	LastFetchedAt time.Time        `json:"last_fetched_at"`
}

// Session orchestrates fetch-on-load, optimistic insert on submit, and
// reconciliation by refetch. The remote sheet stays the single source of
// truth; the in-memory list is a disposable projection, replaced wholesale
// on every load.
type Session struct {
	gw       Gateway
	endpoint EndpointSource
	bus      *events.Bus
	logger   *zerolog.Logger

	// submitMu serializes submissions end to end so two overlapping submits
	// cannot interleave their optimistic inserts and reconciling reloads.
	submitMu sync.Mutex

	mu            sync.Mutex
	bookings      []models.Booking
	loadState     LoadState
	saveState     SaveState
	loadErr       string
	saveErr       string
	notice        string
	lastFetchedAt time.Time
}

// NewSession creates a session over the given gateway and endpoint source.
func NewSession(gw Gateway, endpoint EndpointSource, bus *events.Bus, logger *zerolog.Logger) *Session {
	return &Session{
		gw:        gw,
		endpoint:  endpoint,
		bus:       bus,
		logger:    logger,
		loadState: LoadIdle,
		saveState: SaveIdle,
	}
}

// Load fetches the authoritative list, maps rows to bookings, keeps only
// future ones sorted by start time, and replaces the local list. Any failure
// surfaces a message and leaves the previous list untouched. A successful
// load also retires any lingering save failure message.
func (s *Session) Load(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *Session) load(ctx context.Context, clearSaveErr bool) error {
	endpoint, err := s.endpoint.EndpointURL(ctx)
	if err != nil {
		return err
	}
	if !gateway.IsScriptURL(endpoint) {
		s.logger.Debug().Str("endpoint", endpoint).Msg("skipping load: endpoint url not configured")
		return nil
	}

	s.mu.Lock()
	s.loadState = Loading
	s.mu.Unlock()

	rows, err := s.gw.FetchBookings(ctx, endpoint)
	if err != nil {
		metrics.IncLoad("error")
		s.logger.Error().Err(err).Msg("load bookings failed")
		s.mu.Lock()
		s.loadState = LoadError
		s.loadErr = "โหลดข้อมูลล้มเหลว: " + err.Error()
		s.mu.Unlock()
		return err
	}

	mapped := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		mapped = append(mapped, models.BookingFromRow(row))
	}

	future := make([]models.Booking, 0, len(mapped))
	for _, b := range mapped {
		if b.IsFuture() {
			future = append(future, b)
		}
	}
	sort.Slice(future, func(i, j int) bool {
		return future[i].StartTime().Before(future[j].StartTime())
	})

	s.mu.Lock()
	s.bookings = future
	s.loadState = Loaded
	s.loadErr = ""
	if clearSaveErr {
		s.saveErr = ""
	}
	s.notice = ""
	if len(mapped) > 0 && len(future) == 0 {
		s.notice = NoticeNoFutureRows
	}
	s.lastFetchedAt = time.Now()
	s.mu.Unlock()

	metrics.IncLoad("ok")
	return nil
}

// Submit validates the candidate, inserts it optimistically, sends the
// create to the remote store and reconciles by reloading once the create
// settles, success or failure. Validation failures make no network call.
func (s *Session) Submit(ctx context.Context, candidate models.Booking) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	s.mu.Lock()
	existing := append([]models.Booking(nil), s.bookings...)
	s.mu.Unlock()

	if err := Validate(candidate, existing); err != nil {
		metrics.IncValidationRejected(rejectionReason(err))
		return err
	}

	endpoint, err := s.endpoint.EndpointURL(ctx)
	if err != nil {
		return err
	}
	if !gateway.IsScriptURL(endpoint) {
		return ErrEndpointNotConfigured
	}

	candidate.ID = uuid.New().String()
	candidate.CreatedAt = time.Now().Format(time.RFC3339)

	// Optimistic insert: the entry is visible before the create request is
	// dispatched.
	s.mu.Lock()
	s.saveState = Saving
	s.saveErr = ""
	s.bookings = insertSorted(s.bookings, candidate)
	s.mu.Unlock()

	createErr := s.gw.CreateBooking(ctx, endpoint, candidate.Row())
	if createErr != nil {
		metrics.IncBookingCreated("error")
		s.logger.Error().Err(createErr).Str("booking_id", candidate.ID).Msg("create booking failed")
		s.mu.Lock()
		s.saveState = SaveError
		s.saveErr = "บันทึกข้อมูลล้มเหลว: " + createErr.Error()
		s.mu.Unlock()
	} else {
		metrics.IncBookingCreated("ok")
		s.mu.Lock()
		s.saveState = SaveOK
		s.mu.Unlock()
		if s.bus != nil {
			s.bus.Publish(events.TopicBookingCreated, candidate)
		}
	}

	// Reconcile with the authoritative list either way. A rejected or failed
	// create disappears here because the reload replaces the whole list;
	// there is no manual rollback of the optimistic entry. The reconcile
	// keeps the save failure message visible; only a later user-initiated
	// load retires it.
	if err := s.load(ctx, false); err != nil {
		s.logger.Warn().Err(err).Msg("reconciling reload failed")
	}
	return createErr
}

// Snapshot returns a copy of the current session state. A save failure takes
// precedence over a stale load failure in the surfaced message, and the
// reconciling reload after a failed create does not wash the message away.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	lastError := s.loadErr
	if s.saveErr != "" {
		lastError = s.saveErr
	}
	return Snapshot{
		Bookings:      append([]models.Booking(nil), s.bookings...),
		LoadState:     s.loadState,
		SaveState:     s.saveState,
		LastError:     lastError,
		Notice:        s.notice,
		LastFetchedAt: s.lastFetchedAt,
	}
}

// Bookings returns a copy of the current list.
func (s *Session) Bookings() []models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.bookings...)
}

// HasConflict reports whether the (machine, date, slot) triple is already
// taken in the current list.
func (s *Session) HasConflict(machineID, date, slotID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.MachineID == machineID && b.Date == date && b.SlotID == slotID {
			return true
		}
	}
	return false
}

func insertSorted(bookings []models.Booking, b models.Booking) []models.Booking {
	out := append(append([]models.Booking(nil), bookings...), b)
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime().Before(out[j].StartTime())
	})
	return out
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingFields):
		return "missing_fields"
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, ErrPastSlot):
		return "past_slot"
	default:
		return "other"
	}
}
