package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"gymbook/internal/booking"
	"gymbook/internal/export"
	"gymbook/internal/gateway"
	"gymbook/internal/metrics"
	"gymbook/internal/models"
	"gymbook/internal/schedule"
)

// User-facing messages per validation failure, shown inline by the form.
var validationMessages = map[error]string{
	booking.ErrMissingFields: "กรุณากรอกข้อมูลให้ครบ",
	booking.ErrSlotConflict:  "ช่วงเวลานี้ถูกจองแล้ว",
	booking.ErrPastSlot:      "เลือกช่วงเวลาที่ผ่านไปแล้วไม่ได้",
}

// bookingView decorates a booking with its rendered list line.
type bookingView struct {
	models.Booking
	Display string `json:"display"`
}

// handleListBookings returns the current projection plus session state.
// GET /api/bookings
func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("list_bookings")

	snap := s.session.Snapshot()
	views := make([]bookingView, 0, len(snap.Bookings))
	for _, b := range snap.Bookings {
		views = append(views, bookingView{Booking: b, Display: b.DisplayLine()})
	}

	var lastFetched string
	if !snap.LastFetchedAt.IsZero() {
		lastFetched = snap.LastFetchedAt.Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":              true,
		"data":            views,
		"load_state":      snap.LoadState,
		"save_state":      snap.SaveState,
		"error":           snap.LastError,
		"notice":          snap.Notice,
		"last_fetched_at": lastFetched,
	})
}

// createBookingRequest is the form submission body.
type createBookingRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MemberID  string `json:"member_id"`
	Age       int    `json:"age"`
	MachineID string `json:"machine_id"`
	Date      string `json:"date"`
	Slot      string `json:"slot"`
}

// handleCreateBooking validates and submits a booking. Validation failures
// answer with a user-facing message and never reach the remote store.
// POST /api/bookings
func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")

	var req createBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	candidate := models.Booking{
		Date:      schedule.NormalizeDate(req.Date),
		SlotID:    req.Slot,
		MachineID: req.MachineID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		MemberID:  req.MemberID,
		Age:       req.Age,
	}

	err := s.session.Submit(r.Context(), candidate)
	if err == nil {
		writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
		return
	}

	for sentinel, msg := range validationMessages {
		if errors.Is(err, sentinel) {
			status := http.StatusBadRequest
			if errors.Is(err, booking.ErrSlotConflict) {
				status = http.StatusConflict
			}
			writeError(w, status, msg)
			return
		}
	}

	if errors.Is(err, booking.ErrEndpointNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "ยังไม่ได้ตั้งค่า URL ของ Apps Script")
		return
	}

	zerolog.Ctx(r.Context()).Error().Err(err).Msg("create booking failed upstream")
	writeError(w, http.StatusBadGateway, "บันทึกข้อมูลล้มเหลว: "+err.Error())
}

// slotView is a slot plus its selectability for a given machine and date.
type slotView struct {
	schedule.Slot
	Past   bool `json:"past"`
	Booked bool `json:"booked"`
}

// handleSlots returns the slot grid with past/booked flags.
// GET /api/slots?date=YYYY-MM-DD&machine=<id>
func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")

	date := r.URL.Query().Get("date")
	machine := r.URL.Query().Get("machine")

	views := make([]slotView, 0, len(s.slots))
	for _, slot := range s.slots {
		views = append(views, slotView{
			Slot:   slot,
			Past:   date != "" && schedule.IsPastSlot(date, slot.ID),
			Booked: date != "" && machine != "" && s.session.HasConflict(machine, date, slot.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": views})
}

// dayView is a selectable day with its Thai label.
type dayView struct {
	Date  string `json:"date"`
	Label string `json:"label"`
}

// handleDays returns the selectable date range.
// GET /api/days
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("days")

	days := schedule.NextDays(s.cfg.Booking.DaysAhead)
	views := make([]dayView, 0, len(days))
	for _, d := range days {
		views = append(views, dayView{Date: schedule.DateKey(d), Label: schedule.FormatDayLabel(d)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": views})
}

// handleMachines returns the configured machine list.
// GET /api/machines
func (s *Server) handleMachines(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("machines")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "data": s.cfg.Booking.Machines})
}

// handleReload triggers an explicit refetch of the authoritative list.
// POST /api/reload
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reload")

	if err := s.session.Load(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "โหลดข้อมูลล้มเหลว: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleExport streams the current list as an .xlsx attachment.
// GET /api/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, s.session.Bookings()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=bookings-%s.xlsx", time.Now().Format("2006-01-02")))
	_, _ = w.Write(buf.Bytes())
}

// handleGetEndpoint returns the persisted endpoint URL and its validity.
// GET /api/settings/endpoint
func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("get_endpoint")

	url, err := s.settings.EndpointURL(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read settings failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"url":   url,
		"valid": gateway.IsScriptURL(url),
	})
}

type setEndpointRequest struct {
	URL string `json:"url"`
}

// handleSetEndpoint persists a new endpoint URL (write-through) and kicks a
// reload when the new URL is usable.
// PUT /api/settings/endpoint
func (s *Server) handleSetEndpoint(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("set_endpoint")

	var req setEndpointRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.settings.SetEndpointURL(r.Context(), req.URL); err != nil {
		writeError(w, http.StatusInternalServerError, "persist settings failed")
		return
	}

	valid := gateway.IsScriptURL(req.URL)
	if valid {
		if err := s.session.Load(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("reload after endpoint change failed")
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "url": req.URL, "valid": valid})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
