package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villastay/backend/internal/apperr"
	"github.com/villastay/backend/internal/models"
	"github.com/villastay/backend/pkg/dates"
	"github.com/villastay/backend/pkg/queue"
)

type fakeReservations map[uuid.UUID]*models.Reservation

func (f fakeReservations) Get(_ context.Context, id uuid.UUID) (*models.Reservation, error) {
	r, ok := f[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return r, nil
}

type fakeDirectory struct {
	admins []string
}

func (fakeDirectory) Contact(_ context.Context, _ uuid.UUID) (string, string, error) {
	return "dana@example.com", "Dana", nil
}

func (d fakeDirectory) ListAdminEmails(context.Context) ([]string, error) { return d.admins, nil }

type memLogs struct {
	logs []*models.NotificationLog
}

func (m *memLogs) Insert(_ context.Context, l *models.NotificationLog) error {
	l.ID = uuid.New()
	m.logs = append(m.logs, l)
	return nil
}

func (m *memLogs) ListByReservation(_ context.Context, id uuid.UUID) ([]*models.NotificationLog, error) {
	var out []*models.NotificationLog
	for _, l := range m.logs {
		if l.ReservationID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

type captureSender struct {
	sent []Message
	fail map[string]bool
}

func (s *captureSender) Send(_ context.Context, m Message) error {
	if s.fail[m.To] {
		return errors.New("mailbox unavailable")
	}
	s.sent = append(s.sent, m)
	return nil
}

func sampleReservation() *models.Reservation {
	return &models.Reservation{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		CheckIn:  dates.MustParse("2025-01-08"),
		CheckOut: dates.MustParse("2025-01-10"),
		Nights:   2,
		Adults:   2,
		Total:    77220,
		Currency: "ILS",
		Status:   models.StatusApproved,
	}
}

func newProcessor(r *models.Reservation, dir fakeDirectory, sender *captureSender, logs *memLogs) *Processor {
	return NewProcessor(fakeReservations{r.ID: r}, dir, logs, sender, ProcessorConfig{
		SiteName:    "Villa Olive",
		FromAddress: "stay@villaolive.test",
		FromName:    "Villa Olive",
	}, nil).WithClock(func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) })
}

func TestEveryKindRenders(t *testing.T) {
	r := sampleReservation()
	kinds := []models.NotificationKind{
		models.NotifyConfirmation, models.NotifyApprovalRequired, models.NotifyApproved, models.NotifyDeclined,
		models.NotifyCancelled, models.NotifyRescheduled, models.NotifyReminder,
	}
	for _, k := range kinds {
		subject, body, err := render(k, templateData{SiteName: "Villa Olive", GuestName: "Dana", Reservation: r, Reason: "r"})
		require.NoError(t, err, k)
		assert.NotEmpty(t, subject, k)
		assert.Contains(t, body, "2025-01-08", k)
	}
	_, _, err := render("bogus", templateData{Reservation: r})
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "772.20 ILS", formatMoney(77220, "ILS"))
	assert.Equal(t, "0.05 EUR", formatMoney(5, "EUR"))
	assert.Equal(t, "-10.00 ILS", formatMoney(-1000, "ILS"))
}

func TestDeliverRescheduledToGuest(t *testing.T) {
	r := sampleReservation()
	sender := &captureSender{}
	logs := &memLogs{}
	p := newProcessor(r, fakeDirectory{}, sender, logs)
	oldIn, oldOut := dates.MustParse("2025-01-01"), dates.MustParse("2025-01-03")

	err := p.Deliver(context.Background(), Event{
		Kind: models.NotifyRescheduled, ReservationID: r.ID, Reason: "pool repair",
		OldCheckIn: &oldIn, OldCheckOut: &oldOut,
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "dana@example.com", msg.To)
	assert.Equal(t, "Villa Olive: your stay has new dates", msg.Subject)
	assert.Contains(t, msg.Body, "2025-01-01 to 2025-01-03")
	assert.Contains(t, msg.Body, "Reason: pool repair")
	assert.Contains(t, msg.Body, "772.20 ILS")

	require.Len(t, logs.logs, 1)
	assert.Equal(t, models.NotificationStatusSent, logs.logs[0].Status)
	assert.NotNil(t, logs.logs[0].SentAt)
}

func TestDeliverApprovalRequiredToAdmins(t *testing.T) {
	r := sampleReservation()
	sender := &captureSender{fail: map[string]bool{"b@villaolive.test": true}}
	logs := &memLogs{}
	p := newProcessor(r, fakeDirectory{admins: []string{"a@villaolive.test", "b@villaolive.test"}}, sender, logs)

	err := p.Deliver(context.Background(), Event{Kind: models.NotifyApprovalRequired, ReservationID: r.ID})
	require.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "dana@example.com")

	require.Len(t, logs.logs, 2)
	assert.Equal(t, models.NotificationStatusSent, logs.logs[0].Status)
	assert.Equal(t, models.NotificationStatusFailed, logs.logs[1].Status)
	assert.Equal(t, "mailbox unavailable", logs.logs[1].ErrorMessage)
}

func TestProcessJobAndMissingReservation(t *testing.T) {
	r := sampleReservation()
	sender := &captureSender{}
	p := newProcessor(r, fakeDirectory{}, sender, &memLogs{})

	job, err := queue.NewJob(queue.JobTypeNotification, Event{Kind: models.NotifyApproved, ReservationID: r.ID})
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), job))
	assert.Len(t, sender.sent, 1)

	gone, err := queue.NewJob(queue.JobTypeNotification, Event{Kind: models.NotifyApproved, ReservationID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, p.Process(context.Background(), gone))
	assert.Len(t, sender.sent, 1)

	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "other"}))
}

type fakeQueue struct {
	jobs []any
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, t queue.JobType, payload any) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, payload)
	return nil
}

func TestQueueNotifier(t *testing.T) {
	q := &fakeQueue{}
	n := NewQueueNotifier(q, nil, nil)

	require.NoError(t, n.Notify(context.Background(), Event{Kind: models.NotifyReminder, ReservationID: uuid.New()}))
	assert.Len(t, q.jobs, 1)
	assert.Error(t, n.Notify(context.Background(), Event{Kind: "bogus"}))

	q.err = errors.New("redis down")
	assert.Error(t, n.Notify(context.Background(), Event{Kind: models.NotifyReminder}))
}

func TestResendEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := sampleReservation()
	r.CancellationReason = "owner unavailable"
	var got []Event
	notifier := NotifierFunc(func(_ context.Context, ev Event) error {
		got = append(got, ev)
		return nil
	})
	h := NewHandler(&memLogs{}, fakeReservations{r.ID: r}, notifier, nil)
	router := gin.New()
	router.POST("/admin/reservations/:id/notifications/resend", h.Resend)
	router.GET("/admin/reservations/:id/notifications", h.List)

	post := func(id, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/reservations/"+id+"/notifications/resend", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	w := post(r.ID.String(), `{"kind":"declined"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, got, 1)
	assert.Equal(t, "owner unavailable", got[0].Reason)

	assert.Equal(t, http.StatusBadRequest, post(r.ID.String(), `{"kind":"sms"}`).Code)
	assert.Equal(t, http.StatusNotFound, post(uuid.NewString(), `{"kind":"approved"}`).Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/reservations/"+r.ID.String()+"/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data []json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Data)
}
