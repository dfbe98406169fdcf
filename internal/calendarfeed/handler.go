package calendarfeed

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/villastay/backend/pkg/response"
)

// Handler serves the feed over HTTP.
type Handler struct {
	feed      *Feed
	publisher *Publisher
	token     string
	logger    *zap.Logger
}

// NewHandler creates a feed handler. When token is set, requests must carry ?token=<token>.
func NewHandler(feed *Feed, token string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{feed: feed, token: token, logger: logger}
}

// WithPublisher enables the published-feed lookup.
func (h *Handler) WithPublisher(p *Publisher) *Handler {
	h.publisher = p
	return h
}

// ICS handles GET /calendar.ics.
func (h *Handler) ICS(c *gin.Context) {
	if h.token != "" && subtle.ConstantTimeCompare([]byte(c.Query("token")), []byte(h.token)) != 1 {
		response.Unauthorized(c, "invalid feed token")
		return
	}
	body, _, err := h.feed.Render(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="calendar.ics"`)
	c.Data(http.StatusOK, ContentType, body)
}

// PublishedURL handles GET /admin/calendar-feed.
func (h *Handler) PublishedURL(c *gin.Context) {
	if h.publisher == nil {
		response.NotFound(c, "feed publishing is disabled")
		return
	}
	url, err := h.publisher.URL(c.Request.Context())
	if err != nil {
		response.Fail(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"url": url})
}
