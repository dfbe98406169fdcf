package calendarfeed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/villastay/backend/pkg/storage"
)

// ContentType is the media type of the feed.
const ContentType = "text/calendar; charset=utf-8"

// ObjectStore stores published files.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	URL(ctx context.Context, key string) (string, error)
}

// Publisher uploads the feed so channel managers can poll a static URL.
type Publisher struct {
	feed   *Feed
	store  ObjectStore
	logger *zap.Logger
}

// NewPublisher creates a publisher.
func NewPublisher(feed *Feed, store ObjectStore, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{feed: feed, store: store, logger: logger}
}

// Publish renders and uploads the feed, returning its URL.
func (p *Publisher) Publish(ctx context.Context) (string, error) {
	body, propertyID, err := p.feed.Render(ctx)
	if err != nil {
		return "", fmt.Errorf("render feed: %w", err)
	}
	url, err := p.store.Put(ctx, storage.CalendarKey(propertyID.String()), ContentType, body)
	if err != nil {
		return "", fmt.Errorf("upload feed: %w", err)
	}
	p.logger.Debug("calendar feed published", zap.String("url", url), zap.Int("bytes", len(body)))
	return url, nil
}

// URL returns where channel managers fetch the published feed.
func (p *Publisher) URL(ctx context.Context) (string, error) {
	prop, err := p.feed.props.GetProperty(ctx)
	if err != nil {
		return "", err
	}
	return p.store.URL(ctx, storage.CalendarKey(prop.ID.String()))
}
