package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalendarKey(t *testing.T) {
	assert.Equal(t, "calendar/3f0c.ics", CalendarKey("3f0c"))
}

func TestObjectURL(t *testing.T) {
	s := &S3{cfg: S3Config{Bucket: "villa-feeds", Region: "eu-central-1"}}
	assert.Equal(t, "https://villa-feeds.s3.eu-central-1.amazonaws.com/calendar/x.ics", s.ObjectURL(CalendarKey("x")))
}

func TestURLPublicBucket(t *testing.T) {
	s := &S3{cfg: S3Config{Bucket: "villa-feeds", Region: "eu-central-1", PublicRead: true}}
	url, err := s.URL(context.Background(), "calendar/x.ics")
	assert.NoError(t, err)
	assert.Equal(t, "https://villa-feeds.s3.eu-central-1.amazonaws.com/calendar/x.ics", url)
}
