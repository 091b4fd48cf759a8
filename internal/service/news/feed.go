package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"FinSignal/internal/domain/models"
	dservice "FinSignal/internal/domain/service"
)

// FeedReader reads RSS/Atom feeds and returns their newest item.
type FeedReader struct {
	parser  *gofeed.Parser
	timeout time.Duration
}

var _ dservice.NewsSource = (*FeedReader)(nil)

func NewFeedReader(timeout time.Duration) *FeedReader {
	p := gofeed.NewParser()
	p.UserAgent = "FinSignal/1.0"
	return &FeedReader{parser: p, timeout: timeout}
}

// Latest returns the newest titled item, or nil for an empty feed.
func (r *FeedReader) Latest(ctx context.Context, feedURL string) (*models.NewsItem, error) {
	if feedURL == "" {
		return nil, fmt.Errorf("%w: no feed configured", models.ErrFeedUnavailable)
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFeedUnavailable, err)
	}
	return newest(feed), nil
}

func newest(feed *gofeed.Feed) *models.NewsItem {
	var best *models.NewsItem
	for _, it := range feed.Items {
		title := strings.TrimSpace(it.Title)
		if title == "" {
			continue
		}
		var at time.Time
		switch {
		case it.PublishedParsed != nil:
			at = *it.PublishedParsed
		case it.UpdatedParsed != nil:
			at = *it.UpdatedParsed
		}
		// Undated items keep feed order: the first one wins.
		if best == nil || at.After(best.PublishedAt) {
			best = &models.NewsItem{Title: title, Link: it.Link, PublishedAt: at}
		}
	}
	return best
}
