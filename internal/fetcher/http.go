package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// HTTPFetcher retrieves listing pages over plain HTTP using colly.
// The collector keeps its cookie jar across calls, so session state
// established by the source site survives for the whole pass.
type HTTPFetcher struct {
	collector *colly.Collector
	pattern   string
	log       logrus.FieldLogger
}

// HTTPOptions configures an HTTPFetcher.
type HTTPOptions struct {
	UserAgent      string
	Timeout        time.Duration
	PageURLPattern string
	// Delay between requests to the same host; zero disables rate limiting.
	Delay time.Duration
}

// NewHTTPFetcher creates a colly-backed fetcher.
func NewHTTPFetcher(opts HTTPOptions, logger logrus.FieldLogger) *HTTPFetcher {
	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		// The same listing URL is fetched again on every pass.
		colly.AllowURLRevisit(),
	)
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}
	if opts.Delay > 0 {
		c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       opts.Delay,
			RandomDelay: opts.Delay / 2,
		})
	}

	return &HTTPFetcher{
		collector: c,
		pattern:   opts.PageURLPattern,
		log:       logger.WithField("component", "fetcher"),
	}
}

// FetchPage implements Fetcher.
func (f *HTTPFetcher) FetchPage(ctx context.Context, url string, pageNumber int) (string, error) {
	pageURL := PageURL(f.pattern, url, pageNumber)
	log := f.log.WithFields(logrus.Fields{
		"url":  pageURL,
		"page": pageNumber,
	})

	if err := ctx.Err(); err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: err}
	}

	// Clone shares the cookie jar and limits with the base collector
	// but gives this request its own callback set.
	c := f.collector.Clone()

	var body []byte
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		log.WithError(err).Warn("Page fetch failed")
	})

	if err := c.Visit(pageURL); err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: err}
	}
	c.Wait()

	if len(body) == 0 {
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("empty response body")}
	}

	log.WithField("bytes", len(body)).Debug("Page fetched")
	return string(body), nil
}
