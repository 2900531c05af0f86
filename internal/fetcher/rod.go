package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/domain"
)

// RodFetcher retrieves listing pages through a headless browser. It is
// the backend for sources whose listing pages are rendered client-side
// and come back empty over plain HTTP.
type RodFetcher struct {
	pattern string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewRodFetcher creates a browser-backed fetcher. A fresh browser is
// launched per page; the instance count equals the page count of one
// pass, which stays small.
func NewRodFetcher(pageURLPattern string, timeout time.Duration, logger logrus.FieldLogger) *RodFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RodFetcher{
		pattern: pageURLPattern,
		timeout: timeout,
		log:     logger.WithField("component", "fetcher"),
	}
}

// FetchPage implements Fetcher.
func (f *RodFetcher) FetchPage(ctx context.Context, url string, pageNumber int) (html string, err error) {
	pageURL := PageURL(f.pattern, url, pageNumber)
	log := f.log.WithFields(logrus.Fields{
		"url":  pageURL,
		"page": pageNumber,
	})

	path, exists := launcher.LookPath()
	if !exists {
		return "", &domain.NetworkError{URL: pageURL, Cause: errors.New("browser executable not found")}
	}
	u, err := launcher.New().Bin(path).Launch()
	if err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("failed to launch browser: %w", err)}
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("failed to connect to browser: %w", err)}
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			log.WithError(closeErr).Warn("Error closing browser")
		}
	}()

	page, err := browser.Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("failed to open page: %w", err)}
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.WithError(closeErr).Debug("Error closing page")
		}
	}()

	pageCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	page = page.Context(pageCtx)

	if err := page.WaitLoad(); err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
			return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("page load timed out: %w", pageCtx.Err())}
		}
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("failed waiting for page load: %w", err)}
	}

	html, err = page.HTML()
	if err != nil {
		return "", &domain.NetworkError{URL: pageURL, Cause: fmt.Errorf("failed to read page html: %w", err)}
	}

	log.WithField("bytes", len(html)).Debug("Page fetched via browser")
	return html, nil
}
