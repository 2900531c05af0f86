package fetcher

import (
	"context"
	"fmt"
	"strings"
)

// Fetcher retrieves one page of listing HTML per call. It knows nothing
// about prompts; how many pages to fetch is the synchronizer's policy.
type Fetcher interface {
	// FetchPage retrieves the listing page with the given number and
	// returns its raw HTML. Failures are reported as *domain.NetworkError.
	FetchPage(ctx context.Context, url string, pageNumber int) (string, error)
}

// PageURL builds the URL for a numbered listing page. When pattern
// contains a %d placeholder it takes precedence; otherwise the page
// number is appended to the base URL as a query parameter.
func PageURL(pattern, baseURL string, pageNumber int) string {
	if strings.Contains(pattern, "%d") {
		return fmt.Sprintf(pattern, pageNumber)
	}
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%spage=%d", baseURL, sep, pageNumber)
}
