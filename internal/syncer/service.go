package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arnyigor/aiprompts-sub001/internal/catalog"
	"github.com/arnyigor/aiprompts-sub001/internal/classifier"
	"github.com/arnyigor/aiprompts-sub001/internal/domain"
	"github.com/arnyigor/aiprompts-sub001/internal/extractor"
	"github.com/arnyigor/aiprompts-sub001/internal/fetcher"
	"github.com/arnyigor/aiprompts-sub001/internal/storage"
)

// Config holds the per-deployment sync policy.
type Config struct {
	// BaseURL of the source forum listing.
	BaseURL string

	// Source names the forum in derived prompt ids and metadata.
	Source string

	// Pages is the default number of listing pages per pass.
	Pages int

	// Cooldown is the minimum interval between two successful passes.
	Cooldown time.Duration
}

// Options tune a single Synchronize invocation.
type Options struct {
	// Pages overrides the configured page count when positive.
	Pages int

	// IgnoreCooldown forces a pass even inside the cooldown window.
	IgnoreCooldown bool

	// Progress, when set, receives informational per-page and per-post
	// events. It is called from the sync goroutine and must not block.
	Progress func(domain.ProgressEvent)
}

// Service drives one end-to-end sync pass: fetch pages, extract posts,
// analyze and classify them, dedup against the persisted catalog, and
// commit accepted prompts page by page.
type Service struct {
	cfg Config

	fetcher    fetcher.Fetcher
	extractor  *extractor.PostExtractor
	analyzer   *extractor.ContentAnalyzer
	classifier classifier.Classifier
	catalog    *catalog.Catalog
	repo       storage.Repository
	log        logrus.FieldLogger

	// runMu enforces single-flight: source index construction and
	// catalog writes are not designed for two interleaved passes.
	runMu sync.Mutex
}

// NewService creates a synchronizer.
func NewService(
	cfg Config,
	f fetcher.Fetcher,
	posts *extractor.PostExtractor,
	analyzer *extractor.ContentAnalyzer,
	cl classifier.Classifier,
	cat *catalog.Catalog,
	repo storage.Repository,
	logger logrus.FieldLogger,
) *Service {
	return &Service{
		cfg:        cfg,
		fetcher:    f,
		extractor:  posts,
		analyzer:   analyzer,
		classifier: cl,
		catalog:    cat,
		repo:       repo,
		log:        logger.WithField("component", "syncer"),
	}
}

// Synchronize runs one sync pass and reports a single terminal result.
// A concurrent invocation while another pass is running is rejected.
// Pages committed before a fatal error stay persisted; nothing is
// rolled back (at-least-once, not exactly-once).
func (s *Service) Synchronize(ctx context.Context, opts Options) domain.SyncResult {
	if !s.runMu.TryLock() {
		return domain.SyncResult{
			Status:  domain.SyncFailed,
			Message: domain.ErrSyncInProgress.Error(),
		}
	}
	defer s.runMu.Unlock()

	last, err := s.repo.LastSyncTime(ctx)
	if err != nil {
		return s.failed(nil, "failed to read last sync time: "+err.Error())
	}
	if !opts.IgnoreCooldown && !last.IsZero() && time.Since(last) < s.cfg.Cooldown {
		s.log.WithField("last_sync", last).Info("Sync skipped, cooldown window not elapsed")
		return domain.SyncResult{Status: domain.SyncTooSoon}
	}

	index, err := s.catalog.BuildIndex()
	if err != nil {
		return s.failed(nil, "failed to build source index: "+err.Error())
	}

	pages := opts.Pages
	if pages <= 0 {
		pages = s.cfg.Pages
	}

	s.log.WithFields(logrus.Fields{
		"pages":   pages,
		"indexed": len(index),
	}).Info("Sync pass started")

	var committed []domain.Prompt
	for page := 1; page <= pages; page++ {
		// Cooperative cancellation checkpoint: already-committed pages
		// are retained.
		if err := ctx.Err(); err != nil {
			return s.failed(committed, "sync cancelled: "+err.Error())
		}

		emit(opts.Progress, domain.ProgressEvent{Kind: domain.ProgressPageStarted, Page: page})

		html, err := s.fetcher.FetchPage(ctx, s.cfg.BaseURL, page)
		if err != nil {
			// A page that cannot be fetched is fatal to the pass.
			return s.failed(committed, err.Error())
		}
		emit(opts.Progress, domain.ProgressEvent{Kind: domain.ProgressPageFetched, Page: page})

		posts, err := s.extractor.ExtractPosts(html)
		if err != nil {
			// A structurally broken page is skipped; the pass continues.
			s.log.WithError(err).WithField("page", page).Warn("Page could not be extracted, skipping")
			continue
		}

		batch := s.processPosts(ctx, page, posts, index, opts.Progress)
		if len(batch) == 0 {
			continue
		}

		// Per-page commit: interchange files first, then one atomic
		// repository batch.
		for _, p := range batch {
			if _, err := s.catalog.Write(p); err != nil {
				return s.failed(committed, "failed to write prompt file: "+err.Error())
			}
			index[p.ID] = s.catalog.PathFor(p)
		}
		if err := s.repo.SavePrompts(ctx, batch); err != nil {
			return s.failed(committed, err.Error())
		}

		committed = append(committed, batch...)
		for _, p := range batch {
			emit(opts.Progress, domain.ProgressEvent{
				Kind:   domain.ProgressPromptCommitted,
				Page:   page,
				PostID: p.ID,
			})
		}
	}

	if err := s.repo.SetLastSyncTime(ctx, time.Now()); err != nil {
		return s.failed(committed, err.Error())
	}

	emit(opts.Progress, domain.ProgressEvent{Kind: domain.ProgressPassFinished})
	s.log.WithField("committed", len(committed)).Info("Sync pass committed")
	return domain.SyncResult{Status: domain.SyncCommitted, Prompts: committed}
}

// processPosts runs the analyze/classify/dedup stages for one page and
// returns the prompts accepted for commit. Per-post failures are
// absorbed here; nothing this stage does can fail the pass.
func (s *Service) processPosts(
	ctx context.Context,
	page int,
	posts []domain.RawPostData,
	index map[string]string,
	progress func(domain.ProgressEvent),
) []domain.Prompt {
	var batch []domain.Prompt
	for _, post := range posts {
		prompt, reason := s.processPost(ctx, post, index)
		if prompt == nil {
			emit(progress, domain.ProgressEvent{
				Kind:   domain.ProgressPostSkipped,
				Page:   page,
				PostID: post.PostID,
				Detail: reason,
			})
			continue
		}
		batch = append(batch, *prompt)
	}
	return batch
}

// processPost turns one raw post into a prompt ready for commit, or
// returns nil with a skip reason.
func (s *Service) processPost(ctx context.Context, post domain.RawPostData, index map[string]string) (*domain.Prompt, string) {
	log := s.log.WithField("post_id", post.PostID)

	data, err := s.analyzer.Analyze(post.FullHTMLContent)
	if err != nil {
		log.WithError(err).Debug("Post could not be analyzed")
		return nil, "unparsable post"
	}

	text := extractor.PlainText(post.FullHTMLContent)

	postType, err := s.classifier.Classify(ctx, text)
	if err != nil {
		// Classification failure degrades to the default label.
		log.WithError(err).Warn("Classification failed, using default label")
		postType = domain.PostTypeDiscussion
	}

	if data == nil {
		// No prompt-shaped structure; a conversational post is an
		// expected, silent outcome.
		return nil, "no prompt structure: " + string(postType)
	}

	// DISCUSSION is the classifier's fallback for posts without
	// prompt-like structure; structural extraction found some here, so
	// that label (and UNKNOWN) defers to the structural evidence.
	// Affirmative non-prompt labels still veto persistence.
	if postType == domain.PostTypeDiscussion || postType == domain.PostTypeUnknown {
		if len(data.Variables) > 0 {
			postType = domain.PostTypeTemplatePrompt
		} else {
			postType = domain.PostTypeStandardPrompt
		}
	}
	if !postType.IsPromptBearing() {
		return nil, "not prompt-bearing: " + string(postType)
	}

	tags, err := s.classifier.SuggestTags(ctx, text)
	if err != nil {
		log.WithError(err).Warn("Tag suggestion failed, continuing without tags")
		tags = nil
	}

	id := domain.DerivePromptID(s.cfg.Source, post.PostID)
	now := time.Now()

	variables := make(map[string]string, len(data.Variables))
	for _, name := range data.Variables {
		variables[name] = ""
	}

	prompt := domain.Prompt{
		ID:          id,
		Title:       data.Title,
		Description: data.Description,
		Content:     data.Content,
		Variables:   variables,
		Category:    data.Category,
		Tags:        tags,
		Status:      domain.StatusActive,
		Metadata: domain.PromptMetadata{
			Author: domain.PromptAuthor{ID: post.Author.ID, Name: post.Author.Name},
			Source: s.cfg.Source,
		},
		Version:    1,
		CreatedAt:  timePtr(post.Date),
		ModifiedAt: &now,
	}

	if _, known := index[id]; known {
		return s.mergeExisting(ctx, prompt), ""
	}
	return &prompt, ""
}

// mergeExisting applies the documented dedup policy: an id already in
// the source index is an update, never a fresh insert. The incoming
// record overwrites content fields; user-owned state (favorite flag,
// rating, creation time) is preserved and the version is bumped. Tags
// accumulate across passes; the repository dedups them on read.
func (s *Service) mergeExisting(ctx context.Context, incoming domain.Prompt) *domain.Prompt {
	existing, err := s.repo.GetPromptByID(ctx, incoming.ID)
	if err != nil {
		// Indexed on disk but absent from the store: treat as insert so
		// the two stay convergent.
		return &incoming
	}

	incoming.CreatedAt = existing.CreatedAt
	incoming.IsFavorite = existing.IsFavorite
	incoming.IsLocal = existing.IsLocal
	incoming.Rating = existing.Rating
	incoming.RatingVotes = existing.RatingVotes
	incoming.Version = existing.Version + 1
	incoming.Tags = append(append([]string{}, existing.Tags...), incoming.Tags...)
	return &incoming
}

func (s *Service) failed(committed []domain.Prompt, msg string) domain.SyncResult {
	s.log.WithFields(logrus.Fields{
		"committed": len(committed),
		"cause":     msg,
	}).Error("Sync pass failed")
	return domain.SyncResult{Status: domain.SyncFailed, Message: msg}
}

func emit(progress func(domain.ProgressEvent), ev domain.ProgressEvent) {
	if progress != nil {
		progress(ev)
	}
}

func timePtr(t time.Time) *time.Time { return &t }
