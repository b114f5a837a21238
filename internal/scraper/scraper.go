// Package scraper fetches wiki pages and parses them into structured
// documents.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/internal/storage"
	"github.com/UtkarshSinghShorthillsAI/Rag-ChatBot/pkg/models"
	"github.com/gocolly/colly/v2"
)

// Config holds scraper configuration.
type Config struct {
	Delay       time.Duration
	MaxDepth    int
	FollowLinks bool
	UserAgent   string
	Timeout     time.Duration
}

// Scraper crawls wiki pages and returns parsed documents.
type Scraper struct {
	config Config
}

// New creates a Scraper with the given configuration.
func New(config Config) *Scraper {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "ragbot/1.0"
	}
	return &Scraper{config: config}
}

// Scrape crawls from startURL and returns a document per page. Links
// are only followed within the start URL's host. The context cancels
// an in-flight crawl; pages scraped before cancellation are returned
// alongside the context error.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]models.Document, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start URL: %w", err)
	}

	slog.Debug("starting scrape", "url", startURL, "max_depth", s.config.MaxDepth)

	var docs []models.Document
	var mu sync.Mutex
	var cancelled bool

	c := colly.NewCollector(
		colly.MaxDepth(s.config.MaxDepth),
		colly.UserAgent(s.config.UserAgent),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Delay:       s.config.Delay,
		Parallelism: 2,
	})
	c.SetRequestTimeout(s.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			cancelled = true
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode >= 400 {
			slog.Debug("skipping page with error status", "url", r.Request.URL.String(), "status", r.StatusCode)
			return
		}

		pageURL := r.Request.URL.String()
		doc, err := ParsePage(pageURL, string(r.Body))
		if err != nil {
			slog.Warn("failed to parse page", "url", pageURL, "error", err)
			return
		}
		if len(doc.Sections) == 0 {
			slog.Debug("skipping page with no content", "url", pageURL)
			return
		}

		slog.Debug("scraped page", "url", pageURL, "title", doc.Title, "sections", len(doc.Sections))
		mu.Lock()
		docs = append(docs, doc)
		mu.Unlock()
	})

	if s.config.FollowLinks {
		c.OnHTML("a[href]", func(e *colly.HTMLElement) {
			absoluteURL := e.Request.AbsoluteURL(e.Attr("href"))
			linkURL, err := url.Parse(absoluteURL)
			if err != nil {
				return
			}
			if linkURL.Host == parsedURL.Host {
				e.Request.Visit(absoluteURL)
			}
		})
	}

	if err := c.Visit(startURL); err != nil {
		slog.Debug("visit error (continuing)", "url", startURL, "error", err)
		return docs, nil
	}
	c.Wait()

	if cancelled {
		slog.Info("scrape cancelled by context", "pages_scraped", len(docs))
		return docs, ctx.Err()
	}

	slog.Debug("scrape complete", "url", startURL, "pages", len(docs))
	return docs, nil
}

// Result holds the outcome of a scrape-to-storage run. Documents
// carries the parsed pages so a caller can ingest them in the same
// process without reading them back from storage.
type Result struct {
	Prefix    string
	PageCount int
	SourceURL string
	Documents []models.Document
}

// ScrapeToStorage crawls from startURL and writes each parsed document
// to object storage under a fresh prefix, followed by a manifest
// listing the scraped pages.
func (s *Scraper) ScrapeToStorage(ctx context.Context, startURL string, store *storage.Client) (*Result, error) {
	parsedURL, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start URL: %w", err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	shortID := models.GenerateDocumentID(fmt.Sprintf("%s-%d", startURL, time.Now().UnixNano()))[:8]
	prefix := fmt.Sprintf("scrapes/%s/%s-%s", parsedURL.Host, timestamp, shortID)

	slog.Info("starting scrape to storage", "url", startURL, "prefix", prefix)

	docs, err := s.Scrape(ctx, startURL)
	if err != nil && len(docs) == 0 {
		return nil, fmt.Errorf("scrape failed: %w", err)
	}

	var pageURLs []string
	for _, doc := range docs {
		if err := store.PutDocument(ctx, prefix, doc); err != nil {
			slog.Error("failed to store document", "url", doc.SourceURL, "error", err)
			continue
		}
		pageURLs = append(pageURLs, doc.SourceURL)
	}

	manifest := storage.ScrapeManifest{
		SourceURL: startURL,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		PageCount: len(pageURLs),
		Pages:     pageURLs,
	}
	if err := store.PutManifest(ctx, prefix, manifest); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	slog.Info("scrape to storage complete", "url", startURL, "prefix", prefix, "pages", len(pageURLs))
	return &Result{Prefix: prefix, PageCount: len(pageURLs), SourceURL: startURL, Documents: docs}, nil
}
