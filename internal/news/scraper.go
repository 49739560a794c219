package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"nifty-pulse/internal/interfaces"
	"nifty-pulse/internal/logger"
	"nifty-pulse/internal/types"
)

// MaxHeadlines is the hard cap on headlines returned per fetch.
const MaxHeadlines = 5

const (
	defaultGoogleNewsURL = "https://news.google.com"
	userAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Params configures a HeadlineScraper
type Params struct {
	URL           string        // section page, e.g. moneycontrol markets
	Selector      string        // CSS selector whose text is a headline
	FallbackQuery string        // Google News search terms; empty disables the fallback
	GoogleNewsURL string        // override for the Google News host
	Timeout       time.Duration // per-request timeout
}

// HeadlineScraper collects headlines from a news section page and falls
// back to a Google News search when the page yields nothing.
type HeadlineScraper struct {
	p Params
}

var _ interfaces.NewsSource = (*HeadlineScraper)(nil)

// NewScraper creates a headline scraper
func NewScraper(p Params) *HeadlineScraper {
	if p.Selector == "" {
		p.Selector = "h2"
	}
	if p.GoogleNewsURL == "" {
		p.GoogleNewsURL = defaultGoogleNewsURL
	}
	if p.Timeout <= 0 {
		p.Timeout = 15 * time.Second
	}
	return &HeadlineScraper{p: p}
}

func (s *HeadlineScraper) Name() string { return getDomain(s.p.URL) }

// Headlines returns at most max trimmed, non-empty headlines in page order.
func (s *HeadlineScraper) Headlines(ctx context.Context, max int) ([]string, error) {
	if max <= 0 || max > MaxHeadlines {
		max = MaxHeadlines
	}

	headlines, err := s.scrape(ctx, s.p.URL, s.p.Selector, "", max)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to scrape headlines", err, "url", s.p.URL)
	}
	if len(headlines) > 0 {
		return headlines, nil
	}

	if s.p.FallbackQuery != "" {
		logger.Info(ctx, "Primary news page empty, trying Google News", "query", s.p.FallbackQuery)
		fallback, ferr := s.scrapeGoogleNews(ctx, max)
		if ferr != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape Google News", ferr, "query", s.p.FallbackQuery)
			if err == nil {
				err = ferr
			}
		}
		if len(fallback) > 0 {
			return fallback, nil
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrSourceUnavailable, err)
	}
	return nil, fmt.Errorf("%w: no headlines matched %q on %s", types.ErrDataMissing, s.p.Selector, s.p.URL)
}

// scrape visits pageURL and collects the text of every element matching
// selector. When child is set, the text of that child is used instead.
func (s *HeadlineScraper) scrape(ctx context.Context, pageURL, selector, child string, max int) ([]string, error) {
	headlines := []string{}

	c := colly.NewCollector(
		colly.AllowedDomains(getDomain(pageURL)),
		colly.MaxDepth(1),
		colly.Async(false),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(s.p.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
		r.Headers.Set("Accept-Language", "en-IN,en;q=0.9")
	})

	c.OnHTML(selector, func(e *colly.HTMLElement) {
		if len(headlines) >= max {
			return
		}
		text := e.Text
		if child != "" {
			text = e.ChildText(child)
		}
		text = strings.Join(strings.Fields(text), " ")
		if text == "" {
			return
		}
		headlines = append(headlines, text)
	})

	if err := c.Visit(pageURL); err != nil {
		return headlines, fmt.Errorf("failed to visit %s: %w", pageURL, err)
	}
	c.Wait()

	return headlines, nil
}

func (s *HeadlineScraper) scrapeGoogleNews(ctx context.Context, max int) ([]string, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&hl=en-IN&gl=IN&ceid=IN:en",
		strings.TrimRight(s.p.GoogleNewsURL, "/"), url.QueryEscape(s.p.FallbackQuery))
	return s.scrape(ctx, searchURL, "article", "h3, h4", max)
}

// getDomain extracts domain from URL
func getDomain(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
