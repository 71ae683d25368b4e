package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"WikiCardPoster/internal/domain"
	"WikiCardPoster/internal/ports"
)

const (
	defaultAPIURL    = "https://uk.wikipedia.org/w/api.php"
	defaultUserAgent = "WikiCardPoster/1.0"
	maxImageBytes    = 16 << 20
	maxErrorBody     = 1024
)

// Options tunes the MediaWiki client.
type Options struct {
	APIURL    string
	UserAgent string
	ThumbSize int
	// HTMLExtract asks for the HTML intro and converts it to text locally
	// instead of relying on the server-side plain-text extract.
	HTMLExtract bool
}

// Client talks to the MediaWiki Action API.
type Client struct {
	client *http.Client
	opts   Options
}

var (
	_ ports.Encyclopedia = (*Client)(nil)
	_ ports.ImageFetcher = (*Client)(nil)
)

// NewClient wires an HTTP client; a nil client gets a 30s timeout.
func NewClient(client *http.Client, opts Options) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.APIURL == "" {
		opts.APIURL = defaultAPIURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = 1280
	}
	return &Client{client: client, opts: opts}
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type membersResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		CategoryMembers []struct {
			PageID int64  `json:"pageid"`
			Title  string `json:"title"`
		} `json:"categorymembers"`
	} `json:"query"`
}

type pagesResponse struct {
	Error *apiError `json:"error"`
	Query struct {
		Pages []struct {
			PageID    int64  `json:"pageid"`
			Title     string `json:"title"`
			Missing   bool   `json:"missing"`
			Extract   string `json:"extract"`
			FullURL   string `json:"fullurl"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// CategoryMembers lists up to limit pages of category.
func (c *Client) CategoryMembers(ctx context.Context, category domain.Category, limit int) ([]domain.ArticleRef, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "categorymembers")
	params.Set("cmtitle", string(category))
	params.Set("cmtype", "page")
	params.Set("cmlimit", strconv.Itoa(limit))

	var resp membersResponse
	if err := c.query(ctx, "category members", params, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, &domain.TransportError{Op: "category members", StatusCode: http.StatusOK, Body: resp.Error.Code + ": " + resp.Error.Info}
	}

	refs := make([]domain.ArticleRef, 0, len(resp.Query.CategoryMembers))
	for _, m := range resp.Query.CategoryMembers {
		refs = append(refs, domain.ArticleRef{ID: m.PageID, Title: m.Title})
	}
	return refs, nil
}

// FetchContent loads the intro extract, thumbnail and canonical URL of a page.
func (c *Client) FetchContent(ctx context.Context, id int64) (domain.ArticleContent, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|pageimages|info")
	params.Set("pageids", strconv.FormatInt(id, 10))
	params.Set("exintro", "1")
	if !c.opts.HTMLExtract {
		params.Set("explaintext", "1")
	}
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", strconv.Itoa(c.opts.ThumbSize))
	params.Set("inprop", "url")

	var resp pagesResponse
	if err := c.query(ctx, "fetch content", params, &resp); err != nil {
		return domain.ArticleContent{}, err
	}
	if resp.Error != nil {
		return domain.ArticleContent{}, &domain.TransportError{Op: "fetch content", StatusCode: http.StatusOK, Body: resp.Error.Code + ": " + resp.Error.Info}
	}
	if len(resp.Query.Pages) == 0 || resp.Query.Pages[0].Missing {
		return domain.ArticleContent{}, &domain.TransportError{Op: "fetch content", StatusCode: http.StatusOK, Body: fmt.Sprintf("page %d not found", id)}
	}

	page := resp.Query.Pages[0]
	extract := page.Extract
	if c.opts.HTMLExtract {
		text, err := htmlToText(extract)
		if err != nil {
			return domain.ArticleContent{}, fmt.Errorf("page %d: %w", id, err)
		}
		extract = text
	}

	content := domain.ArticleContent{
		ID:           page.PageID,
		Title:        page.Title,
		Extract:      strings.TrimSpace(extract),
		CanonicalURL: page.FullURL,
	}
	if page.Thumbnail != nil {
		content.ThumbnailURL = page.Thumbnail.Source
	}
	return content, nil
}

// FetchImage downloads and decodes a JPEG, PNG, GIF or WebP picture.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	resp, err := c.get(ctx, "fetch image", imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func (c *Client) query(ctx context.Context, op string, params url.Values, v any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")

	endpoint, err := url.Parse(c.opts.APIURL)
	if err != nil {
		return fmt.Errorf("invalid api url %s: %w", c.opts.APIURL, err)
	}
	endpoint.RawQuery = params.Encode()

	resp, err := c.get(ctx, op, endpoint.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return resp, nil
}
