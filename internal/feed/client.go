package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/debug"
)

const userAgent = "PhotoApp/1.0"

// Client talks to the photo feed API. It owns no state beyond the HTTP
// client; all list state lives in the grid controller.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a feed API client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// doRequest performs a GET request and returns the response body
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	debug.Log(debug.FEED, "GET %s", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return body, nil
}

// ListImages fetches one page of the image list, optionally filtered by category.
// Pages are 1-based.
func (c *Client) ListImages(ctx context.Context, page, perPage int, category string) (ImagePage, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))
	if category != "" {
		query.Set("category", category)
	}

	body, err := c.doRequest(ctx, "/images", query)
	if err != nil {
		return ImagePage{}, err
	}

	var pageResp ImagePage
	if err := json.Unmarshal(body, &pageResp); err != nil {
		return ImagePage{}, fmt.Errorf("failed to parse image list: %w", err)
	}

	debug.Log(debug.FEED, "page %d: %d records, hasMore=%v", page, len(pageResp.Records), pageResp.HasMore)
	return pageResp, nil
}

// ListCategories fetches the category list used for filtering
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	body, err := c.doRequest(ctx, "/categories", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse category list: %w", err)
	}
	return resp.Categories, nil
}
