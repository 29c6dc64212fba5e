package e2etest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/teamcheck/internal/errors"
)

type Client struct {
	client *http.Client
	url    string
}

// NewClient creates an HTTP client with a cookie jar for driving the team builder.
func NewClient(url string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: jar},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	for {
		resp, err := c.Get(ctx, urlPath)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready", slog.String("path", urlPath))
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document. Non-200 responses are errors.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	return readDoc(resp, http.StatusOK)
}

// GetJSON fetches a URL and decodes the JSON body into v. The status code is returned for any decoded response.
func (c *Client) GetJSON(ctx context.Context, urlPath string, v any) (int, error) {
	resp, err := c.Get(ctx, urlPath)
	if err != nil {
		return 0, errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode json", slog.Int("status", resp.StatusCode))
	}
	return resp.StatusCode, nil
}

func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req, nil
}

// PostForm posts form values to urlPath and returns the raw response. Redirects are followed.
func (c *Client) PostForm(
	ctx context.Context,
	urlPath string,
	values neturl.Values,
	header http.Header,
) (*http.Response, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodPost, urlPath, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	for key, vals := range header {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// FormValues collects the hidden inputs of the form matching formSelector, including the CSRF token, and adds
// extra on top.
func FormValues(doc *goquery.Document, formSelector string, extra neturl.Values) (string, neturl.Values, error) {
	form := doc.Find(formSelector)
	if form.Length() != 1 {
		return "", nil, errors.New("form not found",
			slog.String("selector", formSelector), slog.Int("matches", form.Length()))
	}
	action, ok := form.Attr("action")
	if !ok {
		return "", nil, errors.New("form has no action", slog.String("selector", formSelector))
	}
	values := neturl.Values{}
	form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
		name, hasName := input.Attr("name")
		if !hasName {
			return
		}
		values.Add(name, input.AttrOr("value", ""))
	})
	if values.Get("csrf_token") == "" {
		return "", nil, errors.New("csrf_token not found in form", slog.String("selector", formSelector))
	}
	for key, vals := range extra {
		values[key] = vals
	}
	return action, values, nil
}

// SubmitForm submits the form matching formSelector in doc with extra values and returns the resulting document.
func (c *Client) SubmitForm(
	ctx context.Context,
	doc *goquery.Document,
	formSelector string,
	extra neturl.Values,
) (*goquery.Document, error) {
	action, values, err := FormValues(doc, formSelector, extra)
	if err != nil {
		return nil, errors.Wrap(err, "collect form values")
	}
	var resp *http.Response
	if resp, err = c.PostForm(ctx, action, values, nil); err != nil {
		return nil, errors.Wrap(err, "post form", slog.String("action", action))
	}
	return readDoc(resp, http.StatusOK)
}

// Pick chooses characterID for slot through the team builder form on the front page.
func (c *Client) Pick(ctx context.Context, slot int, characterID string) (*goquery.Document, error) {
	doc, err := c.GetDoc(ctx, "/")
	if err != nil {
		return nil, errors.Wrap(err, "get document")
	}
	selector := fmt.Sprintf("form[action='/team/pick'][data-slot='%d']", slot)
	if doc, err = c.SubmitForm(ctx, doc, selector, neturl.Values{"character_id": {characterID}}); err != nil {
		return nil, errors.Wrap(err, "submit pick", slog.Int("slot", slot), slog.String("character_id", characterID))
	}
	return doc, nil
}

// Reset clears slot from and every later slot.
func (c *Client) Reset(ctx context.Context, from int) (*goquery.Document, error) {
	doc, err := c.GetDoc(ctx, "/")
	if err != nil {
		return nil, errors.Wrap(err, "get document")
	}
	selector := fmt.Sprintf("form[action='/team/reset'][data-from='%s']", strconv.Itoa(from))
	if doc, err = c.SubmitForm(ctx, doc, selector, nil); err != nil {
		return nil, errors.Wrap(err, "submit reset", slog.Int("from", from))
	}
	return doc, nil
}

func readDoc(resp *http.Response, wantStatus int) (*goquery.Document, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != wantStatus {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}
