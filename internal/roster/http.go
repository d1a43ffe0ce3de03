package roster

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPClient implements Client against the roster service's HTTP endpoints.
// Transport failures and 5xx answers both count as "server off"; a 4xx on a
// letter submission means the server is up but declined the letter.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient builds a client for the given base URL. The request timeout
// bounds every call; coordinators do not apply their own.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// profileResponse mirrors the roster's lookup answer.
type profileResponse struct {
	Found  bool   `json:"found"`
	Member Member `json:"member"`
}

func (c *HTTPClient) GetProfile(ctx context.Context, name, birth string) (Profile, error) {
	form := url.Values{}
	form.Set("name", name)
	form.Set("birth", birth)

	resp, err := c.postForm(ctx, "/v1/trainees/search", form)
	if err != nil {
		return Profile{ServerOn: false}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return Profile{ServerOn: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{ServerOn: true}, nil
	}

	var pr profileResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		// An answer we cannot parse is indistinguishable from an outage.
		return Profile{ServerOn: false}, nil
	}
	if !pr.Found {
		return Profile{ServerOn: true}, nil
	}
	m := pr.Member
	return Profile{ServerOn: true, Member: &m}, nil
}

func (c *HTTPClient) PostLetter(ctx context.Context, p LetterPayload, createdAt time.Time) (SubmitResult, error) {
	form := url.Values{}
	form.Set("sender_name", p.SenderName)
	form.Set("relationship", p.Relationship)
	form.Set("title", p.Title)
	form.Set("contents", p.Contents)
	form.Set("password", p.Password)
	form.Set("member_code", p.MemberCode)
	form.Set("unit_code", p.UnitCode)
	form.Set("written_at", createdAt.UTC().Format(time.RFC3339))

	resp, err := c.postForm(ctx, "/v1/letters", form)
	if err != nil {
		return SubmitResult{ServerOn: false}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return SubmitResult{ServerOn: false}, nil
	case resp.StatusCode >= http.StatusMultipleChoices:
		return SubmitResult{ServerOn: true, Accepted: false}, nil
	default:
		return SubmitResult{ServerOn: true, Accepted: true}, nil
	}
}

func (c *HTTPClient) postForm(ctx context.Context, path string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.http.Do(req)
}
