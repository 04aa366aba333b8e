package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// ErrMalformedBody is returned if a successful response does not carry a valid JSON body
var ErrMalformedBody = errors.New("metadata response body is not valid JSON")

// StatusError is returned if the metadata endpoint answered with a non-2xx status code
type StatusError struct {
	Status int
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("metadata endpoint responded with status %d", err.Status)
}

// Response represents a successful metadata response
type Response struct {
	Status int
	Body   json.RawMessage
}

// Pretty returns the body as JSON indented by two spaces, keeping the key order and literals of the response
func (response *Response) Pretty() (string, error) {
	buf := new(bytes.Buffer)
	if err := json.Indent(buf, bytes.TrimSpace(response.Body), "", "  "); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Client fetches the metadata payload from a fixed endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a new metadata client.
// A zero timeout means requests are only bounded by their context.
func NewClient(endpoint string, timeout time.Duration) *Client {
	httpClient := cleanhttp.DefaultPooledClient()
	httpClient.Timeout = timeout
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// WithHTTPClient returns a copy of the client using the given HTTP client
func (client *Client) WithHTTPClient(httpClient *http.Client) *Client {
	return &Client{
		endpoint:   client.endpoint,
		httpClient: httpClient,
	}
}

// Endpoint returns the URL metadata is fetched from
func (client *Client) Endpoint() string {
	return client.endpoint
}

// Fetch issues one authenticated GET request to the metadata endpoint.
// The token is sent as-is; an empty token results in the header 'Authorization: Bearer '.
func (client *Client) Fetch(ctx context.Context, token string) (*Response, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+token)
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil, &StatusError{Status: response.StatusCode}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, ErrMalformedBody
	}
	return &Response{
		Status: response.StatusCode,
		Body:   body,
	}, nil
}
