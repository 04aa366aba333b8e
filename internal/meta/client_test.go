package meta

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, seen *[]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, http.MethodGet, request.Method)
		assert.Equal(t, "/api/meta", request.URL.Path)
		if seen != nil {
			*seen = append(*seen, request.Header.Get("Authorization"))
		}
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(status)
		_, _ = writer.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchSendsBearerToken(t *testing.T) {
	var seen []string
	server := newServer(t, http.StatusOK, `{"user":"x"}`, &seen)
	client := NewClient(server.URL+"/api/meta", 0)
	assert.Equal(t, server.URL+"/api/meta", client.Endpoint())

	response, err := client.Fetch(context.Background(), "abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.Status)
	assert.Equal(t, []string{"Bearer abc.def.ghi"}, seen)

	pretty, err := response.Pretty()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"user\": \"x\"\n}", pretty)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (fn roundTripperFunc) RoundTrip(request *http.Request) (*http.Response, error) {
	return fn(request)
}

func TestFetchEmptyTokenIsNotSpecialCased(t *testing.T) {
	var headers []string
	client := NewClient("http://api.test/api/meta", 0).WithHTTPClient(&http.Client{
		Transport: roundTripperFunc(func(request *http.Request) (*http.Response, error) {
			headers = append(headers, request.Header.Get("Authorization"))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{}`)),
				Request:    request,
			}, nil
		}),
	})

	_, err := client.Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bearer "}, headers)
}

func TestFetchPrettyPrintsTwoSpaces(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"a":1}`, nil)
	response, err := NewClient(server.URL+"/api/meta", 0).Fetch(context.Background(), "t")
	require.NoError(t, err)

	pretty, err := response.Pretty()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", pretty)
}

func TestFetchKeepsKeyOrder(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"z":1,"a":{"b":[1,2]}}`, nil)
	response, err := NewClient(server.URL+"/api/meta", 0).Fetch(context.Background(), "t")
	require.NoError(t, err)

	pretty, err := response.Pretty()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": {\n    \"b\": [\n      1,\n      2\n    ]\n  }\n}", pretty)
}

func TestFetchStatusError(t *testing.T) {
	server := newServer(t, http.StatusUnauthorized, `{"message":"Unauthorized"}`, nil)
	_, err := NewClient(server.URL+"/api/meta", 0).Fetch(context.Background(), "t")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Status)
	assert.Equal(t, "metadata endpoint responded with status 401", err.Error())
}

func TestFetchMalformedBody(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"a":`, nil)
	_, err := NewClient(server.URL+"/api/meta", 0).Fetch(context.Background(), "t")
	assert.ErrorIs(t, err, ErrMalformedBody)
}

func TestFetchCancelled(t *testing.T) {
	server := newServer(t, http.StatusOK, `{}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient(server.URL+"/api/meta", 0).Fetch(ctx, "t")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrettyKeepsServerRepresentation(t *testing.T) {
	response := &Response{Status: http.StatusOK, Body: json.RawMessage(`{"b":1.0,"a":"\u00e9"}`)}

	pretty, err := response.Pretty()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1.0,\n  \"a\": \"\\u00e9\"\n}", pretty)
}
