package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/lexmatch/pkg/lexmatch/internalerr"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestFetchWithToken(t *testing.T) {
	tokenCalls := 0
	client := &Client{
		URL:          "https://catalog.test/skills",
		TokenURL:     "https://auth.test/token",
		ClientID:     "id",
		ClientSecret: "secret",
		Scope:        "open",
		HTTPClient: &http.Client{Transport: roundTrip(func(req *http.Request) *http.Response {
			switch req.URL.Host {
			case "auth.test":
				tokenCalls++
				require.NoError(t, req.ParseForm())
				assert.Equal(t, "client_credentials", req.PostForm.Get("grant_type"))
				assert.Equal(t, "id", req.PostForm.Get("client_id"))
				assert.Equal(t, "open", req.PostForm.Get("scope"))
				return respond(200, `{"access_token":"tok","expires_in":3600}`)
			default:
				assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))
				return respond(200, `{"data":[
					{"id":"KS1","name":"Python (Programming Language)","type":{"id":"ST1","name":"Specialized Skill"}},
					{"id":42,"name":"Go","type":"Skill"}
				]}`)
			}
		})},
	}

	for i := 0; i < 2; i++ {
		raws, err := client.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, raws, 2)
		assert.Equal(t, "KS1", string(raws[0].ID))
		assert.Equal(t, "Specialized Skill", string(raws[0].Type))
		assert.Equal(t, "42", string(raws[1].ID))
	}
	assert.Equal(t, 1, tokenCalls, "token is cached")
}

func TestFetchWithoutAuth(t *testing.T) {
	client := &Client{
		URL: "https://catalog.test/skills",
		HTTPClient: &http.Client{Transport: roundTrip(func(req *http.Request) *http.Response {
			assert.Empty(t, req.Header.Get("Authorization"))
			return respond(200, `{"data":[]}`)
		})},
	}
	raws, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, raws)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		tokenURL string
		reply    *http.Response
		want     error
	}{
		{"status", "", respond(503, "down"), internalerr.ErrUpstream},
		{"no data key", "", respond(200, `{"items":[]}`), internalerr.ErrInvalidFormat},
		{"bad json", "", respond(200, `{"data":`), internalerr.ErrInvalidFormat},
		{"no access token", "https://auth.test/token", respond(200, `{}`), internalerr.ErrInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{
				URL:      "https://catalog.test/skills",
				TokenURL: tt.tokenURL,
				HTTPClient: &http.Client{Transport: roundTrip(func(*http.Request) *http.Response {
					return tt.reply
				})},
			}
			_, err := client.Fetch(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchRequiresURL(t *testing.T) {
	_, err := (&Client{}).Fetch(context.Background())
	assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}
