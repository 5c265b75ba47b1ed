package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencallout/callout-services-backend/internal/config"
)

func testConfig(baseURL string) *config.ProviderConfig {
	return &config.ProviderConfig{
		BaseURL:        baseURL,
		AccountSID:     "AC123",
		AuthToken:      "secret",
		FromNumber:     "855970000000",
		VoiceURL:       "https://example.com/voice.xml",
		StatusCallback: "https://example.com/call_status",
		EnqueueTimeout: 5 * time.Second,
	}
}

func TestTwilioEnqueueQueued(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Calls.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "855972345678", r.PostFormValue("To"))
		assert.Equal(t, "855970000000", r.PostFormValue("From"))
		assert.Equal(t, "https://example.com/voice.xml", r.PostFormValue("Url"))
		assert.Equal(t, "https://example.com/call_status", r.PostFormValue("StatusCallback"))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA0001","status":"queued","direction":"outbound-api"}`))
	}))
	defer server.Close()

	client := NewTwilioClient(testConfig(server.URL))
	outcome, err := client.Enqueue(context.Background(), EnqueueRequest{To: "855972345678"})
	require.NoError(t, err)

	assert.True(t, outcome.Queued)
	assert.Equal(t, "CA0001", outcome.RemoteCallID)
	assert.Equal(t, "queued", outcome.RemoteStatus)
	assert.Equal(t, "outbound-api", outcome.RemoteDirection)
	assert.Equal(t, "855972345678", outcome.RequestParams["To"])
	assert.Equal(t, "CA0001", outcome.Response["sid"])
}

func TestTwilioEnqueueRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number"}`))
	}))
	defer server.Close()

	client := NewTwilioClient(testConfig(server.URL))
	outcome, err := client.Enqueue(context.Background(), EnqueueRequest{To: "bogus"})
	require.NoError(t, err, "a rejection is an outcome, not an error")

	assert.False(t, outcome.Queued)
	assert.Contains(t, outcome.ErrorMessage, "400")
	assert.Equal(t, float64(21211), outcome.Response["code"])
}

func TestTwilioEnqueueTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewTwilioClient(testConfig(server.URL))
	outcome, err := client.Enqueue(context.Background(), EnqueueRequest{To: "855972345678"})
	require.NoError(t, err)

	assert.False(t, outcome.Queued)
	assert.NotEmpty(t, outcome.ErrorMessage)
	assert.NotEmpty(t, outcome.Response["error"])
}

func TestTwilioEnqueueNonJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<xml>not json</xml>"))
	}))
	defer server.Close()

	client := NewTwilioClient(testConfig(server.URL))
	outcome, err := client.Enqueue(context.Background(), EnqueueRequest{To: "855972345678"})
	require.NoError(t, err)

	assert.True(t, outcome.Queued)
	assert.Empty(t, outcome.RemoteCallID)
	assert.Equal(t, "<xml>not json</xml>", outcome.Response["raw_body"])
}
