package slack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport answers every call with a canned body and counts releases.
type fakeTransport struct {
	status int
	body   string
	err    error

	method   string
	url      string
	headers  transport.Header
	sent     []byte
	releases int
	calls    int
}

func (f *fakeTransport) respond(method, u string, h transport.Header, body []byte) (*transport.Response, error) {
	f.calls++
	f.method, f.url, f.headers, f.sent = method, u, h, body
	if f.err != nil {
		return nil, f.err
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return transport.NewResponse(status, f.body, func() error {
		f.releases++
		return nil
	}), nil
}

func (f *fakeTransport) Get(_ context.Context, u string, h transport.Header) (*transport.Response, error) {
	return f.respond(http.MethodGet, u, h, nil)
}

func (f *fakeTransport) Post(_ context.Context, u string, h transport.Header, body []byte) (*transport.Response, error) {
	return f.respond(http.MethodPost, u, h, body)
}

func newTestClient(t *testing.T, ft *fakeTransport) *Client {
	t.Helper()
	c, err := New("xoxb-test", WithTransport(ft), WithBaseURL("https://api.test/api/"))
	require.NoError(t, err)
	return c
}

const channelList = `{
  "ok": true,
  "channels": [
    {"id": "C001", "name": "general"},
    {"id": "C123", "name": "test2"},
    {"id": "C999", "name": "Test2"},
    {"id": "C124", "name": "test2"}
  ]
}`

func TestNewRejectsBadTokens(t *testing.T) {
	for _, token := range []string{"", "  ", config.PlaceholderToken} {
		c, err := New(token)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestNewDefaults(t *testing.T) {
	c, err := New("xoxb-x")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.transport)
}

func TestResolveChannel(t *testing.T) {
	ft := &fakeTransport{body: channelList}
	c := newTestClient(t, ft)

	id, err := c.ResolveChannel(context.Background(), "test2")
	require.NoError(t, err)
	assert.Equal(t, "C123", id, "first exact match wins")

	assert.Equal(t, http.MethodGet, ft.method)
	assert.Equal(t, "https://api.test/api/conversations.list", ft.url)
	assert.Equal(t, "Bearer xoxb-test", ft.headers["Authorization"])
	assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", ft.headers["Content-Type"])
	assert.Equal(t, 1, ft.releases)
}

func TestResolveChannelCaseSensitive(t *testing.T) {
	ft := &fakeTransport{body: channelList}
	c := newTestClient(t, ft)

	id, err := c.ResolveChannel(context.Background(), "Test2")
	require.NoError(t, err)
	assert.Equal(t, "C999", id)

	_, err = c.ResolveChannel(context.Background(), "TEST2")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestResolveChannelNotFound(t *testing.T) {
	ft := &fakeTransport{body: channelList}
	c := newTestClient(t, ft)

	id, err := c.ResolveChannel(context.Background(), "nope")
	assert.Empty(t, id)
	require.ErrorIs(t, err, ErrChannelNotFound)
	assert.Contains(t, err.Error(), `"nope"`)
	assert.Equal(t, 1, ft.releases)
}

func TestResolveChannelEmptyList(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"channels":[]}`}
	c := newTestClient(t, ft)

	_, err := c.ResolveChannel(context.Background(), "general")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestResolveChannelUpstreamError(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":false,"error":"invalid_auth"}`}
	c := newTestClient(t, ft)

	_, err := c.ResolveChannel(context.Background(), "general")
	require.Error(t, err)

	code, ok := IsUpstream(err)
	assert.True(t, ok)
	assert.Equal(t, "invalid_auth", code)
	assert.EqualError(t, err, "slack conversations.list: invalid_auth")
	assert.Equal(t, 1, ft.releases)
}

func TestResolveChannelMissingOK(t *testing.T) {
	ft := &fakeTransport{body: `{"channels":[{"id":"C1","name":"general"}]}`}
	c := newTestClient(t, ft)

	_, err := c.ResolveChannel(context.Background(), "general")
	code, ok := IsUpstream(err)
	assert.True(t, ok)
	assert.Equal(t, "unknown_error", code)
}

func TestResolveChannelMalformedBody(t *testing.T) {
	ft := &fakeTransport{status: http.StatusBadGateway, body: "<html>bad gateway</html>"}
	c := newTestClient(t, ft)

	_, err := c.ResolveChannel(context.Background(), "general")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, 1, ft.releases)
}

func TestResolveChannelTransportFailure(t *testing.T) {
	cause := errors.New("connection refused")
	ft := &fakeTransport{err: cause}
	c := newTestClient(t, ft)

	_, err := c.ResolveChannel(context.Background(), "general")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, cause)
	_, upstream := IsUpstream(err)
	assert.False(t, upstream)
}

func TestListChannels(t *testing.T) {
	ft := &fakeTransport{body: channelList}
	c := newTestClient(t, ft)

	channels, err := c.ListChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 4)
	assert.Equal(t, Channel{ID: "C001", Name: "general"}, channels[0])
}

func TestSendMessage(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"channel":"C123","ts":"1721300000.000100","message":{"text":"hi"}}`}
	c := newTestClient(t, ft)

	res, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C123", Text: "hello world"})
	require.NoError(t, err)
	assert.Equal(t, "1721300000.000100", res.TS)
	assert.Equal(t, "C123", res.Channel)
	assert.Equal(t, true, res.Payload["ok"])

	assert.Equal(t, http.MethodPost, ft.method)
	assert.Equal(t, "https://api.test/api/chat.postMessage", ft.url)
	assert.Equal(t, "channel=C123&text=hello%20world", string(ft.sent))
	assert.Equal(t, "Bearer xoxb-test", ft.headers["Authorization"])
	assert.Equal(t, "application/x-www-form-urlencoded; charset=utf-8", ft.headers["Content-Type"])
	assert.Len(t, ft.headers, 2)
	assert.Equal(t, 1, ft.releases)
}

func TestSendMessageThreaded(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"ts":"2.0"}`}
	c := newTestClient(t, ft)

	res, err := c.SendMessage(context.Background(), OutboundMessage{
		Channel:  "C123",
		Text:     "reply",
		ThreadTS: "1721300000.000100",
	})
	require.NoError(t, err)
	assert.Equal(t, "channel=C123&text=reply&thread_ts=1721300000.000100", string(ft.sent))
	assert.Equal(t, "C123", res.Channel, "falls back to the requested channel")
}

func TestSendMessageWithoutThreadOmitsKey(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"ts":"1.0"}`}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C123", Text: "x"})
	require.NoError(t, err)
	assert.NotContains(t, string(ft.sent), "thread_ts")
}

func TestSendMessageMultiByte(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"ts":"1.0"}`}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C123", Text: "てすと 🐍&"})
	require.NoError(t, err)
	assert.Equal(t, "channel=C123&text=%E3%81%A6%E3%81%99%E3%81%A8%20%F0%9F%90%8D%26", string(ft.sent))
}

func TestSendMessageUpstreamError(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":false,"error":"channel_not_found"}`}
	c := newTestClient(t, ft)

	res, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C404", Text: "x"})
	assert.Nil(t, res)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "channel_not_found", ue.Code)
	assert.Equal(t, "chat.postMessage", ue.Op)
	assert.Equal(t, 1, ft.releases, "connection released exactly once")
}

func TestSendMessageMalformedBody(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":tru`}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C1", Text: "x"})
	assert.True(t, IsTransport(err))
	assert.Equal(t, 1, ft.releases)
}

func TestSendMessageTransportFailure(t *testing.T) {
	ft := &fakeTransport{err: errors.New("i/o timeout")}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C1", Text: "x"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Contains(t, err.Error(), "i/o timeout")
}

func TestSendMessageRequiresChannel(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Text: "x"})
	assert.ErrorIs(t, err, ErrChannelRequired)
	assert.Equal(t, 0, ft.calls)
}

func TestHeadersAreFreshPerRequest(t *testing.T) {
	ft := &fakeTransport{body: `{"ok":true,"ts":"1.0"}`}
	c := newTestClient(t, ft)

	_, err := c.SendMessage(context.Background(), OutboundMessage{Channel: "C1", Text: "x"})
	require.NoError(t, err)
	ft.headers["Authorization"] = "tampered"
	delete(ft.headers, "Content-Type")

	_, err = c.SendMessage(context.Background(), OutboundMessage{Channel: "C1", Text: "y"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer xoxb-test", ft.headers["Authorization"])
	assert.Equal(t, contentTypeForm, ft.headers["Content-Type"])
}

func TestProbe(t *testing.T) {
	ft := &fakeTransport{body: `{"origin":"203.0.113.7"}`}
	c := newTestClient(t, ft)

	text, err := c.Probe(context.Background(), "http://probe.test/ip")
	require.NoError(t, err)
	assert.Contains(t, text, "203.0.113.7")
	assert.Nil(t, ft.headers, "probe is unauthenticated")
	assert.Equal(t, 1, ft.releases)

	ft.status = http.StatusServiceUnavailable
	_, err = c.Probe(context.Background(), "http://probe.test/ip")
	assert.True(t, IsTransport(err))
	assert.Equal(t, 2, ft.releases)
}

func TestTruthy(t *testing.T) {
	assert.True(t, truthy(true))
	assert.True(t, truthy("yes"))
	assert.True(t, truthy(float64(1)))
	assert.True(t, truthy(map[string]any{}))
	assert.False(t, truthy(nil))
	assert.False(t, truthy(false))
	assert.False(t, truthy(""))
	assert.False(t, truthy(float64(0)))
}

// TestClientAgainstServer exercises the real HTTP transport end to end.
func TestClientAgainstServer(t *testing.T) {
	var posted url.Values
	var rawBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xoxb-live", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/conversations.list":
			io.WriteString(w, channelList)
		case "/api/chat.postMessage":
			data, _ := io.ReadAll(r.Body)
			rawBody = string(data)
			posted, _ = url.ParseQuery(rawBody)
			io.WriteString(w, `{"ok":true,"channel":"C123","ts":"1721300000.000200"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New("xoxb-live", WithBaseURL(srv.URL+"/api"))
	require.NoError(t, err)

	id, err := c.ResolveChannel(context.Background(), "test2")
	require.NoError(t, err)

	res, err := c.SendMessage(context.Background(), OutboundMessage{Channel: id, Text: "ESP32 てすと ﾃｽﾄ", ThreadTS: "1.5"})
	require.NoError(t, err)
	assert.Equal(t, "1721300000.000200", res.TS)

	assert.Equal(t, "C123", posted.Get("channel"))
	assert.Equal(t, "ESP32 てすと ﾃｽﾄ", posted.Get("text"))
	assert.Equal(t, "1.5", posted.Get("thread_ts"))
	assert.NotContains(t, rawBody, "+", "spaces are %20, never '+'")
}

func TestNewTrimsToken(t *testing.T) {
	ft := &fakeTransport{body: channelList}
	c, err := New("  xoxb-from-env\n", WithTransport(ft))
	require.NoError(t, err)

	_, err = c.ResolveChannel(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, "Bearer xoxb-from-env", ft.headers["Authorization"])
}

func TestNewTrimsTokenOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer xoxb-live", r.Header.Get("Authorization"))
		io.WriteString(w, channelList)
	}))
	defer srv.Close()

	c, err := New("xoxb-live\n", WithBaseURL(srv.URL))
	require.NoError(t, err)
	id, err := c.ResolveChannel(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, "C001", id)
}

func TestOversizedResponseIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, channelList)
	}))
	defer srv.Close()

	tr := transport.NewHTTP(0)
	tr.MaxBody = 32
	c, err := New("xoxb-live", WithBaseURL(srv.URL), WithTransport(tr))
	require.NoError(t, err)

	_, err = c.ResolveChannel(context.Background(), "general")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, transport.ErrBodyTooLarge)
}
