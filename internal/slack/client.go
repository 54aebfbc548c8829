// Package slack posts messages to Slack through the Web API.
//
// Requests carry the bot token as a bearer credential. Message bodies are
// form-urlencoded with strict percent-encoding so multi-byte text reaches
// Slack byte-exact. The client resolves channel names on every call and
// keeps no cache.
package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/soyeahso/linkpost/internal/config"
	"github.com/soyeahso/linkpost/internal/logging"
	"github.com/soyeahso/linkpost/internal/transport"
)

const (
	// DefaultBaseURL is the Slack Web API root.
	DefaultBaseURL = "https://slack.com/api"

	contentTypeForm = "application/x-www-form-urlencoded; charset=utf-8"

	opConversationsList = "conversations.list"
	opPostMessage       = "chat.postMessage"
	opProbe             = "probe"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTransport replaces the HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithLogger sets the logger. The default is silent.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.log = l.Sub("slack") }
}

// Client calls the Slack Web API. It holds no mutable state after
// construction, so sequential reuse is safe.
type Client struct {
	token     string
	baseURL   string
	transport transport.Transport
	log       *logging.Logger
}

// New creates a client for token. Surrounding whitespace, such as the
// newline an env var or secret file often carries, is dropped. It fails with
// ErrInvalidToken if the token is empty or the sample placeholder.
func New(token string, opts ...Option) (*Client, error) {
	if !config.TokenUsable(token) {
		return nil, ErrInvalidToken
	}
	c := &Client{
		token:   strings.TrimSpace(token),
		baseURL: DefaultBaseURL,
		log:     logging.New(nil, "silent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.NewHTTP(0)
	}
	return c, nil
}

// headers builds a fresh header set for one request.
func (c *Client) headers() transport.Header {
	return transport.Header{
		"Authorization": "Bearer " + c.token,
		"Content-Type":  contentTypeForm,
	}
}

func (c *Client) endpoint(method string) string {
	return c.baseURL + "/" + method
}

// ListChannels returns the first page of conversations.list.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	c.log.Debug().Str("op", opConversationsList).Msg("request")

	resp, err := c.transport.Get(ctx, c.endpoint(opConversationsList), c.headers())
	if err != nil {
		return nil, &TransportError{Op: opConversationsList, Err: err}
	}
	defer resp.Close()

	var result conversationsListResponse
	if err := decode(resp, &result); err != nil {
		return nil, &TransportError{Op: opConversationsList, Err: err}
	}
	if !truthy(result.OK) {
		return nil, c.upstream(opConversationsList, result.Error)
	}
	return result.Channels, nil
}

// ResolveChannel maps a channel name to its id by scanning the first page
// of conversations.list. Matching is exact and case-sensitive; later pages
// are not fetched. Returns ErrChannelNotFound when nothing matches.
func (c *Client) ResolveChannel(ctx context.Context, name string) (string, error) {
	channels, err := c.ListChannels(ctx)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Name == name {
			c.log.Debug().Str("name", name).Str("id", ch.ID).Msg("channel resolved")
			return ch.ID, nil
		}
	}
	c.log.Warn().Str("name", name).Int("scanned", len(channels)).Msg("channel not found")
	return "", fmt.Errorf("%w: %q", ErrChannelNotFound, name)
}

// SendMessage posts msg with chat.postMessage and returns the server
// assigned timestamp. The body keys are channel, text and, only when set,
// thread_ts.
func (c *Client) SendMessage(ctx context.Context, msg OutboundMessage) (*PostResult, error) {
	if msg.Channel == "" {
		return nil, ErrChannelRequired
	}

	form := msg.form()
	body := form.Bytes()
	c.log.Debug().
		Str("op", opPostMessage).
		Str("channel", msg.Channel).
		Strs("fields", form.Keys()).
		Int("bytes", len(body)).
		Msg("request")

	resp, err := c.transport.Post(ctx, c.endpoint(opPostMessage), c.headers(), body)
	if err != nil {
		return nil, &TransportError{Op: opPostMessage, Err: err}
	}
	defer resp.Close()

	var payload map[string]any
	if err := decode(resp, &payload); err != nil {
		return nil, &TransportError{Op: opPostMessage, Err: err}
	}
	if !truthy(payload["ok"]) {
		code, _ := payload["error"].(string)
		return nil, c.upstream(opPostMessage, code)
	}

	result := &PostResult{Payload: payload}
	result.TS, _ = payload["ts"].(string)
	result.Channel, _ = payload["channel"].(string)
	if result.Channel == "" {
		result.Channel = msg.Channel
	}

	c.log.Info().Str("channel", result.Channel).Str("ts", result.TS).Msg("message posted")
	return result, nil
}

// Probe issues an unauthenticated GET to url and returns the body. It is a
// reachability check, independent of the Slack API.
func (c *Client) Probe(ctx context.Context, url string) (string, error) {
	return Probe(ctx, c.transport, url)
}

// Probe is Client.Probe for callers that have no token yet.
func Probe(ctx context.Context, t transport.Transport, url string) (string, error) {
	resp, err := t.Get(ctx, url, nil)
	if err != nil {
		return "", &TransportError{Op: opProbe, Err: err}
	}
	defer resp.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{Op: opProbe, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return resp.Text, nil
}

func (c *Client) upstream(op, code string) error {
	if code == "" {
		code = "unknown_error"
	}
	c.log.Warn().Str("op", op).Str("error", code).Msg("api rejected request")
	return &UpstreamError{Op: op, Code: code}
}

func decode(resp *transport.Response, v any) error {
	if err := json.Unmarshal([]byte(resp.Text), v); err != nil {
		return fmt.Errorf("status %d: invalid JSON: %w", resp.StatusCode, err)
	}
	return nil
}

// truthy mirrors how loosely typed clients read the "ok" flag.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
