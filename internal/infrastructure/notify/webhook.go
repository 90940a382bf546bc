package notify

import (
	"context"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/song-league/internal/domain/notification"
	"github.com/riskibarqy/song-league/internal/platform/logging"
	"github.com/riskibarqy/song-league/internal/platform/resilience"
)

const defaultDispatchTimeout = 5 * time.Second

// WebhookDispatcher posts lifecycle events to an external webhook. Delivery
// is fire-and-forget: failures are logged and counted against the breaker,
// never surfaced to the caller.
type WebhookDispatcher struct {
	client     *fasthttp.Client
	webhookURL string
	timeout    time.Duration
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

type WebhookConfig struct {
	URL     string
	Timeout time.Duration
	Breaker resilience.CircuitBreakerConfig
}

func NewWebhookDispatcher(cfg WebhookConfig, logger *logging.Logger) *WebhookDispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	var breaker *resilience.CircuitBreaker
	if cfg.Breaker.Enabled {
		breaker = resilience.NewCircuitBreaker(cfg.Breaker.FailureThreshold, cfg.Breaker.OpenTimeout, cfg.Breaker.HalfOpenMaxReq)
	}

	return &WebhookDispatcher{
		client:     &fasthttp.Client{},
		webhookURL: strings.TrimSpace(cfg.URL),
		timeout:    timeout,
		breaker:    breaker,
		logger:     logger,
	}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, event notification.Event) {
	if d.webhookURL == "" {
		return
	}

	// Delivery outlives the request that produced the event.
	go d.deliver(context.WithoutCancel(ctx), event)
}

func (d *WebhookDispatcher) deliver(ctx context.Context, event notification.Event) {
	if d.breaker != nil {
		if err := d.breaker.Allow(); err != nil {
			d.logger.WarnContext(ctx, "notification dropped",
				"reason", "circuit open",
				"event_type", string(event.Type),
				"round_id", event.RoundID,
			)
			return
		}
	}

	err := d.post(event)
	if d.breaker != nil {
		if err != nil {
			d.breaker.RecordFailure()
		} else {
			d.breaker.RecordSuccess()
		}
	}
	if err != nil {
		d.logger.WarnContext(ctx, "notification delivery failed",
			"event_type", string(event.Type),
			"league_id", event.LeagueID,
			"round_id", event.RoundID,
			"error", err,
		)
		return
	}

	d.logger.DebugContext(ctx, "notification delivered",
		"event_type", string(event.Type),
		"round_id", event.RoundID,
	)
}

func (d *WebhookDispatcher) post(event notification.Event) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(event); err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(d.webhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(buf.B)

	if err := d.client.DoTimeout(req, resp, d.timeout); err != nil {
		return err
	}
	if resp.StatusCode()/100 != 2 {
		return errors.Newf("webhook responded with status %d", resp.StatusCode())
	}

	return nil
}
