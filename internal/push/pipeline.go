package push

import (
	"context"
	"log/slog"
	"time"

	"upkeep/internal/feed"
)

// Step failure codes, one per pipeline stage. A failed run reports the code
// of the stage that stopped it so the caller can present step-specific
// guidance.
const (
	CodeUnsupported        = "unsupported"
	CodePermissionDenied   = "permission_denied"
	CodeWorkerRegistration = "worker_registration_failed"
	CodeSubscription       = "subscription_failed"
	CodeServerRegistration = "server_registration_failed"
)

const (
	// DefaultWorkerScope is where the background worker is registered
	DefaultWorkerScope = "/"
	// DefaultWorkerReadyTimeout bounds the worker-ready barrier wait
	DefaultWorkerReadyTimeout = 10 * time.Second
)

// Registrar is the slice of the notification store the pipeline needs.
// *feed.NotificationStore implementations satisfy it.
type Registrar interface {
	RegisterPushSubscription(ctx context.Context, userID string, rec feed.PushSubscriptionRecord) error
}

// Result is the structured outcome of one pipeline run. Failures are values,
// not panics: Success false, Code naming the failed step, Err carrying the
// underlying cause when there is one.
type Result struct {
	Success      bool
	Code         string
	Err          error
	Subscription *Subscription
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithWorkerScope overrides the worker registration scope
func WithWorkerScope(scope string) PipelineOption {
	return func(p *Pipeline) { p.scope = scope }
}

// WithWorkerReadyTimeout bounds the wait for the worker to report ready
func WithWorkerReadyTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) { p.readyTimeout = d }
}

// WithDevice sets the device hint sent at registration
func WithDevice(d feed.DeviceInfo) PipelineOption {
	return func(p *Pipeline) { p.device = d }
}

// WithUserAgent derives the device hint from a user-agent string
func WithUserAgent(ua string) PipelineOption {
	return func(p *Pipeline) { p.device = DetectDevice(ua) }
}

// WithPipelineLogger sets the structured logger
func WithPipelineLogger(log *slog.Logger) PipelineOption {
	return func(p *Pipeline) { p.log = log }
}

// Pipeline turns explicit user intent into a durable server-side push
// subscription. Each Run is strictly sequential and fail-fast: support,
// permission, worker, subscription, server registration. A failed step
// short-circuits everything after it, and nothing is retried automatically.
type Pipeline struct {
	platform     Platform
	registrar    Registrar
	serverKey    string
	scope        string
	readyTimeout time.Duration
	device       feed.DeviceInfo
	log          *slog.Logger
}

// NewPipeline builds a pipeline. serverKey is the base64url VAPID public key
// distributed by the server.
func NewPipeline(platform Platform, registrar Registrar, serverKey string, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		platform:     platform,
		registrar:    registrar,
		serverKey:    serverKey,
		scope:        DefaultWorkerScope,
		readyTimeout: DefaultWorkerReadyTimeout,
		device:       feed.DeviceInfo{Type: "web", Browser: "unknown", Name: "unknown"},
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one registration attempt for userID. Each invocation starts
// fresh from the support check.
func (p *Pipeline) Run(ctx context.Context, userID string) Result {
	if !p.platform.Supported() {
		return p.fail(CodeUnsupported, nil)
	}

	perm, err := p.platform.RequestPermission(ctx)
	if err != nil {
		return p.fail(CodePermissionDenied, err)
	}
	if perm != PermissionGranted {
		return p.fail(CodePermissionDenied, nil)
	}

	workerCtx, cancel := context.WithTimeout(ctx, p.readyTimeout)
	defer cancel()
	worker, err := p.platform.RegisterWorker(workerCtx, p.scope)
	if err != nil {
		return p.fail(CodeWorkerRegistration, err)
	}

	sub, err := worker.Subscription(ctx)
	if err != nil {
		return p.fail(CodeSubscription, err)
	}
	if sub == nil {
		serverKey, err := DecodeVAPIDPublicKey(p.serverKey)
		if err != nil {
			return p.fail(CodeSubscription, err)
		}
		sub, err = worker.Subscribe(ctx, serverKey)
		if err != nil {
			return p.fail(CodeSubscription, err)
		}
	}

	rec := feed.PushSubscriptionRecord{
		Endpoint: sub.Endpoint,
		Keys:     sub.Keys,
		Device:   p.device,
	}
	if err := p.registrar.RegisterPushSubscription(ctx, userID, rec); err != nil {
		return p.fail(CodeServerRegistration, err)
	}

	p.log.Info("push subscription registered", "user_id", userID, "endpoint", sub.Endpoint)
	return Result{Success: true, Subscription: sub}
}

func (p *Pipeline) fail(code string, err error) Result {
	p.log.Warn("push registration failed", "step", code, "error", err)
	return Result{Code: code, Err: err}
}
