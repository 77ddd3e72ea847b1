package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/serroba/url-shortener/internal/analytics"
	"github.com/serroba/url-shortener/internal/messaging"
	"github.com/serroba/url-shortener/internal/shortener"
	"go.uber.org/zap"
)

// Resolver is the shorten/redirect core the handler delegates to.
type Resolver interface {
	Shorten(ctx context.Context, longURL string) (*shortener.URLRecord, bool, error)
	Redirect(ctx context.Context, code string) (string, error)
}

// URLHandler handles URL shortening operations.
type URLHandler struct {
	resolver           Resolver
	publishURLCreated  messaging.Publish[analytics.URLCreatedEvent]
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent]
	logger             *zap.Logger
}

// NewURLHandler creates a new URL handler.
func NewURLHandler(
	resolver Resolver,
	publishURLCreated messaging.Publish[analytics.URLCreatedEvent],
	publishURLAccessed messaging.Publish[analytics.URLAccessedEvent],
	logger *zap.Logger,
) *URLHandler {
	return &URLHandler{
		resolver:           resolver,
		publishURLCreated:  publishURLCreated,
		publishURLAccessed: publishURLAccessed,
		logger:             logger,
	}
}

type requestMetaKey struct{}

// RequestMeta holds HTTP request metadata for analytics.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}

// ContextWithRequestMeta adds request metadata to context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	if v, ok := ctx.Value(requestMetaKey{}).(RequestMeta); ok {
		return v
	}

	return RequestMeta{}
}

func (h *URLHandler) Shorten(ctx context.Context, req *ShortenRequest) (*ShortenResponse, error) {
	record, created, err := h.resolver.Shorten(ctx, req.Body.LongURL)
	if err != nil {
		h.logFailure("shorten failed", err)

		return nil, statusFor(err, "Invalid long URL")
	}

	if created {
		meta := RequestMetaFromContext(ctx)
		event := &analytics.URLCreatedEvent{
			Code:      string(record.Code),
			LongURL:   record.LongURL,
			CreatedAt: record.CreatedAt,
			ClientIP:  meta.ClientIP,
			UserAgent: meta.UserAgent,
		}

		if err := h.publishURLCreated(ctx, event); err != nil {
			h.logger.Error("failed to publish analytics event",
				zap.String("code", event.Code),
				zap.Error(err),
			)
		}
	}

	resp := &ShortenResponse{}
	resp.Location = record.ShortURL
	resp.Body.Status = true
	resp.Body.Data = URLData{
		LongURL:  record.LongURL,
		ShortURL: record.ShortURL,
		URLCode:  string(record.Code),
	}

	return resp, nil
}

func (h *URLHandler) Redirect(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	longURL, err := h.resolver.Redirect(ctx, req.URLCode)
	if err != nil {
		h.logFailure("redirect failed", err, zap.String("code", req.URLCode))

		return nil, statusFor(err, "Invalid url code")
	}

	meta := RequestMetaFromContext(ctx)
	event := &analytics.URLAccessedEvent{
		Code:       req.URLCode,
		AccessedAt: time.Now().UTC(),
		ClientIP:   meta.ClientIP,
		UserAgent:  meta.UserAgent,
		Referrer:   meta.Referrer,
	}

	if err = h.publishURLAccessed(ctx, event); err != nil {
		h.logger.Error("failed to publish access event",
			zap.String("code", event.Code),
			zap.Error(err),
		)
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Location = longURL

	return resp, nil
}

// logFailure logs server-side failures; client errors are not logged.
func (h *URLHandler) logFailure(msg string, err error, fields ...zap.Field) {
	if statusFor(err, "").GetStatus() < http.StatusInternalServerError {
		return
	}

	h.logger.Error(msg, append(fields, zap.Error(err))...)
}
