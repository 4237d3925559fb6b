package services

import (
	"context"
	"fmt"
	"time"

	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/metrics"

	imrocreq "github.com/imroc/req/v3"
)

// Revalidator asks the frontend to rebuild cached pages after content
// changes. Calls are fire-and-forget.
type Revalidator struct {
	url    string
	secret string
	client *imrocreq.Client
}

func NewRevalidator(url, secret string) *Revalidator {
	client := imrocreq.C().
		SetTimeout(10*time.Second).
		SetUserAgent("portfolio-backend").
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(500 * time.Millisecond)
	return &Revalidator{url: url, secret: secret, client: client}
}

type revalidateRequest struct {
	Secret     string `json:"secret"`
	Collection string `json:"collection"`
}

func (r *Revalidator) ContentChanged(ctx context.Context, collection string) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := r.Notify(bg, collection); err != nil {
			logging.WithComponent("revalidate").Warn().Err(err).Str("collection", collection).Msg("revalidation failed")
		}
	}()
}

// Notify posts synchronously.
func (r *Revalidator) Notify(ctx context.Context, collection string) error {
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(revalidateRequest{Secret: r.secret, Collection: collection}).
		Post(r.url)
	outcome := "sent"
	if err == nil && resp.IsErrorState() {
		err = &RevalidateError{Status: resp.StatusCode}
	}
	if err != nil {
		outcome = "failed"
	}
	metrics.NotificationsTotal.WithLabelValues("revalidate", outcome).Inc()
	return err
}

type RevalidateError struct {
	Status int
}

func (e *RevalidateError) Error() string {
	return fmt.Sprintf("revalidate endpoint returned %d", e.Status)
}
