package core

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// NewHTTPClient returns an *http.Client that retries connection errors and
// 5xx responses up to retryMax times. Requests to model backends go through it.
func NewHTTPClient(retryMax int, log *zap.SugaredLogger) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.Logger = retryLogger{log.Named("http")}
	client.CheckRetry = checkRetry

	return client.StandardClient()
}

// checkRetry retries like the default policy except on 429. Rate limits are
// handled upstream by switching models, so retrying here only burns quota.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	log *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, keysAndValues...)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warnw(msg, keysAndValues...)
}
