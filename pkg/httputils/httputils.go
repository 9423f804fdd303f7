package httputils

import (
	"net/http"
	"time"

	"github.com/autobrr/autobrr/pkg/sharedhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/ratelimit"

	"github.com/luckylittle/qbrecon/pkg/runtime"
)

// NewRetryableHttpClient returns a standard client that retries failed and
// rate limited (429) requests, honouring Retry-After, and paces every attempt
// through rl when set.
func NewRetryableHttpClient(timeout time.Duration, rl ratelimit.Limiter) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.RequestLogHook = func(l retryablehttp.Logger, request *http.Request, i int) {
		// set user-agent
		if request != nil {
			request.Header.Set("User-Agent", UserAgent())
		}

		// rate limit
		if rl != nil {
			rl.Take()
		}
	}
	retryClient.HTTPClient.Timeout = timeout
	retryClient.HTTPClient.Transport = sharedhttp.Transport
	retryClient.Logger = nil
	return retryClient.StandardClient()
}

func UserAgent() string {
	return "qbrecon/" + runtime.Version
}
