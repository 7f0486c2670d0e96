package customHttpClient

import (
	"net/http"

	"github.com/akolanti/DocQA/internal/config"
)

// providers share one transport so repeated queries reuse their connections
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// New returns a client on the shared transport. Call deadlines come from the
// request context, so no client level timeout is set.
func New() *http.Client {
	return &http.Client{Transport: customTransport}
}
