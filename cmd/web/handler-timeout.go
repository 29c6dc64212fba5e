package main

import (
	"net/http"
	"time"
)

const timeoutBody = `<!doctype html>
<html lang="en">
<head><title>Timeout</title></head>
<body>
<h1>Timeout</h1>
<p>The request took too long. <a href="/">Back to the team builder</a></p>
</body>
</html>
`

// timeoutHandler responds with a 503 Service Unavailable error when the handler does not meet the deadline.
func timeoutHandler(h http.Handler, defaultTimeout time.Duration) http.Handler {
	// The timeout is a little shorter than the server's write timeout so that the
	// timeout handler has a chance to respond before the server closes the connection.
	httpHandlerTimeout := defaultTimeout - 500*time.Millisecond //nolint:mnd // 500ms
	return http.TimeoutHandler(h, httpHandlerTimeout, timeoutBody)
}
