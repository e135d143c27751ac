// Package services implements the two boundaries between the client and the report backend.
//
// # Job Client
//
// [JobClient] is the request/response boundary. [JobService] implements it over HTTP:
//   - SubmitJob posts the credentials as JSON to "/" and classifies the reply with [ParseSubmitResponse]
//   - CancelJob posts to "/api/server/stop-selenium" and always resolves to a string
//
// Submit failures never surface as Go errors. A transport failure becomes [ConnectivityMessage] and an
// HTTP error becomes the sentence from [StatusMessage]. CancelJob swallows every failure into [CancelFallback]
// so callers never need a failure branch for it.
//
// # Status Channel
//
// [StatusDialer] opens websocket connections to "/ws/selenium-status". Each [StatusConn] forwards text frames
// verbatim to a [StatusHandler] from its own read goroutine and closes exactly once, whether the close
// comes from [StatusConn.Close] or from the far end. A far-end close is logged and not retried here;
// the reconnect decision belongs to the session package.
//
// # Session Identity
//
// [WithSessionID] tags a context so both boundaries send the session id in the [SessionHeader] header.
package services
