// Package http provides the small HTTP transport the SDK issues its calls
// through: default headers, request/response interceptors, payload logging
// and timeout classification.
//
// Single round trip
//   - Every Do performs exactly one network exchange. There is no retry or
//     backoff; callers that want either wrap the SDK.
//   - Non-2xx responses are returned as a *Response with a nil error so the
//     caller can classify the status itself.
//
// Errors
//   - Transport failures are ClientError values typed as network, timeout,
//     validation or interceptor errors.
//   - A context deadline (including a per-call timeout) surfaces as a
//     timeout error.
package http
