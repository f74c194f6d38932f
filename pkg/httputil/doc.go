// Package httputil provides the HTTP plumbing used by remote catalog sources.
//
// # Overview
//
//   - [Client]: GET requests with default headers, status mapping and
//     observability hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Retry] only retries errors wrapped in [RetryableError]. [Client] wraps
// network failures and 5xx responses that way, so a caller can write:
//
//	var body []byte
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    var err error
//	    body, err = client.GetBytes(ctx, url)
//	    return err
//	})
//
// 4xx responses are returned immediately: retrying a missing catalog does
// not make it appear.
//
// # Errors
//
// Errors returned by [Client] carry codes from pkg/errors: NOT_FOUND for
// 404, NETWORK_ERROR for connection failures and other non-2xx responses.
package httputil
