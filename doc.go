// Package connector is a request client that adds convenience semantics on
// top of any HTTP transport:
//
//   - Client default headers and timeouts
//   - Timeout and explicit cancellation through one abort path, reported as
//     distinct errors (codes 1408 and 1409)
//   - Request, response and error hooks; only the response hook may replace
//     the result
//   - A TTL response cache keyed by a fingerprint of the effective request,
//     shared between clients unless one is injected
//   - Form and JSON body encoding, query string building
//   - A download side channel for saving payloads instead of decoding them
//   - Optional per-host rate limiting and Prometheus metrics
//
// Typical usage:
//
//	client := connector.New(
//	    connector.WithDefaultHeaders(map[string]string{"Accept": "application/json"}),
//	    connector.WithDefaultTimeout(5*time.Second),
//	)
//	resp, err := client.Get(ctx, "https://api.example.com/items", &connector.RequestConfig{
//	    CacheTTL: time.Minute,
//	    Query:    connector.NewValues("page", "2"),
//	})
//
// Use Start instead of Request to get a Pending that can be canceled.
//
// Note that client defaults replace per-call values: a client with default
// headers ignores the headers passed to individual calls.
package connector
