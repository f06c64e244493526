// Package http provides the HTTP boundary for the stowgate gateway.
//
// It decodes and validates inbound JSON bodies, hands them to a Service
// (normally *stowgate.GatewayService), and writes the hypermedia responses
// back. It also owns the cross-cutting concerns the core leaves out:
// request ids, request logging, panic recovery, CORS, metrics and the
// mapping of upstream failures to HTTP statuses.
//
// # Routes
//
//	GET  /api                    discovery document with _links
//	POST /api/authorize_account  {identity, secret} -> {apiUrl, authorizationToken, bucketId, downloadUrl?, _links:{getUploadUrl}}
//	POST /api/get_upload_url     {apiUrl, authorizationToken, bucketId} -> {authorizationToken, bucketId, uploadUrl, _links:{uploadFile}}
//	GET  /healthz                liveness
//	GET  /metrics                Prometheus exposition (when a registry is configured)
//
// # Error Mapping
//
// HandleError is the single place errors become responses:
//
//   - upstream-rejected: the provider's status (401, 403, 503, ...) with
//     upstream_status and upstream_code in the body
//   - no-response: 504 upstream_timeout on deadline, otherwise 502 upstream_unavailable
//   - request-setup-failure: 502 upstream_request_failed
//   - invalid body or input: 400 invalid_request, 413 when the body is too large
//   - anything else: 500 internal_error
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    CORS:     http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	    Registry: prometheus.NewRegistry(),
//	}
//	handler, err := http.NewHandler(&handlerCfg, service)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.ListenAndServe(":5001", handler.Router())
package http
