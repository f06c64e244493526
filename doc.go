// Package stowgate provides a credential-delegation gateway for B2-compatible
// object storage. It fronts the provider's account authorization and upload
// provisioning endpoints and returns hypermedia-linked responses, so a client
// can discover the next valid operation without hardcoding downstream URLs.
//
// # Key Components
//
//   - BuildLinks: turns relation name -> {href, method} into a LinkSet
//   - MakeURL: forms upstream addresses as {base}/api/v{version}/{operation}
//   - Upstream: interface for the provider calls (see the b2 package)
//   - GatewayService: the extract -> delegate -> assemble pipeline for each operation
//   - UpstreamFailure: the single error channel for provider failures
//
// # Example Usage
//
//	client := b2.NewClient()
//	service, err := stowgate.NewGatewayService(client, stowgate.ServiceConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	auth, err := service.Authorize(ctx, stowgate.Credential{Identity: keyID, Secret: key})
//	if err != nil {
//	    var failure *stowgate.UpstreamFailure
//	    if errors.As(err, &failure) {
//	        log.Printf("provider said %d", failure.StatusCode)
//	    }
//	    return err
//	}
//
//	next := auth.Links["getUploadUrl"] // {rel, href, method}
//
// Every value handled here is request scoped. Nothing is cached between
// requests, so concurrent callers never observe each other's tokens.
//
// See the http package for the REST boundary and the clientcli package for a
// client that follows the links end to end.
package stowgate
