// Package b2 implements stowgate.Upstream against the Backblaze B2 native API.
//
// Each method performs exactly one outbound HTTP call and never retries.
// Every failure is reported as *stowgate.UpstreamFailure with one of three
// kinds:
//
//   - upstream-rejected: B2 answered with a non-2xx status. StatusCode and Body
//     are kept, and Code/Message are filled when the body is a B2 error
//     document ({"status", "code", "message"}).
//   - no-response: the request was sent but no complete response arrived
//     (network error, timeout, cancelled context).
//   - request-setup-failure: the request could not be built, or a 2xx body did
//     not have the expected shape.
//
// The client does not log. Observability belongs to the HTTP boundary.
//
// # Usage
//
//	client := b2.NewClient(b2.WithTimeout(10 * time.Second))
//
//	auth, err := client.AuthorizeAccount(ctx, stowgate.Credential{Identity: keyID, Secret: key})
//	if err != nil {
//	    return err
//	}
//
//	grant, err := client.GetUploadGrant(ctx, stowgate.UpstreamEndpoint{
//	    BaseURL:    auth.APIURL,
//	    APIVersion: 2,
//	}, auth.AuthorizationToken, auth.ScopeBucketID)
package b2
