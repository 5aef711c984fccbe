// Package httpclient is the HTTP client behind every remote call audioscribe
// makes: speech-to-text uploads, chat completions and media downloads.
//
// It resolves paths against a base URL, encodes JSON and multipart bodies,
// applies bearer authentication (optionally fetched per call from a credential
// source). Retry and circuit breaking live in provider middleware.
// Non-2xx responses come back as *Error values that keep the response body;
// ToAppError maps them onto the pipeline's error codes.
//
//	client, _ := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.openai.com/v1",
//	    Timeout: 60 * time.Second,
//	    Auth:    httpclient.BearerTokenAuth(creds.Get),
//	})
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/audio/transcriptions",
//	    Body:   &httpclient.MultipartBody{...},
//	})
package httpclient
