// Package openai implements the upstream adapter for OpenAI-compatible APIs.
//
// It supports:
//
//   - Chat completions (POST {base}/chat/completions)
//   - Legacy text completions (POST {base}/completions)
//   - Streaming responses for both (Server-Sent Events)
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 30 * time.Second,
//	    Models: providers.ModelCatalog{
//	        Chat: []string{"gpt-3.5-turbo", "gpt-4"},
//	        Text: []string{"gpt-3.5-turbo-instruct"},
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	res, err := provider.Complete(ctx, &providers.CompletionRequest{
//	    Kind:        providers.KindChat,
//	    Model:       "gpt-4",
//	    Messages:    []providers.Message{{Role: "user", Content: "Hello!"}},
//	    Temperature: 0.7,
//	    MaxTokens:   150,
//	})
//
// # Streaming
//
//	stream, err := provider.Stream(ctx, req)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer stream.Close()
//
//	for {
//	    chunk, err := stream.Read(ctx)
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// A stream that ends without a "[DONE]" sentinel or a finish reason is
// reported as a *providers.StreamError, never as a clean end.
//
// # Errors
//
// Unsupported models fail locally with *providers.ValidationError before any
// request is sent. Upstream failures are reported as *providers.AuthError,
// *providers.RateLimitError, *providers.TimeoutError, *providers.ParseError
// or *providers.ProviderError. Requests are never retried.
package openai
