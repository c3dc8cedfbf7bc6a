// Package llm talks to hosted language models for garment advice.
//
// Two providers are supported over plain HTTPS with JSON bodies: Gemini
// (generateContent) and OpenRouter (chat completions). Both retry rate
// limits, server errors and transport failures with exponential backoff and
// give up immediately on other client errors.
//
// # Provider Selection
//
//  1. If GARMENTFINDER_LLM_PROVIDER is set → use the named provider ("none" disables the model)
//  2. Else if GEMINI_API_KEY is set → use Gemini
//  3. Else if OPENROUTER_API_KEY is set → use OpenRouter
//  4. Else → ErrNoProviderEnabled; callers run without a model
//
// # Advisor
//
// Advisor wraps a Generator with the prompts of the garment finder:
//
//	gen, err := llm.NewFromEnv()
//	if errors.Is(err, llm.ErrNoProviderEnabled) {
//	    // structured extraction only
//	}
//	advisor := llm.NewAdvisor(gen, 0, logger)
//	s, err := advisor.Advise(ctx, "what should I wear to a sangeet")
//	fmt.Println(s.Text, s.Garments)
//
// Advice is cached per query in an LRU, and concurrent requests for the same
// query share a single model call.
package llm
