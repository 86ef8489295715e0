// Package resilience groups the fault-tolerance patterns wrapped around
// generation backend calls.
//
// The subpackages are:
//   - circuitbreaker: per-backend breakers (Claude, OpenAI, Gemini) on top of sony/gobreaker
//   - retry: capped exponential backoff driven by classified backend errors
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.ForBackend("claude"))
//	out, err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) (string, error) {
//	    return circuitbreaker.Call(cb, func() (string, error) {
//	        return backend.Complete(ctx, prompt)
//	    })
//	})
package resilience
