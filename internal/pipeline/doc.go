// Package pipeline routes an incoming chat message to one of three response
// strategies: a policy redirect, a curated-resource answer, or an externally
// generated answer. It defines the Engine (stage orchestration), the
// generation Fallback, the Response contract, and the pipeline metrics.
package pipeline
