// Package memory sizes the Go heap for containerized deployments and tells
// the upload path when the heap is close to its limit.
//
// ConfigureFromEnv reads MEMORY_LIMIT (bytes, usually injected through the
// Kubernetes Downward API) and MEMORY_RATIO and sets GOMEMLIMIT accordingly.
// An explicit GOMEMLIMIT is left untouched.
//
// A Monitor samples heap usage on an interval. While usage is at or above the
// high water mark, ShouldThrottle returns true and uploads answer 503 so a
// burst of multipart bodies cannot push the process over its limit. Usage is
// exported as nyapix_memory_usage_ratio and the throttle state as
// nyapix_memory_throttled.
package memory
