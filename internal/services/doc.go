// Package services provides the shared failure taxonomy and the bounded
// retry wrapper used around external collaborator calls.
//
// Collaborator adapters tag errors with the exported sentinel markers so
// callers can classify them with errors.Is: transient classes (rate limits,
// upstream outages, timeouts) are retried with exponential backoff, while
// terminal classes (not found, validation) surface immediately. HTTP-backed
// adapters wrap non-2xx responses in HTTPStatusError so status-based
// classification and Retry-After hints survive wrapping.
package services
