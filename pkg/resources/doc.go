// Package resources bounds how many agents a workflow runs at once.
//
// # Acquisition
//
// Acquire checks a token-bucket rate limiter first, then a queue-length
// admission check against the priority overflow queue, then blocks on a
// weighted semaphore (golang.org/x/sync/semaphore) sized to
// config.Config's MaxConcurrentAgents, then enforces an optional
// per-role cap. The wait is bounded by ResourceAcquireWait.
//
// # Queueing
//
// Every Acquire call occupies a slot on the priority queue
// (container/heap) for the duration of its wait, ordered by
// QueuedTask.Priority with ties going to whichever task was queued
// earliest, and is rejected with ErrQueueFull if the queue is already
// at capacity. QueueTask/DequeueTask expose the same queue directly for
// a caller that wants to hold and manually dispatch a task instead of
// blocking inside Acquire.
package resources
