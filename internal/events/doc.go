// Package events publishes reading item lifecycle events to in-process
// handlers such as the activity log and metrics.
package events
