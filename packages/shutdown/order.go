// Package shutdown defines the order in which the background workers are stopped (higher = earlier).
package shutdown

const (
	PriorityDatabase = iota
	PriorityIndexer
	PriorityWatcher
	PriorityRecovery
	PriorityPrometheus
	PriorityWebAPI
)
