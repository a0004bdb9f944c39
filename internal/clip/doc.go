// Package clip decides which segments become corpus clips based on duration.
//
// Rejected segments are dropped outright: they are never written to disk and
// never numbered.
package clip
