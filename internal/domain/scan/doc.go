// Package scan holds the scan domain model: findings, fetch results, the
// consolidation and feature extraction passes, risk levels, history
// comparison and the persisted ScanRecord aggregate.
package scan
