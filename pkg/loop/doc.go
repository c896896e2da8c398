// Package loop provides the single-threaded cooperative scheduler every widget
// instance runs on. All model mutation, command dispatch and event emission
// happen inside loop callbacks; other goroutines hand work over with RunOnLoop.
package loop
