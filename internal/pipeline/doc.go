// Package pipeline provides a framework for executing extraction steps in
// sequence.
//
// The pipeline pattern is used to process benchmark documents through
// multiple stages: prose-text scanning, tabular extraction, validation and
// enrichment, and deduplication. Each stage is implemented as a Step that
// receives the current extraction state and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running extractions
// 4. It gives every step a uniform place to report progress
//
// The pipeline supports both individual documents and batch processing with
// concurrency control using errgroup. Document failures are isolated: a
// document that cannot be read fails inside its own task and never cancels
// sibling documents.
package pipeline
