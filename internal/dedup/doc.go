// Package dedup implements duplicate resolution over validated policy
// records: exact duplicates are merged by signature, near-duplicates are
// flagged for review, and stable policy IDs are assigned at finalize time.
//
// Two mechanisms, deliberately distinct:
//
// Exact duplicates share a signature (a normalized composite of policy
// name, category, section number, and registry path) and are merged
// field-wise: non-empty values win, the first-seen record wins conflicts,
// raw text is concatenated to preserve audit context, and confidence takes
// the maximum. Re-running deduplication on already-deduplicated output is
// a no-op.
//
// Near-duplicates score above the configured similarity threshold without
// sharing a signature. They are never merged automatically - the text
// difference may be a typo or a genuinely distinct policy, and only a human
// can tell - so both records are flagged needs_review with mutual
// similar_to references.
//
// Design decision: Near-duplicate detection is O(n^2). Above the configured
// comparison cap the pass falls back to comparing within category batches
// and records a summary warning, rather than silently truncating.
package dedup
