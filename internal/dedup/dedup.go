package dedup

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/benchscan/internal/model"
)

// Default tuning values. These are heuristic starting points, not
// theoretically optimal constants; every one of them is overridable
// through the config surface.
const (
	// DefaultThreshold is the near-duplicate similarity threshold.
	DefaultThreshold = 0.85

	// DefaultNameWeight is the dominant weight on policy-name similarity.
	DefaultNameWeight = 0.70

	// DefaultCategoryBonus is added when both records share a category.
	DefaultCategoryBonus = 0.15

	// DefaultPathWeight weights configuration-path similarity.
	DefaultPathWeight = 0.15

	// DefaultMaxCompare caps the all-pairs near-duplicate comparison.
	// Above the cap, comparison falls back to per-category batches.
	DefaultMaxCompare = 2000
)

// Stats summarizes one deduplication pass.
type Stats struct {
	// Merged is the number of exact duplicates merged away.
	Merged int

	// Flagged is the number of records flagged needs_review.
	Flagged int

	// Capped is true when the comparison cap forced per-category batching.
	Capped bool
}

// Deduplicator resolves exact and near duplicates in a validated record
// stream. It holds only immutable configuration and is safe for concurrent
// use across document pipelines.
type Deduplicator struct {
	threshold     float64
	nameWeight    float64
	categoryBonus float64
	pathWeight    float64
	maxCompare    int
	logger        *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithThreshold sets the near-duplicate similarity threshold.
// Values outside (0,1] are ignored.
func WithThreshold(threshold float64) Option {
	return func(d *Deduplicator) {
		if threshold > 0 && threshold <= 1 {
			d.threshold = threshold
		}
	}
}

// WithSimilarityWeights sets the similarity coefficients. Name similarity
// should carry the dominant weight. Scores are normalized by the
// applicable weight total, so only the ratio between the values matters.
func WithSimilarityWeights(name, categoryBonus, path float64) Option {
	return func(d *Deduplicator) {
		d.nameWeight = name
		d.categoryBonus = categoryBonus
		d.pathWeight = path
	}
}

// WithMaxCompare sets the all-pairs comparison cap. Values below 1 are
// ignored.
func WithMaxCompare(n int) Option {
	return func(d *Deduplicator) {
		if n > 0 {
			d.maxCompare = n
		}
	}
}

// WithLogger sets a custom logger for the deduplicator.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		d.logger = logger
	}
}

// New creates a Deduplicator with the default tuning values.
func New(opts ...Option) *Deduplicator {
	d := &Deduplicator{
		threshold:     DefaultThreshold,
		nameWeight:    DefaultNameWeight,
		categoryBonus: DefaultCategoryBonus,
		pathWeight:    DefaultPathWeight,
		maxCompare:    DefaultMaxCompare,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Signature returns the exact-duplicate signature for a record: a stable
// composite of the normalized policy name, category, section number, and
// registry path. Records with an empty registry path carry an empty path
// component and are merged into a path-bearing duplicate when the rest of
// the composite matches, so a table-derived row without a path still folds
// into its text-derived counterpart.
func Signature(rec *model.PolicyRecord) string {
	return strings.Join([]string{
		normalize(rec.PolicyName),
		normalize(rec.Category),
		normalize(rec.SectionNumber),
		normalize(rec.RegistryPath),
	}, "\x1f")
}

// looseSignature is the signature without the registry-path component,
// used to find merge candidates for records missing the path.
func looseSignature(rec *model.PolicyRecord) string {
	return strings.Join([]string{
		normalize(rec.PolicyName),
		normalize(rec.Category),
		normalize(rec.SectionNumber),
	}, "\x1f")
}

// mergeCandidate returns the record in bucket that rec is an exact
// duplicate of: registry paths must match after normalization, or one of
// the two must be empty. Two records with different non-empty paths are
// distinct policies and never merge.
func mergeCandidate(bucket []*model.PolicyRecord, rec *model.PolicyRecord) *model.PolicyRecord {
	path := normalize(rec.RegistryPath)
	for _, existing := range bucket {
		existingPath := normalize(existing.RegistryPath)
		if path == "" || existingPath == "" || path == existingPath {
			return existing
		}
	}
	return nil
}

// Deduplicate resolves duplicates in one validated record stream and
// assigns policy IDs scoped by documentID. The input order decides merge
// precedence (first seen wins field conflicts) and ID assignment.
//
// Running Deduplicate on its own output changes nothing: all signatures
// are unique after the first pass, and near-duplicate flags are
// idempotent.
func (d *Deduplicator) Deduplicate(documentID string, records []*model.PolicyRecord) ([]*model.PolicyRecord, Stats) {
	var stats Stats

	// Exact duplicate resolution by signature, preserving input order.
	unique := make([]*model.PolicyRecord, 0, len(records))
	buckets := make(map[string][]*model.PolicyRecord, len(records))
	for _, rec := range records {
		key := looseSignature(rec)
		if existing := mergeCandidate(buckets[key], rec); existing != nil {
			merge(existing, rec)
			stats.Merged++
			continue
		}
		buckets[key] = append(buckets[key], rec)
		unique = append(unique, rec)
	}

	// Policy IDs are assigned at finalize time so near-duplicate
	// references can point at stable identifiers.
	prefix := idPrefix(documentID)
	for i, rec := range unique {
		if rec.PolicyID == "" {
			rec.PolicyID = fmt.Sprintf("%s-%04d", prefix, i+1)
		}
	}

	stats.Capped = d.flagNearDuplicates(unique)
	for _, rec := range unique {
		if rec.NeedsReview {
			stats.Flagged++
		}
	}

	d.logger.Debug("deduplication complete",
		"document", documentID,
		"input", len(records),
		"unique", len(unique),
		"merged", stats.Merged,
		"flagged", stats.Flagged,
	)
	return unique, stats
}

// FlagNearDuplicates runs only the near-duplicate pass over an arbitrary
// record set, flagging in place without merging or reassigning IDs. It is
// the cross-document variant: exact merging across documents would remove
// records from their per-document results, so batch-level deduplication
// flags and never merges. Returns the flagged count and whether the
// comparison cap forced per-category batching.
func (d *Deduplicator) FlagNearDuplicates(records []*model.PolicyRecord) (flagged int, capped bool) {
	capped = d.flagNearDuplicates(records)
	for _, rec := range records {
		if rec.NeedsReview {
			flagged++
		}
	}
	return flagged, capped
}

// flagNearDuplicates runs the pairwise similarity pass. Returns true when
// the comparison cap forced per-category batching.
func (d *Deduplicator) flagNearDuplicates(records []*model.PolicyRecord) bool {
	if len(records) <= d.maxCompare {
		d.comparePairs(records)
		return false
	}

	// Too many records for all-pairs comparison: batch by category so the
	// pass stays bounded. Cross-category near-duplicates are missed in
	// this mode, which is why the caller surfaces a warning.
	byCategory := make(map[string][]*model.PolicyRecord)
	for _, rec := range records {
		key := normalize(rec.Category)
		byCategory[key] = append(byCategory[key], rec)
	}
	for _, batch := range byCategory {
		d.comparePairs(batch)
	}
	return true
}

// comparePairs flags every pair scoring at or above the threshold.
func (d *Deduplicator) comparePairs(records []*model.PolicyRecord) {
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			a, b := records[i], records[j]
			if score := d.similarity(a, b); score >= d.threshold {
				flagPair(a, b)
			}
		}
	}
}

// similarity scores two records: normalized string distance on the policy
// name carries the dominant weight, sharing a category adds a bonus, and
// configuration-path similarity contributes when both records carry a
// path. The score is normalized by the applicable weight total, so records
// without paths are judged on name and category alone rather than being
// penalized for a field neither of them has.
func (d *Deduplicator) similarity(a, b *model.PolicyRecord) float64 {
	score := d.nameWeight * stringSimilarity(normalize(a.PolicyName), normalize(b.PolicyName))
	total := d.nameWeight + d.categoryBonus

	catA, catB := normalize(a.Category), normalize(b.Category)
	if catA != "" && catA == catB {
		score += d.categoryBonus
	}

	pathA, pathB := normalize(pathOf(a)), normalize(pathOf(b))
	if pathA != "" && pathB != "" {
		score += d.pathWeight * stringSimilarity(pathA, pathB)
		total += d.pathWeight
	}

	if total <= 0 {
		return 0
	}
	return score / total
}

// pathOf returns the record's configuration path, preferring the registry
// path.
func pathOf(rec *model.PolicyRecord) string {
	if rec.RegistryPath != "" {
		return rec.RegistryPath
	}
	return rec.GPOPath
}

// flagPair marks both records for review with mutual back-references.
// Near-duplicates are never merged automatically.
func flagPair(a, b *model.PolicyRecord) {
	a.NeedsReview = true
	b.NeedsReview = true
	addRef(a, b.PolicyID)
	addRef(b, a.PolicyID)
}

// addRef appends a similar_to reference, skipping repeats and self-links.
func addRef(rec *model.PolicyRecord, id string) {
	if id == "" || id == rec.PolicyID {
		return
	}
	for _, existing := range rec.SimilarTo {
		if existing == id {
			return
		}
	}
	rec.SimilarTo = append(rec.SimilarTo, id)
}

// merge folds src into dst. Field-wise the non-empty value wins and dst
// (the first-seen record) wins conflicts; raw text is concatenated to
// preserve audit context; confidence takes the maximum.
func merge(dst, src *model.PolicyRecord) {
	if dst.SectionNumber == "" {
		dst.SectionNumber = src.SectionNumber
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if dst.Subcategory == "" {
		dst.Subcategory = src.Subcategory
	}
	if dst.PolicyName == "" {
		dst.PolicyName = src.PolicyName
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Rationale == "" {
		dst.Rationale = src.Rationale
	}
	if dst.RegistryPath == "" {
		dst.RegistryPath = src.RegistryPath
	}
	if dst.GPOPath == "" {
		dst.GPOPath = src.GPOPath
	}
	if dst.RequiredValue == "" && src.RequiredValue != "" {
		dst.RequiredValue = src.RequiredValue
		dst.ValueType = src.ValueType
	}
	if dst.Level == 0 {
		dst.Level = src.Level
	}
	if dst.Risk == model.RiskUnknown {
		dst.Risk = src.Risk
	}

	if src.RawText != "" && !strings.Contains(dst.RawText, src.RawText) {
		if dst.RawText != "" {
			dst.RawText += "\n\n"
		}
		dst.RawText += src.RawText
	}

	if src.Confidence > dst.Confidence {
		dst.Confidence = src.Confidence
	}
	for _, w := range src.Warnings {
		dst.AddWarning(w)
	}
	if src.NeedsReview {
		dst.NeedsReview = true
	}
	for _, id := range src.SimilarTo {
		addRef(dst, id)
	}
}

// idPrefix derives the policy ID prefix from the document ID.
func idPrefix(documentID string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', '0' <= r && r <= '9':
			return r
		case 'A' <= r && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, documentID)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "policy"
	}
	return slug
}
