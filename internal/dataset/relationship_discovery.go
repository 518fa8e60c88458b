package dataset

import (
	"strings"
	"time"

	domainDataset "datalens/domain/dataset"
	"datalens/internal"
)

// DefaultRelationshipConfidence is attached to every name-and-type match
const DefaultRelationshipConfidence = 0.8

// DiscoveryOptions tunes relationship discovery
type DiscoveryOptions struct {
	// Confidence is the score given to each proposal
	Confidence float64
	// InferCardinality replaces the many-to-many default with a guess based
	// on column uniqueness. The side holding unique values becomes the source.
	InferCardinality bool
}

// DefaultDiscoveryOptions returns the 0.8 confidence, many-to-many behaviour
func DefaultDiscoveryOptions() DiscoveryOptions {
	return DiscoveryOptions{Confidence: DefaultRelationshipConfidence}
}

// RelationshipDiscoveryEngine proposes joins between the datasets of a session
type RelationshipDiscoveryEngine struct {
	options DiscoveryOptions
	logger  *internal.Logger
}

// DiscoveryResult represents the result of relationship discovery
type DiscoveryResult struct {
	Relationships   []domainDataset.Relationship `json:"relationships"`
	ConfidenceScore float64                      `json:"confidence_score"`
	AnalysisTime    int64                        `json:"analysis_time_ms"`
}

// NewRelationshipDiscoveryEngine creates a new relationship discovery engine
func NewRelationshipDiscoveryEngine(options DiscoveryOptions, logger *internal.Logger) *RelationshipDiscoveryEngine {
	if options.Confidence <= 0 || options.Confidence > 1 {
		options.Confidence = DefaultRelationshipConfidence
	}
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &RelationshipDiscoveryEngine{options: options, logger: logger}
}

// DiscoverRelationships compares every unordered pair of datasets, in the
// order given, and emits one proposal per pair of columns whose names match
// case-insensitively and whose inferred types are equal.
func (rde *RelationshipDiscoveryEngine) DiscoverRelationships(datasets []*domainDataset.Dataset) []domainDataset.Relationship {
	var relationships []domainDataset.Relationship
	for i := 0; i < len(datasets); i++ {
		for j := i + 1; j < len(datasets); j++ {
			if datasets[i] == nil || datasets[j] == nil {
				continue
			}
			relationships = append(relationships, rde.analyzeDatasetPair(datasets[i], datasets[j])...)
		}
	}
	return relationships
}

// Discover wraps DiscoverRelationships with timing and an overall score
func (rde *RelationshipDiscoveryEngine) Discover(datasets []*domainDataset.Dataset) *DiscoveryResult {
	start := time.Now()
	relationships := rde.DiscoverRelationships(datasets)
	result := &DiscoveryResult{
		Relationships:   relationships,
		ConfidenceScore: calculateOverallConfidence(relationships),
		AnalysisTime:    time.Since(start).Milliseconds(),
	}
	rde.logger.Debug("[RelationshipDiscoveryEngine] %d datasets, %d relationships in %dms",
		len(datasets), len(relationships), result.AnalysisTime)
	return result
}

func (rde *RelationshipDiscoveryEngine) analyzeDatasetPair(ds1, ds2 *domainDataset.Dataset) []domainDataset.Relationship {
	var out []domainDataset.Relationship
	for _, c1 := range ds1.Columns {
		for _, c2 := range ds2.Columns {
			if !strings.EqualFold(c1.Name, c2.Name) || c1.Type != c2.Type {
				continue
			}
			out = append(out, rde.buildRelationship(ds1, c1, ds2, c2))
		}
	}
	return out
}

func (rde *RelationshipDiscoveryEngine) buildRelationship(ds1 *domainDataset.Dataset, c1 domainDataset.ColumnInfo, ds2 *domainDataset.Dataset, c2 domainDataset.ColumnInfo) domainDataset.Relationship {
	cardinality := domainDataset.ManyToMany
	if rde.options.InferCardinality {
		unique1 := isUniqueKey(ds1, c1)
		unique2 := isUniqueKey(ds2, c2)
		switch {
		case unique1 && unique2:
			cardinality = domainDataset.OneToOne
		case unique1:
			cardinality = domainDataset.OneToMany
		case unique2:
			cardinality = domainDataset.OneToMany
			ds1, ds2 = ds2, ds1
			c1, c2 = c2, c1
		}
	}

	return domainDataset.Relationship{
		ID:              domainDataset.RelationshipID(ds1.ID, ds2.ID, relationshipKey(c1.Name, c2.Name)),
		SourceDatasetID: ds1.ID,
		TargetDatasetID: ds2.ID,
		SourceColumn:    c1.Name,
		TargetColumn:    c2.Name,
		Cardinality:     cardinality,
		Confidence:      rde.options.Confidence,
	}
}

// relationshipKey keeps IDs distinct when one dataset has both "ID" and "id"
func relationshipKey(source, target string) string {
	if source == target {
		return source
	}
	return source + ":" + target
}

// isUniqueKey reports whether every non-null value of the column is distinct
func isUniqueKey(ds *domainDataset.Dataset, col domainDataset.ColumnInfo) bool {
	nonNull := ds.RowCount - col.NullCount
	return nonNull > 0 && col.UniqueCount == nonNull
}

func calculateOverallConfidence(relationships []domainDataset.Relationship) float64 {
	if len(relationships) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range relationships {
		total += r.Confidence
	}
	return total / float64(len(relationships))
}
