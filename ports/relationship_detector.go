package ports

import "datalens/domain/dataset"

// RelationshipDetector proposes joins across the datasets of one session
type RelationshipDetector interface {
	DiscoverRelationships(datasets []*dataset.Dataset) []dataset.Relationship
}
