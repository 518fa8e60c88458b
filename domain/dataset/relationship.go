package dataset

import (
	"fmt"

	"datalens/domain/core"
)

// Cardinality of a proposed join
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// Relationship is a heuristic join proposal between two datasets.
// It is a name and type match only; join selectivity is never checked.
type Relationship struct {
	ID              string         `json:"id" yaml:"id"`
	SourceDatasetID core.DatasetID `json:"sourceDatasetId" yaml:"sourceDatasetId"`
	TargetDatasetID core.DatasetID `json:"targetDatasetId" yaml:"targetDatasetId"`
	SourceColumn    string         `json:"sourceColumn" yaml:"sourceColumn"`
	TargetColumn    string         `json:"targetColumn" yaml:"targetColumn"`
	Cardinality     Cardinality    `json:"cardinality" yaml:"cardinality"`
	Confidence      float64        `json:"confidence" yaml:"confidence"`
}

// RelationshipID builds the rel-<source>-<target>-<column> identifier
func RelationshipID(source, target core.DatasetID, column string) string {
	return fmt.Sprintf("rel-%s-%s-%s", source, target, column)
}
