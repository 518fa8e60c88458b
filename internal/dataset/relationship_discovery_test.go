package dataset

import (
	"testing"

	"datalens/domain/core"
	domainDataset "datalens/domain/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datasetWithColumns(id string, rows int, columns ...domainDataset.ColumnInfo) *domainDataset.Dataset {
	ds := &domainDataset.Dataset{ID: core.DatasetID(id), Name: id, RowCount: rows, Columns: columns}
	for _, c := range columns {
		ds.Headers = append(ds.Headers, c.Name)
	}
	return ds
}

func col(name string, t domainDataset.ColumnType, unique int) domainDataset.ColumnInfo {
	return domainDataset.ColumnInfo{Name: name, Type: t, UniqueCount: unique}
}

func TestDiscoverRelationships_MatchingColumn(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DefaultDiscoveryOptions(), nil)

	customers := datasetWithColumns("customers", 3,
		col("customer_id", domainDataset.TypeNumber, 3),
		col("name", domainDataset.TypeString, 3),
	)
	orders := datasetWithColumns("orders", 5,
		col("Customer_ID", domainDataset.TypeNumber, 2),
		col("amount", domainDataset.TypeNumber, 5),
	)

	rels := engine.DiscoverRelationships([]*domainDataset.Dataset{customers, orders})
	require.Len(t, rels, 1)

	rel := rels[0]
	assert.Equal(t, core.DatasetID("customers"), rel.SourceDatasetID)
	assert.Equal(t, core.DatasetID("orders"), rel.TargetDatasetID)
	assert.Equal(t, "customer_id", rel.SourceColumn)
	assert.Equal(t, "Customer_ID", rel.TargetColumn)
	assert.Equal(t, domainDataset.ManyToMany, rel.Cardinality)
	assert.Equal(t, 0.8, rel.Confidence)
	assert.Equal(t, "rel-customers-orders-customer_id:Customer_ID", rel.ID)
}

func TestDiscoverRelationships_TypeMismatch(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DefaultDiscoveryOptions(), nil)

	a := datasetWithColumns("a", 2, col("id", domainDataset.TypeNumber, 2))
	b := datasetWithColumns("b", 2, col("id", domainDataset.TypeString, 2))

	assert.Empty(t, engine.DiscoverRelationships([]*domainDataset.Dataset{a, b}))
}

func TestDiscoverRelationships_PairOrder(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DefaultDiscoveryOptions(), nil)

	a := datasetWithColumns("a", 1, col("region", domainDataset.TypeString, 1))
	b := datasetWithColumns("b", 1, col("region", domainDataset.TypeString, 1))
	c := datasetWithColumns("c", 1, col("region", domainDataset.TypeString, 1))

	rels := engine.DiscoverRelationships([]*domainDataset.Dataset{a, b, c})
	require.Len(t, rels, 3)

	ids := []string{rels[0].ID, rels[1].ID, rels[2].ID}
	assert.Equal(t, []string{
		"rel-a-b-region",
		"rel-a-c-region",
		"rel-b-c-region",
	}, ids)
}

func TestDiscoverRelationships_SingleDataset(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DefaultDiscoveryOptions(), nil)
	a := datasetWithColumns("a", 1, col("id", domainDataset.TypeNumber, 1))

	assert.Empty(t, engine.DiscoverRelationships([]*domainDataset.Dataset{a}))
	assert.Empty(t, engine.DiscoverRelationships(nil))
}

func TestDiscoverRelationships_InferCardinality(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DiscoveryOptions{InferCardinality: true}, nil)

	orders := datasetWithColumns("orders", 5, col("customer_id", domainDataset.TypeNumber, 2))
	customers := datasetWithColumns("customers", 3, col("customer_id", domainDataset.TypeNumber, 3))
	profiles := datasetWithColumns("profiles", 3, col("customer_id", domainDataset.TypeNumber, 3))

	rels := engine.DiscoverRelationships([]*domainDataset.Dataset{orders, customers, profiles})
	require.Len(t, rels, 3)

	// unique side becomes the source
	assert.Equal(t, domainDataset.OneToMany, rels[0].Cardinality)
	assert.Equal(t, core.DatasetID("customers"), rels[0].SourceDatasetID)
	assert.Equal(t, core.DatasetID("orders"), rels[0].TargetDatasetID)

	assert.Equal(t, domainDataset.OneToMany, rels[1].Cardinality)
	assert.Equal(t, core.DatasetID("profiles"), rels[1].SourceDatasetID)

	assert.Equal(t, domainDataset.OneToOne, rels[2].Cardinality)
	assert.Equal(t, 0.8, rels[2].Confidence)
}

func TestDiscover_ConfidenceScore(t *testing.T) {
	engine := NewRelationshipDiscoveryEngine(DiscoveryOptions{Confidence: 0.6}, nil)

	a := datasetWithColumns("a", 1, col("k", domainDataset.TypeString, 1))
	b := datasetWithColumns("b", 1, col("k", domainDataset.TypeString, 1))

	result := engine.Discover([]*domainDataset.Dataset{a, b})
	require.Len(t, result.Relationships, 1)
	assert.InDelta(t, 0.6, result.ConfidenceScore, 1e-9)

	empty := engine.Discover(nil)
	assert.Equal(t, 0.0, empty.ConfidenceScore)
}
