package session

import (
	"sync"
	"testing"
	"time"

	"datalens/domain/core"
	"datalens/domain/dataset"
	"datalens/internal"
	"datalens/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) DiscoverRelationships(datasets []*dataset.Dataset) []dataset.Relationship {
	args := m.Called(datasets)
	return args.Get(0).([]dataset.Relationship)
}

func newDataset(id, name, content string) *dataset.Dataset {
	return &dataset.Dataset{
		ID:          core.DatasetID(id),
		Name:        name,
		Fingerprint: core.NewHash([]byte(content)),
	}
}

func TestSessionAddKeepsOrder(t *testing.T) {
	s := New("s1", nil)
	s.Add(newDataset("a", "a.csv", "1"))
	s.Add(newDataset("b", "b.csv", "2"))

	ds := s.Datasets()
	require.Len(t, ds, 2)
	assert.Equal(t, core.DatasetID("a"), ds[0].ID)
	assert.Equal(t, core.DatasetID("b"), ds[1].ID)
}

func TestSessionReplacesSameUpload(t *testing.T) {
	s := New("s1", nil)
	assert.False(t, s.Add(newDataset("a", "a.csv", "same")))
	assert.False(t, s.Add(newDataset("b", "b.csv", "other")))
	assert.True(t, s.Add(newDataset("a2", "a.csv", "same")))

	ds := s.Datasets()
	require.Len(t, ds, 2)
	assert.Equal(t, core.DatasetID("a2"), ds[0].ID)

	// same content under a different name is a separate dataset
	assert.False(t, s.Add(newDataset("c", "copy.csv", "same")))
	assert.Equal(t, 3, s.Len())
}

func TestSessionRecomputesRelationships(t *testing.T) {
	detector := &MockDetector{}
	rel := dataset.Relationship{ID: "rel-a-b-id"}
	detector.On("DiscoverRelationships", mock.MatchedBy(func(ds []*dataset.Dataset) bool { return len(ds) == 2 })).
		Return([]dataset.Relationship{rel})

	s := New("s1", detector)
	s.Add(newDataset("a", "a.csv", "1"))
	assert.Empty(t, s.Relationships())

	s.Add(newDataset("b", "b.csv", "2"))
	assert.Equal(t, []dataset.Relationship{rel}, s.Relationships())

	require.NoError(t, s.Remove("b"))
	assert.Empty(t, s.Relationships())

	detector.AssertNumberOfCalls(t, "DiscoverRelationships", 1)
}

func TestSessionRemoveAndClear(t *testing.T) {
	s := New("s1", nil)
	s.Add(newDataset("a", "a.csv", "1"))
	s.Add(newDataset("b", "b.csv", "2"))

	err := s.Remove("missing")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.True(t, core.IsNotFoundError(err))

	require.NoError(t, s.Remove("a"))
	_, err = s.Dataset("a")
	assert.Error(t, err)
	got, err := s.Dataset("b")
	require.NoError(t, err)
	assert.Equal(t, "b.csv", got.Name)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Relationships())
}

func TestSessionConcurrentAdds(t *testing.T) {
	s := New("s1", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(&dataset.Dataset{ID: core.NewDatasetID(), Name: "x.csv"})
			_ = s.Datasets()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.Len())
}

func TestManager(t *testing.T) {
	m := NewManager(nil, internal.NewNopLogger())

	s := m.GetOrCreate("abc")
	assert.Same(t, s, m.GetOrCreate("abc"))

	got, err := m.Get("abc")
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))

	created := m.Create()
	assert.NotEmpty(t, created.ID())
	assert.Len(t, m.List(), 2)

	require.NoError(t, m.Delete("abc"))
	assert.Equal(t, []core.SessionID{created.ID()}, m.List())

	err = m.Delete("abc")
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
	assert.True(t, core.IsNotFoundError(err))
	assert.Equal(t, "session not found", errors.UserMessage(err))
}

func TestManagerCleanupExpired(t *testing.T) {
	m := NewManager(nil, internal.NewNopLogger())
	m.GetOrCreate("old")
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 1, m.CleanupExpired(time.Millisecond))
	assert.Empty(t, m.List())

	m.GetOrCreate("fresh")
	assert.Equal(t, 0, m.CleanupExpired(time.Hour))
}
