package vocabulary

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tmtvocab/pkg/models"
)

type fakeRepo struct {
	words   []models.Word
	created [][]models.Word
	failOn  bool
}

func (f *fakeRepo) GetAll() ([]models.Word, error) {
	return f.words, nil
}

func (f *fakeRepo) BulkCreate(words []models.Word) error {
	if f.failOn {
		return fmt.Errorf("disk full")
	}
	f.created = append(f.created, words)
	return nil
}

type fakeGenerator struct {
	words []models.Word
	err   error
	calls int
}

func (f *fakeGenerator) GenerateWords(ctx context.Context, category models.Category, count int, excludeWords []string) ([]models.Word, error) {
	f.calls++
	return f.words, f.err
}

func word(id, text string, category models.Category) models.Word {
	return models.Word{ID: id, Word: text, Category: category}
}

func TestCatalogLoadsAndFilters(t *testing.T) {
	repo := &fakeRepo{words: []models.Word{
		word("w1", "guidance", models.CategoryEarnings),
		word("w2", "hyperscaler", models.CategoryCloudSaaS),
		word("w3", "churn", models.CategoryCloudSaaS),
	}}

	c, err := NewCatalog(repo, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Count())
	assert.Len(t, c.ByCategory(models.CategoryCloudSaaS), 2)
	assert.Len(t, c.ByCategory(models.CategoryAll), 3)
	assert.Empty(t, c.ByCategory(models.CategoryM7))

	w, ok := c.Get("w2")
	require.True(t, ok)
	assert.Equal(t, "hyperscaler", w.Word)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestAddGeneratedDeduplicatesByNormalizedText(t *testing.T) {
	repo := &fakeRepo{words: []models.Word{
		word("w1", "Hyperscaler", models.CategoryCloudSaaS),
	}}
	c, err := NewCatalog(repo, nil)
	require.NoError(t, err)

	added := c.AddGenerated([]models.Word{
		word("gen-1", "hyperscaler", models.CategoryCloudSaaS), // duplicate, different case
		word("gen-2", " churn ", models.CategoryCloudSaaS),
		word("gen-3", "churn", models.CategoryCloudSaaS), // duplicate within the batch
		word("gen-4", "", models.CategoryCloudSaaS),      // empty text
	})

	require.Len(t, added, 1)
	assert.Equal(t, "gen-2", added[0].ID)
	assert.Equal(t, models.SourceGenerated, added[0].Source)
	assert.Equal(t, 2, c.Count())

	// only the survivors are persisted
	require.Len(t, repo.created, 1)
	assert.Len(t, repo.created[0], 1)
}

func TestAddGeneratedPersistFailureKeepsPool(t *testing.T) {
	repo := &fakeRepo{failOn: true}
	c, err := NewCatalog(repo, nil)
	require.NoError(t, err)

	added := c.AddGenerated([]models.Word{word("gen-1", "churn", models.CategoryCloudSaaS)})

	assert.Len(t, added, 1)
	assert.Equal(t, 1, c.Count())
}

func TestGenerateMore(t *testing.T) {
	repo := &fakeRepo{words: []models.Word{word("w1", "churn", models.CategoryCloudSaaS)}}
	gen := &fakeGenerator{words: []models.Word{
		word("gen-1", "churn", models.CategoryCloudSaaS), // already known
		word("gen-2", "net retention", models.CategoryCloudSaaS),
	}}
	c, err := NewCatalog(repo, gen)
	require.NoError(t, err)

	added, err := c.GenerateMore(context.Background(), models.CategoryCloudSaaS)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, "net retention", added[0].Word)
	assert.Equal(t, 1, gen.calls)
}

func TestGenerateMoreAllDuplicatesIsError(t *testing.T) {
	repo := &fakeRepo{words: []models.Word{word("w1", "churn", models.CategoryCloudSaaS)}}
	gen := &fakeGenerator{words: []models.Word{word("gen-1", "Churn", models.CategoryCloudSaaS)}}
	c, err := NewCatalog(repo, gen)
	require.NoError(t, err)

	_, err = c.GenerateMore(context.Background(), models.CategoryCloudSaaS)
	assert.Error(t, err)
}

func TestGenerateMoreFailurePropagates(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{err: fmt.Errorf("network down")}
	c, err := NewCatalog(repo, gen)
	require.NoError(t, err)

	_, err = c.GenerateMore(context.Background(), models.CategoryAll)
	assert.Error(t, err)
	assert.Equal(t, 0, c.Count())
}

func TestGenerateMoreWithoutGenerator(t *testing.T) {
	c, err := NewCatalog(&fakeRepo{}, nil)
	require.NoError(t, err)

	_, err = c.GenerateMore(context.Background(), models.CategoryAll)
	assert.Error(t, err)
}
