package quiz

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/tmtvocab/pkg/models"
)

func testPool() []models.Word {
	return []models.Word{
		{ID: "w1", Word: "guidance", DefinitionCn: "业绩指引", Category: models.CategoryEarnings},
		{ID: "w2", Word: "moat", DefinitionCn: "护城河", Category: models.CategoryEarnings},
		{ID: "w3", Word: "margin", DefinitionCn: "利润率", Category: models.CategoryEarnings},
		{ID: "w4", Word: "churn", DefinitionCn: "客户流失率", Category: models.CategoryCloudSaaS},
		{ID: "w5", Word: "inference", DefinitionCn: "推理", Category: models.CategoryAIML},
		{ID: "w6", Word: "foundry", DefinitionCn: "晶圆代工厂", Category: models.CategorySemiconductor},
	}
}

func TestBuildQuestionShapeAndCorrectIndex(t *testing.T) {
	pool := testPool()
	rng := rand.New(rand.NewSource(1))

	q, err := BuildQuestion(pool[0], pool, rng)
	require.NoError(t, err)

	assert.Equal(t, "guidance", q.Word.Word)
	assert.Len(t, q.Options, OptionCount)
	require.GreaterOrEqual(t, q.CorrectIndex, 0)
	assert.Equal(t, "业绩指引", q.Options[q.CorrectIndex])

	// 选项不重复
	seen := map[string]bool{}
	for _, opt := range q.Options {
		assert.False(t, seen[opt], "duplicate option %q", opt)
		seen[opt] = true
	}
}

func TestBuildQuestionPrefersSameCategory(t *testing.T) {
	pool := testPool()
	rng := rand.New(rand.NewSource(7))

	q, err := BuildQuestion(pool[0], pool, rng)
	require.NoError(t, err)

	// 同类词足够时, 干扰项全部来自同一类
	assert.Contains(t, q.Options, "护城河")
	assert.Contains(t, q.Options, "利润率")
}

func TestBuildQuestionFallsBackAcrossCategories(t *testing.T) {
	pool := testPool()
	rng := rand.New(rand.NewSource(3))

	// word w5 is the only AI/ML entry, so distractors must come from
	// other categories
	q, err := BuildQuestion(pool[4], pool, rng)
	require.NoError(t, err)
	assert.Len(t, q.Options, OptionCount)
	assert.Equal(t, "推理", q.Options[q.CorrectIndex])
}

func TestBuildQuestionRejectsTinyPool(t *testing.T) {
	pool := testPool()[:3]
	rng := rand.New(rand.NewSource(1))

	_, err := BuildQuestion(pool[0], pool, rng)
	assert.Error(t, err)
}

func TestBuildQuestionRejectsWordWithoutDefinition(t *testing.T) {
	pool := testPool()
	bare := models.Word{ID: "w9", Word: "blank", Category: models.CategoryM7}

	_, err := BuildQuestion(bare, pool, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestBuildQuestionSkipsDuplicateDefinitions(t *testing.T) {
	pool := testPool()
	// 与正确答案释义相同的词不能作干扰项
	pool = append(pool, models.Word{ID: "w7", Word: "outlook", DefinitionCn: "业绩指引", Category: models.CategoryEarnings})

	for seed := int64(0); seed < 10; seed++ {
		q, err := BuildQuestion(pool[0], pool, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)

		count := 0
		for _, opt := range q.Options {
			if opt == "业绩指引" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}
