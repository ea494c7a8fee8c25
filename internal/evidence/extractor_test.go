package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_AnimalProcedures(t *testing.T) {
	text := "Rats were anesthetized and underwent stereotaxic surgery."

	hits := Extract(AnimalStudyCategories, text)

	require.Contains(t, hits, "anesthesia")
	assert.Equal(t, []string{"anesthetized"}, hits["anesthesia"])

	require.Contains(t, hits, "surgery")
	assert.ElementsMatch(t, []string{"stereotaxic", "surgery"}, hits["surgery"])

	assert.NotContains(t, hits, "euthanasia", "categories without matches must be absent")
}

func TestExtract_CaseInsensitiveDedup(t *testing.T) {
	text := "Mice were housed in cages. The mice and MICE were group housed."

	hits := Extract(SpeciesCategories, text)
	require.Contains(t, hits, "mouse")
	assert.Equal(t, []string{"Mice"}, hits["mouse"], "first-seen casing wins, variants collapse")
}

func TestExtract_Deterministic(t *testing.T) {
	text := "in vivo experiments with euthanized animals under anesthesia"
	first := Extract(AnimalStudyCategories, text)
	second := Extract(AnimalStudyCategories, text)
	assert.Equal(t, first, second)
}

func TestExtract_EmptyText(t *testing.T) {
	assert.Empty(t, Extract(AnimalStudyCategories, ""))
}

func TestDetectLabels_Species(t *testing.T) {
	t.Run("detects species regardless of order", func(t *testing.T) {
		a := DetectLabels(SpeciesCategories, "zebrafish and rats were used")
		b := DetectLabels(SpeciesCategories, "rats and zebrafish were used")
		assert.ElementsMatch(t, a, b)
		assert.Contains(t, a, "rat")
		assert.Contains(t, a, "zebrafish")
	})

	t.Run("latin names count", func(t *testing.T) {
		labels := DetectLabels(SpeciesCategories, "Danio rerio embryos were imaged")
		assert.Contains(t, labels, "zebrafish")
	})

	t.Run("no species", func(t *testing.T) {
		assert.Empty(t, DetectLabels(SpeciesCategories, "a purely computational study"))
	})
}

func TestDetectLabels_Strains(t *testing.T) {
	labels := DetectLabels(StrainCategories, "male Sprague-Dawley rats and C57BL/6 mice")
	assert.Contains(t, labels, "Sprague-Dawley")
	assert.Contains(t, labels, "C57BL/6")
	assert.NotContains(t, labels, "Wistar")
}

func TestExtract_EthicsStatements(t *testing.T) {
	text := "All procedures were approved by the Institutional Animal Care and Use Committee " +
		"and conducted in accordance with the NIH Guide."

	hits := Extract(EthicsCategories, text)
	assert.Contains(t, hits, "animal_care")
	assert.Contains(t, hits, "approval")
	assert.Contains(t, hits, "declaration")
	assert.Contains(t, hits, "guidelines")
}
