package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocument(t *testing.T) {
	t.Run("derives full text and success", func(t *testing.T) {
		doc := NewDocument("10.1234/abc", "PMC1", SourceTypePMC, []Section{
			{Name: "Introduction", Text: "first part", Type: SectionIntroduction},
			{Name: "figure", Text: "", Type: SectionBody},
			{Name: "Methods", Text: "second part", Type: SectionMethods},
		})

		assert.True(t, doc.Success)
		assert.Empty(t, doc.Error)
		assert.Equal(t, "first part second part", doc.FullText, "empty sections must not contribute separators")
		assert.Equal(t, "PMC1", doc.ResolvedID)
	})

	t.Run("empty sections mark the document failed", func(t *testing.T) {
		doc := NewDocument("10.1234/abc", "", SourceTypePMC, nil)
		assert.False(t, doc.Success)
		assert.Equal(t, "no sections extracted", doc.Error)
	})

	t.Run("sections with only empty text mark the document failed", func(t *testing.T) {
		doc := NewDocument("10.1234/abc", "", SourceTypePMC, []Section{{Name: "Methods", Text: ""}})
		assert.False(t, doc.Success)
	})
}

func TestFailedDocument(t *testing.T) {
	doc := FailedDocument("10.1234/abc", SourceTypeUBN, "not found")
	assert.False(t, doc.Success)
	assert.Equal(t, "not found", doc.Error)
	assert.Equal(t, SourceTypeUBN, doc.Source)
	assert.Empty(t, doc.FullText)
}

func TestHasMethodsSection(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		want     bool
	}{
		{
			"typed methods section",
			[]Section{{Name: "whatever", Text: "x", Type: SectionMethods}},
			true,
		},
		{
			"methods heading on plain body section",
			[]Section{{Name: "Materials and Methods", Text: "x", Type: SectionBody}},
			true,
		},
		{
			"experimental procedures heading",
			[]Section{{Name: "Experimental Procedures", Text: "x", Type: SectionBody}},
			true,
		},
		{
			"abstract only",
			[]Section{{Name: "Abstract", Text: "x", Type: SectionAbstract}},
			false,
		},
		{
			"no sections",
			nil,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Sections: tt.sections}
			assert.Equal(t, tt.want, doc.HasMethodsSection())
		})
	}
}

func TestMethodsText(t *testing.T) {
	doc := &Document{Sections: []Section{
		{Name: "Introduction", Text: "intro", Type: SectionIntroduction},
		{Name: "Methods", Text: "animals were housed", Type: SectionMethods},
		{Name: "Experimental Procedures", Text: "mice were injected", Type: SectionBody},
		{Name: "Results", Text: "tumors shrank", Type: SectionResults},
	}}

	text := doc.MethodsText()
	assert.Contains(t, text, "animals were housed")
	assert.Contains(t, text, "mice were injected")
	assert.NotContains(t, text, "intro")
	assert.NotContains(t, text, "tumors shrank")
}

func TestEthicsText(t *testing.T) {
	doc := &Document{Sections: []Section{
		{Name: "Methods", Text: "methods text", Type: SectionMethods},
		{Name: "Ethical Approval", Text: "approved by the committee", Type: SectionBody},
		{Name: "Animal Care and Use Statement", Text: "per the NIH Guide", Type: SectionBack},
	}}

	text := doc.EthicsText()
	assert.Contains(t, text, "approved by the committee")
	assert.Contains(t, text, "per the NIH Guide")
	assert.NotContains(t, text, "methods text")

	empty := &Document{Sections: []Section{{Name: "Results", Text: "x", Type: SectionResults}}}
	assert.Empty(t, empty.EthicsText())
}

func TestJoinSectionText(t *testing.T) {
	require.Equal(t, "", JoinSectionText(nil))
	assert.Equal(t, "a b", JoinSectionText([]Section{
		{Text: "a"}, {Text: ""}, {Text: "b"},
	}))
}
