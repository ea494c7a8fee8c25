package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/labsignal/evidence-service/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		heading string
		want    domain.SectionType
	}{
		{"Methods", domain.SectionMethods},
		{"Materials and Methods", domain.SectionMethods},
		{"MATERIALS AND METHODS", domain.SectionMethods},
		{"Experimental Procedures", domain.SectionMethods},
		{"Results", domain.SectionResults},
		{"Results and Discussion", domain.SectionResults},
		{"Findings", domain.SectionResults},
		{"Discussion", domain.SectionDiscussion},
		{"Conclusions", domain.SectionDiscussion},
		{"Introduction", domain.SectionIntroduction},
		{"Background", domain.SectionIntroduction},
		{"Acknowledgements", domain.SectionBody},
		{"", domain.SectionBody},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.heading))
		})
	}
}

func TestNew(t *testing.T) {
	sec := New("Methods", "rats were housed in pairs")
	assert.Equal(t, "Methods", sec.Name)
	assert.Equal(t, "rats were housed in pairs", sec.Text)
	assert.Equal(t, domain.SectionMethods, sec.Type)
}

func TestEndsMethods(t *testing.T) {
	assert.True(t, EndsMethods("Results"))
	assert.True(t, EndsMethods("Discussion"))
	assert.True(t, EndsMethods("Conclusion"))
	assert.False(t, EndsMethods("Animal husbandry"))
	assert.False(t, EndsMethods("Statistical analysis"))
}
