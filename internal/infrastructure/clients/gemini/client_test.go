package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestCandidateText_JoinsParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: `{"keywords":`},
				nil,
				{Text: `["droit"]}`},
			}},
		}},
	}

	text, err := candidateText(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"keywords":["droit"]}`, text)
}

func TestCandidateText_NoCandidates(t *testing.T) {
	_, err := candidateText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = candidateText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.Error(t, err)
}
