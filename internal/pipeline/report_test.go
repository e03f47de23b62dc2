package pipeline

import (
	"ats-analyzer/internal/analyzer"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateReport_General(t *testing.T) {
	score, err := ValidateReport(analyzer.VariantGeneral, json.RawMessage(validGeneralReport))
	require.NoError(t, err)
	require.Equal(t, 78, score)
}

func TestValidateReport_JobMatchStringScore(t *testing.T) {
	score, err := ValidateReport(analyzer.VariantJobMatch, json.RawMessage(validJobReport))
	require.NoError(t, err)
	require.Equal(t, 64, score)
}

func TestValidateReport_ZeroScoreAndFalseChecksAreValid(t *testing.T) {
	payload := `{"overallScore": 0,
	  "atsEssentials": [{"subheading":"Design","passed":false}],
	  "content": [{"subheading":"Repetition","passed":false}],
	  "sections": [{"subheading":"Education","passed":false}],
	  "urgentFixes": [{"subheading":"GPA Visibility","passed":false}]}`

	score, err := ValidateReport(analyzer.VariantGeneral, json.RawMessage(payload))
	require.NoError(t, err)
	require.Zero(t, score)
}

func TestValidateReport_Rejects(t *testing.T) {
	cases := []struct {
		name    string
		variant analyzer.Variant
		payload string
	}{
		{"not an object", analyzer.VariantGeneral, `[1]`},
		{"missing score", analyzer.VariantGeneral, `{"atsEssentials":[{"subheading":"a","passed":true}],"content":[{"subheading":"a","passed":true}],"sections":[{"subheading":"a","passed":true}],"urgentFixes":[{"subheading":"a","passed":true}]}`},
		{"negative score", analyzer.VariantGeneral, `{"overallScore":-1,"atsEssentials":[{"subheading":"a","passed":true}],"content":[{"subheading":"a","passed":true}],"sections":[{"subheading":"a","passed":true}],"urgentFixes":[{"subheading":"a","passed":true}]}`},
		{"empty section", analyzer.VariantGeneral, `{"overallScore":50,"atsEssentials":[],"content":[{"subheading":"a","passed":true}],"sections":[{"subheading":"a","passed":true}],"urgentFixes":[{"subheading":"a","passed":true}]}`},
		{"blank subheading", analyzer.VariantGeneral, `{"overallScore":50,"atsEssentials":[{"subheading":"","passed":true}],"content":[{"subheading":"a","passed":true}],"sections":[{"subheading":"a","passed":true}],"urgentFixes":[{"subheading":"a","passed":true}]}`},
		{"non numeric score", analyzer.VariantJobMatch, `{"ats_score":"high","strengths":[{"title":"a"}],"weaknesses":[{"title":"a"}],"improvements":[{"title":"a"}],"suggestions":[{"title":"a"}],"changes":[],"job_fit":[]}`},
		{"missing job_fit", analyzer.VariantJobMatch, `{"ats_score":50,"strengths":[{"title":"a"}],"weaknesses":[{"title":"a"}],"improvements":[{"title":"a"}],"suggestions":[{"title":"a"}],"changes":[]}`},
		{"fit score out of range", analyzer.VariantJobMatch, `{"ats_score":50,"strengths":[{"title":"a"}],"weaknesses":[{"title":"a"}],"improvements":[{"title":"a"}],"suggestions":[{"title":"a"}],"changes":[],"job_fit":[{"role":"x","fit_score":101}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateReport(tc.variant, json.RawMessage(tc.payload))
			require.Error(t, err)
		})
	}
}

func TestScore_UnmarshalJSON(t *testing.T) {
	var s Score
	require.NoError(t, json.Unmarshal([]byte(`"82"`), &s))
	require.Equal(t, Score(82), s)

	require.NoError(t, json.Unmarshal([]byte(`71.6`), &s))
	require.Equal(t, Score(72), s)

	require.Error(t, json.Unmarshal([]byte(`"n/a"`), &s))
	require.Error(t, json.Unmarshal([]byte(`true`), &s))
}
