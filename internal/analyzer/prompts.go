package analyzer

import (
	"ats-analyzer/internal/models"
	"fmt"
)

const SystemPrompt = "You are an applicant tracking system evaluator. You read resume text and answer with a single valid JSON object that matches the requested schema exactly. You never add commentary or Markdown fencing."

const generalSchema = `{
  "overallScore": integer 0-100,
  "atsEssentials": [
    {"subheading": "File Format & Size" | "Design" | "Email Address" | "Hyperlink in Header", "passed": boolean, "summary": "1-2 sentences"}
  ],
  "content": [
    {"subheading": "ATS Parse Rate" | "Quantifying Impact" | "Repetition" | "Spelling & Grammar", "passed": boolean, "summary": "1-2 sentences"}
  ],
  "sections": [
    {"subheading": "Experience" | "Education" | "Summary" | "Contact Information", "passed": boolean, "summary": "1-2 sentences",
     "details": {"phone": "string or \"Not found\"", "email": "string or \"Not found\"", "linkedin": "string or \"Not found\""}}
  ],
  "urgentFixes": [
    {"subheading": "GPA Visibility" | "Employment Gaps" | "Repetitive Language", "passed": boolean, "summary": "1-2 sentences", "action": "string"}
  ]
}`

const generalRules = `Rules:
- Include each subheading exactly once, in the order listed for its array.
- Every check has a boolean "passed" field.
- Include "details" only for Contact Information; copy phone, email and LinkedIn exactly as written or use "Not found".
- Base every summary on evidence from the resume. When information is missing, set passed to false and say what is missing.
- Treat a GPA below 3.0 of 4 or below 8.0 of 10 as low; the action then suggests removing it.
- Employment Gaps flags gaps of six months or more; the action tells the user to explain or fill the gap.
- Repetitive Language lists one to three alternative words in its action.
- When file format and size are unknown, assume a PDF or DOCX under 5 MB.`

const jobSchema = `{
  "ats_score": integer 0-100,
  "strengths": [{"title": "string", "description": "string"}],
  "weaknesses": [{"title": "string", "description": "string"}],
  "improvements": [{"title": "string", "description": "string"}],
  "suggestions": [{"title": "string", "description": "string"}],
  "changes": [{"title": "string", "before": "string", "after": "string"}],
  "job_fit": [{"role": "string", "fit_score": integer 0-100, "reason": "string"}]
}`

func buildGeneralPrompt(resumeText string) string {
	return fmt.Sprintf(`Evaluate the resume below for ATS compatibility and return JSON with this shape:
%s

%s

Resume:
<<<RESUME_START>>>
%s
<<<RESUME_END>>>`, generalSchema, generalRules, resumeText)
}

func buildJobPrompt(resumeText string, job models.JobContext) string {
	company := job.CompanyName
	if company == "" {
		company = "not specified"
	}
	return fmt.Sprintf(`Evaluate the resume below against the job posting, considering ATS optimisation, industry relevance and hiring trends. Return JSON with this shape:
%s

Job title: %s
Company: %s
Job description:
%s

Resume:
<<<RESUME_START>>>
%s
<<<RESUME_END>>>`, jobSchema, job.JobTitle, company, job.JobDescription, resumeText)
}
