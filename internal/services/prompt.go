package services

import (
	"fmt"
	"strings"

	"alfredoptarigan/careerforge/internal/models"
)

const DefaultHistoryMessages = 3

// analysisMarker identifies a prior analysis prompt echoed back by the client.
const analysisMarker = "Analyze the following"

const systemBasePrompt = `You are CareerForgeAI, an expert career guidance assistant for programmers. Your role is to analyze a user's skills against job requirements and provide structured, actionable feedback.

When analyzing skills, provide:
1. **Skill Gaps** - Skills the user lacks that are required for the position
2. **Weak Skills** - Skills the user has but may need to strengthen
3. **Recommended Learning Path** - Prioritized list of skills to learn, with suggested resources and timeline
4. **Strength Areas** - Skills the user already has that match the requirements

Format your response using clear markdown with headers, bullet points, and structured sections. Be encouraging and constructive.`

var roleGuidance = map[models.JobRoleType]string{
	models.RoleFrontend:  "Focus on UI/UX skills, frameworks (React, Vue), accessibility, performance, and design systems.",
	models.RoleBackend:   "Focus on APIs, databases, security, scalability, and server-side technologies.",
	models.RoleFullstack: "Balance frontend and backend skills; emphasize integration, deployment, and full product ownership.",
	models.RoleDevops:    "Focus on CI/CD, infrastructure as code, monitoring, and reliability.",
	models.RoleMobile:    "Focus on React Native or native mobile development, app store deployment, and mobile UX.",
	models.RoleData:      "Focus on data pipelines, SQL, analytics, and ML/BI tooling.",
}

type PromptMessage struct {
	Role    ChatRole
	Content string
}

// PromptBundle is everything sent to the chat model for one analysis.
type PromptBundle struct {
	SystemPrompt    string
	Messages        []PromptMessage
	UserProfile     string
	JobRequirements string
	JobID           string
}

// EvaluationInput is what the judge sees for one finished analysis.
type EvaluationInput struct {
	UserProfile     string
	JobRequirements string
	AIAnalysis      string
}

type PromptBuilder struct {
	historyLimit int
}

func NewPromptBuilder(historyLimit int) *PromptBuilder {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryMessages
	}
	return &PromptBuilder{historyLimit: historyLimit}
}

// Compose builds the system prompt and the ordered conversation for a skill gap analysis.
func (pb *PromptBuilder) Compose(extractedText, freeText string, job models.JobPosting, prior []ChatMessage) PromptBundle {
	profile := pb.BuildUserProfile(extractedText, freeText)
	requirements := pb.BuildJobRequirementsText(job)

	messages := pb.recentUserMessages(prior)
	messages = append(messages, PromptMessage{
		Role:    ChatRoleUser,
		Content: pb.BuildAnalysisPrompt(profile, requirements),
	})

	return PromptBundle{
		SystemPrompt:    pb.BuildSystemPrompt(job.RoleType),
		Messages:        messages,
		UserProfile:     profile,
		JobRequirements: requirements,
		JobID:           job.ID,
	}
}

// BuildSystemPrompt appends role guidance to the base instruction for known categories.
func (pb *PromptBuilder) BuildSystemPrompt(role models.JobRoleType) string {
	label := role.Label()
	if label == "" {
		return systemBasePrompt
	}
	return fmt.Sprintf("%s\n\nThis analysis is for a **%s** role. %s", systemBasePrompt, label, roleGuidance[role])
}

func (pb *PromptBuilder) BuildUserProfile(extractedText, freeText string) string {
	if extractedText != "" {
		return fmt.Sprintf("Resume/PDF Content:\n%s\n\nAdditional Skills:\n%s", extractedText, freeText)
	}
	return fmt.Sprintf("User Skills Description:\n%s", freeText)
}

func (pb *PromptBuilder) BuildJobRequirementsText(job models.JobPosting) string {
	return fmt.Sprintf("Job Title: %s\nCompany: %s\n\nRequired Skills:\n%s\n\nPreferred Skills:\n%s",
		job.Title, job.Company,
		strings.Join(job.Requirements, "\n"),
		strings.Join(job.Preferred, "\n"))
}

func (pb *PromptBuilder) BuildAnalysisPrompt(userProfile, jobRequirements string) string {
	return fmt.Sprintf(`Analyze the following user profile against this job posting:

%s

---

%s

Provide a comprehensive skill gap analysis with actionable recommendations.`, userProfile, jobRequirements)
}

// recentUserMessages windows the history first and filters second, so fewer
// than historyLimit turns may survive.
func (pb *PromptBuilder) recentUserMessages(prior []ChatMessage) []PromptMessage {
	if len(prior) > pb.historyLimit {
		prior = prior[len(prior)-pb.historyLimit:]
	}

	messages := make([]PromptMessage, 0, len(prior)+1)
	for _, m := range prior {
		if m.Role != ChatRoleUser || strings.Contains(m.Content, analysisMarker) {
			continue
		}
		messages = append(messages, PromptMessage{Role: ChatRoleUser, Content: m.Content})
	}
	return messages
}

// BuildJudgePrompt renders the LLM-as-judge instruction for one analysis.
func (pb *PromptBuilder) BuildJudgePrompt(input EvaluationInput) string {
	return fmt.Sprintf(`You are an expert evaluator assessing the quality of skill gap analysis for software developers.

**USER PROFILE:**
%s

**JOB REQUIREMENTS:**
%s

**AI ANALYSIS TO EVALUATE:**
%s

---

**YOUR TASK:**
Evaluate the AI's skill gap analysis on these 5 dimensions (score 0-100 for each):

1. **Accuracy (0-100)**: Are the identified skill gaps actually missing from the user's profile? Are they truly required for the job?

2. **Completeness (0-100)**: Did the analysis catch ALL major skill gaps? Are there important missing skills that weren't mentioned?

3. **Relevance (0-100)**: Do the identified gaps actually matter for this specific job? Are they core requirements vs. nice-to-haves?

4. **False Positives (0-100)**: Did the analysis hallucinate or misidentify skills? Higher score = fewer false positives.

5. **Actionability (0-100)**: Are the learning recommendations specific, practical, and helpful? Do they include concrete resources, realistic timelines, and clear next steps?

**OUTPUT FORMAT (JSON only):**
`+"```json"+`
{
  "accuracy": <number 0-100>,
  "completeness": <number 0-100>,
  "relevance": <number 0-100>,
  "falsePositives": <number 0-100>,
  "actionability": <number 0-100>,
  "reasoning": "<2-3 sentence explanation of your scoring>"
}
`+"```"+`

Be strict but fair. A perfect score (100) should be rare. Provide honest, constructive evaluation.`,
		input.UserProfile, input.JobRequirements, input.AIAnalysis)
}

// BuildJobQuery is the text embedded to match a profile against the job index.
func (pb *PromptBuilder) BuildJobQuery(job models.JobPosting) string {
	return fmt.Sprintf("%s\n%s", pb.BuildJobRequirementsText(job), job.Description)
}
