package biz

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/campus-io/study-buddy/internal/model"
	"github.com/campus-io/study-buddy/pkg/llm"
)

// maxHistoryTurns bounds how much prior conversation is replayed.
const maxHistoryTurns = 10

// baseSystemPrompt is the default assistant identity for students and
// guests.
const baseSystemPrompt = `You are Study Buddy, an AI course assistant for university students.

Your role:
- Help students understand their course materials through clear explanations
- Answer questions grounded in the uploaded course content
- Encourage good study habits and independent thinking

Guidelines:
- Base answers on the provided course materials and cite the source file and section
- Be accurate; say so when something is unclear rather than guessing
- Keep explanations accessible to the student's level

Tone: Patient, clear, and supportive - like a knowledgeable study partner.`

// professorSystemPrompt replaces the base prompt for professors.
const professorSystemPrompt = `You are Study Buddy, an intelligent assistant for university professors.

Your role:
- Help professors manage their courses and track student engagement
- Generate quizzes and practice materials from course content
- Provide insights about student questions and learning patterns
- Assist with course material organization and analysis
- Answer questions about course content for reference

Guidelines:
- Use information from the provided course materials when available
- For analytics questions, provide insights based on available data
- For quiz generation requests, create comprehensive, well-structured questions
- Be professional, supportive, and focused on helping professors support their students
- Provide actionable insights about student engagement and learning patterns

Tone: Professional, knowledgeable, and supportive - like an experienced academic advisor.`

// Fixed context substitutes for each degraded retrieval outcome.
const (
	contextProcessing   = "Course files are still being processed. Please wait a moment and try again."
	contextNoMatch      = "No matching sections were found in the course materials for this query."
	contextError        = "Course materials could not be retrieved due to a system error."
	contextNoCourse     = "No course selected."
	refusalNoMaterials  = "No course materials are available. Please upload course materials first."
	refusalOffMaterials = "This topic doesn't appear to be covered in your course materials. Please check with your professor."
)

var learningStyleInstructions = map[string]string{
	"visual":      "They learn best with diagrams, charts, and visual representations. Include visual descriptions when helpful.",
	"auditory":    "They learn best through verbal explanations. Use conversational language.",
	"reading":     "They learn best through reading and written materials. Provide detailed written explanations.",
	"kinesthetic": "They learn best through hands-on examples. Include practice problems and real-world applications.",
}

var responseStyleInstructions = map[string]string{
	"concise":      "Keep responses brief and to the point.",
	"detailed":     "Provide thorough, comprehensive explanations.",
	"step-by-step": "Break down explanations into clear, numbered steps.",
}

var toneInstructions = map[string]string{
	"formal":      "Maintain a professional and formal tone.",
	"casual":      "Use a friendly, conversational tone.",
	"encouraging": "Be supportive, encouraging, and positive.",
}

// Materials is the course-material context fed into prompt assembly.
type Materials struct {
	Context   string
	FileCount int
	FileNames []string
	Available bool
}

// MaterialsFromRetrieval converts a retrieval outcome into prompt
// materials, substituting a fixed explanatory context for each
// degraded status. A nil result means no course was selected.
func MaterialsFromRetrieval(result *model.RetrievalResult) Materials {
	if result == nil {
		return Materials{Context: contextNoCourse}
	}

	switch result.Status {
	case model.RetrievalOK:
		return Materials{
			Context:   result.Text,
			FileCount: result.FileCount,
			FileNames: result.FileNames,
			Available: true,
		}
	case model.RetrievalNoEmbeddings:
		return Materials{Context: contextProcessing}
	case model.RetrievalNoMatch:
		return Materials{Context: contextNoMatch}
	default:
		return Materials{Context: contextError}
	}
}

// AssemblePrompt builds the ordered message sequence for one chat
// turn: a personalized system message, a bounded window of prior
// history, and the materials-gated user turn.
func AssemblePrompt(user *model.User, materials Materials, question string, history []model.ChatMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt(user)})

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	for _, turn := range history {
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}

	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage(user, materials, question)})
	return messages
}

// systemPrompt renders the role-specific system message with the
// user's personalization block appended.
func systemPrompt(user *model.User) string {
	if user == nil {
		return baseSystemPrompt
	}

	if user.Role == model.RoleProfessor {
		var b strings.Builder
		b.WriteString(professorSystemPrompt)
		fmt.Fprintf(&b, "\n\n--- PERSONALIZATION FOR PROFESSOR %s ---\n", strings.ToUpper(user.Name))
		fmt.Fprintf(&b, "You are speaking with Professor %s.\n", user.Name)
		b.WriteString("--- END PERSONALIZATION ---\n")
		return b.String()
	}

	prefs := user.Preferences()
	memory := user.Memory()

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	fmt.Fprintf(&b, "\n\n--- PERSONALIZATION FOR %s ---\n", strings.ToUpper(user.Name))

	fmt.Fprintf(&b, "You are speaking with %s", user.Name)
	if prefs.AcademicLevel != "" {
		fmt.Fprintf(&b, ", a %s student", prefs.AcademicLevel)
	}
	if prefs.Major != "" {
		fmt.Fprintf(&b, " majoring in %s", prefs.Major)
	}
	b.WriteString(".\n")

	if s, ok := learningStyleInstructions[prefs.LearningStyle]; ok {
		b.WriteString(s + "\n")
	}
	if s, ok := responseStyleInstructions[prefs.ResponseStyle]; ok {
		b.WriteString(s + "\n")
	}
	if s, ok := toneInstructions[prefs.Tone]; ok {
		b.WriteString(s + "\n")
	}

	if len(memory.Topics) > 0 {
		topics := memory.Topics
		if len(topics) > 10 {
			topics = topics[len(topics)-10:]
		}
		fmt.Fprintf(&b, "\nTopics %s has recently studied: %s. You can reference these and build upon prior knowledge.\n", user.Name, strings.Join(topics, ", "))
	}
	if len(memory.Strengths) > 0 {
		fmt.Fprintf(&b, "Their strengths: %s. You can reference these when relevant.\n", strings.Join(memory.Strengths, ", "))
	}
	if len(memory.Weaknesses) > 0 {
		fmt.Fprintf(&b, "They need extra help with: %s. Provide more detailed explanations for these topics.\n", strings.Join(memory.Weaknesses, ", "))
	}
	if len(memory.RecentQuestions) > 0 {
		questions := memory.RecentQuestions
		if len(questions) > 5 {
			questions = questions[:5]
		}
		quoted := make([]string, len(questions))
		for i, q := range questions {
			quoted[i] = fmt.Sprintf("%q...", truncate(q, 50))
		}
		fmt.Fprintf(&b, "\nRecent questions %s asked: %s. Consider this context when answering.\n", user.Name, strings.Join(quoted, "; "))
	}
	if memory.Notes != "" {
		fmt.Fprintf(&b, "\nAdditional notes about the student: %s\n", memory.Notes)
	}

	b.WriteString("--- END PERSONALIZATION ---\n")
	return b.String()
}

// userMessage builds the final user turn. Professors get materials as
// optional context with no restrictions; students with materials get
// the grounding instructions; students without materials get the fixed
// refusal directive.
func userMessage(user *model.User, materials Materials, question string) string {
	if user != nil && user.Role == model.RoleProfessor {
		var block string
		if materials.Available {
			block = materialsBlock(materials) + "\n\n"
		}
		return fmt.Sprintf(`%sProfessor Question: %s

You have full unrestricted access to answer this question using your complete knowledge. Use the course materials above as helpful context when relevant, but feel free to draw on your full capabilities for any topic, including general subject matter, pedagogy, quiz generation, analytics insights, explanations, examples, and anything else that would help a professor.`, block, question)
	}

	if materials.Available {
		return fmt.Sprintf(`
%s

Student Question: %s

INSTRUCTIONS:
1. First check whether the student's question relates to a topic mentioned or covered in the course materials above
2. If the topic IS present in the materials:
   - Answer using the course materials as the primary source (cite file/section)
   - Then supplement with any additional explanation, examples, or context from your knowledge that helps the student understand the topic better
   - Give a thorough, complete answer. There is NO length limit, do not cut answers short, cover the topic fully with examples, step-by-step breakdowns, and any relevant details that aid understanding
3. If the topic is NOT mentioned anywhere in the course materials:
   - Respond with: %q
   - Do NOT answer the question
4. For broad questions ("what topics are covered?", "what is this course about?"), describe the subjects and themes visible across all retrieved sections in full detail`, materialsBlock(materials), question, refusalOffMaterials)
	}

	return fmt.Sprintf("Note: %s\n\nStudent Question: %s\n\nCRITICAL: You MUST ONLY respond with: %q DO NOT provide any answer or explanation to the question.",
		materials.Context, question, refusalNoMaterials)
}

func materialsBlock(materials Materials) string {
	return fmt.Sprintf("=== COURSE MATERIALS (%d files: %s) ===\n\n%s\n\n=== END OF COURSE MATERIALS ===",
		materials.FileCount, strings.Join(materials.FileNames, ", "), materials.Context)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never splits a multi-byte rune.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
