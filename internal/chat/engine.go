// Package chat implements the per-session dialogue engine: the ordered
// transcript, the crisis short-circuit, and degraded replies when the
// completion provider is unavailable.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/trupyai/trupy/internal/domain"
	"github.com/trupyai/trupy/internal/llm"
	"github.com/trupyai/trupy/internal/safety"
)

// SafetyMessage is returned verbatim whenever crisis indicators are
// detected. It is fixed, vetted text; model output is never substituted.
const SafetyMessage = "Thank you for sharing that with me. It sounds like you are going through a lot right " +
	"now, and it's brave of you to talk about it. Please know that help is available, and " +
	"you don't have to go through this alone. I strongly encourage you to connect with a " +
	"professional who can offer the support you deserve. Here are some resources:\n\n" +
	"- [Email the University Psychologist](mailto:psicologia@upy.edu.mx)\n" +
	"- [Schedule a Confidential Appointment](https://upy.edu.mx/appointment)\n" +
	"- [Report a Concern](https://upy.edu.mx/report)"

const (
	fallbackGreeting = "Hello! I'm Trupy AI, the assistant for the Psychology Department at UPY. How can I help you today?"
	greetingTrigger  = "Please greet the student and ask how you can help them today."

	notUnderstoodReply = "I'm having trouble understanding. Could you please repeat that?"
	degradedReply      = "I apologize, but I'm currently experiencing technical difficulties. Please try again later."

	summaryPrompt = "Based on the conversation so far, generate a concise, non-identifiable summary " +
		"of the main topics discussed. Focus on themes, not personal details. Keep it under 100 words."
	summaryUnavailable = "No summary available."
	summaryFailed      = "Summary could not be generated."
)

// Outcome is the result of one turn.
type Outcome struct {
	Reply  string
	Crisis bool
}

// Engine owns one session's dialogue state. It is not safe for concurrent
// use; the orchestrator works on a private copy restored from a snapshot.
type Engine struct {
	profile  *domain.Profile
	messages []domain.Message
	crisis   bool
	ended    bool

	client   *llm.Client
	detector *safety.Detector
}

// New creates an engine for a fresh session, seeding the transcript with
// the system message derived from profile (nil means anonymous).
func New(profile *domain.Profile, client *llm.Client, detector *safety.Detector) *Engine {
	e := &Engine{
		profile:  profile,
		client:   client,
		detector: detector,
	}
	e.messages = append(e.messages, domain.Message{
		Role:    domain.RoleSystem,
		Content: systemPrompt(profile),
	})
	return e
}

func systemPrompt(profile *domain.Profile) string {
	identity := "The student has chosen to remain anonymous. Do NOT ask for personal details."
	if profile != nil {
		identity = fmt.Sprintf(
			"The student has already identified themselves:\n"+
				"  - Name: %s\n"+
				"  - Major: %s\n"+
				"  - Quarter: %s\n"+
				"Use this information to personalize the conversation. Do NOT ask for name, major, or quarter again.",
			profile.Name, profile.Major, profile.Quarter)
	}

	return "Persona: You are a virtual assistant, called Trupy AI, for the Department of Psychology at UPY University. " +
		"Your personality is that of a kind, respectful, and professional companion. Always maintain this character.\n" +
		"Core Objective:\n" +
		"Your main purpose is to be a supportive figure for students to talk with about psychology and their mental well-being.\n" +
		"Operational Guidelines:\n" +
		"1. Conversation Scope: You must only engage in conversations related to psychology and mental well-being.\n" +
		"2. Information Boundaries: You are not equipped to handle academic inquiries (e.g., courses, grades, university policies). " +
		"If asked, politely state that you do not have that information.\n" +
		"3. Off-Topic Queries: For any requests outside your core objective, simply state that the topic is outside your scope of knowledge.\n" +
		"4. Response Length: Keep your responses brief and to the point. Only elaborate if the user specifically asks for more detail.\n" +
		"5. Formatting: All output must be plain text. Do not use markdown or any rich text formatting.\n" +
		"6. Student Identity: " + identity + "\n" +
		"Safety Protocol:\n" +
		"- If the student expresses any sign of self-harm or intent to harm others, politely recommend to contact a professional " +
		"or the university's psychological support team."
}

// Start requests the opening greeting from the model. On success the reply
// becomes part of the transcript. On any failure a fixed fallback greeting
// is returned and deliberately NOT appended: a synthetic greeting must not
// be replayed to the model as if it were a real exchange. Never fails.
func (e *Engine) Start(ctx context.Context) string {
	e.messages = append(e.messages, domain.Message{Role: domain.RoleUser, Content: greetingTrigger})

	reply, err := e.client.Complete(ctx, e.messages)
	if err != nil {
		slog.Error("failed to start conversation", "error", err)
		return fallbackGreeting
	}
	if reply == "" {
		return fallbackGreeting
	}

	e.messages = append(e.messages, domain.Message{Role: domain.RoleAssistant, Content: reply})
	return reply
}

// Respond advances the dialogue by one turn. Crisis-bearing input is never
// appended to the transcript; a crisis-bearing model reply is discarded
// before it can leak un-vetted content. Provider failures degrade to a
// fixed apology and leave the session active.
func (e *Engine) Respond(ctx context.Context, userText string) Outcome {
	if e.detector.Detect(userText) {
		e.crisis = true
		e.ended = true
		slog.Warn("crisis keywords detected in user input")
		return Outcome{Reply: SafetyMessage, Crisis: true}
	}

	e.messages = append(e.messages, domain.Message{Role: domain.RoleUser, Content: userText})

	reply, err := e.client.Complete(ctx, e.messages)
	if err != nil {
		slog.Error("failed to generate reply", "error", err)
		return Outcome{Reply: degradedReply}
	}
	if reply == "" {
		return Outcome{Reply: notUnderstoodReply}
	}

	if e.detector.Detect(reply) {
		e.crisis = true
		e.ended = true
		slog.Warn("crisis keywords detected in model reply")
		return Outcome{Reply: SafetyMessage, Crisis: true}
	}

	e.messages = append(e.messages, domain.Message{Role: domain.RoleAssistant, Content: reply})
	return Outcome{Reply: reply}
}

// Summarize asks the model for a short non-identifying summary of the
// conversation. The summary prompt is appended to a copy of the transcript;
// the stored transcript is never mutated. Best-effort: a single provider
// call with no retry, falling back to fixed text on failure.
func (e *Engine) Summarize(ctx context.Context) string {
	prompt := make([]domain.Message, 0, len(e.messages)+1)
	prompt = append(prompt, e.messages...)
	prompt = append(prompt, domain.Message{Role: domain.RoleUser, Content: summaryPrompt})

	summary, err := e.client.CompleteOnce(ctx, prompt)
	if err != nil {
		slog.Error("failed to generate summary", "error", err)
		return summaryFailed
	}
	if summary == "" {
		return summaryUnavailable
	}
	return summary
}

// History returns the transcript without the seeded system message.
func (e *Engine) History() []domain.Message {
	history := make([]domain.Message, 0, len(e.messages))
	for _, m := range e.messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		history = append(history, m)
	}
	return history
}

// Profile returns the student profile, nil for anonymous sessions.
func (e *Engine) Profile() *domain.Profile {
	return e.profile
}

// CrisisDetected reports whether the crisis short-circuit has fired.
func (e *Engine) CrisisDetected() bool {
	return e.crisis
}

// Concluded reports whether the session accepts further turns.
func (e *Engine) Concluded() bool {
	return e.ended
}

// snapshot is the persisted form of the engine state.
type snapshot struct {
	Profile        *domain.Profile  `json:"user_profile"`
	Messages       []domain.Message `json:"messages"`
	CrisisDetected bool             `json:"crisis_detected"`
	IsConcluded    bool             `json:"is_concluded"`
}

// Snapshot serializes the full engine state for store round-trips.
func (e *Engine) Snapshot() ([]byte, error) {
	data, err := json.Marshal(snapshot{
		Profile:        e.profile,
		Messages:       e.messages,
		CrisisDetected: e.crisis,
		IsConcluded:    e.ended,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal engine snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds an engine from a snapshot, re-attaching live
// collaborators. The system prompt is not re-derived; it is already the
// first transcript entry in the persisted state.
func Restore(data []byte, client *llm.Client, detector *safety.Detector) (*Engine, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal engine snapshot: %w", err)
	}
	return &Engine{
		profile:  s.Profile,
		messages: s.Messages,
		crisis:   s.CrisisDetected,
		ended:    s.IsConcluded,
		client:   client,
		detector: detector,
	}, nil
}
