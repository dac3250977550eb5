package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"coverletter-backend/internal/llm"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

// BuildPrompt creates the chat messages for one cover letter answer.
func BuildPrompt(input llm.GenerateInput) []Message {
	system := fmt.Sprintf(
		"너는 HR 전문가이자 문체 디자이너다. '%s' 톤으로 '%s'에 답하는 자소서를 작성한다. 분량은 %d자 내외(최소 %d자). "+
			"불필요한 수사는 배제하고 사실 기반으로 작성. "+
			"출력 형식은 반드시 JSON 하나만: {\"cover_letter\": \"<자소서 전체 본문(문자열)>\"} "+
			"그 외 키/배열/객체/설명/주석/마크다운 금지.",
		input.Tone, input.Question, input.Length, llm.MinLength(input.Length),
	)
	return []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildUserPrompt(input llm.GenerateInput) string {
	r := input.Resume
	var b strings.Builder
	writeSection(&b, "지원자 프로필", r.Profile)
	writeSection(&b, "경력", r.Experiences)
	writeSection(&b, "프로젝트", r.Projects)
	writeSection(&b, "대외활동", r.Activities)
	writeSection(&b, "수상", r.Awards)
	writeSection(&b, "기술/자격", map[string]any{"skills": r.Skills})
	b.WriteString("[문항]\n")
	b.WriteString(input.Question)
	return b.String()
}

func writeSection(b *strings.Builder, label string, v any) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		raw = []byte("null")
	}
	b.WriteString("[")
	b.WriteString(label)
	b.WriteString("]\n")
	b.Write(raw)
	b.WriteString("\n\n")
}

func promptStringFromMessages(messages []Message) string {
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
