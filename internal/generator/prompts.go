package generator

import (
	"fmt"
	"strings"

	"github.com/gisa-quiz/backend/internal/models"
)

var categoryTopics = map[models.Category][]string{
	models.CategoryCircuit: {
		"RLC 직렬·병렬 공진",
		"테브난·노턴 등가회로",
		"3상 교류 전력과 Y-Δ 변환",
		"과도현상과 시정수",
		"라플라스 변환과 전달함수",
		"안정도 판별(루스, 나이퀴스트)",
		"블록선도와 신호흐름선도",
	},
	models.CategoryMagnetism: {
		"쿨롱의 법칙과 전계",
		"가우스 법칙과 전위",
		"정전용량과 유전체",
		"비오-사바르 법칙과 앙페르 법칙",
		"전자유도와 인덕턴스",
		"맥스웰 방정식과 전자파",
	},
	models.CategoryMachines: {
		"직류기의 유기기전력과 전기자 반작용",
		"동기발전기의 동기속도와 병렬운전",
		"변압기 등가회로와 효율",
		"유도전동기의 슬립과 토크 특성",
		"전력변환장치(정류기, 인버터)",
	},
	models.CategoryPower: {
		"송전선로 정수와 코로나",
		"고장계산과 %임피던스",
		"중성점 접지방식",
		"보호계전기",
		"수력·화력·원자력 발전",
		"배전선로 전압강하와 전력손실",
	},
	models.CategoryRegulations: {
		"전압의 구분(저압, 고압, 특고압)",
		"접지시스템과 접지도체 굵기",
		"전선의 식별과 절연저항",
		"가공전선의 지표상 높이와 이격거리",
		"지중전선로 매설깊이",
		"과전류·누전 차단기 시설",
	},
}

var typeGuidance = map[models.QuestionType]string{
	models.TypeRote: `Question type: 암기 (memorization)
- Test a definition, a regulation value, a classification or a named law
- Wrong options must be real values or terms from the same topic, not nonsense
- The cheat_key is a short mnemonic that makes the value stick`,
	models.TypeFormula: `Question type: 공식 (formula)
- Test a calculation that needs one or two formulas
- Give every quantity with units; the options are numeric answers with units
- Wrong options come from the typical mistakes (missing √3, wrong unit prefix, using peak instead of RMS)
- The cheat_key is the formula itself, written compactly`,
}

func SystemPrompt() string {
	return `You are an expert question writer for the Korean 전기기사 (Electrical Engineer) national certification written exam. You have written and reviewed past exam papers for 20 years. You write questions that are indistinguishable from real 전기기사 필기 questions.

Your questions must follow these exact structural rules:

LANGUAGE:
- Write everything in Korean, in the formal register of the official exam
- Use standard Korean electrical terminology and SI units

QUESTION:
- One self-contained question, 1-3 sentences
- Numeric questions give every value needed to solve them
- Never reference the exam itself or test-taking

OPTIONS:
- Exactly 4 options
- Exactly ONE correct option
- Wrong options must be plausible and each wrong for an identifiable reason
- Options must be distinct strings

EXPLANATION:
- 2-4 sentences explaining why the correct option is right, with the calculation for formula questions

CHEAT KEY:
- A one-line memory aid (mnemonic or compact formula) for the core point

STRATEGY:
- Optional one-line tip for solving this kind of question quickly in the exam

You must respond with valid JSON only. No markdown, no explanation outside the JSON.`
}

func BuildUserPrompt(category models.Category, qtype models.QuestionType, count int) string {
	var topicLines string
	for _, t := range categoryTopics[category] {
		topicLines += fmt.Sprintf("- %s\n", t)
	}

	return fmt.Sprintf(`Generate exactly %d 전기기사 필기 questions.

Subject: %s
%s

Topics to draw from:
%s
Respond with this exact JSON structure:
{
  "questions": [
    {
      "question": "...",
      "options": ["...", "...", "...", "..."],
      "answer_index": 2,
      "explanation": "...",
      "cheat_key": "...",
      "strategy": "..."
    }
  ]
}

Requirements:
- answer_index is the 1-based position of the correct option
- Each question must cover a DIFFERENT topic from the list above
- Vary the position of the correct option across 1-4`,
		count, string(category), typeGuidance[qtype], topicLines)
}

// CategoryTopics returns the syllabus topics for a subject.
func CategoryTopics(category models.Category) []string {
	return categoryTopics[category]
}

// TypeGuidance returns the prompt section for a question type.
func TypeGuidance(qtype models.QuestionType) string {
	return typeGuidance[qtype]
}

// hasKorean reports whether s contains Hangul syllables.
func hasKorean(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return r >= 0xAC00 && r <= 0xD7A3 }) >= 0
}
