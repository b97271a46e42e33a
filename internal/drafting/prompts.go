package drafting

import (
	"fmt"
	"strings"
)

const (
	defaultObjectiveFeedback = "Please provide more specific details about your goal."
	defaultKeyResultFeedback = "Please provide more specific details about the actions needed."
)

func vaguenessPrompt(answer string) string {
	return fmt.Sprintf(`Analyze this answer for clarity and specificity. If it's too vague or generic, provide specific feedback on how to improve it. Answer in JSON format: {"isVague": boolean, "feedback": "string or null"}

Answer to analyze: %q`, answer)
}

func generateObjectivePrompt(departmentGoal, mostImportant, why string) string {
	return fmt.Sprintf(`You are an OKR expert. Based on the following information, generate ONE clear and inspiring Objective (the "O" in OKR).

Department Goal: %s

User's answers:
1. Most important thing to achieve this bi-monthly period: %s
2. Why this is important and how it helps the department goal: %s

Requirements:
- The Objective should be qualitative, inspirational, and time-bound
- It should align with the department goal
- Write in English
- Be concise but meaningful
- Do not include metrics (those belong in Key Results)

Respond with ONLY the Objective text, nothing else.`, departmentGoal, mostImportant, why)
}

func generateKeyResultsPrompt(departmentGoal, objective, actions, criteria string) string {
	return fmt.Sprintf(`You are an OKR expert. Based on the following information, generate 3-4 Key Results (the "KR" in OKR) for the given Objective.

Department Goal: %s
Objective: %s

User's answers:
1. Key actions needed to achieve this objective: %s
2. Success criteria - how to measure achievement: %s

Requirements:
- Key Results should be specific, measurable, and time-bound
- Each KR should directly contribute to achieving the Objective
- Write in English
- Use concrete metrics where possible
- Each KR should be achievable within the bi-monthly period

Respond with a JSON array of Key Result strings, like: ["KR1", "KR2", "KR3"]`, departmentGoal, objective, actions, criteria)
}

func optimizeObjectivePrompt(departmentGoal, objective, feedback string) string {
	return fmt.Sprintf(`You are an OKR expert. Please improve this Objective based on the user's feedback.

Department Goal: %s
Current Objective: %s
User's feedback: %s

Requirements:
- Keep the core intent but address the feedback
- The Objective should be qualitative, inspirational, and time-bound
- Write in English
- Be concise but meaningful

Respond with ONLY the improved Objective text, nothing else.`, departmentGoal, objective, feedback)
}

func optimizeKeyResultsPrompt(objective string, keyResults []string, feedback string) string {
	var list strings.Builder
	for i, kr := range keyResults {
		fmt.Fprintf(&list, "%d. %s\n", i+1, kr)
	}
	return fmt.Sprintf(`You are an OKR expert. Please improve these Key Results based on the user's feedback.

Objective: %s

Current Key Results:
%s
User's feedback: %s

Requirements:
- Address the feedback while keeping useful parts
- Key Results should be specific, measurable, and time-bound
- Write in English
- Generate 3-4 Key Results

Respond with a JSON array of Key Result strings, like: ["KR1", "KR2", "KR3"]`, objective, list.String(), feedback)
}
