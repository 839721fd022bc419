package core

import (
	"fmt"
	"strings"
)

// Prompt builders. The text here drives small local models, so every prompt
// spells out the exact output format it expects.

func formatTurns(turns []Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(t.Side.String()), t.Text)
	}
	return b.String()
}

func buildStancePrompt(topic string) string {
	return fmt.Sprintf(
		"You are helping set up a debate about: '%s'\n\n"+
			"Generate exactly two opposing stances in this exact format:\n"+
			"FOR: (write a one-sentence stance supporting the topic)\n"+
			"AGAINST: (write a one-sentence stance opposing the topic)\n\n"+
			"Make each stance clear and specific. Do not add any other text.",
		topic)
}

// buildSimpleStancePrompt is the fallback used after the structured stance
// prompt produced unparseable output.
func buildSimpleStancePrompt(topic string) string {
	return fmt.Sprintf(
		"Topic: %s\n\n"+
			"1. Write one sentence supporting this topic.\n"+
			"2. Write one sentence opposing this topic.\n"+
			"Be clear and specific.",
		topic)
}

func buildSystemPromptPrompt(stance, topic string) string {
	return fmt.Sprintf(
		"Create a system prompt for an AI debater that will argue %q on the topic: %q\n\n"+
			"The system prompt should include:\n"+
			"1. Clear definition of the AI's role and perspective\n"+
			"2. Guidelines for maintaining respectful discourse\n"+
			"3. Requirements for using logic and evidence\n"+
			"4. Instructions for keeping responses focused and concise\n\n"+
			"Return only the system prompt, no explanations.",
		stance, topic)
}

func buildArgumentPrompt(topic string, stance string, side Side, context []Turn) string {
	return fmt.Sprintf(
		"You are participating in a casual debate about: %s\n"+
			"Your stance is: %s\n"+
			"You argue the %s side: %s\n\n"+
			"Previous discussion:\n%s\n\n"+
			"Respond in a conversational way by:\n"+
			"1. Using natural, casual language\n"+
			"2. Keeping it brief (1-2 sentences)\n"+
			"3. Addressing the opponent's latest point\n\n"+
			"Keep your response under 30 words and make it feel like a natural conversation.",
		topic, strings.ToUpper(side.String()), side, stance, formatTurns(context))
}

func buildInterventionPrompt(topic string, context []Turn) string {
	return fmt.Sprintf(
		"Analyze this debate and determine if moderator intervention is needed:\n\n"+
			"Topic: %s\n\n"+
			"Recent discussion:\n%s\n\n"+
			"Check for:\n"+
			"1. Off-topic discussion\n"+
			"2. Circular arguments\n"+
			"3. Logical fallacies\n"+
			"4. Need for a recap\n\n"+
			"Answer 'true' if intervention is needed, 'false' if not, and include a brief reason.",
		topic, formatTurns(context))
}

func buildModeratorSummaryPrompt(topic string, context []Turn) string {
	return fmt.Sprintf(
		"Provide a brief, impartial summary of the following debate:\n\n"+
			"Topic: %s\n\n"+
			"Debate history:\n%s\n\n"+
			"Focus on:\n"+
			"1. Key arguments from both sides\n"+
			"2. Main points of contention\n"+
			"3. Current state of the debate\n\n"+
			"Keep the summary concise and neutral. Do not argue for either side.",
		topic, formatTurns(context))
}

func buildEvaluationPrompt(topic, argument string, context []Turn) string {
	return fmt.Sprintf(
		"As a debate moderator, evaluate the following argument in context:\n\n"+
			"Topic: %s\n"+
			"Current argument: %s\n\n"+
			"Previous discussion:\n%s\n\n"+
			"Respond with a JSON object containing exactly these keys:\n"+
			`{"is_on_topic": true/false, "is_circular": true/false, `+
			`"is_logical": true/false, "feedback": "brief moderator feedback"}`,
		topic, argument, formatTurns(context))
}

// parseStances extracts the FOR/AGAINST pair from raw model output.
// Small models are sloppy about format, so parsing degrades gracefully:
// labeled lines first, then the first two non-empty lines.
func parseStances(raw string) (Stance, error) {
	var st Stance
	lines := nonEmptyLines(raw)
	for _, line := range lines {
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "FOR:"):
			st.For = strings.TrimSpace(line[4:])
		case strings.HasPrefix(upper, "AGAINST:"):
			st.Against = strings.TrimSpace(line[8:])
		case strings.HasPrefix(upper, "FOR "):
			st.For = strings.TrimSpace(line[4:])
		case strings.HasPrefix(upper, "AGAINST "):
			st.Against = strings.TrimSpace(line[8:])
		}
	}

	if st.For == "" && st.Against == "" && len(lines) >= 2 {
		st.For = lines[0]
		st.Against = lines[1]
	}

	st.For = cleanStance(st.For, "FOR")
	st.Against = cleanStance(st.Against, "AGAINST")

	const minStanceLen = 5
	if len(st.For) < minStanceLen || len(st.Against) < minStanceLen {
		return Stance{}, ErrGeneration("generated stances too short or missing")
	}
	return st, nil
}

func cleanStance(s, label string) string {
	s = strings.ReplaceAll(s, label+":", "")
	s = strings.TrimPrefix(s, label)
	s = strings.Trim(s, " *\t")
	return strings.TrimSpace(s)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
