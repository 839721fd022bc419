// Package guard implements content screening backed by a small filter model.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/agora-ai/agora/internal/core"
	"github.com/agora-ai/agora/internal/logging"
)

const topicSystem = `You are a content filter for a debate application. ` +
	`You judge whether a topic is appropriate for a civil AI-vs-AI debate. ` +
	`Reject topics that promote harm, harassment or illegal activity. ` +
	`Answer with a single word: SAFE or UNSAFE. ` +
	`If UNSAFE, add one short sentence explaining why.`

const argumentSystem = `You are a content filter reviewing one argument from a ` +
	`civil debate. Flag it only if it contains harassment, slurs or calls for ` +
	`harm. Answer with a single word: OK or FLAG. ` +
	`If FLAG, add one short sentence explaining why.`

// ModelGuard screens debate content with a language model.
// Callers own the failure policy: the scheduler treats topic-screening errors
// as rejections, the moderator treats argument-screening errors as clean.
type ModelGuard struct {
	model  core.LanguageModel
	logger *logging.Logger
}

// New creates a guard backed by the given filter model.
func New(model core.LanguageModel, logger *logging.Logger) *ModelGuard {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ModelGuard{model: model, logger: logger}
}

// CheckTopic screens a proposed debate topic.
func (g *ModelGuard) CheckTopic(ctx context.Context, topic string) (core.TopicCheck, error) {
	prompt := fmt.Sprintf("Debate topic: %q\n\nIs this topic appropriate for a civil debate?", topic)

	raw, err := g.model.Generate(ctx, core.GenerateRequest{Prompt: prompt, System: topicSystem})
	if err != nil {
		return core.TopicCheck{}, err
	}

	verdict, reason := parseVerdict(raw, "SAFE", "UNSAFE")
	if verdict == "" {
		// The filter model answered off-script; treat as a rejection with
		// the raw text as explanation.
		g.logger.Warn("topic filter gave unparseable verdict", "raw", g.logger.Sanitize(raw))
		return core.TopicCheck{Accepted: false, Reason: "topic could not be verified as appropriate"}, nil
	}

	if verdict == "UNSAFE" {
		if reason == "" {
			reason = "topic rejected by content filter"
		}
		return core.TopicCheck{Accepted: false, Reason: reason}, nil
	}
	return core.TopicCheck{Accepted: true}, nil
}

// CheckArgument screens a generated argument.
func (g *ModelGuard) CheckArgument(ctx context.Context, text string) (core.ArgumentCheck, error) {
	prompt := fmt.Sprintf("Argument: %q\n\nDoes this argument need moderator correction?", text)

	raw, err := g.model.Generate(ctx, core.GenerateRequest{Prompt: prompt, System: argumentSystem})
	if err != nil {
		return core.ArgumentCheck{}, err
	}

	verdict, reason := parseVerdict(raw, "OK", "FLAG")
	if verdict == "FLAG" {
		if reason == "" {
			reason = "argument flagged by content filter"
		}
		return core.ArgumentCheck{OK: false, Reason: reason}, nil
	}
	// Off-script answers count as clean: argument screening never blocks
	// progress on filter confusion.
	return core.ArgumentCheck{OK: true}, nil
}

// parseVerdict scans for either keyword, case-insensitive. Small models pad
// answers with prose, so position does not matter. The negative keyword wins
// when both appear; "UNSAFE" containing "SAFE" also resolves that way.
func parseVerdict(raw, positive, negative string) (verdict, reason string) {
	upper := strings.ToUpper(raw)

	if negIdx := strings.Index(upper, negative); negIdx >= 0 {
		return negative, cleanReason(raw[negIdx+len(negative):])
	}
	if strings.Contains(upper, positive) {
		return positive, ""
	}
	return "", ""
}

func cleanReason(s string) string {
	s = strings.TrimLeft(s, ":.,- \t\n")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
