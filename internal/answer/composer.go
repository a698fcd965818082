// Package answer routes a planned question to the right execution path and
// formats the outcome together with its supporting evidence.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/e60manuels/smartmeter-rag/internal/aggregate"
	"github.com/e60manuels/smartmeter-rag/internal/domain"
	"github.com/e60manuels/smartmeter-rag/internal/planner"
)

// Composer executes query plans. The completer is optional: without one,
// semantic questions are answered with the ranked snippets themselves.
type Composer struct {
	planner   *planner.Planner
	engine    *aggregate.Engine
	store     domain.RecordStore
	embedder  domain.Embedder
	completer domain.Completer
}

// Answer is the formatted result of one question.
type Answer struct {
	Kind     string // "ranking", "aggregation", "semantic", "unrecognized"
	Text     string
	Plan     domain.QueryPlan
	Evidence []string
}

func NewComposer(p *planner.Planner, e *aggregate.Engine, store domain.RecordStore, embedder domain.Embedder, completer domain.Completer) *Composer {
	return &Composer{planner: p, engine: e, store: store, embedder: embedder, completer: completer}
}

// Ask answers one free-text question. Plan-level outcomes (not understood,
// empty filters, metric/aggregation mismatches) come back as answers; only
// store connectivity failures surface as errors.
func (c *Composer) Ask(ctx context.Context, question string, topK int) (*Answer, error) {
	plan := c.planner.Plan(question)
	switch plan.Intent {
	case domain.IntentAggregation:
		if plan.GroupLevel != "" {
			return c.askRanking(ctx, plan)
		}
		return c.askWindowed(ctx, plan)
	case domain.IntentSemantic:
		return c.askSemantic(ctx, question, plan, topK)
	}
	return &Answer{
		Kind: "unrecognized",
		Plan: plan,
		Text: "Ik begrijp deze vraag nog niet. Probeer een analytische vraag zoals 'hoogste week qua teruglevering in 2025'.",
	}, nil
}

func (c *Composer) askRanking(ctx context.Context, plan domain.QueryPlan) (*Answer, error) {
	entries, err := c.engine.Rank(ctx, plan.GroupLevel, plan.Year, plan.Metric, plan.Order, plan.Limit)
	if err != nil {
		return nil, err
	}
	a := &Answer{Kind: "ranking", Plan: plan}
	if len(entries) == 0 {
		a.Text = "No buckets match the requested level and year."
		return a, nil
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %-16s | %s: %.2f %s\n", i+1, e.ID, plan.Metric, e.Value, plan.Metric.Unit())
	}
	a.Text = strings.TrimRight(b.String(), "\n")
	a.Evidence = append(a.Evidence, describeRanking(plan))
	return a, nil
}

func (c *Composer) askWindowed(ctx context.Context, plan domain.QueryPlan) (*Answer, error) {
	result, err := c.engine.Aggregate(ctx, plan)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		// Filter gates and plan mismatches are valid answers.
		return &Answer{Kind: "aggregation", Plan: plan, Text: err.Error()}, nil
	}
	a := &Answer{Kind: "aggregation", Plan: plan}
	value := fmt.Sprintf("%.2f %s", result.Value, result.Metric.Unit())
	if result.Timestamp != "" {
		a.Text = fmt.Sprintf("%s of %s: %s at %s", result.Aggregation, result.Metric, value, result.Timestamp)
	} else {
		a.Text = fmt.Sprintf("%s of %s: %s", result.Aggregation, result.Metric, value)
	}
	a.Evidence = append(a.Evidence, describeWindow(plan, result.Samples))
	return a, nil
}

func (c *Composer) askSemantic(ctx context.Context, question string, plan domain.QueryPlan, topK int) (*Answer, error) {
	if c.embedder == nil {
		return &Answer{
			Kind: "semantic",
			Plan: plan,
			Text: "Semantic retrieval is unavailable: no embedding API key configured.",
		}, nil
	}
	vec, err := c.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	var filter *domain.Filter
	if plan.StartDate != "" {
		filter = &domain.Filter{Date: plan.StartDate}
	}
	scored, err := c.store.Search(ctx, vec, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	a := &Answer{Kind: "semantic", Plan: plan}
	if len(scored) == 0 {
		a.Text = "I could not find any relevant information in the database to answer your question."
		return a, nil
	}
	snippets := make([]string, 0, len(scored))
	for _, s := range scored {
		if s.Summary != "" {
			snippets = append(snippets, s.Summary)
		}
	}
	if len(snippets) == 0 {
		a.Text = "I could not find any relevant information in the database to answer your question."
		return a, nil
	}
	a.Evidence = snippets
	if c.completer == nil {
		a.Text = strings.Join(snippets, "\n")
		return a, nil
	}
	reply, err := c.completer.Complete(ctx, BuildPrompt(question, snippets))
	if err != nil {
		a.Text = "(answer synthesis unavailable: " + err.Error() + ")\n" + strings.Join(snippets, "\n")
		return a, nil
	}
	a.Text = reply
	return a, nil
}

// BuildPrompt assembles the grounded prompt for the completion model. The
// model is instructed to answer only from the provided context.
func BuildPrompt(question string, snippets []string) string {
	var b strings.Builder
	b.WriteString("You are an expert assistant for answering questions about smart meter energy data. ")
	b.WriteString("Please answer the user's question based *only* on the context provided below. ")
	b.WriteString("If the context does not contain the answer, say that you cannot answer the question with the given information. ")
	b.WriteString("Do not make up any information.\n\n")
	b.WriteString("--- CONTEXT ---\n")
	for _, s := range snippets {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
	b.WriteString("\n--- QUESTION ---\n")
	b.WriteString(question)
	b.WriteString("\n\n--- ANSWER ---")
	return b.String()
}

func describeRanking(plan domain.QueryPlan) string {
	desc := fmt.Sprintf("ranking: level=%s sort_by=%s order=%s limit=%d", plan.GroupLevel, plan.Metric, plan.Order, plan.Limit)
	if plan.Year != 0 {
		desc += fmt.Sprintf(" year=%d", plan.Year)
	}
	return desc
}

func describeWindow(plan domain.QueryPlan, samples int) string {
	desc := fmt.Sprintf("aggregation: %s %s %s..%s value_type=%s samples=%d",
		plan.Aggregation, plan.Metric, plan.StartDate, plan.EndDate, plan.ValueType, samples)
	if plan.TimeOfDay != "" {
		desc += " time_of_day=" + string(plan.TimeOfDay)
	}
	return desc
}
