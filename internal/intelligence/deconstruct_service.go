// Package intelligence turns a free-text business idea into candidate
// strategy names that seed a project's Discovery list.
package intelligence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/elementalai/elemental/internal/llm"
)

// Source reports where a set of candidates came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Candidate is one proposed strategy.
type Candidate struct {
	Name       string `json:"name"`
	Hypothesis string `json:"hypothesis"`
}

// Deconstruction is the result of breaking an idea down.
type Deconstruction struct {
	Idea       string
	Candidates []Candidate
	Source     Source
	// Warning explains why the fallback was used, if it was.
	Warning string
}

// Names returns the candidate names in order.
func (d *Deconstruction) Names() []string {
	names := make([]string, 0, len(d.Candidates))
	for _, c := range d.Candidates {
		names = append(names, c.Name)
	}
	return names
}

// DeconstructService proposes candidate strategies for a business idea.
type DeconstructService interface {
	// Deconstruct asks the model for candidates and falls back to a fixed
	// playbook when the model gives no usable answer.
	Deconstruct(ctx context.Context, idea string) (*Deconstruction, error)

	// Describe drafts a hypothesis sentence for a strategy name.
	Describe(ctx context.Context, idea, strategy string) (string, error)
}

type deconstructService struct {
	client        llm.LLMClient
	maxCandidates int
}

// NewDeconstructService creates a DeconstructService. client may be nil, in
// which case only the fallback playbook is used.
func NewDeconstructService(client llm.LLMClient, maxCandidates int) DeconstructService {
	if maxCandidates <= 0 {
		maxCandidates = llm.DefaultConfig().MaxCandidates
	}
	return &deconstructService{client: client, maxCandidates: maxCandidates}
}

// ErrEmptyIdea is returned when there is nothing to deconstruct.
var ErrEmptyIdea = errors.New("idea is required")

type deconstructResponse struct {
	Strategies []Candidate `json:"strategies"`
}

const maxNameLen = 60

func (s *deconstructService) Deconstruct(ctx context.Context, idea string) (*Deconstruction, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, ErrEmptyIdea
	}
	if s.client == nil {
		return s.fallback(idea, "model not configured"), nil
	}

	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskDeconstruct,
		SystemPrompt: fmt.Sprintf(deconstructSystemPrompt, s.maxCandidates),
		UserPrompt:   "Business idea: " + idea,
		JSON:         true,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return s.fallback(idea, err.Error()), nil
	}

	parsed, err := llm.ExtractJSON[deconstructResponse](resp.Text, validateDeconstructResponse)
	if err != nil {
		return s.fallback(idea, err.Error()), nil
	}

	candidates := normalizeCandidates(parsed.Strategies, s.maxCandidates)
	if len(candidates) == 0 {
		return s.fallback(idea, "model returned no usable strategies"), nil
	}
	return &Deconstruction{Idea: idea, Candidates: candidates, Source: SourceModel}, nil
}

func (s *deconstructService) Describe(ctx context.Context, idea, strategy string) (string, error) {
	strategy = strings.TrimSpace(strategy)
	if strategy == "" {
		return "", fmt.Errorf("strategy name is required")
	}
	if s.client == nil {
		return "", llm.ErrDisabled
	}
	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskDescribe,
		SystemPrompt: describeSystemPrompt,
		UserPrompt:   fmt.Sprintf("Business idea: %s\nStrategy: %s", strings.TrimSpace(idea), strategy),
		JSON:         true,
	})
	if err != nil {
		return "", fmt.Errorf("llm describe failed: %w", err)
	}
	out, err := llm.ExtractJSON[struct {
		Hypothesis string `json:"hypothesis"`
	}](resp.Text, nil)
	if err != nil {
		return "", fmt.Errorf("failed to extract hypothesis: %w", err)
	}
	h := strings.TrimSpace(out.Hypothesis)
	if h == "" {
		return "", fmt.Errorf("%w: empty hypothesis", llm.ErrInvalidOutput)
	}
	return h, nil
}

func (s *deconstructService) fallback(idea, reason string) *Deconstruction {
	return &Deconstruction{
		Idea:       idea,
		Candidates: normalizeCandidates(FallbackPlaybook(), s.maxCandidates),
		Source:     SourceFallback,
		Warning:    reason,
	}
}

func validateDeconstructResponse(resp deconstructResponse) error {
	if len(resp.Strategies) == 0 {
		return fmt.Errorf("strategies must not be empty")
	}
	return nil
}

// normalizeCandidates cleans model names and keeps at most limit unique ones.
func normalizeCandidates(in []Candidate, limit int) []Candidate {
	seen := make(map[string]bool, len(in))
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		name := stripNumbering(c.Name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > maxNameLen {
			name = strings.TrimSpace(string([]rune(name)[:maxNameLen]))
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Candidate{Name: name, Hypothesis: strings.TrimSpace(c.Hypothesis)})
		if len(out) == limit {
			break
		}
	}
	return out
}

// stripNumbering removes a leading "1." / "2)" / "- " list marker.
func stripNumbering(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSpace(strings.TrimPrefix(name, "- "))
	i := 0
	for i < len(name) && name[i] >= '0' && name[i] <= '9' {
		i++
	}
	if i > 0 && i < len(name) && (name[i] == '.' || name[i] == ')') {
		name = strings.TrimSpace(name[i+1:])
	}
	return name
}
