package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/user/lastsignal/config"
	"github.com/user/lastsignal/internal/interfaces"
	"github.com/user/lastsignal/internal/types"
)

// OpenAIProvider implements the decision provider using the OpenAI Chat
// Completions API
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// Ensure OpenAIProvider satisfies the interfaces.DecisionProvider interface
var _ interfaces.DecisionProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(cfg config.AIConfig, apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

// AlterContent asks the model for a believable altered version of the
// fragment
func (p *OpenAIProvider) AlterContent(ctx context.Context, req types.AlterRequest) (string, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Original information: '%s'\n", req.OriginalContent)
	fmt.Fprintf(&prompt, "Information type: %s\n\n", req.FragmentKind)
	if len(req.Factions) > 0 {
		fmt.Fprintf(&prompt, "Round %d. Factions and states: %v\n\n", req.Round, req.FactionStates)
	}
	prompt.WriteString("Create a believable altered version of this information that:\n")
	prompt.WriteString("1. Changes key details while maintaining plausibility\n")
	prompt.WriteString("2. Could mislead factions into making decisions\n")
	prompt.WriteString("3. Stays within the sci-fi digital world theme\n")
	prompt.WriteString("4. Is concise (1-2 sentences max)\n\n")
	prompt.WriteString("Altered version:")

	content, err := p.complete(ctx, prompt.String(),
		"You are an AI that creates believable misinformation in a digital world game. Generate subtle alterations that could mislead NPC factions.",
		false)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("[Signal %s] %s", req.ActorID, content), nil
}

// factionDecisionPayload is the JSON shape the model is asked to return
type factionDecisionPayload struct {
	NewState string `json:"new_state"`
	Action   string `json:"action"`
}

// DecideFactionAction asks the model for a state transition. An empty or
// invalid state in the response counts as an abstention.
func (p *OpenAIProvider) DecideFactionAction(ctx context.Context, req types.DecisionRequest) (*types.FactionDecision, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Faction %q is in state %q on round %d of %d active factions and %d circulating fragments.\n\n",
		req.FactionName, req.CurrentState, req.World.RoundNumber, req.World.ActiveFactions, req.World.TotalInformation)

	prompt.WriteString("Belief strengths:\n")
	for _, id := range sortedKeys(req.Beliefs) {
		fmt.Fprintf(&prompt, "- %s: %.1f\n", id, req.Beliefs[id])
	}

	prompt.WriteString("\nRelationships:\n")
	for _, name := range sortedKeys(req.Relationships) {
		fmt.Fprintf(&prompt, "- %s: %.1f\n", name, req.Relationships[name])
	}

	prompt.WriteString("\nDecide the faction's next move. Respond with JSON: ")
	prompt.WriteString(`{"new_state": "peaceful"|"aggressive"|"zealous"|"crashed"|"allied"|"", "action": "<one-sentence description>"}. `)
	prompt.WriteString("Use an empty new_state to take no action.")

	content, err := p.complete(ctx, prompt.String(),
		"You simulate NPC faction behavior in a psychological strategy game. Factions react to the information they believe.",
		true)
	if err != nil {
		return nil, err
	}

	var payload factionDecisionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("invalid decision payload: %w", err)
	}
	if payload.NewState == "" || payload.Action == "" {
		return nil, nil
	}

	state := types.FactionState(payload.NewState)
	switch state {
	case types.StatePeaceful, types.StateAggressive, types.StateZealous, types.StateCrashed, types.StateAllied:
	default:
		return nil, fmt.Errorf("invalid faction state: %q", payload.NewState)
	}

	return &types.FactionDecision{NewState: state, Description: payload.Action}, nil
}

// GenerateMatchNarrative asks the model for a three-part match story
func (p *OpenAIProvider) GenerateMatchNarrative(ctx context.Context, req types.NarrativeRequest) (*types.MatchNarrative, error) {
	var prompt strings.Builder
	prompt.WriteString("Create a dramatic narrative for a match in a game where AI signals control information.\n\n")

	prompt.WriteString("PLAYERS:\n")
	for _, id := range sortedSummaryKeys(req.Players) {
		player := req.Players[id]
		fmt.Fprintf(&prompt, "- %s: %.1f influence, %d actions\n", player.Name, player.Influence, player.ActionsTaken)
	}

	prompt.WriteString("\nFINAL FACTION STATES:\n")
	for _, name := range sortedFactionKeys(req.Factions) {
		faction := req.Factions[name]
		fmt.Fprintf(&prompt, "- %s: %s, %d beliefs\n", name, faction.State, faction.BeliefsCount)
	}

	prompt.WriteString("\nKEY EVENTS:\n")
	events := req.EventsLog
	if len(events) > 10 {
		events = events[len(events)-10:]
	}
	for _, event := range events {
		fmt.Fprintf(&prompt, "- %s\n", event)
	}

	fmt.Fprintf(&prompt, "\nWINNER: %s\n\n", req.WinnerName)
	prompt.WriteString("Write a dramatic 3-paragraph narrative covering:\n")
	prompt.WriteString("1. OPENING: Set the scene of the collapsing digital world\n")
	prompt.WriteString("2. KEY MOMENTS: Highlight the most dramatic events\n")
	prompt.WriteString("3. CONCLUSION: How the winner's version of reality dominated\n")

	text, err := p.complete(ctx, prompt.String(),
		"You are a dramatic narrator for a psychological strategy game. Create compelling, cinematic narratives from game events.",
		false)
	if err != nil {
		return nil, err
	}

	paragraphs := splitParagraphs(text)
	narrative := &types.MatchNarrative{FullText: text}
	if len(paragraphs) > 0 {
		narrative.Summary = paragraphs[0]
	}
	if len(paragraphs) > 1 {
		narrative.KeyMoments = paragraphs[1]
	}
	if len(paragraphs) > 2 {
		narrative.Conclusion = paragraphs[2]
	}
	return narrative, nil
}

// GenerateTruthReveal asks the model to narrate what was real
func (p *OpenAIProvider) GenerateTruthReveal(ctx context.Context, req types.TruthRevealRequest) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("The match is over. Narrate a 'truth reveal' separating reality from manipulation.\n\n")
	for _, kind := range []types.FragmentKind{types.FragmentTruth, types.FragmentLie, types.FragmentCorrupted} {
		fmt.Fprintf(&prompt, "%s fragments:\n", strings.ToUpper(string(kind)))
		for _, frag := range req.Fragments[kind] {
			fmt.Fprintf(&prompt, "- %s (spread %dx, %d believers)\n", frag.Content, frag.SpreadCount, len(frag.Believers))
		}
		prompt.WriteString("\n")
	}
	prompt.WriteString("Start with '=== TRUTH REVEAL ===' and keep it under 200 words.")

	return p.complete(ctx, prompt.String(),
		"You are a dramatic narrator for a psychological strategy game.",
		false)
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt, system string, jsonMode bool) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}
	if jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSummaryKeys(m map[string]types.PlayerSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedFactionKeys(m map[string]types.FactionSummary) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
