package title

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/user/hundred-acre-realm/config"
	"github.com/user/hundred-acre-realm/internal/interfaces"
	"github.com/user/hundred-acre-realm/internal/types"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI   = "openai"
	ProviderWordList = "wordlist"

	maxTitleTokens = 32
	systemPrompt   = "You name play sessions of a fantasy board game. Reply with a single evocative title of at most eight words, without quotes."
)

// OpenAITitler asks a chat completion model for a session title
type OpenAITitler struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAITitler creates a new OpenAI backed titler
func NewOpenAITitler(cfg config.TitleConfig, logger *zap.Logger) *OpenAITitler {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAITitler{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		logger: logger,
	}
}

// GenerateTitle sends a short description of the session to the model
func (ot *OpenAITitler) GenerateTitle(ctx context.Context, session *types.Session) (string, error) {
	resp, err := ot.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     ot.model,
		MaxTokens: maxTitleTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Describe(session)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	title := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"'`)
	if title == "" {
		return "", errors.New("chat completion returned an empty title")
	}

	ot.logger.Debug("Generated session title",
		zap.String("session", session.SessionName),
		zap.String("model", ot.model),
		zap.String("title", title))

	return title, nil
}

// Describe summarizes a session for the title prompt
func Describe(session *types.Session) string {
	var sb strings.Builder

	players := make([]string, 0, len(session.CharacterToPlayer))
	for character, player := range session.CharacterToPlayer {
		players = append(players, fmt.Sprintf("%s (played by %s)", character, player))
	}
	sort.Strings(players)

	battles := 0
	for _, key := range session.DayKeys {
		if record := session.Days[key]; record != nil {
			battles += len(record.Battles)
		}
	}

	fmt.Fprintf(&sb, "Characters: %s.\n", strings.Join(players, ", "))
	fmt.Fprintf(&sb, "Days played: %d.\n", len(session.DayKeys))
	fmt.Fprintf(&sb, "Battles fought: %d.\n", battles)
	if places := Locations(session); len(places) > 0 {
		fmt.Fprintf(&sb, "Notable places: %s.\n", strings.Join(places, ", "))
	}

	return sb.String()
}

// NewGenerator picks the configured title provider. OpenAI without an API
// key falls back to the word list.
func NewGenerator(cfg config.TitleConfig, logger *zap.Logger) interfaces.TitleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Provider == ProviderOpenAI {
		if cfg.OpenAIAPIKey != "" {
			return NewOpenAITitler(cfg, logger)
		}
		logger.Warn("OpenAI title provider configured without an API key, using word list")
	}
	return NewWordListTitler()
}
