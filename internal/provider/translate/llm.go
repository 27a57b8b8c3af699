package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// LLMTranslator implements Translator on top of a chat model. It is wired in
// when no dedicated translation API key is configured, or selected explicitly
// via the translate provider setting.
type LLMTranslator struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewLLMTranslator compiles the translation prompt chain around the model.
func NewLLMTranslator(ctx context.Context, chatModel model.ChatModel) (*LLMTranslator, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("chat model is required for the llm translator")
	}

	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("You are a professional interpreter. Translate the user's message from {source} to {target}. Reply with the translation only, no quotes and no commentary."),
		schema.UserMessage("{text}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile translation chain: %w", err)
	}

	return &LLMTranslator{chain: runnable}, nil
}

// Translate runs the prompt chain and returns the trimmed model output.
func (t *LLMTranslator) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (*Result, error) {
	response, err := t.chain.Invoke(ctx, map[string]any{
		"source": sourceLanguage,
		"target": targetLanguage,
		"text":   text,
	})
	if err != nil {
		return nil, fmt.Errorf("llm translation failed: %w", err)
	}

	translated := strings.TrimSpace(response.Content)
	if translated == "" {
		return nil, fmt.Errorf("llm translation returned empty output")
	}

	return &Result{Text: translated, DetectedSourceLanguage: sourceLanguage}, nil
}
