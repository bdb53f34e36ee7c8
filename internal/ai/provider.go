package ai

import "context"

// Provider binds an OpenAI-compatible client to fixed embedding and chat
// configs so the QA pipeline can consume it through capability interfaces.
type Provider struct {
	client *OpenAICompatibleClient
	emb    EmbeddingConfig
	chat   ChatConfig
}

func NewProvider(client *OpenAICompatibleClient, emb EmbeddingConfig, chat ChatConfig) *Provider {
	if client == nil {
		client = NewOpenAICompatibleClient()
	}
	return &Provider{client: client, emb: emb, chat: chat}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.client.Embed(ctx, p.emb, text)
}

func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return p.client.EmbedBatch(ctx, p.emb, texts)
}

func (p *Provider) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	return p.client.Complete(ctx, p.chat, messages)
}
