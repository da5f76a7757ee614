package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"concierge_backend/platform/ai/openaicompat"
	"concierge_backend/platform/apperr"
	"concierge_backend/platform/config"
	"concierge_backend/platform/logger"
)

const appName = "concierge"

const (
	msgAssistantUnavailable = "The assistant is temporarily unavailable. Please try again in a moment."
	msgEmptyReply           = "عذراً، لم أتمكن من معالجة رسالتك. حاول مرة أخرى. / Sorry, I could not process your message. Please try again."
)

// Assistant runs the tool-calling conversation loop over the knowledge
// engine and the data-collection state machine. The tool dependency
// set carries a single conversation identity at a time, so turns are
// serialized across all conversations in this process; the per-visitor
// Redis lock in the orders service is the backstop for anything
// running outside it.
type Assistant struct {
	agent          agent.Agent
	runner         *runner.Runner
	sessionService session.Service
	deps           *ToolDependencies
	log            *logger.Logger

	runMu         sync.Mutex
	conversations map[string]struct{}
}

// NewAssistant builds the concierge agent, its toolset, and the runner.
func NewAssistant(knowledge KnowledgeService, catalog CatalogService, orders OrdersService, cfg config.AssistantConfig, log *logger.Logger) (*Assistant, error) {
	model := openaicompat.NewModel(openaicompat.Config{
		APIKey:  cfg.GetAssistantAPIKey(),
		BaseURL: cfg.GetAssistantBaseURL(),
		Model:   cfg.GetAssistantModel(),
	})

	deps := &ToolDependencies{
		Knowledge: knowledge,
		Catalog:   catalog,
		Orders:    orders,
		Log:       log,
	}

	tools, err := buildTools(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build tools: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "Concierge",
		Model:       model,
		Description: "Bilingual business-chat concierge that answers knowledge base questions and walks visitors through ordering a service.",
		Instruction: getSystemPrompt(),
		Tools:       tools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ADK agent: %w", err)
	}

	sessionService := session.InMemoryService()

	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ADK runner: %w", err)
	}

	return &Assistant{
		agent:          adkAgent,
		runner:         r,
		sessionService: sessionService,
		deps:           deps,
		log:            log,
		conversations:  make(map[string]struct{}),
	}, nil
}

// Chat runs one conversation turn and returns the assistant's reply.
func (a *Assistant) Chat(ctx context.Context, tenantID, visitorID uuid.UUID, message string) (string, error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	a.deps.SetIdentity(tenantID, visitorID)

	userID := visitorID.String()
	sessionID := conversationID(tenantID, visitorID)
	if err := a.ensureConversation(ctx, userID, sessionID); err != nil {
		a.log.Error("assistant session create failed", "session_id", sessionID, "error", err.Error())
		return "", apperr.Wrap(apperr.KindInternal, msgAssistantUnavailable, err)
	}

	userMessage := &genai.Content{
		Role: "user",
		Parts: []*genai.Part{
			{Text: message},
		},
	}

	var reply strings.Builder
	runConfig := agent.RunConfig{
		StreamingMode: agent.StreamingModeNone,
	}

	for event, err := range a.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			a.log.Error("assistant run failed", "tenant_id", tenantID.String(), "visitor_id", visitorID.String(), "error", err.Error())
			return "", apperr.Wrap(apperr.KindInternal, msgAssistantUnavailable, err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			if part != nil {
				reply.WriteString(part.Text)
			}
		}
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		text = msgEmptyReply
	}
	return text, nil
}

// ensureConversation creates the ADK session on the first turn of a
// conversation. Sessions live in memory for the process lifetime.
// Callers hold runMu.
func (a *Assistant) ensureConversation(ctx context.Context, userID, sessionID string) error {
	if _, ok := a.conversations[sessionID]; ok {
		return nil
	}

	_, err := a.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	})
	if err != nil {
		return err
	}

	a.conversations[sessionID] = struct{}{}
	return nil
}

func conversationID(tenantID, visitorID uuid.UUID) string {
	return tenantID.String() + ":" + visitorID.String()
}
