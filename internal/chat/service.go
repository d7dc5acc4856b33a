package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prontoville/crust/internal/cart"
	"github.com/prontoville/crust/internal/catalog"
	"github.com/prontoville/crust/internal/llm"
	"github.com/prontoville/crust/internal/memory"
	"github.com/prontoville/crust/internal/observability"
	"github.com/prontoville/crust/internal/orders"
	"github.com/prontoville/crust/internal/reliability"
)

// apologyMessage is what the customer sees when the generation backend stays
// down through every retry. Raw errors never reach the chat.
const apologyMessage = "I'm really sorry - I'm having trouble responding right now. Please try again in a moment."

const askForInfoMessage = "I need both your **Name** and **Phone Number** to place the order. Please provide them like:\n\n*My name is Ali and phone is 03001234567*"

var (
	addKeywords      = []string{"add", "want", "order", "give me", "i'll have", "get me", "please add"}
	viewKeywords     = []string{"cart", "my order", "what did i order", "show order"}
	clearKeywords    = []string{"clear cart", "remove all", "start over", "cancel order"}
	checkoutKeywords = []string{"checkout", "place order", "confirm", "finalize", "done ordering"}
)

// Service runs one chat turn end to end: persist the user message, resolve
// ordering intents, ground and generate the reply, persist it, and kick
// best-effort memory compaction.
type Service struct {
	memory    *memory.Manager
	menu      catalog.Store
	fragments *catalog.ContextBuilder
	carts     *cart.Manager
	orders    orders.Store
	generator llm.Generator
	retry     reliability.Policy
	metrics   *observability.Metrics
}

func NewService(
	mem *memory.Manager,
	menu catalog.Store,
	carts *cart.Manager,
	orderStore orders.Store,
	generator llm.Generator,
	retry reliability.Policy,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		memory:    mem,
		menu:      menu,
		fragments: catalog.NewContextBuilder(menu),
		carts:     carts,
		orders:    orderStore,
		generator: generator,
		retry:     retry,
		metrics:   metrics,
	}
}

// History returns the full session transcript for UI replay.
func (s *Service) History(ctx context.Context, token string) ([]memory.Turn, error) {
	return s.memory.FullHistory(ctx, token)
}

// EnsureSession registers a session token. Safe to call on every request.
func (s *Service) EnsureSession(ctx context.Context, token string) error {
	return s.memory.EnsureSession(ctx, token)
}

// Associate links the session to a durable identity.
func (s *Service) Associate(ctx context.Context, token, identity string) error {
	if err := s.memory.AssociateAndMerge(ctx, token, identity); err != nil {
		return err
	}
	s.metrics.SessionEvents.WithLabelValues("associated").Inc()
	return nil
}

// HandleTurn processes one inbound customer message and returns the assistant
// reply. Storage failures on either turn append fail the whole turn; the
// conversation must never continue past an unsaved message.
func (s *Service) HandleTurn(ctx context.Context, token, message string) (string, error) {
	if err := s.memory.EnsureSession(ctx, token); err != nil {
		return "", fmt.Errorf("ensure session: %w", err)
	}
	if err := s.memory.SaveTurn(ctx, token, memory.RoleUser, message); err != nil {
		s.metrics.ChatTurns.WithLabelValues("storage_error").Inc()
		return "", fmt.Errorf("save user turn: %w", err)
	}

	reply, outcome, err := s.respond(ctx, token, message)
	if err != nil {
		s.metrics.ChatTurns.WithLabelValues("error").Inc()
		return "", err
	}

	if err := s.memory.SaveTurn(ctx, token, memory.RoleAssistant, reply); err != nil {
		s.metrics.ChatTurns.WithLabelValues("storage_error").Inc()
		return "", fmt.Errorf("save assistant turn: %w", err)
	}
	s.metrics.ChatTurns.WithLabelValues(outcome).Inc()

	// Compaction is lazy and best-effort: evaluated once per turn cycle,
	// failure defers to the next qualifying turn and never blocks the reply.
	if err := s.memory.Compact(ctx, token); err != nil {
		s.metrics.CompactionRuns.WithLabelValues("error").Inc()
		log.Printf("chat: compaction deferred for session %s: %v", token, err)
	} else {
		s.metrics.CompactionRuns.WithLabelValues("ok").Inc()
	}

	return reply, nil
}

func (s *Service) respond(ctx context.Context, token, message string) (reply, outcome string, err error) {
	if s.carts.AwaitingInfo(token) && len(s.carts.Lines(token)) > 0 {
		reply, err = s.completeCheckout(ctx, token, message)
		return reply, "intent", err
	}

	if reply = s.orderIntentReply(ctx, token, message); reply != "" {
		return reply, "intent", nil
	}

	if containsAny(strings.ToLower(message), checkoutKeywords) {
		return s.checkoutPrompt(token), "intent", nil
	}

	reply, outcome, err = s.generateReply(ctx, token, message)
	return reply, outcome, err
}

// completeCheckout captures the customer's name and phone, persists the order
// and promotes the phone number to the session's durable identity.
func (s *Service) completeCheckout(ctx context.Context, token, message string) (string, error) {
	name, phone := orders.ExtractCustomerInfo(message)
	if name == "" || phone == "" {
		return askForInfoMessage, nil
	}

	order := orders.NewOrder(name, phone, s.carts.Lines(token))
	if err := s.orders.SaveOrder(ctx, order); err != nil {
		return "", fmt.Errorf("save order: %w", err)
	}
	s.metrics.OrdersPlaced.Inc()

	// The confirmed phone is the identity link: the customer's next session
	// recovers this conversation's compacted memory.
	if err := s.Associate(ctx, token, orders.NormalizePhone(phone)); err != nil {
		log.Printf("chat: identity association failed for session %s: %v", token, err)
	}

	s.carts.Clear(token)
	return orders.FormatConfirmation(order), nil
}

// orderIntentReply handles cart manipulation without touching the generation
// backend. Returns "" when no intent matched. Later checks override earlier
// ones so "cancel order" is a clear, not an add.
func (s *Service) orderIntentReply(ctx context.Context, token, message string) string {
	lower := strings.ToLower(message)
	var reply string

	if containsAny(lower, addKeywords) {
		if item, ok, err := s.menu.FindItem(ctx, message); err == nil && ok {
			s.carts.Add(token, cart.Line{
				Name:     item.Name,
				Category: item.Category,
				Price:    item.Price,
				Quantity: 1,
			})
			lines := s.carts.Lines(token)
			reply = fmt.Sprintf("✅ Added to cart:\n• 1x **%s** - Rs. %d\n\n🛒 **Cart:** %d item(s) | **Total: Rs. %d**\n\nWould you like to add more items, see the menu or deals, or proceed to checkout?",
				item.Name, int(item.Price), len(lines), int(cart.Total(lines)))
		}
	}

	if containsAny(lower, viewKeywords) {
		lines := s.carts.Lines(token)
		reply = cart.Format(lines)
		if len(lines) > 0 {
			reply += "\n\nTo confirm your order, please provide your **Name** and **Phone Number**."
		}
	}

	if containsAny(lower, clearKeywords) {
		s.carts.Clear(token)
		reply = "🗑️ Your cart has been cleared. Would you like to start a new order?"
	}

	return reply
}

func (s *Service) checkoutPrompt(token string) string {
	lines := s.carts.Lines(token)
	if len(lines) == 0 {
		return "🛒 Your cart is empty! Please add some items first. Would you like to see our menu or deals?"
	}
	s.carts.SetAwaitingInfo(token, true)
	return fmt.Sprintf("%s\n\n✅ Great! To complete your order, please provide:\n\n**Your Name**\n**Phone Number**\n\n_Example: My name is Ali, phone 03001234567_", cart.Format(lines))
}

func (s *Service) generateReply(ctx context.Context, token, message string) (string, string, error) {
	window, err := s.memory.BuildContextWindow(ctx, token)
	if err != nil {
		return "", "", fmt.Errorf("build context window: %w", err)
	}

	prompt := s.composePrompt(ctx, token, message)

	var reply string
	start := time.Now()
	err = s.retry.Do(ctx, func() error {
		var callErr error
		reply, callErr = s.generator.Generate(ctx, window, prompt)
		return callErr
	})
	s.metrics.ObserveGenerationLatency(time.Since(start))
	if err != nil {
		log.Printf("chat: generation failed for session %s: %v", token, err)
		return apologyMessage, "apology", nil
	}
	return reply, "generated", nil
}

// composePrompt merges the grounding fragments and cart state with the raw
// customer message. Fragment text is opaque: concatenated, never parsed.
func (s *Service) composePrompt(ctx context.Context, token, message string) string {
	grounding := s.fragments.Build(ctx, message)
	if lines := s.carts.Lines(token); len(lines) > 0 {
		grounding += "\n\n**Current Cart:**\n" + cart.Format(lines)
	}
	if strings.TrimSpace(grounding) == "" {
		return message
	}
	return fmt.Sprintf("**Context from database:**\n%s\n\n**Customer message:** %s\n\nPlease respond based on the context above. Be helpful and friendly!", grounding, message)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
