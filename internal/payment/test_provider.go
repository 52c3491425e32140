package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// maxTestIntents bounds how many synthetic intents are remembered.
const maxTestIntents = 10000

// TestProvider issues synthetic intents that verify as succeeded. It must
// only be selected by configuration, never as a fallback. Intents live in
// process memory; past the limit the oldest are forgotten and no longer verify.
type TestProvider struct {
	mu      sync.RWMutex
	intents map[string]*Intent
	order   []string
	limit   int
}

func NewTestProvider() *TestProvider {
	return &TestProvider{intents: make(map[string]*Intent), limit: maxTestIntents}
}

func (p *TestProvider) Name() string { return "test" }
func (p *TestProvider) IsTest() bool { return true }

func (p *TestProvider) CreateIntent(_ context.Context, amount int64, currency string, _ map[string]string) (*Intent, error) {
	id := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_test",
		Status:       StatusSucceeded,
		Amount:       amount,
		Currency:     currency,
	}

	p.mu.Lock()
	p.intents[id] = intent
	p.order = append(p.order, id)
	for len(p.order) > p.limit {
		delete(p.intents, p.order[0])
		p.order = p.order[1:]
	}
	p.mu.Unlock()

	c := *intent
	return &c, nil
}

func (p *TestProvider) GetIntent(_ context.Context, id string) (*Intent, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	intent, ok := p.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	c := *intent
	return &c, nil
}
