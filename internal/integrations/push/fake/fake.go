package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/krishn-cti/remit-go/internal/integrations/push"
)

// FakeClient — заглушка провайдера пушей для локального окружения и тестов.
// Детерминированно "теряет" часть токенов, чтобы best-effort ветки были живыми.
type FakeClient struct {
	mu   sync.Mutex
	sent []push.Message
}

func New() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Send(ctx context.Context, msg push.Message) error {
	if msg.Token == "" {
		return fmt.Errorf("push token is empty")
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(msg.Token))

	// каждый десятый токен считаем незарегистрированным
	if h.Sum32()%10 == 0 {
		return fmt.Errorf("fcm delivery failed: NotRegistered")
	}

	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()
	return nil
}

// Sent возвращает копию доставленных сообщений, по порядку отправки.
func (f *FakeClient) Sent() []push.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]push.Message, len(f.sent))
	copy(out, f.sent)
	return out
}
