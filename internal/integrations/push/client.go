package push

import "context"

// Message — пуш в адрес одного устройства.
type Message struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type Client interface {
	Send(ctx context.Context, msg Message) error
}
