//go:build integration

package infra

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/movie-review/services/auth-service/internal/infrastructure/messaging/rabbitmq"
)

// OTPQueue is a server-named, exclusive queue bound to the OTP routing keys.
type OTPQueue struct {
	ch   *amqp.Channel
	msgs <-chan amqp.Delivery
}

// BindOTPQueue declares the exchange and a throwaway queue that catches every auth.otp.* event.
func BindOTPQueue(t *testing.T, conn *amqp.Connection, exchange string) *OTPQueue {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil))

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "auth.otp.#", exchange, false, nil))

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	return &OTPQueue{ch: ch, msgs: msgs}
}

// Next waits for the next OTP event and returns it with its routing key.
func (q *OTPQueue) Next(wait time.Duration) (rabbitmq.OTPRequestedEvent, string, error) {
	select {
	case m, ok := <-q.msgs:
		if !ok {
			return rabbitmq.OTPRequestedEvent{}, "", fmt.Errorf("otp queue closed")
		}
		var ev rabbitmq.OTPRequestedEvent
		if err := json.Unmarshal(m.Body, &ev); err != nil {
			return ev, m.RoutingKey, fmt.Errorf("decode otp event: %w", err)
		}
		return ev, m.RoutingKey, nil
	case <-time.After(wait):
		return rabbitmq.OTPRequestedEvent{}, "", fmt.Errorf("timeout waiting for otp event")
	}
}

// MustNext is Next that fails the test.
func (q *OTPQueue) MustNext(t *testing.T) (rabbitmq.OTPRequestedEvent, string) {
	t.Helper()
	ev, key, err := q.Next(3 * time.Second)
	require.NoError(t, err)
	return ev, key
}
