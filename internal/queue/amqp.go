package queue

import (
	"log"

	"github.com/streadway/amqp"
)

const maxDeliveries = 3

// AMQPQueue is the durable RabbitMQ-backed queue shared by the server
// (publisher) and the worker (consumer).
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPQueue(url string) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPQueue{conn: conn, ch: ch}, nil
}

func (q *AMQPQueue) Close() {
	q.ch.Close()
	q.conn.Close()
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Publish writes one persistent message so a pending tick survives broker
// restarts.
func (q *AMQPQueue) Publish(topic string, body []byte) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",    // exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes the topic with manual acks. A failing handler is
// requeued up to maxDeliveries via the x-retry-count header, then dropped,
// so a poisoned tick cannot retry forever.
func (q *AMQPQueue) Subscribe(topic string, handler func(body []byte) error) error {
	if _, err := q.declare(topic); err != nil {
		return err
	}
	msgs, err := q.ch.Consume(
		topic,
		"",    // consumer
		false, // autoAck = false for reliability
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				log.Println("⚠️ failed to process message:", err)
				var retryCount int32
				if v, ok := d.Headers["x-retry-count"].(int32); ok {
					retryCount = v
				}
				if retryCount < maxDeliveries {
					// Republish with the bumped counter; a plain Nack
					// requeue would lose the header.
					headers := amqp.Table{"x-retry-count": retryCount + 1}
					if err := q.ch.Publish("", topic, false, false, amqp.Publishing{
						ContentType:  "application/json",
						DeliveryMode: amqp.Persistent,
						Headers:      headers,
						Body:         d.Body,
					}); err != nil {
						log.Println("⚠️ failed to requeue message:", err)
					}
				} else {
					log.Printf("Job permanently failed after %d attempts: %s\n", maxDeliveries, d.Body)
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

var _ Queue = (*AMQPQueue)(nil)
