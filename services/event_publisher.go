package services

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/table-reservation/workflow"
)

const ReservationConfirmedQueue = "reservation.confirmed"

// ReservationConfirmedEvent is the message published for every confirmed
// reservation. Guest notes stay out of it.
type ReservationConfirmedEvent struct {
	ReservationID string    `json:"reservation_id"`
	TableID       uint      `json:"table_id"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	PartySize     int       `json:"party_size"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// AMQPPublisher opens a connection per publish and declares the queue as
// durable before sending a persistent message.
type AMQPPublisher struct {
	URL string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url}
}

func (p *AMQPPublisher) Publish(ctx context.Context, queue string, body []byte) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// PublishingSink records through Sink and then announces the reservation. A
// failed publish is logged and never fails the confirmation.
type PublishingSink struct {
	Sink      workflow.BookingSink
	Publisher Publisher
	Logger    logrus.FieldLogger
}

func NewPublishingSink(sink workflow.BookingSink, pub Publisher) *PublishingSink {
	return &PublishingSink{Sink: sink, Publisher: pub, Logger: logrus.StandardLogger()}
}

func (s *PublishingSink) RecordReservation(ctx context.Context, r workflow.ConfirmedReservation) error {
	if err := s.Sink.RecordReservation(ctx, r); err != nil {
		return err
	}

	body, err := json.Marshal(ReservationConfirmedEvent{
		ReservationID: r.ID,
		TableID:       r.TableID,
		Date:          r.Date,
		Time:          r.Time,
		PartySize:     r.PartySize,
		ConfirmedAt:   r.ConfirmedAt,
	})
	if err != nil {
		s.Logger.WithError(err).Warn("marshal reservation event failed")
		return nil
	}

	if err := s.Publisher.Publish(ctx, ReservationConfirmedQueue, body); err != nil {
		s.Logger.WithFields(logrus.Fields{
			"reservation_id": r.ID,
			"queue":          ReservationConfirmedQueue,
		}).WithError(err).Warn("publish reservation event failed")
	}
	return nil
}
