package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/energy-server/energy-server/internal/service"
)

// NATSSubscriber ingests meter readings published on the message bus.
// Meters (or the collectors polling them) publish to
// meters.<serial>.reading; readings land as consumption records without
// going through the REST API.
type NATSSubscriber struct {
	nc      *nats.Conn
	service *service.Service
	subs    []*nats.Subscription
}

// NewNATSSubscriber creates NATS subscriber
func NewNATSSubscriber(nc *nats.Conn, svc *service.Service) *NATSSubscriber {
	return &NATSSubscriber{
		nc:      nc,
		service: svc,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start starts subscriptions and blocks until the context is cancelled.
func (s *NATSSubscriber) Start(ctx context.Context) error {
	sub, err := s.nc.Subscribe("meters.*.reading", s.handleMeterReading)
	if err != nil {
		return fmt.Errorf("subscribe meter readings: %w", err)
	}
	s.subs = append(s.subs, sub)

	log.Info().
		Int("subscriptions", len(s.subs)).
		Msg("NATS subscriber started")

	<-ctx.Done()

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}

	return ctx.Err()
}

// handleMeterReading handles a published meter reading
func (s *NATSSubscriber) handleMeterReading(msg *nats.Msg) {
	log.Debug().
		Str("subject", msg.Subject).
		Int("size", len(msg.Data)).
		Msg("Received meter reading")

	var reading struct {
		SerialNumber   string  `json:"serialNumber"`
		PeriodStart    string  `json:"periodStart"`
		PeriodEnd      string  `json:"periodEnd"`
		ConsumptionKWh float64 `json:"consumptionKwh"`
	}

	if err := json.Unmarshal(msg.Data, &reading); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal meter reading")
		return
	}

	periodStart, err := time.Parse("2006-01-02", reading.PeriodStart)
	if err != nil {
		log.Error().Err(err).Str("serial", reading.SerialNumber).Msg("Invalid reading period start")
		return
	}
	periodEnd, err := time.Parse("2006-01-02", reading.PeriodEnd)
	if err != nil {
		log.Error().Err(err).Str("serial", reading.SerialNumber).Msg("Invalid reading period end")
		return
	}

	ctx := context.Background()
	record, err := s.service.IngestReading(ctx, reading.SerialNumber, periodStart, periodEnd, reading.ConsumptionKWh)
	if err != nil {
		log.Error().
			Err(err).
			Str("serial", reading.SerialNumber).
			Msg("Failed to ingest meter reading")
		return
	}

	log.Info().
		Str("serial", reading.SerialNumber).
		Str("recordID", record.ID.String()).
		Float64("kwh", reading.ConsumptionKWh).
		Msg("Meter reading ingested")
}
