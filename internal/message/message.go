// Package message pairs a generated collection with its serialized body and signature.
package message

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/telhawk-systems/trackgen/internal/generator"
	"github.com/telhawk-systems/trackgen/internal/metrics"
	"github.com/telhawk-systems/trackgen/internal/signature"
	"github.com/telhawk-systems/trackgen/pkg/payload"
)

// Options configures New.
type Options struct {
	Generator generator.Options

	// Faker overrides the generator's own random source when set.
	Faker *gofakeit.Faker

	// Time is the signing timestamp. Zero selects signature.DefaultTime.
	Time int64

	Metrics *metrics.Metrics
}

// Message is a populated collection ready to be serialized and signed.
type Message struct {
	Collection *payload.Collection
	Time       int64

	signer  signature.Signer
	metrics *metrics.Metrics
}

// New generates a collection immediately and fixes the signing time.
func New(opts Options) *Message {
	var g *generator.Generator
	if opts.Faker != nil {
		g = generator.NewWithFaker(opts.Faker, opts.Generator)
	} else {
		g = generator.New(opts.Generator)
	}
	c := g.Generate()
	opts.Metrics.ObserveCollection(c)
	return FromCollection(c, opts.Time, opts.Metrics)
}

// FromCollection wraps an existing collection, e.g. one decoded from a body file.
func FromCollection(c *payload.Collection, t int64, m *metrics.Metrics) *Message {
	signer := signature.New(t)
	return &Message{
		Collection: c,
		Time:       signer.Time,
		signer:     signer,
		metrics:    m,
	}
}

// Body returns the serialized collection. Metrics are recorded by Request only.
func (m *Message) Body() ([]byte, error) {
	b, err := payload.Marshal(m.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize collection: %w", err)
	}
	return b, nil
}

// Signature returns the base64 signature of Body for sharedSecret.
func (m *Message) Signature(sharedSecret string) (string, error) {
	_, headers, err := m.Request(sharedSecret)
	if err != nil {
		return "", err
	}
	return headers[signature.HeaderSignature], nil
}

// Headers returns the collector request headers for this message.
func (m *Message) Headers(sharedSecret string) (map[string]string, error) {
	_, headers, err := m.Request(sharedSecret)
	return headers, err
}

// Request serializes the collection once and returns the body with its headers.
func (m *Message) Request(sharedSecret string) ([]byte, map[string]string, error) {
	body, err := m.Body()
	if err != nil {
		return nil, nil, err
	}
	m.metrics.ObserveBody(len(body))
	m.metrics.ObserveSignature()
	return body, map[string]string{
		signature.HeaderTime:      m.signer.Timestamp(),
		signature.HeaderSignature: m.signer.Sign(body, sharedSecret),
	}, nil
}
