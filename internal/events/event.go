// Package events flattens collections into one JSON record per payload, the
// shape the collector writes to its storage backends.
package events

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/telhawk-systems/trackgen/pkg/payload"
)

// IsoLayout is the timestamp format of Event.At.
const IsoLayout = "2006-01-02T15:04:05"

// Event is a single payload merged with its collection's identity fields.
type Event struct {
	DeviceID       string `json:"device_id" yaml:"device_id"`
	ClientID       string `json:"client_id" yaml:"client_id"`
	Session        string `json:"session" yaml:"session"`
	Nr             uint32 `json:"nr" yaml:"nr"`
	SystemVersion  string `json:"system_version" yaml:"system_version"`
	ProductVersion string `json:"product_version" yaml:"product_version"`
	At             string `json:"at" yaml:"at"`
	Event          string `json:"event" yaml:"event"`
	System         string `json:"system,omitempty" yaml:"system,omitempty"`
	ProductGitHash string `json:"product_git_hash,omitempty" yaml:"product_git_hash,omitempty"`
	UserID         uint32 `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	IP             string `json:"ip,omitempty" yaml:"ip,omitempty"`
	Parameters     string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	IsTesting      bool   `json:"is_testing" yaml:"is_testing"`
}

// ConvertIsoformat renders epoch seconds as a UTC IsoLayout string.
func ConvertIsoformat(at uint64) string {
	return time.Unix(int64(at), 0).UTC().Format(IsoLayout)
}

// New builds the event for p within meta.
func New(meta *payload.Collection, p *payload.Payload) *Event {
	return &Event{
		DeviceID:       meta.DeviceID,
		ClientID:       meta.ClientID,
		Session:        meta.Session,
		Nr:             p.Nr,
		SystemVersion:  meta.SystemVersion,
		ProductVersion: meta.ProductVersion,
		At:             ConvertIsoformat(p.At),
		Event:          p.Event,
		System:         meta.System,
		ProductGitHash: meta.ProductGitHash,
		UserID:         p.UserID,
		IP:             p.IP,
		Parameters:     p.Parameters,
		IsTesting:      p.IsTesting,
	}
}

// FromCollection returns one event per payload, in payload order.
func FromCollection(c *payload.Collection) []*Event {
	out := make([]*Event, 0, len(c.Payloads))
	for _, p := range c.Payloads {
		out = append(out, New(c, p))
	}
	return out
}

// JSON encodes the event as a single newline-terminated line.
func (e *Event) JSON() ([]byte, error) {
	var b bytes.Buffer
	if err := json.NewEncoder(&b).Encode(e); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// JSONLines encodes events back to back, one per line.
func JSONLines(events []*Event) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}
