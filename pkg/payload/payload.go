// Package payload defines the tracker upload records and their binary encoding.
//
// The layout follows payload.proto in this directory. A Collection carries the
// identity of one device session and an ordered batch of Payload events.
package payload

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
)

// Platform names accepted in Collection.System.
const (
	SystemOSX     = "OSX"
	SystemWindows = "Windows"
	SystemIOS     = "iOS"
	SystemAndroid = "Android"
)

// Systems lists every platform name in a stable order.
var Systems = []string{SystemOSX, SystemWindows, SystemIOS, SystemAndroid}

// ErrSessionMismatch is returned when a collection's session does not match its identity fields.
var ErrSessionMismatch = errors.New("collection session does not match identity fields")

// Collection is one upload from a client device.
type Collection struct {
	DeviceID       string     `json:"device_id" yaml:"device_id"`
	ClientID       string     `json:"client_id" yaml:"client_id"`
	Session        string     `json:"session" yaml:"session"`
	SystemVersion  string     `json:"system_version" yaml:"system_version"`
	ProductVersion string     `json:"product_version" yaml:"product_version"`
	System         string     `json:"system,omitempty" yaml:"system,omitempty"`
	ProductGitHash string     `json:"product_git_hash,omitempty" yaml:"product_git_hash,omitempty"`
	Payloads       []*Payload `json:"payloads" yaml:"payloads"`
}

// Payload is a single tracked event.
type Payload struct {
	At         uint64 `json:"at" yaml:"at"`
	Event      string `json:"event" yaml:"event"`
	Nr         uint32 `json:"nr" yaml:"nr"`
	UserID     uint32 `json:"user_id,omitempty" yaml:"user_id,omitempty"`
	IP         string `json:"ip,omitempty" yaml:"ip,omitempty"`
	Parameters string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	IsTesting  bool   `json:"is_testing" yaml:"is_testing"`
}

// Append adds payloads to the end of the batch, keeping insertion order.
func (c *Collection) Append(p ...*Payload) {
	c.Payloads = append(c.Payloads, p...)
}

// ComputeSession recomputes the session hash from the identity fields.
func (c *Collection) ComputeSession() string {
	return Session(c.DeviceID, c.ClientID, c.SystemVersion, c.ProductVersion)
}

// VerifySession checks that c.Session was derived from c's identity fields.
func VerifySession(c *Collection) error {
	if c.ComputeSession() != c.Session {
		return ErrSessionMismatch
	}
	return nil
}

// Session returns the hex MD5 of the identity fields joined with ":".
func Session(deviceID, clientID, systemVersion, productVersion string) string {
	h := md5.New()
	io.WriteString(h, deviceID)
	io.WriteString(h, ":")
	io.WriteString(h, clientID)
	io.WriteString(h, ":")
	io.WriteString(h, systemVersion)
	io.WriteString(h, ":")
	io.WriteString(h, productVersion)
	return hex.EncodeToString(h.Sum(nil))
}
