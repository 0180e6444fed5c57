package payload

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when a body cannot be decoded.
var ErrMalformed = errors.New("malformed payload body")

// Field numbers from payload.proto.
const (
	payloadAt         protowire.Number = 1
	payloadEvent      protowire.Number = 2
	payloadNr         protowire.Number = 3
	payloadUserID     protowire.Number = 4
	payloadIP         protowire.Number = 5
	payloadParameters protowire.Number = 6
	payloadIsTesting  protowire.Number = 7

	collectionDeviceID       protowire.Number = 1
	collectionClientID       protowire.Number = 2
	collectionSession        protowire.Number = 3
	collectionSystemVersion  protowire.Number = 4
	collectionProductVersion protowire.Number = 5
	collectionSystem         protowire.Number = 6
	collectionProductGitHash protowire.Number = 7
	collectionPayloads       protowire.Number = 8
)

// Marshal encodes c in field-number order. Required fields are always written,
// optional ones only when set, so equal collections encode to equal bytes.
func Marshal(c *Collection) ([]byte, error) {
	if c == nil {
		return nil, errors.New("marshal: nil collection")
	}

	var b []byte
	b = appendString(b, collectionDeviceID, c.DeviceID)
	b = appendString(b, collectionClientID, c.ClientID)
	b = appendString(b, collectionSession, c.Session)
	b = appendString(b, collectionSystemVersion, c.SystemVersion)
	b = appendString(b, collectionProductVersion, c.ProductVersion)
	b = appendOptionalString(b, collectionSystem, c.System)
	b = appendOptionalString(b, collectionProductGitHash, c.ProductGitHash)

	for i, p := range c.Payloads {
		if p == nil {
			return nil, fmt.Errorf("marshal: nil payload at index %d", i)
		}
		b = protowire.AppendTag(b, collectionPayloads, protowire.BytesType)
		b = protowire.AppendBytes(b, marshalPayload(p))
	}
	return b, nil
}

func marshalPayload(p *Payload) []byte {
	var b []byte
	b = protowire.AppendTag(b, payloadAt, protowire.VarintType)
	b = protowire.AppendVarint(b, p.At)
	b = appendString(b, payloadEvent, p.Event)
	b = protowire.AppendTag(b, payloadNr, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Nr))
	if p.UserID != 0 {
		b = protowire.AppendTag(b, payloadUserID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(p.UserID))
	}
	b = appendOptionalString(b, payloadIP, p.IP)
	b = appendOptionalString(b, payloadParameters, p.Parameters)
	if p.IsTesting {
		b = protowire.AppendTag(b, payloadIsTesting, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendOptionalString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	return appendString(b, num, s)
}

// Unmarshal decodes a body produced by Marshal or any encoder of payload.proto.
// Unknown fields are skipped. A missing required field is malformed.
func Unmarshal(b []byte) (*Collection, error) {
	c := &Collection{}
	var seen fieldSet
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("collection tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == collectionPayloads && typ == protowire.BytesType:
			raw, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return nil, malformed("payloads", protowire.ParseError(m))
			}
			p, err := unmarshalPayload(raw)
			if err != nil {
				return nil, err
			}
			c.Payloads = append(c.Payloads, p)
			n = m
		case num >= collectionDeviceID && num <= collectionProductGitHash && typ == protowire.BytesType:
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, malformed(fmt.Sprintf("collection field %d", num), protowire.ParseError(m))
			}
			c.setString(num, s)
			seen.add(num)
			n = m
		case num >= collectionDeviceID && num <= collectionPayloads:
			return nil, malformed(fmt.Sprintf("collection field %d", num), fmt.Errorf("unexpected wire type %d", typ))
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(fmt.Sprintf("unknown collection field %d", num), protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	if err := seen.require("collection", collectionProductVersion); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collection) setString(num protowire.Number, s string) {
	switch num {
	case collectionDeviceID:
		c.DeviceID = s
	case collectionClientID:
		c.ClientID = s
	case collectionSession:
		c.Session = s
	case collectionSystemVersion:
		c.SystemVersion = s
	case collectionProductVersion:
		c.ProductVersion = s
	case collectionSystem:
		c.System = s
	case collectionProductGitHash:
		c.ProductGitHash = s
	}
}

func unmarshalPayload(b []byte) (*Payload, error) {
	p := &Payload{}
	var seen fieldSet
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("payload tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch num {
		case payloadAt, payloadNr, payloadUserID, payloadIsTesting:
			if typ != protowire.VarintType {
				return nil, malformed(fmt.Sprintf("payload field %d", num), fmt.Errorf("unexpected wire type %d", typ))
			}
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return nil, malformed(fmt.Sprintf("payload field %d", num), protowire.ParseError(m))
			}
			switch num {
			case payloadAt:
				p.At = v
			case payloadNr:
				p.Nr = uint32(v)
			case payloadUserID:
				p.UserID = uint32(v)
			case payloadIsTesting:
				p.IsTesting = protowire.DecodeBool(v)
			}
			seen.add(num)
			n = m
		case payloadEvent, payloadIP, payloadParameters:
			if typ != protowire.BytesType {
				return nil, malformed(fmt.Sprintf("payload field %d", num), fmt.Errorf("unexpected wire type %d", typ))
			}
			s, m := protowire.ConsumeString(b)
			if m < 0 {
				return nil, malformed(fmt.Sprintf("payload field %d", num), protowire.ParseError(m))
			}
			switch num {
			case payloadEvent:
				p.Event = s
			case payloadIP:
				p.IP = s
			case payloadParameters:
				p.Parameters = s
			}
			seen.add(num)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(fmt.Sprintf("unknown payload field %d", num), protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	if err := seen.require("payload", payloadNr); err != nil {
		return nil, err
	}
	return p, nil
}

// fieldSet records which known field numbers were decoded.
type fieldSet uint64

func (s *fieldSet) add(num protowire.Number) {
	*s |= 1 << uint(num)
}

// require reports the first of fields 1..last that was not decoded.
func (s fieldSet) require(msg string, last protowire.Number) error {
	for num := protowire.Number(1); num <= last; num++ {
		if s&(1<<uint(num)) == 0 {
			return malformed(msg, fmt.Errorf("required field %d not set", num))
		}
	}
	return nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
