// Package generator fabricates random tracker collections for load and
// integration testing of the collector.
package generator

import (
	"bytes"
	"crypto/md5"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/telhawk-systems/trackgen/pkg/payload"
)

// Value ranges for generated fields. All bounds are inclusive.
const (
	MaxRandomPayloads = 25

	MinEventNumber = 10000
	MaxEventNumber = 99999
	MaxNr          = 1000
	MaxUserID      = 99000000
	MaxOctet       = 255

	MaxMajorVersion = 5
	MaxMinorVersion = 50
	MaxClientSeed   = 1000000

	ClientIDLength = 20
	EventPrefix    = "Event."
)

// Options controls a Generator.
type Options struct {
	// RandomPayload emits 1..MaxRandomPayloads payloads per collection instead of exactly one.
	RandomPayload bool

	// Seed makes runs reproducible. Zero seeds from crypto/rand.
	Seed int64

	// Clock supplies Payload.At. Defaults to time.Now.
	Clock func() time.Time
}

// Generator builds collections from its own random source.
// A Generator is not safe for concurrent use unless its faker is.
type Generator struct {
	faker         *gofakeit.Faker
	randomPayload bool
	clock         func() time.Time
}

// New returns a Generator with a faker seeded from opts.Seed.
func New(opts Options) *Generator {
	return NewWithFaker(gofakeit.New(opts.Seed), opts)
}

// NewWithFaker returns a Generator drawing from faker. opts.Seed is ignored.
func NewWithFaker(faker *gofakeit.Faker, opts Options) *Generator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Generator{
		faker:         faker,
		randomPayload: opts.RandomPayload,
		clock:         clock,
	}
}

// Generate returns a new collection with random identity fields and payloads.
func (g *Generator) Generate() *payload.Collection {
	c := &payload.Collection{}
	g.fillIdentity(c)

	n := g.PayloadCount()
	for i := 0; i < n; i++ {
		c.Append(g.Payload())
	}
	return c
}

// PayloadCount draws how many payloads the next collection gets.
func (g *Generator) PayloadCount() int {
	if g.randomPayload {
		return g.faker.Number(1, MaxRandomPayloads)
	}
	return 1
}

// Payload returns one random event record.
func (g *Generator) Payload() *payload.Payload {
	return &payload.Payload{
		At:        uint64(g.clock().Unix()),
		Event:     fmt.Sprintf("%s%d", EventPrefix, g.faker.Number(MinEventNumber, MaxEventNumber)),
		Nr:        uint32(g.faker.Number(1, MaxNr)),
		UserID:    uint32(g.faker.Number(1, MaxUserID)),
		IP:        g.ip(),
		IsTesting: true,
	}
}

func (g *Generator) fillIdentity(c *payload.Collection) {
	// A 16-byte reader always satisfies NewRandomFromReader.
	id := uuid.Must(uuid.NewRandomFromReader(g.uuidEntropy()))
	deviceHash := sha256.Sum256([]byte(id.String()))
	clientHash := md5.Sum([]byte(strconv.Itoa(g.faker.Number(1, MaxClientSeed))))

	c.DeviceID = hex.EncodeToString(deviceHash[:])
	c.ClientID = hex.EncodeToString(clientHash[:])[:ClientIDLength]
	c.SystemVersion = g.version()
	c.ProductVersion = g.version()
	c.Session = c.ComputeSession()
	c.System = g.faker.RandomString(payload.Systems)
}

// uuidEntropy draws UUID bytes through Uint64 rather than Rand.Read, which is
// not safe to share between goroutines even with a locked source.
func (g *Generator) uuidEntropy() io.Reader {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], g.faker.Rand.Uint64())
	binary.BigEndian.PutUint64(buf[8:], g.faker.Rand.Uint64())
	return bytes.NewReader(buf[:])
}

func (g *Generator) version() string {
	return fmt.Sprintf("%d.%d", g.faker.Number(1, MaxMajorVersion), g.faker.Number(1, MaxMinorVersion))
}

func (g *Generator) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.octet(), g.octet(), g.octet(), g.octet())
}

func (g *Generator) octet() int {
	return g.faker.Number(1, MaxOctet)
}
