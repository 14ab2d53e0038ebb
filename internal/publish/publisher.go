package publish

import (
	"TCPSpectra/internal/config"
	"TCPSpectra/internal/model"
	"log"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
)

// Publisher publishes finished reports to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.PublisherConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish serializes the report to Protobuf and publishes it to the configured subject.
func (p *Publisher) Publish(report *model.Report) error {
	data, err := Marshal(report)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Marshal encodes a report into the wire format used on the subject.
func Marshal(report *model.Report) ([]byte, error) {
	s, err := Encode(report)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
