package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"mystops/internal/arrivals"
)

const DefaultSubjectPrefix = "arrivals"

type NATSPublisher struct {
	nc          natsConn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

// natsConn is the subset of *nats.Conn the publisher uses.
type natsConn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("mystops"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return newPublisher(nc, prefix, logSubjects, m), nil
}

func newPublisher(nc natsConn, prefix string, logSubjects bool, m PublisherMetrics) *NATSPublisher {
	if strings.TrimSpace(prefix) == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix, logSubjects: logSubjects, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

// StopMessage is the payload published for each stop on a board.
type StopMessage struct {
	UpdateTime string        `json:"updateTime"`
	Stop       arrivals.Stop `json:"stop"`
}

// PublishBoard publishes every stop of the board on <prefix>.<stopID>.
// All stops are attempted; the returned error joins the failures.
func (p *NATSPublisher) PublishBoard(b *arrivals.Board) error {
	var errs []error
	for _, s := range b.Stops {
		msg := StopMessage{UpdateTime: b.UpdateTime, Stop: s}
		if err := p.publish(p.Subject(s.ID), msg); err != nil {
			errs = append(errs, fmt.Errorf("publish stop %d: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (p *NATSPublisher) Subject(stopID int) string {
	return fmt.Sprintf("%s.%s", subjectToken(p.prefix), subjectToken(strconv.Itoa(stopID)))
}

func (p *NATSPublisher) publish(subject string, msg any) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
