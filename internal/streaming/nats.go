package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"scamguard-lab/internal/config"
	"scamguard-lab/internal/domain/models"
	"scamguard-lab/pkg/logger"
)

// ErrNotConnected is returned when publishing without a live connection
var ErrNotConnected = errors.New("NATS not connected")

// NATSPublisher publishes scan events to NATS JetStream
type NATSPublisher struct {
	conn          *nats.Conn
	js            jetstream.JetStream
	subjectPrefix string
	logger        *logger.Logger

	mu        sync.RWMutex
	connected bool
}

// NewNATSPublisher connects to NATS and ensures the scan stream exists
func NewNATSPublisher(ctx context.Context, cfg config.NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	log = log.WithComponent("nats")

	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "SCAMGUARD_SCANS"
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "scans"
	}

	log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("connecting to NATS")

	conn, err := nats.Connect(cfg.URL,
		nats.Name("scamguard-lab"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "ScamGuard scan results",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxMsgs:     1_000_000,
		MaxBytes:    256 * 1024 * 1024,
		Discard:     jetstream.DiscardOld,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	log.Info().Str("stream", stream.CachedInfo().Config.Name).Msg("NATS stream ready")

	return &NATSPublisher{
		conn:          conn,
		js:            js,
		subjectPrefix: cfg.SubjectPrefix,
		logger:        log,
		connected:     true,
	}, nil
}

// Name identifies the publisher as a scan sink
func (p *NATSPublisher) Name() string {
	return "nats"
}

// Close drains and closes the NATS connection
func (p *NATSPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		if err := p.conn.Drain(); err != nil {
			p.conn.Close()
		}
		p.connected = false
	}
}

// IsConnected returns whether NATS is connected
func (p *NATSPublisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn.IsConnected()
}

// Ping reports an error when the connection is down
func (p *NATSPublisher) Ping(_ context.Context) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// RecordScan publishes the scan as a ScanEvent
func (p *NATSPublisher) RecordScan(ctx context.Context, log *models.ScanLog) error {
	if !p.IsConnected() {
		return ErrNotConnected
	}

	event := NewScanEvent(log)
	subject := ScanSubject(p.subjectPrefix, event)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// message ID lets JetStream drop duplicate publishes of one scan
	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(event.ID.String())); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug().
		Str("subject", subject).
		Str("scan_id", event.ID.String()).
		Str("risk_level", string(event.RiskLevel)).
		Msg("published scan event")

	return nil
}

// ScanSubject returns the subject for an event.
// Hierarchy: <prefix>.<risk_level>.<scan_type>, e.g. scans.high.screen_share
func ScanSubject(prefix string, event *ScanEvent) string {
	risk := string(event.RiskLevel)
	if risk == "" {
		risk = "unknown"
	}
	scanType := strings.ReplaceAll(string(event.ScanType), ".", "_")
	if scanType == "" {
		scanType = "unknown"
	}
	return fmt.Sprintf("%s.%s.%s", prefix, risk, scanType)
}
