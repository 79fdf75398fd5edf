package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/jadwal-api/internal/dto"
	"github.com/noah-isme/jadwal-api/internal/observability"
)

const historyBufferSize = 16

// HistoryFeed fans appended log entries out to connected history viewers, across nodes via NATS.
type HistoryFeed interface {
	ActionLogPublisher
	Subscribe(tenantID string) (<-chan dto.ActionLogResponse, func())
	Start(ctx context.Context)
}

type historyEvent struct {
	Source string                `json:"source"`
	Entry  dto.ActionLogResponse `json:"entry"`
	SentAt time.Time             `json:"sent_at"`
}

type historyFeed struct {
	nats        *nats.Conn
	subjectBase string
	logger      zerolog.Logger
	nodeID      string

	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ActionLogResponse]struct{}
}

// NewHistoryFeed constructs the feed. natsConn may be nil for single-node deployments.
func NewHistoryFeed(natsConn *nats.Conn, subjectBase string, logger zerolog.Logger) HistoryFeed {
	return &historyFeed{
		nats:        natsConn,
		subjectBase: strings.Trim(strings.ReplaceAll(subjectBase, ":", "."), "."),
		logger:      logger.With().Str("component", "history_feed").Logger(),
		nodeID:      uuid.NewString(),
		subscribers: make(map[string]map[chan dto.ActionLogResponse]struct{}),
	}
}

func (f *historyFeed) Start(ctx context.Context) {
	if f.nats == nil || f.subjectBase == "" {
		return
	}

	sub, err := f.nats.Subscribe(f.subjectBase+".*.actions", func(msg *nats.Msg) {
		f.handleEvent(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats history subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain history nats subscription")
		}
	}()
}

func (f *historyFeed) Publish(_ context.Context, entry dto.ActionLogResponse) {
	f.broadcast(entry)

	if f.nats == nil || f.subjectBase == "" {
		return
	}

	payload, err := json.Marshal(historyEvent{Source: f.nodeID, Entry: entry, SentAt: time.Now().UTC()})
	if err != nil {
		f.logger.Warn().Err(err).Msg("failed to encode history event")
		return
	}
	if err := f.nats.Publish(f.subject(entry.ClassID), payload); err != nil {
		f.logger.Warn().Err(err).Str("class_id", entry.ClassID).Msg("failed to publish history event")
	}
}

func (f *historyFeed) Subscribe(tenantID string) (<-chan dto.ActionLogResponse, func()) {
	channel := make(chan dto.ActionLogResponse, historyBufferSize)

	f.mu.Lock()
	if _, exists := f.subscribers[tenantID]; !exists {
		f.subscribers[tenantID] = make(map[chan dto.ActionLogResponse]struct{})
	}
	f.subscribers[tenantID][channel] = struct{}{}
	f.mu.Unlock()
	observability.HistoryStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.mu.Lock()
			if subscribers, ok := f.subscribers[tenantID]; ok {
				delete(subscribers, channel)
				close(channel)
				if len(subscribers) == 0 {
					delete(f.subscribers, tenantID)
				}
			}
			f.mu.Unlock()
			observability.HistoryStreamClients().Dec()
		})
	}

	return channel, cleanup
}

func (f *historyFeed) handleEvent(payload []byte) {
	var event historyEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		f.logger.Warn().Err(err).Msg("invalid history event payload")
		return
	}
	if event.Source == f.nodeID {
		return
	}
	f.broadcast(event.Entry)
}

// broadcast drops the entry for subscribers whose buffer is full.
func (f *historyFeed) broadcast(entry dto.ActionLogResponse) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers[entry.ClassID] {
		select {
		case ch <- entry:
		default:
		}
	}
}

func (f *historyFeed) subject(tenantID string) string {
	return f.subjectBase + "." + strings.ReplaceAll(tenantID, ".", "_") + ".actions"
}
