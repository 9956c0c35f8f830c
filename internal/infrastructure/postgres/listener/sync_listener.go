package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	// ChannelSyncRequested carries {"item_id": "..."} payloads from pg_notify.
	ChannelSyncRequested = "item_sync_requested"
	reconnectInterval    = 5 * time.Second
	pingInterval         = 90 * time.Second
)

// SyncRequest represents the payload from PostgreSQL NOTIFY
type SyncRequest struct {
	ItemID string `json:"item_id"`
}

// SyncQueuer accepts item syncs for background processing.
type SyncQueuer interface {
	QueueSync(itemID string) bool
}

// SyncListener turns notifications on ChannelSyncRequested into queued item syncs
type SyncListener struct {
	connStr    string
	queue      SyncQueuer
	shutdownCh chan struct{}
	done       chan struct{}
}

func NewSyncListener(connStr string, queue SyncQueuer) *SyncListener {
	return &SyncListener{
		connStr:    connStr,
		queue:      queue,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start begins listening for notifications in a background goroutine
func (l *SyncListener) Start(ctx context.Context) {
	go l.listen(ctx)
	log.Info().Str("channel", ChannelSyncRequested).Msg("Sync request listener started")
}

// Stop gracefully shuts down the listener
func (l *SyncListener) Stop() {
	close(l.shutdownCh)
	<-l.done
	log.Info().Msg("Sync request listener stopped")
}

func (l *SyncListener) listen(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		default:
			l.connectAndListen(ctx)
		}

		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(reconnectInterval):
			log.Info().Msg("Reconnecting to PostgreSQL for notifications")
		}
	}
}

func (l *SyncListener) connectAndListen(ctx context.Context) {
	listener := pq.NewListener(l.connStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			log.Info().Msg("Connected to PostgreSQL notification channel")
		case pq.ListenerEventDisconnected:
			log.Warn().Err(err).Msg("Disconnected from PostgreSQL notification channel")
		case pq.ListenerEventReconnected:
			log.Info().Msg("Reconnected to PostgreSQL notification channel")
		case pq.ListenerEventConnectionAttemptFailed:
			log.Error().Err(err).Msg("Notification channel connection attempt failed")
		}
	})
	defer listener.Close()

	if err := listener.Listen(ChannelSyncRequested); err != nil {
		log.Error().Str("channel", ChannelSyncRequested).Err(err).Msg("Failed to listen on channel")
		return
	}

	for {
		select {
		case <-l.shutdownCh:
			return
		case <-ctx.Done():
			return
		case n := <-listener.Notify:
			if n == nil {
				// Connection lost, break to reconnect
				return
			}
			l.handleNotification(n)
		case <-time.After(pingInterval):
			go func() {
				if err := listener.Ping(); err != nil {
					log.Warn().Err(err).Msg("Listener ping failed")
				}
			}()
		}
	}
}

func (l *SyncListener) handleNotification(n *pq.Notification) {
	var req SyncRequest
	if err := json.Unmarshal([]byte(n.Extra), &req); err != nil {
		log.Warn().Str("channel", n.Channel).Err(err).Msg("Failed to parse notification payload")
		return
	}
	if req.ItemID == "" {
		log.Warn().Str("channel", n.Channel).Msg("Notification without item_id ignored")
		return
	}

	if !l.queue.QueueSync(req.ItemID) {
		log.Warn().Str("item_id", req.ItemID).Msg("Sync queue full, request dropped")
		return
	}
	log.Info().Str("item_id", req.ItemID).Msg("Sync requested via notification")
}
