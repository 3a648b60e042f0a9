package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/campaign-engine/pkg/campaign"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeLogAppended     EventType = "log.appended"
	EventTypeCampaignUpdated EventType = "campaign.updated"
)

// Event is the wire shape published on a campaign's channel.
type Event struct {
	Type       EventType              `json:"type"`
	CampaignID string                 `json:"campaign_id"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Broadcaster publishes campaign events to Redis Pub/Sub for SSE
// distribution. A nil *Broadcaster is a no-op publisher, so callers
// without an event bus skip the nil checks.
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishLogAppended publishes a log.appended event for a new log entry.
func (b *Broadcaster) PublishLogAppended(ctx context.Context, entry *campaign.LogEntry) error {
	if b == nil {
		return nil
	}
	event := Event{
		Type:       EventTypeLogAppended,
		CampaignID: entry.CampaignID.String(),
		Data: map[string]interface{}{
			"id":       entry.ID.String(),
			"kind":     string(entry.Kind),
			"scene_id": entry.SceneID.String(),
			"content":  entry.Content,
			"seq":      entry.Seq,
		},
	}
	return b.publish(ctx, entry.CampaignID, event)
}

// PublishCampaignUpdated publishes a campaign.updated event after a state
// or encounter mutation.
func (b *Broadcaster) PublishCampaignUpdated(ctx context.Context, campaignID uuid.UUID, reason string) error {
	if b == nil {
		return nil
	}
	event := Event{
		Type:       EventTypeCampaignUpdated,
		CampaignID: campaignID.String(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
	return b.publish(ctx, campaignID, event)
}

// Subscribe opens a pub/sub subscription for one campaign's events. The
// caller owns the returned PubSub and must Close it.
func (b *Broadcaster) Subscribe(ctx context.Context, campaignID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, channelFor(campaignID))
}

func (b *Broadcaster) publish(ctx context.Context, campaignID uuid.UUID, event Event) error {
	channel := channelFor(campaignID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
	)

	return nil
}

func channelFor(campaignID uuid.UUID) string {
	return fmt.Sprintf("campaign-events:%s", campaignID.String())
}
