package bot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AlexYAT/vedic-astrologer-bot/pkg/config"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/logger"
	"github.com/AlexYAT/vedic-astrologer-bot/pkg/redis"
)

// Dialog steps. Empty state means the user is outside any dialog.
const (
	stepBirthDate  = "birth_date"
	stepBirthTime  = "birth_time"
	stepBirthPlace = "birth_place"
	stepContact    = "contact"
	stepAction     = "action"
)

// dialogState is what the bot is currently waiting for from one user.
// It lives in redis so webhook deliveries can land on any instance.
type dialogState struct {
	Step      string  `json:"step"`
	BirthDate string  `json:"birth_date,omitempty"`
	BirthTime *string `json:"birth_time,omitempty"`
}

// stateStore keeps per-user dialog state with a TTL, so an abandoned
// survey expires instead of swallowing future messages.
type stateStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func newStateStore() *stateStore {
	return &stateStore{
		client: redis.GetRedis(redis.MainDB),
		prefix: config.GetString("app.name", "AstrologerBot") + ":state",
		ttl:    time.Duration(config.GetInt("redis.state_ttl", 900)) * time.Second,
	}
}

func (s *stateStore) key(externalID int64) string {
	return fmt.Sprintf("%s:%d", s.prefix, externalID)
}

func (s *stateStore) Get(externalID int64) *dialogState {
	raw := s.client.Get(s.key(externalID))
	if raw == "" {
		return nil
	}

	var state dialogState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		logger.ErrorString("Bot", "State", err.Error())
		return nil
	}
	return &state
}

func (s *stateStore) Set(externalID int64, state *dialogState) {
	raw, err := json.Marshal(state)
	if err != nil {
		logger.ErrorString("Bot", "State", err.Error())
		return
	}
	s.client.Set(s.key(externalID), string(raw), s.ttl)
}

func (s *stateStore) Clear(externalID int64) {
	s.client.Del(s.key(externalID))
}
