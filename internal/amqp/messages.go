package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChartRefreshMessage asks the chart worker to rebuild one user's artifacts.
type ChartRefreshMessage struct {
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChartRefreshMessage(userID int64) *ChartRefreshMessage {
	return &ChartRefreshMessage{
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

func (m *ChartRefreshMessage) ToJSON() ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal chart refresh message: %w", err)
	}
	return body, nil
}

func ChartRefreshMessageFromJSON(body []byte) (*ChartRefreshMessage, error) {
	var m ChartRefreshMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("unmarshal chart refresh message: %w", err)
	}
	return &m, nil
}
