package amqp

import (
	"encoding/json"
	"time"
)

// ReloadRequestMessage asks the worker to refetch every tab from the
// configured source. Reason is free text for the logs.
type ReloadRequestMessage struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReloadRequestMessage(reason string) *ReloadRequestMessage {
	return &ReloadRequestMessage{
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *ReloadRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReloadRequestMessageFromJSON(data []byte) (*ReloadRequestMessage, error) {
	var msg ReloadRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DataRefreshedMessage announces that a new snapshot generation is
// available. Consumers reload from their backend rather than carrying
// the data in the message body.
type DataRefreshedMessage struct {
	Generation uint64    `json:"generation"`
	Tabs       []string  `json:"tabs"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewDataRefreshedMessage(generation uint64, tabs []string) *DataRefreshedMessage {
	return &DataRefreshedMessage{
		Generation: generation,
		Tabs:       tabs,
		Timestamp:  time.Now(),
	}
}

func (m *DataRefreshedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DataRefreshedMessageFromJSON(data []byte) (*DataRefreshedMessage, error) {
	var msg DataRefreshedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
