package repository

import (
	"encoding/json"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// EventsTopic carries every committed LedgerEvent.
const EventsTopic = "economy.events"

func EncodeEvent(e model.LedgerEvent) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvent(data []byte) (model.LedgerEvent, error) {
	var e model.LedgerEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
