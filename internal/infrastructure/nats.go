package infrastructure

import (
	"github.com/nats-io/nats.go"
)

func connectNats(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ecomaker"),
		nats.MaxReconnects(-1),
	)
}
