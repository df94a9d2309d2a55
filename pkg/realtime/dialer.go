package realtime

import (
	"context"

	"github.com/gorilla/websocket"
)

const textMessage = websocket.TextMessage

// defaultDialer opens real websocket connections.
type defaultDialer struct{}

func (defaultDialer) Dial(ctx context.Context, url string) (Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return conn, nil
}
