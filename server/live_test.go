package server

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialLive(t *testing.T) *websocket.Conn {
	t.Helper()

	_, ts := newTestServer(t, testConfig())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/live"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

func readHello(t *testing.T, conn *websocket.Conn) liveHello {
	t.Helper()

	var hello liveHello
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "hello", hello.Type)
	require.NotEmpty(t, hello.Session)
	require.Less(t, hello.DataBounds.X0, hello.DataBounds.X1)

	return hello
}

func TestLive_FrameRoundTrip(t *testing.T) {
	conn := dialLive(t)
	hello := readHello(t, conn)

	req := liveRequest{
		Type:   "viewport",
		Seq:    1,
		X0:     hello.DataBounds.X0,
		X1:     hello.DataBounds.X1,
		Y0:     hello.DataBounds.Y0,
		Y1:     hello.DataBounds.Y1,
		Width:  32,
		Height: 32,
	}
	require.NoError(t, conn.WriteJSON(req))

	var header frameHeader
	require.NoError(t, conn.ReadJSON(&header))
	require.Equal(t, "frame", header.Type)
	require.Equal(t, int64(1), header.Seq)
	require.Equal(t, "png", header.Format)
	require.Equal(t, 32, header.Width)
	require.Equal(t, 32, header.Height)
	require.Less(t, header.Viewport.X0, header.Viewport.X1)

	mt, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, mt)

	img, err := png.Decode(bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 32, img.Bounds().Dy())
}

func TestLive_DefaultSize(t *testing.T) {
	conn := dialLive(t)
	hello := readHello(t, conn)

	// Zero width and height fall back to the configured render size.
	req := liveRequest{
		Type: "viewport",
		Seq:  9,
		X0:   hello.DataBounds.X0,
		X1:   hello.DataBounds.X1,
		Y0:   hello.DataBounds.Y0,
		Y1:   hello.DataBounds.Y1,
	}
	require.NoError(t, conn.WriteJSON(req))

	var header frameHeader
	require.NoError(t, conn.ReadJSON(&header))
	require.Equal(t, "frame", header.Type)
	require.Equal(t, hello.Width, header.Width)
	require.Equal(t, hello.Height, header.Height)

	mt, _, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.BinaryMessage, mt)
}

func TestLive_BadRequestsReportErrors(t *testing.T) {
	conn := dialLive(t)
	readHello(t, conn)

	// Not JSON at all.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))

	var werr liveError
	require.NoError(t, conn.ReadJSON(&werr))
	require.Equal(t, "error", werr.Type)
	require.Contains(t, werr.Error, "parse request")

	// Unknown request type.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "zoom", "seq": 3}))
	require.NoError(t, conn.ReadJSON(&werr))
	require.Equal(t, "error", werr.Type)
	require.Equal(t, int64(3), werr.Seq)
	require.Contains(t, werr.Error, "unknown request type")

	// Invalid viewport reaches the pipeline and comes back as an error.
	// Reading the reply before the next send keeps the exchange in
	// lockstep; back-to-back sends may coalesce to the newest request.
	require.NoError(t, conn.WriteJSON(liveRequest{Type: "viewport", Seq: 4, X0: 2, X1: 1, Y0: 0, Y1: 1}))
	require.NoError(t, conn.ReadJSON(&werr))
	require.Equal(t, "error", werr.Type)
	require.Equal(t, int64(4), werr.Seq)

	// The session survives bad input; a good request still renders.
	require.NoError(t, conn.WriteJSON(liveRequest{Type: "viewport", Seq: 5, X0: -2, X1: 2, Y0: -2, Y1: 2, Width: 16, Height: 16}))

	var header frameHeader
	require.NoError(t, conn.ReadJSON(&header))
	require.Equal(t, "frame", header.Type)
	require.Equal(t, int64(5), header.Seq)
}

func TestLive_OversizeRejected(t *testing.T) {
	conn := dialLive(t)
	hello := readHello(t, conn)

	req := liveRequest{
		Type:  "viewport",
		Seq:   2,
		X0:    hello.DataBounds.X0,
		X1:    hello.DataBounds.X1,
		Y0:    hello.DataBounds.Y0,
		Y1:    hello.DataBounds.Y1,
		Width: maxRenderDim + 1,
	}
	require.NoError(t, conn.WriteJSON(req))

	var werr liveError
	require.NoError(t, conn.ReadJSON(&werr))
	require.Equal(t, "error", werr.Type)
	require.Equal(t, int64(2), werr.Seq)
	require.Contains(t, werr.Error, "out of range")
}
