package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/arloliu/dshade/geom"
	"github.com/arloliu/dshade/internal/pool"
)

// liveRequest is a viewport update sent by a /live client. Width and
// Height fall back to the configured render size when zero.
type liveRequest struct {
	Type   string  `json:"type"`
	Seq    int64   `json:"seq"`
	X0     float64 `json:"x0"`
	X1     float64 `json:"x1"`
	Y0     float64 `json:"y0"`
	Y1     float64 `json:"y1"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
}

// liveHello is sent once after the upgrade so clients know where the data
// lives before the first viewport request.
type liveHello struct {
	Type       string       `json:"type"`
	Session    string       `json:"session"`
	DataBounds viewportJSON `json:"data_bounds"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
}

// frameHeader is the text frame announcing the binary PNG frame that
// immediately follows it. Viewport carries the snapped ranges the frame
// was actually rendered for.
type frameHeader struct {
	Type     string       `json:"type"`
	Seq      int64        `json:"seq"`
	Viewport viewportJSON `json:"viewport"`
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	Format   string       `json:"format"`
}

type liveError struct {
	Type  string `json:"type"`
	Seq   int64  `json:"seq"`
	Error string `json:"error"`
}

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id := uuid.New().String()
	sess := &liveSession{
		srv:    s,
		conn:   conn,
		id:     id,
		logger: s.logger.With("session", id),
		events: make(chan liveRequest, 1),
		done:   make(chan struct{}),
	}
	sess.run(r.Context())
}

// liveSession is one /live connection. Data and control frames written
// through WriteJSON and WriteMessage are serialized by writeMu; gorilla
// allows a single concurrent writer. WriteControl is safe on its own.
type liveSession struct {
	srv    *Server
	conn   *websocket.Conn
	id     string
	logger *slog.Logger

	// events holds the most recent viewport request. The reader replaces
	// stale entries so the render loop always works on the newest one.
	events chan liveRequest

	writeMu sync.Mutex

	done    chan struct{}
	closeFn sync.Once
}

func (sess *liveSession) run(ctx context.Context) {
	defer sess.close()

	sess.logger.Debug("live session started")

	cfg := sess.srv.cfg.Server
	sess.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	hello := liveHello{
		Type:       "hello",
		Session:    sess.id,
		DataBounds: newViewportJSON(sess.srv.dataVP),
		Width:      sess.srv.cfg.Render.Width,
		Height:     sess.srv.cfg.Render.Height,
	}
	if err := sess.writeJSON(hello); err != nil {
		sess.logger.Warn("write hello failed", "error", err)
		return
	}

	go sess.pingLoop(cfg.PingInterval)
	go sess.renderLoop(ctx)

	sess.readLoop()
}

func (sess *liveSession) close() {
	sess.closeFn.Do(func() {
		close(sess.done)
		sess.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		sess.conn.Close()
		sess.logger.Debug("live session closed")
	})
}

// readLoop consumes viewport requests until the connection drops.
func (sess *liveSession) readLoop() {
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			select {
			case <-sess.done:
			default:
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					sess.logger.Warn("live read failed", "error", err)
				}
			}

			return
		}

		var req liveRequest
		if err := json.Unmarshal(data, &req); err != nil {
			sess.writeError(0, fmt.Sprintf("parse request: %v", err))
			continue
		}
		if req.Type != "viewport" {
			sess.writeError(req.Seq, fmt.Sprintf("unknown request type %q", req.Type))
			continue
		}

		// Latest wins: drop whatever is queued and enqueue this request.
		select {
		case sess.events <- req:
		default:
			select {
			case <-sess.events:
			default:
			}
			select {
			case sess.events <- req:
			default:
			}
		}
	}
}

// renderLoop renders queued viewport requests in arrival order, always
// skipping to the most recent one.
func (sess *liveSession) renderLoop(ctx context.Context) {
	for {
		select {
		case <-sess.done:
			return
		case req := <-sess.events:
			if err := sess.renderFrame(ctx, req); err != nil {
				select {
				case <-sess.done:
				default:
					sess.logger.Warn("live frame failed", "error", err, "seq", req.Seq)
				}
				sess.close()

				return
			}
		}
	}
}

// renderFrame renders one viewport request and writes the frame header
// plus the PNG payload. Pipeline failures are reported to the client;
// only write failures are returned.
func (sess *liveSession) renderFrame(ctx context.Context, req liveRequest) error {
	width, height := req.Width, req.Height
	if width == 0 {
		width = sess.srv.cfg.Render.Width
	}
	if height == 0 {
		height = sess.srv.cfg.Render.Height
	}
	if width < 1 || width > maxRenderDim || height < 1 || height > maxRenderDim {
		return sess.writeError(req.Seq, fmt.Sprintf("size %dx%d out of range [1, %d]", width, height, maxRenderDim))
	}

	vp := geom.NewViewport(req.X0, req.X1, req.Y0, req.Y1)
	img, err := sess.srv.dyn.Render(ctx, vp, width, height)
	if err != nil {
		return sess.writeError(req.Seq, err.Error())
	}

	buf := pool.GetImageBuffer()
	defer pool.PutImageBuffer(buf)
	if err := png.Encode(buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	header := frameHeader{
		Type:     "frame",
		Seq:      req.Seq,
		Viewport: newViewportJSON(sess.srv.dyn.Snap(vp)),
		Width:    width,
		Height:   height,
		Format:   "png",
	}

	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.conn.SetWriteDeadline(time.Now().Add(sess.srv.cfg.Server.WriteTimeout))
	if err := sess.conn.WriteJSON(header); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if err := sess.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}

	return nil
}

// pingLoop keeps the connection alive; a peer that stops answering trips
// the read deadline and ends the session.
func (sess *liveSession) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			return
		case <-ticker.C:
			err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			if err != nil {
				return
			}
		}
	}
}

func (sess *liveSession) writeJSON(v any) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.conn.SetWriteDeadline(time.Now().Add(sess.srv.cfg.Server.WriteTimeout))

	return sess.conn.WriteJSON(v)
}

func (sess *liveSession) writeError(seq int64, msg string) error {
	return sess.writeJSON(liveError{Type: "error", Seq: seq, Error: msg})
}
