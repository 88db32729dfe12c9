package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coder/websocket"
)

// NetSource connects to a remote websocket endpoint emitting binary PCM
// frames and a JSON control frame ({"marker":"start"|"stop", ...}). It is
// used for --audio-url ingestion and --rescan replay.
type NetSource struct {
	base baseSource

	sourceID   string
	url        string
	blockSize  int
	sampleRate int
	channels   int

	conn    *websocket.Conn
	cancel  context.CancelFunc
	stopped bool
}

func NewNetSource(sourceID, url string, sampleRate, channels, blockSize int) *NetSource {
	return &NetSource{
		sourceID:   sourceID,
		url:        url,
		blockSize:  blockSize,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (n *NetSource) AddSink(s Sink) { n.base.AddSink(s) }
func (n *NetSource) Pause()         { n.base.Pause() }
func (n *NetSource) Resume()        { n.base.Resume() }

type netControlFrame struct {
	Marker string `json:"marker"`
}

func (n *NetSource) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel

	conn, _, err := websocket.Dial(ctx, n.url, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("audio: net source dial: %w", err)
	}
	n.conn = conn

	n.base.emitMarker(StartMarker(n.sampleRate, n.channels, n.blockSize))

	go n.readLoop(ctx)
	return nil
}

func (n *NetSource) readLoop(ctx context.Context) {
	streamStart := time.Now()
	defer n.base.emitMarker(StopMarker())

	for {
		msgType, payload, err := n.conn.Read(ctx)
		if err != nil {
			n.base.emitMarker(ErrorMarker(fmt.Sprintf("net source read: %v", err)))
			return
		}

		switch msgType {
		case websocket.MessageText:
			var ctrl netControlFrame
			if json.Unmarshal(payload, &ctrl) == nil && ctrl.Marker == "stop" {
				return
			}
		case websocket.MessageBinary:
			samples := decodeS16(payload)
			frame := Frame{
				SourceID:   n.sourceID,
				Timestamp:  time.Since(streamStart).Seconds(),
				Duration:   float64(len(samples)/n.channels) / float64(n.sampleRate),
				SampleRate: n.sampleRate,
				Channels:   n.channels,
				Samples:    samples,
			}
			n.base.emit(frame)
		}
	}
}

func (n *NetSource) Stop() error {
	if n.stopped {
		return nil
	}
	n.stopped = true
	if n.conn != nil {
		n.conn.Close(websocket.StatusNormalClosure, "")
	}
	if n.cancel != nil {
		n.cancel()
	}
	return nil
}
