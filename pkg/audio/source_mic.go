package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
)

// MicSource captures from the default input device via malgo. The device
// callback runs on a device thread; captured frames are handed to a
// thread-safe queue and drained by a goroutine so emission never blocks the
// audio callback (spec §5: capture callback runs on a device thread and
// communicates via a thread-safe queue).
type MicSource struct {
	base baseSource

	sourceID   string
	sampleRate int
	channels   int
	blockSize  int

	mctx   *malgo.AllocatedContext
	device *malgo.Device

	queue   chan []byte
	started atomic.Bool
	stopped atomic.Bool

	streamStart time.Time
	wg          sync.WaitGroup
}

// NewMicSource creates a microphone source at the given native sample rate
// and channel count. Frames are queued in chunks of blockSize samples.
func NewMicSource(sourceID string, sampleRate, channels, blockSize int) *MicSource {
	return &MicSource{
		sourceID:   sourceID,
		sampleRate: sampleRate,
		channels:   channels,
		blockSize:  blockSize,
		queue:      make(chan []byte, 64),
	}
}

func (m *MicSource) AddSink(s Sink) { m.base.AddSink(s) }
func (m *MicSource) Pause()         { m.base.Pause() }
func (m *MicSource) Resume()        { m.base.Resume() }

func (m *MicSource) Start() error {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("audio: init context: %w", err)
	}
	m.mctx = mctx

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.channels)
	deviceConfig.SampleRate = uint32(m.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(_, pInput []byte, _ uint32) {
		if len(pInput) == 0 {
			return
		}
		buf := make([]byte, len(pInput))
		copy(buf, pInput)
		select {
		case m.queue <- buf:
		default:
			// Queue full: drop this chunk rather than block the device thread.
			if m.base.recordDrop(cap(m.queue)) {
				m.base.emitMarker(ErrorMarker("mic capture drop-rate exceeded threshold"))
			}
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		mctx.Uninit()
		return fmt.Errorf("audio: init device: %w", err)
	}
	m.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		mctx.Uninit()
		return fmt.Errorf("audio: device start: %w", err)
	}

	m.streamStart = time.Now()
	m.started.Store(true)
	m.base.emitMarker(StartMarker(m.sampleRate, m.channels, m.blockSize))

	m.wg.Add(1)
	go m.drainLoop()
	return nil
}

func (m *MicSource) drainLoop() {
	defer m.wg.Done()
	bytesPerSample := 2 * m.channels
	for buf := range m.queue {
		if m.stopped.Load() {
			continue
		}
		samples := decodeS16(buf)
		now := time.Now()
		frame := Frame{
			SourceID:    m.sourceID,
			StreamStart: 0,
			Timestamp:   now.Sub(m.streamStart).Seconds(),
			Duration:    float64(len(buf)/bytesPerSample) / float64(m.sampleRate),
			SampleRate:  m.sampleRate,
			Channels:    m.channels,
			Samples:     samples,
		}
		m.base.emit(frame)
	}
}

func (m *MicSource) Stop() error {
	if !m.started.Load() || m.stopped.Swap(true) {
		return nil
	}
	if m.device != nil {
		m.device.Uninit()
	}
	if m.mctx != nil {
		m.mctx.Uninit()
	}
	close(m.queue)
	m.wg.Wait()
	m.base.emitMarker(StopMarker())
	return nil
}

func decodeS16(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		out[i] = float32(s) / 32768.0
	}
	return out
}
