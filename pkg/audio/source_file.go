package audio

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"
)

// FileSource decodes a 16-bit PCM WAV file and replays it as a frame
// sequence at its native sample rate, chunked into blockSize-sample frames.
// Frame timestamps are the frame's sample position in seconds; with
// realtime set, emission is paced to wall-clock so downstream VAD/scan
// timing behaves as it would for a live source.
type FileSource struct {
	base baseSource

	sourceID  string
	path      string
	blockSize int
	realtime  bool

	stopCh  chan struct{}
	stopped bool
}

// NewFileSource creates a source that replays path. If realtime is true,
// frames are paced at wall-clock speed (useful for exercising VAD timing);
// otherwise they are emitted as fast as possible.
func NewFileSource(sourceID, path string, blockSize int, realtime bool) *FileSource {
	return &FileSource{
		sourceID:  sourceID,
		path:      path,
		blockSize: blockSize,
		realtime:  realtime,
		stopCh:    make(chan struct{}),
	}
}

func (f *FileSource) AddSink(s Sink) { f.base.AddSink(s) }
func (f *FileSource) Pause()         { f.base.Pause() }
func (f *FileSource) Resume()        { f.base.Resume() }

func (f *FileSource) Start() error {
	samples, sampleRate, channels, err := readWAV(f.path)
	if err != nil {
		f.base.emitMarker(ErrorMarker(err.Error()))
		f.base.emitMarker(StopMarker())
		return err
	}

	f.base.emitMarker(StartMarker(sampleRate, channels, f.blockSize))

	go f.playback(samples, sampleRate, channels)
	return nil
}

func (f *FileSource) playback(samples []float32, sampleRate, channels int) {
	frameSamples := f.blockSize * channels
	if frameSamples <= 0 {
		frameSamples = 512 * channels
	}
	start := time.Now()
	var emitted int

	for offset := 0; offset < len(samples); offset += frameSamples {
		select {
		case <-f.stopCh:
			f.base.emitMarker(StopMarker())
			return
		default:
		}

		end := offset + frameSamples
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[offset:end]
		duration := float64(len(chunk)/channels) / float64(sampleRate)

		frame := Frame{
			SourceID:   f.sourceID,
			Timestamp:  float64(emitted) / float64(sampleRate),
			Duration:   duration,
			SampleRate: sampleRate,
			Channels:   channels,
			Samples:    chunk,
		}
		emitted += len(chunk) / channels

		if f.realtime {
			target := start.Add(time.Duration(frame.Timestamp * float64(time.Second)))
			if d := time.Until(target); d > 0 {
				time.Sleep(d)
			}
		}
		f.base.emit(frame)
	}
	f.base.emitMarker(StopMarker())
}

func (f *FileSource) Stop() error {
	if f.stopped {
		return nil
	}
	f.stopped = true
	close(f.stopCh)
	return nil
}

// readWAV parses a minimal canonical PCM WAV file: RIFF/WAVE header, a
// "fmt " chunk describing 16-bit PCM, and a "data" chunk of samples.
func readWAV(path string) (samples []float32, sampleRate, channels int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("audio: read wav: %w", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, 0, fmt.Errorf("audio: not a RIFF/WAVE file: %s", path)
	}

	var bitsPerSample uint16
	var dataBytes []byte
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}
		switch chunkID {
		case "fmt ":
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
		case "data":
			dataBytes = data[body : body+chunkSize]
		}
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++ // chunks are word-aligned
		}
	}

	if bitsPerSample != 16 {
		return nil, 0, 0, fmt.Errorf("audio: only 16-bit PCM WAV is supported (got %d bits)", bitsPerSample)
	}
	if channels == 0 {
		channels = 1
	}
	samples = decodeS16(dataBytes)
	return samples, sampleRate, channels, nil
}
