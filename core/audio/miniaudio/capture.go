// Package miniaudio wraps malgo to capture microphone audio as raw PCM,
// the way the teacher's audio clients wrap malgo for both capture and
// playback. This engine has no audio output stage, so only capture
// survives here.
package miniaudio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/koscakluka/cascade/core/audio"
)

// Mic is a single capture-only malgo device delivering pcm_s16le
// frames to a callback, owning its own malgo context.
type Mic struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	config malgo.DeviceConfig

	mu      sync.Mutex
	onAudio func(pcm []byte)
}

// NewMic opens the default capture device at audio.SampleRate, mono,
// 16-bit signed PCM.
func NewMic() (*Mic, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(string) {})
	if err != nil {
		return nil, fmt.Errorf("miniaudio: failed to init context: %w", err)
	}

	m := &Mic{ctx: ctx}

	const channels = 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	m.config = malgo.DefaultDeviceConfig(malgo.Capture)
	m.config.SampleRate = uint32(audio.SampleRate)
	m.config.Capture.Format = format
	m.config.Capture.Channels = channels
	m.config.Alsa.NoMMap = 1
	m.config.PerformanceProfile = malgo.LowLatency
	m.config.PeriodSizeInFrames = 480
	m.config.Periods = 3

	m.device, err = malgo.InitDevice(m.ctx.Context, m.config, malgo.DeviceCallbacks{
		Data: func(_, in []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(in) < n || n == 0 {
				return
			}
			m.mu.Lock()
			onAudio := m.onAudio
			m.mu.Unlock()
			if onAudio != nil {
				onAudio(in[:n])
			}
		},
	})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("miniaudio: failed to init capture device: %w", err)
	}

	return m, nil
}

// Start begins capture, calling onAudio with pcm_s16le chunks as they
// arrive until Stop or Close.
func (m *Mic) Start(onAudio func(pcm []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.device.IsStarted() {
		return nil
	}

	m.onAudio = onAudio
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("miniaudio: failed to start capture device: %w", err)
	}
	return nil
}

// Stop halts capture without releasing the device.
func (m *Mic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.device.IsStarted() {
		return nil
	}
	if err := m.device.Stop(); err != nil {
		return fmt.Errorf("miniaudio: failed to stop capture device: %w", err)
	}
	m.onAudio = nil
	return nil
}

// Close stops capture if running and releases the device and context.
func (m *Mic) Close() error {
	_ = m.Stop()
	m.device.Uninit()
	if err := m.ctx.Uninit(); err != nil {
		return fmt.Errorf("miniaudio: failed to uninit context: %w", err)
	}
	m.ctx.Free()
	return nil
}
