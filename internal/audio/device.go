package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alkime/lectio/pkg/channels"
	"github.com/alkime/lectio/pkg/collections"
	"github.com/gen2brain/malgo"
)

// ErrDeviceBusy is returned when the capture device is already held.
var ErrDeviceBusy = errors.New("capture device already in use")

const (
	// DefaultSampleRate is 16kHz, the native sample rate for Whisper.
	DefaultSampleRate = 16000
	// DefaultChannels is mono (1 channel).
	DefaultChannels = 1

	packetBuffer      = 64
	packetSendTimeout = 100 * time.Millisecond
)

// there is one microphone; every Capture shares it
var held atomic.Bool //nolint:gochecknoglobals // process-wide device lock

// DeviceConfig describes the capture format.
type DeviceConfig struct {
	Format     malgo.FormatType
	Channels   int
	SampleRate int
}

// DefaultDeviceConfig is S16LE, 16kHz mono.
func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Format:     malgo.FormatS16,
		Channels:   DefaultChannels,
		SampleRate: DefaultSampleRate,
	}
}

// Capture is the microphone. Acquire allocates and starts a malgo capture
// device and returns the channel its packets arrive on; Release stops it and
// closes that channel.
type Capture struct {
	conf   DeviceConfig
	logger *slog.Logger

	mu       sync.Mutex
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	dataC    chan []byte
}

// NewCapture creates a capture device handle. Nothing is allocated until Acquire.
func NewCapture(conf DeviceConfig, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}

	return &Capture{ //nolint:exhaustruct // device fields set on Acquire
		conf:   conf,
		logger: logger,
	}
}

// Acquire allocates and starts the device. It fails fast with ErrDeviceBusy if
// the device is already held.
func (c *Capture) Acquire(_ context.Context) (<-chan []byte, error) {
	if !held.CompareAndSwap(false, true) {
		return nil, ErrDeviceBusy
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dataC := make(chan []byte, packetBuffer)

	mgCtx, mgDevice, err := c.allocMGDevice(dataC)
	if err != nil {
		held.Store(false)
		return nil, fmt.Errorf("failed to create malgo capture device: %w", err)
	}

	if err := mgDevice.Start(); err != nil {
		mgDevice.Uninit()
		uninitializeContext(mgCtx)
		held.Store(false)

		return nil, fmt.Errorf("failed to start malgo device: %w", err)
	}

	c.mgCtx = mgCtx
	c.mgDevice = mgDevice
	c.dataC = dataC

	return dataC, nil
}

// Release stops the device, frees it and closes the packet channel.
// Releasing a device that is not held is a no-op.
func (c *Capture) Release(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mgDevice == nil {
		return nil
	}

	var stopErr error
	if c.mgDevice.IsStarted() {
		if err := c.mgDevice.Stop(); err != nil {
			stopErr = fmt.Errorf("failed to stop malgo device: %w", err)
		}
	}

	c.mgDevice.Uninit()
	uninitializeContext(c.mgCtx)
	close(c.dataC)

	c.mgDevice = nil
	c.mgCtx = nil
	c.dataC = nil
	held.Store(false)

	return stopErr
}

// EnumerateDevices lists available capture devices.
func EnumerateDevices(_ context.Context) ([]Info, error) {
	// An empty context is enough for enumeration.
	devCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil) //nolint:exhaustruct // defaults
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(devCtx)

	captureDevices, err := devCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, malgoDeviceInfoToDeviceInfo), nil
}

func (c *Capture) allocMGDevice(dataC chan []byte) (*malgo.AllocatedContext, *malgo.Device, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil) //nolint:exhaustruct // defaults
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = c.conf.Format
	devCnf.Capture.Channels = uint32(c.conf.Channels)
	devCnf.SampleRate = uint32(c.conf.SampleRate)

	logger := c.logger
	callBacks := malgo.DeviceCallbacks{ //nolint:exhaustruct // capture only
		Data: func(_, samples []byte, _ uint32) {
			// malgo reuses the buffer after the callback returns
			packet := make([]byte, len(samples))
			copy(packet, samples)

			if err := channels.SendWithTimeout(dataC, packet, packetSendTimeout); err != nil {
				logger.Debug("dropped capture packet", "bytes", len(packet), "error", err)
			}
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callBacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, nil, fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	return mgCtx, mgDevice, nil
}

// Info describes a capture device.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

func malgoDeviceInfoToDeviceInfo(mdi malgo.DeviceInfo) Info {
	formats := make([]string, len(mdi.Formats))
	for i, mf := range mdi.Formats {
		formats[i] = fmt.Sprintf("(SampleSizeBytes: %d, Channels: %d, SampleRate: %d)",
			malgo.SampleSizeInBytes(mf.Format),
			mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}

func uninitializeContext(deviceCtx *malgo.AllocatedContext) {
	if deviceCtx == nil {
		return
	}

	if err := deviceCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	deviceCtx.Free()
}
