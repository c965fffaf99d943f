package speaker

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ConnectionState is the logical connection state of a device.
type ConnectionState int

const (
	// Disconnected means the device holds no logical connection.
	Disconnected ConnectionState = iota
	// Connected means the device holds the single active session.
	Connected
)

// String returns the string representation of the connection state.
func (s ConnectionState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// Device represents a discoverable audio sink. Devices are ephemeral: each
// discovery pass replaces the list wholesale.
type Device struct {
	ID          string          // stable unique identifier
	Name        string          // human-readable label, may be empty
	Address     string          // hardware-style address, may equal ID
	State       ConnectionState // logical connection state
	Synthesized bool            // created on demand for an unseen name
}

// baselineDevices simulate previously-known speakers and are present in
// every discovery pass.
var baselineDevices = []Device{
	{ID: "spk-soundbox", Name: "NotiFin SoundBox", Address: "A0:E9:DB:10:00:01"},
	{ID: "spk-kitchen", Name: "Kitchen Speaker", Address: "A0:E9:DB:10:00:02"},
	{ID: "spk-counter", Name: "Counter Mini", Address: "A0:E9:DB:10:00:03"},
}

// candidatePool is the larger set discovery samples from to model
// real-world scan variability.
var candidatePool = []string{
	"JBL Go 3",
	"Anker Soundcore 2",
	"Mi Portable Speaker",
	"Sony SRS-XB13",
	"Tronsmart T6 Mini",
	"Bose SoundLink Micro",
	"EDIFIER MP100",
	"Harman Kardon Onyx",
}

// Registry maintains the list of discovered devices and the current logical
// connection. At most one device is Connected at any time.
type Registry struct {
	mu        sync.RWMutex
	devices   []Device
	connected *Device // the single active session, nil when disconnected

	extraChance float64
	rng         *rand.Rand
	limiter     *rate.Limiter
}

// NewRegistry creates an empty registry: devices appear only once the first
// Discover pass runs, so connect attempts before any scan can be routed to a
// scan or the system settings. The rng is injectable so tests can pin
// discovery variability; pass nil for a time-seeded source.
func NewRegistry(cfg Config, rng *rand.Rand) *Registry {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Registry{
		extraChance: cfg.ExtraDeviceChance,
		rng:         rng,
		limiter:     rate.NewLimiter(rate.Limit(cfg.ScanRate), 3),
	}
}

// Discover replaces the device list with a fresh scan result: the fixed
// baseline set plus, with configured probability, 1–3 devices sampled from
// the candidate pool under freshly generated identifiers. Callers must not
// assume set stability between calls. Scans are rate-limited; Discover
// blocks until a slot is free or ctx is done.
func (r *Registry) Discover(ctx context.Context) ([]Device, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("discovery canceled: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	fresh := make([]Device, len(baselineDevices))
	copy(fresh, baselineDevices)

	if r.rng.Float64() < r.extraChance {
		count := 1 + r.rng.Intn(3)
		for _, idx := range r.rng.Perm(len(candidatePool))[:count] {
			fresh = append(fresh, Device{
				ID:      uuid.NewString(),
				Name:    candidatePool[idx],
				Address: r.randomAddress(),
			})
		}
	}

	// The logical connection survives a rescan. Re-mark the connected
	// device if the new pass still contains it.
	if r.connected != nil {
		for i := range fresh {
			if fresh[i].ID == r.connected.ID {
				fresh[i].State = Connected
			}
		}
	}

	r.devices = fresh
	return r.snapshotLocked(), nil
}

// randomAddress generates a MAC-style identifier for a freshly seen device.
func (r *Registry) randomAddress() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = byte(r.rng.Intn(256))
	}
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", b[0], b[1], b[2], b[3], b[4], b[5])
}

// FindByNameOrAddress returns the first device whose name contains the query
// (case-insensitive) or whose id or address equals it exactly, or nil.
func (r *Registry) FindByNameOrAddress(query string) *Device {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.devices {
		d := r.devices[i]
		if strings.Contains(strings.ToLower(d.Name), q) || d.ID == query || d.Address == query {
			out := d
			return &out
		}
	}
	return nil
}

// UpsertSynthesized creates a placeholder device for a connection request
// that matched nothing, appends it to the current list, and returns it.
// This trusts the caller's naming over scan accuracy.
func (r *Registry) UpsertSynthesized(name string) Device {
	d := Device{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Synthesized: true,
	}
	d.Address = d.ID

	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, d)
	return d
}

// SetConnected marks the given device as the single active session. Any
// previously connected device is implicitly disconnected.
func (r *Registry) SetConnected(device Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	device.State = Connected
	for i := range r.devices {
		if r.devices[i].ID == device.ID {
			r.devices[i].State = Connected
		} else {
			r.devices[i].State = Disconnected
		}
	}
	r.connected = &device
}

// ClearConnected marks every device disconnected. Idempotent.
func (r *Registry) ClearConnected() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.devices {
		r.devices[i].State = Disconnected
	}
	r.connected = nil
}

// Connected returns a copy of the connected device, or nil.
func (r *Registry) Connected() *Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.connected == nil {
		return nil
	}
	out := *r.connected
	return &out
}

// Devices returns a copy of the current device list.
func (r *Registry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []Device {
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}
