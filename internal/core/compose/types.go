package compose

import "time"

// =============================================================================
// Ordered String Map
// =============================================================================

// Dict is a string-to-string map that preserves insertion order.
// Compose semantics require environment, labels, and logging options to
// enumerate in source order, which a plain Go map cannot guarantee.
type Dict struct {
	keys   []string
	values map[string]string
}

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return &Dict{values: make(map[string]string)}
}

// Set inserts or replaces a key. A replaced key keeps its original position.
func (d *Dict) Set(key, value string) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = value
}

// Get returns the value for key and whether it is present.
func (d *Dict) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order. The slice is shared; do not modify.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	return d.keys
}

// MarshalJSON emits the entries as a JSON object in insertion order.
func (d *Dict) MarshalJSON() ([]byte, error) {
	if d == nil || len(d.keys) == 0 {
		return []byte("{}"), nil
	}
	buf := make([]byte, 0, 16*len(d.keys))
	buf = append(buf, '{')
	for i, k := range d.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendJSONString(buf, k)
		buf = append(buf, ':')
		buf = appendJSONString(buf, d.values[k])
	}
	return append(buf, '}'), nil
}

func appendJSONString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			buf = append(buf, '\\', c)
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\r':
			buf = append(buf, '\\', 'r')
		case '\t':
			buf = append(buf, '\\', 't')
		default:
			if c < 0x20 {
				const hex = "0123456789abcdef"
				buf = append(buf, '\\', 'u', '0', '0', hex[c>>4], hex[c&0xf])
			} else {
				buf = append(buf, c)
			}
		}
	}
	return append(buf, '"')
}

// =============================================================================
// ComposeFile - Main Output Type
// =============================================================================

// ComposeFile represents a fully parsed Docker Compose document.
// Services, volumes, and networks appear in source order.
type ComposeFile struct {
	Name     string    `json:"name,omitempty"`
	Services []Service `json:"services"`
	Volumes  []Volume  `json:"volumes,omitempty"`
	Networks []Network `json:"networks,omitempty"`
}

// Service returns the named service, or nil if it is not defined.
func (f *ComposeFile) Service(name string) *Service {
	for i := range f.Services {
		if f.Services[i].Name == name {
			return &f.Services[i]
		}
	}
	return nil
}

// =============================================================================
// Service Types
// =============================================================================

// Service represents a single service definition.
type Service struct {
	Name            string        `json:"name"`
	Image           string        `json:"image,omitempty"`
	Ports           []Port        `json:"ports,omitempty"`
	Environment     *Dict         `json:"environment,omitempty"`
	DependsOn       []Dependency  `json:"depends_on,omitempty"`
	Healthcheck     *Healthcheck  `json:"healthcheck,omitempty"`
	Volumes         []VolumeMount `json:"volumes,omitempty"`
	Command         []string      `json:"command,omitempty"`
	Entrypoint      []string      `json:"entrypoint,omitempty"`
	WorkingDir      string        `json:"working_dir,omitempty"`
	User            string        `json:"user,omitempty"`
	ContainerName   string        `json:"container_name,omitempty"`
	Hostname        string        `json:"hostname,omitempty"`
	Domainname      string        `json:"domainname,omitempty"`
	Restart         RestartPolicy `json:"restart"`
	Init            bool          `json:"init,omitempty"`
	StopSignal      string        `json:"stop_signal,omitempty"`
	StopGracePeriod time.Duration `json:"stop_grace_period"`
	ReadOnly        bool          `json:"read_only,omitempty"`
	Privileged      bool          `json:"privileged,omitempty"`
	CapAdd          []string      `json:"cap_add,omitempty"`
	CapDrop         []string      `json:"cap_drop,omitempty"`
	Expose          []string      `json:"expose,omitempty"`
	DNS             []string      `json:"dns,omitempty"`
	DNSSearch       []string      `json:"dns_search,omitempty"`
	ExtraHosts      []string      `json:"extra_hosts,omitempty"`
	Networks        []string      `json:"networks,omitempty"`
	Labels          *Dict         `json:"labels,omitempty"`
	EnvFile         []string      `json:"env_file,omitempty"`
	MemLimit        int64         `json:"mem_limit,omitempty"`        // Bytes
	MemReservation  int64         `json:"mem_reservation,omitempty"`  // Bytes
	CPUs            float64       `json:"cpus,omitempty"`
	PidsLimit       int64         `json:"pids_limit,omitempty"`
	Logging         *Logging      `json:"logging,omitempty"`
}

// Port represents a published port mapping.
type Port struct {
	Host      uint16   `json:"host"`
	Container uint16   `json:"container"`
	Protocol  Protocol `json:"protocol"`
}

// Protocol represents a port protocol.
type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// Dependency represents a depends_on entry.
type Dependency struct {
	Service   string    `json:"service"`
	Condition Condition `json:"condition"`
}

// Condition represents a depends_on readiness condition.
type Condition string

const (
	ConditionStarted               Condition = "service_started"
	ConditionHealthy               Condition = "service_healthy"
	ConditionCompletedSuccessfully Condition = "service_completed_successfully"
)

// Healthcheck represents health check configuration.
type Healthcheck struct {
	Test        []string      `json:"test"`
	Interval    time.Duration `json:"interval"`
	Timeout     time.Duration `json:"timeout"`
	Retries     int           `json:"retries"`
	StartPeriod time.Duration `json:"start_period"`
}

// Healthcheck and service defaults.
const (
	DefaultHealthcheckInterval = 30 * time.Second
	DefaultHealthcheckTimeout  = 30 * time.Second
	DefaultHealthcheckRetries  = 3
	DefaultStopGracePeriod     = 10 * time.Second
)

// NewHealthcheck returns a Healthcheck with compose defaults applied.
func NewHealthcheck() *Healthcheck {
	return &Healthcheck{
		Interval: DefaultHealthcheckInterval,
		Timeout:  DefaultHealthcheckTimeout,
		Retries:  DefaultHealthcheckRetries,
	}
}

// VolumeMount represents a volume mount in a service.
type VolumeMount struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	ReadOnly bool   `json:"read_only"`
}

// RestartPolicy represents the restart policy of a service.
type RestartPolicy struct {
	Policy     RestartMode `json:"policy"`
	MaxRetries *int        `json:"max_retries,omitempty"`
}

// RestartMode enumerates the recognized restart policies.
type RestartMode string

const (
	RestartNo            RestartMode = "no"
	RestartAlways        RestartMode = "always"
	RestartOnFailure     RestartMode = "on-failure"
	RestartUnlessStopped RestartMode = "unless-stopped"
)

// Logging represents logging driver configuration.
type Logging struct {
	Driver  string `json:"driver,omitempty"`
	Options *Dict  `json:"options,omitempty"`
}

// =============================================================================
// Volume and Network Types
// =============================================================================

// Volume represents a named volume definition.
type Volume struct {
	Name     string `json:"name"`
	Driver   string `json:"driver,omitempty"`
	External bool   `json:"external"`
	Labels   *Dict  `json:"labels,omitempty"`
}

// Network represents a network definition.
type Network struct {
	Name     string `json:"name"`
	Driver   string `json:"driver,omitempty"`
	External bool   `json:"external"`
	Internal bool   `json:"internal"`
	Labels   *Dict  `json:"labels,omitempty"`
}
