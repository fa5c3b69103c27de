package compose

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Domain Value Parsers
// =============================================================================
//
// Small total functions over scalar field values. Each returns a typed value
// or a sentinel error; none touch the diagnostic list so callers decide how
// a malformed value is reported.

// ParsePort parses "H:C" or "H:C/PROTO" into a Port. The protocol defaults
// to tcp.
func ParsePort(s string) (Port, error) {
	spec := s
	protocol := ProtocolTCP

	if slash := strings.IndexByte(spec, '/'); slash >= 0 {
		switch spec[slash+1:] {
		case "tcp":
			protocol = ProtocolTCP
		case "udp":
			protocol = ProtocolUDP
		default:
			return Port{}, ErrInvalidProtocol
		}
		spec = spec[:slash]
	}

	host, container, ok := strings.Cut(spec, ":")
	if !ok || host == "" || container == "" {
		return Port{}, ErrInvalidPortFormat
	}

	h, err := strconv.ParseUint(host, 10, 16)
	if err != nil {
		return Port{}, ErrInvalidPortNumber
	}
	c, err := strconv.ParseUint(container, 10, 16)
	if err != nil {
		return Port{}, ErrInvalidPortNumber
	}

	return Port{Host: uint16(h), Container: uint16(c), Protocol: protocol}, nil
}

// ParseVolumeMount parses "SRC:TGT" with an optional trailing ":ro" or
// ":rw" access suffix. The suffix is stripped before the remaining string is
// split on its first colon.
func ParseVolumeMount(s string) (VolumeMount, error) {
	spec := s
	readOnly := false

	if strings.HasSuffix(spec, ":ro") {
		readOnly = true
		spec = spec[:len(spec)-3]
	} else if strings.HasSuffix(spec, ":rw") {
		spec = spec[:len(spec)-3]
	}

	source, target, ok := strings.Cut(spec, ":")
	if !ok || source == "" || target == "" {
		return VolumeMount{}, ErrInvalidVolumeFormat
	}

	return VolumeMount{Source: source, Target: target, ReadOnly: readOnly}, nil
}

// ParseDuration parses compose-style durations: a sequence of number+unit
// groups with units h, m, and s, optionally ending in a bare number that is
// read as seconds. "60" is one minute; "1h30m" is ninety minutes.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrInvalidDuration
	}

	var total time.Duration
	i := 0
	for i < len(s) {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if start == i {
			return 0, ErrInvalidDuration
		}
		n, err := strconv.ParseInt(s[start:i], 10, 64)
		if err != nil {
			return 0, ErrInvalidDuration
		}

		if i == len(s) {
			// Trailing bare number is seconds.
			total += time.Duration(n) * time.Second
			break
		}

		switch s[i] {
		case 'h':
			total += time.Duration(n) * time.Hour
		case 'm':
			total += time.Duration(n) * time.Minute
		case 's':
			total += time.Duration(n) * time.Second
		default:
			return 0, ErrInvalidDuration
		}
		i++
	}

	return total, nil
}

// ParseByteSize parses digits followed by an optional unit letter. Units are
// binary multiples: b/B bytes, k/K kibi, m/M mebi, g/G gibi, t/T tebi. A
// missing unit means bytes.
func ParseByteSize(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidByteSize
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, ErrInvalidByteSize
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, ErrInvalidByteSize
	}

	if i == len(s) {
		return n, nil
	}
	if i != len(s)-1 {
		return 0, ErrInvalidByteSize
	}

	var mult int64
	switch s[i] {
	case 'b', 'B':
		mult = 1
	case 'k', 'K':
		mult = 1 << 10
	case 'm', 'M':
		mult = 1 << 20
	case 'g', 'G':
		mult = 1 << 30
	case 't', 'T':
		mult = 1 << 40
	default:
		return 0, ErrInvalidByteSize
	}

	return n * mult, nil
}

// ParseRestartPolicy maps a restart string to a RestartPolicy. Unrecognized
// inputs fall back to RestartNo without error; "on-failure:N" carries a
// retry bound when N is a valid number and none when it is not.
func ParseRestartPolicy(s string) RestartPolicy {
	switch s {
	case "no":
		return RestartPolicy{Policy: RestartNo}
	case "always":
		return RestartPolicy{Policy: RestartAlways}
	case "unless-stopped":
		return RestartPolicy{Policy: RestartUnlessStopped}
	case "on-failure":
		return RestartPolicy{Policy: RestartOnFailure}
	}

	if retries, ok := strings.CutPrefix(s, "on-failure:"); ok {
		policy := RestartPolicy{Policy: RestartOnFailure}
		if n, err := strconv.Atoi(retries); err == nil {
			policy.MaxRetries = &n
		}
		return policy
	}

	return RestartPolicy{Policy: RestartNo}
}

// ParseCondition maps a depends_on condition string to a Condition. The
// second result is false for unrecognized conditions.
func ParseCondition(s string) (Condition, bool) {
	switch s {
	case "service_started":
		return ConditionStarted, true
	case "service_healthy":
		return ConditionHealthy, true
	case "service_completed_successfully":
		return ConditionCompletedSuccessfully, true
	default:
		return "", false
	}
}
