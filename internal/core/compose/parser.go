package compose

import (
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// Parse Options
// =============================================================================

type options struct {
	silentExtensions   bool
	warnUnknownRestart bool
	maxDiagnostics     int
}

// Option configures a Parse call.
type Option func(*options)

// WithSilentExtensions makes the parser skip top-level x-* extension keys
// without emitting a warning. By default extension keys are treated like any
// other unknown key; x-* keys inside a service are warned either way.
func WithSilentExtensions() Option {
	return func(o *options) { o.silentExtensions = true }
}

// WithRestartPolicyWarnings makes the parser warn when a restart value is
// not one of the recognized policies. By default unrecognized values fall
// back to "no" silently.
func WithRestartPolicyWarnings() Option {
	return func(o *options) { o.warnUnknownRestart = true }
}

// WithDiagnosticLimit bounds diagnostic retention; diagnostics past the
// bound are counted as dropped. A negative limit means unbounded; zero keeps
// the default bound (DefaultMaxDiagnostics).
func WithDiagnosticLimit(n int) Option {
	return func(o *options) { o.maxDiagnostics = n }
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a Parse call. File is nil whenever Diagnostics
// contains an error; Diagnostics is always non-nil, including on the hard
// failure paths, so callers can render what was found before the failure.
type Result struct {
	File        *ComposeFile
	Diagnostics *Diagnostics
}

// =============================================================================
// Parser
// =============================================================================

// Parse reads a compose document from data, expanding ${...} expressions
// against env, and returns the typed model plus diagnostics.
//
// Malformed field values and unknown keys are reported through diagnostics
// and never fail the call. Parse returns an error only when the YAML itself
// is malformed (wraps ErrInvalidYAML), the document root is not a mapping
// (wraps ErrInvalidStructure), or the input is empty (wraps ErrEmptyInput).
func Parse(data []byte, env map[string]string, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	diags := NewDiagnostics()
	if o.maxDiagnostics != 0 {
		diags = NewDiagnosticsWithLimit(o.maxDiagnostics)
	}
	res := &Result{Diagnostics: diags}

	if len(strings.TrimSpace(string(data))) == 0 {
		return res, NewParseError("", "compose document is empty", ErrEmptyInput)
	}

	p := &parser{
		r:     NewReader(data),
		env:   env,
		diags: diags,
		opts:  o,
	}
	defer p.r.Close()

	file, err := p.parseStream()
	if err != nil {
		return res, err
	}

	if diags.HasErrors() {
		return res, nil
	}
	res.File = file
	return res, nil
}

type parser struct {
	r     *Reader
	env   map[string]string
	diags *Diagnostics
	opts  options
}

// next returns the next event, converting reader failures and premature
// end-of-stream into yaml errors.
func (p *parser) next() (*Event, error) {
	ev, err := p.r.Next()
	if err != nil {
		return nil, NewParseError("", err.Error(), ErrInvalidYAML)
	}
	if ev == nil {
		return nil, NewParseError("", "unexpected end of YAML stream", ErrInvalidYAML)
	}
	return ev, nil
}

// nextValue returns the next event with aliases resolved: an alias at a
// value position replays the anchored subtree, so callers always see the
// subtree's own events.
func (p *parser) nextValue() (*Event, error) {
	for {
		ev, err := p.next()
		if err != nil {
			return nil, err
		}
		if ev.Kind != EventAlias {
			return ev, nil
		}
		if !p.r.replay(ev) {
			p.diags.AddError(&ev.Start, "unresolvable alias *%s", ev.Anchor)
			return nil, NewParseError("", "unresolvable alias", ErrInvalidYAML)
		}
	}
}

// =============================================================================
// Stream and Root
// =============================================================================

func (p *parser) parseStream() (*ComposeFile, error) {
	ev, err := p.next()
	if err != nil {
		return nil, err
	}
	if ev.Kind != EventStreamStart {
		return nil, NewParseError("", "expected stream start", ErrInvalidYAML)
	}

	ev, err = p.next()
	if err != nil {
		return nil, err
	}
	if ev.Kind == EventStreamEnd {
		return nil, NewParseError("", "compose document is empty", ErrEmptyInput)
	}
	if ev.Kind != EventDocumentStart {
		return nil, NewParseError("", "expected document start", ErrInvalidYAML)
	}

	ev, err = p.nextValue()
	if err != nil {
		return nil, err
	}
	if ev.Kind == EventDocumentEnd {
		return nil, NewParseError("", "compose document is empty", ErrEmptyInput)
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "compose document root must be a mapping, found %s", ev.Kind)
		return nil, NewParseError("", "root is not a mapping", ErrInvalidStructure)
	}

	file, err := p.parseRoot()
	if err != nil {
		return nil, err
	}

	// Drain the remainder of the stream; extra documents are ignored with a
	// warning since a compose file is a single document.
	for {
		ev, err := p.next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventStreamEnd:
			return file, nil
		case EventDocumentStart:
			p.diags.AddWarning(&ev.Start, "ignoring additional YAML document")
			if err := p.skipDocument(); err != nil {
				return nil, err
			}
		}
	}
}

// skipDocument consumes events until the current document ends.
func (p *parser) skipDocument() error {
	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case EventDocumentEnd:
			return nil
		case EventMappingStart, EventSequenceStart:
			if err := p.skipFrom(ev); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseRoot() (*ComposeFile, error) {
	file := &ComposeFile{}

	for {
		ev, err := p.next()
		if err != nil {
			return nil, err
		}
		if ev.Kind == EventMappingEnd {
			return file, nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected scalar key at document root, found %s", ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return nil, err
			}
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}

		key := string(ev.Value)
		switch key {
		case "services":
			if err := p.parseServices(file); err != nil {
				return nil, err
			}
		case "volumes":
			if err := p.parseTopLevelVolumes(file); err != nil {
				return nil, err
			}
		case "networks":
			if err := p.parseTopLevelNetworks(file); err != nil {
				return nil, err
			}
		case "name":
			if name, ok, err := p.readString(key); err != nil {
				return nil, err
			} else if ok {
				file.Name = name
			}
		case "version":
			// Obsolete; consumed silently.
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		default:
			if !(p.opts.silentExtensions && strings.HasPrefix(key, "x-")) {
				p.diags.AddWarning(&ev.Start, "unknown key: %s", key)
			}
			if err := p.skipValue(); err != nil {
				return nil, err
			}
		}
	}
}

// =============================================================================
// Services
// =============================================================================

func (p *parser) parseServices(file *ComposeFile) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "services must be a mapping, found %s", ev.Kind)
		return p.skipFrom(ev)
	}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			return nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected service name, found %s", ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		svc, err := p.parseService(string(ev.Value))
		if err != nil {
			return err
		}
		if svc != nil {
			file.Services = append(file.Services, *svc)
		}
	}
}

func (p *parser) parseService(name string) (*Service, error) {
	ev, err := p.nextValue()
	if err != nil {
		return nil, err
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "service %s must be a mapping, found %s", name, ev.Kind)
		return nil, p.skipFrom(ev)
	}

	svc := &Service{
		Name:            name,
		Restart:         RestartPolicy{Policy: RestartNo},
		StopGracePeriod: DefaultStopGracePeriod,
	}

	for {
		ev, err := p.next()
		if err != nil {
			return nil, err
		}
		if ev.Kind == EventMappingEnd {
			return svc, nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected key in service %s, found %s", name, ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return nil, err
			}
			if err := p.skipValue(); err != nil {
				return nil, err
			}
			continue
		}

		if err := p.parseServiceKey(svc, string(ev.Value), ev); err != nil {
			return nil, err
		}
	}
}

func (p *parser) parseServiceKey(svc *Service, key string, keyEv *Event) error {
	switch key {
	case "image":
		return p.assignString(key, &svc.Image)
	case "ports":
		return p.parsePorts(svc)
	case "environment":
		env, err := p.parseKeyValues(key, true)
		if err != nil {
			return err
		}
		if env != nil {
			svc.Environment = env
		}
		return nil
	case "depends_on":
		return p.parseDependsOn(svc)
	case "healthcheck":
		return p.parseHealthcheck(svc)
	case "volumes":
		return p.parseServiceVolumes(svc)
	case "command":
		return p.assignStringList(key, &svc.Command, true)
	case "entrypoint":
		return p.assignStringList(key, &svc.Entrypoint, true)
	case "working_dir":
		return p.assignString(key, &svc.WorkingDir)
	case "user":
		return p.assignString(key, &svc.User)
	case "container_name":
		return p.assignString(key, &svc.ContainerName)
	case "hostname":
		return p.assignString(key, &svc.Hostname)
	case "domainname":
		return p.assignString(key, &svc.Domainname)
	case "restart":
		return p.parseRestart(svc)
	case "init":
		return p.assignBool(key, &svc.Init)
	case "read_only":
		return p.assignBool(key, &svc.ReadOnly)
	case "privileged":
		return p.assignBool(key, &svc.Privileged)
	case "stop_signal":
		return p.assignString(key, &svc.StopSignal)
	case "stop_grace_period":
		ev, ok, err := p.readScalar(key)
		if err != nil || !ok {
			return err
		}
		d, perr := ParseDuration(string(ev.Value))
		if perr != nil {
			p.diags.AddError(&ev.Start, "invalid duration for %s: %q", key, ev.Value)
			return nil
		}
		svc.StopGracePeriod = d
		return nil
	case "expose":
		return p.assignStringList(key, &svc.Expose, true)
	case "dns":
		return p.assignStringList(key, &svc.DNS, true)
	case "dns_search":
		return p.assignStringList(key, &svc.DNSSearch, true)
	case "extra_hosts":
		return p.assignStringList(key, &svc.ExtraHosts, true)
	case "cap_add":
		return p.assignStringList(key, &svc.CapAdd, true)
	case "cap_drop":
		return p.assignStringList(key, &svc.CapDrop, true)
	case "networks":
		return p.assignStringList(key, &svc.Networks, true)
	case "labels":
		labels, err := p.parseKeyValues(key, false)
		if err != nil {
			return err
		}
		if labels != nil {
			svc.Labels = labels
		}
		return nil
	case "env_file":
		return p.assignStringList(key, &svc.EnvFile, true)
	case "mem_limit":
		return p.assignByteSize(key, &svc.MemLimit)
	case "mem_reservation":
		return p.assignByteSize(key, &svc.MemReservation)
	case "cpus":
		ev, ok, err := p.readScalar(key)
		if err != nil || !ok {
			return err
		}
		f, perr := strconv.ParseFloat(string(ev.Value), 64)
		if perr != nil {
			p.diags.AddError(&ev.Start, "invalid number for %s: %q", key, ev.Value)
			return nil
		}
		svc.CPUs = f
		return nil
	case "pids_limit":
		ev, ok, err := p.readScalar(key)
		if err != nil || !ok {
			return err
		}
		n, perr := strconv.ParseInt(string(ev.Value), 10, 64)
		if perr != nil {
			p.diags.AddError(&ev.Start, "invalid number for %s: %q", key, ev.Value)
			return nil
		}
		svc.PidsLimit = n
		return nil
	case "logging":
		return p.parseLogging(svc)
	default:
		p.diags.AddWarning(&keyEv.Start, "unknown key: %s", key)
		return p.skipValue()
	}
}

// =============================================================================
// Service Fields
// =============================================================================

func (p *parser) parsePorts(svc *Service) error {
	items, err := p.readStringList("ports", true)
	if err != nil {
		return err
	}
	for _, item := range items {
		port, perr := ParsePort(item.value)
		if perr != nil {
			p.diags.AddError(&item.pos, "invalid port %q: %v", item.value, perr)
			continue
		}
		svc.Ports = append(svc.Ports, port)
	}
	return nil
}

func (p *parser) parseServiceVolumes(svc *Service) error {
	items, err := p.readStringList("volumes", true)
	if err != nil {
		return err
	}
	for _, item := range items {
		mount, perr := ParseVolumeMount(item.value)
		if perr != nil {
			p.diags.AddError(&item.pos, "invalid volume %q: %v", item.value, perr)
			continue
		}
		svc.Volumes = append(svc.Volumes, mount)
	}
	return nil
}

func (p *parser) parseRestart(svc *Service) error {
	ev, ok, err := p.readScalar("restart")
	if err != nil || !ok {
		return err
	}
	value := string(ev.Value)
	policy := ParseRestartPolicy(value)
	if p.opts.warnUnknownRestart && policy.Policy == RestartNo && value != "no" &&
		!strings.HasPrefix(value, "on-failure:") {
		p.diags.AddWarning(&ev.Start, "unknown restart policy: %s", value)
	}
	svc.Restart = policy
	return nil
}

// parseKeyValues handles the dual mapping/sequence form shared by
// environment and labels. In list form, "KEY=VALUE" items are split on the
// first '='. Environment interpolates list values and warns on items
// without '='; labels store list values verbatim and keep items without '='
// with an empty value.
func (p *parser) parseKeyValues(field string, isEnvironment bool) (*Dict, error) {
	ev, err := p.nextValue()
	if err != nil {
		return nil, err
	}

	dict := NewDict()

	switch ev.Kind {
	case EventMappingStart:
		for {
			ev, err := p.next()
			if err != nil {
				return nil, err
			}
			if ev.Kind == EventMappingEnd {
				return dict, nil
			}
			if ev.Kind != EventScalar {
				p.diags.AddError(&ev.Start, "expected scalar key in %s, found %s", field, ev.Kind)
				if err := p.skipFrom(ev); err != nil {
					return nil, err
				}
				if err := p.skipValue(); err != nil {
					return nil, err
				}
				continue
			}
			name := string(ev.Value)

			val, err := p.nextValue()
			if err != nil {
				return nil, err
			}
			if val.Kind != EventScalar {
				p.diags.AddWarning(&val.Start, "expected scalar value for %s entry %s", field, name)
				if err := p.skipFrom(val); err != nil {
					return nil, err
				}
				continue
			}
			expanded, ierr := Interpolate(string(val.Value), p.env)
			if ierr != nil {
				p.diags.AddError(&val.Start, "in %s entry %s: %v", field, name, ierr)
				continue
			}
			dict.Set(name, expanded)
		}

	case EventSequenceStart:
		for {
			ev, err := p.nextValue()
			if err != nil {
				return nil, err
			}
			if ev.Kind == EventSequenceEnd {
				return dict, nil
			}
			if ev.Kind != EventScalar {
				p.diags.AddError(&ev.Start, "expected scalar item in %s, found %s", field, ev.Kind)
				if err := p.skipFrom(ev); err != nil {
					return nil, err
				}
				continue
			}

			item := string(ev.Value)
			name, value, found := strings.Cut(item, "=")
			if isEnvironment {
				if !found {
					p.diags.AddWarning(&ev.Start, "%s entry %q has no '='", field, item)
					continue
				}
				expanded, ierr := Interpolate(value, p.env)
				if ierr != nil {
					p.diags.AddError(&ev.Start, "in environment entry %s: %v", name, ierr)
					continue
				}
				dict.Set(name, expanded)
			} else {
				// Labels are literal metadata; no interpolation in list form.
				dict.Set(name, value)
			}
		}

	default:
		p.diags.AddError(&ev.Start, "%s must be a mapping or a sequence, found %s", field, ev.Kind)
		return nil, p.skipFrom(ev)
	}
}

func (p *parser) parseDependsOn(svc *Service) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}

	switch ev.Kind {
	case EventSequenceStart:
		for {
			ev, err := p.nextValue()
			if err != nil {
				return err
			}
			if ev.Kind == EventSequenceEnd {
				return nil
			}
			if ev.Kind != EventScalar {
				p.diags.AddError(&ev.Start, "expected service name in depends_on, found %s", ev.Kind)
				if err := p.skipFrom(ev); err != nil {
					return err
				}
				continue
			}
			svc.DependsOn = append(svc.DependsOn, Dependency{
				Service:   string(ev.Value),
				Condition: ConditionStarted,
			})
		}

	case EventMappingStart:
		for {
			ev, err := p.next()
			if err != nil {
				return err
			}
			if ev.Kind == EventMappingEnd {
				return nil
			}
			if ev.Kind != EventScalar {
				p.diags.AddError(&ev.Start, "expected service name in depends_on, found %s", ev.Kind)
				if err := p.skipFrom(ev); err != nil {
					return err
				}
				if err := p.skipValue(); err != nil {
					return err
				}
				continue
			}

			dep := Dependency{Service: string(ev.Value), Condition: ConditionStarted}
			if err := p.parseDependencyBody(&dep); err != nil {
				return err
			}
			svc.DependsOn = append(svc.DependsOn, dep)
		}

	default:
		p.diags.AddError(&ev.Start, "depends_on must be a mapping or a sequence, found %s", ev.Kind)
		return p.skipFrom(ev)
	}
}

func (p *parser) parseDependencyBody(dep *Dependency) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind == EventScalar {
		// A null body keeps the default condition.
		return nil
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "depends_on entry for %s must be a mapping, found %s", dep.Service, ev.Kind)
		return p.skipFrom(ev)
	}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			return nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected key in depends_on entry, found %s", ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		if string(ev.Value) != "condition" {
			p.diags.AddWarning(&ev.Start, "unknown key: %s", ev.Value)
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		val, ok, err := p.readScalar("condition")
		if err != nil || !ok {
			return err
		}
		cond, known := ParseCondition(string(val.Value))
		if !known {
			p.diags.AddWarning(&val.Start, "unknown depends_on condition: %s", val.Value)
			continue
		}
		dep.Condition = cond
	}
}

func (p *parser) parseHealthcheck(svc *Service) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "healthcheck must be a mapping, found %s", ev.Kind)
		return p.skipFrom(ev)
	}

	hc := NewHealthcheck()

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			svc.Healthcheck = hc
			return nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected key in healthcheck, found %s", ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		key := string(ev.Value)
		switch key {
		case "test":
			// Test commands are stored verbatim; no interpolation and no
			// shell tokenization.
			if err := p.assignStringList(key, &hc.Test, false); err != nil {
				return err
			}
		case "interval":
			if err := p.assignDuration(key, &hc.Interval); err != nil {
				return err
			}
		case "timeout":
			if err := p.assignDuration(key, &hc.Timeout); err != nil {
				return err
			}
		case "start_period":
			if err := p.assignDuration(key, &hc.StartPeriod); err != nil {
				return err
			}
		case "retries":
			val, ok, err := p.readScalar(key)
			if err != nil || !ok {
				return err
			}
			n, perr := strconv.Atoi(string(val.Value))
			if perr != nil {
				p.diags.AddError(&val.Start, "invalid number for %s: %q", key, val.Value)
				continue
			}
			hc.Retries = n
		default:
			p.diags.AddWarning(&ev.Start, "unknown key: %s", key)
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseLogging(svc *Service) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "logging must be a mapping, found %s", ev.Kind)
		return p.skipFrom(ev)
	}

	logging := &Logging{}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			svc.Logging = logging
			return nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected key in logging, found %s", ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		key := string(ev.Value)
		switch key {
		case "driver":
			if err := p.assignString(key, &logging.Driver); err != nil {
				return err
			}
		case "options":
			opts, err := p.parseKeyValues("logging options", true)
			if err != nil {
				return err
			}
			if opts != nil {
				logging.Options = opts
			}
		default:
			p.diags.AddWarning(&ev.Start, "unknown key: %s", key)
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

// =============================================================================
// Top-Level Volumes and Networks
// =============================================================================

func (p *parser) parseTopLevelVolumes(file *ComposeFile) error {
	return p.parseNamedEntries("volumes", func(name string) error {
		vol := Volume{Name: name}
		if err := p.parseVolumeBody(&vol); err != nil {
			return err
		}
		file.Volumes = append(file.Volumes, vol)
		return nil
	})
}

func (p *parser) parseTopLevelNetworks(file *ComposeFile) error {
	return p.parseNamedEntries("networks", func(name string) error {
		net := Network{Name: name}
		if err := p.parseNetworkBody(&net); err != nil {
			return err
		}
		file.Networks = append(file.Networks, net)
		return nil
	})
}

// parseNamedEntries reads a mapping of name to entry body, invoking parse
// for each name with the cursor on the body value.
func (p *parser) parseNamedEntries(field string, parse func(name string) error) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind != EventMappingStart {
		p.diags.AddError(&ev.Start, "%s must be a mapping, found %s", field, ev.Kind)
		return p.skipFrom(ev)
	}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			return nil
		}
		if ev.Kind != EventScalar {
			p.diags.AddError(&ev.Start, "expected name in %s, found %s", field, ev.Kind)
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}
		if err := parse(string(ev.Value)); err != nil {
			return err
		}
	}
}

func (p *parser) parseVolumeBody(vol *Volume) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind == EventScalar {
		// Bare "name:" entry with a null body.
		return nil
	}
	if ev.Kind != EventMappingStart {
		return p.skipFrom(ev)
	}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			return nil
		}
		if ev.Kind != EventScalar {
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		switch string(ev.Value) {
		case "driver":
			if err := p.assignString("driver", &vol.Driver); err != nil {
				return err
			}
		case "external":
			if err := p.assignBool("external", &vol.External); err != nil {
				return err
			}
		case "labels":
			labels, err := p.parseKeyValues("labels", false)
			if err != nil {
				return err
			}
			if labels != nil {
				vol.Labels = labels
			}
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

func (p *parser) parseNetworkBody(net *Network) error {
	ev, err := p.nextValue()
	if err != nil {
		return err
	}
	if ev.Kind == EventScalar {
		return nil
	}
	if ev.Kind != EventMappingStart {
		return p.skipFrom(ev)
	}

	for {
		ev, err := p.next()
		if err != nil {
			return err
		}
		if ev.Kind == EventMappingEnd {
			return nil
		}
		if ev.Kind != EventScalar {
			if err := p.skipFrom(ev); err != nil {
				return err
			}
			if err := p.skipValue(); err != nil {
				return err
			}
			continue
		}

		switch string(ev.Value) {
		case "driver":
			if err := p.assignString("driver", &net.Driver); err != nil {
				return err
			}
		case "external":
			if err := p.assignBool("external", &net.External); err != nil {
				return err
			}
		case "internal":
			if err := p.assignBool("internal", &net.Internal); err != nil {
				return err
			}
		case "labels":
			labels, err := p.parseKeyValues("labels", false)
			if err != nil {
				return err
			}
			if labels != nil {
				net.Labels = labels
			}
		default:
			if err := p.skipValue(); err != nil {
				return err
			}
		}
	}
}

// =============================================================================
// Scalar Helpers
// =============================================================================

// readScalar reads the value for key and requires a scalar. A non-scalar
// value is reported as an error diagnostic, skipped, and ok is false.
func (p *parser) readScalar(key string) (ev *Event, ok bool, err error) {
	ev, err = p.nextValue()
	if err != nil {
		return nil, false, err
	}
	if ev.Kind != EventScalar {
		p.diags.AddError(&ev.Start, "expected scalar for %s, found %s", key, ev.Kind)
		return nil, false, p.skipFrom(ev)
	}
	return ev, true, nil
}

// readString reads a scalar value for key and interpolates it.
func (p *parser) readString(key string) (string, bool, error) {
	ev, ok, err := p.readScalar(key)
	if err != nil || !ok {
		return "", false, err
	}
	expanded, ierr := Interpolate(string(ev.Value), p.env)
	if ierr != nil {
		p.diags.AddError(&ev.Start, "in %s: %v", key, ierr)
		return "", false, nil
	}
	return expanded, true, nil
}

func (p *parser) assignString(key string, dst *string) error {
	s, ok, err := p.readString(key)
	if err != nil || !ok {
		return err
	}
	*dst = s
	return nil
}

// assignBool reads a literal boolean scalar; booleans are never
// interpolated.
func (p *parser) assignBool(key string, dst *bool) error {
	ev, ok, err := p.readScalar(key)
	if err != nil || !ok {
		return err
	}
	b, perr := parseBool(string(ev.Value))
	if perr != nil {
		p.diags.AddError(&ev.Start, "invalid boolean for %s: %q", key, ev.Value)
		return nil
	}
	*dst = b
	return nil
}

func (p *parser) assignDuration(key string, dst *time.Duration) error {
	ev, ok, err := p.readScalar(key)
	if err != nil || !ok {
		return err
	}
	d, perr := ParseDuration(string(ev.Value))
	if perr != nil {
		p.diags.AddError(&ev.Start, "invalid duration for %s: %q", key, ev.Value)
		return nil
	}
	*dst = d
	return nil
}

func (p *parser) assignByteSize(key string, dst *int64) error {
	ev, ok, err := p.readScalar(key)
	if err != nil || !ok {
		return err
	}
	n, perr := ParseByteSize(string(ev.Value))
	if perr != nil {
		p.diags.AddError(&ev.Start, "invalid byte size for %s: %q", key, ev.Value)
		return nil
	}
	*dst = n
	return nil
}

// positioned pairs a parsed string with where it came from.
type positioned struct {
	value string
	pos   Position
}

// readStringList accepts either a single scalar, stored as a one-element
// list without any splitting, or a sequence of scalars.
func (p *parser) readStringList(key string, interpolate bool) ([]positioned, error) {
	ev, err := p.nextValue()
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case EventScalar:
		item, ok := p.listItem(key, ev, interpolate)
		if !ok {
			return nil, nil
		}
		return []positioned{item}, nil

	case EventSequenceStart:
		var items []positioned
		for {
			ev, err := p.nextValue()
			if err != nil {
				return nil, err
			}
			if ev.Kind == EventSequenceEnd {
				return items, nil
			}
			if ev.Kind != EventScalar {
				p.diags.AddError(&ev.Start, "expected scalar item in %s, found %s", key, ev.Kind)
				if err := p.skipFrom(ev); err != nil {
					return nil, err
				}
				continue
			}
			if item, ok := p.listItem(key, ev, interpolate); ok {
				items = append(items, item)
			}
		}

	default:
		p.diags.AddError(&ev.Start, "%s must be a scalar or a sequence, found %s", key, ev.Kind)
		return nil, p.skipFrom(ev)
	}
}

func (p *parser) listItem(key string, ev *Event, interpolate bool) (positioned, bool) {
	value := string(ev.Value)
	if interpolate {
		expanded, err := Interpolate(value, p.env)
		if err != nil {
			p.diags.AddError(&ev.Start, "in %s: %v", key, err)
			return positioned{}, false
		}
		value = expanded
	}
	return positioned{value: value, pos: ev.Start}, true
}

func (p *parser) assignStringList(key string, dst *[]string, interpolate bool) error {
	items, err := p.readStringList(key, interpolate)
	if err != nil {
		return err
	}
	if items == nil {
		return nil
	}
	values := make([]string, len(items))
	for i, item := range items {
		values[i] = item.value
	}
	*dst = values
	return nil
}

// parseBool interprets YAML boolean scalars.
func parseBool(s string) (bool, error) {
	switch s {
	case "true", "True", "TRUE", "yes", "Yes", "YES", "on", "On", "ON":
		return true, nil
	case "false", "False", "FALSE", "no", "No", "NO", "off", "Off", "OFF":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// =============================================================================
// Subtree Skipping
// =============================================================================

// skipValue reads the next event and discards the whole value it begins:
// scalars and aliases are done immediately, collections are consumed until
// their matching close event.
func (p *parser) skipValue() error {
	ev, err := p.next()
	if err != nil {
		return err
	}
	return p.skipFrom(ev)
}

// skipFrom discards the rest of the value whose first event is ev.
func (p *parser) skipFrom(ev *Event) error {
	switch ev.Kind {
	case EventScalar, EventAlias:
		return nil
	case EventMappingStart, EventSequenceStart:
		depth := 1
		for depth > 0 {
			ev, err := p.next()
			if err != nil {
				return err
			}
			switch ev.Kind {
			case EventMappingStart, EventSequenceStart:
				depth++
			case EventMappingEnd, EventSequenceEnd:
				depth--
			}
		}
		return nil
	default:
		return nil
	}
}
