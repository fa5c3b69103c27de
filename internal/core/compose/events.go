package compose

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Event Model
// =============================================================================

// Position is a zero-indexed location in the source input. Line and Column
// are displayed one-indexed by diagnostics. Offset is the byte offset of the
// position within the input; -1 when unknown.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// unknownPosition marks a position the YAML layer could not attribute.
var unknownPosition = Position{Line: -1, Column: -1, Offset: -1}

// EventKind identifies the kind of a YAML event.
type EventKind int

const (
	EventStreamStart EventKind = iota
	EventStreamEnd
	EventDocumentStart
	EventDocumentEnd
	EventMappingStart
	EventMappingEnd
	EventSequenceStart
	EventSequenceEnd
	EventScalar
	EventAlias
)

// String returns the lowercase name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventStreamStart:
		return "stream_start"
	case EventStreamEnd:
		return "stream_end"
	case EventDocumentStart:
		return "document_start"
	case EventDocumentEnd:
		return "document_end"
	case EventMappingStart:
		return "mapping_start"
	case EventMappingEnd:
		return "mapping_end"
	case EventSequenceStart:
		return "sequence_start"
	case EventSequenceEnd:
		return "sequence_end"
	case EventScalar:
		return "scalar"
	case EventAlias:
		return "alias"
	default:
		return "unknown"
	}
}

// ScalarStyle records how a scalar was written in the source.
type ScalarStyle int

const (
	StyleAny ScalarStyle = iota
	StylePlain
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
)

// String returns the lowercase name of the scalar style.
func (s ScalarStyle) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleSingleQuoted:
		return "single_quoted"
	case StyleDoubleQuoted:
		return "double_quoted"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	default:
		return "any"
	}
}

// Event is one element of the YAML event stream. Scalar events carry the
// value bytes; collection starts and scalars carry the anchor and tag when
// present. Alias events carry the referenced anchor name.
type Event struct {
	Kind   EventKind
	Value  []byte
	Anchor string
	Tag    string
	Style  ScalarStyle
	Start  Position
	End    Position

	// target is the anchored subtree an alias refers to. Used by the
	// structural parser to replay the subtree at the alias site.
	target *yaml.Node
}

// =============================================================================
// Reader
// =============================================================================

// Reader turns a YAML byte buffer into a lazy sequence of events. It copies
// the input, so the caller's buffer may be reused after NewReader returns.
// A Reader is single-consumer; concurrent Next calls are not safe.
type Reader struct {
	src         []byte
	lineOffsets []int
	dec         *yaml.Decoder

	stack    []*readerFrame
	started  bool
	inDoc    bool
	ended    bool
	finished bool
	lastErr  *SourceError
}

type readerFrame struct {
	node *yaml.Node
	next int
	open bool
}

// NewReader creates a Reader over a private copy of data.
func NewReader(data []byte) *Reader {
	src := make([]byte, len(data))
	copy(src, data)

	offsets := []int{0}
	for i, b := range src {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}

	return &Reader{
		src:         src,
		lineOffsets: offsets,
		dec:         yaml.NewDecoder(bytes.NewReader(src)),
	}
}

// Err returns the YAML-level error recorded by the last failing Next call,
// or nil if no failure occurred.
func (r *Reader) Err() *SourceError {
	return r.lastErr
}

// Close releases the reader. Events obtained earlier must not be used after
// Close returns.
func (r *Reader) Close() {
	r.stack = nil
	r.dec = nil
	r.src = nil
	r.finished = true
}

// Next returns the next event in source order, or nil after the terminal
// stream_end event. Malformed YAML yields a *SourceError wrapping
// ErrInvalidYAML.
func (r *Reader) Next() (*Event, error) {
	if r.lastErr != nil {
		return nil, r.lastErr
	}
	if r.finished {
		return nil, nil
	}
	if !r.started {
		r.started = true
		return &Event{Kind: EventStreamStart, Start: Position{}, End: Position{}}, nil
	}

	for {
		if len(r.stack) > 0 {
			f := r.stack[len(r.stack)-1]
			switch f.node.Kind {
			case yaml.ScalarNode:
				r.pop()
				return r.scalarEvent(f.node), nil

			case yaml.AliasNode:
				r.pop()
				return r.aliasEvent(f.node), nil

			case yaml.MappingNode, yaml.SequenceNode:
				if !f.open {
					f.open = true
					return r.openEvent(f.node), nil
				}
				if f.next < len(f.node.Content) {
					child := f.node.Content[f.next]
					f.next++
					r.push(child)
					continue
				}
				r.pop()
				return r.closeEvent(f.node), nil

			default:
				// Zero-kind nodes come from empty documents; drop them.
				r.pop()
				continue
			}
		}

		if r.inDoc {
			r.inDoc = false
			return &Event{Kind: EventDocumentEnd, Start: r.endOfInput(), End: r.endOfInput()}, nil
		}
		if r.ended {
			r.finished = true
			return nil, nil
		}

		var doc yaml.Node
		err := r.dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			r.ended = true
			end := r.endOfInput()
			return &Event{Kind: EventStreamEnd, Start: end, End: end}, nil
		}
		if err != nil {
			r.lastErr = newSourceError(err)
			return nil, r.lastErr
		}

		r.inDoc = true
		pos := r.position(&doc)
		if len(doc.Content) > 0 {
			pos = r.position(doc.Content[0])
			r.push(doc.Content[0])
		}
		return &Event{Kind: EventDocumentStart, Start: pos, End: pos}, nil
	}
}

// replay pushes the anchored subtree of an alias event so that subsequent
// Next calls deliver its events again at the alias site.
func (r *Reader) replay(ev *Event) bool {
	if ev == nil || ev.Kind != EventAlias || ev.target == nil {
		return false
	}
	r.push(ev.target)
	return true
}

func (r *Reader) push(n *yaml.Node) {
	r.stack = append(r.stack, &readerFrame{node: n})
}

func (r *Reader) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

// =============================================================================
// Event Construction
// =============================================================================

func (r *Reader) scalarEvent(n *yaml.Node) *Event {
	start := r.position(n)
	return &Event{
		Kind:   EventScalar,
		Value:  []byte(n.Value),
		Anchor: n.Anchor,
		Tag:    n.Tag,
		Style:  scalarStyle(n),
		Start:  start,
		End:    r.scalarEnd(n, start),
	}
}

func (r *Reader) aliasEvent(n *yaml.Node) *Event {
	pos := r.position(n)
	end := pos
	if end.Column >= 0 {
		// "*name" occupies the anchor name plus the leading asterisk.
		end.Column += len(n.Value) + 1
		if end.Offset >= 0 {
			end.Offset += len(n.Value) + 1
		}
	}
	return &Event{
		Kind:   EventAlias,
		Anchor: n.Value,
		Start:  pos,
		End:    end,
		target: n.Alias,
	}
}

func (r *Reader) openEvent(n *yaml.Node) *Event {
	kind := EventMappingStart
	if n.Kind == yaml.SequenceNode {
		kind = EventSequenceStart
	}
	pos := r.position(n)
	return &Event{Kind: kind, Anchor: n.Anchor, Tag: n.Tag, Start: pos, End: pos}
}

func (r *Reader) closeEvent(n *yaml.Node) *Event {
	kind := EventMappingEnd
	if n.Kind == yaml.SequenceNode {
		kind = EventSequenceEnd
	}
	// yaml.v3 does not expose end coordinates; attribute the close to the
	// start of the last child, or the collection start for empty bodies.
	pos := r.position(n)
	if len(n.Content) > 0 {
		pos = r.position(n.Content[len(n.Content)-1])
	}
	return &Event{Kind: kind, Start: pos, End: pos}
}

// scalarEnd estimates the end of a scalar. Exact for single-line plain
// scalars; quoted scalars add the delimiters; block scalars fall back to the
// start position.
func (r *Reader) scalarEnd(n *yaml.Node, start Position) Position {
	if start.Column < 0 || strings.ContainsRune(n.Value, '\n') {
		return start
	}
	width := len(n.Value)
	switch scalarStyle(n) {
	case StyleSingleQuoted, StyleDoubleQuoted:
		width += 2
	case StyleLiteral, StyleFolded:
		return start
	}
	end := start
	end.Column += width
	if end.Offset >= 0 {
		end.Offset += width
	}
	return end
}

func scalarStyle(n *yaml.Node) ScalarStyle {
	switch {
	case n.Style&yaml.SingleQuotedStyle != 0:
		return StyleSingleQuoted
	case n.Style&yaml.DoubleQuotedStyle != 0:
		return StyleDoubleQuoted
	case n.Style&yaml.LiteralStyle != 0:
		return StyleLiteral
	case n.Style&yaml.FoldedStyle != 0:
		return StyleFolded
	default:
		return StylePlain
	}
}

// position converts a node's one-indexed coordinates to a zero-indexed
// Position with byte offset.
func (r *Reader) position(n *yaml.Node) Position {
	if n.Line <= 0 {
		return unknownPosition
	}
	line := n.Line - 1
	col := n.Column - 1
	offset := -1
	if line < len(r.lineOffsets) {
		offset = r.lineOffsets[line] + col
		if offset > len(r.src) {
			offset = len(r.src)
		}
	}
	return Position{Line: line, Column: col, Offset: offset}
}

func (r *Reader) endOfInput() Position {
	line := len(r.lineOffsets) - 1
	return Position{
		Line:   line,
		Column: len(r.src) - r.lineOffsets[line],
		Offset: len(r.src),
	}
}

// =============================================================================
// YAML Error Classification
// =============================================================================

var yamlLineRegexp = regexp.MustCompile(`^yaml: line (\d+):\s*(.*)$`)

// newSourceError extracts the position yaml.v3 embeds in its error text.
func newSourceError(err error) *SourceError {
	msg := err.Error()
	if m := yamlLineRegexp.FindStringSubmatch(msg); m != nil {
		line, convErr := strconv.Atoi(m[1])
		if convErr == nil {
			return &SourceError{
				Message: m[2],
				Pos:     Position{Line: line - 1, Column: -1, Offset: -1},
			}
		}
	}
	return &SourceError{
		Message: strings.TrimPrefix(msg, "yaml: "),
		Pos:     unknownPosition,
	}
}
