package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Event Reader Tests
// =============================================================================

// drain collects every event until the stream ends.
func drain(t *testing.T, r *Reader) []Event {
	t.Helper()
	var events []Event
	for {
		ev, err := r.Next()
		require.NoError(t, err)
		if ev == nil {
			return events
		}
		events = append(events, *ev)
	}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestReader_ScalarDocument(t *testing.T) {
	r := NewReader([]byte("hello\n"))
	defer r.Close()

	events := drain(t, r)
	assert.Equal(t, []EventKind{
		EventStreamStart,
		EventDocumentStart,
		EventScalar,
		EventDocumentEnd,
		EventStreamEnd,
	}, kinds(events))

	scalar := events[2]
	assert.Equal(t, "hello", string(scalar.Value))
	assert.Equal(t, StylePlain, scalar.Style)
	assert.Equal(t, 0, scalar.Start.Line)
	assert.Equal(t, 0, scalar.Start.Column)
	assert.Equal(t, 0, scalar.Start.Offset)
}

func TestReader_MappingAndSequence(t *testing.T) {
	input := "services:\n  - web\n  - db\n"
	r := NewReader([]byte(input))
	defer r.Close()

	events := drain(t, r)
	assert.Equal(t, []EventKind{
		EventStreamStart,
		EventDocumentStart,
		EventMappingStart,
		EventScalar, // services
		EventSequenceStart,
		EventScalar, // web
		EventScalar, // db
		EventSequenceEnd,
		EventMappingEnd,
		EventDocumentEnd,
		EventStreamEnd,
	}, kinds(events))

	key := events[3]
	assert.Equal(t, "services", string(key.Value))
	assert.Equal(t, 0, key.Start.Line)

	web := events[5]
	assert.Equal(t, "web", string(web.Value))
	assert.Equal(t, 1, web.Start.Line)
	assert.Equal(t, 4, web.Start.Column)
}

func TestReader_ScalarStyles(t *testing.T) {
	input := "plain: value\n" +
		"single: 'quoted'\n" +
		"double: \"quoted\"\n" +
		"literal: |\n  line\n" +
		"folded: >\n  line\n"
	r := NewReader([]byte(input))
	defer r.Close()

	styles := map[string]ScalarStyle{}
	events := drain(t, r)
	for i := 0; i < len(events); i++ {
		if events[i].Kind == EventScalar && i+1 < len(events) && events[i+1].Kind == EventScalar {
			styles[string(events[i].Value)] = events[i+1].Style
			i++
		}
	}

	assert.Equal(t, StylePlain, styles["plain"])
	assert.Equal(t, StyleSingleQuoted, styles["single"])
	assert.Equal(t, StyleDoubleQuoted, styles["double"])
	assert.Equal(t, StyleLiteral, styles["literal"])
	assert.Equal(t, StyleFolded, styles["folded"])
}

func TestReader_AnchorsAndAliases(t *testing.T) {
	input := "base: &common\n  image: nginx\nother: *common\n"
	r := NewReader([]byte(input))
	defer r.Close()

	events := drain(t, r)

	var anchored *Event
	var alias *Event
	for i := range events {
		if events[i].Anchor == "common" {
			switch events[i].Kind {
			case EventMappingStart:
				anchored = &events[i]
			case EventAlias:
				alias = &events[i]
			}
		}
	}

	require.NotNil(t, anchored, "anchor carried on the defining event")
	require.NotNil(t, alias, "alias event references the anchor")
	assert.Equal(t, 2, alias.Start.Line)
}

func TestReader_AliasReplay(t *testing.T) {
	input := "base: &common\n  image: nginx\nother: *common\n"
	r := NewReader([]byte(input))
	defer r.Close()

	for {
		ev, err := r.Next()
		require.NoError(t, err)
		require.NotNil(t, ev)
		if ev.Kind == EventAlias {
			require.True(t, r.replay(ev))
			break
		}
	}

	// The replayed subtree delivers the anchored mapping again.
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventMappingStart, ev.Kind)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, EventScalar, ev.Kind)
	assert.Equal(t, "image", string(ev.Value))
}

func TestReader_MultiDocument(t *testing.T) {
	input := "---\nfirst: 1\n---\nsecond: 2\n"
	r := NewReader([]byte(input))
	defer r.Close()

	events := drain(t, r)

	docStarts := 0
	for _, ev := range events {
		if ev.Kind == EventDocumentStart {
			docStarts++
		}
	}
	assert.Equal(t, 2, docStarts)
}

func TestReader_MalformedYAML(t *testing.T) {
	r := NewReader([]byte("key: \"unclosed\n"))
	defer r.Close()

	var err error
	for {
		var ev *Event
		ev, err = r.Next()
		if err != nil || ev == nil {
			break
		}
	}

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
	require.NotNil(t, r.Err())
}

func TestReader_ErrorIsSticky(t *testing.T) {
	r := NewReader([]byte("key: [\n"))
	defer r.Close()

	var first error
	for {
		ev, err := r.Next()
		if err != nil {
			first = err
			break
		}
		require.NotNil(t, ev)
	}
	require.Error(t, first)

	_, err := r.Next()
	assert.Equal(t, first, err)
}

func TestReader_EmptyInput(t *testing.T) {
	r := NewReader(nil)
	defer r.Close()

	events := drain(t, r)
	assert.Equal(t, []EventKind{EventStreamStart, EventStreamEnd}, kinds(events))
}

func TestReader_InputCopied(t *testing.T) {
	buf := []byte("key: value\n")
	r := NewReader(buf)
	defer r.Close()

	// Clobber the caller's buffer; the reader must be unaffected.
	for i := range buf {
		buf[i] = 'x'
	}

	events := drain(t, r)
	var values []string
	for _, ev := range events {
		if ev.Kind == EventScalar {
			values = append(values, string(ev.Value))
		}
	}
	assert.Equal(t, []string{"key", "value"}, values)
}
