package orchestrator

import "strings"

// directivePrefix opens an inline dispatch tag produced by the root model.
// The full form is [CALL_SUB_AGENT:<agent>:<query>].
const directivePrefix = "[CALL_SUB_AGENT:"

// Directive is one parsed dispatch tag.
type Directive struct {
	Agent string
	Query string
}

// Segment is one piece of a scanned root response: either plain text or a
// directive. Exactly one of Text and Directive is set.
type Segment struct {
	Text      string
	Directive *Directive
}

// ScanDirectives splits a root response into plain-text and directive
// segments in document order. A prefix without a closing bracket, or a tag
// with an empty agent name, is kept as plain text. The query part may itself
// contain colons; only the first colon after the agent name separates the
// two fields.
func ScanDirectives(text string) []Segment {
	var segments []Segment
	rest := text
	for {
		idx := strings.Index(rest, directivePrefix)
		if idx < 0 {
			break
		}
		end := strings.Index(rest[idx:], "]")
		if end < 0 {
			break
		}
		end += idx

		body := rest[idx+len(directivePrefix) : end]
		agent, query, _ := strings.Cut(body, ":")
		agent = strings.TrimSpace(agent)
		if agent == "" {
			// Malformed tag, emit it verbatim and keep scanning after it.
			segments = appendText(segments, rest[:end+1])
			rest = rest[end+1:]
			continue
		}

		segments = appendText(segments, rest[:idx])
		segments = append(segments, Segment{Directive: &Directive{
			Agent: agent,
			Query: strings.TrimSpace(query),
		}})
		rest = rest[end+1:]
	}
	return appendText(segments, rest)
}

// HasDirectives reports whether text contains at least one dispatch tag.
func HasDirectives(text string) bool {
	for _, s := range ScanDirectives(text) {
		if s.Directive != nil {
			return true
		}
	}
	return false
}

func appendText(segments []Segment, text string) []Segment {
	if text == "" {
		return segments
	}
	return append(segments, Segment{Text: text})
}
