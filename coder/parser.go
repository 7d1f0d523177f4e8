package coder

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// Grammar names the reply grammar that produced a block.
type Grammar string

const (
	GrammarNone  Grammar = ""
	GrammarTag   Grammar = "tag"
	GrammarFence Grammar = "fence"
)

// Tag grammar: <KIND file_name='NAME'>BODY</KIND>. The closing tag must
// repeat KIND, which needs a back-reference and so regexp2 rather than RE2.
// The \'NAME\' alternative covers replies that escape their quotes.
var tagPattern = regexp2.MustCompile(
	`<(?<kind>code|cmd|output) file_name=(?:['"](?<name>[^'"]+)['"]|\\'(?<escname>[^\\]+)\\')>(?<body>.*?)</\k<kind>>`,
	regexp2.Singleline)

// Fence grammar: ```KIND\nBODY```.
var fencePattern = regexp2.MustCompile("```(?<kind>.*?)\n(?<body>.*?)```", regexp2.Singleline)

// matcher is one reply grammar.
type matcher interface {
	grammar() Grammar
	match(reply string) []CodeBlock
}

type regexpMatcher struct {
	name Grammar
	re   *regexp2.Regexp
}

func (m regexpMatcher) grammar() Grammar { return m.name }

func (m regexpMatcher) match(reply string) []CodeBlock {
	var blocks []CodeBlock
	// regexp2 only returns an error on match timeout, and no timeout is set.
	match, err := m.re.FindStringMatch(reply)
	for err == nil && match != nil {
		block := CodeBlock{
			Kind: groupText(match, "kind"),
			Body: groupText(match, "body"),
		}
		if m.name == GrammarTag {
			block.FileName = groupText(match, "name")
			if block.FileName == "" {
				block.FileName = groupText(match, "escname")
			}
		}
		blocks = append(blocks, block)
		match, err = m.re.FindNextMatch(match)
	}
	return blocks
}

func groupText(m *regexp2.Match, name string) string {
	if g := m.GroupByName(name); g != nil {
		return g.String()
	}
	return ""
}

// Parser extracts code blocks from replies by trying its grammars in order.
type Parser struct {
	matchers []matcher
}

// NewParser returns a parser that tries the tag grammar, then the fence grammar.
func NewParser() *Parser {
	return &Parser{matchers: []matcher{
		regexpMatcher{name: GrammarTag, re: tagPattern},
		regexpMatcher{name: GrammarFence, re: fencePattern},
	}}
}

var defaultParser = NewParser()

// Extract returns every block matched by the first grammar that matches at
// all, and which grammar that was. ok is false when nothing matched.
func (p *Parser) Extract(reply string) (blocks []CodeBlock, grammar Grammar, ok bool) {
	for _, m := range p.matchers {
		if blocks := m.match(reply); len(blocks) > 0 {
			return blocks, m.grammar(), true
		}
	}
	return nil, GrammarNone, false
}

// Extract runs the default parser.
func Extract(reply string) ([]CodeBlock, Grammar, bool) {
	return defaultParser.Extract(reply)
}

// ParseKind discriminates ParseResult.
type ParseKind int

const (
	ParseNoMatch ParseKind = iota
	ParseStructured
	ParseFreeform
)

func (k ParseKind) String() string {
	switch k {
	case ParseStructured:
		return "structured"
	case ParseFreeform:
		return "freeform"
	default:
		return "no_match"
	}
}

// ParseResult is the interpretation of one reply.
type ParseResult struct {
	Kind    ParseKind
	Grammar Grammar
	Blocks  []CodeBlock // set for ParseStructured
	Text    string      // the raw reply
}

// First returns the block callers act on. Later blocks are never inspected.
func (r ParseResult) First() (CodeBlock, bool) {
	if r.Kind != ParseStructured || len(r.Blocks) == 0 {
		return CodeBlock{}, false
	}
	return r.Blocks[0], true
}

// Interpret classifies reply as structured, freeform, or empty.
func (p *Parser) Interpret(reply string) ParseResult {
	if blocks, grammar, ok := p.Extract(reply); ok {
		return ParseResult{Kind: ParseStructured, Grammar: grammar, Blocks: blocks, Text: reply}
	}
	if strings.TrimSpace(reply) == "" {
		return ParseResult{Kind: ParseNoMatch, Text: reply}
	}
	return ParseResult{Kind: ParseFreeform, Text: reply}
}
