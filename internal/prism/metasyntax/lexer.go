// Package metasyntax implements the grammar source reader: a hand-written
// lexer and recursive-descent parser over the grammar declaration surface
// syntax (rule declarations, expression sugar, and annotations), producing a
// grammarval.File. It is grounded on internal/ictiobus/lex's regex-driven
// tokenizer in spirit (a table of ordered patterns tried at the current
// position) but hand-rolled rather than table-generated, since this
// grammar's surface syntax is small and fixed rather than user-supplied.
package metasyntax

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/prismlang/prism/internal/prism/input"
)

type tokenKind int

const (
	tEOF tokenKind = iota
	tIdent
	tString
	tCharClass
	tNumber
	tPunct
)

type token struct {
	kind tokenKind
	text string
	pos  input.Pos
}

// tokenPatterns are tried in order at each position; the first match wins.
// Grounded on internal/ictiobus/lex.Lexer's ordered-pattern-table approach.
var tokenPatterns = []struct {
	kind tokenKind
	re   *regexp.Regexp
}{
	{tString, regexp.MustCompile(`^"(\\.|[^"\\])*"`)},
	{tCharClass, regexp.MustCompile(`^\[(\\.|[^\]\\])*\]`)},
	{tNumber, regexp.MustCompile(`^[0-9]+`)},
	{tIdent, regexp.MustCompile(`^(inf|[#@$]?[A-Za-z_][A-Za-z0-9_]*)`)},
	{tPunct, regexp.MustCompile(`^(#\[|<-|::|[(){}\[\];,:|*+?=.])`)},
}

var wsOrComment = regexp.MustCompile(`^(\s+|//[^\n]*)`)

// lexer scans a single file's contents into tokens on demand.
type lexer struct {
	files  *input.Table
	file   input.FileID
	src    string
	offset int
}

func newLexer(files *input.Table, file input.FileID) *lexer {
	return &lexer{files: files, file: file, src: files.Contents(file)}
}

func (l *lexer) skipTrivia() {
	for {
		m := wsOrComment.FindString(l.src[l.offset:])
		if m == "" {
			return
		}
		l.offset += len(m)
	}
}

func (l *lexer) next() (token, error) {
	l.skipTrivia()
	pos := input.Pos{File: l.file, Offset: l.offset}
	if l.offset >= len(l.src) {
		return token{kind: tEOF, pos: pos}, nil
	}
	rest := l.src[l.offset:]
	for _, p := range tokenPatterns {
		if m := p.re.FindString(rest); m != "" {
			l.offset += len(m)
			return token{kind: p.kind, text: m, pos: pos}, nil
		}
	}
	return token{}, fmt.Errorf("metasyntax: unrecognized token at %s: %q", pos, rest[:min(10, len(rest))])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// unquote decodes a lexed "..." string literal's escapes, mirroring the
// small escape set internal/ictiobus/lex.Lexer supports for its own string
// tokens (\\, \", \n, \t).
func unquote(lit string) (string, error) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", fmt.Errorf("metasyntax: malformed string literal %q", lit)
	}
	body := lit[1 : len(lit)-1]
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String(), nil
}

// unquoteNumber parses a decimal integer token, or "n"/"m" sentinel "-" for
// unbounded (#repeat's max argument may be the literal "inf").
func unquoteNumber(tok string) (int, error) {
	if tok == "inf" {
		return -1, nil
	}
	return strconv.Atoi(tok)
}
