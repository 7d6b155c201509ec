// Package editfmt parses the declarative edit format (spec.md §4.4.1): a
// sequence of FILE blocks, each containing REPLACE/INSERT/DELETE operations
// with optional GUARD-CID lines and fenced code blocks.
package editfmt

import (
	"fmt"
	"strconv"
	"strings"

	rerrors "github.com/standardbeagle/rup/internal/errors"
)

// OperationKind tags an EditOperation's variant.
type OperationKind int

const (
	OpReplace OperationKind = iota
	OpInsert
	OpDelete
)

// Operation is one edit operation within a FileBlock.
type Operation struct {
	Kind       OperationKind
	StartLine  int // Replace/Delete: 1-based inclusive start
	EndLine    int // Replace/Delete: 1-based inclusive end
	AtLine     int // Insert: 0 = beginning, N = after line N
	OldContent string
	NewContent string
	GuardCID   string // empty if absent
}

// FileBlock is one "FILE:" section: a path and its operations.
type FileBlock struct {
	Path       string
	Operations []Operation
}

// EditSpec is the full parsed edit specification.
type EditSpec struct {
	FileBlocks []FileBlock
}

// Parse parses the edit-format text in src.
func Parse(src string) (EditSpec, error) {
	p := &parser{lines: splitLinesKeepNone(src)}
	return p.parseSpec()
}

type parser struct {
	lines []string
	pos   int
}

func splitLinesKeepNone(src string) []string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	if src == "" {
		return nil
	}
	return strings.Split(src, "\n")
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.lines) {
		return "", false
	}
	return p.lines[p.pos], true
}

func (p *parser) next() (string, bool) {
	line, ok := p.peek()
	if ok {
		p.pos++
	}
	return line, ok
}

func (p *parser) lineNo() int { return p.pos + 1 }

func (p *parser) skipBlankAndComments() {
	for {
		line, ok := p.peek()
		if !ok {
			return
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.pos++
			continue
		}
		return
	}
}

func (p *parser) parseSpec() (EditSpec, error) {
	var spec EditSpec

	p.skipBlankAndComments()
	for {
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			p.skipBlankAndComments()
			continue
		}
		if !strings.HasPrefix(trimmed, "FILE:") {
			return EditSpec{}, rerrors.InvalidSpec("line %d: expected FILE: directive, got %q", p.lineNo(), trimmed)
		}

		block, err := p.parseFileBlock()
		if err != nil {
			return EditSpec{}, err
		}
		spec.FileBlocks = append(spec.FileBlocks, block)
		p.skipBlankAndComments()
	}

	return spec, nil
}

func (p *parser) parseFileBlock() (FileBlock, error) {
	line, _ := p.next()
	path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "FILE:"))
	if path == "" {
		return FileBlock{}, rerrors.InvalidSpec("line %d: FILE: directive missing path", p.lineNo()-1)
	}

	block := FileBlock{Path: path}

	for {
		p.skipBlankAndComments()
		line, ok := p.peek()
		if !ok {
			break
		}
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "FILE:") {
			break
		}

		op, err := p.parseOperation()
		if err != nil {
			return FileBlock{}, err
		}
		block.Operations = append(block.Operations, op)
	}

	return block, nil
}

func (p *parser) parseOperation() (Operation, error) {
	var guard string

	line, _ := p.peek()
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "GUARD-CID:") {
		guard = strings.TrimSpace(strings.TrimPrefix(trimmed, "GUARD-CID:"))
		p.next()
		p.skipBlankAndComments()
		line, _ = p.peek()
		trimmed = strings.TrimSpace(line)
	}

	switch {
	case strings.HasPrefix(trimmed, "REPLACE lines"):
		return p.parseReplace(guard)
	case strings.HasPrefix(trimmed, "INSERT at"):
		return p.parseInsert()
	case strings.HasPrefix(trimmed, "DELETE lines"):
		return p.parseDelete()
	default:
		return Operation{}, rerrors.InvalidSpec("line %d: unknown directive %q", p.lineNo(), trimmed)
	}
}

func (p *parser) parseReplace(guard string) (Operation, error) {
	line, _ := p.next()
	trimmed := strings.TrimSpace(line)
	spanPart := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(trimmed, "REPLACE lines")), ":")
	start, end, err := parseSpan(spanPart)
	if err != nil {
		return Operation{}, rerrors.InvalidSpec("line %d: %v", p.lineNo()-1, err)
	}

	if err := p.expectDirective("OLD:"); err != nil {
		return Operation{}, err
	}
	oldContent, err := p.parseFencedBlock()
	if err != nil {
		return Operation{}, err
	}

	if err := p.expectDirective("NEW:"); err != nil {
		return Operation{}, err
	}
	newContent, err := p.parseFencedBlock()
	if err != nil {
		return Operation{}, err
	}

	return Operation{
		Kind:       OpReplace,
		StartLine:  start,
		EndLine:    end,
		OldContent: oldContent,
		NewContent: newContent,
		GuardCID:   guard,
	}, nil
}

func (p *parser) parseInsert() (Operation, error) {
	line, _ := p.next()
	trimmed := strings.TrimSpace(line)
	atPart := strings.TrimSuffix(strings.TrimSpace(strings.TrimPrefix(trimmed, "INSERT at")), ":")
	at, err := strconv.Atoi(atPart)
	if err != nil {
		return Operation{}, rerrors.InvalidSpec("line %d: invalid INSERT at value %q", p.lineNo()-1, atPart)
	}

	if err := p.expectDirective("NEW:"); err != nil {
		return Operation{}, err
	}
	newContent, err := p.parseFencedBlock()
	if err != nil {
		return Operation{}, err
	}

	return Operation{Kind: OpInsert, AtLine: at, NewContent: newContent}, nil
}

func (p *parser) parseDelete() (Operation, error) {
	line, _ := p.next()
	trimmed := strings.TrimSpace(line)
	spanPart := strings.TrimSpace(strings.TrimPrefix(trimmed, "DELETE lines"))
	start, end, err := parseSpan(spanPart)
	if err != nil {
		return Operation{}, rerrors.InvalidSpec("line %d: %v", p.lineNo()-1, err)
	}
	return Operation{Kind: OpDelete, StartLine: start, EndLine: end}, nil
}

func (p *parser) expectDirective(directive string) error {
	p.skipBlankAndComments()
	line, ok := p.next()
	if !ok || strings.TrimSpace(line) != directive {
		return rerrors.InvalidSpec("line %d: expected %q", p.lineNo(), directive)
	}
	return nil
}

// parseFencedBlock consumes an opening fence of >=3 backticks (with an
// optional language tag), the content up to a matching closing fence of the
// same backtick count, and returns the content verbatim.
func (p *parser) parseFencedBlock() (string, error) {
	p.skipBlankAndComments()
	line, ok := p.next()
	if !ok {
		return "", rerrors.InvalidSpec("line %d: expected fenced block", p.lineNo())
	}
	trimmed := strings.TrimLeft(line, " \t")
	fenceLen := 0
	for fenceLen < len(trimmed) && trimmed[fenceLen] == '`' {
		fenceLen++
	}
	if fenceLen < 3 {
		return "", rerrors.InvalidSpec("line %d: expected fenced block opening (>=3 backticks)", p.lineNo()-1)
	}

	closing := strings.Repeat("`", fenceLen)
	var contentLines []string
	for {
		cline, ok := p.next()
		if !ok {
			return "", rerrors.InvalidSpec("unterminated fenced block opened at line %d", p.lineNo()-len(contentLines)-1)
		}
		if strings.TrimRight(cline, " \t") == closing {
			break
		}
		contentLines = append(contentLines, cline)
	}

	return strings.Join(contentLines, "\n"), nil
}

func parseSpan(s string) (int, int, error) {
	parts := strings.SplitN(s, "-", 2)
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || start < 1 {
		return 0, 0, fmt.Errorf("invalid span start %q", s)
	}
	if len(parts) == 1 {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || end < start {
		return 0, 0, fmt.Errorf("invalid span %q", s)
	}
	return start, end, nil
}
