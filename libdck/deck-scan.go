package libdck

import (
	"fmt"
	"strings"

	"github.com/pytrnsys/godck/dck"
)

// Block kinds
const (
	BlockConstants = "CONSTANTS"
	BlockEquations = "EQUATIONS"
)

// SourceLine is a line of deck text and its one-based line number.
type SourceLine struct {
	Num  int
	Text string
}

// Block is a CONSTANTS or EQUATIONS block and the declaration lines it announced.
type Block struct {
	Kind  string
	Line  int
	Count int
	Decls []SourceLine
}

// ScanBlocks finds every CONSTANTS and EQUATIONS block in a deck.
// Everything outside those blocks (units, parameters, simulation cards, ...) is skipped.
func ScanBlocks(deckText string) ([]Block, []dck.Diagnostic) {
	var (
		blocks []Block
		diags  []dck.Diagnostic
	)

	lines := splitLines(deckText)
	for i := 0; i < len(lines); i++ {
		text := lines[i]
		kind, isHeader := blockKind(text)
		if !isHeader {
			continue
		}

		lineNum := i + 1
		hdr, err := ParseBlockHeader(text)
		if err != nil {
			diags = append(diags, dck.Diagnostic{
				Kind:    dck.MalformedBlock,
				Line:    lineNum,
				Message: fmt.Sprintf("%v %q: %v", dck.ErrBadBlockHeader, strings.TrimSpace(text), err),
			})
			continue
		}

		blk := Block{
			Kind:  kind,
			Line:  lineNum,
			Count: hdr.Count,
		}

		j := i + 1
		for ; j < len(lines) && len(blk.Decls) < blk.Count; j++ {
			trimmed := strings.TrimSpace(lines[j])
			if isBlankOrComment(trimmed) {
				continue
			}
			if !strings.Contains(stripComment(trimmed), "=") {
				break
			}
			blk.Decls = append(blk.Decls, SourceLine{Num: j + 1, Text: lines[j]})
		}

		if len(blk.Decls) < blk.Count {
			diags = append(diags, dck.Diagnostic{
				Kind:    dck.MalformedBlock,
				Line:    lineNum,
				Message: fmt.Sprintf("%s block announces %d declarations but only %d follow", kind, blk.Count, len(blk.Decls)),
			})
		}

		blocks = append(blocks, blk)
		i = j - 1
	}

	return blocks, diags
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// blockKind reports if a line opens a block.  A line holding '=' is a declaration even if its name is "constants".
func blockKind(line string) (string, bool) {
	code := stripComment(line)
	fields := strings.Fields(code)
	if len(fields) == 0 || strings.Contains(code, "=") {
		return "", false
	}
	kind := strings.ToUpper(fields[0])
	switch kind {
	case BlockConstants, BlockEquations:
		return kind, true
	}
	return "", false
}

// isBlankOrComment: '*' starts a comment card, '!' starts a comment anywhere.
func isBlankOrComment(trimmed string) bool {
	return trimmed == "" || trimmed[0] == '*' || trimmed[0] == '!'
}

func stripComment(line string) string {
	if idx := strings.IndexByte(line, '!'); idx >= 0 {
		return line[:idx]
	}
	return line
}
