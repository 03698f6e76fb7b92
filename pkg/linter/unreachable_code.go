package linter

import (
	"github.com/kristofer/bang/pkg/ast"
	"github.com/kristofer/bang/pkg/diagnostic"
)

// noUnreachableCode flags any statement that follows an unconditional
// `return` within the same block — it can never execute.
type noUnreachableCode struct {
	ast.Base
	issues []diagnostic.Diagnostic
}

func newNoUnreachableCode() *noUnreachableCode { return &noUnreachableCode{} }

func (r *noUnreachableCode) EnterStatement(s ast.Statement) {
	block, ok := s.(*ast.Block)
	if !ok {
		return
	}
	seenReturn := false
	for _, stmt := range block.Body {
		if seenReturn {
			if _, isComment := stmt.(*ast.Comment); isComment {
				continue
			}
			r.issues = append(r.issues, diagnostic.Diagnostic{
				Title:   "NoUnreachableCode",
				Message: "this statement can never execute",
				Lines:   []int{lineOf(stmt)},
			})
			continue
		}
		if _, isReturn := stmt.(*ast.Return); isReturn {
			seenReturn = true
		}
	}
}

func (r *noUnreachableCode) Issues() []diagnostic.Diagnostic { return r.issues }
