package lexer

import "testing"

func collectTypes(t *testing.T, input string) []TokenType {
	t.Helper()
	l := New(input)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == TokenEOF {
			break
		}
		if tok.Type == TokenIllegal {
			t.Fatalf("illegal token %q at %d:%d", tok.Literal, tok.Line, tok.Column)
		}
	}
	return types
}

func assertTypes(t *testing.T, input string, want []TokenType) {
	t.Helper()
	got := collectTypes(t, input)
	if len(got) != len(want) {
		t.Fatalf("token count mismatch for %q: got %v, want %v", input, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d mismatch for %q: got %s, want %s", i, input, got[i], want[i])
		}
	}
}

func TestOperators(t *testing.T) {
	assertTypes(t, "+ - * / = == != < > <= >= ! && || ?? >>", []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenAssign, TokenEqual,
		TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual,
		TokenBang, TokenAndAnd, TokenOrOr, TokenQuestionQuestion, TokenPipeline,
		TokenEOF,
	})
}

func TestCompoundAssignment(t *testing.T) {
	assertTypes(t, "+= -= *= /=", []TokenType{
		TokenPlusAssign, TokenMinusAssign, TokenStarAssign, TokenSlashAssign,
		TokenEOF,
	})
}

func TestKeywords(t *testing.T) {
	assertTypes(t, "let if else while return and or from import as true false null", []TokenType{
		TokenLet, TokenIf, TokenElse, TokenWhile, TokenReturn, TokenAnd, TokenOr,
		TokenFrom, TokenImport, TokenAs, TokenTrue, TokenFalse, TokenNull,
		TokenEOF,
	})
}

func TestIdentifiersAndNumbers(t *testing.T) {
	l := New("count 3 3.5 _hidden")
	tok := l.NextToken()
	if tok.Type != TokenIdentifier || tok.Literal != "count" {
		t.Fatalf("got %v", tok)
	}
	tok = l.NextToken()
	if tok.Type != TokenNumber || tok.Literal != "3" {
		t.Fatalf("got %v", tok)
	}
	tok = l.NextToken()
	if tok.Type != TokenNumber || tok.Literal != "3.5" {
		t.Fatalf("got %v", tok)
	}
	tok = l.NextToken()
	if tok.Type != TokenIdentifier || tok.Literal != "_hidden" {
		t.Fatalf("got %v", tok)
	}
}

func TestStringLiterals(t *testing.T) {
	for _, quote := range []string{`'hi'`, `"hi"`} {
		l := New(quote)
		tok := l.NextToken()
		if tok.Type != TokenString || tok.Literal != "hi" {
			t.Fatalf("quote %s: got %v", quote, tok)
		}
	}
}

func TestFormatStringSplices(t *testing.T) {
	l := New("`hello ${name}!`")
	tok := l.NextToken()
	if tok.Type != TokenFormatString {
		t.Fatalf("got %v", tok)
	}
	if len(tok.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d: %+v", len(tok.Parts), tok.Parts)
	}
	if tok.Parts[0].Literal != "hello " || tok.Parts[0].IsSplice {
		t.Fatalf("part 0: %+v", tok.Parts[0])
	}
	if !tok.Parts[1].IsSplice || tok.Parts[1].Splice != "name" {
		t.Fatalf("part 1: %+v", tok.Parts[1])
	}
	if tok.Parts[2].Literal != "!" || tok.Parts[2].IsSplice {
		t.Fatalf("part 2: %+v", tok.Parts[2])
	}
}

func TestIndentationBlocks(t *testing.T) {
	input := "if x\n    return 1\nreturn 2"
	types := collectTypes(t, input)

	want := []TokenType{
		TokenIf, TokenIdentifier, TokenEndOfLine,
		TokenBlockStart, TokenReturn, TokenNumber, TokenEndOfLine,
		TokenBlockEnd, TokenReturn, TokenNumber,
		TokenEOF,
	}
	if len(types) != len(want) {
		t.Fatalf("got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (all: %v)", i, types[i], want[i], types)
		}
	}
}

func TestCommentsAreIgnored(t *testing.T) {
	assertTypes(t, "let x = 1 // a trailing comment\n", []TokenType{
		TokenLet, TokenIdentifier, TokenAssign, TokenNumber, TokenEndOfLine, TokenEOF,
	})
}

func TestNegativeNumberIsMinusThenNumber(t *testing.T) {
	assertTypes(t, "-1", []TokenType{TokenMinus, TokenNumber, TokenEOF})
}

func TestTokenizeReportsIllegalToken(t *testing.T) {
	l := New("@")
	_, err := l.Tokenize()
	if err == nil {
		t.Fatal("expected an error for an illegal token")
	}
}
