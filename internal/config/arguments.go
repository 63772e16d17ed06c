package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ArgKind tags the closed set of argument variants a stage may reference.
type ArgKind uint8

const (
	// ArgParam is a reference to a named parameter buffer.
	ArgParam ArgKind = iota
	// ArgLiteral is a numeric or boolean constant written in the document.
	ArgLiteral
	// ArgDatabase is a key resolved against the analysis-parameter
	// database once at build time and frozen as a constant.
	ArgDatabase
)

func (k ArgKind) String() string {
	switch k {
	case ArgParam:
		return "parameter"
	case ArgLiteral:
		return "literal"
	case ArgDatabase:
		return "database"
	default:
		return "unknown"
	}
}

// Argument is one lexed stage argument. Tokens are analyzed once at load
// time into this tagged form; nothing re-parses argument strings at run
// time.
type Argument struct {
	Kind ArgKind
	// Raw is the original token, kept for error messages.
	Raw string
	// Name is the referenced parameter name for ArgParam.
	Name string
	// Key is the database key for ArgDatabase, without the db. prefix.
	Key string
	// Literal holds the constant for ArgLiteral.
	Literal cty.Value
}

// dbPrefix marks a token as a database lookup by lexical convention.
const dbPrefix = "db."

// ParseArgument lexes one argument token. A bare identifier references a
// parameter; a number or true/false is a literal constant; a db.-prefixed
// token names a database key.
func ParseArgument(raw string) (Argument, error) {
	tok := strings.TrimSpace(raw)
	if tok == "" {
		return Argument{}, fmt.Errorf("empty argument token")
	}
	if strings.HasPrefix(tok, dbPrefix) {
		key := tok[len(dbPrefix):]
		if key == "" {
			return Argument{}, fmt.Errorf("argument %q: database reference has no key", raw)
		}
		return Argument{Kind: ArgDatabase, Raw: tok, Key: key}, nil
	}
	if tok == "true" || tok == "false" {
		return Argument{Kind: ArgLiteral, Raw: tok, Literal: cty.BoolVal(tok == "true")}, nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return Argument{Kind: ArgLiteral, Raw: tok, Literal: cty.NumberFloatVal(f)}, nil
	}
	if isIdentifier(tok) {
		return Argument{Kind: ArgParam, Raw: tok, Name: tok}, nil
	}
	return Argument{}, fmt.Errorf("argument %q: not a parameter name, literal, or db. reference", raw)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
