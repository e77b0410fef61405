package server

import "github.com/prismlang/prism/internal/prism/perr"

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /login.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// CreateGrammarRequest is the body of POST /grammars.
type CreateGrammarRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// AdaptGrammarRequest is the body of POST /grammars/{id}/adapt.
type AdaptGrammarRequest struct {
	Source string `json:"source"`
}

// GrammarModel is the JSON shape returned for a stored grammar record.
type GrammarModel struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parentId,omitempty"`
	Created  string  `json:"created"`
	OwnerID  string  `json:"ownerId"`
}

// CreateParseRequest is the body of POST /parses.
type CreateParseRequest struct {
	GrammarID string `json:"grammarId"`
	Rule      string `json:"rule"`
	Input     string `json:"input"`
}

// ParseModel is the JSON shape returned for a stored parse result.
type ParseModel struct {
	ID          string            `json:"id"`
	GrammarID   string            `json:"grammarId"`
	Rule        string            `json:"rule"`
	Result      interface{}       `json:"result,omitempty"`
	Diagnostics []perr.Diagnostic `json:"diagnostics,omitempty"`
	Created     string            `json:"created"`
}

// InfoModel is the body returned by GET /info.
type InfoModel struct {
	Version struct {
		Server string `json:"server"`
		Prism  string `json:"prism"`
	} `json:"version"`
}
