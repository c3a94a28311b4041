package api

import "errors"

// Validator - интерфейс, который могут реализовать DTO
type Validator interface {
	Validate() error
}

func (b Board) Validate() error {
	if b.ID == "" {
		return errors.New("board id is required")
	}
	seen := make(map[string]bool, len(b.Tokens))
	for _, t := range b.Tokens {
		if t.ID == "" {
			return errors.New("token id is required")
		}
		if seen[t.ID] {
			return errors.New("duplicate token id: " + t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (d BoardDiff) Validate() error {
	if d.ID == "" {
		return errors.New("diff board id is required")
	}
	for _, t := range d.NewTokens {
		if t.ID == "" {
			return errors.New("new token id is required")
		}
	}
	for _, td := range d.TokenDiffs {
		if td.ID == "" {
			return errors.New("token diff id is required")
		}
	}
	return nil
}
