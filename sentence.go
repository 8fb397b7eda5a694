package saf

import "fmt"

// Sentence is the slice of a document that belongs to one sentence id.
type Sentence struct {
	ID     any
	Tokens []Token
	// Dependencies whose child token is in the sentence, in layer order.
	Dependencies []Dependency

	index map[string]int
}

// Triple is a dependency edge resolved to its tokens: Child -Relation-> Parent.
type Triple struct {
	Child    Token
	Relation string
	Parent   Token
}

// Sentences returns the canonical keys of the sentence ids in order of first
// appearance in the tokens layer. Tokens without a sentence are skipped.
func (d *Document) Sentences() []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range d.Tokens() {
		k := t.SentenceKey()
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// Sentence collects the tokens of sentence id and the dependencies whose child
// is one of them. It fails with ErrSentenceNotFound when no token carries id.
func (d *Document) Sentence(id any) (Sentence, error) {
	key, ok := idKey(id)
	if !ok {
		return Sentence{}, fmt.Errorf("%w: %v", ErrSentenceNotFound, id)
	}
	s := Sentence{ID: id, index: map[string]int{}}
	for _, t := range d.Tokens() {
		if t.SentenceKey() != key {
			continue
		}
		if k := t.Key(); k != "" {
			if _, dup := s.index[k]; !dup {
				s.index[k] = len(s.Tokens)
			}
		}
		s.Tokens = append(s.Tokens, t)
	}
	if len(s.Tokens) == 0 {
		return Sentence{}, fmt.Errorf("%w: %v", ErrSentenceNotFound, id)
	}
	for _, dep := range d.Dependencies() {
		if ck, ok := idKey(dep.Child); ok {
			if _, in := s.index[ck]; in {
				s.Dependencies = append(s.Dependencies, dep)
			}
		}
	}
	return s, nil
}

// Token returns the token of the sentence with the given id.
func (s Sentence) Token(id any) (Token, bool) {
	k, ok := idKey(id)
	if !ok {
		return Token{}, false
	}
	i, ok := s.index[k]
	if !ok {
		return Token{}, false
	}
	return s.Tokens[i], true
}

// Triples resolves the sentence dependencies to tokens. Edges whose parent lies
// outside the sentence are left out.
func (s Sentence) Triples() []Triple {
	out := make([]Triple, 0, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		child, ok := s.Token(dep.Child)
		if !ok {
			continue
		}
		parent, ok := s.Token(dep.Parent)
		if !ok {
			continue
		}
		out = append(out, Triple{Child: child, Relation: dep.Relation, Parent: parent})
	}
	return out
}

// Children returns the tokens attached to parent, in dependency order.
func (s Sentence) Children(parent any) []Token {
	pk, ok := idKey(parent)
	if !ok {
		return nil
	}
	var out []Token
	for _, tr := range s.Triples() {
		if tr.Parent.Key() == pk {
			out = append(out, tr.Child)
		}
	}
	return out
}

// Roots returns the tokens that are never the child of an edge in the
// sentence, in token order.
func (s Sentence) Roots() []Token {
	child := map[string]bool{}
	for _, tr := range s.Triples() {
		child[tr.Child.Key()] = true
	}
	var out []Token
	for _, t := range s.Tokens {
		if !child[t.Key()] {
			out = append(out, t)
		}
	}
	return out
}
