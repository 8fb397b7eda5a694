package saf

// Unit attribute names of the reserved layers.
const (
	AttrID              = "id"
	AttrWord            = "word"
	AttrSentence        = "sentence"
	AttrOffset          = "offset"
	AttrPOS             = "pos"
	AttrLemma           = "lemma"
	AttrPOSConfidence   = "pos-confidence"
	AttrLemmaConfidence = "lemma-confidence"

	AttrParent     = "parent"
	AttrChild      = "child"
	AttrRelation   = "relation"
	AttrConfidence = "confidence"
)

// Token is a typed view of a unit in the tokens layer. Attributes missing from
// the unit, or of an unexpected type, are left at their zero value.
type Token struct {
	ID       any
	Word     string
	Sentence any // nil when the token carries no sentence
	// Offset is the character position, scoped to the sentence when Sentence
	// is set and to the document otherwise.
	Offset          *int64
	POS             any
	Lemma           string
	POSConfidence   *float64
	LemmaConfidence *float64

	// Unit is the record the view was read from; nil for tokens built in code.
	Unit *Object
}

// Float returns a pointer to v, for the optional confidence fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for Token.Offset.
func Int(v int64) *int64 { return &v }

// TokenFromObject reads a token unit.
func TokenFromObject(u *Object) Token {
	t := Token{Unit: u}
	t.ID, _ = u.Get(AttrID)
	t.Word, _ = u.String(AttrWord)
	t.Sentence, _ = u.Get(AttrSentence)
	if v, ok := u.Get(AttrOffset); ok {
		if i, ok := asInt(v); ok {
			t.Offset = &i
		}
	}
	t.POS, _ = u.Get(AttrPOS)
	t.Lemma, _ = u.String(AttrLemma)
	t.POSConfidence = floatAttr(u, AttrPOSConfidence)
	t.LemmaConfidence = floatAttr(u, AttrLemmaConfidence)
	return t
}

// Key returns the canonical id key of the token.
func (t Token) Key() string {
	k, _ := idKey(t.ID)
	return k
}

// SentenceKey returns the canonical key of the token's sentence, or "" when
// the token has none.
func (t Token) SentenceKey() string {
	k, _ := idKey(t.Sentence)
	return k
}

// Object returns the wire form of the token. When the token was read from a
// unit, that unit is copied and the typed fields written over it, so unknown
// attributes survive.
func (t Token) Object() *Object {
	o := NewObject()
	if t.Unit != nil {
		o = t.Unit.Clone()
	}
	o.Set(AttrID, t.ID)
	o.Set(AttrWord, t.Word)
	setOptional(o, AttrSentence, t.Sentence)
	if t.Offset != nil {
		o.Set(AttrOffset, *t.Offset)
	}
	setOptional(o, AttrPOS, t.POS)
	if t.Lemma != "" {
		o.Set(AttrLemma, t.Lemma)
	}
	if t.POSConfidence != nil {
		o.Set(AttrPOSConfidence, *t.POSConfidence)
	}
	if t.LemmaConfidence != nil {
		o.Set(AttrLemmaConfidence, *t.LemmaConfidence)
	}
	return o
}

// Dependency is a typed view of a unit in the dependencies layer.
type Dependency struct {
	Parent     any
	Child      any
	Relation   string
	Confidence *float64

	Unit *Object
}

// DependencyFromObject reads a dependency unit.
func DependencyFromObject(u *Object) Dependency {
	d := Dependency{Unit: u}
	d.Parent, _ = u.Get(AttrParent)
	d.Child, _ = u.Get(AttrChild)
	d.Relation, _ = u.String(AttrRelation)
	d.Confidence = floatAttr(u, AttrConfidence)
	return d
}

// Object returns the wire form of the dependency.
func (d Dependency) Object() *Object {
	o := NewObject()
	if d.Unit != nil {
		o = d.Unit.Clone()
	}
	o.Set(AttrParent, d.Parent)
	o.Set(AttrChild, d.Child)
	o.Set(AttrRelation, d.Relation)
	if d.Confidence != nil {
		o.Set(AttrConfidence, *d.Confidence)
	}
	return o
}

// Tokens returns typed views of the tokens layer.
func (d *Document) Tokens() []Token {
	units, _ := d.Layer(LayerTokens)
	out := make([]Token, len(units))
	for i, u := range units {
		out[i] = TokenFromObject(u)
	}
	return out
}

// Dependencies returns typed views of the dependencies layer.
func (d *Document) Dependencies() []Dependency {
	units, _ := d.Layer(LayerDependencies)
	out := make([]Dependency, len(units))
	for i, u := range units {
		out[i] = DependencyFromObject(u)
	}
	return out
}

func floatAttr(u *Object, key string) *float64 {
	v, ok := u.Get(key)
	if !ok {
		return nil
	}
	f, ok := asFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func setOptional(o *Object, key string, v any) {
	if v != nil {
		o.Set(key, v)
	}
}
