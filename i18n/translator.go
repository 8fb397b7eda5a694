// Package i18n renders human messages for SAF issue codes.
package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data fills {placeholders} in the message (for example "attr" or "layer").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogs = map[string]map[string]string{
	"en": {
		"required":           "missing required attribute {attr}",
		"invalid_type":       "{attr} must be of type {expected}",
		"invalid_format":     "{attr} has an invalid format",
		"range":              "{attr} must be within [0,1], got {got}",
		"dangling_reference": "{attr} refers to unknown {layer} id {got}",
		"duplicate_id":       "id {got} is already used in {layer}",
		"duplicate_layer":    "layer {layer} already exists",
		"malformed_layer":    "{layer} must be {expected}, got {got}",
		"duplicate_key":      "duplicate key",
		"parse_error":        "parse error",
		"truncated":          "truncated",
	},
	"ja": {
		"required":           "必須属性 {attr} がありません",
		"invalid_type":       "{attr} の型は {expected} でなければなりません",
		"invalid_format":     "{attr} の形式が不正です",
		"range":              "{attr} は [0,1] の範囲でなければなりません (値: {got})",
		"dangling_reference": "{attr} は {layer} に存在しない id {got} を参照しています",
		"duplicate_id":       "id {got} は {layer} で既に使われています",
		"duplicate_layer":    "レイヤー {layer} は既に存在します",
		"malformed_layer":    "{layer} の値が不正です (期待: {expected}, 実際: {got})",
		"duplicate_key":      "キーが重複しています",
		"parse_error":        "解析エラー",
		"truncated":          "打ち切られました",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, 2*len(data))
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := catalogs[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
