package l10n

import "golang.org/x/text/language"

// Source is the authoring language of the deal documents; Secondary is the
// counterparty-side language. Every human-facing text the engine emits
// carries both.
var (
	Source    = language.English
	Secondary = language.Korean
)

// Languages lists the emitted language variants, source first.
var Languages = []language.Tag{Source, Secondary}

// Text is a per-language string value keyed by BCP 47 tag. language.Tag
// implements encoding.TextMarshaler, so Text serializes as {"en": ..., "ko": ...}.
type Text map[language.Tag]string

// Pair builds a Text with the English and Korean variants.
func Pair(en, ko string) Text {
	return Text{Source: en, Secondary: ko}
}

// In returns the variant for the given tag, falling back to the source
// language when the variant is missing.
func (t Text) In(tag language.Tag) string {
	if v, ok := t[tag]; ok {
		return v
	}
	return t[Source]
}
