// Package language holds the closed set of language codes accepted by the
// Google Translate web front end, as listed on translate.google.com on
// 2022-11-15, together with their wire forms.
package language

import (
	"errors"
	"fmt"
	"strings"

	textlang "golang.org/x/text/language"
)

// ErrUnknownLanguage is returned by Parse for input outside the catalog.
var ErrUnknownLanguage = errors.New("unknown language")

// LanguageCode identifies one catalog entry. The zero value is Auto.
// Values outside the catalog cannot be constructed by other packages.
type LanguageCode struct {
	id uint8
}

type entry struct {
	ident string
	wire  string
	name  string
}

var catalog []entry

func register(ident, name string) LanguageCode {
	catalog = append(catalog, entry{
		ident: ident,
		wire:  strings.ReplaceAll(ident, "_", "-"),
		name:  name,
	})
	return LanguageCode{id: uint8(len(catalog) - 1)}
}

// Auto must stay first so that the zero value means source detection.
var (
	Auto               = register("auto", "Detect language")
	Afrikaans          = register("af", "Afrikaans")
	Albanian           = register("sq", "Albanian")
	Amharic            = register("am", "Amharic")
	Arabic             = register("ar", "Arabic")
	Armenian           = register("hy", "Armenian")
	Assamese           = register("as", "Assamese")
	Aymara             = register("ay", "Aymara")
	Azerbaijani        = register("az", "Azerbaijani")
	Bambara            = register("bm", "Bambara")
	Basque             = register("eu", "Basque")
	Belarusian         = register("be", "Belarusian")
	Bengali            = register("bn", "Bengali")
	Bhojpuri           = register("bho", "Bhojpuri")
	Bosnian            = register("bs", "Bosnian")
	Bulgarian          = register("bg", "Bulgarian")
	Catalan            = register("ca", "Catalan")
	Cebuano            = register("ceb", "Cebuano")
	Chichewa           = register("ny", "Chichewa")
	ChineseSimplified  = register("zh_CN", "Chinese (Simplified)")
	ChineseTraditional = register("zh_TW", "Chinese (Traditional)")
	Corsican           = register("co", "Corsican")
	Croatian           = register("hr", "Croatian")
	Czech              = register("cs", "Czech")
	Danish             = register("da", "Danish")
	Dhivehi            = register("dv", "Dhivehi")
	Dogri              = register("doi", "Dogri")
	Dutch              = register("nl", "Dutch")
	English            = register("en", "English")
	Esperanto          = register("eo", "Esperanto")
	Estonian           = register("et", "Estonian")
	Ewe                = register("ee", "Ewe")
	Filipino           = register("tl", "Filipino")
	Finnish            = register("fi", "Finnish")
	French             = register("fr", "French")
	Frisian            = register("fy", "Frisian")
	Galician           = register("gl", "Galician")
	Georgian           = register("ka", "Georgian")
	German             = register("de", "German")
	Greek              = register("el", "Greek")
	Guarani            = register("gn", "Guarani")
	Gujarati           = register("gu", "Gujarati")
	HaitianCreole      = register("ht", "Haitian Creole")
	Hausa              = register("ha", "Hausa")
	Hawaiian           = register("haw", "Hawaiian")
	Hebrew             = register("iw", "Hebrew")
	Hindi              = register("hi", "Hindi")
	Hmong              = register("hmn", "Hmong")
	Hungarian          = register("hu", "Hungarian")
	Icelandic          = register("is", "Icelandic")
	Igbo               = register("ig", "Igbo")
	Ilocano            = register("ilo", "Ilocano")
	Indonesian         = register("id", "Indonesian")
	Irish              = register("ga", "Irish")
	Italian            = register("it", "Italian")
	Japanese           = register("ja", "Japanese")
	Javanese           = register("jw", "Javanese")
	Kannada            = register("kn", "Kannada")
	Kazakh             = register("kk", "Kazakh")
	Khmer              = register("km", "Khmer")
	Kinyarwanda        = register("rw", "Kinyarwanda")
	Konkani            = register("gom", "Konkani")
	Korean             = register("ko", "Korean")
	Krio               = register("kri", "Krio")
	KurdishKurmanji    = register("ku", "Kurdish (Kurmanji)")
	KurdishSorani      = register("ckb", "Kurdish (Sorani)")
	Kyrgyz             = register("ky", "Kyrgyz")
	Lao                = register("lo", "Lao")
	Latin              = register("la", "Latin")
	Latvian            = register("lv", "Latvian")
	Lingala            = register("ln", "Lingala")
	Lithuanian         = register("lt", "Lithuanian")
	Luganda            = register("lg", "Luganda")
	Luxembourgish      = register("lb", "Luxembourgish")
	Macedonian         = register("mk", "Macedonian")
	Maithili           = register("mai", "Maithili")
	Malagasy           = register("mg", "Malagasy")
	Malay              = register("ms", "Malay")
	Malayalam          = register("ml", "Malayalam")
	Maltese            = register("mt", "Maltese")
	Maori              = register("mi", "Maori")
	Marathi            = register("mr", "Marathi")
	Meiteilon          = register("mni_Mtei", "Meiteilon (Manipuri)")
	Mizo               = register("lus", "Mizo")
	Mongolian          = register("mn", "Mongolian")
	Myanmar            = register("my", "Myanmar (Burmese)")
	Nepali             = register("ne", "Nepali")
	Norwegian          = register("no", "Norwegian")
	Odia               = register("or", "Odia (Oriya)")
	Oromo              = register("om", "Oromo")
	Pashto             = register("ps", "Pashto")
	Persian            = register("fa", "Persian")
	Polish             = register("pl", "Polish")
	Portuguese         = register("pt", "Portuguese")
	Punjabi            = register("pa", "Punjabi")
	Quechua            = register("qu", "Quechua")
	Romanian           = register("ro", "Romanian")
	Russian            = register("ru", "Russian")
	Samoan             = register("sm", "Samoan")
	Sanskrit           = register("sa", "Sanskrit")
	ScotsGaelic        = register("gd", "Scots Gaelic")
	Sepedi             = register("nso", "Sepedi")
	Serbian            = register("sr", "Serbian")
	Sesotho            = register("st", "Sesotho")
	Shona              = register("sn", "Shona")
	Sindhi             = register("sd", "Sindhi")
	Sinhala            = register("si", "Sinhala")
	Slovak             = register("sk", "Slovak")
	Slovenian          = register("sl", "Slovenian")
	Somali             = register("so", "Somali")
	Spanish            = register("es", "Spanish")
	Sundanese          = register("su", "Sundanese")
	Swahili            = register("sw", "Swahili")
	Swedish            = register("sv", "Swedish")
	Tajik              = register("tg", "Tajik")
	Tamil              = register("ta", "Tamil")
	Tatar              = register("tt", "Tatar")
	Telugu             = register("te", "Telugu")
	Thai               = register("th", "Thai")
	Tigrinya           = register("ti", "Tigrinya")
	Tsonga             = register("ts", "Tsonga")
	Turkish            = register("tr", "Turkish")
	Turkmen            = register("tk", "Turkmen")
	Twi                = register("ak", "Twi")
	Ukrainian          = register("uk", "Ukrainian")
	Urdu               = register("ur", "Urdu")
	Uyghur             = register("ug", "Uyghur")
	Uzbek              = register("uz", "Uzbek")
	Vietnamese         = register("vi", "Vietnamese")
	Welsh              = register("cy", "Welsh")
	Xhosa              = register("xh", "Xhosa")
	Yiddish            = register("yi", "Yiddish")
	Yoruba             = register("yo", "Yoruba")
	Zulu               = register("zu", "Zulu")
)

// String returns the catalog identifier, e.g. "zh_CN".
func (c LanguageCode) String() string {
	return catalog[c.id].ident
}

// WireForm returns the code as the remote service expects it, e.g. "zh-CN".
func (c LanguageCode) WireForm() string {
	return catalog[c.id].wire
}

// Name returns the English display name.
func (c LanguageCode) Name() string {
	return catalog[c.id].name
}

// IsAuto reports whether c requests source language detection.
func (c LanguageCode) IsAuto() bool {
	return c == Auto
}

// All returns every catalog entry, Auto first.
func All() []LanguageCode {
	codes := make([]LanguageCode, len(catalog))
	for i := range catalog {
		codes[i] = LanguageCode{id: uint8(i)}
	}
	return codes
}

var (
	matcher      textlang.Matcher
	matcherTags  []textlang.Tag
	matcherCodes []LanguageCode
)

// macroAliases maps individual languages the catalog only carries as their
// macrolanguage.
var macroAliases = map[string]LanguageCode{
	"nb": Norwegian,
	"nn": Norwegian,
}

func init() {
	for i, e := range catalog {
		tag, err := textlang.Parse(e.wire)
		if err != nil {
			// "auto" is not a BCP-47 tag.
			continue
		}
		matcherTags = append(matcherTags, tag)
		matcherCodes = append(matcherCodes, LanguageCode{id: uint8(i)})
	}
	matcher = textlang.NewMatcher(matcherTags)
}

// Parse resolves s to a catalog entry. Identifiers ("zh_CN") and wire forms
// ("zh-CN") match case-insensitively. Any other well-formed BCP-47 tag is
// matched against the catalog and accepted only when the match has the same
// base language, so "de-AT" resolves to German while "tlh" is rejected.
func Parse(s string) (LanguageCode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Auto, fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}
	for i, e := range catalog {
		if strings.EqualFold(s, e.ident) || strings.EqualFold(s, e.wire) {
			return LanguageCode{id: uint8(i)}, nil
		}
	}

	tag, err := textlang.Parse(s)
	if err != nil {
		return Auto, fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	base := baseOf(tag)
	if c, ok := macroAliases[base]; ok {
		return c, nil
	}
	_, idx, conf := matcher.Match(tag)
	if conf < textlang.High || baseOf(matcherTags[idx]) != base {
		return Auto, fmt.Errorf("%w: %q", ErrUnknownLanguage, s)
	}
	return matcherCodes[idx], nil
}

// baseOf returns the base language of t with deprecated codes such as "iw"
// and "jw" replaced by their current form.
func baseOf(t textlang.Tag) string {
	if c, err := textlang.Deprecated.Canonicalize(t); err == nil {
		t = c
	}
	b, _ := t.Base()
	return b.String()
}
