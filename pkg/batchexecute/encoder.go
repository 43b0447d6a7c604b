// Package batchexecute speaks the undocumented batched-execute RPC framing used
// by the Google Translate web front end. It only builds request bodies and
// decodes response bodies; the HTTP exchange lives in package transport.
//
// See https://kovatch.medium.com/deciphering-google-batchexecute-74991e4e446c
// for a description of the framing.
package batchexecute

import (
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/dasmlab/batchxlate/pkg/language"
)

const (
	// TranslateRPCID identifies the translate procedure inside the envelope.
	TranslateRPCID = "MkEWBc"

	// envelopeTag is the literal marker closing every RPC entry.
	envelopeTag = "generic"

	// formField is the form field carrying the envelope.
	formField = "f.req"
)

// EncodeRequest builds the form body for translating text from source to
// target:
//
//	f.req=<percent-encoded [[["MkEWBc","[[text,src,tgt,true],[1]]",null,"generic"]]]>&
//
// The inner array travels as a JSON string inside the outer array, so its
// quotes and backslashes are escaped a second time. Identical input always
// yields identical bytes.
func EncodeRequest(text string, source, target language.LanguageCode) []byte {
	inner := mustMarshal([]interface{}{
		[]interface{}{text, source.WireForm(), target.WireForm(), true},
		[]interface{}{1},
	})

	envelope := mustMarshal([]interface{}{
		[]interface{}{
			[]interface{}{TranslateRPCID, inner, nil, envelopeTag},
		},
	})

	var b strings.Builder
	b.Grow(len(formField) + 2 + len(envelope)*3)
	b.WriteString(formField)
	b.WriteByte('=')
	b.WriteString(formEscape(envelope))
	b.WriteByte('&')
	return []byte(b.String())
}

// mustMarshal encodes v as compact JSON without HTML escaping. Only strings,
// numbers, booleans and nil reach it, none of which can fail to encode.
func mustMarshal(v interface{}) string {
	out, err := sonic.ConfigDefault.MarshalToString(v)
	if err != nil {
		panic("batchexecute: marshal envelope: " + err.Error())
	}
	return out
}

// formEscape percent-encodes everything outside A-Z a-z 0-9 - _ . ~ and
// writes spaces as %20, the way the web front end does.
func formEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
