// Package i18n arma los textos de notificación en los idiomas soportados (en, tr).
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"rosie/internal/domain/mood"
	"rosie/internal/ports/notify"
)

var supported = []language.Tag{language.English, language.Turkish}

type entry struct {
	key string
	en  string
	tr  string
}

var entries = []entry{
	{"state.happy.title", "%[1]s is happy!", "%[1]s çok mutlu!"},
	{"state.happy.body", "Thanks for taking care of %[1]s.", "%[1]s ile ilgilendiğin için teşekkürler."},
	{"state.hungry.title", "%[1]s is hungry", "%[1]s acıktı"},
	{"state.hungry.body", "%[1]s could use a snack.", "%[1]s bir atıştırmalık istiyor."},
	{"state.bored.title", "%[1]s is bored", "%[1]s sıkıldı"},
	{"state.bored.body", "%[1]s wants to play with you.", "%[1]s seninle oynamak istiyor."},
	{"state.tired.title", "%[1]s is tired", "%[1]s yoruldu"},
	{"state.tired.body", "%[1]s needs some rest.", "%[1]s biraz dinlenmeli."},

	{"reminder.title", "%[1]s misses you", "%[1]s seni özledi"},
	{"reminder.hungry.body", "%[1]s will be hungry soon.", "%[1]s birazdan acıkacak."},
	{"reminder.bored.body", "%[1]s will get bored soon.", "%[1]s birazdan sıkılacak."},
	{"reminder.tired.body", "%[1]s will be tired soon.", "%[1]s birazdan yorulacak."},
}

// Catalog implementa petsync.Messages.
type Catalog struct {
	cat     catalog.Catalog
	matcher language.Matcher
}

func New() (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range entries {
		if err := b.SetString(language.English, e.key, e.en); err != nil {
			return nil, err
		}
		if err := b.SetString(language.Turkish, e.key, e.tr); err != nil {
			return nil, err
		}
	}
	return &Catalog{cat: b, matcher: language.NewMatcher(supported)}, nil
}

// MustNew es New para wiring en main/tests.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

// Tag resuelve el idioma soportado más cercano (default en).
func (c *Catalog) Tag(lang string) language.Tag {
	t, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, _ := c.matcher.Match(t)
	return supported[idx]
}

func (c *Catalog) printer(lang string) *message.Printer {
	return message.NewPrinter(c.Tag(lang), message.Catalog(c.cat))
}

func (c *Catalog) StateChanged(lang, petName string, st mood.State) notify.Notification {
	p := c.printer(lang)
	return notify.Notification{
		Title: p.Sprintf("state."+string(st)+".title", petName),
		Body:  p.Sprintf("state."+string(st)+".body", petName),
		Data:  map[string]string{"kind": "state", "state": string(st)},
	}
}

func (c *Catalog) Reminder(lang, petName string, need mood.State) notify.Notification {
	p := c.printer(lang)
	return notify.Notification{
		Title: p.Sprintf("reminder.title", petName),
		Body:  p.Sprintf("reminder."+string(need)+".body", petName),
		Data:  map[string]string{"kind": "reminder", "state": string(need)},
	}
}
