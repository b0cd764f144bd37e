package models

import (
	"strings"

	"hbs/src/config"
	"hbs/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Program struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	Slug     string  `gorm:"uniqueIndex;not null" json:"slug"`
	Price    float64 `json:"price"`
	Currency string  `gorm:"size:3;default:'jpy'" json:"currency"`
	// Duration in minutes.
	Duration int    `json:"duration,omitempty"`
	Location string `json:"location,omitempty"`
	Capacity uint   `json:"capacity,omitempty"`
	Active   bool   `gorm:"default:true" json:"active"`

	Translations []ProgramTranslation `gorm:"foreignKey:program_id" json:"translations,omitempty"`

	types.Timestamps
}

type ProgramTranslation struct {
	ID          uint    `gorm:"primarykey" json:"-"`
	ProgramID   uint    `gorm:"uniqueIndex:idx_program_lang" json:"-"`
	Language    string  `gorm:"uniqueIndex:idx_program_lang;size:8" json:"language"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (p *Program) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		def := config.DefaultLanguage()
		p.Slug = slug.Make(p.Title(def, def))
	}
	return nil
}

// Translation returns the requested language, then the fallback language, then nil.
func (p *Program) Translation(lang, fallback string) *ProgramTranslation {
	var def *ProgramTranslation
	for i := range p.Translations {
		t := &p.Translations[i]
		switch {
		case strings.EqualFold(t.Language, lang):
			return t
		case strings.EqualFold(t.Language, fallback):
			def = t
		}
	}
	return def
}

// Title is empty when neither language has a translation.
func (p *Program) Title(lang, fallback string) string {
	if t := p.Translation(lang, fallback); t != nil {
		return t.Title
	}
	return ""
}

type LocalizedProgram struct {
	ID          uint    `json:"id"`
	Slug        string  `json:"slug"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	Duration    int     `json:"duration,omitempty"`
	Location    string  `json:"location,omitempty"`
	Language    string  `json:"language"`
}

func (p *Program) Localize(lang, fallback string) LocalizedProgram {
	out := LocalizedProgram{
		ID:       p.ID,
		Slug:     p.Slug,
		Price:    p.Price,
		Currency: p.Currency,
		Duration: p.Duration,
		Location: p.Location,
		Language: fallback,
	}
	if t := p.Translation(lang, fallback); t != nil {
		out.Title = t.Title
		out.Description = t.Description
		out.Language = t.Language
	}
	return out
}
