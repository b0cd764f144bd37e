package common

import (
	"context"
	"fmt"
	"log"

	"hbs/src/config"
	"hbs/src/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// UpdateMissingSlugs fills in slugs for programs that were inserted straight
// into the database. The id suffix keeps slugs unique when titles collide.
func UpdateMissingSlugs(ctx context.Context, db *gorm.DB) (int, error) {
	var programs []models.Program
	if err := db.WithContext(ctx).
		Model(&models.Program{}).
		Where("slug IS NULL OR slug = ''").
		Preload("Translations").
		Find(&programs).
		Error; err != nil {
		log.Printf("Error querying Programs: %s\n", err.Error())
		return 0, err
	}
	def := config.DefaultLanguage()
	updated := 0
	for i := range programs {
		p := &programs[i]
		base := slug.Make(p.Title(def, def))
		if base == "" {
			base = "program"
		}
		if err := db.WithContext(ctx).
			Model(&models.Program{}).
			Where("id = ?", p.ID).
			Update("slug", fmt.Sprintf("%s-%d", base, p.ID)).
			Error; err != nil {
			log.Printf("Error updating slug for program %d: %s\n", p.ID, err.Error())
			return updated, err
		}
		updated++
	}
	if updated > 0 {
		log.Printf("Generated slugs for %d program(s)\n", updated)
	}
	return updated, nil
}
