package handlers

import (
	"net/http"

	"magiceraser/internal/mask"
	"magiceraser/internal/middleware"
)

type brushBounds struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Default int `json:"default"`
}

// Messages returns the UI strings for the request locale.
func (a *App) Messages(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	a.json(w, http.StatusOK, map[string]any{
		"locale":    a.I18N.Match(locale),
		"supported": a.I18N.Supported(),
		"messages":  a.I18N.Messages(locale),
		"brush":     brushBounds{Min: mask.MinBrush, Max: mask.MaxBrush, Default: mask.DefaultBrush},
	})
}
