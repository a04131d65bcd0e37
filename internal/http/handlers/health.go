package handlers

import (
	"net/http"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	editorName := ""
	if a.Editor != nil {
		editorName = a.Editor.Name()
	}
	a.json(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"editor":   editorName,
		"sessions": a.Sessions.Len(),
	})
}
