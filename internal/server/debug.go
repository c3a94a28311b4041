package server

import (
	"encoding/json"
	"net/http"

	"github.com/nkprasad12/dnd/internal/engine"
)

// DebugHandler предоставляет read-only доступ к внутреннему состоянию сервера
type DebugHandler struct {
	Service *engine.SyncService
}

func NewDebugHandler(s *engine.SyncService) *DebugHandler {
	return &DebugHandler{Service: s}
}

// RegisterRoutes регистрирует debug-эндпоинты
func (h *DebugHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/boards", h.handleBoards)
	mux.HandleFunc("/debug/directory", h.handleDirectory)
}

// /debug/boards - записи кэша досок с флагами "грязности".
// Полезно, чтобы понять, что именно уйдет в хранилище ближайшим flush-ом.
func (h *DebugHandler) handleBoards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.Cache.Snapshot())
}

// /debug/directory - известные доски, активная доска и число подписчиков
func (h *DebugHandler) handleDirectory(w http.ResponseWriter, r *http.Request) {
	type directoryView struct {
		BoardIDs      []string `json:"board_ids"`
		ActiveBoardID string   `json:"active_board_id"`
		Subscribers   int      `json:"subscribers"`
	}
	writeJSON(w, directoryView{
		BoardIDs:      h.Service.Directory.ListBoardIDs(),
		ActiveBoardID: h.Service.Directory.ActiveBoardID(),
		Subscribers:   h.Service.Hub.SubscriberCount(),
	})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	w.Header().Set("Content-Type", "application/json")

	// Если data == nil (например, пустой кэш), возвращаем [], а не null
	if data == nil {
		w.Write([]byte("[]"))
		return
	}

	json.NewEncoder(w).Encode(data)
}
