package hospital

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/medicare/backend/internal/model/hospital"
	"github.com/zhouzirui/medicare/backend/pkg/utils"
)

// Handler 医院目录的HTTP处理器
type Handler struct {
	hospitals hospital.Store
}

// New 创建医院目录处理器
func New(hospitals hospital.Store) *Handler {
	return &Handler{
		hospitals: hospitals,
	}
}

// RegisterRoutes 注册医院相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/hospitals", h.handleListHospitals)
	r.Post("/hospitals/search", h.handleSearchHospitals)
}

// handleListHospitals 列出全部医院
func (h *Handler) handleListHospitals(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{"hospitals": h.hospitals.List()})
}

// handleSearchHospitals 按专科筛选医院
func (h *Handler) handleSearchHospitals(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Specialty string `json:"specialty"`
	}
	if err := utils.DecodeJSON(w, r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"hospitals": h.hospitals.Search(payload.Specialty)})
}
