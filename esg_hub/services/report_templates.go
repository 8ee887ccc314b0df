package services

import (
	"errors"
	"fmt"
	"net/http"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/templates"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
)

type ReportTemplateService struct {
	userAuth auth.IdentityProvider
	catalog  *templates.Catalog
}

func (s *ReportTemplateService) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/", s.List)
	r.Get("/{template_id}", s.Get)

	return r
}

func (s *ReportTemplateService) List(w http.ResponseWriter, r *http.Request) {
	utils.WriteJsonResponse(w, s.catalog.List())
}

func (s *ReportTemplateService) Get(w http.ResponseWriter, r *http.Request) {
	templateId, err := utils.URLParam(r, "template_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	template, err := s.catalog.Get(templateId)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, templates.ErrTemplateNotFound) {
			code = http.StatusNotFound
		}
		http.Error(w, fmt.Sprintf("error retrieving report template: %v", err), code)
		return
	}

	utils.WriteJsonResponse(w, template)
}
