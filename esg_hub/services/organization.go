package services

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type OrganizationService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	resolver *auth.OrganizationResolver
}

func (s *OrganizationService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)

	r.Get("/", s.List)
	r.With(auth.RoleOnly(schema.OrganizationRole)).Post("/", s.Create)
	r.With(auth.OrganizationScope(s.resolver)).Get("/current", s.Current)

	r.Route("/{organization_id}/consultants", func(r chi.Router) {
		r.Use(auth.OrganizationOwnerOnly(s.db))

		r.Get("/", s.ListConsultants)
		r.Post("/", s.AddConsultant)
		r.Delete("/{link_id}", s.RemoveConsultant)
	})

	return r
}

type organizationRequest struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Industry      string  `json:"industry" validate:"max=200"`
	Country       string  `json:"country" validate:"max=100"`
	EmployeeCount int     `json:"employeeCount" validate:"gte=0"`
	Revenue       float64 `json:"revenue" validate:"gte=0"`
	ReportingYear int     `json:"reportingYear" validate:"omitempty,gte=1900,lte=2200"`
}

func (o *organizationRequest) toOrganization(ownerId *uuid.UUID) schema.Organization {
	return schema.Organization{
		Id:            uuid.New(),
		Name:          o.Name,
		Slug:          slug.Make(o.Name),
		Industry:      o.Industry,
		Country:       o.Country,
		EmployeeCount: o.EmployeeCount,
		Revenue:       o.Revenue,
		ReportingYear: o.ReportingYear,
		OwnerId:       ownerId,
	}
}

func createOrganization(txn *gorm.DB, org *schema.Organization) error {
	result := txn.Create(org)
	if result.Error != nil {
		slog.Error("sql error creating organization", "name", org.Name, "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return nil
}

func (s *OrganizationService) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	orgs, err := s.resolver.AccessibleOrganizations(user.Id)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing organizations: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, orgs)
}

func (s *OrganizationService) Create(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params organizationRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	org := params.toOrganization(&user.Id)
	if err := createOrganization(s.db, &org); err != nil {
		http.Error(w, fmt.Sprintf("error creating organization: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created organization", "organization_id", org.Id, "owner_id", user.Id)

	utils.WriteJsonResponse(w, org)
}

func (s *OrganizationService) Current(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}
	utils.WriteJsonResponse(w, org)
}

func (s *OrganizationService) ListConsultants(w http.ResponseWriter, r *http.Request) {
	orgId, err := utils.URLParamUUID(r, "organization_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var links []schema.ConsultantOrganization
	result := s.db.Preload("Consultant").Where("organization_id = ?", orgId).Order("created_at").Find(&links)
	if result.Error != nil {
		slog.Error("sql error listing consultants for organization", "organization_id", orgId, "error", result.Error)
		http.Error(w, schema.ErrDbAccessFailed.Error(), http.StatusInternalServerError)
		return
	}

	type consultantInfo struct {
		LinkId        uuid.UUID `json:"linkId"`
		ConsultantId  uuid.UUID `json:"consultantId"`
		Username      string    `json:"username"`
		Email         string    `json:"email"`
		ContactPerson string    `json:"contactPerson"`
		ContactEmail  string    `json:"contactEmail"`
	}

	infos := make([]consultantInfo, 0, len(links))
	for _, link := range links {
		info := consultantInfo{
			LinkId:        link.Id,
			ConsultantId:  link.ConsultantId,
			ContactPerson: link.ContactPerson,
			ContactEmail:  link.ContactEmail,
		}
		if link.Consultant != nil {
			info.Username = link.Consultant.Username
			info.Email = link.Consultant.Email
		}
		infos = append(infos, info)
	}

	utils.WriteJsonResponse(w, infos)
}

type addConsultantRequest struct {
	Email         string `json:"email" validate:"required,email"`
	ContactPerson string `json:"contactPerson" validate:"max=200"`
	ContactEmail  string `json:"contactEmail" validate:"omitempty,email"`
}

func (s *OrganizationService) AddConsultant(w http.ResponseWriter, r *http.Request) {
	orgId, err := utils.URLParamUUID(r, "organization_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var params addConsultantRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	link := schema.ConsultantOrganization{
		Id:             uuid.New(),
		OrganizationId: orgId,
		ContactPerson:  params.ContactPerson,
		ContactEmail:   params.ContactEmail,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		consultant, err := schema.GetUserByEmail(params.Email, txn)
		if err != nil {
			return schemaError(err, schema.ErrUserNotFound)
		}
		if consultant.Role != schema.ConsultantRole {
			return CodedError(fmt.Errorf("user %v is not a consultant", params.Email), http.StatusUnprocessableEntity)
		}
		link.ConsultantId = consultant.Id

		return createConsultantLink(txn, &link)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error adding consultant: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("granted consultant access", "organization_id", orgId, "consultant_id", link.ConsultantId)

	utils.WriteJsonResponse(w, link)
}

func createConsultantLink(txn *gorm.DB, link *schema.ConsultantOrganization) error {
	var existing schema.ConsultantOrganization
	result := txn.Limit(1).Find(&existing, "consultant_id = ? AND organization_id = ?", link.ConsultantId, link.OrganizationId)
	if result.Error != nil {
		slog.Error("sql error checking for existing consultant link", "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	if result.RowsAffected != 0 {
		return CodedError(errors.New("consultant already has access to organization"), http.StatusConflict)
	}

	result = txn.Create(link)
	if result.Error != nil {
		slog.Error("sql error creating consultant link", "error", result.Error)
		return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
	}
	return nil
}

func (s *OrganizationService) RemoveConsultant(w http.ResponseWriter, r *http.Request) {
	orgId, err := utils.URLParamUUID(r, "organization_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	linkId, err := utils.URLParamUUID(r, "link_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = deleteOrgRecord(s.db, &schema.ConsultantOrganization{}, orgId, linkId, schema.ErrConsultantLinkNotFound, "revoke consultant access")
	if err != nil {
		http.Error(w, fmt.Sprintf("error removing consultant: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteSuccess(w)
}
