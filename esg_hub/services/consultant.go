package services

import (
	"fmt"
	"log/slog"
	"net/http"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/schema"
	"esg_platform/esg_hub/storage"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConsultantService struct {
	db       *gorm.DB
	storage  storage.Storage
	userAuth auth.IdentityProvider
}

func (s *ConsultantService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.RoleOnly(schema.ConsultantRole))

	r.Get("/", s.List)
	r.Post("/", s.CreateClient)
	r.Delete("/{link_id}", s.Delete)

	return r
}

func (s *ConsultantService) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	links, err := schema.ListConsultantLinks(user.Id, s.db)
	if err != nil {
		http.Error(w, fmt.Sprintf("error listing consultant organizations: %v", err), http.StatusInternalServerError)
		return
	}

	utils.WriteJsonResponse(w, links)
}

type createClientRequest struct {
	organizationRequest

	ContactPerson string `json:"contactPerson" validate:"max=200"`
	ContactEmail  string `json:"contactEmail" validate:"omitempty,email"`
}

// CreateClient creates an organization without an owner and links the calling
// consultant to it.
func (s *ConsultantService) CreateClient(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var params createClientRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	org := params.toOrganization(nil)
	link := schema.ConsultantOrganization{
		Id:             uuid.New(),
		ConsultantId:   user.Id,
		OrganizationId: org.Id,
		ContactPerson:  params.ContactPerson,
		ContactEmail:   params.ContactEmail,
	}

	err = s.db.Transaction(func(txn *gorm.DB) error {
		if err := createOrganization(txn, &org); err != nil {
			return err
		}
		return createConsultantLink(txn, &link)
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error creating client organization: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("created client organization", "organization_id", org.Id, "consultant_id", user.Id)

	link.Organization = &org
	utils.WriteJsonResponse(w, link)
}

// Delete removes the consultant's link. A client organization nobody owns or
// consults for anymore is removed along with it, including its report archives.
func (s *ConsultantService) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	linkId, err := utils.URLParamUUID(r, "link_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var orphaned *uuid.UUID
	err = s.db.Transaction(func(txn *gorm.DB) error {
		link, err := schema.GetConsultantLink(linkId, user.Id, txn)
		if err != nil {
			return schemaError(err, schema.ErrConsultantLinkNotFound)
		}

		if result := txn.Delete(&link); result.Error != nil {
			slog.Error("sql error deleting consultant link", "link_id", linkId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}

		var remaining int64
		result := txn.Model(&schema.ConsultantOrganization{}).Where("organization_id = ?", link.OrganizationId).Count(&remaining)
		if result.Error != nil {
			slog.Error("sql error counting consultant links", "organization_id", link.OrganizationId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if remaining > 0 {
			return nil
		}

		result = txn.Where("id = ? AND owner_id IS NULL", link.OrganizationId).Delete(&schema.Organization{})
		if result.Error != nil {
			slog.Error("sql error deleting orphaned client organization", "organization_id", link.OrganizationId, "error", result.Error)
			return CodedError(schema.ErrDbAccessFailed, http.StatusInternalServerError)
		}
		if result.RowsAffected > 0 {
			orphaned = &link.OrganizationId
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error deleting consultant organization: %v", err), GetResponseCode(err))
		return
	}

	if orphaned != nil {
		slog.Info("removed orphaned client organization", "organization_id", *orphaned, "consultant_id", user.Id)
		// The organization is gone either way, a leftover archive is only logged.
		if err := s.storage.Delete(archiveDir(*orphaned)); err != nil {
			slog.Error("error deleting report archives of removed organization", "organization_id", *orphaned, "error", err)
		}
	}

	utils.WriteSuccess(w)
}
