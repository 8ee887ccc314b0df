package auth

import (
	"errors"
	"fmt"
	"net/http"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"gorm.io/gorm"
)

func RoleOnly(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if user.Role != role {
				http.Error(w, fmt.Sprintf("endpoint is only available to %v accounts", role), http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// OrganizationOwnerOnly guards routes addressing an organization through the
// {organization_id} url parameter. Consultant access does not count.
func OrganizationOwnerOnly(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			orgId, err := utils.URLParamUUID(r, "organization_id")
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			org, err := schema.GetOrganization(orgId, db)
			if err != nil {
				if errors.Is(err, schema.ErrOrganizationNotFound) {
					http.Error(w, err.Error(), http.StatusNotFound)
					return
				}
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			if org.OwnerId == nil || *org.OwnerId != user.Id {
				http.Error(w, "user must own the organization to access endpoint", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
