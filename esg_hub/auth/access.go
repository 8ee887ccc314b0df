package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"
	"esg_platform/utils/logging"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNoAccessibleOrganization = errors.New("no organization found for user")
	ErrOrganizationAccessDenied = errors.New("user does not have access to the requested organization")
)

const (
	AccessOwner      = "owner"
	AccessConsultant = "consultant"
)

const (
	OrganizationQueryParam = "organizationId"
	OrganizationHeader     = "X-Organization-Id"
)

type OrganizationSummary struct {
	Id            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Industry      string    `json:"industry"`
	Country       string    `json:"country"`
	EmployeeCount int       `json:"employeeCount"`
	Revenue       float64   `json:"revenue"`
	ReportingYear int       `json:"reportingYear"`

	Access string `json:"access"`

	// Only set for consultant access.
	LinkId        *uuid.UUID `json:"linkId,omitempty"`
	ContactPerson string     `json:"contactPerson,omitempty"`
	ContactEmail  string     `json:"contactEmail,omitempty"`
}

func summarize(org schema.Organization, access string) OrganizationSummary {
	return OrganizationSummary{
		Id:            org.Id,
		Name:          org.Name,
		Industry:      org.Industry,
		Country:       org.Country,
		EmployeeCount: org.EmployeeCount,
		Revenue:       org.Revenue,
		ReportingYear: org.ReportingYear,
		Access:        access,
	}
}

// OrganizationResolver decides which organization a request acts on. Owned
// organizations take precedence; consultant links are only consulted when the
// user owns nothing.
type OrganizationResolver struct {
	db *gorm.DB
}

func NewOrganizationResolver(db *gorm.DB) *OrganizationResolver {
	return &OrganizationResolver{db: db}
}

func (o *OrganizationResolver) AccessibleOrganizations(userId uuid.UUID) ([]OrganizationSummary, error) {
	owned, err := schema.ListOwnedOrganizations(userId, o.db)
	if err != nil {
		return nil, err
	}

	summaries := make([]OrganizationSummary, 0, len(owned))
	for _, org := range owned {
		summaries = append(summaries, summarize(org, AccessOwner))
	}
	if len(summaries) > 0 {
		return summaries, nil
	}

	links, err := schema.ListConsultantLinks(userId, o.db)
	if err != nil {
		return nil, err
	}
	for _, link := range links {
		if link.Organization == nil {
			continue
		}
		summary := summarize(*link.Organization, AccessConsultant)
		summary.LinkId = &link.Id
		summary.ContactPerson = link.ContactPerson
		summary.ContactEmail = link.ContactEmail
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// Resolve returns the requested organization if the user may access it, or the
// first accessible organization when requested is nil. An explicit id outside
// the accessible set is always denied, even when that set is empty.
func (o *OrganizationResolver) Resolve(userId uuid.UUID, requested *uuid.UUID) (OrganizationSummary, error) {
	accessible, err := o.AccessibleOrganizations(userId)
	if err != nil {
		return OrganizationSummary{}, err
	}

	if requested == nil {
		if len(accessible) == 0 {
			return OrganizationSummary{}, ErrNoAccessibleOrganization
		}
		return accessible[0], nil
	}

	for _, org := range accessible {
		if org.Id == *requested {
			return org, nil
		}
	}

	return OrganizationSummary{}, ErrOrganizationAccessDenied
}

func requestedOrganization(r *http.Request) (*uuid.UUID, error) {
	requested, err := utils.OptionalQueryUUID(r, OrganizationQueryParam)
	if err != nil || requested != nil {
		return requested, err
	}

	raw := r.Header.Get(OrganizationHeader)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id '%v' in %v header: %w", raw, OrganizationHeader, err)
	}
	return &id, nil
}

// OrganizationScope resolves the organization for every request it wraps. It
// must run after the auth middleware.
func OrganizationScope(resolver *OrganizationResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			user, err := UserFromContext(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}

			requested, err := requestedOrganization(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			org, err := resolver.Resolve(user.Id, requested)
			if err != nil {
				switch {
				case errors.Is(err, ErrNoAccessibleOrganization):
					slog.Info("no organization for user", "user_id", user.Id, "code", logging.ACCESS_NO_SCOPE)
					http.Error(w, err.Error(), http.StatusNotFound)
				case errors.Is(err, ErrOrganizationAccessDenied):
					slog.Warn("organization access denied", "user_id", user.Id, "organization_id", *requested, "code", logging.ACCESS_DENIED)
					http.Error(w, err.Error(), http.StatusForbidden)
				default:
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}

			reqCtx := context.WithValue(r.Context(), organizationRequestContextKey, org)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		}
		return http.HandlerFunc(hfn)
	}
}

func OrganizationFromContext(r *http.Request) (OrganizationSummary, error) {
	orgUntyped := r.Context().Value(organizationRequestContextKey)
	if orgUntyped == nil {
		return OrganizationSummary{}, fmt.Errorf("organization not found in request context")
	}
	org, ok := orgUntyped.(OrganizationSummary)
	if !ok {
		return OrganizationSummary{}, fmt.Errorf("invalid value for organization field")
	}
	return org, nil
}
