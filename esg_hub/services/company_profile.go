package services

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"esg_platform/esg_hub/schema"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"
)

type CompanyProfileService struct {
	db *gorm.DB
	scopedService
}

func (s *CompanyProfileService) Routes() chi.Router {
	r := s.scopedRouter()

	r.Get("/", s.Get)
	r.Post("/", s.Save)

	return r
}

type subsidiaryRequest struct {
	Name                string  `json:"name" validate:"required,max=300"`
	Country             string  `json:"country" validate:"max=100"`
	OwnershipPercentage float64 `json:"ownershipPercentage" validate:"gte=0,lte=100"`
}

type ownershipRequest struct {
	Shareholder         string  `json:"shareholder" validate:"required,max=300"`
	ShareholderType     string  `json:"shareholderType" validate:"max=100"`
	OwnershipPercentage float64 `json:"ownershipPercentage" validate:"gte=0,lte=100"`
}

type initiativeRequest struct {
	Name        string `json:"name" validate:"required,max=300"`
	Description string `json:"description"`
	Status      string `json:"status" validate:"max=50"`
	StartDate   string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
}

type profileKpiRequest struct {
	Name   string `json:"name" validate:"required,max=300"`
	Value  string `json:"value" validate:"max=100"`
	Unit   string `json:"unit" validate:"max=50"`
	Target string `json:"target" validate:"max=100"`
	Year   int    `json:"year" validate:"omitempty,gte=1900,lte=2200"`
}

type companyProfileRequest struct {
	LegalName          string `json:"legalName" validate:"required,max=300"`
	RegistrationNumber string `json:"registrationNumber" validate:"max=100"`
	LegalForm          string `json:"legalForm" validate:"max=100"`
	NaceCode           string `json:"naceCode" validate:"max=50"`
	Industry           string `json:"industry" validate:"max=200"`
	Sector             string `json:"sector" validate:"max=200"`

	HeadquartersCountry string   `json:"headquartersCountry" validate:"max=100"`
	HeadquartersCity    string   `json:"headquartersCity" validate:"max=100"`
	Address             string   `json:"address"`
	OperatingCountries  []string `json:"operatingCountries"`
	Website             string   `json:"website" validate:"omitempty,url"`

	EmployeeCount int     `json:"employeeCount" validate:"gte=0"`
	Revenue       float64 `json:"revenue" validate:"gte=0"`
	Currency      string  `json:"currency" validate:"omitempty,len=3"`

	FiscalYearEnd string `json:"fiscalYearEnd" validate:"omitempty,datetime=2006-01-02"`

	BusinessModel          string `json:"businessModel"`
	KeyProducts            string `json:"keyProducts"`
	KeyMarkets             string `json:"keyMarkets"`
	ValueChain             string `json:"valueChain"`
	SustainabilityStrategy string `json:"sustainabilityStrategy"`

	Subsidiaries       []subsidiaryRequest `json:"subsidiaries" validate:"dive"`
	OwnershipStructure []ownershipRequest  `json:"ownershipStructure" validate:"dive"`
	Initiatives        []initiativeRequest `json:"sustainabilityInitiatives" validate:"dive"`
	Kpis               []profileKpiRequest `json:"sustainabilityKpis" validate:"dive"`
}

func (p *companyProfileRequest) toProfile() (schema.CompanyProfile, error) {
	fiscalYearEnd, err := parseDate(p.FiscalYearEnd)
	if err != nil {
		return schema.CompanyProfile{}, err
	}

	profile := schema.CompanyProfile{
		LegalName:              p.LegalName,
		RegistrationNumber:     p.RegistrationNumber,
		LegalForm:              p.LegalForm,
		NaceCode:               p.NaceCode,
		Industry:               p.Industry,
		Sector:                 p.Sector,
		HeadquartersCountry:    p.HeadquartersCountry,
		HeadquartersCity:       p.HeadquartersCity,
		Address:                p.Address,
		OperatingCountries:     p.OperatingCountries,
		Website:                p.Website,
		EmployeeCount:          p.EmployeeCount,
		Revenue:                p.Revenue,
		Currency:               p.Currency,
		FiscalYearEnd:          fiscalYearEnd,
		BusinessModel:          p.BusinessModel,
		KeyProducts:            p.KeyProducts,
		KeyMarkets:             p.KeyMarkets,
		ValueChain:             p.ValueChain,
		SustainabilityStrategy: p.SustainabilityStrategy,
		UpdatedAt:              time.Now().UTC(),
	}
	if profile.OperatingCountries == nil {
		profile.OperatingCountries = []string{}
	}

	for _, sub := range p.Subsidiaries {
		profile.Subsidiaries = append(profile.Subsidiaries, schema.Subsidiary{
			Name: sub.Name, Country: sub.Country, OwnershipPercentage: sub.OwnershipPercentage,
		})
	}
	for _, owner := range p.OwnershipStructure {
		profile.OwnershipStructure = append(profile.OwnershipStructure, schema.OwnershipStructure{
			Shareholder: owner.Shareholder, ShareholderType: owner.ShareholderType, OwnershipPercentage: owner.OwnershipPercentage,
		})
	}
	for _, initiative := range p.Initiatives {
		startDate, err := parseDate(initiative.StartDate)
		if err != nil {
			return schema.CompanyProfile{}, err
		}
		profile.Initiatives = append(profile.Initiatives, schema.SustainabilityInitiative{
			Name: initiative.Name, Description: initiative.Description, Status: initiative.Status, StartDate: startDate,
		})
	}
	for _, kpi := range p.Kpis {
		profile.Kpis = append(profile.Kpis, schema.SustainabilityKPI{
			Name: kpi.Name, Value: kpi.Value, Unit: kpi.Unit, Target: kpi.Target, Year: kpi.Year,
		})
	}

	return profile, nil
}

func (s *CompanyProfileService) Get(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	profile, err := schema.GetCompanyProfile(org.Id, s.db, true)
	if err != nil {
		err = schemaError(err, schema.ErrCompanyProfileNotFound)
		http.Error(w, fmt.Sprintf("error retrieving company profile: %v", err), GetResponseCode(err))
		return
	}

	utils.WriteJsonResponse(w, profile)
}

// Save upserts the profile and replaces all of its child rows in one transaction.
func (s *CompanyProfileService) Save(w http.ResponseWriter, r *http.Request) {
	org, ok := requestOrganization(w, r)
	if !ok {
		return
	}

	var params companyProfileRequest
	if !utils.ParseRequestBody(w, r, &params) {
		return
	}

	profile, err := params.toProfile()
	if err != nil {
		http.Error(w, err.Error(), GetResponseCode(err))
		return
	}
	profile.OrganizationId = org.Id

	var saved schema.CompanyProfile
	err = s.db.Transaction(func(txn *gorm.DB) error {
		stored, err := schema.UpsertCompanyProfile(txn, profile)
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}

		stored.Subsidiaries = profile.Subsidiaries
		stored.OwnershipStructure = profile.OwnershipStructure
		stored.Initiatives = profile.Initiatives
		stored.Kpis = profile.Kpis
		if err := schema.ReplaceCompanyProfileChildren(txn, stored); err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}

		saved, err = schema.GetCompanyProfile(org.Id, txn, true)
		if err != nil {
			return CodedError(err, http.StatusInternalServerError)
		}
		return nil
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("error saving company profile: %v", err), GetResponseCode(err))
		return
	}

	slog.Info("saved company profile", "organization_id", org.Id, "subsidiaries", len(saved.Subsidiaries))

	utils.WriteJsonResponse(w, saved)
}
