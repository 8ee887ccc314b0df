package services

import (
	"log"
	"net/http"
	"os"
	"time"

	"esg_platform/esg_hub/auth"
	"esg_platform/esg_hub/metrics"
	"esg_platform/esg_hub/storage"
	"esg_platform/esg_hub/templates"
	"esg_platform/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"gorm.io/gorm"
)

type Variables struct {
	// Requests per minute per client ip on login and register.
	LoginRateLimit int
}

type EsgPlatform struct {
	user           UserService
	organization   OrganizationService
	consultant     ConsultantService
	companyProfile CompanyProfileService
	governance     GovernanceService
	materiality    MaterialityService
	iroRegister    IroRegisterService
	dueDiligence   DueDiligenceService
	actionPlans    ActionPlanService
	esgKpis        EsgKpiService
	templates      ReportTemplateService
	reports        GeneratedReportService

	metrics   *metrics.Metrics
	variables Variables
}

func NewEsgPlatform(
	db *gorm.DB, storage storage.Storage, userAuth auth.IdentityProvider, catalog *templates.Catalog, metrics *metrics.Metrics, variables Variables,
) EsgPlatform {
	resolver := auth.NewOrganizationResolver(db)
	scoped := scopedService{userAuth: userAuth, resolver: resolver}

	return EsgPlatform{
		user:           UserService{db: db, userAuth: userAuth, resolver: resolver},
		organization:   OrganizationService{db: db, userAuth: userAuth, resolver: resolver},
		consultant:     ConsultantService{db: db, storage: storage, userAuth: userAuth},
		companyProfile: CompanyProfileService{db: db, scopedService: scoped},
		governance:     GovernanceService{db: db, scopedService: scoped},
		materiality:    MaterialityService{db: db, scopedService: scoped},
		iroRegister:    IroRegisterService{db: db, scopedService: scoped},
		dueDiligence:   DueDiligenceService{db: db, scopedService: scoped},
		actionPlans:    ActionPlanService{db: db, scopedService: scoped},
		esgKpis:        EsgKpiService{db: db, scopedService: scoped},
		templates:      ReportTemplateService{userAuth: userAuth, catalog: catalog},
		reports: GeneratedReportService{
			db:            db,
			storage:       storage,
			catalog:       catalog,
			metrics:       metrics,
			scopedService: scoped,
		},
		metrics:   metrics,
		variables: variables,
	}
}

func (e *EsgPlatform) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger: log.New(os.Stderr, "", log.LstdFlags), NoColor: false,
	}))
	r.Use(e.metrics.Middleware)

	r.Group(func(r chi.Router) {
		if e.variables.LoginRateLimit > 0 {
			r.Use(httprate.LimitByIP(e.variables.LoginRateLimit, time.Minute))
		}

		r.Post("/register", e.user.Register)
		r.Post("/login", e.user.Login)
	})

	r.Mount("/user", e.user.Routes())
	r.Mount("/organizations", e.organization.Routes())
	r.Mount("/consultant-organizations", e.consultant.Routes())
	r.Mount("/company-profile", e.companyProfile.Routes())
	r.Mount("/governance-structure", e.governance.Routes())
	r.Mount("/materiality-topics", e.materiality.Routes())
	r.Mount("/iro-register", e.iroRegister.Routes())
	r.Mount("/due-diligence-process", e.dueDiligence.Routes())
	r.Mount("/action-plans", e.actionPlans.Routes())
	r.Mount("/esg-data-kpis", e.esgKpis.Routes())
	r.Mount("/report-templates", e.templates.Routes())
	r.Mount("/generated-reports", e.reports.Routes())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteSuccess(w)
	})

	return r
}

// scopedService carries what every per organization service needs to mount
// its routes behind authentication and organization resolution.
type scopedService struct {
	userAuth auth.IdentityProvider
	resolver *auth.OrganizationResolver
}

func (s *scopedService) scopedRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(s.userAuth.AuthMiddleware()...)
	r.Use(auth.OrganizationScope(s.resolver))
	return r
}
