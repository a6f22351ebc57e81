package router

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	// swaggerFiles "github.com/swaggo/files"
	// ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"import-wizard-api/internal/client"
	"import-wizard-api/internal/config"
	"import-wizard-api/internal/handler"
	"import-wizard-api/internal/metrics"
	"import-wizard-api/internal/middleware"
	"import-wizard-api/internal/repository"
	"import-wizard-api/internal/service"
)

// Deps carries everything the router wires together
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB // nil until the async connect succeeds
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	CRM     client.SalesmapClient
	LLM     client.OpenAIClient
	S3      client.S3ClientInterface // nil이면 로컬 저장만
}

// Setup builds the gin engine with all routes and middleware
func Setup(d Deps) *gin.Engine {
	gin.SetMode(d.Config.Server.Mode)

	r := gin.New()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.Metrics(d.Metrics))

	// Services
	var exportRepo repository.ExportRecordRepository
	if d.DB != nil {
		exportRepo = repository.NewExportRecordRepository(d.DB)
	}
	uploadSvc := service.NewUploadService()
	analyzerSvc := service.NewAnalyzerService()
	sessionSvc := service.NewSessionService(d.Redis, d.Config.Session.TTL, d.Logger)
	registrySvc := service.NewRegistryService(d.CRM, d.Config.Salesmap.CacheTTL, d.Logger)
	recommendSvc := service.NewRecommendService(registrySvc, d.Logger)
	mappingSvc := service.NewMappingService(registrySvc, d.LLM, d.Metrics, d.Logger)
	validationSvc := service.NewValidationService(registrySvc, mappingSvc, d.Metrics, d.Logger)
	duplicateSvc := service.NewDuplicateService(mappingSvc, d.LLM,
		d.Config.Duplicate.Threshold, d.Config.Duplicate.MaxRows, d.Config.Duplicate.MaxPairs,
		d.Config.Duplicate.UseAI, d.Metrics, d.Logger)
	consultSvc := service.NewConsultService(d.LLM, analyzerSvc, recommendSvc, registrySvc, d.Logger)
	exportSvc := service.NewExportService(mappingSvc, exportRepo, d.S3,
		d.Config.Export.Dir, d.Config.Export.TTL, d.Metrics, d.Logger)
	importSvc := service.NewImportService(mappingSvc, validationSvc, duplicateSvc, exportSvc, d.Logger)

	// Handlers
	uploadHandler := handler.NewUploadHandler(uploadSvc, sessionSvc, analyzerSvc,
		d.Config.Session.Secret, d.Config.Session.TTL, d.Metrics, d.Logger)
	fieldHandler := handler.NewFieldHandler(registrySvc, mappingSvc, sessionSvc, d.Logger)
	mappingHandler := handler.NewMappingHandler(mappingSvc, sessionSvc, d.Logger)
	validationHandler := handler.NewValidationHandler(importSvc, duplicateSvc, sessionSvc, d.Logger)
	consultHandler := handler.NewConsultHandler(consultSvc, sessionSvc, d.Logger)
	importHandler := handler.NewImportHandler(importSvc, exportSvc, sessionSvc, d.Logger)
	healthHandler := handler.NewHealthHandler(d.Redis)

	// Health and metrics (no auth)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation (disabled for faster builds)
	// r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group(d.Config.Server.BasePath)
	{
		// 세션 생성 전이라 토큰이 필요 없는 경로
		api.POST("/upload", uploadHandler.Upload)
		api.GET("/object-types", fieldHandler.ListObjectTypes)
		api.POST("/validate-key", fieldHandler.ValidateKey)
		api.GET("/exports", importHandler.ListExports)
		api.GET("/exports/:filename/download", importHandler.Download)

		// 세션 토큰이 필요한 위저드 경로
		wizard := api.Group("")
		wizard.Use(middleware.SessionAuth(d.Config.Session.Secret))
		{
			wizard.POST("/object-types", fieldHandler.SelectObjectTypes)
			wizard.GET("/fields", fieldHandler.ListFields)

			wizard.GET("/consult/ws", consultHandler.ChatWS)
			wizard.POST("/consult/chat", consultHandler.Chat)
			wizard.POST("/consult/triage", consultHandler.Triage)
			wizard.POST("/consult/summary", consultHandler.Summarize)

			wizard.GET("/mappings", mappingHandler.GetMappings)
			wizard.POST("/automap", mappingHandler.AutoMap)
			wizard.PUT("/mappings", mappingHandler.SetMapping)
			wizard.DELETE("/mappings/:column", mappingHandler.RemoveMapping)
			wizard.POST("/custom-fields", mappingHandler.AddCustomField)
			wizard.DELETE("/custom-fields/:fieldId", mappingHandler.RemoveCustomField)

			wizard.POST("/validate", validationHandler.Validate)
			wizard.GET("/duplicates", validationHandler.Duplicates)

			wizard.GET("/preview", importHandler.Preview)
			wizard.POST("/import", importHandler.Import)
		}
	}

	return r
}
