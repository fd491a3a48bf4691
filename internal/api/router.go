package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"casino-maintenance-backend/internal/auth"
	"casino-maintenance-backend/internal/metrics"
	"casino-maintenance-backend/internal/mw"
	"casino-maintenance-backend/internal/store"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Store  store.Store
	Auth   *auth.Service
	Logger *slog.Logger
	Now    func() time.Time

	// Metrics receives request and auth counters; Gatherer backs /metrics.
	// Either may be nil.
	Metrics  metrics.Recorder
	Gatherer prometheus.Gatherer

	// CredentialLimiter throttles /token and registration per client IP.
	// Nil uses one request per second with a burst of five.
	CredentialLimiter *mw.IPRateLimiter
	TrustedProxies    []string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) (*gin.Engine, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	if d.CredentialLimiter == nil {
		d.CredentialLimiter = mw.NewIPRateLimiter(rate.Limit(1), 5, 0)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		return nil, err
	}
	r.Use(gin.Recovery(), mw.RequestLogger(d.Logger), mw.Metrics(d.Metrics))

	h := NewHandler(d.Store, d.Auth, d.Metrics, d.Now, d.Logger)
	throttle := mw.RateLimit(d.CredentialLimiter, d.Metrics, d.Logger)
	authed := mw.BearerAuth(d.Auth, d.Metrics, d.Logger)
	admin := mw.AdminRequired(d.Logger)

	r.GET("/", h.GetRoot)
	r.GET("/health", h.GetHealth)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	r.POST("/token", throttle, h.PostToken)
	r.POST("/users/", throttle, h.PostUser)

	users := r.Group("/users", authed)
	{
		users.GET("/me/", h.GetMe)
		users.GET("/", admin, h.ListUsers)
		users.PATCH("/:user_id", admin, h.PatchUser)
	}

	machines := r.Group("/machines", authed)
	{
		machines.GET("/", h.ListMachines)
		machines.POST("/", h.CreateMachine)
		machines.GET("/:machine_number", h.GetMachine)
		machines.PATCH("/:machine_number", h.PatchMachine)
		machines.GET("/:machine_number/maintenance", h.GetMachineMaintenance)
	}

	technicians := r.Group("/technicians", authed)
	{
		technicians.GET("/", h.ListTechnicians)
		technicians.POST("/", h.CreateTechnician)
		technicians.GET("/:technician_id", h.GetTechnician)
		technicians.PATCH("/:technician_id", h.PatchTechnician)
	}

	records := r.Group("/maintenance-records", authed)
	{
		records.GET("/", h.ListMaintenanceRecords)
		records.POST("/", h.CreateMaintenanceRecord)
		records.GET("/:record_id", h.GetMaintenanceRecord)
		records.PATCH("/:record_id", h.PatchMaintenanceRecord)
	}

	return r, nil
}
