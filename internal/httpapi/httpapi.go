package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"galla/backend/internal/domain"
	"galla/backend/internal/service"
	"galla/backend/internal/store"
)

type API struct {
	service       *service.Service
	auth          *AuthManager
	allowedOrigin string
	loginLimiter  *attemptLimiter
	pinLimiter    *attemptLimiter
	validate      *validator.Validate
	logger        *logrus.Logger
}

func New(svc *service.Service, auth *AuthManager, allowedOrigin string, logger *logrus.Logger) *API {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &API{
		service:       svc,
		auth:          auth,
		allowedOrigin: allowedOrigin,
		loginLimiter:  newAttemptLimiter(5, time.Minute),
		pinLimiter:    newAttemptLimiter(8, time.Minute),
		validate:      validator.New(validator.WithRequiredStructEnabled()),
		logger:        logger,
	}
}

type attemptLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLimiter(max int, window time.Duration) *attemptLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &attemptLimiter{max: max, window: window, entries: make(map[string][]time.Time)}
}

func (l *attemptLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	history := l.entries[key]
	kept := make([]time.Time, 0, len(history)+1)
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	kept = append(kept, now)
	l.entries[key] = kept
	return true
}

func clientKey(r *http.Request) string {
	host := strings.TrimSpace(r.RemoteAddr)
	if host == "" {
		return "unknown"
	}
	if addr, err := netip.ParseAddrPort(host); err == nil {
		return addr.Addr().String()
	}
	if idx := strings.LastIndex(host, ":"); idx > 0 {
		return host[:idx]
	}
	return host
}

func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/login", a.handleLogin)

	mux.HandleFunc("POST /api/v1/day/open", a.requireAuth(a.handleOpenDay, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/day/summary", a.requireAuth(a.handleDaySummary, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/day/reconcile", a.requireAuth(a.handleReconcile, RoleAdmin))

	mux.HandleFunc("POST /api/v1/cart/quote", a.requireAuth(a.handleQuote, RoleCashier, RoleAdmin))
	mux.HandleFunc("POST /api/v1/checkout", a.requireAuth(a.handleCheckout, RoleCashier, RoleAdmin))

	mux.HandleFunc("GET /api/v1/sales", a.requireAuth(a.handleListSales, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/sales/{id}", a.requireAuth(a.handleGetSale, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/sales/{id}/receipt", a.requireAuth(a.handleSaleReceipt, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/sales/{id}/return-draft", a.requireAuth(a.handleReturnDraft, RoleCashier, RoleAdmin))
	mux.HandleFunc("POST /api/v1/returns", a.requireAuth(a.handleReturn, RoleCashier, RoleAdmin))

	mux.HandleFunc("GET /api/v1/dues", a.requireAuth(a.handleListDues, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/dues/{id}", a.requireAuth(a.handleGetDue, RoleCashier, RoleAdmin))
	mux.HandleFunc("POST /api/v1/dues/{id}/collect", a.requireAuth(a.handleCollectDue, RoleCashier, RoleAdmin))
	mux.HandleFunc("POST /api/v1/dues/{id}/settle", a.requireAuth(a.handleSettleDue, RoleCashier, RoleAdmin))

	mux.HandleFunc("POST /api/v1/expenses", a.requireAuth(a.handleRecordExpense, RoleCashier, RoleAdmin))
	mux.HandleFunc("GET /api/v1/expenses", a.requireAuth(a.handleListExpenses, RoleCashier, RoleAdmin))

	return a.withMiddleware(mux)
}

func (a *API) requireAuth(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.TrimSpace(r.Header.Get("Authorization"))
		if !strings.HasPrefix(strings.ToLower(authorization), "bearer ") {
			a.writeError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		token := strings.TrimSpace(authorization[len("Bearer "):])
		actor, err := a.auth.ParseToken(token)
		if err != nil {
			a.writeError(w, http.StatusUnauthorized, err)
			return
		}

		if len(roles) > 0 && !isRoleAllowed(actor.Role, roles) {
			a.writeError(w, http.StatusForbidden, errors.New("forbidden role"))
			return
		}

		next(w, r.WithContext(service.WithActor(r.Context(), actor)))
	}
}

func isRoleAllowed(role string, allowed []string) bool {
	for _, allow := range allowed {
		if role == allow {
			return true
		}
	}
	return false
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		a.writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		a.writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleOpenDay(w http.ResponseWriter, r *http.Request) {
	var req domain.OpenDayRequest
	if !a.decode(w, r, &req) {
		return
	}
	drawer, err := a.service.OpenDay(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"drawer": drawer})
}

func (a *API) handleDaySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := a.service.DaySummary(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *API) handleReconcile(w http.ResponseWriter, r *http.Request) {
	rec, err := a.service.ReconcileDay(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if !a.decode(w, r, &req) {
		return
	}
	quote, err := a.service.Quote(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := a.service.ListSales(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": sales})
}

func (a *API) handleGetSale(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sale, err := a.service.GetSale(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	returns, err := a.service.ListReturns(r.Context(), id)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale": sale, "returns": returns})
}

func (a *API) handleSaleReceipt(w http.ResponseWriter, r *http.Request) {
	slip, err := a.service.SaleReceipt(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slip)
}

func (a *API) handleReturnDraft(w http.ResponseWriter, r *http.Request) {
	items, err := a.service.PrepareReturn(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sale_id": r.PathValue("id"), "items": items})
}

func (a *API) handleReturn(w http.ResponseWriter, r *http.Request) {
	var req domain.ReturnRequest
	if !a.decode(w, r, &req) {
		return
	}
	if !a.pinLimiter.Allow("pin:return:" + clientKey(r)) {
		a.writeError(w, http.StatusTooManyRequests, errors.New("too many manager pin attempts"))
		return
	}
	if !a.auth.ValidateManagerPIN(req.ManagerPIN) {
		a.writeError(w, http.StatusForbidden, errors.New("invalid manager pin"))
		return
	}

	result, err := a.service.ProcessReturn(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleListDues(w http.ResponseWriter, r *http.Request) {
	includeSettled, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	dues, err := a.service.ListDues(r.Context(), includeSettled)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	outstanding, err := a.service.Outstanding(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dues": dues, "outstanding": outstanding})
}

func (a *API) handleGetDue(w http.ResponseWriter, r *http.Request) {
	due, err := a.service.GetDue(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"due": due})
}

func (a *API) handleCollectDue(w http.ResponseWriter, r *http.Request) {
	var req domain.CollectRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.service.CollectDue(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleSettleDue(w http.ResponseWriter, r *http.Request) {
	var req domain.SettleRequest
	if !a.decode(w, r, &req) {
		return
	}
	result, err := a.service.SettleDue(r.Context(), r.PathValue("id"), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleRecordExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseRequest
	if !a.decode(w, r, &req) {
		return
	}
	expense, err := a.service.RecordExpense(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": expense})
}

func (a *API) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := a.service.ListExpenses(r.Context(), r.URL.Query().Get("day"))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"expenses": expenses})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (a *API) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		startedAt := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(startedAt).String(),
		}).Info("request")
	})
}

// decode reads a JSON body and runs struct validation, writing a 400 on
// failure.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		a.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	if err := a.validate.Struct(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			err = errors.New(strings.Join(fields, "; "))
		}
		a.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP statuses. Anything outside the
// known taxonomy is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrConflict),
		errors.Is(err, domain.ErrDrawerNotOpen),
		errors.Is(err, domain.ErrDrawerAlreadyOpen),
		errors.Is(err, domain.ErrDueSettled):
		return http.StatusConflict
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	a.writeError(w, statusFor(err), err)
}

func (a *API) writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic so storage details do not leak to terminals.
	msg := err.Error()
	if status >= 500 {
		a.logger.WithFields(logrus.Fields{"module": "httpapi", "status": status}).Error(err.Error())
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
