package controllers

import (
	"errors"
	"followtrack/internal/github"
	"followtrack/internal/providers"
	"followtrack/internal/services"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 20 // 1 MB

var errNotFound = errors.New("not found")

type ApiController struct {
	logger  providers.Logger
	service services.FollowerServiceInterface
	cache   providers.CacheProviderInterface
}

type sessionRequest struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}

type sessionResponse struct {
	Username string `json:"username"`
	HasToken bool   `json:"hasToken"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewApiController(logger providers.Logger, service services.FollowerServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		service: service,
		cache:   cache,
	}
}

func getAccount(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("u"))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func snapshotKey(account string) string { return "snapshot:" + account }
func historyKey(account string) string  { return "history:" + account }

const accountsKey = "accounts"

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (ac *ApiController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	switch {
	case errors.Is(err, services.ErrEmptyAccount):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, errNotFound):
		status, message = http.StatusNotFound, "Not Found"
	case errors.Is(err, github.ErrUserNotFound):
		status, message = http.StatusNotFound, "User not found"
	case errors.Is(err, github.ErrRateLimited):
		status, message = http.StatusTooManyRequests, err.Error()
	default:
		ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %s", r.Method, r.URL.Path, err)
	}

	gson, _ := json.Marshal(errorResponse{Error: message})
	writeJSON(w, status, gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

// Refresh runs one refresh of ?u= and drops the cached reads of that account.
func (ac *ApiController) Refresh(w http.ResponseWriter, r *http.Request) {
	account := getAccount(r)
	if account == "" {
		ac.writeError(w, r, services.ErrEmptyAccount)
		return
	}

	result, err := ac.service.Refresh(r.Context(), account, bearerToken(r))
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	ac.cache.Del(snapshotKey(account), historyKey(account), accountsKey)

	gson, err := json.Marshal(result)
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	account := getAccount(r)
	if account == "" {
		ac.writeError(w, r, services.ErrEmptyAccount)
		return
	}
	ac.serveFromCacheOrCompute(w, r, snapshotKey(account), func() (any, error) {
		snap, ok, err := ac.service.Snapshot(r.Context(), account)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errNotFound
		}
		return snap, nil
	})
}

func (ac *ApiController) GetHistory(w http.ResponseWriter, r *http.Request) {
	account := getAccount(r)
	if account == "" {
		ac.writeError(w, r, services.ErrEmptyAccount)
		return
	}
	ac.serveFromCacheOrCompute(w, r, historyKey(account), func() (any, error) {
		return ac.service.History(r.Context(), account)
	})
}

func (ac *ApiController) GetAccounts(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, r, accountsKey, func() (any, error) {
		return ac.service.Accounts(r.Context())
	})
}

func (ac *ApiController) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok, err := ac.service.CurrentSession(r.Context())
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	if !ok {
		ac.writeError(w, r, errNotFound)
		return
	}

	gson, err := json.Marshal(sessionResponse{Username: sess.Username, HasToken: sess.HasToken()})
	if err != nil {
		ac.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

func (ac *ApiController) SaveSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var payload sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if _, err := ac.service.Login(r.Context(), payload.Username, payload.Token); err != nil {
		ac.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) Logout(w http.ResponseWriter, r *http.Request) {
	if err := ac.service.Logout(r.Context()); err != nil {
		ac.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
