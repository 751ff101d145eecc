package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	directoryerrors "go-payroll/internal/directory/errors"
	"go-payroll/internal/shared/apperror"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const employeeCacheKeyPrefix = "directory:employee:"

// EmployeeCacheKey is shared with the lifecycle consumer so invalidation and
// population always agree on the key shape.
func EmployeeCacheKey(employeeCode string) string {
	return employeeCacheKeyPrefix + employeeCode
}

//go:generate mockgen -source=directory_client.go -destination=mock/directory_client_mock.go -package=mock
type Client interface {
	GetByCode(ctx context.Context, employeeCode string) (*EmployeeDTO, error)
	ListAll(ctx context.Context) ([]EmployeeDTO, error)
}

type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	CacheTTL  time.Duration
	JWTSecret string
	// Service-account identity stamped into the inter-service token.
	Username string
	Role     string
	TokenTTL time.Duration
}

type httpClient struct {
	rest   *resty.Client
	cfg    ClientConfig
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewHTTPClient(cfg ClientConfig, rdb *redis.Client, logger ...*zap.Logger) Client {
	l := zap.L().Named("directory.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("directory.client")
	}

	rest := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")

	return &httpClient{
		rest:   rest,
		cfg:    cfg,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

// interServiceToken mints a short-lived JWT so the registry can authenticate
// this service without a shared session.
func (c *httpClient) interServiceToken() (string, error) {
	ttl := c.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": c.cfg.Username,
		"role":    c.cfg.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.cfg.JWTSecret))
}

func (c *httpClient) GetByCode(ctx context.Context, employeeCode string) (*EmployeeDTO, error) {
	cacheKey := EmployeeCacheKey(employeeCode)

	if c.rdb != nil {
		if cached, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var dto EmployeeDTO
			if json.Unmarshal([]byte(cached), &dto) == nil {
				return &dto, nil
			}
		}
	}

	v, err, _ := c.sf.Do(cacheKey, func() (interface{}, error) {
		dto, err := c.fetchByCode(ctx, employeeCode)
		if err != nil {
			return nil, err
		}

		if c.rdb != nil {
			if payload, err := json.Marshal(dto); err == nil {
				ttl := c.cfg.CacheTTL
				if ttl <= 0 {
					ttl = 10 * time.Minute
				}
				c.rdb.Set(ctx, cacheKey, payload, ttl)
			}
		}

		return dto, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*EmployeeDTO), nil
}

func (c *httpClient) fetchByCode(ctx context.Context, employeeCode string) (*EmployeeDTO, error) {
	token, err := c.interServiceToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "failed to sign inter-service token", http.StatusInternalServerError)
	}

	var dto EmployeeDTO
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&dto).
		Get("/api/v1/employees/code/" + employeeCode)
	if err != nil {
		c.logger.Error("directory get by code failed",
			zap.String("employee_code", employeeCode),
			zap.Error(err),
		)
		return nil, apperror.Wrap(err, apperror.CodeServiceUnavailable, directoryerrors.ErrDirectoryUnavailable.Message, http.StatusServiceUnavailable)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, directoryerrors.ErrEmployeeNotFound
	case resp.IsError():
		c.logger.Error("directory get by code returned error status",
			zap.String("employee_code", employeeCode),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, directoryerrors.ErrDirectoryUnavailable
	}

	return &dto, nil
}

func (c *httpClient) ListAll(ctx context.Context) ([]EmployeeDTO, error) {
	token, err := c.interServiceToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInternalError, "failed to sign inter-service token", http.StatusInternalServerError)
	}

	// No cache here: bulk generation must see the live population.
	var employees []EmployeeDTO
	resp, err := c.rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&employees).
		Get("/api/v1/employees")
	if err != nil {
		c.logger.Error("directory list all failed", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.CodeServiceUnavailable, directoryerrors.ErrDirectoryUnavailable.Message, http.StatusServiceUnavailable)
	}

	if resp.IsError() {
		c.logger.Error("directory list all returned error status", zap.Int("status", resp.StatusCode()))
		return nil, directoryerrors.ErrDirectoryUnavailable
	}

	if employees == nil {
		employees = []EmployeeDTO{}
	}

	return employees, nil
}
