package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"ai-research-be/internal/config"
	"ai-research-be/internal/dto"
	"ai-research-be/internal/pkg/logger"
	"ai-research-be/internal/repository/unitofwork"
)

const (
	adminTokenTTL   = 12 * time.Hour
	recentJobsLimit = 10
)

type IAdminService interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error)
	Dashboard(ctx context.Context) (*dto.AdminDashboardResponse, error)
	GetSystemLogs(ctx context.Context, level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogDetail(ctx context.Context, logId string) (*logger.LogEntry, error)
}

// adminService is the operator surface. There is exactly one operator
// account, configured through the environment; no user table backs it.
type adminService struct {
	cfg        config.AdminConfig
	jobService IJobService
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewAdminService(
	cfg config.AdminConfig,
	jobService IJobService,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		cfg:        cfg,
		jobService: jobService,
		uowFactory: uowFactory,
		logger:     log,
	}
}

func (s *adminService) Login(ctx context.Context, req *dto.AdminLoginRequest) (*dto.AdminLoginResponse, error) {
	if s.cfg.Email == "" || s.cfg.PasswordHash == "" {
		return nil, errors.New("admin access is not configured")
	}
	if !strings.EqualFold(req.Email, s.cfg.Email) {
		return nil, errors.New("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("invalid credentials")
	}

	claims := jwt.MapClaims{
		"sub":  s.cfg.Email,
		"role": "admin",
		"exp":  time.Now().Add(adminTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	secret := s.cfg.JWTSecret
	if secret == "" {
		secret = "default_secret"
	}
	signedToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, err
	}

	s.logger.Info("AdminService", "Operator logged in", map[string]interface{}{"email": req.Email})
	return &dto.AdminLoginResponse{AccessToken: signedToken}, nil
}

func (s *adminService) Dashboard(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	jobs, err := s.jobService.ListJobs(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, job := range jobs {
		counts[string(job.Status)]++
	}
	recent := jobs
	if len(recent) > recentJobsLimit {
		recent = recent[:recentJobsLimit]
	}

	res := &dto.AdminDashboardResponse{
		Jobs:       counts,
		JobsTotal:  len(jobs),
		RecentJobs: recent,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if papers, err := uow.PaperRepository().Count(ctx); err == nil {
		res.Papers = papers
	}
	if chunks, err := uow.PaperChunkRepository().Count(ctx); err == nil {
		res.Chunks = chunks
	}
	if conversations, err := uow.ConversationRepository().Count(ctx); err == nil {
		res.Conversations = conversations
	}
	return res, nil
}

func (s *adminService) GetSystemLogs(ctx context.Context, level string, limit, offset int) ([]logger.LogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.logger.GetLogs(level, limit, offset)
}

// GetLogDetail resolves one log line by id. A missing log file and an unknown
// id both read as not found.
func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*logger.LogEntry, error) {
	entry, err := s.logger.GetLogById(logId)
	if err != nil {
		return nil, nil
	}
	return entry, nil
}
