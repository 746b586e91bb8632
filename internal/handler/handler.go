package handler

import (
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/config"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/domain"
	"github.com/yongan-ops-dev/roster-manager/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(h.config.Server.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Get("/assignments", h.GetMyAssignments)
			r.Get("/swap-requests", h.GetMySwapRequests)
		})

		r.Route("/staff", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateStaff)
			r.Get("/", h.GetAllStaffInfo)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.staffInfo)
				r.Get("/", h.GetStaffInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateStaff)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteStaff)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateStaffPassword)
			})
		})

		r.Route("/policies/{scope}", func(r chi.Router) {
			r.Get("/current", h.GetCurrentPolicy)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Get("/history", h.GetPolicyHistory)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreatePolicy)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/supersede", h.SupersedePolicy)
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Use(h.preventLeavedStaff)
			r.Post("/", h.ProposeAssignment)
			r.Get("/", h.ListAssignments)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.assignmentInfo)
				r.Get("/", h.GetAssignment)
				r.Patch("/status", h.UpdateAssignmentStatus)
				r.Post("/preparations", h.CreatePreparation)
			})
		})

		r.Route("/swap-requests", func(r chi.Router) {
			r.Use(h.myInfo)
			r.With(h.preventLeavedStaff).Post("/", h.CreateSwapRequest)
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Get("/pending", h.GetPendingSwapRequests)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.swapRequestInfo)
				r.Get("/", h.GetSwapRequest)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Post("/approve", h.ApproveSwapRequest)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin})).Post("/reject", h.RejectSwapRequest)
				r.Post("/withdraw", h.WithdrawSwapRequest)
			})
		})

		r.Route("/rotations", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleManager, domain.RoleAdmin}))
			r.Post("/preview", h.PreviewRotation)
			r.Post("/apply", h.ApplyRotation)
		})
	})
}
