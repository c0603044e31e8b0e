package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/novahotels/concierge/domain/entities"
	"github.com/novahotels/concierge/domain/repositories"
	"github.com/novahotels/concierge/internal/auth"
	"github.com/novahotels/concierge/internal/config"
	"github.com/novahotels/concierge/internal/hardware"
	"github.com/novahotels/concierge/internal/relay"
)

// Server bundles the REST handlers and their dependencies.
type Server struct {
	cfg       config.Config
	auth      *auth.Manager
	hub       *relay.Hub
	directory repositories.GuestDirectory
	requests  repositories.RequestRepository
	feedback  repositories.FeedbackRepository
	unlocks   repositories.RoomUnlockStore
	memory    repositories.MemoryStore
	readers   *hardware.ReaderService
	logger    *zap.Logger
}

func NewServer(
	cfg config.Config,
	authManager *auth.Manager,
	hub *relay.Hub,
	directory repositories.GuestDirectory,
	requests repositories.RequestRepository,
	feedback repositories.FeedbackRepository,
	unlocks repositories.RoomUnlockStore,
	memory repositories.MemoryStore,
	readers *hardware.ReaderService,
	logger *zap.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		auth:      authManager,
		hub:       hub,
		directory: directory,
		requests:  requests,
		feedback:  feedback,
		unlocks:   unlocks,
		memory:    memory,
		readers:   readers,
		logger:    logger,
	}
}

// Register initializes all API routes.
func (s *Server) Register(e *echo.Echo) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "concierge-server",
		})
	})

	v1 := e.Group("/api/v1")

	// Staff dashboard APIs
	v1.POST("/auth/login", s.login)

	staff := v1.Group("", s.staffAuth)
	staff.GET("/guests", s.listGuests)
	staff.POST("/guests", s.createGuest)
	staff.POST("/guests/:id/checkin", s.checkInGuest)
	staff.POST("/guests/:id/checkout", s.checkOutGuest)
	staff.GET("/requests", s.listRequests)
	staff.POST("/requests/:id/reply", s.replyToRequest)
	staff.GET("/feedback", s.listFeedback)
	staff.GET("/memories", s.listMemories)
	staff.POST("/readers/:id/assign", s.assignReader)
	staff.POST("/readers/:id/card-writes", s.queueCardWrite)

	// Guest app APIs
	v1.GET("/me", s.me)
	v1.POST("/me/activate", s.activate)

	// Door reader APIs
	v1.POST("/nfc/tap", s.nfcTap)
	v1.GET("/nfc/poll", s.nfcPoll)

	// Realtime concierge endpoint
	e.GET("/api/realtime/connect", s.hub.HandleRealtime)
}

// staffAuth guards dashboard routes with a staff JWT from the
// Authorization header.
func (s *Server) staffAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		var token string
		authHeader := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "missing_token",
				Message: "JWT token is required in Authorization header",
			})
		}

		claims, err := s.auth.ValidateToken(token)
		if err != nil {
			s.logger.Warn("Rejected staff token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_token",
				Message: "Invalid or expired JWT token",
			})
		}

		c.Set("staff_email", claims.Email)
		return next(c)
	}
}

func (s *Server) login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	if req.Password != s.cfg.ManagerPassword {
		s.logger.Warn("Staff login failed", zap.String("email", req.Email))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid credentials",
		})
	}

	token, err := s.auth.GenerateStaffToken(req.Email)
	if err != nil {
		s.logger.Error("Failed to generate staff token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	s.logger.Info("Staff logged in", zap.String("email", req.Email))
	return c.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (s *Server) listGuests(c echo.Context) error {
	guests, err := s.directory.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list guests", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	return c.JSON(http.StatusOK, guests)
}

func (s *Server) createGuest(c echo.Context) error {
	var req CreateGuestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	guest := entities.NewGuest(req.FirstName, req.LastName, req.RoomNumber)
	if err := guest.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: err.Error(),
		})
	}

	if err := s.directory.Create(c.Request().Context(), guest); err != nil {
		s.logger.Error("Failed to create guest", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}

	s.logger.Info("Guest created",
		zap.String("guest_id", guest.ID),
		zap.String("room", guest.RoomNumber))
	return c.JSON(http.StatusCreated, guest)
}

func (s *Server) checkInGuest(c echo.Context) error {
	return s.setStayState(c, func(g *entities.Guest) {
		g.CheckedIn = true
		g.CheckedOut = false
	})
}

func (s *Server) checkOutGuest(c echo.Context) error {
	err := s.setStayState(c, func(g *entities.Guest) {
		g.CheckedOut = true
	})
	if err != nil {
		return err
	}

	// Relock the room so the next occupant starts from a tap.
	guest, lookupErr := s.directory.GetByToken(c.Request().Context(), c.Param("id"))
	if lookupErr == nil && guest != nil {
		if lockErr := s.unlocks.Lock(c.Request().Context(), guest.RoomNumber); lockErr != nil {
			s.logger.Warn("Failed to relock room on checkout",
				zap.String("room", guest.RoomNumber),
				zap.Error(lockErr))
		}
	}
	return nil
}

func (s *Server) setStayState(c echo.Context, apply func(*entities.Guest)) error {
	ctx := c.Request().Context()
	guest, err := s.directory.GetByToken(ctx, c.Param("id"))
	if err != nil {
		s.logger.Error("Failed to load guest", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	if guest == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "guest_not_found",
			Message: "Guest not found",
		})
	}

	apply(guest)
	if err := s.directory.Update(ctx, guest); err != nil {
		s.logger.Error("Failed to update guest", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	return c.JSON(http.StatusOK, guest)
}

func (s *Server) listRequests(c echo.Context) error {
	reqType := entities.RequestType(c.QueryParam("type"))
	if reqType != "" && reqType != entities.RequestTypeRequest && reqType != entities.RequestTypeComplaint {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "type must be request or complaint",
		})
	}

	records, err := s.requests.List(c.Request().Context(), reqType)
	if err != nil {
		s.logger.Error("Failed to list requests", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) replyToRequest(c echo.Context) error {
	var req ReplyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if strings.TrimSpace(req.Reply) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Reply text is required",
		})
	}

	if err := s.requests.SetReply(c.Request().Context(), c.Param("id"), req.Reply); err != nil {
		s.logger.Error("Failed to set reply",
			zap.String("request_id", c.Param("id")),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}

	s.logger.Info("Reply recorded", zap.String("request_id", c.Param("id")))
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listFeedback(c echo.Context) error {
	records, err := s.feedback.List(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list feedback", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	return c.JSON(http.StatusOK, records)
}

func (s *Server) listMemories(c echo.Context) error {
	entries, err := s.memory.All(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list memories", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "memory_error"})
	}
	return c.JSON(http.StatusOK, entries)
}

func (s *Server) assignReader(c echo.Context) error {
	var req AssignReaderRequest
	if err := c.Bind(&req); err != nil || req.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "room_number is required",
		})
	}

	s.readers.AssignReader(c.Param("id"), req.RoomNumber)
	return c.JSON(http.StatusOK, map[string]string{
		"reader_id":   c.Param("id"),
		"room_number": req.RoomNumber,
	})
}

func (s *Server) queueCardWrite(c echo.Context) error {
	var req CardWriteRequest
	if err := c.Bind(&req); err != nil || req.RoomNumber == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "room_number is required",
		})
	}

	job := s.readers.EnqueueCardWrite(c.Param("id"), req.RoomNumber, req.GuestID)
	return c.JSON(http.StatusAccepted, job)
}

func (s *Server) me(c echo.Context) error {
	token := c.QueryParam("guest_token")
	if token == "" {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "guest_token is required",
		})
	}

	ctx := c.Request().Context()
	guest, err := s.directory.GetByToken(ctx, token)
	if err != nil {
		s.logger.Error("Failed to load guest", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	if guest == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "guest_not_found",
			Message: "Guest not found",
		})
	}

	unlocked, err := s.unlocks.IsUnlocked(ctx, guest.RoomNumber)
	if err != nil {
		s.logger.Warn("Failed to read unlock state",
			zap.String("room", guest.RoomNumber),
			zap.Error(err))
	}

	allowed := guest.CheckedIn && !guest.CheckedOut && !guest.Archived && unlocked
	return c.JSON(http.StatusOK, MeResponse{
		GuestID:          guest.ID,
		FirstName:        guest.FirstName,
		LastName:         guest.LastName,
		RoomNumber:       guest.RoomNumber,
		ConciergeAllowed: allowed,
	})
}

func (s *Server) activate(c echo.Context) error {
	var req ActivateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}
	if req.RoomNumber == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "room_number, first_name and last_name are required",
		})
	}

	guest, err := s.directory.FindByRoomAndName(c.Request().Context(), req.RoomNumber, req.FirstName, req.LastName)
	if err != nil {
		s.logger.Error("Failed to look up guest for activation", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}
	if guest == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "guest_not_found",
			Message: "Guest not found",
		})
	}
	if guest.CheckedOut || guest.Archived {
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "account_disabled",
			Message: "Account disabled",
		})
	}

	s.logger.Info("Guest app activated",
		zap.String("guest_id", guest.ID),
		zap.String("room", guest.RoomNumber))
	return c.JSON(http.StatusOK, ActivateResponse{
		Token:      guest.ID,
		FirstName:  guest.FirstName,
		RoomNumber: guest.RoomNumber,
	})
}

func (s *Server) nfcTap(c echo.Context) error {
	var req TapRequest
	if err := c.Bind(&req); err != nil || req.ReaderID == "" || req.CardUID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "reader_id and card_uid are required",
		})
	}

	room, err := s.readers.RecordTap(c.Request().Context(), req.ReaderID, req.CardUID)
	if err != nil {
		if err == hardware.ErrReaderUnassigned {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "reader_unassigned",
				Message: "Reader is not assigned to a room",
			})
		}
		s.logger.Error("Failed to record tap",
			zap.String("reader_id", req.ReaderID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "storage_error"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"room_number": room,
		"status":      "unlocked",
	})
}

func (s *Server) nfcPoll(c echo.Context) error {
	readerID := c.QueryParam("reader_id")
	if readerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "reader_id is required",
		})
	}

	job, ok := s.readers.NextCardWrite(readerID)
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, job)
}
